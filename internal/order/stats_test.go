package order

import (
	"context"
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velora_back_end/internal/apperr"
	"velora_back_end/internal/models"
)

func seedOrder(orders *fakeOrderStore, total string, createdAt time.Time, paid, delivered bool) {
	id := gocql.TimeUUID()
	orders.orders[id] = &models.Order{
		ID:          id,
		UserID:      customer.ID,
		TotalPrice:  decimal.RequireFromString(total),
		Status:      models.OrderPending,
		IsPaid:      paid,
		IsDelivered: delivered,
		CreatedAt:   createdAt,
	}
}

func TestStatsAdminOnly(t *testing.T) {
	engine := newOrderEngine(newFakeProductStore(), newFakeOrderStore())

	_, err := engine.Stats(context.Background(), customer)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
}

func TestStatsEmpty(t *testing.T) {
	engine := newOrderEngine(newFakeProductStore(), newFakeOrderStore())

	stats, err := engine.Stats(context.Background(), admin)
	require.NoError(t, err)

	assert.Equal(t, 0, stats.TotalOrders)
	assert.True(t, stats.TotalRevenue.IsZero())
	assert.True(t, stats.AverageOrderValue.IsZero())
	assert.Empty(t, stats.Monthly)
}

func TestStatsAggregation(t *testing.T) {
	orders := newFakeOrderStore()
	engine := newOrderEngine(newFakeProductStore(), orders)

	march := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	february := time.Date(2026, 2, 20, 9, 0, 0, 0, time.UTC)

	seedOrder(orders, "100.00", march, true, true)
	seedOrder(orders, "50.00", march, true, false)
	seedOrder(orders, "25.00", february, false, false)

	stats, err := engine.Stats(context.Background(), admin)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalOrders)
	assert.True(t, stats.TotalRevenue.Equal(decimal.RequireFromString("175.00")))
	assert.True(t, stats.AverageOrderValue.Equal(decimal.RequireFromString("58.33")), "175 / 3 arrondi à 2 décimales")
	assert.Equal(t, 2, stats.PaidOrders)
	assert.Equal(t, 1, stats.DeliveredOrders)

	// Ventilation mensuelle, plus récent d'abord.
	require.Len(t, stats.Monthly, 2)
	assert.Equal(t, 3, stats.Monthly[0].Month)
	assert.Equal(t, 2, stats.Monthly[0].Orders)
	assert.True(t, stats.Monthly[0].Revenue.Equal(decimal.RequireFromString("150.00")))
	assert.Equal(t, 2, stats.Monthly[1].Month)
	assert.Equal(t, 1, stats.Monthly[1].Orders)
}

func TestStatsMonthlyWindowCapped(t *testing.T) {
	orders := newFakeOrderStore()
	engine := newOrderEngine(newFakeProductStore(), orders)

	// 15 mois de commandes : seuls les 12 plus récents sont exposés.
	base := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 15; i++ {
		seedOrder(orders, "10.00", base.AddDate(0, i, 0), false, false)
	}

	stats, err := engine.Stats(context.Background(), admin)
	require.NoError(t, err)

	assert.Equal(t, 15, stats.TotalOrders)
	require.Len(t, stats.Monthly, 12)
	assert.Equal(t, 2026, stats.Monthly[0].Year)
	assert.Equal(t, 3, stats.Monthly[0].Month)
}

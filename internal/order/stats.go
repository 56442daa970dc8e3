package order

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"velora_back_end/internal/access"
	"velora_back_end/internal/models"
)

const monthlyStatsLimit = 12

// Stats agrège l'ensemble des commandes pour le dashboard admin : volumes,
// chiffre d'affaires, panier moyen, et ventilation mensuelle (12 derniers
// mois calendaires, plus récent d'abord).
func (e *Engine) Stats(ctx context.Context, actor models.Actor) (*models.OrderStats, error) {
	if err := access.RequireAdmin(actor); err != nil {
		return nil, err
	}

	stats := &models.OrderStats{
		TotalRevenue:      decimal.Zero,
		AverageOrderValue: decimal.Zero,
		Monthly:           []models.MonthlyStats{},
	}

	type monthKey struct {
		year  int
		month int
	}
	monthly := make(map[monthKey]*models.MonthlyStats)

	err := e.orders.ForEach(ctx, func(o *models.Order) error {
		stats.TotalOrders++
		stats.TotalRevenue = stats.TotalRevenue.Add(o.TotalPrice)
		if o.IsPaid {
			stats.PaidOrders++
		}
		if o.IsDelivered {
			stats.DeliveredOrders++
		}

		key := monthKey{year: o.CreatedAt.Year(), month: int(o.CreatedAt.Month())}
		m, ok := monthly[key]
		if !ok {
			m = &models.MonthlyStats{Year: key.year, Month: key.month, Revenue: decimal.Zero}
			monthly[key] = m
		}
		m.Orders++
		m.Revenue = m.Revenue.Add(o.TotalPrice)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if stats.TotalOrders > 0 {
		stats.AverageOrderValue = stats.TotalRevenue.
			Div(decimal.NewFromInt(int64(stats.TotalOrders))).
			Round(2)
	}

	for _, m := range monthly {
		stats.Monthly = append(stats.Monthly, *m)
	}
	sort.Slice(stats.Monthly, func(i, j int) bool {
		a, b := stats.Monthly[i], stats.Monthly[j]
		if a.Year != b.Year {
			return a.Year > b.Year
		}
		return a.Month > b.Month
	})
	if len(stats.Monthly) > monthlyStatsLimit {
		stats.Monthly = stats.Monthly[:monthlyStatsLimit]
	}

	return stats, nil
}

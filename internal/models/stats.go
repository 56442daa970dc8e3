package models

import "github.com/shopspring/decimal"

type OrderStats struct {
	TotalOrders       int             `json:"total_orders"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
	PaidOrders        int             `json:"paid_orders"`
	DeliveredOrders   int             `json:"delivered_orders"`
	Monthly           []MonthlyStats  `json:"monthly"`
}

// MonthlyStats : ventilation commandes/CA par mois calendaire,
// triée du plus récent au plus ancien, limitée à 12 mois.
type MonthlyStats struct {
	Year    int             `json:"year"`
	Month   int             `json:"month"`
	Orders  int             `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

package repository

import (
	"context"

	"github.com/shopspring/decimal"
)

type DailySalesRow struct {
	Date    string          `json:"date"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int64           `json:"orders"`
}

type PopularItemRow struct {
	ItemName string `json:"item_name"`
	Count    int64  `json:"count"`
}

type OverallStats struct {
	TotalOrders   int64           `json:"total_orders"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	AvgOrderValue decimal.Decimal `json:"avg_order_value"`
}

// ダッシュボード用の集計。CANCELLED は売上から除外する。
type AnalyticsRepository interface {
	DailySales(ctx context.Context, days int) ([]DailySalesRow, error)
	PopularItems(ctx context.Context, limit int) ([]PopularItemRow, error)
	Stats(ctx context.Context) (OverallStats, error)
}

package repository

import (
	"context"
	"fmt"

	repo "bistro/internal/repository"

	"gorm.io/gorm"
)

type AnalyticsGormRepository struct {
	db *gorm.DB
}

func NewAnalyticsGormRepository(db *gorm.DB) *AnalyticsGormRepository {
	return &AnalyticsGormRepository{db: db}
}

func (r *AnalyticsGormRepository) DailySales(ctx context.Context, days int) ([]repo.DailySalesRow, error) {
	if days <= 0 {
		days = 30
	}
	var rows []repo.DailySalesRow
	interval := fmt.Sprintf("%d days", days)
	err := r.db.WithContext(ctx).Raw(`
		SELECT TO_CHAR(created_at, 'YYYY-MM-DD') AS date,
		       SUM(total_amount)                 AS revenue,
		       COUNT(*)                          AS orders
		FROM orders
		WHERE status <> 'CANCELLED' AND created_at > NOW() - ?::interval
		GROUP BY 1
		ORDER BY 1 ASC`, interval).Scan(&rows).Error
	if err != nil {
		return []repo.DailySalesRow{}, err
	}
	return rows, nil
}

func (r *AnalyticsGormRepository) PopularItems(ctx context.Context, limit int) ([]repo.PopularItemRow, error) {
	if limit <= 0 {
		limit = 5
	}
	var rows []repo.PopularItemRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT item_name     AS item_name,
		       SUM(quantity) AS count
		FROM order_items
		GROUP BY 1
		ORDER BY 2 DESC
		LIMIT ?`, limit).Scan(&rows).Error
	if err != nil {
		return []repo.PopularItemRow{}, err
	}
	return rows, nil
}

func (r *AnalyticsGormRepository) Stats(ctx context.Context) (repo.OverallStats, error) {
	var s repo.OverallStats
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) AS total_orders,
		       COALESCE(SUM(CASE WHEN status <> 'CANCELLED' THEN total_amount END), 0) AS total_revenue,
		       COALESCE(AVG(CASE WHEN status <> 'CANCELLED' THEN total_amount END), 0) AS avg_order_value
		FROM orders`).Scan(&s).Error
	if err != nil {
		return repo.OverallStats{}, err
	}
	return s, nil
}

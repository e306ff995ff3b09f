package usecase

import (
	"context"
	"net/http"

	repo "bistro/internal/repository"
)

type AnalyticsUsecase struct {
	analytics repo.AnalyticsRepository
}

func NewAnalyticsUsecase(analytics repo.AnalyticsRepository) *AnalyticsUsecase {
	return &AnalyticsUsecase{analytics: analytics}
}

type AnalyticsSummary struct {
	DailySales   []repo.DailySalesRow  `json:"daily_sales"`
	PopularItems []repo.PopularItemRow `json:"popular_items"`
	Stats        repo.OverallStats     `json:"stats"`
}

// Summary はダッシュボード用の集計をまとめて返す（読み取りのみ）
func (u *AnalyticsUsecase) Summary(ctx context.Context) (AnalyticsSummary, error) {
	daily, err := u.analytics.DailySales(ctx, 30)
	if err != nil {
		return AnalyticsSummary{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	popular, err := u.analytics.PopularItems(ctx, 5)
	if err != nil {
		return AnalyticsSummary{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	stats, err := u.analytics.Stats(ctx)
	if err != nil {
		return AnalyticsSummary{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return AnalyticsSummary{
		DailySales:   daily,
		PopularItems: popular,
		Stats:        stats,
	}, nil
}

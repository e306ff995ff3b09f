package usecase

import (
	"context"
	"net/http"

	"bistro/internal/domain/model"
	repo "bistro/internal/repository"
)

type MenuUsecase struct {
	menuItems repo.MenuItemRepository
}

func NewMenuUsecase(menuItems repo.MenuItemRepository) *MenuUsecase {
	return &MenuUsecase{menuItems: menuItems}
}

func (u *MenuUsecase) ListAvailable(ctx context.Context) ([]model.MenuItem, error) {
	items, err := u.menuItems.ListAvailable(ctx)
	if err != nil {
		return []model.MenuItem{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return items, nil
}

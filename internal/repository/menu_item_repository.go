package repository

import (
	"context"
	"errors"

	"bistro/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// payment_intent_id のユニーク制約違反
var ErrDuplicate = errors.New("duplicate")

type MenuItemRepository interface {
	FindByID(ctx context.Context, menuItemID int64) (model.MenuItem, error)
	ListAvailable(ctx context.Context) ([]model.MenuItem, error)
}

package repository

import (
	"context"

	"bistro/internal/domain/model"
)

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	// FindByIDForUpdate は行ロック付きで取得する（状態遷移の直列化用）
	FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error)
	Create(ctx context.Context, order model.Order) (int64, error)
	// ListAll は新しい順
	ListAll(ctx context.Context) ([]model.Order, error)
	// ListActive は NEW → IN_PROGRESS の順、各グループ内は作成の古い順
	ListActive(ctx context.Context) ([]model.Order, error)
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error
	// UpdateFields は渡されたカラムだけ更新する（部分更新）
	UpdateFields(ctx context.Context, orderID int64, fields map[string]any) error
	Delete(ctx context.Context, orderID int64) error
}

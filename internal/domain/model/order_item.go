package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文明細
// 注文時点の価格と商品名を必ずスナップショットする。後からメニューの
// 価格が変わっても既存注文には影響しない。
type OrderItem struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID     int64           `gorm:"not null;index" json:"order_id"`
	MenuItemID  int64           `gorm:"not null;index" json:"menu_item_id"`
	Quantity    int64           `gorm:"not null" json:"quantity"`
	PriceAtTime decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price_at_time"`
	ItemName    string          `gorm:"type:varchar(255);not null" json:"item_name"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}

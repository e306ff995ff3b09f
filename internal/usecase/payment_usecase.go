package usecase

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"
)

type PaymentIntent struct {
	ID           string
	ClientSecret string
}

// 決済プロバイダ（Stripe）の窓口。未設定環境ではモック実装を挿す。
type PaymentProvider interface {
	CreateIntent(ctx context.Context, amount decimal.Decimal) (PaymentIntent, error)
	// VerifyIntent は intent が amount 以上で決済完了しているかを返す
	VerifyIntent(ctx context.Context, intentID string, amount decimal.Decimal) (bool, error)
}

type PaymentUsecase struct {
	provider PaymentProvider
}

func NewPaymentUsecase(provider PaymentProvider) *PaymentUsecase {
	return &PaymentUsecase{provider: provider}
}

type CreateIntentOutput struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}

func (u *PaymentUsecase) CreateIntent(ctx context.Context, amount decimal.Decimal) (CreateIntentOutput, error) {
	if !amount.IsPositive() {
		return CreateIntentOutput{}, NewHTTPError(http.StatusBadRequest, "Invalid amount")
	}

	pi, err := u.provider.CreateIntent(ctx, amount)
	if err != nil {
		return CreateIntentOutput{}, NewHTTPError(http.StatusBadGateway, "Failed to create payment intent")
	}

	return CreateIntentOutput{
		ClientSecret:    pi.ClientSecret,
		PaymentIntentID: pi.ID,
	}, nil
}

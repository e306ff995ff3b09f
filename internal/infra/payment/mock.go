package payment

import (
	"context"

	"bistro/internal/usecase"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MockProvider はSTRIPE_SECRET_KEY未設定の開発環境用。
// intentは常に発行でき、検証は常に成功扱いになる。
type MockProvider struct{}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (p *MockProvider) CreateIntent(ctx context.Context, amount decimal.Decimal) (usecase.PaymentIntent, error) {
	id := "pi_mock_" + uuid.NewString()
	return usecase.PaymentIntent{
		ID:           id,
		ClientSecret: id + "_secret_" + uuid.NewString(),
	}, nil
}

func (p *MockProvider) VerifyIntent(ctx context.Context, intentID string, amount decimal.Decimal) (bool, error) {
	return true, nil
}

package payment

import (
	"context"

	"bistro/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

type StripeProvider struct {
	api *client.API
}

func NewStripeProvider(secretKey string) *StripeProvider {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeProvider{api: api}
}

func (p *StripeProvider) CreateIntent(ctx context.Context, amount decimal.Decimal) (usecase.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(toCents(amount)),
		Currency: stripe.String(string(stripe.CurrencyUSD)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return usecase.PaymentIntent{}, err
	}
	return usecase.PaymentIntent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// VerifyIntent はintentが成功済みで、かつ注文合計以上の金額かを確認する
func (p *StripeProvider) VerifyIntent(ctx context.Context, intentID string, amount decimal.Decimal) (bool, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := p.api.PaymentIntents.Get(intentID, params)
	if err != nil {
		return false, err
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return false, nil
	}
	return pi.Amount >= toCents(amount), nil
}

// Stripeはセント単位の整数を取る
func toCents(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

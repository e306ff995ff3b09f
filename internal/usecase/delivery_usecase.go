package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"bistro/internal/config"

	"github.com/shopspring/decimal"
)

// 経路見積もりプロバイダが返す失敗の種類
var (
	ErrInvalidAddress   = errors.New("invalid address")
	ErrRouteUnavailable = errors.New("route unavailable")
)

type RouteEstimate struct {
	Address         string // 正規化済みの配送先
	DistanceMiles   float64
	DurationMinutes float64
}

// 住所→距離/所要時間。Google Maps実装とテスト用モックがある。
type RouteEstimator interface {
	Estimate(ctx context.Context, origin string, destination string) (RouteEstimate, error)
}

type DeliveryUsecase struct {
	cfg       config.Delivery
	estimator RouteEstimator // nilならプロバイダ未設定＝モック見積もり
}

func NewDeliveryUsecase(cfg config.Delivery, estimator RouteEstimator) *DeliveryUsecase {
	return &DeliveryUsecase{cfg: cfg, estimator: estimator}
}

type ValidateAddressOutput struct {
	Address     string          `json:"address"`
	Distance    float64         `json:"distance"`
	Duration    float64         `json:"duration"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
	Mock        bool            `json:"mock,omitempty"`
	Message     string          `json:"message,omitempty"`
}

// モック見積もりの固定値（プロバイダ未設定時）
const (
	mockDistanceMiles   = 5.0
	mockDurationMinutes = 15.0
)

// ValidateAddress は住所を検証して配達可否と料金を返す。
// 金額の丸めは応答の境界だけで行い、内部計算は精度を落とさない。
func (u *DeliveryUsecase) ValidateAddress(ctx context.Context, address string) (ValidateAddressOutput, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return ValidateAddressOutput{}, NewHTTPError(http.StatusBadRequest, "Address is required")
	}

	if u.estimator == nil {
		return ValidateAddressOutput{
			Address:     address,
			Distance:    mockDistanceMiles,
			Duration:    mockDurationMinutes,
			DeliveryFee: u.fee(mockDistanceMiles).Round(2),
			Mock:        true,
			Message:     "address validation disabled - using mock estimate",
		}, nil
	}

	est, err := u.estimator.Estimate(ctx, u.cfg.OriginAddress, address)
	if errors.Is(err, ErrInvalidAddress) {
		return ValidateAddressOutput{}, NewHTTPError(http.StatusBadRequest, "Invalid address - could not geocode")
	}
	if errors.Is(err, ErrRouteUnavailable) {
		return ValidateAddressOutput{}, NewHTTPError(http.StatusBadRequest, "Could not calculate distance to address")
	}
	if err != nil {
		return ValidateAddressOutput{}, NewHTTPError(http.StatusBadGateway, "Failed to validate delivery address")
	}

	if est.DistanceMiles > u.cfg.MaxDistanceMiles {
		return ValidateAddressOutput{}, NewHTTPError(http.StatusBadRequest, fmt.Sprintf(
			"Address is too far (%.1f miles). Maximum delivery distance is %g miles.",
			est.DistanceMiles, u.cfg.MaxDistanceMiles))
	}
	if est.DurationMinutes > u.cfg.MaxTimeMinutes {
		return ValidateAddressOutput{}, NewHTTPError(http.StatusBadRequest, fmt.Sprintf(
			"Delivery time too long (%.0f minutes). Maximum delivery time is %g minutes.",
			est.DurationMinutes, u.cfg.MaxTimeMinutes))
	}

	return ValidateAddressOutput{
		Address:     est.Address,
		Distance:    est.DistanceMiles,
		Duration:    est.DurationMinutes,
		DeliveryFee: u.fee(est.DistanceMiles).Round(2),
	}, nil
}

type QuoteFeeOutput struct {
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
}

func (u *DeliveryUsecase) QuoteFee(ctx context.Context, distanceMiles float64) (QuoteFeeOutput, error) {
	if distanceMiles <= 0 {
		return QuoteFeeOutput{}, NewHTTPError(http.StatusBadRequest, "Invalid distance")
	}
	return QuoteFeeOutput{DeliveryFee: u.fee(distanceMiles).Round(2)}, nil
}

// fee = base + distance × per-mile
func (u *DeliveryUsecase) fee(distanceMiles float64) decimal.Decimal {
	return u.cfg.BaseFee.Add(decimal.NewFromFloat(distanceMiles).Mul(u.cfg.PerMileFee))
}

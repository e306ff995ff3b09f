package geo

import (
	"context"
	"fmt"

	"bistro/internal/usecase"

	"googlemaps.github.io/maps"
)

const metersPerMile = 1609.34

type GoogleMapsEstimator struct {
	client *maps.Client
}

func NewGoogleMapsEstimator(apiKey string) (*GoogleMapsEstimator, error) {
	c, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &GoogleMapsEstimator{client: c}, nil
}

// Estimate は住所をジオコーディングして店舗からの距離/所要時間を返す
func (e *GoogleMapsEstimator) Estimate(ctx context.Context, origin string, destination string) (usecase.RouteEstimate, error) {
	results, err := e.client.Geocode(ctx, &maps.GeocodingRequest{Address: destination})
	if err != nil {
		return usecase.RouteEstimate{}, fmt.Errorf("geocode: %w", err)
	}
	if len(results) == 0 {
		return usecase.RouteEstimate{}, usecase.ErrInvalidAddress
	}
	formatted := results[0].FormattedAddress

	matrix, err := e.client.DistanceMatrix(ctx, &maps.DistanceMatrixRequest{
		Origins:      []string{origin},
		Destinations: []string{formatted},
	})
	if err != nil {
		return usecase.RouteEstimate{}, fmt.Errorf("distance matrix: %w", err)
	}
	if len(matrix.Rows) == 0 || len(matrix.Rows[0].Elements) == 0 {
		return usecase.RouteEstimate{}, usecase.ErrRouteUnavailable
	}

	el := matrix.Rows[0].Elements[0]
	if el.Status != "OK" {
		return usecase.RouteEstimate{}, usecase.ErrRouteUnavailable
	}

	return usecase.RouteEstimate{
		Address:         formatted,
		DistanceMiles:   float64(el.Distance.Meters) / metersPerMile,
		DurationMinutes: el.Duration.Minutes(),
	}, nil
}

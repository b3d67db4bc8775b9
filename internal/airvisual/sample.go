package airvisual

import (
	"context"

	"breather/internal/conditions"
)

// SampleSource serves the static sample snapshot. It stands in for the API
// when no key is configured.
type SampleSource struct{}

func (SampleSource) FetchConditions(ctx context.Context, _, _ float64) (conditions.CityConditions, error) {
	if err := ctx.Err(); err != nil {
		return conditions.CityConditions{}, &FetchError{Kind: TransportError, Err: err}
	}
	return conditions.SampleData(), nil
}

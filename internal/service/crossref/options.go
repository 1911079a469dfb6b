package crossref

import (
	"github.com/go-playground/validator/v10"

	"github.com/davidleathers/account-intelligence-backend/internal/domain/errors"
)

// Options tunes a single analysis run. A zero MaxCorrelations means the default
// cap; the boolean toggles are taken as given, so callers wanting the default
// toggles should start from DefaultOptions.
type Options struct {
	// CorrelationThreshold is accepted for compatibility with existing callers. It
	// only filters correlations when EnforceCorrelationThreshold is set.
	CorrelationThreshold        float64 `json:"correlation_threshold" validate:"gte=0,lte=1"`
	EnforceCorrelationThreshold bool    `json:"enforce_correlation_threshold"`
	MaxCorrelations             int     `json:"max_correlations" validate:"gte=1,lte=1000"`
	IncludeRootCause            bool    `json:"include_root_cause"`
	GenerateRecommendations     bool    `json:"generate_recommendations"`
}

// DefaultOptions returns the options used when the caller passes none
func DefaultOptions() Options {
	return Options{
		CorrelationThreshold:    0.5,
		MaxCorrelations:         50,
		IncludeRootCause:        true,
		GenerateRecommendations: true,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxCorrelations == 0 {
		o.MaxCorrelations = DefaultOptions().MaxCorrelations
	}
	return o
}

var validate = validator.New()

// Validate checks option ranges
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return errors.NewValidationError("INVALID_OPTIONS", "invalid analysis options").WithCause(err)
	}
	return nil
}

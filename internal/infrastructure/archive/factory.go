package archive

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/davidleathers/account-intelligence-backend/internal/domain/errors"
)

// NewSink creates the sink selected by cfg.Provider
func NewSink(ctx context.Context, cfg Config, logger *zap.Logger) (ResultSink, error) {
	switch cfg.Provider {
	case "", "file":
		sink, err := NewFileSink(cfg.Directory, logger)
		if err != nil {
			return nil, err
		}
		return sink, nil
	case "s3", "aws":
		sink, err := NewS3Sink(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return sink, nil
	default:
		return nil, errors.NewValidationError("UNKNOWN_PROVIDER",
			fmt.Sprintf("unknown archive provider: %s", cfg.Provider))
	}
}

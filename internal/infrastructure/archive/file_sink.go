package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/davidleathers/account-intelligence-backend/internal/domain/errors"
	"github.com/davidleathers/account-intelligence-backend/internal/service/crossref"
)

// FileSink writes each result as indented JSON into a local directory
type FileSink struct {
	dir    string
	logger *zap.Logger
}

// NewFileSink creates dir if needed
func NewFileSink(dir string, logger *zap.Logger) (*FileSink, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir == "" {
		return nil, errors.NewValidationError("INVALID_CONFIG", "output directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.NewInternalError("failed to create output directory").WithCause(err)
	}
	return &FileSink{dir: dir, logger: logger.Named("file_sink")}, nil
}

// Store writes to a temporary file and renames it into place, so readers never
// observe a partial result
func (s *FileSink) Store(ctx context.Context, result *crossref.AnalysisResult) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := encode(result)
	if err != nil {
		return "", errors.NewInternalError("failed to encode analysis result").WithCause(err)
	}

	target := filepath.Join(s.dir, ObjectName(result.CustomerID))
	tmp, err := os.CreateTemp(s.dir, ".analysis-*.tmp")
	if err != nil {
		return "", errors.NewInternalError("failed to create result file").WithCause(err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", errors.NewInternalError("failed to write result file").WithCause(err)
	}
	if err := tmp.Close(); err != nil {
		return "", errors.NewInternalError("failed to write result file").WithCause(err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", errors.NewInternalError(fmt.Sprintf("failed to move result into %s", target)).WithCause(err)
	}

	s.logger.Debug("stored analysis result",
		zap.String("customer_id", result.CustomerID),
		zap.String("path", target),
		zap.Int("bytes", len(data)))
	return target, nil
}

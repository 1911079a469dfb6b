package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/davidleathers/account-intelligence-backend/internal/domain/errors"
	"github.com/davidleathers/account-intelligence-backend/internal/domain/timeline"
)

// resultSuffix marks files written by the file sink; they are never treated as input
const resultSuffix = ".analysis.json"

// Discover expands path into the timeline documents to analyze. A file is
// returned as is; a directory yields its *.json files in lexical order.
func Discover(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.NewNotFoundError(fmt.Sprintf("input %s", path)).WithCause(err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	matches, err := filepath.Glob(filepath.Join(path, "*.json"))
	if err != nil {
		return nil, errors.NewInternalError("failed to list input directory").WithCause(err)
	}

	paths := make([]string, 0, len(matches))
	for _, m := range matches {
		if strings.HasSuffix(m, resultSuffix) {
			continue
		}
		paths = append(paths, m)
	}
	return paths, nil
}

// LoadFile decodes and validates one timeline document
func LoadFile(path string) (*timeline.UnifiedTimeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewNotFoundError(fmt.Sprintf("timeline %s", path)).WithCause(err)
	}
	defer f.Close()

	tl, err := timeline.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return tl, nil
}

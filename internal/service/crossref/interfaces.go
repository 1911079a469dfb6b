package crossref

import (
	"context"

	"github.com/davidleathers/account-intelligence-backend/internal/domain/timeline"
)

// Service defines the cross-reference analysis interface
type Service interface {
	// Analyze runs the full pipeline over one account timeline. A nil opts uses
	// DefaultOptions. Sparse or empty timelines produce default outputs, not errors.
	Analyze(ctx context.Context, sessionID string, tl *timeline.UnifiedTimeline, opts *Options) (*AnalysisResult, error)
}

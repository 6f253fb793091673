package port

import (
	"context"

	"dirlaunch/internal/core/domain"
)

// DuplicateDetector decides, per directory, whether a business already
// holds a listing there. It is an outbound port; the real implementation
// calls third-party sites.
type DuplicateDetector interface {
	// BatchCheck runs checks for every directory with bounded concurrency
	// and returns outcomes keyed strictly by directory id. A failed check
	// yields an error-status outcome for that directory; BatchCheck itself
	// only fails when the context is cancelled.
	BatchCheck(ctx context.Context, biz domain.BusinessIdentity, dirs []domain.Directory) (map[int64]domain.CheckOutcome, error)
}

package dupcheck

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"dirlaunch/internal/core/domain"
)

// BatchCheck runs checks for every directory in batches of the configured
// concurrency, pausing between batches to respect third-party rate
// limits. Results are keyed strictly by directory id, so a slow or failed
// check can never be misattributed to a neighbouring directory. The only
// error BatchCheck returns is context cancellation.
func (d *Detector) BatchCheck(ctx context.Context, biz domain.BusinessIdentity, dirs []domain.Directory) (map[int64]domain.CheckOutcome, error) {
	results := make(map[int64]domain.CheckOutcome, len(dirs))
	var mu sync.Mutex

	for start := 0; start < len(dirs); start += d.cfg.Concurrency {
		if start > 0 && d.cfg.BatchPause > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(d.cfg.BatchPause):
			}
		}

		end := min(start+d.cfg.Concurrency, len(dirs))
		var g errgroup.Group
		for _, dir := range dirs[start:end] {
			dir := dir
			g.Go(func() error {
				outcome := d.Check(ctx, biz, dir)
				mu.Lock()
				results[dir.ID] = outcome
				mu.Unlock()
				return nil
			})
		}
		// Check never fails; Wait only gates on batch completion.
		_ = g.Wait()

		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return results, nil
}

package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"dirlaunch/internal/core/domain"
	"dirlaunch/internal/core/port"
)

// EntitlementService computes and consumes submission capacity. Remaining
// capacity is always recomputed from allocation and pack rows on read;
// consumption mutates those rows inside the caller's transaction and
// nothing else.
type EntitlementService struct {
	store  port.CampaignStore
	logger *slog.Logger
	now    func() time.Time
}

// NewEntitlementService creates the service. A nil logger falls back to
// slog.Default.
func NewEntitlementService(store port.CampaignStore, logger *slog.Logger) *EntitlementService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EntitlementService{store: store, logger: logger, now: time.Now}
}

// Calculate reports the user's entitlement across both funding sources.
func (s *EntitlementService) Calculate(ctx context.Context, userID string) (*domain.Entitlement, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin entitlement read: %w", err)
	}
	defer tx.Rollback(ctx)

	acct, err := tx.LockAccount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("lock account: %w", err)
	}
	if acct == nil {
		return nil, &port.PreconditionError{Code: port.CodeUserNotFound}
	}
	ent, err := s.calculate(ctx, tx, acct)
	if err != nil {
		return nil, err
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit entitlement read: %w", err)
	}
	return ent, nil
}

// calculate computes the entitlement inside an open transaction. The
// current-period allocation row is created lazily on first read for
// subscribers; order packs count for everyone.
func (s *EntitlementService) calculate(ctx context.Context, tx port.CampaignTx, acct *domain.Account) (*domain.Entitlement, error) {
	ent := &domain.Entitlement{IsSubscriber: acct.IsSubscriber()}

	if ent.IsSubscriber {
		base := domain.BaseAllocation(acct.Plan)
		alloc, err := tx.GetOrCreateAllocation(ctx, acct.ID, domain.Period(s.now()), base)
		if err != nil {
			return nil, fmt.Errorf("allocation for period: %w", err)
		}
		ent.Subscription = domain.SourceBalance{
			Total:     alloc.BaseAllocation + alloc.PackAllocation,
			Used:      alloc.SubmissionsUsed,
			Remaining: alloc.Remaining(),
		}
	}

	packs, err := tx.UsableOrderPacks(ctx, acct.ID)
	if err != nil {
		return nil, fmt.Errorf("usable order packs: %w", err)
	}
	for _, p := range packs {
		ent.Orders.Total += p.DirectoriesAllocated
		ent.Orders.Used += p.DirectoriesSubmitted
		ent.Orders.Remaining += p.Remaining()
	}

	ent.Total = ent.Subscription.Total + ent.Orders.Total
	ent.Used = ent.Subscription.Used + ent.Orders.Used
	ent.Remaining = ent.Subscription.Remaining + ent.Orders.Remaining
	return ent, nil
}

// consume spends count units inside an open transaction: subscription
// remaining first, then packs oldest-created first, partially draining a
// pack before touching the next. Callers pre-check remaining; running dry
// anyway is logged as a warning, not treated as an error.
func (s *EntitlementService) consume(ctx context.Context, tx port.CampaignTx, acct *domain.Account, count int) error {
	if count <= 0 {
		return nil
	}
	left := count

	if acct.IsSubscriber() {
		base := domain.BaseAllocation(acct.Plan)
		alloc, err := tx.GetOrCreateAllocation(ctx, acct.ID, domain.Period(s.now()), base)
		if err != nil {
			return fmt.Errorf("allocation for period: %w", err)
		}
		if take := min(left, alloc.Remaining()); take > 0 {
			if err = tx.AddAllocationUsage(ctx, alloc.ID, take); err != nil {
				return fmt.Errorf("consume subscription allocation: %w", err)
			}
			left -= take
		}
	}

	if left > 0 {
		packs, err := tx.UsableOrderPacks(ctx, acct.ID)
		if err != nil {
			return fmt.Errorf("usable order packs: %w", err)
		}
		for _, p := range packs {
			take := min(left, p.Remaining())
			if take == 0 {
				continue
			}
			if err = tx.AddPackUsage(ctx, p.ID, take); err != nil {
				return fmt.Errorf("consume order pack %d: %w", p.ID, err)
			}
			left -= take
			if left == 0 {
				break
			}
		}
	}

	if left > 0 {
		s.logger.Warn("entitlement exhausted before full consumption",
			slog.String("user_id", acct.ID),
			slog.Int("requested", count),
			slog.Int("unfilled", left))
	}
	return nil
}

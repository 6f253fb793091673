package port

import (
	"context"

	"dirlaunch/internal/core/domain"
)

// CampaignStore is the outbound persistence port. Begin opens the single
// transaction a start/expand call runs inside; PeekActiveCampaign is the
// non-blocking probe used by read paths that must never wait on a running
// start/expand.
type CampaignStore interface {
	Begin(ctx context.Context) (CampaignTx, error)
	// PeekActiveCampaign returns the user's non-terminal campaign without
	// blocking: if the user row is locked by a running start/expand the
	// probe skips it and reports not-found.
	PeekActiveCampaign(ctx context.Context, userID string) (*domain.CampaignRun, error)
	// GetCampaign reads one campaign by id outside any transaction.
	GetCampaign(ctx context.Context, userID, campaignID string) (*domain.CampaignRun, error)
}

// CampaignTx is the set of operations available inside one store
// transaction. Implementations must make every write visible to later
// reads in the same transaction. Commit and Rollback end the transaction;
// Rollback after Commit is a no-op.
type CampaignTx interface {
	// LockAccount acquires the exclusive per-user lock that serialises
	// all concurrent start/expand attempts, and returns the account row.
	// It returns nil when the user does not exist.
	LockAccount(ctx context.Context, userID string) (*domain.Account, error)

	LatestProfile(ctx context.Context, userID string) (*domain.BusinessProfile, error)

	// CatalogCounts reports how many catalog rows are active and how many
	// of those are pricing-eligible.
	CatalogCounts(ctx context.Context) (active, pricingEligible int, err error)
	ListActiveDirectories(ctx context.Context) ([]domain.Directory, error)
	// SubmittedDirectoryIDs returns ids of directories the user already
	// holds a submission for in any status other than failed.
	SubmittedDirectoryIDs(ctx context.Context, userID string) (map[int64]struct{}, error)

	CampaignByIdempotencyKey(ctx context.Context, userID, key string) (*domain.CampaignRun, error)
	ActiveCampaign(ctx context.Context, userID string) (*domain.CampaignRun, error)
	GetCampaign(ctx context.Context, userID, campaignID string) (*domain.CampaignRun, error)

	// GetOrCreateAllocation locks and returns the user's allocation row
	// for the period, creating it with the given base allocation when the
	// period is read for the first time.
	GetOrCreateAllocation(ctx context.Context, userID, period string, base int) (*domain.MonthlyAllocation, error)
	// UsableOrderPacks locks and returns the user's usable packs,
	// oldest-created first.
	UsableOrderPacks(ctx context.Context, userID string) ([]domain.OrderPack, error)
	AddAllocationUsage(ctx context.Context, allocationID int64, n int) error
	AddPackUsage(ctx context.Context, packID int64, n int) error

	CreateCampaign(ctx context.Context, run *domain.CampaignRun) error
	UpdateCampaign(ctx context.Context, run *domain.CampaignRun) error
	// UpsertSubmission writes a submission keyed by (campaign, directory);
	// reprocessing the same pair updates the existing row in place.
	UpsertSubmission(ctx context.Context, sub *domain.Submission) error
	ListSubmissions(ctx context.Context, campaignID string) ([]domain.Submission, error)
	// MaxQueuePosition returns the highest queue position among the
	// campaign's queued submissions, or 0 when none are queued.
	MaxQueuePosition(ctx context.Context, campaignID string) (int, error)

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dirlaunch/internal/core/domain"
	"dirlaunch/internal/core/port"
)

// CampaignStore implements port.CampaignStore on PostgreSQL via pgxpool.
// All start/expand state lives behind the per-user account lock taken by
// CampaignTx.LockAccount; the store itself holds no in-memory state.
type CampaignStore struct {
	pool *pgxpool.Pool
}

// NewCampaignStore returns a new store instance.
func NewCampaignStore(pool *pgxpool.Pool) *CampaignStore {
	return &CampaignStore{pool: pool}
}

// querier is satisfied by both pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Begin opens the transaction a start/expand call runs inside.
func (s *CampaignStore) Begin(ctx context.Context) (port.CampaignTx, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &campaignTx{tx: tx}, nil
}

// PeekActiveCampaign probes for a non-terminal campaign without waiting:
// the account row is taken with SKIP LOCKED, so a user whose start/expand
// is mid-flight simply reads as having no visible active campaign yet.
func (s *CampaignStore) PeekActiveCampaign(ctx context.Context, userID string) (*domain.CampaignRun, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin peek: %w", err)
	}
	defer tx.Rollback(ctx)

	var id string
	err = tx.QueryRow(ctx, `SELECT id FROM accounts WHERE id = $1 FOR UPDATE SKIP LOCKED`, userID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("peek account: %w", err)
	}

	run, err := scanCampaign(tx.QueryRow(ctx, campaignSelect+`
		WHERE user_id = $1 AND status NOT IN ('completed','failed','cancelled')
		ORDER BY created_at DESC LIMIT 1`, userID))
	if err != nil {
		return nil, err
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit peek: %w", err)
	}
	return run, nil
}

// GetCampaign reads one campaign outside any transaction.
func (s *CampaignStore) GetCampaign(ctx context.Context, userID, campaignID string) (*domain.CampaignRun, error) {
	return getCampaign(ctx, s.pool, userID, campaignID)
}

// campaignTx implements port.CampaignTx over one pgx transaction.
type campaignTx struct {
	tx pgx.Tx
}

func (t *campaignTx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *campaignTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

// LockAccount takes the exclusive per-user lock. Concurrent start/expand
// callers for the same user queue here until the holder commits or rolls
// back.
func (t *campaignTx) LockAccount(ctx context.Context, userID string) (*domain.Account, error) {
	var a domain.Account
	err := t.tx.QueryRow(ctx, `
		SELECT id, email, plan, subscription_status, created_at, updated_at
		FROM accounts WHERE id = $1 FOR UPDATE`, userID).
		Scan(&a.ID, &a.Email, &a.Plan, &a.SubscriptionStatus, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lock account: %w", err)
	}
	return &a, nil
}

func (t *campaignTx) LatestProfile(ctx context.Context, userID string) (*domain.BusinessProfile, error) {
	var (
		p          domain.BusinessProfile
		categories []byte
	)
	err := t.tx.QueryRow(ctx, `
		SELECT id, user_id, name, website_url, short_description, long_description,
		       email, phone, address, city, country, categories, created_at, updated_at
		FROM business_profiles
		WHERE user_id = $1
		ORDER BY updated_at DESC LIMIT 1`, userID).
		Scan(&p.ID, &p.UserID, &p.Name, &p.WebsiteURL, &p.ShortDescription, &p.LongDescription,
			&p.Email, &p.Phone, &p.Address, &p.City, &p.Country, &categories, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest profile: %w", err)
	}
	if len(categories) > 0 {
		if err = json.Unmarshal(categories, &p.Categories); err != nil {
			return nil, fmt.Errorf("decode profile categories: %w", err)
		}
	}
	return &p, nil
}

func (t *campaignTx) CatalogCounts(ctx context.Context) (int, int, error) {
	var active, priced int
	err := t.tx.QueryRow(ctx, `
		SELECT count(*) FILTER (WHERE active),
		       count(*) FILTER (WHERE active AND pricing_model IN ('free','freemium'))
		FROM directories`).Scan(&active, &priced)
	if err != nil {
		return 0, 0, fmt.Errorf("catalog counts: %w", err)
	}
	return active, priced, nil
}

func (t *campaignTx) ListActiveDirectories(ctx context.Context) ([]domain.Directory, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, name, website_url, tier, region_scope, pricing_model, directory_type,
		       requires_customer_account, requires_phone, publishes_phone, priority_score,
		       active, check_strategy, check_url_template, check_result_selector,
		       check_listing_pattern, created_at, updated_at
		FROM directories
		WHERE active
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list directories: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Directory, error) {
		var d domain.Directory
		err := row.Scan(&d.ID, &d.Name, &d.WebsiteURL, &d.Tier, &d.RegionScope, &d.PricingModel,
			&d.DirectoryType, &d.RequiresCustomerAccount, &d.RequiresPhone, &d.PublishesPhone,
			&d.PriorityScore, &d.Active, &d.CheckStrategyKind, &d.CheckURLTemplate,
			&d.CheckResultSelector, &d.CheckListingPattern, &d.CreatedAt, &d.UpdatedAt)
		return d, err
	})
}

func (t *campaignTx) SubmittedDirectoryIDs(ctx context.Context, userID string) (map[int64]struct{}, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT DISTINCT s.directory_id
		FROM submissions s
		JOIN campaign_runs r ON r.id = s.campaign_id
		WHERE r.user_id = $1 AND s.status <> 'failed'`, userID)
	if err != nil {
		return nil, fmt.Errorf("submitted directory ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, err
	}
	out := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, nil
}

func (t *campaignTx) CampaignByIdempotencyKey(ctx context.Context, userID, key string) (*domain.CampaignRun, error) {
	return scanCampaign(t.tx.QueryRow(ctx, campaignSelect+`
		WHERE user_id = $1 AND idempotency_key = $2`, userID, key))
}

func (t *campaignTx) ActiveCampaign(ctx context.Context, userID string) (*domain.CampaignRun, error) {
	return scanCampaign(t.tx.QueryRow(ctx, campaignSelect+`
		WHERE user_id = $1 AND status NOT IN ('completed','failed','cancelled')
		ORDER BY created_at DESC LIMIT 1`, userID))
}

func (t *campaignTx) GetCampaign(ctx context.Context, userID, campaignID string) (*domain.CampaignRun, error) {
	return getCampaign(ctx, t.tx, userID, campaignID)
}

// GetOrCreateAllocation locks the current-period allocation row, creating
// it lazily on first read of a new period. The (user, period) unique
// constraint makes the insert race-free.
func (t *campaignTx) GetOrCreateAllocation(ctx context.Context, userID, period string, base int) (*domain.MonthlyAllocation, error) {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO monthly_allocations (user_id, period, base_allocation, pack_allocation, submissions_used, created_at)
		VALUES ($1, $2, $3, 0, 0, now())
		ON CONFLICT (user_id, period) DO NOTHING`, userID, period, base)
	if err != nil {
		return nil, fmt.Errorf("create allocation: %w", err)
	}
	var m domain.MonthlyAllocation
	err = t.tx.QueryRow(ctx, `
		SELECT id, user_id, period, base_allocation, pack_allocation, submissions_used, created_at
		FROM monthly_allocations
		WHERE user_id = $1 AND period = $2
		FOR UPDATE`, userID, period).
		Scan(&m.ID, &m.UserID, &m.Period, &m.BaseAllocation, &m.PackAllocation, &m.SubmissionsUsed, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("lock allocation: %w", err)
	}
	return &m, nil
}

func (t *campaignTx) UsableOrderPacks(ctx context.Context, userID string) ([]domain.OrderPack, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, user_id, directories_allocated, directories_submitted, status, created_at
		FROM order_packs
		WHERE user_id = $1 AND status IN ('active','processing')
		ORDER BY created_at, id
		FOR UPDATE`, userID)
	if err != nil {
		return nil, fmt.Errorf("usable order packs: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.OrderPack, error) {
		var p domain.OrderPack
		err := row.Scan(&p.ID, &p.UserID, &p.DirectoriesAllocated, &p.DirectoriesSubmitted, &p.Status, &p.CreatedAt)
		return p, err
	})
}

func (t *campaignTx) AddAllocationUsage(ctx context.Context, allocationID int64, n int) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE monthly_allocations SET submissions_used = submissions_used + $1 WHERE id = $2`,
		n, allocationID)
	if err != nil {
		return fmt.Errorf("add allocation usage: %w", err)
	}
	return nil
}

func (t *campaignTx) AddPackUsage(ctx context.Context, packID int64, n int) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE order_packs SET directories_submitted = directories_submitted + $1 WHERE id = $2`,
		n, packID)
	if err != nil {
		return fmt.Errorf("add pack usage: %w", err)
	}
	return nil
}

func (t *campaignTx) CreateCampaign(ctx context.Context, run *domain.CampaignRun) error {
	profile, filters, entitlement, err := marshalSnapshots(run)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(ctx, `
		INSERT INTO campaign_runs
			(id, user_id, status, idempotency_key, profile_snapshot, filters_snapshot,
			 entitlement_snapshot, failure_detail, directories_selected, directories_queued,
			 directories_already_listed, directories_blocked, directories_submitted,
			 directories_live, directories_failed, directories_action_needed,
			 created_at, updated_at)
		VALUES ($1,$2,$3,NULLIF($4,''),$5,$6,$7,NULLIF($8,''),$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
		run.ID, run.UserID, run.Status, run.IdempotencyKey, profile, filters,
		entitlement, run.FailureDetail, run.Counters.Selected, run.Counters.Queued,
		run.Counters.AlreadyListed, run.Counters.Blocked, run.Counters.Submitted,
		run.Counters.Live, run.Counters.Failed, run.Counters.ActionNeeded,
		run.CreatedAt, run.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create campaign: %w", err)
	}
	return nil
}

// UpdateCampaign writes status, counters and failure detail. Snapshots
// are write-once and deliberately not part of the update.
func (t *campaignTx) UpdateCampaign(ctx context.Context, run *domain.CampaignRun) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE campaign_runs SET
			status = $2, failure_detail = NULLIF($3,''),
			directories_selected = $4, directories_queued = $5,
			directories_already_listed = $6, directories_blocked = $7,
			directories_submitted = $8, directories_live = $9,
			directories_failed = $10, directories_action_needed = $11,
			updated_at = $12
		WHERE id = $1`,
		run.ID, run.Status, run.FailureDetail, run.Counters.Selected, run.Counters.Queued,
		run.Counters.AlreadyListed, run.Counters.Blocked, run.Counters.Submitted,
		run.Counters.Live, run.Counters.Failed, run.Counters.ActionNeeded, run.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update campaign: %w", err)
	}
	return nil
}

func (t *campaignTx) UpsertSubmission(ctx context.Context, sub *domain.Submission) error {
	snapshot, err := json.Marshal(sub.DirectorySnapshot)
	if err != nil {
		return fmt.Errorf("encode directory snapshot: %w", err)
	}
	evidence, err := json.Marshal(sub.DuplicateCheckEvidence)
	if err != nil {
		return fmt.Errorf("encode check evidence: %w", err)
	}
	_, err = t.tx.Exec(ctx, `
		INSERT INTO submissions
			(id, campaign_id, directory_id, directory_snapshot, status, queue_position,
			 duplicate_check_status, duplicate_check_confidence, duplicate_check_evidence,
			 block_reason, listing_url, checked_at, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		ON CONFLICT (campaign_id, directory_id) DO UPDATE SET
			status = EXCLUDED.status,
			queue_position = EXCLUDED.queue_position,
			duplicate_check_status = EXCLUDED.duplicate_check_status,
			duplicate_check_confidence = EXCLUDED.duplicate_check_confidence,
			duplicate_check_evidence = EXCLUDED.duplicate_check_evidence,
			block_reason = EXCLUDED.block_reason,
			listing_url = EXCLUDED.listing_url,
			checked_at = EXCLUDED.checked_at,
			updated_at = EXCLUDED.updated_at`,
		sub.ID, sub.CampaignID, sub.DirectoryID, snapshot, sub.Status, sub.QueuePosition,
		sub.DuplicateCheckStatus, sub.DuplicateCheckConfidence, evidence,
		sub.BlockReason, sub.ListingURL, nullTime(sub.CheckedAt), sub.CreatedAt, sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert submission: %w", err)
	}
	return nil
}

func (t *campaignTx) ListSubmissions(ctx context.Context, campaignID string) ([]domain.Submission, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, campaign_id, directory_id, directory_snapshot, status, queue_position,
		       duplicate_check_status, duplicate_check_confidence, duplicate_check_evidence,
		       COALESCE(block_reason,''), COALESCE(listing_url,''), checked_at, created_at, updated_at
		FROM submissions
		WHERE campaign_id = $1
		ORDER BY created_at, id`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return pgx.CollectRows(rows, scanSubmission)
}

func (t *campaignTx) MaxQueuePosition(ctx context.Context, campaignID string) (int, error) {
	var pos int
	err := t.tx.QueryRow(ctx, `
		SELECT COALESCE(max(queue_position), 0) FROM submissions WHERE campaign_id = $1`, campaignID).
		Scan(&pos)
	if err != nil {
		return 0, fmt.Errorf("max queue position: %w", err)
	}
	return pos, nil
}

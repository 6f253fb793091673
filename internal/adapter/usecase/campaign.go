package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"dirlaunch/internal/core/domain"
	"dirlaunch/internal/core/port"
)

// CampaignOrchestrator owns the transactional start/expand script. Every
// call runs inside one store transaction opened by the exclusive per-user
// account lock, so concurrent attempts for the same user are totally
// ordered: a later caller observes either the committed idempotency key or
// the committed active campaign, never a torn state.
type CampaignOrchestrator struct {
	store        port.CampaignStore
	detector     port.DuplicateDetector
	entitlements *EntitlementService
	selector     DirectorySelector
	logger       *slog.Logger
	now          func() time.Time
	newID        func() string
}

// NewCampaignOrchestrator wires the orchestrator with its collaborators.
func NewCampaignOrchestrator(store port.CampaignStore, detector port.DuplicateDetector, entitlements *EntitlementService, logger *slog.Logger) *CampaignOrchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &CampaignOrchestrator{
		store:        store,
		detector:     detector,
		entitlements: entitlements,
		logger:       logger,
		now:          time.Now,
		newID:        uuid.NewString,
	}
}

// Start begins a new campaign or expands the existing non-terminal one.
// Precondition failures roll the whole transaction back; the one
// exception is NO_ELIGIBLE_DIRECTORIES on a fresh start, where the
// attempt is committed as a failed campaign so it is visible to the user
// rather than silently dropped.
func (o *CampaignOrchestrator) Start(ctx context.Context, req port.StartRequest) (*port.StartResult, error) {
	tx, err := o.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin campaign start: %w", err)
	}
	defer tx.Rollback(ctx)

	acct, err := tx.LockAccount(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("lock account: %w", err)
	}
	if acct == nil {
		return nil, &port.PreconditionError{Code: port.CodeUserNotFound}
	}

	activeDirs, pricedDirs, err := tx.CatalogCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog counts: %w", err)
	}
	if activeDirs == 0 || pricedDirs == 0 {
		return nil, &port.PreconditionError{Code: port.CodeDirectoriesNotSeeded}
	}

	profile, err := tx.LatestProfile(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("latest profile: %w", err)
	}
	if profile == nil {
		return nil, &port.PreconditionError{Code: port.CodeProfileRequired}
	}
	if field := profile.MissingField(); field != "" {
		return nil, &port.PreconditionError{Code: port.CodeProfileIncomplete, Detail: field}
	}

	if req.IdempotencyKey != "" {
		existing, err := tx.CampaignByIdempotencyKey(ctx, req.UserID, req.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("idempotency lookup: %w", err)
		}
		if existing != nil {
			return o.replay(ctx, tx, acct, existing)
		}
	}

	ent, err := o.entitlements.calculate(ctx, tx, acct)
	if err != nil {
		return nil, err
	}

	active, err := tx.ActiveCampaign(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("active campaign lookup: %w", err)
	}
	if active != nil {
		if ent.Remaining <= 0 {
			return nil, &port.PreconditionError{
				Code:        port.CodeActiveCampaignExists,
				Detail:      "no remaining entitlement to expand with",
				Entitlement: ent,
			}
		}
		return o.expand(ctx, tx, acct, active, ent)
	}

	if ent.Remaining <= 0 {
		return nil, &port.PreconditionError{Code: port.CodeNoEntitlement, Entitlement: ent}
	}

	filters := req.Filters.WithDefaults()
	selected, err := o.selectCandidates(ctx, tx, req.UserID, filters, ent.Remaining)
	if err != nil {
		return nil, err
	}

	now := o.now()
	run := &domain.CampaignRun{
		ID:                    o.newID(),
		UserID:                req.UserID,
		Status:                domain.CampaignQueued,
		IdempotencyKey:        req.IdempotencyKey,
		ProfileSnapshot:       profile.Snapshot(),
		FiltersSnapshot:       filters,
		EntitlementAtCreation: *ent,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if len(selected) == 0 {
		run.Status = domain.CampaignFailed
		run.FailureDetail = o.failureDetail(port.CodeNoEligibleDirectories, filters, ent)
		if err = tx.CreateCampaign(ctx, run); err != nil {
			return nil, fmt.Errorf("record failed campaign: %w", err)
		}
		if err = tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("commit failed campaign: %w", err)
		}
		return nil, &port.PreconditionError{
			Code:        port.CodeNoEligibleDirectories,
			Detail:      "no catalog directory passes the requested filters",
			Entitlement: ent,
		}
	}

	if err = tx.CreateCampaign(ctx, run); err != nil {
		return nil, fmt.Errorf("create campaign: %w", err)
	}

	views, tally, err := o.gate(ctx, tx, run, profile.Identity(), selected, 0)
	if err != nil {
		return nil, err
	}
	if err = o.entitlements.consume(ctx, tx, acct, tally.Queued); err != nil {
		return nil, err
	}

	run.Counters.Selected = len(selected)
	run.Counters.Queued = tally.Queued
	run.Counters.AlreadyListed = tally.AlreadyListed
	run.Counters.Blocked = tally.Blocked
	run.UpdatedAt = o.now()
	if err = tx.UpdateCampaign(ctx, run); err != nil {
		return nil, fmt.Errorf("update campaign counters: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit campaign start: %w", err)
	}
	o.logger.Info("campaign started",
		slog.String("campaign_id", run.ID),
		slog.String("user_id", req.UserID),
		slog.Int("queued", tally.Queued),
		slog.Int("already_listed", tally.AlreadyListed),
		slog.Int("blocked", tally.Blocked))

	return &port.StartResult{
		CampaignID:               run.ID,
		TotalQueued:              tally.Queued,
		DirectoriesQueued:        tally.Queued,
		DirectoriesAlreadyListed: tally.AlreadyListed,
		DirectoriesBlocked:       tally.Blocked,
		EntitlementRemaining:     ent.Remaining - tally.Queued,
		Submissions:              views,
	}, nil
}

// expand applies the selection, gating and consumption logic to the
// user's committed campaign. The campaign's snapshotted filters and
// profile govern expansion; queue positions continue from the campaign's
// current maximum and counters are incremented, not replaced.
func (o *CampaignOrchestrator) expand(ctx context.Context, tx port.CampaignTx, acct *domain.Account, run *domain.CampaignRun, ent *domain.Entitlement) (*port.StartResult, error) {
	filters := run.FiltersSnapshot.WithDefaults()
	selected, err := o.selectCandidates(ctx, tx, run.UserID, filters, ent.Remaining)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return nil, &port.PreconditionError{
			Code:        port.CodeNoEligibleDirectories,
			Detail:      "no further catalog directory passes the campaign's filters",
			Entitlement: ent,
		}
	}

	basePos, err := tx.MaxQueuePosition(ctx, run.ID)
	if err != nil {
		return nil, fmt.Errorf("max queue position: %w", err)
	}

	identity := domain.BusinessIdentity{
		Name:       run.ProfileSnapshot.Name,
		WebsiteURL: run.ProfileSnapshot.WebsiteURL,
	}
	views, tally, err := o.gate(ctx, tx, run, identity, selected, basePos)
	if err != nil {
		return nil, err
	}
	if err = o.entitlements.consume(ctx, tx, acct, tally.Queued); err != nil {
		return nil, err
	}

	run.Counters.Selected += len(selected)
	run.Counters.Queued += tally.Queued
	run.Counters.AlreadyListed += tally.AlreadyListed
	run.Counters.Blocked += tally.Blocked
	run.UpdatedAt = o.now()
	if err = tx.UpdateCampaign(ctx, run); err != nil {
		return nil, fmt.Errorf("update campaign counters: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit campaign expansion: %w", err)
	}
	o.logger.Info("campaign expanded",
		slog.String("campaign_id", run.ID),
		slog.String("user_id", run.UserID),
		slog.Int("queued", tally.Queued),
		slog.Int("total_queued", run.Counters.Queued))

	return &port.StartResult{
		CampaignID:               run.ID,
		Expanded:                 true,
		TotalQueued:              run.Counters.Queued,
		DirectoriesQueued:        tally.Queued,
		DirectoriesAlreadyListed: tally.AlreadyListed,
		DirectoriesBlocked:       tally.Blocked,
		EntitlementRemaining:     ent.Remaining - tally.Queued,
		Submissions:              views,
	}, nil
}

// replay rebuilds the original result for a campaign already tagged with
// the caller's idempotency key. No new work, no new consumption.
func (o *CampaignOrchestrator) replay(ctx context.Context, tx port.CampaignTx, acct *domain.Account, run *domain.CampaignRun) (*port.StartResult, error) {
	subs, err := tx.ListSubmissions(ctx, run.ID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	ent, err := o.entitlements.calculate(ctx, tx, acct)
	if err != nil {
		return nil, err
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit idempotent replay: %w", err)
	}

	views := make([]port.SubmissionView, 0, len(subs))
	for _, s := range subs {
		views = append(views, submissionView(s))
	}
	return &port.StartResult{
		CampaignID:               run.ID,
		TotalQueued:              run.Counters.Queued,
		DirectoriesQueued:        run.Counters.Queued,
		DirectoriesAlreadyListed: run.Counters.AlreadyListed,
		DirectoriesBlocked:       run.Counters.Blocked,
		EntitlementRemaining:     ent.Remaining,
		Submissions:              views,
	}, nil
}

// gateTally counts classification outcomes for one gating pass.
type gateTally struct {
	Queued        int
	AlreadyListed int
	Blocked       int
}

// gate runs duplicate detection over the selected directories and writes
// one submission per directory. Outcomes are correlated by directory id;
// a missing result is treated as a failed check for that directory only.
// Queue positions are assigned contiguously above basePos to queued rows
// and only to queued rows.
func (o *CampaignOrchestrator) gate(ctx context.Context, tx port.CampaignTx, run *domain.CampaignRun, identity domain.BusinessIdentity, selected []domain.Directory, basePos int) ([]port.SubmissionView, gateTally, error) {
	var tally gateTally

	outcomes, err := o.detector.BatchCheck(ctx, identity, selected)
	if err != nil {
		return nil, tally, fmt.Errorf("duplicate detection batch: %w", err)
	}

	now := o.now()
	pos := basePos
	views := make([]port.SubmissionView, 0, len(selected))
	for _, d := range selected {
		outcome, ok := outcomes[d.ID]
		if !ok {
			outcome = domain.CheckOutcome{
				Status: domain.CheckError,
				Reason: "detector returned no result for directory",
			}
		}
		verdict := domain.Classify(outcome)

		sub := &domain.Submission{
			ID:                       o.newID(),
			CampaignID:               run.ID,
			DirectoryID:              d.ID,
			DirectorySnapshot:        d.Snapshot(),
			Status:                   verdict.Status,
			DuplicateCheckStatus:     outcome.Status,
			DuplicateCheckConfidence: outcome.Confidence,
			DuplicateCheckEvidence:   outcome.Evidence,
			BlockReason:              verdict.BlockReason,
			ListingURL:               outcome.ListingURL,
			CheckedAt:                outcome.CheckedAt,
			CreatedAt:                now,
			UpdatedAt:                now,
		}
		switch verdict.Status {
		case domain.SubmissionQueued:
			pos++
			p := pos
			sub.QueuePosition = &p
			tally.Queued++
		case domain.SubmissionAlreadyListed:
			tally.AlreadyListed++
		default:
			tally.Blocked++
		}

		if err = tx.UpsertSubmission(ctx, sub); err != nil {
			return nil, tally, fmt.Errorf("upsert submission for directory %d: %w", d.ID, err)
		}
		views = append(views, submissionView(*sub))
	}
	return views, tally, nil
}

// selectCandidates loads the catalog and the user's exclusion set and
// runs the deterministic selection capped at the remaining entitlement.
func (o *CampaignOrchestrator) selectCandidates(ctx context.Context, tx port.CampaignTx, userID string, filters domain.SelectionFilter, limit int) ([]domain.Directory, error) {
	dirs, err := tx.ListActiveDirectories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list directories: %w", err)
	}
	exclude, err := tx.SubmittedDirectoryIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("submitted directory ids: %w", err)
	}
	return o.selector.Select(dirs, filters, exclude, limit), nil
}

// ActiveCampaign probes for the user's non-terminal campaign using the
// non-blocking peek, so unrelated readers never wait behind a running
// start/expand transaction.
func (o *CampaignOrchestrator) ActiveCampaign(ctx context.Context, userID string) (*domain.CampaignRun, error) {
	return o.store.PeekActiveCampaign(ctx, userID)
}

// RefreshCounters re-derives the campaign's aggregate counters from its
// submission rows and completes the run once nothing remains pending.
// Execution workers call this after advancing submissions.
func (o *CampaignOrchestrator) RefreshCounters(ctx context.Context, userID, campaignID string) (*domain.CampaignRun, error) {
	tx, err := o.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin counter refresh: %w", err)
	}
	defer tx.Rollback(ctx)

	acct, err := tx.LockAccount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("lock account: %w", err)
	}
	if acct == nil {
		return nil, &port.PreconditionError{Code: port.CodeUserNotFound}
	}
	run, err := tx.GetCampaign(ctx, userID, campaignID)
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	if run == nil {
		return nil, port.ErrCampaignNotFound
	}

	subs, err := tx.ListSubmissions(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}

	var c domain.CampaignCounters
	pending := 0
	for _, s := range subs {
		c.Selected++
		switch s.Status {
		case domain.SubmissionQueued:
			c.Queued++
			pending++
		case domain.SubmissionAlreadyListed:
			c.AlreadyListed++
		case domain.SubmissionBlocked:
			c.Blocked++
		case domain.SubmissionInProgress:
			pending++
		case domain.SubmissionSubmitted:
			c.Submitted++
			pending++
		case domain.SubmissionLive, domain.SubmissionVerified:
			c.Live++
		case domain.SubmissionFailed, domain.SubmissionRejected:
			c.Failed++
		case domain.SubmissionActionNeeded:
			c.ActionNeeded++
			pending++
		}
	}
	run.Counters = c
	if !domain.CampaignTerminal(run.Status) && pending == 0 && len(subs) > 0 {
		run.Status = domain.CampaignCompleted
	}
	run.UpdatedAt = o.now()
	if err = tx.UpdateCampaign(ctx, run); err != nil {
		return nil, fmt.Errorf("update campaign: %w", err)
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit counter refresh: %w", err)
	}
	return run, nil
}

// failureDetail serialises the context of a failed start for operators.
func (o *CampaignOrchestrator) failureDetail(code string, filters domain.SelectionFilter, ent *domain.Entitlement) string {
	detail, err := json.Marshal(map[string]any{
		"code":        code,
		"filters":     filters,
		"entitlement": ent,
	})
	if err != nil {
		return code
	}
	return string(detail)
}

func submissionView(s domain.Submission) port.SubmissionView {
	return port.SubmissionView{
		ID:                   s.ID,
		DirectoryName:        s.DirectorySnapshot.Name,
		Status:               s.Status,
		QueuePosition:        s.QueuePosition,
		DuplicateCheckStatus: s.DuplicateCheckStatus,
		ListingURL:           s.ListingURL,
	}
}

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"dirlaunch/internal/core/domain"
)

const campaignSelect = `
	SELECT id, user_id, status, COALESCE(idempotency_key,''), profile_snapshot,
	       filters_snapshot, entitlement_snapshot, COALESCE(failure_detail,''),
	       directories_selected, directories_queued, directories_already_listed,
	       directories_blocked, directories_submitted, directories_live,
	       directories_failed, directories_action_needed, created_at, updated_at
	FROM campaign_runs`

// scanCampaign decodes one campaignSelect row. ErrNoRows maps to nil.
func scanCampaign(row pgx.Row) (*domain.CampaignRun, error) {
	var (
		run         domain.CampaignRun
		profile     []byte
		filters     []byte
		entitlement []byte
	)
	err := row.Scan(&run.ID, &run.UserID, &run.Status, &run.IdempotencyKey, &profile,
		&filters, &entitlement, &run.FailureDetail,
		&run.Counters.Selected, &run.Counters.Queued, &run.Counters.AlreadyListed,
		&run.Counters.Blocked, &run.Counters.Submitted, &run.Counters.Live,
		&run.Counters.Failed, &run.Counters.ActionNeeded, &run.CreatedAt, &run.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan campaign: %w", err)
	}
	if err = json.Unmarshal(profile, &run.ProfileSnapshot); err != nil {
		return nil, fmt.Errorf("decode profile snapshot: %w", err)
	}
	if err = json.Unmarshal(filters, &run.FiltersSnapshot); err != nil {
		return nil, fmt.Errorf("decode filters snapshot: %w", err)
	}
	if err = json.Unmarshal(entitlement, &run.EntitlementAtCreation); err != nil {
		return nil, fmt.Errorf("decode entitlement snapshot: %w", err)
	}
	return &run, nil
}

func getCampaign(ctx context.Context, q querier, userID, campaignID string) (*domain.CampaignRun, error) {
	return scanCampaign(q.QueryRow(ctx, campaignSelect+`
		WHERE id = $1 AND user_id = $2`, campaignID, userID))
}

func scanSubmission(row pgx.CollectableRow) (domain.Submission, error) {
	var (
		s         domain.Submission
		snapshot  []byte
		evidence  []byte
		checkedAt *time.Time
	)
	err := row.Scan(&s.ID, &s.CampaignID, &s.DirectoryID, &snapshot, &s.Status, &s.QueuePosition,
		&s.DuplicateCheckStatus, &s.DuplicateCheckConfidence, &evidence,
		&s.BlockReason, &s.ListingURL, &checkedAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return s, fmt.Errorf("scan submission: %w", err)
	}
	if err = json.Unmarshal(snapshot, &s.DirectorySnapshot); err != nil {
		return s, fmt.Errorf("decode directory snapshot: %w", err)
	}
	if len(evidence) > 0 {
		if err = json.Unmarshal(evidence, &s.DuplicateCheckEvidence); err != nil {
			return s, fmt.Errorf("decode check evidence: %w", err)
		}
	}
	if checkedAt != nil {
		s.CheckedAt = *checkedAt
	}
	return s, nil
}

// marshalSnapshots encodes the write-once snapshot fields of a campaign.
func marshalSnapshots(run *domain.CampaignRun) (profile, filters, entitlement []byte, err error) {
	if profile, err = json.Marshal(run.ProfileSnapshot); err != nil {
		return nil, nil, nil, fmt.Errorf("encode profile snapshot: %w", err)
	}
	if filters, err = json.Marshal(run.FiltersSnapshot); err != nil {
		return nil, nil, nil, fmt.Errorf("encode filters snapshot: %w", err)
	}
	if entitlement, err = json.Marshal(run.EntitlementAtCreation); err != nil {
		return nil, nil, nil, fmt.Errorf("encode entitlement snapshot: %w", err)
	}
	return profile, filters, entitlement, nil
}

// nullTime maps the zero time to SQL NULL.
func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

package port

import (
	"context"

	"dirlaunch/internal/core/domain"
)

// CampaignUseCase is the primary inbound port: starting or expanding a
// submission campaign and reading campaign state back.
type CampaignUseCase interface {
	// Start begins a new campaign for the user, or expands the existing
	// non-terminal one when additional entitlement is available. A
	// repeated call with the same idempotency key returns the original
	// result without doing new work. Precondition failures are returned
	// as *PreconditionError.
	Start(ctx context.Context, req StartRequest) (*StartResult, error)

	// ActiveCampaign probes for the user's non-terminal campaign without
	// blocking behind a running start/expand. It returns nil when there
	// is none.
	ActiveCampaign(ctx context.Context, userID string) (*domain.CampaignRun, error)

	// RefreshCounters re-scans the campaign's submission rows, updates
	// the aggregate counters and completes the run when nothing is left
	// pending.
	RefreshCounters(ctx context.Context, userID, campaignID string) (*domain.CampaignRun, error)
}

// EntitlementUseCase computes submission capacity across funding sources.
type EntitlementUseCase interface {
	Calculate(ctx context.Context, userID string) (*domain.Entitlement, error)
}

// StartRequest carries the inputs of one start/expand call.
type StartRequest struct {
	UserID         string
	Filters        domain.SelectionFilter
	IdempotencyKey string
}

// SubmissionView is the per-submission slice of a start result.
type SubmissionView struct {
	ID                   string `json:"id"`
	DirectoryName        string `json:"directory_name"`
	Status               string `json:"status"`
	QueuePosition        *int   `json:"queue_position,omitempty"`
	DuplicateCheckStatus string `json:"duplicate_check_status"`
	ListingURL           string `json:"listing_url,omitempty"`
}

// StartResult is the success payload of a start/expand call. A campaign
// mixing queued, already-listed and blocked submissions is a success;
// partial duplication is expected.
type StartResult struct {
	CampaignID               string           `json:"campaign_run_id"`
	Expanded                 bool             `json:"expanded,omitempty"`
	TotalQueued              int              `json:"total_queued,omitempty"`
	DirectoriesQueued        int              `json:"directories_queued"`
	DirectoriesAlreadyListed int              `json:"directories_already_listed"`
	DirectoriesBlocked       int              `json:"directories_blocked"`
	EntitlementRemaining     int              `json:"entitlement_remaining"`
	Submissions              []SubmissionView `json:"submissions"`
}

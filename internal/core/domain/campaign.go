package domain

import "time"

// Campaign run statuses. Runs are created directly in queued; execution
// workers drive the later transitions.
const (
	CampaignQueued     = "queued"
	CampaignInProgress = "in_progress"
	CampaignPaused     = "paused"
	CampaignCompleted  = "completed"
	CampaignFailed     = "failed"
	CampaignCancelled  = "cancelled"
)

// CampaignTerminal reports whether a status ends the run. At most one
// non-terminal run may exist per user.
func CampaignTerminal(status string) bool {
	switch status {
	case CampaignCompleted, CampaignFailed, CampaignCancelled:
		return true
	}
	return false
}

// CampaignCounters aggregates submission outcomes for a run. They are
// refreshed by re-scanning submission rows, never maintained as running
// totals.
type CampaignCounters struct {
	Selected      int `json:"selected"`
	Queued        int `json:"queued"`
	AlreadyListed int `json:"already_listed"`
	Blocked       int `json:"blocked"`
	Submitted     int `json:"submitted"`
	Live          int `json:"live"`
	Failed        int `json:"failed"`
	ActionNeeded  int `json:"action_needed"`
}

// CampaignRun is one batch execution of directory submissions. Snapshots
// and the idempotency key are write-once; status and counters are mutable.
type CampaignRun struct {
	ID             string
	UserID         string
	Status         string
	IdempotencyKey string // empty when the caller supplied none

	ProfileSnapshot       ProfileSnapshot
	FiltersSnapshot       SelectionFilter
	EntitlementAtCreation Entitlement

	Counters      CampaignCounters
	FailureDetail string

	CreatedAt time.Time
	UpdatedAt time.Time
}

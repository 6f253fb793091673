package domain

import (
	"fmt"
	"time"
)

// Submission statuses. This service writes the first three when gating a
// campaign; execution workers own the rest.
const (
	SubmissionQueued        = "queued"
	SubmissionAlreadyListed = "already_listed"
	SubmissionBlocked       = "blocked"
	SubmissionInProgress    = "in_progress"
	SubmissionSubmitted     = "submitted"
	SubmissionLive          = "live"
	SubmissionVerified      = "verified"
	SubmissionRejected      = "rejected"
	SubmissionFailed        = "failed"
	SubmissionActionNeeded  = "action_needed"
)

// Submission is one unit of work: list this business in this one
// directory. One row exists per (campaign, directory).
type Submission struct {
	ID                string
	CampaignID        string
	DirectoryID       int64
	DirectorySnapshot DirectorySnapshot

	Status        string
	QueuePosition *int // set only while status is queued; contiguous per campaign

	DuplicateCheckStatus     string
	DuplicateCheckConfidence float64
	DuplicateCheckEvidence   []string
	BlockReason              string
	ListingURL               string
	CheckedAt                time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Classification is the gating verdict for one selected directory.
type Classification struct {
	Status      string
	BlockReason string
}

// Classify turns a duplicate-check outcome into a submission status. Only
// a clean no_match spends entitlement; a confident match is already
// listed; everything else is blocked with a recorded reason.
func Classify(o CheckOutcome) Classification {
	switch {
	case o.Status == CheckError:
		return Classification{Status: SubmissionBlocked, BlockReason: fmt.Sprintf("duplicate check failed: %s", o.Reason)}
	case o.Status == CheckSkipped:
		return Classification{Status: SubmissionBlocked, BlockReason: fmt.Sprintf("duplicate check skipped: %s", o.Reason)}
	case o.Confidence >= ConfidenceMatch:
		return Classification{Status: SubmissionAlreadyListed}
	case o.DomainEvidence && o.Confidence >= ConfidenceDomainMatch:
		return Classification{Status: SubmissionAlreadyListed}
	case o.Status == CheckNoMatch:
		return Classification{Status: SubmissionQueued}
	default:
		return Classification{
			Status:      SubmissionBlocked,
			BlockReason: fmt.Sprintf("possible existing listing (confidence %.2f), pending manual review", o.Confidence),
		}
	}
}

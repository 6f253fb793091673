package domain

import "time"

// Duplicate-check statuses.
const (
	CheckMatchFound    = "match_found"
	CheckPossibleMatch = "possible_match"
	CheckNoMatch       = "no_match"
	CheckSkipped       = "skipped"
	CheckError         = "error"
)

// Confidence thresholds for interpreting check outcomes. A domain-level
// signal is trusted at a lower bar than name-only signals.
const (
	ConfidenceMatch       = 0.85
	ConfidenceDomainMatch = 0.70
	ConfidencePossible    = 0.50
)

// CheckOutcome is the result of one duplicate check against one directory.
// An error outcome records its cause explicitly; absence of evidence is
// never reported as no_match when the check itself failed.
type CheckOutcome struct {
	Status         string
	Confidence     float64
	DomainEvidence bool
	Evidence       []string
	ListingURL     string
	Reason         string // cause for skipped/error outcomes
	CheckedAt      time.Time
}

// StatusFromConfidence maps a confidence score to a check status.
func StatusFromConfidence(confidence float64, domainEvidence bool) string {
	switch {
	case confidence >= ConfidenceMatch:
		return CheckMatchFound
	case domainEvidence && confidence >= ConfidenceDomainMatch:
		return CheckMatchFound
	case confidence >= ConfidencePossible:
		return CheckPossibleMatch
	default:
		return CheckNoMatch
	}
}

// Fresh reports whether the outcome is recent enough to reuse without
// re-querying the directory.
func (o CheckOutcome) Fresh(now time.Time, window time.Duration) bool {
	return !o.CheckedAt.IsZero() && now.Sub(o.CheckedAt) < window
}

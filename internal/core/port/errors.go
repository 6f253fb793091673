package port

import (
	"errors"

	"dirlaunch/internal/core/domain"
)

// ErrCampaignNotFound is returned when a campaign id does not exist or
// belongs to another user.
var ErrCampaignNotFound = errors.New("campaign not found")

// Symbolic precondition failure codes. Callers branch on these; every one
// of them implies zero entitlement impact and no submissions written.
const (
	CodeUserNotFound          = "USER_NOT_FOUND"
	CodeDirectoriesNotSeeded  = "DIRECTORIES_NOT_SEEDED"
	CodeProfileRequired       = "PROFILE_REQUIRED"
	CodeProfileIncomplete     = "PROFILE_INCOMPLETE"
	CodeActiveCampaignExists  = "ACTIVE_CAMPAIGN_EXISTS"
	CodeNoEntitlement         = "NO_ENTITLEMENT"
	CodeNoEligibleDirectories = "NO_ELIGIBLE_DIRECTORIES"
)

// PreconditionError is a recoverable campaign-start failure. Detail
// qualifies the code (e.g. the missing profile field); Entitlement carries
// the breakdown for diagnostics where relevant.
type PreconditionError struct {
	Code        string
	Detail      string
	Entitlement *domain.Entitlement
}

func (e *PreconditionError) Error() string {
	if e.Detail != "" {
		return e.Code + ":" + e.Detail
	}
	return e.Code
}

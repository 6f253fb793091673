package domain

import (
	"strings"
	"time"
)

// Account is the billing identity of a user. Plan and subscription status
// are written by the billing webhook layer; this service only reads them.
type Account struct {
	ID                 string
	Email              string
	Plan               string
	SubscriptionStatus string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Canonical plan names. Anything that does not normalise to one of the
// paid plans is treated as free.
const (
	PlanFree    = "free"
	PlanStarter = "starter"
	PlanGrowth  = "growth"
	PlanScale   = "scale"
)

// planAliases maps provider-specific plan references to canonical plans.
var planAliases = map[string]string{
	"starter": PlanStarter,
	"basic":   PlanStarter,
	"growth":  PlanGrowth,
	"pro":     PlanGrowth,
	"scale":   PlanScale,
	"agency":  PlanScale,
	"free":    PlanFree,
}

// baseAllocations is the monthly submission allocation per canonical plan.
var baseAllocations = map[string]int{
	PlanFree:    0,
	PlanStarter: 25,
	PlanGrowth:  75,
	PlanScale:   200,
}

// inactiveStatuses are subscription states under which a paid plan grants
// no monthly allocation.
var inactiveStatuses = map[string]struct{}{
	"canceled":           {},
	"cancelled":          {},
	"expired":            {},
	"unpaid":             {},
	"incomplete_expired": {},
}

// NormalizePlan resolves a raw plan string (case and whitespace
// insensitive, alias-aware) to a canonical plan. Unknown plans map to free.
func NormalizePlan(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	if canonical, ok := planAliases[key]; ok {
		return canonical
	}
	return PlanFree
}

// BaseAllocation returns the monthly allocation for a canonical plan.
func BaseAllocation(plan string) int {
	return baseAllocations[NormalizePlan(plan)]
}

// IsSubscriber reports whether the account holds a paid plan with a live
// subscription.
func (a Account) IsSubscriber() bool {
	plan := NormalizePlan(a.Plan)
	if plan == PlanFree {
		return false
	}
	_, terminated := inactiveStatuses[strings.ToLower(strings.TrimSpace(a.SubscriptionStatus))]
	return !terminated
}

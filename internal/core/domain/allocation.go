package domain

import "time"

// MonthlyAllocation is the per-user, per-calendar-month subscription
// allocation row. Exactly one row exists per (user, period); it is created
// lazily the first time a period is read. Remaining capacity is always
// derived from this row on read, never cached elsewhere.
type MonthlyAllocation struct {
	ID              int64
	UserID          string
	Period          string // YYYY-MM
	BaseAllocation  int
	PackAllocation  int
	SubmissionsUsed int
	CreatedAt       time.Time
}

// Remaining returns the unconsumed subscription capacity for the period.
func (m MonthlyAllocation) Remaining() int {
	if r := m.BaseAllocation + m.PackAllocation - m.SubmissionsUsed; r > 0 {
		return r
	}
	return 0
}

// Period formats t as the allocation period key for its calendar month.
func Period(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// Order pack statuses. Packs in a usable status contribute to entitlement;
// the rest are ignored.
const (
	PackStatusActive     = "active"
	PackStatusProcessing = "processing"
	PackStatusExhausted  = "exhausted"
	PackStatusRefunded   = "refunded"
	PackStatusExpired    = "expired"
)

// OrderPack is a purchased block of submissions. Multiple packs may be
// usable at once; consumption drains the oldest-created pack first.
type OrderPack struct {
	ID                   int64
	UserID               string
	DirectoriesAllocated int
	DirectoriesSubmitted int
	Status               string
	CreatedAt            time.Time
}

// Usable reports whether the pack contributes to entitlement.
func (p OrderPack) Usable() bool {
	return p.Status == PackStatusActive || p.Status == PackStatusProcessing
}

// Remaining returns the unconsumed capacity of the pack.
func (p OrderPack) Remaining() int {
	if r := p.DirectoriesAllocated - p.DirectoriesSubmitted; r > 0 {
		return r
	}
	return 0
}

// SourceBalance is one funding source inside an entitlement breakdown.
type SourceBalance struct {
	Total     int `json:"total"`
	Used      int `json:"used"`
	Remaining int `json:"remaining"`
}

// Entitlement is a user's submission capacity across both funding sources,
// computed on read from allocation and pack rows.
type Entitlement struct {
	Total        int           `json:"total"`
	Used         int           `json:"used"`
	Remaining    int           `json:"remaining"`
	Subscription SourceBalance `json:"subscription"`
	Orders       SourceBalance `json:"orders"`
	IsSubscriber bool          `json:"is_subscriber"`
}

package domain

import "slices"

// Phone policies controlling how directories with phone requirements are
// filtered.
const (
	PhoneNever       = "never"        // exclude anything that needs or publishes a phone number
	PhoneManagedOnly = "managed_only" // exclude customer-owned accounts that also need phone verification
	PhoneCaseByCase  = "case_by_case" // no phone-based exclusion
)

// SelectionFilter describes which catalog directories a campaign may
// target. A filter is snapshotted into the campaign with defaults applied.
type SelectionFilter struct {
	PhonePolicy          string   `json:"phone_policy"`
	ExcludeCustomerOwned *bool    `json:"exclude_customer_owned,omitempty"`
	DirectoryTypes       []string `json:"directory_types,omitempty"`
	Regions              []string `json:"regions,omitempty"`
	Tiers                []int    `json:"tiers,omitempty"`
}

// WithDefaults returns a copy of the filter with unset fields resolved:
// phone policy case_by_case, customer-owned directories excluded, tiers
// 1-3, directory types unrestricted.
func (f SelectionFilter) WithDefaults() SelectionFilter {
	out := f
	if out.PhonePolicy == "" {
		out.PhonePolicy = PhoneCaseByCase
	}
	if out.ExcludeCustomerOwned == nil {
		t := true
		out.ExcludeCustomerOwned = &t
	}
	if len(out.Tiers) == 0 {
		out.Tiers = []int{1, 2, 3}
	}
	return out
}

// Matches reports whether a directory passes the filter. All clauses are
// AND-combined. Callers must apply defaults first.
func (f SelectionFilter) Matches(d Directory) bool {
	if !d.Active || !d.PricingEligible() {
		return false
	}
	if d.RegionScope != RegionGlobal && !slices.Contains(f.Regions, d.RegionScope) {
		return false
	}
	if !slices.Contains(f.Tiers, d.Tier) {
		return false
	}
	if len(f.DirectoryTypes) > 0 && !slices.Contains(f.DirectoryTypes, d.DirectoryType) {
		return false
	}
	switch f.PhonePolicy {
	case PhoneNever:
		if d.RequiresPhone || d.PublishesPhone {
			return false
		}
	case PhoneManagedOnly:
		if d.RequiresCustomerAccount && d.RequiresPhone {
			return false
		}
	}
	if f.ExcludeCustomerOwned != nil && *f.ExcludeCustomerOwned && d.RequiresCustomerAccount {
		return false
	}
	return true
}

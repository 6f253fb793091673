package domain

import "time"

// Pricing models a directory may use. Only free and freemium directories
// are eligible for automated submission.
const (
	PricingFree     = "free"
	PricingFreemium = "freemium"
	PricingPaid     = "paid"
)

// RegionGlobal marks a directory that accepts listings from anywhere.
const RegionGlobal = "global"

// Directory is one row of the submission catalog. The catalog is read-only
// from this service's point of view.
type Directory struct {
	ID                      int64
	Name                    string
	WebsiteURL              string
	Tier                    int
	RegionScope             string
	PricingModel            string
	DirectoryType           string
	RequiresCustomerAccount bool
	RequiresPhone           bool
	PublishesPhone          bool
	PriorityScore           int
	Active                  bool

	// Duplicate-check configuration, resolved via Strategy().
	CheckStrategyKind   string
	CheckURLTemplate    string
	CheckResultSelector string
	CheckListingPattern string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PricingEligible reports whether the directory's pricing model allows
// automated submission.
func (d Directory) PricingEligible() bool {
	return d.PricingModel == PricingFree || d.PricingModel == PricingFreemium
}

// CheckStrategy is the closed set of duplicate-check strategies. Exactly
// one variant applies to a directory; callers switch exhaustively.
type CheckStrategy interface {
	isCheckStrategy()
}

// StrategyNone means the directory has no duplicate check configured.
type StrategyNone struct{}

// StrategyUnsupported means a check is configured but cannot run. NotBuilt
// distinguishes a known strategy that is not implemented yet from a
// strategy this service does not recognise at all.
type StrategyUnsupported struct {
	Kind     string
	NotBuilt bool
}

// StrategySearch runs the directory's hosted search and inspects the
// configured result region.
type StrategySearch struct {
	URLTemplate    string
	ResultSelector string // CSS selector; empty means the whole document
	ListingPattern string // substring identifying listing-detail URLs
}

func (StrategyNone) isCheckStrategy()        {}
func (StrategyUnsupported) isCheckStrategy() {}
func (StrategySearch) isCheckStrategy()      {}

// knownUnbuilt are strategy kinds the catalog may carry but this service
// has not implemented.
var knownUnbuilt = map[string]struct{}{
	"api":      {},
	"headless": {},
}

// Strategy resolves the directory's stored check configuration into a
// CheckStrategy variant.
func (d Directory) Strategy() CheckStrategy {
	switch d.CheckStrategyKind {
	case "", "none":
		return StrategyNone{}
	case "search":
		if d.CheckURLTemplate == "" {
			return StrategyUnsupported{Kind: "search"}
		}
		return StrategySearch{
			URLTemplate:    d.CheckURLTemplate,
			ResultSelector: d.CheckResultSelector,
			ListingPattern: d.CheckListingPattern,
		}
	default:
		_, notBuilt := knownUnbuilt[d.CheckStrategyKind]
		return StrategyUnsupported{Kind: d.CheckStrategyKind, NotBuilt: notBuilt}
	}
}

// DirectorySnapshot is the write-once copy of a directory embedded in a
// submission row.
type DirectorySnapshot struct {
	SchemaVersion int    `json:"schema_version"`
	Name          string `json:"name"`
	WebsiteURL    string `json:"website_url"`
	Tier          int    `json:"tier"`
	RegionScope   string `json:"region_scope"`
	PricingModel  string `json:"pricing_model"`
	DirectoryType string `json:"directory_type"`
}

// Snapshot copies the directory into a versioned snapshot value.
func (d Directory) Snapshot() DirectorySnapshot {
	return DirectorySnapshot{
		SchemaVersion: 1,
		Name:          d.Name,
		WebsiteURL:    d.WebsiteURL,
		Tier:          d.Tier,
		RegionScope:   d.RegionScope,
		PricingModel:  d.PricingModel,
		DirectoryType: d.DirectoryType,
	}
}

package domain

import (
	"net/url"
	"strings"
	"time"
)

// BusinessProfile holds the business details a campaign is built from. The
// profile store keeps one row per edit; campaigns always read the most
// recently updated one.
type BusinessProfile struct {
	ID               string
	UserID           string
	Name             string
	WebsiteURL       string
	ShortDescription string
	LongDescription  string
	Email            string
	Phone            string
	Address          string
	City             string
	Country          string
	Categories       []string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// MissingField returns the first required field that is empty, or "" when
// the profile is complete enough to start a campaign.
func (p BusinessProfile) MissingField() string {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return "name"
	case strings.TrimSpace(p.WebsiteURL) == "":
		return "website_url"
	case strings.TrimSpace(p.ShortDescription) == "":
		return "short_description"
	}
	return ""
}

// Identity returns the business identity used for duplicate detection.
func (p BusinessProfile) Identity() BusinessIdentity {
	return BusinessIdentity{Name: p.Name, WebsiteURL: p.WebsiteURL}
}

// ProfileSnapshot is the versioned, write-once copy of a profile embedded
// in a campaign run. Fields are fixed so older snapshots stay readable as
// the live profile schema evolves.
type ProfileSnapshot struct {
	SchemaVersion    int      `json:"schema_version"`
	Name             string   `json:"name"`
	WebsiteURL       string   `json:"website_url"`
	ShortDescription string   `json:"short_description"`
	LongDescription  string   `json:"long_description,omitempty"`
	Email            string   `json:"email,omitempty"`
	Phone            string   `json:"phone,omitempty"`
	Address          string   `json:"address,omitempty"`
	City             string   `json:"city,omitempty"`
	Country          string   `json:"country,omitempty"`
	Categories       []string `json:"categories,omitempty"`
}

// ProfileSnapshotVersion is the current snapshot schema version.
const ProfileSnapshotVersion = 1

// Snapshot copies the profile into a versioned snapshot value.
func (p BusinessProfile) Snapshot() ProfileSnapshot {
	return ProfileSnapshot{
		SchemaVersion:    ProfileSnapshotVersion,
		Name:             p.Name,
		WebsiteURL:       p.WebsiteURL,
		ShortDescription: p.ShortDescription,
		LongDescription:  p.LongDescription,
		Email:            p.Email,
		Phone:            p.Phone,
		Address:          p.Address,
		City:             p.City,
		Country:          p.Country,
		Categories:       append([]string(nil), p.Categories...),
	}
}

// BusinessIdentity is the minimal identity the duplicate detector needs.
type BusinessIdentity struct {
	Name       string
	WebsiteURL string
}

// Slug derives a URL slug from the business name: lowercased, spaces to
// hyphens, everything else non-alphanumeric stripped.
func (b BusinessIdentity) Slug() string {
	var sb strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(b.Name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == ' ' || r == '-':
			sb.WriteByte('-')
		}
	}
	return strings.Trim(sb.String(), "-")
}

// Domain returns the registrable host of the business website without a
// leading www, or "" when the URL does not parse.
func (b BusinessIdentity) Domain() string {
	raw := strings.TrimSpace(b.WebsiteURL)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Host)
	if h, _, ok := strings.Cut(host, ":"); ok {
		host = h
	}
	return strings.TrimPrefix(host, "www.")
}

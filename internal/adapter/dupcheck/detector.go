package dupcheck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"dirlaunch/internal/config/configs"
	"dirlaunch/internal/core/domain"
)

// Detector checks third-party directories for an existing listing of a
// business. Supported directories expose a hosted search; the detector
// fetches it, parses the configured result region and scores the evidence
// it finds. Outcomes are cached per (directory, business domain) within
// the configured freshness window.
type Detector struct {
	cfg    configs.Detector
	client *http.Client
	logger *slog.Logger
	now    func() time.Time

	mu    sync.Mutex
	cache map[cacheKey]domain.CheckOutcome
}

type cacheKey struct {
	directoryID int64
	bizDomain   string
}

// New builds a detector. A nil logger falls back to slog.Default.
func New(cfg configs.Detector, logger *slog.Logger) *Detector {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 3
	}
	if cfg.CheckTimeout <= 0 {
		cfg.CheckTimeout = 12 * time.Second
	}
	if cfg.Freshness <= 0 {
		cfg.Freshness = 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		cfg:    cfg,
		client: &http.Client{},
		logger: logger,
		now:    time.Now,
		cache:  make(map[cacheKey]domain.CheckOutcome),
	}
}

// Check runs the duplicate check for one directory. It never returns an
// error: failures become error-status outcomes with their cause recorded,
// because absence of evidence is not evidence of absence.
func (d *Detector) Check(ctx context.Context, biz domain.BusinessIdentity, dir domain.Directory) domain.CheckOutcome {
	switch strat := dir.Strategy().(type) {
	case domain.StrategyNone:
		return domain.CheckOutcome{
			Status:    domain.CheckSkipped,
			Reason:    "no duplicate check configured for directory",
			CheckedAt: d.now(),
		}
	case domain.StrategyUnsupported:
		reason := fmt.Sprintf("check strategy %q is not recognised", strat.Kind)
		if strat.NotBuilt {
			reason = fmt.Sprintf("check strategy %q is not implemented yet", strat.Kind)
		}
		return domain.CheckOutcome{Status: domain.CheckSkipped, Reason: reason, CheckedAt: d.now()}
	case domain.StrategySearch:
		key := cacheKey{directoryID: dir.ID, bizDomain: biz.Domain()}
		if cached, ok := d.cached(key); ok {
			return cached
		}
		outcome := d.search(ctx, biz, strat)
		if outcome.Status != domain.CheckError {
			d.remember(key, outcome)
		}
		return outcome
	default:
		return domain.CheckOutcome{
			Status:    domain.CheckSkipped,
			Reason:    "unhandled check strategy variant",
			CheckedAt: d.now(),
		}
	}
}

// search fetches the directory's hosted search and scores the result
// region.
func (d *Detector) search(ctx context.Context, biz domain.BusinessIdentity, strat domain.StrategySearch) domain.CheckOutcome {
	searchURL := buildSearchURL(strat.URLTemplate, biz)

	ctx, cancel := context.WithTimeout(ctx, d.cfg.CheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return d.checkError("build search request: %v", err)
	}
	req.Header.Set("User-Agent", d.cfg.UserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return d.checkError("search timed out after %s", d.cfg.CheckTimeout)
		}
		return d.checkError("search fetch failed: %v", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden:
		return d.checkError("search blocked or rate limited (status %d)", resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return d.checkError("unexpected search status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return d.checkError("parse search results: %v", err)
	}

	region := doc.Selection
	if strat.ResultSelector != "" {
		region = doc.Find(strat.ResultSelector)
	}
	text, links := extract(region)
	return score(biz, text, links, strat.ListingPattern, d.now())
}

func (d *Detector) checkError(format string, args ...any) domain.CheckOutcome {
	return domain.CheckOutcome{
		Status:    domain.CheckError,
		Reason:    fmt.Sprintf(format, args...),
		CheckedAt: d.now(),
	}
}

func (d *Detector) cached(key cacheKey) (domain.CheckOutcome, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	outcome, ok := d.cache[key]
	if !ok || !outcome.Fresh(d.now(), d.cfg.Freshness) {
		return domain.CheckOutcome{}, false
	}
	return outcome, true
}

func (d *Detector) remember(key cacheKey, outcome domain.CheckOutcome) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cache[key] = outcome
}

// buildSearchURL substitutes the business identity into a per-directory
// search template. Supported placeholders: {name}, {slug}, {domain}.
func buildSearchURL(template string, biz domain.BusinessIdentity) string {
	r := strings.NewReplacer(
		"{name}", url.QueryEscape(strings.TrimSpace(biz.Name)),
		"{slug}", biz.Slug(),
		"{domain}", biz.Domain(),
	)
	return r.Replace(template)
}

// resultLink is one outbound link found in the result region.
type resultLink struct {
	href string
	text string
}

// extract pulls the visible text and the outbound links out of the result
// region.
func extract(region *goquery.Selection) (string, []resultLink) {
	var links []resultLink
	region.Find("a").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		links = append(links, resultLink{
			href: href,
			text: strings.TrimSpace(s.Text()),
		})
	})
	return region.Text(), links
}

// score applies the confidence ladder to the extracted evidence. The
// first applicable rule wins and its evidence reason is recorded.
func score(biz domain.BusinessIdentity, text string, links []resultLink, listingPattern string, checkedAt time.Time) domain.CheckOutcome {
	bizDomain := biz.Domain()
	slug := biz.Slug()
	name := strings.ToLower(strings.TrimSpace(biz.Name))
	lowerText := strings.ToLower(text)

	var (
		confidence     float64
		domainEvidence bool
		evidence       []string
	)
	switch {
	case bizDomain != "" && (strings.Contains(lowerText, bizDomain) || anyLink(links, func(l resultLink) bool {
		return strings.Contains(strings.ToLower(l.href), bizDomain)
	})):
		confidence = 0.85
		domainEvidence = true
		evidence = append(evidence, fmt.Sprintf("website domain %q present in search results", bizDomain))
	case name != "" && anyLink(links, func(l resultLink) bool {
		return strings.Contains(strings.ToLower(l.text), name) || strings.Contains(strings.ToLower(l.href), name)
	}):
		confidence = 0.70
		evidence = append(evidence, fmt.Sprintf("business name %q present in a result link", biz.Name))
	case name != "" && strings.Contains(lowerText, name):
		confidence = 0.65
		evidence = append(evidence, fmt.Sprintf("business name %q present in result text", biz.Name))
	case slug != "" && anyLink(links, func(l resultLink) bool {
		return strings.Contains(strings.ToLower(l.href), slug)
	}):
		confidence = 0.55
		evidence = append(evidence, fmt.Sprintf("name slug %q present in a result link", slug))
	}

	return domain.CheckOutcome{
		Status:         domain.StatusFromConfidence(confidence, domainEvidence),
		Confidence:     confidence,
		DomainEvidence: domainEvidence,
		Evidence:       evidence,
		ListingURL:     pickListingURL(links, listingPattern, bizDomain, slug, name),
		CheckedAt:      checkedAt,
	}
}

// pickListingURL chooses the most likely listing-detail URL: the
// directory-specific URL shape first, then a link carrying the website
// domain, then the name slug, then the business name.
func pickListingURL(links []resultLink, pattern, bizDomain, slug, name string) string {
	if pattern != "" {
		for _, l := range links {
			if strings.Contains(l.href, pattern) {
				return l.href
			}
		}
	}
	if bizDomain != "" {
		for _, l := range links {
			if strings.Contains(strings.ToLower(l.href), bizDomain) {
				return l.href
			}
		}
	}
	if slug != "" {
		for _, l := range links {
			if strings.Contains(strings.ToLower(l.href), slug) {
				return l.href
			}
		}
	}
	if name != "" {
		for _, l := range links {
			if strings.Contains(strings.ToLower(l.text), name) || strings.Contains(strings.ToLower(l.href), name) {
				return l.href
			}
		}
	}
	return ""
}

func anyLink(links []resultLink, match func(resultLink) bool) bool {
	for _, l := range links {
		if match(l) {
			return true
		}
	}
	return false
}

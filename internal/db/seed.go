package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// seedDirectory is one catalog row of demo data.
type seedDirectory struct {
	name           string
	website        string
	tier           int
	region         string
	pricing        string
	dirType        string
	customerOwned  bool
	requiresPhone  bool
	publishesPhone bool
	priority       int
	strategy       string
	urlTemplate    string
	selector       string
	pattern        string
}

var seedDirectories = []seedDirectory{
	{name: "Crunchbase", website: "https://www.crunchbase.com", tier: 1, region: "global", pricing: "freemium", dirType: "startup", priority: 95, strategy: "search", urlTemplate: "https://www.crunchbase.com/textsearch?q={name}", selector: "#results", pattern: "/organization/"},
	{name: "G2", website: "https://www.g2.com", tier: 1, region: "global", pricing: "freemium", dirType: "saas", priority: 92, strategy: "search", urlTemplate: "https://www.g2.com/search?query={name}", selector: ".paper", pattern: "/products/"},
	{name: "Product Hunt", website: "https://www.producthunt.com", tier: 1, region: "global", pricing: "free", dirType: "startup", customerOwned: true, priority: 90, strategy: "search", urlTemplate: "https://www.producthunt.com/search?q={name}", pattern: "/posts/"},
	{name: "Capterra", website: "https://www.capterra.com", tier: 1, region: "global", pricing: "freemium", dirType: "saas", priority: 88, strategy: "search", urlTemplate: "https://www.capterra.com/search/?query={name}", pattern: "/p/"},
	{name: "Yelp", website: "https://www.yelp.com", tier: 2, region: "us", pricing: "free", dirType: "local", requiresPhone: true, publishesPhone: true, priority: 80, strategy: "search", urlTemplate: "https://www.yelp.com/search?find_desc={name}", selector: "#main-content", pattern: "/biz/"},
	{name: "Yellow Pages", website: "https://www.yellowpages.com", tier: 3, region: "us", pricing: "free", dirType: "local", publishesPhone: true, priority: 55, strategy: "search", urlTemplate: "https://www.yellowpages.com/search?search_terms={name}", pattern: "/mip/"},
	{name: "Clutch", website: "https://clutch.co", tier: 2, region: "global", pricing: "freemium", dirType: "agency", priority: 75, strategy: "search", urlTemplate: "https://clutch.co/search?q={name}", pattern: "/profile/"},
	{name: "AlternativeTo", website: "https://alternativeto.net", tier: 2, region: "global", pricing: "free", dirType: "saas", priority: 72, strategy: "search", urlTemplate: "https://alternativeto.net/browse/search/?q={name}", pattern: "/software/"},
	{name: "SaaSHub", website: "https://www.saashub.com", tier: 3, region: "global", pricing: "free", dirType: "saas", priority: 60, strategy: "search", urlTemplate: "https://www.saashub.com/search?q={name}", pattern: "/services/"},
	{name: "BetaList", website: "https://betalist.com", tier: 3, region: "global", pricing: "freemium", dirType: "startup", customerOwned: true, priority: 58, strategy: "none"},
	{name: "Google Business Profile", website: "https://business.google.com", tier: 1, region: "global", pricing: "free", dirType: "local", customerOwned: true, requiresPhone: true, priority: 99, strategy: "api"},
	{name: "Trustpilot", website: "https://www.trustpilot.com", tier: 2, region: "global", pricing: "freemium", dirType: "reviews", priority: 78, strategy: "search", urlTemplate: "https://www.trustpilot.com/search?query={domain}", pattern: "/review/"},
}

// Seed inserts demo data: the directory catalog plus one demo account
// with a complete profile and a small order pack.
func Seed(ctx context.Context, pool *pgxpool.Pool) error {
	for i, d := range seedDirectories {
		_, err := pool.Exec(ctx, `
			INSERT INTO directories
				(id, name, website_url, tier, region_scope, pricing_model, directory_type,
				 requires_customer_account, requires_phone, publishes_phone, priority_score,
				 active, check_strategy, check_url_template, check_result_selector,
				 check_listing_pattern, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,TRUE,$12,$13,$14,$15,now(),now())
			ON CONFLICT DO NOTHING`,
			i+1, d.name, d.website, d.tier, d.region, d.pricing, d.dirType,
			d.customerOwned, d.requiresPhone, d.publishesPhone, d.priority,
			d.strategy, d.urlTemplate, d.selector, d.pattern)
		if err != nil {
			return fmt.Errorf("seed directory %q: %w", d.name, err)
		}
	}

	userID := uuid.NewString()
	_, err := pool.Exec(ctx, `
		INSERT INTO accounts (id, email, plan, subscription_status, created_at, updated_at)
		VALUES ($1, 'demo@example.com', 'starter', 'active', now(), now())
		ON CONFLICT DO NOTHING`, userID)
	if err != nil {
		return fmt.Errorf("seed account: %w", err)
	}
	_, err = pool.Exec(ctx, `
		INSERT INTO business_profiles
			(id, user_id, name, website_url, short_description, city, country, created_at, updated_at)
		VALUES ($1, $2, 'Acme Rocketry', 'https://acme-rocketry.example', 'Model rockets for hobbyists',
		        'Lisbon', 'PT', now(), now())
		ON CONFLICT DO NOTHING`, uuid.NewString(), userID)
	if err != nil {
		return fmt.Errorf("seed profile: %w", err)
	}
	_, err = pool.Exec(ctx, `
		INSERT INTO order_packs (user_id, directories_allocated, status, created_at)
		VALUES ($1, 10, 'active', now())
		ON CONFLICT DO NOTHING`, userID)
	if err != nil {
		return fmt.Errorf("seed order pack: %w", err)
	}
	return nil
}

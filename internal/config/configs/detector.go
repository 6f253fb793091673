package configs

import "time"

// Detector tunes the duplicate-check client. Defaults are deliberately
// conservative towards third-party directories: three simultaneous
// checks, a pause between batches and a hard per-check timeout.
type Detector struct {
	// Concurrency is the number of simultaneous duplicate checks.
	Concurrency int `env:"CONCURRENCY" envDefault:"3"`
	// BatchPause is the fixed pause between check batches.
	BatchPause time.Duration `env:"BATCH_PAUSE" envDefault:"800ms"`
	// CheckTimeout bounds one search fetch. Exceeding it fails that one
	// directory's check only.
	CheckTimeout time.Duration `env:"CHECK_TIMEOUT" envDefault:"12s"`
	// Freshness is how long a prior outcome may be reused without
	// re-querying the directory.
	Freshness time.Duration `env:"FRESHNESS" envDefault:"24h"`
	// UserAgent is sent on every search fetch.
	UserAgent string `env:"USER_AGENT" envDefault:"Mozilla/5.0 (compatible; dirlaunch/1.0)"`
}

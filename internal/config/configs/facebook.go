package configs

import "time"

// Facebook configures the Graph API client and its retry behaviour. The
// defaults mirror the platform's documented rate-limit etiquette: three
// attempts with escalating per-attempt timeouts, exponential sleeps after a
// throttle response and a linear pause after server errors.
type Facebook struct {
	// BaseURL is the Graph API origin. Overridable for tests and proxies.
	BaseURL string `env:"BASE_URL" envDefault:"https://graph.facebook.com"`
	// APIVersion is the versioned path prefix, without a leading slash.
	APIVersion string `env:"API_VERSION" envDefault:"v18.0"`
	// MaxAttempts caps retries per operation, first try included.
	MaxAttempts int `env:"MAX_ATTEMPTS" envDefault:"3"`
	// AttemptTimeouts escalate per attempt. When there are fewer entries
	// than attempts the last entry is reused.
	AttemptTimeouts []time.Duration `env:"ATTEMPT_TIMEOUTS" envDefault:"60s,90s,120s"`
	// RateLimitBackoffs are the sleeps taken before retrying a throttled
	// call, in attempt order.
	RateLimitBackoffs []time.Duration `env:"RATE_LIMIT_BACKOFFS" envDefault:"5s,10s,20s"`
	// ServerErrorBackoff is multiplied by the attempt number after a 5xx.
	ServerErrorBackoff time.Duration `env:"SERVER_ERROR_BACKOFF" envDefault:"2s"`
	// PageSize is the per-page limit sent on list requests.
	PageSize int `env:"PAGE_SIZE" envDefault:"100"`
	// PageCap bounds how many records pagination will accumulate before
	// giving up on a runaway cursor.
	PageCap int `env:"PAGE_CAP" envDefault:"1000"`
}

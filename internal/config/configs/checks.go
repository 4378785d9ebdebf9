package configs

import "time"

// Checks configures the asynchronous check machinery.
type Checks struct {
	// Workers is the size of the worker pool running async checks.
	Workers int `env:"WORKERS" envDefault:"8"`
	// JobTTL is how long a finished job stays pollable before eviction.
	JobTTL time.Duration `env:"JOB_TTL" envDefault:"30m"`
	// InsightConcurrency bounds parallel insight fetches within one check.
	InsightConcurrency int `env:"INSIGHT_CONCURRENCY" envDefault:"4"`
	// SeedFile, when set, points to a YAML file of policies and
	// assignments loaded at startup. Intended for local development.
	SeedFile string `env:"SEED_FILE" envDefault:""`
}

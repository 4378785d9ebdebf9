package configs

import "time"

// Scheduler configures the background sweep loop. The tick is independent
// of any policy's check interval; due assignments are picked up on the next
// tick after their interval elapses.
type Scheduler struct {
	// Enabled turns the background loop on. Disable it for instances that
	// only serve the HTTP API.
	Enabled bool `env:"ENABLED" envDefault:"true"`
	// Tick is how often the loop scans for due assignments.
	Tick time.Duration `env:"TICK" envDefault:"60s"`
}

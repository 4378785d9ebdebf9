package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// MinCheckInterval is the smallest interval a policy may be swept at.
const MinCheckInterval = 5 * time.Minute

// ThresholdEntry is one row of a policy's spend/conversion table: an ad that
// reached MinConversions conversions may spend up to (but not including)
// Spend before it is considered failing.
type ThresholdEntry struct {
	ID             int64
	PolicyID       int64
	Spend          decimal.Decimal
	MinConversions int
}

// Policy is a named, reusable threshold table owned by one user. Campaigns
// are bound to it through CampaignAssignment.
type Policy struct {
	ID            int64
	OwnerID       int64
	Name          string
	CheckInterval time.Duration
	CheckPeriod   CheckPeriod
	Active        bool
	Thresholds    []ThresholdEntry
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

var (
	ErrPolicyName     = errors.New("policy name is required")
	ErrPolicyInterval = errors.New("check interval must be at least 5 minutes")
	ErrNoThresholds   = errors.New("policy has no threshold entries")
	ErrThresholdSpend = errors.New("threshold spend must be at least 0.01")
	ErrThresholdConv  = errors.New("threshold conversions must not be negative")
)

var minSpend = decimal.NewFromFloat(0.01)

// Validate checks the policy invariants before it is persisted.
func (p *Policy) Validate() error {
	if p.Name == "" {
		return ErrPolicyName
	}
	if p.CheckInterval < MinCheckInterval {
		return ErrPolicyInterval
	}
	if len(p.Thresholds) == 0 {
		return ErrNoThresholds
	}
	for _, t := range p.Thresholds {
		if t.Spend.LessThan(minSpend) {
			return ErrThresholdSpend
		}
		if t.MinConversions < 0 {
			return ErrThresholdConv
		}
	}
	return nil
}

// CampaignAssignment binds one external campaign to a policy for one owner.
// LastChecked is advisory telemetry updated by whichever check ran last.
type CampaignAssignment struct {
	ID           int64
	OwnerID      int64
	PolicyID     int64
	CampaignID   string
	CampaignName string
	Active       bool
	LastChecked  *time.Time
	CreatedAt    time.Time
}

// Due reports whether the assignment's interval has elapsed at now. An
// assignment that has never been checked is always due.
func (a *CampaignAssignment) Due(interval time.Duration, now time.Time) bool {
	if a.LastChecked == nil {
		return true
	}
	return !now.Before(a.LastChecked.Add(interval))
}

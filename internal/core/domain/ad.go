package domain

import "github.com/shopspring/decimal"

// AdStatus mirrors the run state the ad platform reports for an ad.
type AdStatus string

const (
	AdStatusActive   AdStatus = "ACTIVE"
	AdStatusPaused   AdStatus = "PAUSED"
	AdStatusArchived AdStatus = "ARCHIVED"
	AdStatusDeleted  AdStatus = "DELETED"
)

// Terminal reports whether the ad is already out of rotation and needs no
// evaluation or pause call.
func (s AdStatus) Terminal() bool {
	switch s {
	case AdStatusPaused, AdStatusArchived, AdStatusDeleted:
		return true
	}
	return false
}

// AdRef identifies one ad inside a campaign on the external platform.
type AdRef struct {
	ID     string
	Name   string
	Status AdStatus
}

// CampaignRef identifies a campaign on the external platform.
type CampaignRef struct {
	ID     string
	Name   string
	Status string
}

// AdMetric is the spend/conversion snapshot fetched for one ad over one date
// range. It is produced fresh on every check and never persisted on its own.
type AdMetric struct {
	AdID        string
	Spend       decimal.Decimal
	Conversions int
}

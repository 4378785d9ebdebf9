package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AdCheckStatus classifies the outcome of one ad within a check run.
type AdCheckStatus string

const (
	AdCheckPassed  AdCheckStatus = "passed"
	AdCheckPaused  AdCheckStatus = "paused"
	AdCheckSkipped AdCheckStatus = "skipped"
	AdCheckError   AdCheckStatus = "error"
)

// AdResult records what happened to one ad during a check. Every field is
// always populated: a failed sub-step fills Error instead of leaving holes.
type AdResult struct {
	AdID        string          `json:"ad_id"`
	AdName      string          `json:"ad_name"`
	AdStatus    AdStatus        `json:"ad_status"`
	Spend       decimal.Decimal `json:"spend"`
	Conversions int             `json:"conversions"`
	Status      AdCheckStatus   `json:"status"`
	Reason      string          `json:"reason"`
	Error       string          `json:"error"`
}

// CheckReport is the structured outcome of one orchestrator run for one
// campaign against one policy over one date range.
type CheckReport struct {
	OwnerID     int64       `json:"owner_id"`
	CampaignID  string      `json:"campaign_id"`
	PolicyID    int64       `json:"policy_id"`
	Period      CheckPeriod `json:"period"`
	DateFrom    *time.Time  `json:"date_from"`
	DateTo      time.Time   `json:"date_to"`
	StartedAt   time.Time   `json:"started_at"`
	FinishedAt  time.Time   `json:"finished_at"`
	AdsChecked  int         `json:"ads_checked"`
	AdsPaused   int         `json:"ads_paused"`
	AdsSkipped  int         `json:"ads_skipped"`
	AdsErrored  int         `json:"ads_errored"`
	Results     []AdResult  `json:"results"`
}

package domain

import "time"

// JobStatus is the lifecycle state of an asynchronous check job.
type JobStatus string

const (
	JobStarted  JobStatus = "started"
	JobRunning  JobStatus = "running"
	JobComplete JobStatus = "complete"
	JobError    JobStatus = "error"
)

// Terminal reports whether the job will not change state again.
func (s JobStatus) Terminal() bool {
	return s == JobComplete || s == JobError
}

// CheckJob is a pollable record of one asynchronous check. Result is nil
// until the job completes; Error is empty unless the run failed outright.
type CheckJob struct {
	ID         string       `json:"id"`
	OwnerID    int64        `json:"owner_id"`
	CampaignID string       `json:"campaign_id"`
	PolicyID   int64        `json:"policy_id"`
	Period     CheckPeriod  `json:"period"`
	Status     JobStatus    `json:"status"`
	Progress   int          `json:"progress"`
	Log        []string     `json:"log"`
	Result     *CheckReport `json:"result"`
	Error      string       `json:"error"`
	StartedAt  time.Time    `json:"started_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

package model

import (
	"encoding/json"
	"time"
)

// StepStatus is the outcome tag of a workflow step.
type StepStatus string

const (
	StepSucceeded StepStatus = "succeeded"
	StepFailed    StepStatus = "failed"
	StepSkipped   StepStatus = "skipped"
)

// StepRecord is the journal entry written for every workflow step.
type StepRecord struct {
	RunID      string            `json:"run_id"`
	ChainID    string            `json:"chain_id"`
	Step       string            `json:"step"`
	Status     StepStatus        `json:"status"`
	Kind       string            `json:"kind,omitempty"`
	TxHash     string            `json:"tx_hash,omitempty"`
	Height     string            `json:"height,omitempty"`
	Outputs    map[string]string `json:"outputs,omitempty"`
	Attempts   int               `json:"attempts"`
	Error      string            `json:"error,omitempty"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
}

// MarshalJSON encodes timestamps as RFC3339Nano in UTC.
func (r StepRecord) MarshalJSON() ([]byte, error) {
	type Alias StepRecord
	return json.Marshal(struct {
		Alias
		StartedAt  string `json:"started_at"`
		FinishedAt string `json:"finished_at"`
	}{
		Alias:      Alias(r),
		StartedAt:  r.StartedAt.UTC().Format(time.RFC3339Nano),
		FinishedAt: r.FinishedAt.UTC().Format(time.RFC3339Nano),
	})
}

// Duration returns the wall time spent on the step.
func (r StepRecord) Duration() time.Duration {
	if r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

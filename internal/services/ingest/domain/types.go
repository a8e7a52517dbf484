// Package domain holds ingest types, errors and the ports the gateway depends on
package domain

import (
	"encoding/json"
	"time"

	"signalgate/internal/core/sources"
)

// Status is the per item outcome of a submission
type Status string

// Submission statuses; duplicate is a success
const (
	StatusAccepted    Status = "accepted"
	StatusDuplicate   Status = "duplicate"
	StatusRateLimited Status = "rate_limited"
	StatusRejected    Status = "rejected"
)

// InsertResult is what the store reports for one row
type InsertResult int

// Insert results
const (
	Inserted InsertResult = iota + 1
	Duplicate
)

func (r InsertResult) String() string {
	switch r {
	case Inserted:
		return "inserted"
	case Duplicate:
		return "duplicate"
	}
	return "unknown"
}

// StagedSignal is one raw payload waiting for extraction
type StagedSignal struct {
	Source     sources.Kind
	ExternalID string
	BatchID    string // empty for single submissions
	Payload    json.RawMessage
}

// SubmitInput is a single signed submission
type SubmitInput struct {
	Source    string
	RawBody   []byte
	Signature string
	RequestID string
}

// SubmitResult reports a single submission
type SubmitResult struct {
	Status     Status       `json:"status" example:"accepted"`
	Source     sources.Kind `json:"source" example:"forum-post"`
	ExternalID string       `json:"external_id" example:"t3_abc123"`
}

// BatchInput is a signed array of payloads
type BatchInput struct {
	Source    string
	RawBody   []byte
	Signature string
	RequestID string
}

// ItemResult is the outcome for one batch item, in submission order
type ItemResult struct {
	Index         int      `json:"index"`
	ExternalID    string   `json:"external_id,omitempty"`
	Status        Status   `json:"status"`
	Reason        string   `json:"reason,omitempty"`
	MissingFields []string `json:"missing_fields,omitempty"`
}

// BatchResult reports every item plus per status totals
type BatchResult struct {
	BatchID           string         `json:"batch_id" example:"5b7c1a6e-6c1f-4f0e-9a53-2f3f0f1d8e11"`
	Source            sources.Kind   `json:"source" example:"social-post"`
	Items             []ItemResult   `json:"items"`
	Totals            map[Status]int `json:"totals"`
	RetryAfterSeconds int            `json:"retry_after_seconds,omitempty"`
}

// Count returns how many items ended with s
func (b BatchResult) Count(s Status) int { return b.Totals[s] }

// Grant is the answer of a counter reservation
type Grant struct {
	Granted int
	Count   int
}

// WindowState is the counter view for one source and window
type WindowState struct {
	Source      sources.Kind `json:"source" example:"forum-post"`
	WindowStart time.Time    `json:"window_start"`
	Count       int          `json:"count" example:"42"`
	Max         int          `json:"max" example:"100"`
	Remaining   int          `json:"remaining" example:"58"`
	ResetsIn    int          `json:"resets_in_seconds" example:"17"`
}

// StateCount is one row of the staged signal statistics
type StateCount struct {
	Source sources.Kind `json:"source" example:"forum-post"`
	State  string       `json:"state" example:"PENDING"`
	Count  int64        `json:"count" example:"12"`
}

// AuditEvent is one submission outcome destined for the audit log
type AuditEvent struct {
	At         time.Time
	Source     string
	ExternalID string
	BatchID    string
	Status     Status
	Reason     string
	RequestID  string
}

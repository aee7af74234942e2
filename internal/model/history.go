// internal/model/history.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// PrintStatus represents the outcome of a dispatch
type PrintStatus string

const (
	PrintStatusPrinted PrintStatus = "PRINTED"
	PrintStatusFailed  PrintStatus = "FAILED"
	PrintStatusSkipped PrintStatus = "SKIPPED"
)

// PrintTrigger records what started a dispatch
type PrintTrigger string

const (
	TriggerManual PrintTrigger = "MANUAL"
	TriggerAuto   PrintTrigger = "AUTO"
	TriggerTest   PrintTrigger = "TEST"
)

// PrintRecord is one entry of the print history
type PrintRecord struct {
	ID              uuid.UUID    `json:"id" db:"id"`
	ConfigID        string       `json:"config_id" db:"config_id"`
	Role            PrinterRole  `json:"role" db:"role"`
	Kind            JobKind      `json:"kind" db:"kind"`
	DeviceID        string       `json:"device_id" db:"device_id"`
	Trigger         PrintTrigger `json:"trigger" db:"trigger"`
	Status          PrintStatus  `json:"status" db:"status"`
	CopiesRequested int          `json:"copies_requested" db:"copies_requested"`
	CopiesPrinted   int          `json:"copies_printed" db:"copies_printed"`
	Bytes           int          `json:"bytes" db:"bytes"`
	ErrorMessage    *string      `json:"error_message,omitempty" db:"error_message"`
	StartedAt       time.Time    `json:"started_at" db:"started_at"`
	CompletedAt     *time.Time   `json:"completed_at,omitempty" db:"completed_at"`
	DurationMs      *int         `json:"duration_ms,omitempty" db:"duration_ms"`
}

// Complete stamps the record with its outcome
func (r *PrintRecord) Complete(status PrintStatus, err error) {
	now := time.Now()
	duration := int(now.Sub(r.StartedAt).Milliseconds())
	r.Status = status
	r.CompletedAt = &now
	r.DurationMs = &duration
	if err != nil {
		msg := err.Error()
		r.ErrorMessage = &msg
	}
}

// HistoryFilter narrows a history listing
type HistoryFilter struct {
	Role     *PrinterRole `json:"role,omitempty"`
	Status   *PrintStatus `json:"status,omitempty"`
	DeviceID *string      `json:"device_id,omitempty"`
	Limit    int          `json:"limit"`
}

// HistoryStats summarises the print history
type HistoryStats struct {
	Total    int                 `json:"total"`
	ByStatus map[PrintStatus]int `json:"by_status"`
	ByRole   map[PrinterRole]int `json:"by_role"`
}

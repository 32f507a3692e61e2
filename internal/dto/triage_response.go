package dto

import (
	"time"

	"log-triage-backend/internal/model"
)

const (
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

type TriageRunResponse struct {
	RunID            string          `json:"runId"`
	Status           string          `json:"status"`
	Error            string          `json:"error,omitempty"`
	StartedAt        time.Time       `json:"startedAt"`
	FinishedAt       time.Time       `json:"finishedAt"`
	Inputs           []string        `json:"inputs"`
	LinesRead        int             `json:"linesRead"`
	EventsParsed     int             `json:"eventsParsed"`
	AnnotationStatus string          `json:"annotationStatus"`
	Report           model.Report    `json:"report"`
	Tickets          []CreatedTicket `json:"tickets"`
	SkippedToday     []string        `json:"skippedToday,omitempty"`
	TicketFailures   []TicketFailure `json:"ticketFailures,omitempty"`
	Notified         bool            `json:"notified"`
	DryRun           bool            `json:"dryRun"`
}

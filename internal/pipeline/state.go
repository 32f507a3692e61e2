package pipeline

import (
	"context"

	"log-triage-backend/internal/dto"
	"log-triage-backend/internal/model"
)

// State is handed from stage to stage. Stages return an updated copy and
// never mutate the value they received.
type State struct {
	RunID          string
	Inputs         []string
	DryRun         bool
	Files          []string
	LinesRead      int
	Events         []model.LogEntry
	Groups         []model.Group
	Annotation     model.AnnotationResult
	Report         model.Report
	Tickets        []dto.CreatedTicket
	SkippedToday   []string
	TicketFailures []dto.TicketFailure
	Notified       bool
}

// Stage is one named step of a run.
type Stage struct {
	Name string
	Run  func(ctx context.Context, s State) (State, error)
}

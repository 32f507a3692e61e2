package pipeline

import (
	"context"
	"fmt"
	"time"

	"log-triage-backend/internal/aggregator"
	"log-triage-backend/internal/annotation"
	"log-triage-backend/internal/dedupe"
	"log-triage-backend/internal/dto"
	"log-triage-backend/internal/fallback"
	"log-triage-backend/internal/jira"
	"log-triage-backend/internal/metrics"
	"log-triage-backend/internal/model"
	"log-triage-backend/internal/parser"
	"log-triage-backend/internal/report"
	"log-triage-backend/internal/slack"
	"log-triage-backend/internal/summary"

	"github.com/rs/zerolog/log"
	"go.uber.org/multierr"
)

// Annotator produces untrusted narrative text for the authoritative groups.
type Annotator interface {
	Annotate(ctx context.Context, groups []model.Group, totalEvents int) model.AnnotationResult
}

// ReportSink receives the final report after the local outputs are written.
// Sink failures are logged and never fail the run.
type ReportSink interface {
	Name() string
	Store(ctx context.Context, runID string, r model.Report) error
}

// Deps are the collaborators of a pipeline. Tickets, Dedupe and Notifier may
// be nil, which disables the matching stage.
type Deps struct {
	Parser     parser.LogParser
	Aggregator *aggregator.Aggregator
	Annotator  Annotator
	Merger     *annotation.Merger
	Calculator *summary.Calculator
	Extractor  fallback.Extractor
	Writer     *report.Writer
	Sinks      []ReportSink
	Tickets    jira.TicketCreator
	Dedupe     dedupe.Store
	Notifier   slack.Notifier
	Metrics    *metrics.Recorder
}

type Options struct {
	AbortOnAnnotationFailure bool
	IssueType                string
	NotifyChannel            string
}

type Pipeline struct {
	deps Deps
	opts Options
}

func New(deps Deps, opts Options) *Pipeline {
	return &Pipeline{deps: deps, opts: opts}
}

// Stages lists the run steps in execution order.
func (p *Pipeline) Stages() []Stage {
	return []Stage{
		{Name: "read_logs", Run: p.readLogs},
		{Name: "group_events", Run: p.groupEvents},
		{Name: "annotate", Run: p.annotate},
		{Name: "write_report", Run: p.writeReport},
		{Name: "file_tickets", Run: p.fileTickets},
		{Name: "notify", Run: p.notify},
	}
}

// Run executes every stage in order and stops at the first stage error.
func (p *Pipeline) Run(ctx context.Context, initial State) (State, error) {
	state := initial
	for _, stage := range p.Stages() {
		start := time.Now()
		next, err := stage.Run(ctx, state)
		if err != nil {
			log.Error().Err(err).Str("stage", stage.Name).Str("run_id", state.RunID).Msg("Triage stage failed")
			return state, fmt.Errorf("stage %s: %w", stage.Name, err)
		}
		log.Debug().Str("stage", stage.Name).Dur("duration", time.Since(start)).Msg("Triage stage finished")
		state = next
	}
	return state, nil
}

func (p *Pipeline) readLogs(ctx context.Context, s State) (State, error) {
	res, err := ReadInputs(ctx, p.deps.Parser, s.Inputs)
	if err != nil {
		return s, err
	}
	for _, e := range res.Entries {
		p.deps.Metrics.EventParsed(string(e.Level))
	}
	p.deps.Metrics.LinesDropped(res.LinesRead - len(res.Entries))

	s.Files = res.Files
	s.LinesRead = res.LinesRead
	s.Events = res.Entries
	log.Info().Int("files", len(res.Files)).Int("lines_read", res.LinesRead).Int("events", len(res.Entries)).Msg("Read log inputs")
	return s, nil
}

func (p *Pipeline) groupEvents(_ context.Context, s State) (State, error) {
	s.Groups = p.deps.Aggregator.Aggregate(s.Events)
	p.deps.Metrics.Groups(len(s.Groups))
	log.Info().Int("groups", len(s.Groups)).Msg("Grouped events by signature")
	return s, nil
}

func (p *Pipeline) annotate(ctx context.Context, s State) (State, error) {
	total := aggregator.TotalEvents(s.Groups)
	result := model.AnnotationsOk(nil, "")
	if p.deps.Annotator != nil {
		result = p.deps.Annotator.Annotate(ctx, s.Groups, total)
	}
	p.deps.Metrics.Annotation(result.Status.String())

	if result.Status != model.AnnotationOk && p.opts.AbortOnAnnotationFailure {
		return s, fmt.Errorf("%w: %s: %v", annotation.ErrAnnotationAborted, result.Status, result.Err)
	}

	merged := p.deps.Merger.Merge(s.Groups, result)
	sum := p.deps.Calculator.Summarize(merged, result.Commentary)
	final := p.deps.Extractor.Apply(merged)

	s.Annotation = result
	s.Report = model.Report{Groups: final, Summary: sum}
	log.Info().
		Str("annotation", result.Status.String()).
		Int("total_events", sum.TotalEvents).
		Float64("error_rate", sum.ErrorRate).
		Strs("top_signatures", sum.TopSignatures).
		Msg("Built triage report")
	return s, nil
}

func (p *Pipeline) writeReport(ctx context.Context, s State) (State, error) {
	if p.deps.Writer != nil {
		if err := p.deps.Writer.Write(s.Report); err != nil {
			return s, err
		}
	}
	for _, sink := range p.deps.Sinks {
		if err := sink.Store(ctx, s.RunID, s.Report); err != nil {
			log.Error().Err(err).Str("sink", sink.Name()).Msg("Failed to store report, continuing")
		}
	}
	return s, nil
}

// fileTickets files one ticket per error-bearing group not yet reported
// today. A failure for one group is recorded and the next group proceeds.
func (p *Pipeline) fileTickets(ctx context.Context, s State) (State, error) {
	if s.DryRun || p.deps.Tickets == nil {
		log.Info().Bool("dry_run", s.DryRun).Msg("Skipping ticket filing")
		return s, nil
	}

	var tickets []dto.CreatedTicket
	var skipped []string
	var failures []dto.TicketFailure
	var errs error

	for _, g := range s.Report.Groups {
		if g.Levels.Error == 0 {
			continue
		}

		if p.deps.Dedupe != nil {
			seen, err := p.deps.Dedupe.HasBeenReportedToday(ctx, g.Signature)
			if err != nil {
				log.Error().Err(err).Str("signature", g.Signature).Msg("Dedupe lookup failed, skipping group")
				failures = append(failures, dto.TicketFailure{Signature: g.Signature, Error: err.Error()})
				errs = multierr.Append(errs, err)
				p.deps.Metrics.Ticket("failed")
				continue
			}
			if seen {
				log.Info().Str("signature", g.Signature).Msg("Already reported today, skipping")
				skipped = append(skipped, g.Signature)
				p.deps.Metrics.Ticket("deduped")
				continue
			}
		}

		req := jira.BuildTicketRequest(g, s.Report.Summary.TotalEvents, p.opts.IssueType)
		id, err := p.deps.Tickets.CreateTicket(ctx, req)
		if err != nil {
			log.Error().Err(err).Str("signature", g.Signature).Msg("Ticket creation failed")
			failures = append(failures, dto.TicketFailure{Signature: g.Signature, Error: err.Error()})
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", g.Signature, err))
			p.deps.Metrics.Ticket("failed")
			continue
		}

		if p.deps.Dedupe != nil {
			if err := p.deps.Dedupe.RecordReported(ctx, g.Signature, id); err != nil {
				log.Error().Err(err).Str("signature", g.Signature).Str("ticket", id).Msg("Failed to record reported signature")
			}
		}
		tickets = append(tickets, dto.CreatedTicket{Signature: g.Signature, ID: id, URL: p.deps.Tickets.BrowseURL(id)})
		p.deps.Metrics.Ticket("created")
	}

	if errs != nil {
		log.Warn().Err(errs).Int("failed", len(multierr.Errors(errs))).Msg("Some tickets could not be filed")
	}
	s.Tickets = tickets
	s.SkippedToday = skipped
	s.TicketFailures = failures
	return s, nil
}

func (p *Pipeline) notify(ctx context.Context, s State) (State, error) {
	if s.DryRun || p.deps.Notifier == nil {
		return s, nil
	}
	if len(s.Report.Groups) == 0 {
		log.Info().Msg("No groups found, skipping notification")
		return s, nil
	}

	n := dto.Notification{Text: report.Digest(s.Report, s.Tickets)}
	if p.opts.NotifyChannel != "" {
		channel := p.opts.NotifyChannel
		n.Destination = &channel
	}
	if _, err := p.deps.Notifier.Notify(ctx, n); err != nil {
		log.Error().Err(err).Msg("Notification failed, created tickets are kept")
		p.deps.Metrics.Notification("failed")
		return s, nil
	}

	log.Info().Int("tickets", len(s.Tickets)).Msg("Posted triage digest")
	p.deps.Metrics.Notification("sent")
	s.Notified = true
	return s, nil
}

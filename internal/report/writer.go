package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"log-triage-backend/internal/model"

	"github.com/rs/zerolog/log"
)

const (
	FindingsFile = "log_findings.json"
	SummaryFile  = "log_summary.md"
	GroupsFile   = "log_groups.csv"
	LastRawFile  = "last_raw.json"
)

// Writer persists run outputs under one directory.
type Writer struct {
	dir string
}

func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Write stores the findings JSON, the markdown summary and the groups CSV.
func (w *Writer) Write(r model.Report) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", w.dir, err)
	}

	findings, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode findings: %w", err)
	}
	if err := os.WriteFile(filepath.Join(w.dir, FindingsFile), findings, 0o644); err != nil {
		return fmt.Errorf("write findings: %w", err)
	}

	md, err := Markdown(r)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(w.dir, SummaryFile), []byte(md), 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	if err := w.writeCSV(r.Groups); err != nil {
		return err
	}

	log.Info().Str("dir", w.dir).Int("groups", len(r.Groups)).Msg("Wrote triage outputs")
	return nil
}

func (w *Writer) writeCSV(groups []model.Group) error {
	f, err := os.Create(filepath.Join(w.dir, GroupsFile))
	if err != nil {
		return fmt.Errorf("create groups csv: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	_ = cw.Write([]string{"signature", "count", "info", "warn", "error", "probable_root_cause", "recommendation"})
	for _, g := range groups {
		_ = cw.Write([]string{
			g.Signature,
			strconv.Itoa(g.Count),
			strconv.Itoa(g.Levels.Info),
			strconv.Itoa(g.Levels.Warn),
			strconv.Itoa(g.Levels.Error),
			g.ProbableRootCause,
			g.Recommendation,
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write groups csv: %w", err)
	}
	return nil
}

// WriteLastRaw keeps unparseable annotator output for offline inspection.
func (w *Writer) WriteLastRaw(raw string) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", w.dir, err)
	}
	path := filepath.Join(w.dir, LastRawFile)
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		return fmt.Errorf("write raw annotation: %w", err)
	}
	log.Warn().Str("file", path).Msg("Saved unparseable annotation output")
	return nil
}

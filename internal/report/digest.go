package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"log-triage-backend/internal/dto"
	"log-triage-backend/internal/model"
)

const noRecommendation = "No recommendation"

// Digest renders the chat notification for a run. Only tickets that were
// actually created are linked.
func Digest(r model.Report, tickets []dto.CreatedTicket) string {
	bySig := make(map[string]dto.CreatedTicket, len(tickets))
	for _, t := range tickets {
		bySig[t.Signature] = t
	}
	groups := indexGroups(r.Groups)

	lines := []string{
		":rotating_light: *Log Analyzer Summary*",
		fmt.Sprintf("*Total events:* %d  •  *Error rate:* %.2f", r.Summary.TotalEvents, r.Summary.ErrorRate),
	}

	for _, sig := range r.Summary.TopSignatures {
		g, ok := groups[sig]
		if !ok {
			continue
		}
		link := "No ticket"
		if t, ok := bySig[sig]; ok {
			link = t.URL
			if link == "" {
				link = t.ID
			}
		}
		rec := g.Recommendation
		if rec == "" {
			rec = noRecommendation
		}
		lines = append(lines,
			fmt.Sprintf("• %s — errors: %d  •  Jira: %s", sig, g.Levels.Error, link),
			fmt.Sprintf("   ↳ _Recommendation:_ %s", rec),
		)
	}

	if len(tickets) > 0 {
		ids := make([]string, len(tickets))
		for i, t := range tickets {
			ids[i] = t.ID
		}
		lines = append(lines, fmt.Sprintf("*Tickets created:* %s", strings.Join(ids, ", ")))
	}
	return strings.Join(lines, "\n")
}

// Markdown renders log_summary.md.
func Markdown(r model.Report) (string, error) {
	summary, err := json.MarshalIndent(r.Summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode summary: %w", err)
	}

	var b strings.Builder
	b.WriteString("# Summary\n\n")
	b.WriteString(r.Summary.ShortSummary)
	b.WriteString("\n\n## Top signatures\n\n")
	groups := indexGroups(r.Groups)
	for i, sig := range r.Summary.TopSignatures {
		g := groups[sig]
		fmt.Fprintf(&b, "%d. `%s` (count %d, errors %d, warnings %d)\n", i+1, sig, g.Count, g.Levels.Error, g.Levels.Warn)
		if g.ProbableRootCause != "" {
			fmt.Fprintf(&b, "   - Root cause: %s\n", g.ProbableRootCause)
		}
		if g.Recommendation != "" {
			fmt.Fprintf(&b, "   - Recommendation: %s\n", g.Recommendation)
		}
	}
	b.WriteString("\n```json\n")
	b.Write(summary)
	b.WriteString("\n```\n")
	return b.String(), nil
}

func indexGroups(groups []model.Group) map[string]model.Group {
	out := make(map[string]model.Group, len(groups))
	for _, g := range groups {
		out[g.Signature] = g
	}
	return out
}

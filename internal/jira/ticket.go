package jira

import (
	"fmt"
	"strings"

	"log-triage-backend/internal/dto"
	"log-triage-backend/internal/model"
)

// BuildTicketRequest renders the bug filed for an error-bearing group.
func BuildTicketRequest(g model.Group, totalEvents int, category string) dto.TicketRequest {
	var b strings.Builder
	b.WriteString("h2. Auto Log Analysis\n\n")
	fmt.Fprintf(&b, "Signature: %s\n", g.Signature)
	fmt.Fprintf(&b, "Errors: %d of %d\n", g.Levels.Error, totalEvents)
	if g.ProbableRootCause != "" {
		fmt.Fprintf(&b, "Root cause: %s\n", g.ProbableRootCause)
	}
	if g.Recommendation != "" {
		fmt.Fprintf(&b, "Recommendation: %s\n", g.Recommendation)
	}
	b.WriteString("Examples:\n")
	b.WriteString(strings.Join(g.Examples, "\n"))

	return dto.TicketRequest{
		Summary:     fmt.Sprintf("[Auto] %s (%d errors)", g.Signature, g.Levels.Error),
		Description: b.String(),
		Category:    category,
	}
}

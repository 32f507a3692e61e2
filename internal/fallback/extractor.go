package fallback

import (
	"fmt"
	"regexp"
	"strings"

	"log-triage-backend/internal/model"

	"github.com/rs/zerolog/log"
)

type Extractor interface {
	// ExtractExceptions returns exception-like tokens found in lines, first-seen order, no duplicates.
	ExtractExceptions(lines []string) []string
	// Apply fills empty root causes from the exception tokens of each group's examples.
	Apply(groups []model.Group) []model.Group
}

type exceptionExtractor struct {
	exceptionRegex *regexp.Regexp
}

func NewExceptionExtractor() Extractor {
	return &exceptionExtractor{
		exceptionRegex: regexp.MustCompile(`[A-Za-z_]+(?:Error|Exception)`),
	}
}

func (e *exceptionExtractor) ExtractExceptions(lines []string) []string {
	var tokens []string
	seen := make(map[string]struct{})
	for _, line := range lines {
		for _, match := range e.exceptionRegex.FindAllString(line, -1) {
			if _, ok := seen[match]; ok {
				continue
			}
			seen[match] = struct{}{}
			tokens = append(tokens, match)
		}
	}
	return tokens
}

func (e *exceptionExtractor) Apply(groups []model.Group) []model.Group {
	out := model.CloneGroups(groups)
	for i := range out {
		g := &out[i]
		tokens := e.ExtractExceptions(g.Examples)
		if len(tokens) == 0 {
			continue
		}
		g.Exceptions = tokens
		if g.ProbableRootCause != "" {
			continue
		}
		g.ProbableRootCause = strings.Join(tokens, ", ")
		if g.Recommendation == "" {
			g.Recommendation = fmt.Sprintf("Investigate %s and related services", tokens[0])
		}
		log.Debug().Str("signature", g.Signature).Strs("exceptions", tokens).Msg("Root cause filled from example exceptions")
	}
	return out
}

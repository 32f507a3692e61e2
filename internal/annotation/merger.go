// Package annotation reconciles untrusted annotator output with the local
// aggregation.
package annotation

import (
	"sort"
	"strings"

	"log-triage-backend/internal/model"

	"github.com/rs/zerolog/log"
)

// DefaultMaxChars bounds annotation text copied onto a group.
const DefaultMaxChars = 200

type Merger struct {
	maxChars int
}

func NewMerger(maxChars int) *Merger {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Merger{maxChars: maxChars}
}

// Merge returns a copy of groups, in the same order, with narrative fields
// copied from annotations whose signature matches exactly. Annotations for
// unknown signatures are dropped. Counts, levels and examples always come
// from groups.
func (m *Merger) Merge(groups []model.Group, result model.AnnotationResult) []model.Group {
	merged := model.CloneGroups(groups)

	switch result.Status {
	case model.AnnotationOk:
	case model.AnnotationMalformed:
		log.Warn().Err(result.Err).Int("raw_len", len(result.RawText)).Msg("Annotation output malformed, using local aggregation only")
		return merged
	default:
		log.Warn().Err(result.Err).Msg("Annotation unavailable, using local aggregation only")
		return merged
	}

	known := make(map[string]struct{}, len(merged))
	enriched := 0
	for i := range merged {
		g := &merged[i]
		known[g.Signature] = struct{}{}
		a, ok := result.Annotations[g.Signature]
		if !ok {
			continue
		}
		g.ProbableRootCause = m.clean(a.ProbableRootCause)
		g.Recommendation = m.clean(a.Recommendation)
		enriched++
	}

	var unknown []string
	for sig := range result.Annotations {
		if _, ok := known[sig]; !ok {
			unknown = append(unknown, sig)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		log.Warn().Strs("signatures", unknown).Msg("Discarding annotations for signatures not present locally")
	}

	log.Debug().Int("groups", len(merged)).Int("enriched", enriched).Msg("Merged annotations")
	return merged
}

func (m *Merger) clean(s string) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) > m.maxChars {
		s = strings.TrimSpace(string(runes[:m.maxChars]))
	}
	return s
}

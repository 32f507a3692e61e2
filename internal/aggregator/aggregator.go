package aggregator

import (
	"sort"

	"log-triage-backend/internal/model"
	"log-triage-backend/internal/signature"

	"github.com/rs/zerolog/log"
)

// DefaultMaxExamples is how many raw lines are retained per group.
const DefaultMaxExamples = 3

// Aggregator folds parsed entries into signature groups. It is the only
// source of group membership and counts for the rest of a run.
type Aggregator struct {
	normalizer  *signature.Normalizer
	maxExamples int
}

func New(normalizer *signature.Normalizer, maxExamples int) *Aggregator {
	if normalizer == nil {
		normalizer = signature.NewNormalizer(signature.DefaultTokenBudget)
	}
	if maxExamples <= 0 {
		maxExamples = DefaultMaxExamples
	}
	return &Aggregator{normalizer: normalizer, maxExamples: maxExamples}
}

// Aggregate groups entries by signature and returns the groups ordered by
// count descending. Equal counts keep first-seen order.
func (a *Aggregator) Aggregate(entries []model.LogEntry) []model.Group {
	index := make(map[string]int)
	groups := make([]model.Group, 0)

	for _, entry := range entries {
		sig := a.normalizer.Signature(entry.Message)
		i, ok := index[sig]
		if !ok {
			i = len(groups)
			index[sig] = i
			groups = append(groups, model.Group{
				Signature: sig,
				Examples:  make([]string, 0, a.maxExamples),
			})
		}
		g := &groups[i]
		g.Count++
		g.Levels.Add(entry.Level)
		if len(g.Examples) < a.maxExamples {
			g.Examples = append(g.Examples, entry.Raw)
		}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Count > groups[j].Count
	})

	log.Debug().Int("events", len(entries)).Int("groups", len(groups)).Msg("Aggregated events into signature groups")
	return groups
}

// TotalEvents sums the counts of all groups.
func TotalEvents(groups []model.Group) int {
	total := 0
	for _, g := range groups {
		total += g.Count
	}
	return total
}

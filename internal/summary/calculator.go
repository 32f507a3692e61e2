package summary

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"log-triage-backend/internal/model"
)

// DefaultTopSignatures is how many signatures are ranked in a summary.
const DefaultTopSignatures = 3

type Calculator struct {
	topN int
}

func NewCalculator(topN int) *Calculator {
	if topN <= 0 {
		topN = DefaultTopSignatures
	}
	return &Calculator{topN: topN}
}

// Summarize computes every summary field from groups. commentary is carried
// through as free text and never read.
func (c *Calculator) Summarize(groups []model.Group, commentary string) model.Summary {
	var total int
	var totals model.LevelCounts
	for _, g := range groups {
		total += g.Count
		totals.Info += g.Levels.Info
		totals.Warn += g.Levels.Warn
		totals.Error += g.Levels.Error
	}

	rate := ErrorRate(totals.Error, total)
	top := c.TopSignatures(groups)

	return model.Summary{
		TotalEvents:   total,
		ErrorRate:     rate,
		TopSignatures: top,
		ShortSummary:  shortSummary(total, totals, rate, topErrorSignatures(groups, top)),
		Commentary:    commentary,
	}
}

// ErrorRate is errors / max(1, total) rounded to 3 decimals.
func ErrorRate(errors, total int) float64 {
	if total < 1 {
		total = 1
	}
	return math.Round(float64(errors)/float64(total)*1000) / 1000
}

// TopSignatures ranks by ERROR count, then fills with WARN and then INFO
// signatures not yet selected.
func (c *Calculator) TopSignatures(groups []model.Group) []string {
	top := make([]string, 0, c.topN)
	selected := make(map[string]struct{})
	for _, level := range []model.Level{model.LevelError, model.LevelWarn, model.LevelInfo} {
		if len(top) >= c.topN {
			break
		}
		for _, sig := range signaturesByLevel(groups, level) {
			if _, ok := selected[sig]; ok {
				continue
			}
			selected[sig] = struct{}{}
			top = append(top, sig)
		}
	}
	if len(top) > c.topN {
		top = top[:c.topN]
	}
	return top
}

func signaturesByLevel(groups []model.Group, level model.Level) []string {
	ranked := make([]model.Group, 0, len(groups))
	for _, g := range groups {
		if g.Levels.Get(level) > 0 {
			ranked = append(ranked, g)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Levels.Get(level) > ranked[j].Levels.Get(level)
	})
	sigs := make([]string, len(ranked))
	for i, g := range ranked {
		sigs[i] = g.Signature
	}
	return sigs
}

func topErrorSignatures(groups []model.Group, top []string) []string {
	errorsBySig := make(map[string]int, len(groups))
	for _, g := range groups {
		errorsBySig[g.Signature] = g.Levels.Error
	}
	var out []string
	for _, sig := range top {
		if errorsBySig[sig] > 0 {
			out = append(out, sig)
		}
	}
	return out
}

func shortSummary(total int, totals model.LevelCounts, rate float64, topErrors []string) string {
	s := fmt.Sprintf("%d events → %d errors, %d warnings, %d info (error rate %d%%).",
		total, totals.Error, totals.Warn, totals.Info, int(math.Round(rate*100)))
	if totals.Error > 0 && len(topErrors) > 0 {
		s += fmt.Sprintf(" Top errors: %s.", strings.Join(topErrors, ", "))
	}
	return s
}

package summary

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"log-triage-backend/internal/model"
)

func TestErrorRate(t *testing.T) {
	tests := []struct {
		name     string
		errors   int
		total    int
		expected float64
	}{
		{"Two Of Three", 2, 3, 0.667},
		{"None", 0, 10, 0},
		{"All", 4, 4, 1},
		{"Empty Input", 0, 0, 0},
		{"One Of Seven", 1, 7, 0.143},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ErrorRate(tt.errors, tt.total))
		})
	}
}

func TestSummarize_ConnectionRefusedScenario(t *testing.T) {
	groups := []model.Group{
		{Signature: "connection refused to", Count: 2, Levels: model.LevelCounts{Error: 2}},
		{Signature: "startup complete", Count: 1, Levels: model.LevelCounts{Info: 1}},
	}

	s := NewCalculator(0).Summarize(groups, "annotator says hi")

	assert.Equal(t, 3, s.TotalEvents)
	assert.Equal(t, 0.667, s.ErrorRate)
	assert.Equal(t, []string{"connection refused to", "startup complete"}, s.TopSignatures)
	assert.Equal(t, "3 events → 2 errors, 0 warnings, 1 info (error rate 67%). Top errors: connection refused to.", s.ShortSummary)
	assert.Equal(t, "annotator says hi", s.Commentary)
}

func TestTopSignatures_TieredRanking(t *testing.T) {
	groups := []model.Group{
		{Signature: "info heavy", Count: 50, Levels: model.LevelCounts{Info: 50}},
		{Signature: "warn a", Count: 5, Levels: model.LevelCounts{Warn: 5}},
		{Signature: "err small", Count: 4, Levels: model.LevelCounts{Error: 1, Warn: 3}},
		{Signature: "err big", Count: 3, Levels: model.LevelCounts{Error: 3}},
		{Signature: "warn b", Count: 2, Levels: model.LevelCounts{Warn: 2}},
	}

	top := NewCalculator(3).TopSignatures(groups)

	assert.Equal(t, []string{"err big", "err small", "warn a"}, top)
}

func TestTopSignatures_FallsBackToInfo(t *testing.T) {
	groups := []model.Group{
		{Signature: "a", Count: 1, Levels: model.LevelCounts{Info: 1}},
		{Signature: "b", Count: 3, Levels: model.LevelCounts{Info: 3}},
	}

	assert.Equal(t, []string{"b", "a"}, NewCalculator(3).TopSignatures(groups))
}

func TestSummarize_NoErrorsOmitsTopErrorClause(t *testing.T) {
	groups := []model.Group{
		{Signature: "disk usage high", Count: 2, Levels: model.LevelCounts{Warn: 2}},
	}

	s := NewCalculator(3).Summarize(groups, "")

	assert.Equal(t, 0.0, s.ErrorRate)
	assert.Equal(t, "2 events → 0 errors, 2 warnings, 0 info (error rate 0%).", s.ShortSummary)
}

func TestSummarize_TotalMatchesGroupCounts(t *testing.T) {
	groups := []model.Group{
		{Signature: "a", Count: 7, Levels: model.LevelCounts{Info: 3, Warn: 2, Error: 2}},
		{Signature: "b", Count: 5, Levels: model.LevelCounts{Error: 5}},
		{Signature: "c", Count: 1, Levels: model.LevelCounts{Warn: 1}},
	}

	s := NewCalculator(3).Summarize(groups, "")

	assert.Equal(t, 13, s.TotalEvents)
	assert.Equal(t, 0.538, s.ErrorRate)
	assert.Equal(t, []string{"b", "a", "c"}, s.TopSignatures)
}

func TestSummarize_Empty(t *testing.T) {
	s := NewCalculator(3).Summarize(nil, "")

	assert.Equal(t, 0, s.TotalEvents)
	assert.Equal(t, 0.0, s.ErrorRate)
	assert.Empty(t, s.TopSignatures)
	assert.Equal(t, "0 events → 0 errors, 0 warnings, 0 info (error rate 0%).", s.ShortSummary)
}

package annotation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"log-triage-backend/internal/model"

	"github.com/rs/zerolog/log"
)

var errNoJSONObject = errors.New("no JSON object found in model output")

type llmGroup struct {
	Signature         string `json:"signature"`
	ProbableRootCause string `json:"probable_root_cause"`
	Recommendation    string `json:"recommendation"`
}

type llmSummary struct {
	ShortSummary string `json:"short_summary"`
}

// ParseFindings turns raw model output into an annotation result. Only the
// narrative fields are read; counts, levels and summary numbers are ignored.
func ParseFindings(raw string) model.AnnotationResult {
	cleaned := cleanLLMJsonOutput(raw)
	if cleaned == "" {
		return model.AnnotationsMalformed(raw, errNoJSONObject)
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &top); err != nil {
		return model.AnnotationsMalformed(raw, fmt.Errorf("failed to decode findings: %w", err))
	}

	annotations := make(map[string]model.Annotation)
	if groupsRaw, ok := top["groups"]; ok && !isNull(groupsRaw) {
		var items []json.RawMessage
		if err := json.Unmarshal(groupsRaw, &items); err != nil {
			return model.AnnotationsMalformed(raw, fmt.Errorf("findings groups is not an array: %w", err))
		}
		for i, item := range items {
			var g llmGroup
			if err := json.Unmarshal(item, &g); err != nil {
				log.Warn().Err(err).Int("index", i).Msg("Skipping unreadable annotation entry")
				continue
			}
			if g.Signature == "" {
				log.Warn().Int("index", i).Msg("Skipping annotation entry without signature")
				continue
			}
			annotations[g.Signature] = model.Annotation{
				ProbableRootCause: g.ProbableRootCause,
				Recommendation:    g.Recommendation,
			}
		}
	}

	var commentary string
	if summaryRaw, ok := top["summary"]; ok {
		var s llmSummary
		if err := json.Unmarshal(summaryRaw, &s); err == nil {
			commentary = strings.TrimSpace(s.ShortSummary)
		}
	}

	return model.AnnotationsOk(annotations, commentary)
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

// cleanLLMJsonOutput strips markdown fences and returns the outermost JSON
// object in raw, or "" when there is none.
func cleanLLMJsonOutput(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.Trim(trimmed, "`")
		if nl := strings.Index(trimmed, "\n"); nl != -1 {
			trimmed = trimmed[nl+1:]
		}
	}

	startIndex := strings.Index(trimmed, "{")
	if startIndex == -1 {
		return ""
	}
	endIndex := strings.LastIndex(trimmed, "}")
	if endIndex == -1 || endIndex < startIndex {
		return ""
	}

	potentialJson := trimmed[startIndex : endIndex+1]
	if json.Valid([]byte(potentialJson)) {
		return potentialJson
	}

	log.Warn().Str("potential_json", potentialJson).Msg("Could not validate potential JSON extracted from LLM response")
	return ""
}

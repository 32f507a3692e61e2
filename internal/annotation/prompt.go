package annotation

import (
	"encoding/json"
	"fmt"

	"log-triage-backend/internal/dto"
	"log-triage-backend/internal/fallback"
	"log-triage-backend/internal/model"
)

const systemPrompt = "You are a concise QA log analysis assistant.\n" +
	"Return JSON ONLY (no prose, no fences) with exactly two top-level keys: `groups` and `summary`.\n" +
	"Return a group for EVERY input `signature` and do NOT invent, drop, or rename groups. Echo each `signature` exactly and keep the same order.\n" +
	"Each group must include: `signature`, `count`, `levels`, `examples`, `probable_root_cause`, `recommendation`.\n" +
	"`summary` must include: `total_events` (int), `error_rate` (0-1 float), `top_signatures` (array), and `short_summary` (<=3 sentences).\n" +
	"Keep `probable_root_cause` and `recommendation` concise (<=200 chars). Do not add extra top-level keys."

type promptPayload struct {
	Groups      []model.Group `json:"groups"`
	TotalEvents int           `json:"total_events"`
}

// BuildMessages builds the system and user messages for the annotator.
// topN limits how many groups are sent; a negative value sends all of them.
func BuildMessages(groups []model.Group, totalEvents int, topN int, extractor fallback.Extractor) ([]dto.ChatMessage, error) {
	n := len(groups)
	if topN >= 0 && topN < n {
		n = topN
	}
	payload := promptPayload{
		Groups:      model.CloneGroups(groups[:n]),
		TotalEvents: totalEvents,
	}
	if extractor != nil {
		for i := range payload.Groups {
			payload.Groups[i].Exceptions = extractor.ExtractExceptions(payload.Groups[i].Examples)
		}
	}

	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal annotation payload: %w", err)
	}

	return []dto.ChatMessage{
		{Role: dto.RoleSystem, Content: systemPrompt},
		{Role: dto.RoleUser, Content: "INPUT payload (pre-aggregated groups and totals):\n" + string(body)},
	}, nil
}

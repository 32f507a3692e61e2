package model

type Summary struct {
	TotalEvents   int      `json:"total_events"`
	ErrorRate     float64  `json:"error_rate"`
	TopSignatures []string `json:"top_signatures"`
	ShortSummary  string   `json:"short_summary"`
	// Commentary is free text proposed by the annotator. It never feeds any computed field.
	Commentary string `json:"commentary,omitempty"`
}

// Report is the final output of one triage run.
type Report struct {
	Groups  []Group `json:"groups"`
	Summary Summary `json:"summary"`
}

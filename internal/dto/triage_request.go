package dto

type TriageRunRequest struct {
	Inputs []string `json:"inputs"`
	DryRun bool     `json:"dryRun"`
}

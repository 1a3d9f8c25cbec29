package domain

import "time"

// UsageAction distinguishes fresh generations from refinements.
type UsageAction string

const (
	ActionGenerate UsageAction = "generate"
	ActionRefine   UsageAction = "refine"
)

// UsageRecord is one append-only billing row, written after a completed
// generation. Rows are never mutated and are deleted only through an explicit
// per-user reset.
type UsageRecord struct {
	ID           string
	UserID       string
	Action       UsageAction
	Resolution   Resolution
	TokensInput  int
	TokensOutput int
	Cost         float64
	Country      string
	CreatedAt    time.Time
}

// UsageSummary aggregates a user's historical usage rows.
type UsageSummary struct {
	UserID       string  `json:"user_id"`
	Generations  int     `json:"generations"`
	Refinements  int     `json:"refinements"`
	TotalImages  int     `json:"total_images"`
	TokensInput  int     `json:"tokens_input"`
	TokensOutput int     `json:"tokens_output"`
	TokensTotal  int     `json:"tokens_total"`
	TotalCost    float64 `json:"total_cost"`
}

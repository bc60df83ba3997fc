package model

// CostRecord is one metered AI call inside a request.
type CostRecord struct {
	APIType          string  `json:"api_type"`
	Model            string  `json:"model"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	Cost             float64 `json:"cost"`
	Success          bool    `json:"success"`
	Timestamp        int64   `json:"timestamp"`
}

const (
	APITypeChat      = "chat"
	APITypeEmbedding = "embedding"
)

// UsageReport summarizes spend over a window for the report endpoint.
type UsageReport struct {
	Today        DayUsage   `json:"today"`
	Month        DayUsage   `json:"month"`
	Trend        []DayUsage `json:"trend"`
	DailyLimit   float64    `json:"daily_limit"`
	SessionLimit float64    `json:"session_limit"`
}

// DayUsage is aggregated spend for one day (or one month).
type DayUsage struct {
	Date     string  `json:"date"`
	Cost     float64 `json:"cost"`
	Tokens   int     `json:"tokens"`
	Requests int     `json:"requests"`
}

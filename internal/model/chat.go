package model

// ChatMessage is one turn of a conversation, oldest first.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Context strategy names. Order matters for keyword fallback priority.
const (
	ContextFile         = "file"
	ContextBuilding     = "building"
	ContextOrganization = "organization"
	ContextVector       = "vector"
	ContextGeneral      = "general"
)

// Classification is the routing decision for one chat request.
type Classification struct {
	ContextType            string   `json:"context_type"`
	Confidence             float64  `json:"confidence"`
	Reason                 string   `json:"reason"`
	RequiresFileProcessing bool     `json:"requires_file_processing"`
	SuggestedActions       []string `json:"suggested_actions"`
}

// ContextBundle is the resolved context text plus how sure the resolver is
// that the text answers the question.
type ContextBundle struct {
	ContextType string  `json:"context_type"`
	Text        string  `json:"text"`
	Confidence  float64 `json:"confidence"`
	Reason      string  `json:"reason"`
	Error       string  `json:"error,omitempty"`
}

// PromptSpec is the fully rendered system prompt plus the metadata the
// generation stage surfaces back to the caller.
type PromptSpec struct {
	SystemMessage string  `json:"system_message"`
	ContextType   string  `json:"context_type"`
	Confidence    float64 `json:"confidence"`
	ContextUsed   bool    `json:"context_used"`
	HistoryTurns  int     `json:"history_turns"`
	Error         string  `json:"error,omitempty"`
}

// SearchHit is one vector search result after tenant filtering.
type SearchHit struct {
	Score      float64 `json:"score"`
	FileID     int64   `json:"file_id"`
	FileName   string  `json:"file_name"`
	PageNumber int     `json:"page_number"`
	Text       string  `json:"text"`
}

// ChatRequest is the inbound chat payload.
type ChatRequest struct {
	Message    string        `json:"message" binding:"required"`
	OrgID      int64         `json:"org_id" binding:"required"`
	BuildingID int64         `json:"building_id"`
	FileIDs    []int64       `json:"file_ids"`
	History    []ChatMessage `json:"history"`
}

// ChatMetadata explains how a response was produced.
type ChatMetadata struct {
	ContextType string             `json:"context_type"`
	Confidence  float64            `json:"confidence"`
	Reason      string             `json:"reason"`
	ContextUsed bool               `json:"context_used"`
	ModelUsed   string             `json:"model_used"`
	TokensUsed  int                `json:"tokens_used"`
	CostSummary map[string]float64 `json:"cost_summary"`
}

// ChatResponse is the outbound chat payload.
type ChatResponse struct {
	Response  string       `json:"response"`
	Metadata  ChatMetadata `json:"metadata"`
	RequestID string       `json:"request_id"`
}

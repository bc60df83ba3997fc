package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/buildingassets/buildingchat/internal/ai"
	"github.com/buildingassets/buildingchat/internal/model"
	"github.com/buildingassets/buildingchat/internal/usage"
)

const classifierSystemPrompt = `You are an intelligent context classifier for a building management chatbot. Your job is to determine what type of context is needed to best answer the user's question.

Analyze the user's message and return one of these context types:

1. "file_context" - User is asking about specific files, documents, or uploaded content
2. "building_context" - User is asking about building-specific data, performance, measures, bills
3. "organization_context" - User is asking about organization-level data, multiple buildings, company-wide info
4. "vector_context" - User is asking about historical data, past reports, or information that might be in stored documents
5. "general" - General questions that don't require specific context

Return JSON only in this format:
{
    "context_type": "file_context|building_context|organization_context|vector_context|general",
    "confidence": 0.95,
    "reason": "Brief explanation of why this context type was chosen",
    "requires_file_processing": true,
    "suggested_actions": ["action1"]
}`

const (
	classifyTimeout     = 10 * time.Second
	classifyMaxTokens   = 300
	classifyTemperature = 0.1
	classifyHistoryMax  = 5
)

// Classifier labels a user message with the kind of grounding it
// needs. It never returns an error: any model or parse failure routes
// to a deterministic keyword fallback.
type Classifier struct {
	chat  ai.IChatProvider
	model string
}

func NewClassifier(chat ai.IChatProvider, modelName string) *Classifier {
	return &Classifier{chat: chat, model: modelName}
}

func (c *Classifier) Classify(ctx context.Context, ledger *usage.Ledger, message string, history []model.ChatMessage, fileIDs []int64, buildingID int64) model.Classification {
	logger := logutil.GetLogger(ctx)
	if c.chat == nil {
		return fallbackClassify(message)
	}

	contextInfo := fmt.Sprintf("Available file IDs: %v\nBuilding ID: %d", fileIDs, buildingID)
	msgs := []model.ChatMessage{
		{Role: model.RoleSystem, Content: classifierSystemPrompt},
		{Role: model.RoleUser, Content: fmt.Sprintf("Context: %s\n\nUser message: %s", contextInfo, message)},
	}
	msgs = append(msgs, lastTurns(history, classifyHistoryMax)...)

	cctx, cancel := context.WithTimeout(ctx, classifyTimeout)
	defer cancel()
	res, err := c.chat.Chat(cctx, c.model, msgs, ai.ChatOptions{
		Temperature: classifyTemperature,
		MaxTokens:   classifyMaxTokens,
		JSONMode:    true,
	})
	if err != nil {
		ledger.Record(ctx, model.APITypeChat, c.model, ai.Usage{}, false)
		logger.Warn("classification call failed, using keyword fallback", zap.Error(err))
		return fallbackClassify(message)
	}
	ledger.Record(ctx, model.APITypeChat, c.model, res.Usage, true)

	parsed, err := parseClassification(res.Content)
	if err != nil {
		logger.Warn("classification response rejected, using keyword fallback",
			zap.String("raw", res.Content), zap.Error(err))
		return fallbackClassify(message)
	}
	return parsed
}

// parseClassification validates the model output against a strict
// schema: enum context type, confidence inside [0,1].
func parseClassification(raw string) (model.Classification, error) {
	var out model.Classification
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &out); err != nil {
		return model.Classification{}, err
	}
	out.ContextType = normalizeContextType(out.ContextType)
	switch out.ContextType {
	case model.ContextFile, model.ContextBuilding, model.ContextOrganization, model.ContextVector, model.ContextGeneral:
	default:
		return model.Classification{}, fmt.Errorf("unknown context type %q", out.ContextType)
	}
	if out.Confidence < 0 || out.Confidence > 1 {
		return model.Classification{}, fmt.Errorf("confidence %v out of range", out.Confidence)
	}
	return out, nil
}

func normalizeContextType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	return strings.TrimSuffix(t, "_context")
}

var fallbackKeywords = []struct {
	contextType      string
	keywords         []string
	requiresFileWork bool
	actions          []string
}{
	{model.ContextFile, []string{"file", "document", "upload", "this", "summarize"}, true, []string{"process_file", "extract_content"}},
	{model.ContextBuilding, []string{"building", "energy", "bills", "measures"}, false, []string{"fetch_building_data"}},
	{model.ContextOrganization, []string{"organization", "company", "all buildings", "portfolio"}, false, []string{"fetch_org_data"}},
	{model.ContextVector, []string{"previous", "historical", "past", "reports", "find", "search", "analysis"}, false, []string{"search_vector_store"}},
}

// fallbackClassify is a pure function: identical input always yields
// identical output.
func fallbackClassify(message string) model.Classification {
	lower := strings.ToLower(message)
	for _, set := range fallbackKeywords {
		for _, kw := range set.keywords {
			if strings.Contains(lower, kw) {
				return model.Classification{
					ContextType:            set.contextType,
					Confidence:             0.7,
					Reason:                 fmt.Sprintf("Fallback: detected %s-related keywords", set.contextType),
					RequiresFileProcessing: set.requiresFileWork,
					SuggestedActions:       set.actions,
				}
			}
		}
	}
	return model.Classification{
		ContextType:      model.ContextGeneral,
		Confidence:       0.6,
		Reason:           "Fallback: no specific context detected",
		SuggestedActions: []string{"general_response"},
	}
}

func lastTurns(history []model.ChatMessage, max int) []model.ChatMessage {
	if len(history) <= max {
		return history
	}
	return history[len(history)-max:]
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/buildingassets/buildingchat/internal/ai"
	"github.com/buildingassets/buildingchat/internal/model"
	appErr "github.com/buildingassets/buildingchat/internal/pkg/errors"
	"github.com/buildingassets/buildingchat/internal/usage"
)

const (
	generateTimeout     = 30 * time.Second
	generateMaxTokens   = 1000
	generateTemperature = 0.7
	generateHistoryMax  = 10
)

// Generator invokes the completion model. Unlike every other stage,
// its failures are fatal to the request.
type Generator struct {
	chat  ai.IChatProvider
	model string
}

func NewGenerator(chat ai.IChatProvider, modelName string) *Generator {
	return &Generator{chat: chat, model: modelName}
}

func (g *Generator) ModelName() string {
	return g.model
}

type GenerateResult struct {
	Text  string
	Usage ai.Usage
	Model string
}

func (g *Generator) Generate(ctx context.Context, ledger *usage.Ledger, prompt model.PromptSpec, history []model.ChatMessage, message string) (*GenerateResult, error) {
	msgs := make([]model.ChatMessage, 0, generateHistoryMax+2)
	msgs = append(msgs, model.ChatMessage{Role: model.RoleSystem, Content: prompt.SystemMessage})
	msgs = append(msgs, lastTurns(history, generateHistoryMax)...)
	msgs = append(msgs, model.ChatMessage{Role: model.RoleUser, Content: message})

	gctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()
	res, err := g.chat.Chat(gctx, g.model, msgs, ai.ChatOptions{
		Temperature: generateTemperature,
		MaxTokens:   generateMaxTokens,
	})
	if err != nil {
		ledger.Record(ctx, model.APITypeChat, g.model, ai.Usage{}, false)
		logutil.GetLogger(ctx).Error("generation failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", appErr.ErrGeneration, err)
	}
	ledger.Record(ctx, model.APITypeChat, g.model, res.Usage, true)
	if res.Content == "" {
		return nil, fmt.Errorf("%w: empty completion", appErr.ErrGeneration)
	}
	return &GenerateResult{Text: res.Content, Usage: res.Usage, Model: g.model}, nil
}

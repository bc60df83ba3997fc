package usage

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/buildingassets/buildingchat/internal/ai"
	"github.com/buildingassets/buildingchat/internal/model"
)

// modelPrice is USD per million tokens, input and output priced apart.
type modelPrice struct {
	InputPerM  float64
	OutputPerM float64
}

var pricing = map[string]modelPrice{
	"gpt-4o-mini":            {InputPerM: 0.40, OutputPerM: 1.60},
	"gpt-4o":                 {InputPerM: 2.50, OutputPerM: 10.00},
	"text-embedding-3-small": {InputPerM: 0.02},
	"text-embedding-3-large": {InputPerM: 0.13},
}

// Cost prices one call. Unknown models cost zero, never error.
func Cost(modelName string, u ai.Usage) (float64, bool) {
	p, ok := pricing[modelName]
	if !ok {
		return 0, false
	}
	return float64(u.PromptTokens)/1e6*p.InputPerM + float64(u.CompletionTokens)/1e6*p.OutputPerM, true
}

// Ledger accumulates metered calls for a single orchestration run. It
// is request-scoped and must never be shared across requests.
type Ledger struct {
	records []model.CostRecord
}

func NewLedger() *Ledger {
	return &Ledger{}
}

// Record prices and appends one call. Failed calls are recorded too so
// partial spend stays visible.
func (l *Ledger) Record(ctx context.Context, apiType, modelName string, u ai.Usage, success bool) float64 {
	cost, known := Cost(modelName, u)
	if !known {
		logutil.GetLogger(ctx).Warn("no pricing for model, recording zero cost",
			zap.String("model", modelName))
	}
	l.records = append(l.records, model.CostRecord{
		APIType:          apiType,
		Model:            modelName,
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
		Cost:             cost,
		Success:          success,
		Timestamp:        time.Now().Unix(),
	})
	return cost
}

func (l *Ledger) Records() []model.CostRecord {
	return l.records
}

func (l *Ledger) TotalCost() float64 {
	var total float64
	for _, r := range l.records {
		total += r.Cost
	}
	return total
}

func (l *Ledger) TotalTokens() int {
	var total int
	for _, r := range l.records {
		total += r.TotalTokens
	}
	return total
}

// Summary breaks the request's spend down by api type.
func (l *Ledger) Summary() map[string]float64 {
	out := map[string]float64{"total_cost": 0}
	for _, r := range l.records {
		out["total_cost"] += r.Cost
		out[r.APIType+"_cost"] += r.Cost
	}
	return out
}

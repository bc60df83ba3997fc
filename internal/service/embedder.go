package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/buildingassets/buildingchat/internal/ai"
	"github.com/buildingassets/buildingchat/internal/model"
	appErr "github.com/buildingassets/buildingchat/internal/pkg/errors"
	"github.com/buildingassets/buildingchat/internal/usage"
)

const embedBatchLimit = 32

// Embedder wraps a provider with auto-batching, cost recording and a
// short-lived cache for query embeddings.
type Embedder struct {
	provider   ai.IEmbedProvider
	model      string
	batchSize  int
	queryCache *expirable.LRU[string, []float32]
}

func NewEmbedder(provider ai.IEmbedProvider, modelName string, batchSize int) *Embedder {
	if batchSize <= 0 || batchSize > embedBatchLimit {
		batchSize = embedBatchLimit
	}
	return &Embedder{
		provider:   provider,
		model:      modelName,
		batchSize:  batchSize,
		queryCache: expirable.NewLRU[string, []float32](256, nil, 10*time.Minute),
	}
}

func (e *Embedder) ModelName() string {
	return e.model
}

// EmbedBatch embeds every input in order, splitting into provider-sized
// batches. Every remote call is recorded on the ledger, failed calls
// included; any failure aborts the whole batch.
func (e *Embedder) EmbedBatch(ctx context.Context, ledger *usage.Ledger, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	logger := logutil.GetLogger(ctx)
	out := make([][]float32, 0, len(inputs))
	for start := 0; start < len(inputs); start += e.batchSize {
		end := start + e.batchSize
		if end > len(inputs) {
			end = len(inputs)
		}
		res, err := e.provider.Embed(ctx, e.model, inputs[start:end])
		if err != nil {
			ledger.Record(ctx, model.APITypeEmbedding, e.model, ai.Usage{}, false)
			logger.Error("embedding batch failed",
				zap.Int("batch_start", start),
				zap.Int("batch_size", end-start),
				zap.Error(err))
			return nil, fmt.Errorf("%w: %v", appErr.ErrEmbedding, err)
		}
		ledger.Record(ctx, model.APITypeEmbedding, e.model, res.Usage, true)
		out = append(out, res.Vectors...)
	}
	if len(out) != len(inputs) {
		return nil, fmt.Errorf("%w: got %d vectors for %d inputs", appErr.ErrEmbedding, len(out), len(inputs))
	}
	return out, nil
}

// EmbedQuery embeds a single search query, serving repeats from cache.
// Cache hits cost nothing and record nothing.
func (e *Embedder) EmbedQuery(ctx context.Context, ledger *usage.Ledger, query string) ([]float32, error) {
	key := cacheKey(e.model, query)
	if vec, ok := e.queryCache.Get(key); ok {
		return vec, nil
	}
	vecs, err := e.EmbedBatch(ctx, ledger, []string{query})
	if err != nil {
		return nil, err
	}
	e.queryCache.Add(key, vecs[0])
	return vecs[0], nil
}

func cacheKey(modelName, text string) string {
	sum := sha256.Sum256([]byte(modelName + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

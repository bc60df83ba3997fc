package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/buildingassets/buildingchat/internal/invoke"
	"github.com/buildingassets/buildingchat/internal/model"
	appErr "github.com/buildingassets/buildingchat/internal/pkg/errors"
	"github.com/buildingassets/buildingchat/internal/usage"
)

// IngestTarget is the invoker handler name for document ingestion.
const IngestTarget = "embed_and_index"

// FileStatusReader looks up tracked documents so the orchestrator can
// tell which of a request's files still need ingestion.
type FileStatusReader interface {
	ListByIDs(ctx context.Context, orgID, buildingID int64, ids []int64) ([]model.Document, error)
}

// ChatService orchestrates one chat request: classify, optionally
// trigger ingestion, resolve context, assemble the prompt, generate.
// Every stage before generation degrades on failure; only generation
// failure surfaces as an error to the caller.
type ChatService struct {
	classifier *Classifier
	resolver   *Resolver
	generator  *Generator
	buildings  BuildingReader
	files      FileStatusReader
	invoker    *invoke.Invoker
	monitor    *usage.Monitor
}

func NewChatService(classifier *Classifier, resolver *Resolver, generator *Generator, buildings BuildingReader, files FileStatusReader, invoker *invoke.Invoker, monitor *usage.Monitor) *ChatService {
	return &ChatService{
		classifier: classifier,
		resolver:   resolver,
		generator:  generator,
		buildings:  buildings,
		files:      files,
		invoker:    invoker,
		monitor:    monitor,
	}
}

func (s *ChatService) Chat(ctx context.Context, req *model.ChatRequest) (*model.ChatResponse, error) {
	requestID := uuid.NewString()
	logger := logutil.GetLogger(ctx).With(
		zap.String("request_id", requestID),
		zap.Int64("org_id", req.OrgID),
		zap.Int64("building_id", req.BuildingID),
	)
	// A fresh ledger per request; concurrent requests never share one.
	ledger := usage.NewLedger()
	defer s.monitor.FinishRequest(ctx, ledger)

	classification := s.classifier.Classify(ctx, ledger, req.Message, req.History, req.FileIDs, req.BuildingID)
	logger.Info("message classified",
		zap.String("context_type", classification.ContextType),
		zap.Float64("confidence", classification.Confidence))

	if classification.RequiresFileProcessing && len(req.FileIDs) > 0 {
		s.triggerIngestion(ctx, req)
	}

	bundle := s.resolver.Resolve(ctx, ledger, ResolveRequest{
		ContextType: classification.ContextType,
		Message:     req.Message,
		FileIDs:     req.FileIDs,
		OrgID:       req.OrgID,
		BuildingID:  req.BuildingID,
	})
	if bundle.Error != "" {
		logger.Warn("context resolution degraded", zap.String("resolve_error", bundle.Error))
	}

	prompt := s.assemblePrompt(ctx, req, bundle)

	gen, err := s.generator.Generate(ctx, ledger, prompt, req.History, req.Message)
	if err != nil {
		logger.Error("generation stage failed", zap.Error(err))
		return &model.ChatResponse{
			Response: "I apologize, but I'm experiencing technical difficulties right now. Please try again in a moment.",
			Metadata: model.ChatMetadata{
				ContextType: classification.ContextType,
				Confidence:  0,
				Reason:      classification.Reason,
				CostSummary: ledger.Summary(),
			},
			RequestID: requestID,
		}, appErr.ErrGeneration
	}

	return &model.ChatResponse{
		Response: gen.Text,
		Metadata: model.ChatMetadata{
			ContextType: classification.ContextType,
			Confidence:  classification.Confidence,
			Reason:      classification.Reason,
			ContextUsed: prompt.ContextUsed,
			ModelUsed:   gen.Model,
			TokensUsed:  ledger.TotalTokens(),
			CostSummary: ledger.Summary(),
		},
		RequestID: requestID,
	}, nil
}

// triggerIngestion fires the ingestion pipeline without waiting on it.
// Only files that are neither processed nor mid-ingestion are sent:
// re-embedding a processed file would meter spend again and add a
// parallel vector set. Failures here never affect the chat request.
func (s *ChatService) triggerIngestion(ctx context.Context, req *model.ChatRequest) {
	logger := logutil.GetLogger(ctx)
	docs, err := s.files.ListByIDs(ctx, req.OrgID, req.BuildingID, req.FileIDs)
	if err != nil {
		logger.Warn("file status lookup failed, skipping ingestion trigger", zap.Error(err))
		return
	}
	for _, doc := range docs {
		if doc.Status == model.DocumentStatusProcessed || doc.Status == model.DocumentStatusProcessing {
			continue
		}
		payload := IngestRequest{OrgID: req.OrgID, BuildingID: req.BuildingID, FileID: doc.ID}
		if err := s.invoker.InvokeAsync(ctx, IngestTarget, payload); err != nil {
			logger.Warn("ingestion trigger failed, continuing without new vectors",
				zap.Int64("file_id", doc.ID), zap.Error(err))
		}
	}
}

// buildPrompt is swappable for tests.
var buildPrompt = BuildPrompt

// assemblePrompt degrades to the minimal persona prompt when assembly
// yields nothing usable, instead of sending an empty system message.
func (s *ChatService) assemblePrompt(ctx context.Context, req *model.ChatRequest, bundle model.ContextBundle) model.PromptSpec {
	name := s.buildingName(ctx, req)
	prompt := buildPrompt(name, bundle, req.History)
	if strings.TrimSpace(prompt.SystemMessage) == "" {
		logutil.GetLogger(ctx).Warn("prompt assembly produced no system message, using fallback")
		return FallbackPrompt(name)
	}
	return prompt
}

func (s *ChatService) buildingName(ctx context.Context, req *model.ChatRequest) string {
	if req.BuildingID == 0 {
		return ""
	}
	b, err := s.buildings.GetByID(ctx, req.OrgID, req.BuildingID)
	if err != nil {
		logutil.GetLogger(ctx).Warn("building name lookup failed", zap.Error(err))
		return ""
	}
	return b.Name
}

// RegisterIngestHandler wires the ingestion pipeline into the invoker
// under its well-known name.
func RegisterIngestHandler(inv *invoke.Invoker, ingest *IngestService) {
	inv.Register(IngestTarget, func(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
		var req IngestRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, err
		}
		stats, err := ingest.Ingest(ctx, req)
		if err != nil {
			return nil, err
		}
		return json.Marshal(stats)
	})
}

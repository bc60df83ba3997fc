package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/buildingassets/buildingchat/internal/chunker"
	"github.com/buildingassets/buildingchat/internal/extract"
	"github.com/buildingassets/buildingchat/internal/filestore"
	"github.com/buildingassets/buildingchat/internal/model"
	appErr "github.com/buildingassets/buildingchat/internal/pkg/errors"
	"github.com/buildingassets/buildingchat/internal/usage"
	"github.com/buildingassets/buildingchat/internal/vectorstore"
)

type FileTracker interface {
	GetByID(ctx context.Context, orgID, fileID int64) (*model.Document, error)
	UpdateStatus(ctx context.Context, fileID int64, status string) error
}

type ChunkShadowWriter interface {
	SaveBatch(ctx context.Context, items []model.ChunkVector) error
}

type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, ledger *usage.Ledger, inputs []string) ([][]float32, error)
	ModelName() string
}

// IngestService turns an uploaded document into a searchable chunk
// set: extract, clean, chunk, embed, index, shadow-copy, audit. Every
// step is fatal on failure so no partial chunk set becomes queryable.
type IngestService struct {
	files   FileTracker
	shadows ChunkShadowWriter
	store   vectorstore.IStore
	blobs   filestore.Store
	embed   BatchEmbedder
	chunks  *chunker.Chunker
	monitor *usage.Monitor
}

func NewIngestService(files FileTracker, shadows ChunkShadowWriter, store vectorstore.IStore, blobs filestore.Store, embed BatchEmbedder, chunks *chunker.Chunker, monitor *usage.Monitor) *IngestService {
	return &IngestService{files: files, shadows: shadows, store: store, blobs: blobs, embed: embed, chunks: chunks, monitor: monitor}
}

type IngestRequest struct {
	OrgID      int64 `json:"org_id"`
	BuildingID int64 `json:"building_id"`
	FileID     int64 `json:"file_id"`
}

// Ingest runs the full pipeline for one document. The ledger it uses
// is its own: ingestion is asynchronous relative to chat traffic.
func (s *IngestService) Ingest(ctx context.Context, req IngestRequest) (*model.IngestStats, error) {
	ledger := usage.NewLedger()
	defer s.monitor.FinishRequest(ctx, ledger)

	stats, err := s.ingest(ctx, ledger, req)
	if err != nil {
		if serr := s.files.UpdateStatus(ctx, req.FileID, model.DocumentStatusError); serr != nil {
			logutil.GetLogger(ctx).Error("failed to mark file errored", zap.Int64("file_id", req.FileID), zap.Error(serr))
		}
		return nil, err
	}
	if err := s.files.UpdateStatus(ctx, req.FileID, model.DocumentStatusProcessed); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *IngestService) ingest(ctx context.Context, ledger *usage.Ledger, req IngestRequest) (*model.IngestStats, error) {
	logger := logutil.GetLogger(ctx).With(
		zap.Int64("org_id", req.OrgID),
		zap.Int64("building_id", req.BuildingID),
		zap.Int64("file_id", req.FileID),
	)

	doc, err := s.files.GetByID(ctx, req.OrgID, req.FileID)
	if err != nil {
		return nil, fmt.Errorf("load file record: %w", err)
	}
	if doc.BuildingID != req.BuildingID {
		return nil, appErr.ErrAccessDenied
	}

	rc, err := s.blobs.Open(ctx, doc.FilePath)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	raw, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	extractor, err := extract.ForFile(doc.FileName)
	if err != nil {
		return nil, err
	}
	pages, err := extractor.Extract(raw)
	if err != nil {
		return nil, fmt.Errorf("extract pages: %w", err)
	}
	chunks := s.chunks.ChunkPages(pages)
	if len(chunks) == 0 {
		return nil, appErr.ErrEmptyDocument
	}
	logger.Info("document chunked",
		zap.Int("pages", len(pages)),
		zap.Int("chunks", len(chunks)))

	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		texts = append(texts, c.Text)
	}
	vectors, err := s.embed.EmbedBatch(ctx, ledger, texts)
	if err != nil {
		return nil, err
	}

	points := make([]vectorstore.Point, 0, len(chunks))
	shadows := make([]model.ChunkVector, 0, len(chunks))
	for i, c := range chunks {
		pointID := uuid.NewString()
		customID := fmt.Sprintf("vs_%d_%d_%d_%d", req.OrgID, req.BuildingID, req.FileID, i)
		points = append(points, vectorstore.Point{
			ID:     pointID,
			Vector: vectors[i],
			Payload: vectorstore.Payload{
				OrgID:      req.OrgID,
				BuildingID: req.BuildingID,
				FileID:     req.FileID,
				FileName:   doc.FileName,
				Text:       c.Text,
				ChunkIndex: i,
				PageNumber: c.Page,
				CustomID:   customID,
			},
		})
		shadows = append(shadows, model.ChunkVector{
			FileID:     req.FileID,
			PointID:    pointID,
			Embedding:  vectors[i],
			ChunkIndex: i,
			PageNumber: c.Page,
			WordCount:  c.WordCount,
			ChunkSize:  c.ChunkSize,
			Overlap:    c.Overlap,
			Text:       c.Text,
			CustomID:   customID,
		})
	}

	if err := s.store.Upsert(ctx, points); err != nil {
		return nil, fmt.Errorf("index vectors: %w", err)
	}
	if err := s.shadows.SaveBatch(ctx, shadows); err != nil {
		return nil, fmt.Errorf("persist chunk shadow rows: %w", err)
	}
	if err := s.saveChunkAudit(ctx, doc, chunks); err != nil {
		return nil, fmt.Errorf("persist chunk audit: %w", err)
	}

	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}
	logger.Info("ingestion complete", zap.Int("chunks", len(chunks)), zap.Int("dimension", dim))
	return &model.IngestStats{
		NumChunks:    len(chunks),
		EmbeddingDim: dim,
		FileSize:     len(raw),
		WindowSize:   s.chunks.WindowSize(),
		Overlap:      s.chunks.Overlap(),
	}, nil
}

// saveChunkAudit writes the vector-free chunk list next to the source
// document for later reference.
func (s *IngestService) saveChunkAudit(ctx context.Context, doc *model.Document, chunks []model.Chunk) error {
	data, err := json.Marshal(chunks)
	if err != nil {
		return err
	}
	dir := path.Dir(doc.FilePath)
	stem := strings.TrimSuffix(path.Base(doc.FilePath), path.Ext(doc.FilePath))
	key := path.Join(dir, "processed", stem, "chunks.json")
	return s.blobs.Save(ctx, key, strings.NewReader(string(data)))
}

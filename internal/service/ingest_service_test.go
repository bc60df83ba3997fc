package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/buildingassets/buildingchat/internal/chunker"
	"github.com/buildingassets/buildingchat/internal/model"
	appErr "github.com/buildingassets/buildingchat/internal/pkg/errors"
	"github.com/buildingassets/buildingchat/internal/usage"
)

func newIngestFixture(t *testing.T, embed *fakeEmbed, doc *model.Document, content string) (*IngestService, *fakeFiles, *fakeStore, *fakeShadows, *memBlobStore) {
	t.Helper()
	files := newFakeFiles(doc)
	store := &fakeStore{}
	shadows := &fakeShadows{}
	blobs := newMemBlobStore()
	require.NoError(t, blobs.Save(context.Background(), doc.FilePath, strings.NewReader(content)))
	embedder := NewEmbedder(embed, "text-embedding-3-small", 32)
	svc := NewIngestService(files, shadows, store, blobs, embedder, chunker.New(512, 50), usage.NewMonitor(1, 10))
	return svc, files, store, shadows, blobs
}

func testDoc() *model.Document {
	return &model.Document{
		ID: 11, OrgID: 3, BuildingID: 7,
		FileName: "audit.txt",
		FilePath: "org3/building7/audit.txt",
		FileType: "txt",
		Status:   model.DocumentStatusProcessing,
	}
}

func TestIngest_FullPipeline(t *testing.T) {
	svc, files, store, shadows, blobs := newIngestFixture(t, &fakeEmbed{}, testDoc(),
		"The boiler was replaced in 2021.\fAnnual usage fell by five percent afterwards.")

	stats, err := svc.Ingest(context.Background(), IngestRequest{OrgID: 3, BuildingID: 7, FileID: 11})
	require.NoError(t, err)
	require.Equal(t, 2, stats.NumChunks)
	require.Equal(t, 4, stats.EmbeddingDim)
	require.Equal(t, 512, stats.WindowSize)
	require.Equal(t, 50, stats.Overlap)

	require.Len(t, store.upserted, 2)
	for i, p := range store.upserted {
		require.Equal(t, int64(3), p.Payload.OrgID)
		require.Equal(t, int64(7), p.Payload.BuildingID)
		require.Equal(t, int64(11), p.Payload.FileID)
		require.Equal(t, fmt.Sprintf("vs_3_7_11_%d", i), p.Payload.CustomID)
		require.NotEmpty(t, p.ID)
	}

	require.Len(t, shadows.saved, 2)
	require.Equal(t, store.upserted[0].ID, shadows.saved[0].PointID)
	require.Equal(t, "vs_3_7_11_1", shadows.saved[1].CustomID)

	rc, err := blobs.Open(context.Background(), "org3/building7/processed/audit/chunks.json")
	require.NoError(t, err)
	var auditChunks []model.Chunk
	require.NoError(t, json.NewDecoder(rc).Decode(&auditChunks))
	require.Len(t, auditChunks, 2)
	require.Equal(t, 1, auditChunks[0].Page)
	require.Equal(t, 2, auditChunks[1].Page)

	require.Equal(t, model.DocumentStatusProcessed, files.status[11])
}

func TestIngest_EmbeddingFailureIsAtomic(t *testing.T) {
	svc, files, store, shadows, _ := newIngestFixture(t, &fakeEmbed{failAll: true}, testDoc(),
		"Some content that will never be indexed.")

	_, err := svc.Ingest(context.Background(), IngestRequest{OrgID: 3, BuildingID: 7, FileID: 11})
	require.ErrorIs(t, err, appErr.ErrEmbedding)
	require.Empty(t, store.upserted)
	require.Empty(t, shadows.saved)
	require.Equal(t, model.DocumentStatusError, files.status[11])
}

func TestIngest_EmptyDocumentFatal(t *testing.T) {
	svc, files, _, _, _ := newIngestFixture(t, &fakeEmbed{}, testDoc(), "   \n \f  \n ")

	_, err := svc.Ingest(context.Background(), IngestRequest{OrgID: 3, BuildingID: 7, FileID: 11})
	require.ErrorIs(t, err, appErr.ErrEmptyDocument)
	require.Equal(t, model.DocumentStatusError, files.status[11])
}

func TestIngest_TenantMismatchDenied(t *testing.T) {
	svc, _, store, _, _ := newIngestFixture(t, &fakeEmbed{}, testDoc(), "content")

	_, err := svc.Ingest(context.Background(), IngestRequest{OrgID: 3, BuildingID: 999, FileID: 11})
	require.ErrorIs(t, err, appErr.ErrAccessDenied)
	require.Empty(t, store.upserted)
}

func TestIngest_UnknownFile(t *testing.T) {
	svc, _, _, _, _ := newIngestFixture(t, &fakeEmbed{}, testDoc(), "content")

	_, err := svc.Ingest(context.Background(), IngestRequest{OrgID: 3, BuildingID: 7, FileID: 404})
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

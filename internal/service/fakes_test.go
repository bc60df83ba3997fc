package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/buildingassets/buildingchat/internal/ai"
	"github.com/buildingassets/buildingchat/internal/model"
	appErr "github.com/buildingassets/buildingchat/internal/pkg/errors"
	"github.com/buildingassets/buildingchat/internal/vectorstore"
)

type fakeChat struct {
	replies []ai.ChatResult
	errs    []error
	calls   [][]model.ChatMessage
	opts    []ai.ChatOptions
}

func (f *fakeChat) Name() string { return "fake" }

func (f *fakeChat) Chat(ctx context.Context, modelName string, msgs []model.ChatMessage, opts ai.ChatOptions) (*ai.ChatResult, error) {
	idx := len(f.calls)
	f.calls = append(f.calls, msgs)
	f.opts = append(f.opts, opts)
	if idx < len(f.errs) && f.errs[idx] != nil {
		return nil, f.errs[idx]
	}
	if idx < len(f.replies) {
		r := f.replies[idx]
		return &r, nil
	}
	return &ai.ChatResult{Content: "ok"}, nil
}

type fakeEmbed struct {
	dim     int
	failAll bool
	calls   [][]string
}

func (f *fakeEmbed) Name() string { return "fake" }

func (f *fakeEmbed) Embed(ctx context.Context, modelName string, inputs []string) (*ai.EmbedResult, error) {
	f.calls = append(f.calls, inputs)
	if f.failAll {
		return nil, errors.New("embedding backend down")
	}
	dim := f.dim
	if dim == 0 {
		dim = 4
	}
	vectors := make([][]float32, len(inputs))
	for i := range inputs {
		vectors[i] = make([]float32, dim)
		vectors[i][0] = float32(i + 1)
	}
	return &ai.EmbedResult{
		Vectors: vectors,
		Usage:   ai.Usage{PromptTokens: 10 * len(inputs), TotalTokens: 10 * len(inputs)},
	}, nil
}

type fakeStore struct {
	mu       sync.Mutex
	upserted []vectorstore.Point
	hits     []vectorstore.ScoredPoint
	searchEr error
	upsertEr error
	queries  []vectorstore.Query
}

func (f *fakeStore) Init(ctx context.Context, dimension int) error { return nil }

func (f *fakeStore) Upsert(ctx context.Context, points []vectorstore.Point) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertEr != nil {
		return f.upsertEr
	}
	f.upserted = append(f.upserted, points...)
	return nil
}

func (f *fakeStore) Search(ctx context.Context, q vectorstore.Query) ([]vectorstore.ScoredPoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.searchEr != nil {
		return nil, f.searchEr
	}
	return f.hits, nil
}

type fakeBuildings struct {
	building *model.Building
	measures []model.Measure
	readings []model.EnergyReading
	bills    []model.Bill
	byOrg    []model.Building

	energyLimit int
}

func (f *fakeBuildings) GetByID(ctx context.Context, orgID, buildingID int64) (*model.Building, error) {
	if f.building == nil {
		return nil, appErr.ErrNotFound
	}
	return f.building, nil
}

func (f *fakeBuildings) ListByOrg(ctx context.Context, orgID int64) ([]model.Building, error) {
	return f.byOrg, nil
}

func (f *fakeBuildings) ListMeasures(ctx context.Context, orgID, buildingID int64, limit int) ([]model.Measure, error) {
	return f.measures, nil
}

func (f *fakeBuildings) ListEnergyReadings(ctx context.Context, orgID, buildingID int64, limit int) ([]model.EnergyReading, error) {
	f.energyLimit = limit
	return f.readings, nil
}

func (f *fakeBuildings) ListBills(ctx context.Context, orgID, buildingID int64, limit int) ([]model.Bill, error) {
	return f.bills, nil
}

type fakeOrgs struct {
	org     *model.Organization
	metrics *model.OrgMetrics
}

func (f *fakeOrgs) GetByID(ctx context.Context, orgID int64) (*model.Organization, error) {
	if f.org == nil {
		return nil, appErr.ErrNotFound
	}
	return f.org, nil
}

func (f *fakeOrgs) Metrics(ctx context.Context, orgID int64) (*model.OrgMetrics, error) {
	if f.metrics == nil {
		return nil, errors.New("metrics unavailable")
	}
	return f.metrics, nil
}

type fakeFiles struct {
	mu     sync.Mutex
	docs   map[int64]*model.Document
	status map[int64]string
}

func newFakeFiles(docs ...*model.Document) *fakeFiles {
	m := map[int64]*model.Document{}
	for _, d := range docs {
		m[d.ID] = d
	}
	return &fakeFiles{docs: m, status: map[int64]string{}}
}

func (f *fakeFiles) GetByID(ctx context.Context, orgID, fileID int64) (*model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := f.docs[fileID]
	if d == nil || d.OrgID != orgID {
		return nil, appErr.ErrNotFound
	}
	return d, nil
}

func (f *fakeFiles) ListByIDs(ctx context.Context, orgID, buildingID int64, ids []int64) ([]model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Document
	for _, id := range ids {
		if d := f.docs[id]; d != nil && d.OrgID == orgID && d.BuildingID == buildingID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeFiles) UpdateStatus(ctx context.Context, fileID int64, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status[fileID] = status
	return nil
}

type fakeShadows struct {
	mu    sync.Mutex
	saved []model.ChunkVector
}

func (f *fakeShadows) SaveBatch(ctx context.Context, items []model.ChunkVector) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, items...)
	return nil
}

type memBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{blobs: map[string][]byte{}}
}

func (m *memBlobStore) Save(ctx context.Context, key string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = data
	return nil
}

func (m *memBlobStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[key]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/buildingassets/buildingchat/internal/vectorstore"
)

// Storage is a minimal REST client to Qdrant using cosine distance.
type Storage struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

func New(cfg Config) *Storage {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Storage{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

func (s *Storage) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	// Qdrant returns 200 if the collection already exists with the same schema.
	return s.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s", s.collection), body, nil)
}

func (s *Storage) Upsert(ctx context.Context, points []vectorstore.Point) error {
	if len(points) == 0 {
		return nil
	}
	items := make([]map[string]any, 0, len(points))
	for _, p := range points {
		items = append(items, map[string]any{
			"id":     p.ID,
			"vector": p.Vector,
			"payload": map[string]any{
				"org_id":      p.Payload.OrgID,
				"building_id": p.Payload.BuildingID,
				"file_id":     p.Payload.FileID,
				"file_name":   p.Payload.FileName,
				"text":        p.Payload.Text,
				"chunk_index": p.Payload.ChunkIndex,
				"page_number": p.Payload.PageNumber,
				"custom_id":   p.Payload.CustomID,
			},
		})
	}
	body := map[string]any{"points": items}
	return s.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s/points?wait=true", s.collection), body, nil)
}

func match(key string, value any) map[string]any {
	return map[string]any{
		"key":   key,
		"match": map[string]any{"value": value},
	}
}

// buildFilter enforces tenant scope and optionally restricts to a file
// set: AND of org/building, OR across the requested file ids.
func buildFilter(q vectorstore.Query) map[string]any {
	must := []any{
		match("org_id", q.OrgID),
		match("building_id", q.BuildingID),
	}
	if len(q.FileIDs) > 0 {
		should := make([]any, 0, len(q.FileIDs))
		for _, id := range q.FileIDs {
			should = append(should, match("file_id", id))
		}
		must = append(must, map[string]any{"should": should})
	}
	return map[string]any{"must": must}
}

func (s *Storage) Search(ctx context.Context, q vectorstore.Query) ([]vectorstore.ScoredPoint, error) {
	topK := q.TopK
	if topK <= 0 {
		topK = 5
	}
	req := map[string]any{
		"vector":       q.Vector,
		"limit":        topK,
		"with_payload": true,
		"filter":       buildFilter(q),
		"params": map[string]any{
			"hnsw_ef": 128,
			"exact":   false,
		},
	}
	var resp struct {
		Result []struct {
			Score   float64              `json:"score"`
			Payload *vectorstore.Payload `json:"payload"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/search", s.collection), req, &resp); err != nil {
		return nil, err
	}
	out := make([]vectorstore.ScoredPoint, 0, len(resp.Result))
	for _, r := range resp.Result {
		if r.Payload == nil {
			continue
		}
		out = append(out, vectorstore.ScoredPoint{Score: r.Score, Payload: *r.Payload})
	}
	return out, nil
}

func (s *Storage) do(ctx context.Context, method, path string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, s.url+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("qdrant %s %s failed: %s: %s", method, path, resp.Status, strings.TrimSpace(string(msg)))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

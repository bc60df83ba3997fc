package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/buildingassets/buildingchat/internal/vectorstore"
	"github.com/stretchr/testify/require"
)

func TestBuildFilter_TenantScopeAlwaysPresent(t *testing.T) {
	f := buildFilter(vectorstore.Query{OrgID: 3, BuildingID: 7})
	must := f["must"].([]any)
	require.Len(t, must, 2)
	require.Equal(t, "org_id", must[0].(map[string]any)["key"])
	require.Equal(t, "building_id", must[1].(map[string]any)["key"])
}

func TestBuildFilter_FileIDsBecomeShouldClause(t *testing.T) {
	f := buildFilter(vectorstore.Query{OrgID: 3, BuildingID: 7, FileIDs: []int64{11, 12}})
	must := f["must"].([]any)
	require.Len(t, must, 3)
	should := must[2].(map[string]any)["should"].([]any)
	require.Len(t, should, 2)
	for _, cond := range should {
		require.Equal(t, "file_id", cond.(map[string]any)["key"])
	}
}

func TestSearch_SendsFilterAndParsesHits(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/collections/chunks/points/search", r.URL.Path)
		require.Equal(t, "secret", r.Header.Get("api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"result": []map[string]any{
				{
					"score": 0.91,
					"payload": map[string]any{
						"org_id":      3,
						"building_id": 7,
						"file_id":     11,
						"file_name":   "audit.md",
						"text":        "boiler replaced in 2021",
						"page_number": 2,
					},
				},
			},
		})
	}))
	defer srv.Close()

	s := New(Config{URL: srv.URL, APIKey: "secret", Collection: "chunks"})
	hits, err := s.Search(context.Background(), vectorstore.Query{
		Vector:     []float32{0.1, 0.2},
		OrgID:      3,
		BuildingID: 7,
		FileIDs:    []int64{11},
		TopK:       5,
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, int64(3), hits[0].Payload.OrgID)
	require.Equal(t, int64(7), hits[0].Payload.BuildingID)
	require.Equal(t, "boiler replaced in 2021", hits[0].Payload.Text)

	require.EqualValues(t, 5, captured["limit"])
	filter := captured["filter"].(map[string]any)
	require.Len(t, filter["must"].([]any), 3)
}

func TestSearch_ServerErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := New(Config{URL: srv.URL, Collection: "chunks"})
	_, err := s.Search(context.Background(), vectorstore.Query{OrgID: 1, BuildingID: 1})
	require.Error(t, err)
}

func TestUpsert_WaitFlagAndPayload(t *testing.T) {
	var path string
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path + "?" + r.URL.RawQuery
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	s := New(Config{URL: srv.URL, Collection: "chunks"})
	err := s.Upsert(context.Background(), []vectorstore.Point{
		{
			ID:     "f0e06c21-0000-0000-0000-000000000001",
			Vector: []float32{0.5},
			Payload: vectorstore.Payload{
				OrgID: 3, BuildingID: 7, FileID: 11,
				Text: "hello", CustomID: "vs_3_7_11_0",
			},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "/collections/chunks/points?wait=true", path)
	points := captured["points"].([]any)
	require.Len(t, points, 1)
	payload := points[0].(map[string]any)["payload"].(map[string]any)
	require.Equal(t, "vs_3_7_11_0", payload["custom_id"])
}

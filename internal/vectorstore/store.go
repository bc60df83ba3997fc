package vectorstore

import "context"

// Point is one indexed chunk with its tenant payload.
type Point struct {
	ID      string
	Vector  []float32
	Payload Payload
}

type Payload struct {
	OrgID      int64  `json:"org_id"`
	BuildingID int64  `json:"building_id"`
	FileID     int64  `json:"file_id"`
	FileName   string `json:"file_name"`
	Text       string `json:"text"`
	ChunkIndex int    `json:"chunk_index"`
	PageNumber int    `json:"page_number"`
	CustomID   string `json:"custom_id"`
}

// Query scopes a nearest-neighbor search. OrgID and BuildingID are
// always enforced; FileIDs, when set, restrict matches to those files.
type Query struct {
	Vector     []float32
	OrgID      int64
	BuildingID int64
	FileIDs    []int64
	TopK       int
}

type ScoredPoint struct {
	Score   float64
	Payload Payload
}

type IStore interface {
	Init(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, points []Point) error
	Search(ctx context.Context, q Query) ([]ScoredPoint, error)
}

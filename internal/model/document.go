package model

// Document is a tenant-scoped uploaded file. Immutable once ingested.
type Document struct {
	ID         int64  `json:"id"`
	OrgID      int64  `json:"org_id"`
	BuildingID int64  `json:"building_id"`
	FileName   string `json:"file_name"`
	FilePath   string `json:"file_path"`
	FileType   string `json:"file_type"`
	Status     string `json:"status"`
	Source     string `json:"source"`
	Ctime      int64  `json:"ctime"`
}

const (
	DocumentStatusProcessing = "processing"
	DocumentStatusProcessed  = "processed"
	DocumentStatusError      = "error"
)

// PageText is one extracted page; a pipeline intermediate, never persisted.
type PageText struct {
	Page      int    `json:"page"`
	Text      string `json:"text"`
	WordCount int    `json:"word_count"`
}

// Chunk is a sliding-window slice of a page.
type Chunk struct {
	Page        int    `json:"page"`
	Text        string `json:"text"`
	ChunkIndex  int    `json:"chunk_index"`
	TotalChunks int    `json:"total_chunks"`
	WordCount   int    `json:"word_count"`
	ChunkSize   int    `json:"chunk_size"`
	Overlap     int    `json:"overlap"`
}

// IngestStats is returned by a completed ingestion run.
type IngestStats struct {
	NumChunks    int `json:"num_chunks"`
	EmbeddingDim int `json:"embedding_dim"`
	FileSize     int `json:"file_size_bytes"`
	WindowSize   int `json:"window_size"`
	Overlap      int `json:"overlap"`
}

// ChunkVector is the relational shadow copy of an indexed chunk.
type ChunkVector struct {
	FileID     int64     `json:"file_id"`
	PointID    string    `json:"point_id"`
	Embedding  []float32 `json:"embedding"`
	ChunkIndex int       `json:"chunk_index"`
	PageNumber int       `json:"page_number"`
	WordCount  int       `json:"word_count"`
	ChunkSize  int       `json:"chunk_size"`
	Overlap    int       `json:"overlap"`
	Text       string    `json:"text"`
	CustomID   string    `json:"custom_id"`
}

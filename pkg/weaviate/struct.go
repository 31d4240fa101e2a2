package weaviate

import "github.com/weaviate/weaviate-go-client/v5/weaviate"

type WeaviateClient struct {
	*weaviate.Client
}

// Chunk is the unit of retrievable legal text stored in the vector index.
// Similarity is only populated on results coming back from a vector search.
type Chunk struct {
	ID         string  `json:"chunk_id,omitempty"`
	DocumentID string  `json:"document_id,omitempty"`
	Content    string  `json:"content,omitempty"`
	Title      string  `json:"title,omitempty"`
	Category   string  `json:"category,omitempty"`
	ChunkIndex int     `json:"chunk_index,omitempty"`
	Similarity float64 `json:"similarity,omitempty"`
}

// InsertConfig holds configuration for batch inserts
type InsertConfig struct {
	BatchSize        int
	ConsistencyLevel string // ONE, QUORUM, ALL
}

func DefaultInsertConfig() *InsertConfig {
	return &InsertConfig{
		BatchSize:        10,
		ConsistencyLevel: "ONE",
	}
}

package weaviate

import (
	"context"
	"fmt"

	"masslaw-api/config"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"
)

func NewWeaviateClient(cfg *config.Config) *WeaviateClient {
	// weaviate-go-client expects "host:port" format
	host := cfg.Weaviate.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Weaviate.Port
	if port == "" {
		port = "7080"
	}
	hostWithPort := fmt.Sprintf("%s:%s", host, port)

	scheme := cfg.Weaviate.Scheme
	if scheme == "" {
		scheme = "http"
	}

	client, err := weaviate.NewClient(weaviate.Config{
		Host:   hostWithPort,
		Scheme: scheme,
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize weaviate client: %v (connecting to %s://%s)", err, scheme, hostWithPort))
	}

	ready, err := client.Misc().ReadyChecker().Do(context.Background())
	if !ready {
		if err != nil {
			panic(fmt.Sprintf("Weaviate is not ready at %s://%s: %v", scheme, hostWithPort, err))
		}
		panic(fmt.Sprintf("Weaviate is not ready at %s://%s", scheme, hostWithPort))
	}

	return &WeaviateClient{
		Client: client,
	}
}

// EnsureClass creates the chunk class if it does not exist. Vectors are
// supplied externally at insert time, so the vectorizer is disabled.
func (w *WeaviateClient) EnsureClass(ctx context.Context, className string) error {
	err := w.Client.Schema().ClassCreator().
		WithClass(&models.Class{
			Class:      className,
			Vectorizer: "none",
			Properties: []*models.Property{
				{Name: "content", DataType: []string{"text"}},
				{Name: "title", DataType: []string{"text"}},
				{Name: "category", DataType: []string{"text"}},
				{Name: "document_id", DataType: []string{"text"}},
				{Name: "chunk_index", DataType: []string{"int"}},
			},
			VectorIndexType: "hnsw",
		}).
		Do(ctx)

	if err != nil {
		exists, _ := w.Client.Schema().ClassExistenceChecker().WithClassName(className).Do(ctx)
		if exists {
			return nil
		}
		return fmt.Errorf("failed to create class %s: %w", className, err)
	}
	return nil
}

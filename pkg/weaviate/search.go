package weaviate

import (
	"context"

	fylogger "github.com/FyersDev/trading-logger-go"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
)

func getFields() []graphql.Field {
	return []graphql.Field{
		{Name: "content"},
		{Name: "title"},
		{Name: "category"},
		{Name: "document_id"},
		{Name: "chunk_index"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "id"}, {Name: "certainty"}}},
	}
}

func parseResponse(data map[string]interface{}, className string) []Chunk {
	results := []Chunk{}

	classData, ok := data[className].([]any)
	if !ok {
		return results
	}

	for _, item := range classData {
		itemMap, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		chunk := Chunk{}
		if content, ok := itemMap["content"].(string); ok {
			chunk.Content = content
		}
		if title, ok := itemMap["title"].(string); ok {
			chunk.Title = title
		}
		if category, ok := itemMap["category"].(string); ok {
			chunk.Category = category
		}
		if docID, ok := itemMap["document_id"].(string); ok {
			chunk.DocumentID = docID
		}
		if idx, ok := itemMap["chunk_index"].(float64); ok {
			chunk.ChunkIndex = int(idx)
		}

		if additional, ok := itemMap["_additional"].(map[string]interface{}); ok {
			if id, ok := additional["id"].(string); ok {
				chunk.ID = id
			}
			if certainty, ok := additional["certainty"].(float64); ok {
				chunk.Similarity = certainty
			}
		}

		results = append(results, chunk)
	}
	return results
}

// MatchChunks returns the top matchCount chunks most similar to the given
// query embedding, ordered by descending similarity. Similarity is the
// certainty reported by the index, in [0,1].
func (w *WeaviateClient) MatchChunks(
	ctx context.Context,
	className string,
	embedding []float32,
	matchCount int,
) ([]Chunk, error) {
	response, err := w.Client.GraphQL().Get().
		WithClassName(className).
		WithFields(getFields()...).
		WithNearVector(
			w.Client.GraphQL().NearVectorArgBuilder().
				WithVector(embedding),
		).
		WithLimit(matchCount).
		Do(ctx)

	if err != nil {
		fylogger.ErrorLog(ctx, "failed to run vector match", err, map[string]interface{}{
			"class":       className,
			"match_count": matchCount,
		})
		return nil, err
	}

	if response.Data == nil {
		return nil, nil
	}

	data, ok := response.Data["Get"].(map[string]interface{})
	if !ok {
		return nil, nil
	}
	return parseResponse(data, className), nil
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"masslaw-api/config"
	"masslaw-api/internal/repositories"
	"masslaw-api/internal/services"
	"masslaw-api/pkg/llm"
	"masslaw-api/pkg/postgres"
	"masslaw-api/pkg/weaviate"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

var (
	cfg            *config.Config
	weaviateClient *weaviate.WeaviateClient
	chunkRepo      *repositories.ChunkRepository
	llmClient      *llm.Client
)

const defaultSearchLimit = 10

func init() {
	if err := godotenv.Load("../.env"); err != nil {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("No .env file found, using environment variables")
		}
	}

	cfg = config.Load()

	db, err := postgres.NewDB(cfg)
	if err != nil {
		panic(err)
	}
	chunkRepo = repositories.NewChunkRepository(db)

	weaviateClient = weaviate.NewWeaviateClient(cfg)
	llmClient = llm.NewClient(cfg)
}

// LegalSearchTool defines the MCP tool for Massachusetts criminal law search
var LegalSearchTool = mcp.Tool{
	Name: "legal_search",
	Description: `Search Massachusetts criminal law material (statutes, case law, procedure) using hybrid retrieval.

The search combines vector similarity over embeddings with Postgres full-text matching, merged by reciprocal rank fusion, so it works for both conceptual questions ("custodial interrogation warnings") and exact citations ("G.L. c. 265 s 1").

Returns ranked passages with the source document title, category, and similarity where available.`,
	InputSchema: mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "The legal question or citation to search for. Be specific; include statute chapters and sections when known.",
			},
			"limit": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum number of passages to return. Default is 10, capped at 20.",
				"default":     defaultSearchLimit,
			},
		},
		Required: []string{"query"},
	},
}

// HandleLegalSearch handles the legal search tool call
func HandleLegalSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, limit, errResult := parseSearchArgs(request)
	if errResult != nil {
		return errResult, nil
	}

	results, err := search(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(results) > limit {
		results = results[:limit]
	}

	var response strings.Builder
	fmt.Fprintf(&response, "Query: %s\n\n", query)

	if len(results) == 0 {
		response.WriteString("No passages found. Try rephrasing the question or citing the statute directly.\n")
		return mcp.NewToolResultText(response.String()), nil
	}

	fmt.Fprintf(&response, "Found %d relevant passages:\n\n", len(results))
	for i, candidate := range results {
		fmt.Fprintf(&response, "--- Result %d ---\n", i+1)
		fmt.Fprintf(&response, "Title: %s\n", candidate.Title)
		fmt.Fprintf(&response, "Category: %s\n", candidate.Category)
		if candidate.Similarity != nil {
			fmt.Fprintf(&response, "Similarity: %.2f\n", *candidate.Similarity)
		}
		fmt.Fprintf(&response, "Content:\n%s\n\n", candidate.Content)
	}

	return mcp.NewToolResultText(response.String()), nil
}

// legalSearchResultJSON is the JSON shape for programmatic consumers
type legalSearchResultJSON struct {
	Query       string            `json:"query"`
	ResultCount int               `json:"result_count"`
	Results     []services.Source `json:"results"`
}

// LegalSearchJSONTool defines the MCP tool returning JSON results
var LegalSearchJSONTool = mcp.Tool{
	Name:        "legal_search_json",
	Description: `Search Massachusetts criminal law material and return ranked passages as JSON for programmatic use. Same hybrid retrieval as legal_search.`,
	InputSchema: mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "The legal question or citation to search for",
			},
			"limit": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum number of passages to return. Default is 10, capped at 20.",
				"default":     defaultSearchLimit,
			},
		},
		Required: []string{"query"},
	},
}

// HandleLegalSearchJSON handles the JSON variant of the legal search tool
func HandleLegalSearchJSON(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, limit, errResult := parseSearchArgs(request)
	if errResult != nil {
		return errResult, nil
	}

	results, err := search(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(results) > limit {
		results = results[:limit]
	}

	sources := make([]services.Source, 0, len(results))
	for _, candidate := range results {
		sources = append(sources, services.Source{
			Title:      candidate.Title,
			Category:   candidate.Category,
			Content:    candidate.Content,
			Similarity: candidate.Similarity,
		})
	}

	jsonBytes, err := json.Marshal(legalSearchResultJSON{
		Query:       query,
		ResultCount: len(sources),
		Results:     sources,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
	}

	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func parseSearchArgs(request mcp.CallToolRequest) (string, int, *mcp.CallToolResult) {
	argsMap, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return "", 0, mcp.NewToolResultError("invalid arguments format")
	}

	query, ok := argsMap["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return "", 0, mcp.NewToolResultError("query parameter is required")
	}

	limit := defaultSearchLimit
	if raw, ok := argsMap["limit"].(float64); ok && raw > 0 {
		limit = int(raw)
	}
	if limit > 20 {
		limit = 20
	}

	return query, limit, nil
}

// search runs both retrieval channels and fuses their rankings. Either
// channel may be skipped when its backend is down; the search only fails
// when both are unavailable.
func search(ctx context.Context, query string) ([]services.RankedCandidate, error) {
	vectorOK, lexicalOK := false, false

	var vectorList []services.RankedCandidate
	embedding, err := llmClient.Embed(ctx, query)
	if err != nil {
		log.Printf("embedding failed, vector channel skipped: %v", err)
	} else {
		matches, err := weaviateClient.MatchChunks(ctx, cfg.Weaviate.Class, embedding, 20)
		if err != nil {
			log.Printf("vector search failed, channel skipped: %v", err)
		} else {
			vectorOK = true
			for _, match := range matches {
				similarity := match.Similarity
				vectorList = append(vectorList, services.RankedCandidate{
					ChunkID:    match.ID,
					DocumentID: match.DocumentID,
					Title:      match.Title,
					Category:   match.Category,
					Content:    match.Content,
					Similarity: &similarity,
				})
			}
		}
	}

	var lexicalList []services.RankedCandidate
	hits, err := chunkRepo.SearchText(ctx, query, 20)
	if err != nil {
		log.Printf("text search failed, channel skipped: %v", err)
	} else {
		lexicalOK = true
		for _, hit := range hits {
			lexicalList = append(lexicalList, services.RankedCandidate{
				ChunkID:    hit.ID.String(),
				DocumentID: hit.DocumentID.String(),
				Title:      hit.Title,
				Category:   hit.Category,
				Content:    hit.Content,
			})
		}
	}

	if !vectorOK && !lexicalOK {
		return nil, fmt.Errorf("both retrieval channels unavailable")
	}

	return services.FuseRanked(lexicalList, vectorList), nil
}

// MCPServer wraps the MCP server with SSE support
type MCPServer struct {
	mcpServer *server.MCPServer
	sseServer *server.SSEServer
}

// NewMCPServer creates a new MCP server exposing the legal search tools
func NewMCPServer() *MCPServer {
	mcpServer := server.NewMCPServer(
		"Massachusetts Criminal Law Search",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithLogging(),
	)

	mcpServer.AddTool(LegalSearchTool, HandleLegalSearch)
	mcpServer.AddTool(LegalSearchJSONTool, HandleLegalSearchJSON)

	return &MCPServer{
		mcpServer: mcpServer,
	}
}

// StartSSE starts the SSE server on the specified address
func (s *MCPServer) StartSSE(addr string) error {
	s.sseServer = server.NewSSEServer(s.mcpServer,
		server.WithBaseURL(fmt.Sprintf("http://%s", addr)),
		server.WithSSEEndpoint("/sse"),
		server.WithMessageEndpoint("/message"),
		server.WithKeepAliveInterval(30*time.Second),
	)

	log.Printf("Starting MCP SSE server on %s", addr)
	return s.sseServer.Start(addr)
}

// StartStdio starts the server in stdio mode (for CLI tools)
func (s *MCPServer) StartStdio() error {
	log.Println("Starting MCP server in stdio mode")
	return server.ServeStdio(s.mcpServer)
}

func main() {
	srv := NewMCPServer()
	if err := srv.StartSSE(":8081"); err != nil {
		log.Fatalf("Failed to start MCP server: %v", err)
	}
}

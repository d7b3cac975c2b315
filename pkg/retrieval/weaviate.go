// Package retrieval implements semantic document retrieval over
// Weaviate. Similarity scores are taken from nearText certainty,
// which is already normalized to [0,1].
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	wmodels "github.com/weaviate/weaviate/entities/models"

	"github.com/conclave-ai/conclave/pkg/models"
)

// Config configures the Weaviate retriever.
type Config struct {
	Scheme    string
	Host      string
	ClassName string
	// TopK is the maximum number of documents per query.
	TopK int
	// MinCertainty drops weakly related documents. Zero disables the cutoff.
	MinCertainty float64
}

// WeaviateRetriever implements agent.Retriever against a Weaviate
// document class. Safe for concurrent use.
type WeaviateRetriever struct {
	client *weaviate.Client
	cfg    Config
}

// NewWeaviateRetriever creates a retriever. Host and ClassName are
// required; TopK defaults to 5.
func NewWeaviateRetriever(cfg Config) (*WeaviateRetriever, error) {
	if cfg.Host == "" {
		return nil, errors.New("weaviate host is required")
	}
	if cfg.ClassName == "" {
		return nil, errors.New("weaviate class name is required")
	}
	if cfg.Scheme == "" {
		cfg.Scheme = "http"
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}

	client, err := weaviate.NewClient(weaviate.Config{
		Scheme: cfg.Scheme,
		Host:   cfg.Host,
	})
	if err != nil {
		return nil, fmt.Errorf("creating weaviate client: %w", err)
	}

	slog.Info("Initializing Weaviate retriever",
		"host", cfg.Host,
		"class", cfg.ClassName,
		"top_k", cfg.TopK)
	return &WeaviateRetriever{client: client, cfg: cfg}, nil
}

// Retrieve runs a nearText search for the query and returns documents
// ranked by certainty. Metadata filters become exact-match where
// clauses; a non-empty userID restricts results to that user's
// documents. The provider tag is carried for logging only: the
// embedding backend is fixed per Weaviate class.
func (r *WeaviateRetriever) Retrieve(ctx context.Context, query, provider string, filterFields map[string]any, userID string) ([]models.RetrievedDocument, error) {
	if query == "" {
		return nil, errors.New("query cannot be empty")
	}

	nearText := r.client.GraphQL().NearTextArgBuilder().
		WithConcepts([]string{query})
	if r.cfg.MinCertainty > 0 {
		nearText = nearText.WithCertainty(float32(r.cfg.MinCertainty))
	}

	fields := []graphql.Field{
		{Name: "content"},
		{Name: "source"},
		{Name: "title"},
		{Name: "_additional { id certainty }"},
	}

	builder := r.client.GraphQL().Get().
		WithClassName(r.cfg.ClassName).
		WithFields(fields...).
		WithNearText(nearText).
		WithLimit(r.cfg.TopK)

	if where := buildWhere(filterFields, userID); where != nil {
		builder = builder.WithWhere(where)
	}

	result, err := builder.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("search error: %s", result.Errors[0].Message)
	}

	docs := parseDocuments(result, r.cfg.ClassName)
	slog.Info("Retrieved documents",
		"query_length", len(query),
		"provider", provider,
		"count", len(docs))
	return docs, nil
}

// buildWhere combines metadata filters and the user scope into a
// single where clause. Returns nil when there is nothing to filter.
func buildWhere(filterFields map[string]any, userID string) *filters.WhereBuilder {
	var operands []*filters.WhereBuilder

	if userID != "" {
		operands = append(operands, filters.Where().
			WithPath([]string{"userId"}).
			WithOperator(filters.Equal).
			WithValueString(userID))
	}

	for field, value := range filterFields {
		clause := filters.Where().
			WithPath([]string{field}).
			WithOperator(filters.Equal)
		switch v := value.(type) {
		case string:
			clause = clause.WithValueString(v)
		case bool:
			clause = clause.WithValueBoolean(v)
		case int:
			clause = clause.WithValueInt(int64(v))
		case int64:
			clause = clause.WithValueInt(v)
		case float64:
			clause = clause.WithValueNumber(v)
		default:
			clause = clause.WithValueString(fmt.Sprintf("%v", v))
		}
		operands = append(operands, clause)
	}

	switch len(operands) {
	case 0:
		return nil
	case 1:
		return operands[0]
	default:
		return filters.Where().
			WithOperator(filters.And).
			WithOperands(operands)
	}
}

// parseDocuments extracts documents from a GraphQL Get response.
// Malformed objects are skipped rather than failing the query.
func parseDocuments(result *wmodels.GraphQLResponse, className string) []models.RetrievedDocument {
	data, ok := result.Data["Get"].(map[string]interface{})
	if !ok {
		return nil
	}
	objects, ok := data[className].([]interface{})
	if !ok {
		return nil
	}

	docs := make([]models.RetrievedDocument, 0, len(objects))
	for _, obj := range objects {
		m, ok := obj.(map[string]interface{})
		if !ok {
			continue
		}

		doc := models.RetrievedDocument{
			Content:  getString(m, "content"),
			Metadata: map[string]any{},
		}
		if source := getString(m, "source"); source != "" {
			doc.Metadata["source"] = source
		}
		if title := getString(m, "title"); title != "" {
			doc.Metadata["title"] = title
		}

		if additional, ok := m["_additional"].(map[string]interface{}); ok {
			if id, ok := additional["id"].(string); ok {
				doc.ID = id
			}
			if certainty, ok := additional["certainty"].(float64); ok {
				doc.Similarity = certainty
			}
		}

		docs = append(docs, doc)
	}
	return docs
}

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

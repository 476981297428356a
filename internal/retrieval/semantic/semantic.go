// internal/retrieval/semantic/semantic.go
package semantic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	stderrors "studynet-advisor/internal/common/errors"
	"studynet-advisor/internal/common/logger"
	"studynet-advisor/internal/models"
)

// Searcher is the semantic leg of retrieval: score-thresholded similarity
// search over guidance documents.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]models.SemanticHit, error)
}

// GuidanceIndex searches the guidance document index in Elasticsearch.
// Hits below the score threshold never surface.
type GuidanceIndex struct {
	client    *elasticsearch.Client
	index     string
	threshold float64
	logger    logger.Logger
}

func NewGuidanceIndex(client *elasticsearch.Client, index string, threshold float64, log logger.Logger) *GuidanceIndex {
	return &GuidanceIndex{
		client:    client,
		index:     index,
		threshold: threshold,
		logger:    log.With(map[string]interface{}{"component": "guidance-index"}),
	}
}

func (g *GuidanceIndex) Search(ctx context.Context, query string, k int) ([]models.SemanticHit, error) {
	body := map[string]interface{}{
		"min_score": g.threshold,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"content^2", "title", "section"},
				"type":   "best_fields",
			},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, stderrors.Wrap(stderrors.ErrCodeVectorSearchFailed, "query encoding failed", err)
	}

	req := esapi.SearchRequest{
		Index: []string{g.index},
		Body:  strings.NewReader(string(payload)),
		Size:  &k,
	}

	start := time.Now()
	res, err := req.Do(ctx, g.client)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, stderrors.Wrap(stderrors.ErrCodeSearchTimeout, "semantic search timed out", err)
		}
		return nil, stderrors.Wrap(stderrors.ErrCodeVectorSearchFailed, "semantic search failed", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		if res.StatusCode == 404 {
			return nil, stderrors.New(stderrors.ErrCodeIndexNotFound, fmt.Sprintf("index %q not found", g.index))
		}
		return nil, stderrors.New(stderrors.ErrCodeVectorSearchFailed, res.String())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Score  float64                `json:"_score"`
				Source map[string]interface{} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, stderrors.Wrap(stderrors.ErrCodeVectorSearchFailed, "response decoding failed", err)
	}

	hits := make([]models.SemanticHit, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		content, _ := h.Source["content"].(string)

		metadata := make(map[string]interface{}, len(h.Source))
		for key, value := range h.Source {
			if key == "content" {
				continue
			}
			metadata[key] = value
		}

		hits = append(hits, models.SemanticHit{
			Content:  content,
			Metadata: metadata,
			Score:    h.Score,
		})
	}

	g.logger.Debug("semantic search complete", map[string]interface{}{
		"hitCount": len(hits),
		"duration": time.Since(start).String(),
	})

	return hits, nil
}

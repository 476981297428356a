// internal/retrieval/hybrid/retriever.go
package hybrid

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"studynet-advisor/internal/common/logger"
	"studynet-advisor/internal/common/metrics"
	"studynet-advisor/internal/models"
)

// StructuredStore is the catalog-query surface the retriever needs.
type StructuredStore interface {
	SearchCourses(ctx context.Context, f models.Filters, limit int) ([]map[string]interface{}, error)
	CompareProviders(ctx context.Context, providerNames []string) ([]map[string]interface{}, error)
	GetProviderDetails(ctx context.Context, providerName string) (map[string]interface{}, error)
	GetScholarships(ctx context.Context, f models.Filters) ([]map[string]interface{}, error)
}

// SemanticSearcher is the guidance-document leg.
type SemanticSearcher interface {
	Search(ctx context.Context, query string, k int) ([]models.SemanticHit, error)
}

// Retriever merges structured catalog rows and semantic guidance hits into
// one HybridResult per query. Results are cached in Redis keyed by the
// parsed query's type, intent, and entities.
type Retriever struct {
	store    StructuredStore
	semantic SemanticSearcher
	redis    *redis.Client
	cacheTTL time.Duration
	contextK int
	logger   logger.Logger
}

func NewRetriever(store StructuredStore, sem SemanticSearcher, redisClient *redis.Client, cacheTTL time.Duration, contextK int, log logger.Logger) *Retriever {
	if contextK <= 0 {
		contextK = 3
	}
	return &Retriever{
		store:    store,
		semantic: sem,
		redis:    redisClient,
		cacheTTL: cacheTTL,
		contextK: contextK,
		logger:   log.With(map[string]interface{}{"component": "hybrid-retriever"}),
	}
}

// Retrieve routes the parsed query to the matching strategy. Semantic-leg
// failures degrade the result instead of failing the call; structured-leg
// failures propagate because there is nothing useful to answer with.
func (r *Retriever) Retrieve(ctx context.Context, parsed models.ParsedQuery, k int) (models.HybridResult, error) {
	cacheKey := r.cacheKey(parsed)
	if cached, ok := r.cacheGet(ctx, cacheKey); ok {
		metrics.RetrievalCacheHits.WithLabelValues("hit").Inc()
		return cached, nil
	}
	metrics.RetrievalCacheHits.WithLabelValues("miss").Inc()

	var (
		result models.HybridResult
		err    error
	)

	switch parsed.QueryType {
	case models.QueryTypeStructured:
		result, err = r.retrieveStructured(ctx, parsed, k)
	case models.QueryTypeSemantic:
		result = r.retrieveSemantic(ctx, parsed.OriginalQuery, k)
	case models.QueryTypeHybrid:
		result, err = r.retrieveHybrid(ctx, parsed, k)
	case models.QueryTypeComparison:
		result, err = r.retrieveComparison(ctx, parsed)
	default:
		result = r.retrieveSemantic(ctx, parsed.OriginalQuery, k)
	}
	if err != nil {
		return models.HybridResult{}, err
	}

	r.cacheSet(ctx, cacheKey, result)
	return result, nil
}

func (r *Retriever) retrieveStructured(ctx context.Context, parsed models.ParsedQuery, k int) (models.HybridResult, error) {
	r.logger.Info("structured retrieval", map[string]interface{}{
		"intent": string(parsed.Intent),
	})

	switch parsed.Intent {
	case models.IntentSearchCourses, models.IntentFilterByCriteria:
		rows, err := r.store.SearchCourses(ctx, parsed.Filters, k)
		if err != nil {
			return models.HybridResult{}, err
		}
		return structuredResult("course", rows, 0.95), nil

	case models.IntentGetProviderInfo:
		if parsed.Filters.ProviderName != "" {
			provider, err := r.store.GetProviderDetails(ctx, parsed.Filters.ProviderName)
			if err != nil {
				return models.HybridResult{}, err
			}
			var rows []map[string]interface{}
			if provider != nil {
				rows = append(rows, provider)
			}
			return structuredResult("provider", rows, 0.95), nil
		}
		// No provider named: list what the location offers instead.
		rows, err := r.store.SearchCourses(ctx, models.Filters{
			LocationCity:  parsed.Filters.LocationCity,
			LocationState: parsed.Filters.LocationState,
		}, k)
		if err != nil {
			return models.HybridResult{}, err
		}
		return structuredResult("provider", rows, 0.95), nil

	case models.IntentGetScholarships:
		rows, err := r.store.GetScholarships(ctx, parsed.Filters)
		if err != nil {
			return models.HybridResult{}, err
		}
		return structuredResult("provider", rows, 0.95), nil

	default:
		rows, err := r.store.SearchCourses(ctx, parsed.Filters, k)
		if err != nil {
			return models.HybridResult{}, err
		}
		return structuredResult("course", rows, 0.9), nil
	}
}

// retrieveSemantic never fails: search errors produce a degraded result
// with zero confidence.
func (r *Retriever) retrieveSemantic(ctx context.Context, query string, k int) models.HybridResult {
	hits, err := r.semantic.Search(ctx, query, k)
	if err != nil {
		r.logger.WithError(err).Warn("semantic retrieval degraded", nil)
		return models.HybridResult{
			ResultType:   "guidance",
			SemanticData: []models.SemanticHit{},
			Source:       "semantic",
			Confidence:   0.0,
			Status:       models.ResultStatusDegraded,
		}
	}

	status := models.ResultStatusOK
	if len(hits) == 0 {
		status = models.ResultStatusEmpty
	}

	return models.HybridResult{
		ResultType:   "guidance",
		SemanticData: hits,
		Source:       "semantic",
		Confidence:   0.85,
		Status:       status,
	}
}

// retrieveHybrid runs both legs concurrently: the structured leg at full k,
// the semantic leg trimmed to contextK for enrichment.
func (r *Retriever) retrieveHybrid(ctx context.Context, parsed models.ParsedQuery, k int) (models.HybridResult, error) {
	var (
		wg         sync.WaitGroup
		structured models.HybridResult
		sem        models.HybridResult
		structErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		structured, structErr = r.retrieveStructured(ctx, parsed, k)
	}()
	go func() {
		defer wg.Done()
		sem = r.retrieveSemantic(ctx, parsed.OriginalQuery, r.contextK)
	}()
	wg.Wait()

	if structErr != nil {
		return models.HybridResult{}, structErr
	}

	status := models.ResultStatusOK
	if sem.Status == models.ResultStatusDegraded {
		status = models.ResultStatusDegraded
	}
	if len(structured.StructuredData) == 0 && len(sem.SemanticData) == 0 {
		status = models.ResultStatusEmpty
	}

	return models.HybridResult{
		ResultType:     "mixed",
		StructuredData: structured.StructuredData,
		SemanticData:   sem.SemanticData,
		Source:         "hybrid",
		Confidence:     0.9,
		Status:         status,
	}, nil
}

// retrieveComparison needs at least two named providers; otherwise it
// downgrades to a plain structured search.
func (r *Retriever) retrieveComparison(ctx context.Context, parsed models.ParsedQuery) (models.HybridResult, error) {
	var providerNames []string
	if parsed.Filters.ProviderName != "" {
		providerNames = append(providerNames, parsed.Filters.ProviderName)
	}
	for _, entity := range parsed.Entities {
		if entity.Type != models.EntityProviderName {
			continue
		}
		name, ok := entity.Normalized.(string)
		if !ok || containsString(providerNames, name) {
			continue
		}
		providerNames = append(providerNames, name)
	}

	if len(providerNames) < 2 {
		r.logger.Info("not enough providers to compare, downgrading", map[string]interface{}{
			"providerCount": len(providerNames),
		})
		return r.retrieveStructured(ctx, parsed, 10)
	}

	rows, err := r.store.CompareProviders(ctx, providerNames)
	if err != nil {
		return models.HybridResult{}, err
	}
	return structuredResult("provider", rows, 0.95), nil
}

// EnrichWithContext attaches guidance snippets about the top course
// results' providers. Enrichment failures leave the result untouched.
func (r *Retriever) EnrichWithContext(ctx context.Context, result models.HybridResult) models.HybridResult {
	if result.ResultType != "course" || len(result.StructuredData) == 0 {
		return result
	}

	top := result.StructuredData
	if len(top) > 3 {
		top = top[:3]
	}

	var providerNames []string
	for _, row := range top {
		name, ok := row["provider_name"].(string)
		if !ok || name == "" || containsString(providerNames, name) {
			continue
		}
		providerNames = append(providerNames, name)
	}
	if len(providerNames) == 0 {
		return result
	}

	contextQuery := fmt.Sprintf("Tell me about %s universities", strings.Join(providerNames, ", "))
	hits, err := r.semantic.Search(ctx, contextQuery, r.contextK)
	if err != nil {
		r.logger.WithError(err).Warn("context enrichment skipped", nil)
		return result
	}

	result.SemanticData = hits
	result.Source = "hybrid"
	return result
}

// Rerank orders semantic hits by descending score. Structured rows keep
// their SQL ordering.
func (r *Retriever) Rerank(result models.HybridResult) models.HybridResult {
	sort.SliceStable(result.SemanticData, func(i, j int) bool {
		return result.SemanticData[i].Score > result.SemanticData[j].Score
	})
	return result
}

func (r *Retriever) cacheKey(parsed models.ParsedQuery) string {
	parts := make([]string, 0, len(parsed.Entities)+2)
	parts = append(parts, string(parsed.QueryType), string(parsed.Intent))
	for _, e := range parsed.Entities {
		parts = append(parts, e.Type+":"+e.Value)
	}
	return "advisor:retrieval:" + strings.Join(parts, "|")
}

func (r *Retriever) cacheGet(ctx context.Context, key string) (models.HybridResult, bool) {
	if r.redis == nil {
		return models.HybridResult{}, false
	}
	val, err := r.redis.Get(ctx, key).Result()
	if err != nil {
		return models.HybridResult{}, false
	}
	var result models.HybridResult
	if err := json.Unmarshal([]byte(val), &result); err != nil {
		return models.HybridResult{}, false
	}
	return result, true
}

func (r *Retriever) cacheSet(ctx context.Context, key string, result models.HybridResult) {
	if r.redis == nil {
		return
	}
	if len(result.StructuredData) == 0 && len(result.SemanticData) == 0 {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	r.redis.Set(ctx, key, string(data), r.cacheTTL)
}

func structuredResult(resultType string, rows []map[string]interface{}, confidence float64) models.HybridResult {
	status := models.ResultStatusOK
	if len(rows) == 0 {
		status = models.ResultStatusEmpty
	}
	return models.HybridResult{
		ResultType:     resultType,
		StructuredData: rows,
		Source:         "structured",
		Confidence:     confidence,
		Status:         status,
	}
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

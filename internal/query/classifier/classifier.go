// internal/query/classifier/classifier.go
package classifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"studynet-advisor/internal/common/config"
	stderrors "studynet-advisor/internal/common/errors"
	"studynet-advisor/internal/common/logger"
	"studynet-advisor/internal/models"
	"studynet-advisor/internal/query/extractor"
	"studynet-advisor/internal/query/filters"
)

// Keyword tables for the fast classification paths. Substring containment,
// not word-boundary matching: "scholarships" satisfies "scholarship".
var (
	structuredKeywords = []string{
		"course", "courses", "program", "programs", "university", "universities",
		"fee", "fees", "price", "cost", "cheap", "expensive", "under", "below",
		"bachelor", "master", "diploma", "phd", "degree",
		"sydney", "melbourne", "brisbane", "perth", "adelaide",
		"scholarship", "scholarships", "intake", "deadline",
	}

	semanticKeywords = []string{
		"how", "what", "why", "when", "where",
		"apply", "application", "process", "procedure",
		"visa", "student visa", "requirement", "requirements",
		"document", "documents", "need", "necessary",
		"guide", "help", "explain",
	}

	comparisonKeywords = []string{
		"compare", "comparison", "versus", "vs", "between",
		"difference", "differences", "better", "best",
	}

	questionPrefixes = []string{"how ", "what ", "why ", "when "}

	providerTerms = []string{"university", "universities", "provider"}
)

// Classifier turns raw query text into a ParsedQuery. Cheap keyword paths
// resolve comparison and pure-guidance queries without a model call; the
// rest go to the LLM.
type Classifier struct {
	llm       llms.Model
	extractor *extractor.Extractor
	filters   *filters.Builder
	cfg       config.LLMConfig
	topK      int
	logger    logger.Logger
}

func New(model llms.Model, ext *extractor.Extractor, fb *filters.Builder, cfg config.LLMConfig, topK int, log logger.Logger) *Classifier {
	return &Classifier{
		llm:       model,
		extractor: ext,
		filters:   fb,
		cfg:       cfg,
		topK:      topK,
		logger:    log.With(map[string]interface{}{"component": "query-classifier"}),
	}
}

// Classify runs the full pipeline: fast-path type detection, LLM fallback,
// entity extraction, filter construction, and the hybrid upgrade rule.
// It always returns a usable ParsedQuery; LLM failures degrade to the
// structured default rather than erroring out.
func (c *Classifier) Classify(ctx context.Context, query string) models.ParsedQuery {
	queryLower := strings.ToLower(query)

	var (
		intent    models.Intent
		queryType models.QueryType
		resolved  bool
	)

	switch {
	case containsAny(queryLower, comparisonKeywords) && containsAny(queryLower, providerTerms):
		intent = models.IntentCompareProviders
		queryType = models.QueryTypeComparison
		resolved = true
		c.logger.Info("detected comparison query", nil)

	case hasAnyPrefix(queryLower, questionPrefixes) && !containsAny(queryLower, structuredKeywords):
		intent = models.IntentGetGuidance
		queryType = models.QueryTypeSemantic
		resolved = true
		c.logger.Info("detected semantic query", nil)
	}

	if !resolved {
		intent, queryType = c.classifyWithLLM(ctx, query)
	}

	entities := c.extractor.Extract(query)
	queryFilters := c.filters.Build(entities)

	// A structured query that also carries guidance language needs both
	// retrieval legs.
	if queryType == models.QueryTypeStructured && len(entities) > 0 && containsAny(queryLower, semanticKeywords) {
		queryType = models.QueryTypeHybrid
		c.logger.Info("upgraded to hybrid query", nil)
	}

	c.logger.Info("classification complete", map[string]interface{}{
		"queryType":   string(queryType),
		"intent":      string(intent),
		"entityCount": len(entities),
	})

	return models.ParsedQuery{
		OriginalQuery:   query,
		QueryType:       queryType,
		Intent:          intent,
		Entities:        entities,
		Filters:         queryFilters,
		SemanticContext: semanticContext(queryLower),
		TopK:            c.topK,
	}
}

const classifyPromptTemplate = `Classify this student query about Australian universities.

Query: "%s"

Determine the PRIMARY intent:
1. SEARCH_COURSES - Student wants to find courses
2. FILTER_BY_CRITERIA - Student wants courses with specific criteria (price, location, field)
3. GET_PROVIDER_INFO - Student asks about a specific university
4. GET_GUIDANCE - Student asks HOW to do something (apply, get visa, etc.)
5. CALCULATE_COSTS - Student asks about total costs or expenses
6. GET_SCHOLARSHIPS - Student asks about scholarships
7. GET_INTAKES - Student asks about application deadlines

Also determine the DATA TYPE needed:
- STRUCTURED: Needs course/provider database (prices, locations, names)
- SEMANTIC: Needs guidance documents (how-to, procedures)
- HYBRID: Needs both

Respond in this exact format:
INTENT: [one of the intents above]
DATA_TYPE: [STRUCTURED, SEMANTIC, or HYBRID]
REASONING: [one sentence why]`

// classifyWithLLM asks the model for intent and data type. Any failure,
// transport or parse, falls back to SEARCH_COURSES/STRUCTURED.
func (c *Classifier) classifyWithLLM(ctx context.Context, query string) (models.Intent, models.QueryType) {
	prompt := fmt.Sprintf(classifyPromptTemplate, query)

	response, err := llms.GenerateFromSinglePrompt(ctx, c.llm, prompt,
		llms.WithTemperature(c.cfg.Temperature),
		llms.WithMaxTokens(c.cfg.MaxTokens),
	)
	if err != nil {
		c.logger.WithError(stderrors.Wrap(stderrors.ErrCodeClassificationFailed, "llm classification failed", err)).
			Warn("falling back to structured default", nil)
		return models.IntentSearchCourses, models.QueryTypeStructured
	}

	intent, queryType, ok := parseClassification(response)
	if !ok {
		c.logger.Warn("unparseable llm classification, falling back to structured default", map[string]interface{}{
			"response": response,
		})
		return models.IntentSearchCourses, models.QueryTypeStructured
	}

	c.logger.Info("llm classification", map[string]interface{}{
		"intent":    string(intent),
		"queryType": string(queryType),
	})

	return intent, queryType
}

var intentLabels = map[string]models.Intent{
	"SEARCH_COURSES":     models.IntentSearchCourses,
	"FILTER_BY_CRITERIA": models.IntentFilterByCriteria,
	"GET_PROVIDER_INFO":  models.IntentGetProviderInfo,
	"GET_GUIDANCE":       models.IntentGetGuidance,
	"CALCULATE_COSTS":    models.IntentCalculateCosts,
	"GET_SCHOLARSHIPS":   models.IntentGetScholarships,
	"GET_INTAKES":        models.IntentGetIntakes,
}

var dataTypeLabels = map[string]models.QueryType{
	"STRUCTURED": models.QueryTypeStructured,
	"SEMANTIC":   models.QueryTypeSemantic,
	"HYBRID":     models.QueryTypeHybrid,
}

// parseClassification reads the INTENT: and DATA_TYPE: lines from a model
// response. Unknown labels map to the safe defaults.
func parseClassification(content string) (models.Intent, models.QueryType, bool) {
	var intentStr, dataStr string

	for _, line := range strings.Split(strings.TrimSpace(content), "\n") {
		line = strings.TrimSpace(line)
		if v, ok := strings.CutPrefix(line, "INTENT:"); ok && intentStr == "" {
			intentStr = strings.TrimSpace(v)
		}
		if v, ok := strings.CutPrefix(line, "DATA_TYPE:"); ok && dataStr == "" {
			dataStr = strings.TrimSpace(v)
		}
	}

	if intentStr == "" || dataStr == "" {
		return "", "", false
	}

	intent, ok := intentLabels[intentStr]
	if !ok {
		intent = models.IntentSearchCourses
	}
	queryType, ok := dataTypeLabels[dataStr]
	if !ok {
		queryType = models.QueryTypeStructured
	}

	return intent, queryType, true
}

// semanticContext derives the retrieval hint for guidance searches.
func semanticContext(queryLower string) string {
	switch {
	case strings.Contains(queryLower, "visa"):
		return "student visa application"
	case strings.Contains(queryLower, "apply"), strings.Contains(queryLower, "application"):
		return "university application process"
	case strings.Contains(queryLower, "document"), strings.Contains(queryLower, "requirement"):
		return "application requirements"
	case strings.Contains(queryLower, "scholarship"):
		return "scholarship information"
	}
	return ""
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

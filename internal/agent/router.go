// internal/agent/router.go
package agent

import (
	"context"
	"fmt"
	"time"

	"studynet-advisor/internal/common/config"
	"studynet-advisor/internal/common/logger"
	"studynet-advisor/internal/common/metrics"
	"studynet-advisor/internal/models"
	"studynet-advisor/internal/query/classifier"
	"studynet-advisor/internal/retrieval/hybrid"

	stderrors "studynet-advisor/internal/common/errors"
)

const processingFallback = "I apologize, but I encountered an error processing your request. " +
	"Please try rephrasing your question or contact support if the issue persists."

// Router is the advisor's front door: it classifies the question, routes
// it to the retrieval path its query type calls for, and synthesizes the
// answer through the reasoning loop.
type Router struct {
	classifier *classifier.Classifier
	retriever  *hybrid.Retriever
	registry   *Registry
	loop       *Loop
	memory     *SessionMemory
	cfg        config.AdvisorConfig
	logger     logger.Logger
}

func NewRouter(
	cls *classifier.Classifier,
	ret *hybrid.Retriever,
	registry *Registry,
	loop *Loop,
	memory *SessionMemory,
	cfg config.AdvisorConfig,
	log logger.Logger,
) *Router {
	return &Router{
		classifier: cls,
		retriever:  ret,
		registry:   registry,
		loop:       loop,
		memory:     memory,
		cfg:        cfg,
		logger:     log.With(map[string]interface{}{"component": "router"}),
	}
}

// ProcessQuery answers one student question. It never returns an error or
// panics: every failure path degrades into an apology envelope.
func (r *Router) ProcessQuery(ctx context.Context, query, sessionID string) (resp *models.Response) {
	sessionID = EnsureSessionID(sessionID)
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			metrics.QueriesFailed.WithLabelValues(string(stderrors.ErrCodeInternal)).Inc()
			r.logger.Error("panic while processing query", map[string]interface{}{
				"session_id": sessionID,
				"panic":      fmt.Sprintf("%v", rec),
			})
			resp = &models.Response{
				Answer:    processingFallback,
				Sources:   []models.Source{},
				SessionID: sessionID,
				Metadata: map[string]interface{}{
					"error": fmt.Sprintf("%v", rec),
				},
			}
		}
	}()

	r.logger.Info("processing query", map[string]interface{}{
		"session_id": sessionID,
		"query":      truncate(query, 100),
	})

	parsed := r.classifier.Classify(ctx, query)
	history := r.memory.History(ctx, sessionID)

	var (
		answer     string
		sources    []models.Source
		confidence float64
		err        error
	)

	switch parsed.QueryType {
	case models.QueryTypeSemantic:
		answer, sources, confidence, err = r.handleSemantic(ctx, query)
	case models.QueryTypeHybrid:
		answer, sources, confidence, err = r.handleHybrid(ctx, query, parsed, history)
	default:
		// Structured and comparison questions let the loop pick its tools.
		answer, sources, confidence, err = r.handleAgent(ctx, query, history)
	}

	if err != nil {
		code := stderrors.Normalize(err).Code
		metrics.QueriesFailed.WithLabelValues(string(code)).Inc()
		r.logger.WithError(err).Error("query processing failed", map[string]interface{}{
			"session_id": sessionID,
			"query_type": string(parsed.QueryType),
		})
		return &models.Response{
			Answer:    processingFallback,
			Sources:   []models.Source{},
			SessionID: sessionID,
			Metadata: map[string]interface{}{
				"error": err.Error(),
			},
		}
	}

	r.memory.Append(ctx, sessionID, RoleHuman, query)
	r.memory.Append(ctx, sessionID, RoleAI, answer)

	metrics.QueriesProcessed.WithLabelValues(string(parsed.QueryType), string(parsed.Intent)).Inc()
	metrics.QueryDuration.WithLabelValues(string(parsed.QueryType)).Observe(time.Since(start).Seconds())

	if sources == nil {
		sources = []models.Source{}
	}

	return &models.Response{
		Answer:          answer,
		Sources:         sources,
		ConfidenceScore: confidence,
		WebSearchUsed:   false,
		SessionID:       sessionID,
		Metadata: map[string]interface{}{
			"query_type":     string(parsed.QueryType),
			"intent":         string(parsed.Intent),
			"entities_found": len(parsed.Entities),
			"session_id":     sessionID,
		},
	}
}

// handleSemantic answers guidance questions straight from the guidance
// index, no reasoning loop needed.
func (r *Router) handleSemantic(ctx context.Context, query string) (string, []models.Source, float64, error) {
	answer, err := r.registry.Invoke(ctx, "search_guidance", map[string]interface{}{
		"query": query,
	})
	if err != nil {
		return "", nil, 0, err
	}
	sources := []models.Source{{Type: "document", Content: "PDF Guidance Documents"}}
	return answer, sources, 0.85, nil
}

// handleHybrid retrieves structured and semantic context first, then asks
// the loop to synthesize an answer grounded in it.
func (r *Router) handleHybrid(ctx context.Context, query string, parsed models.ParsedQuery, history []Message) (string, []models.Source, float64, error) {
	result, err := r.retriever.Retrieve(ctx, parsed, parsed.TopK)
	if err != nil {
		return "", nil, 0, err
	}
	result = r.retriever.EnrichWithContext(ctx, result)
	result = r.retriever.Rerank(result)

	enhanced := fmt.Sprintf(`Based on the following information, answer the student's question:

%s

Student Question: %s

Please provide a comprehensive answer.`, formatHybridContext(result), query)

	loopResult, err := r.loop.Run(ctx, history, enhanced)
	if err != nil {
		return "", nil, 0, err
	}

	return loopResult.Answer, toolSources(loopResult.ToolsUsed), result.Confidence, nil
}

// handleAgent lets the loop answer from scratch with the full tool set.
func (r *Router) handleAgent(ctx context.Context, query string, history []Message) (string, []models.Source, float64, error) {
	loopResult, err := r.loop.Run(ctx, history, query)
	if err != nil {
		return "", nil, 0, err
	}
	return loopResult.Answer, toolSources(loopResult.ToolsUsed), 0.5, nil
}

func toolSources(toolsUsed []string) []models.Source {
	seen := make(map[string]bool, len(toolsUsed))
	sources := make([]models.Source, 0, len(toolsUsed))
	for _, name := range toolsUsed {
		if seen[name] {
			continue
		}
		seen[name] = true
		sources = append(sources, models.Source{Type: "tool", Content: name})
	}
	return sources
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

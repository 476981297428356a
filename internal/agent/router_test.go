// internal/agent/router_test.go
package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"studynet-advisor/internal/common/config"
	"studynet-advisor/internal/common/logger"
	"studynet-advisor/internal/models"
	"studynet-advisor/internal/query/classifier"
	"studynet-advisor/internal/query/extractor"
	"studynet-advisor/internal/query/filters"
	"studynet-advisor/internal/retrieval/hybrid"
)

func newTestRouter(t *testing.T, classifierModel, loopModel llms.Model, store *fakeStore, guidance *fakeGuidance) *Router {
	t.Helper()
	log := logger.NewNoOpLogger()

	cls := classifier.New(classifierModel, extractor.New(log), filters.NewBuilder(log),
		config.LLMConfig{Temperature: 0.1, MaxTokens: 500}, 10, log)
	retriever := hybrid.NewRetriever(store, guidance, nil, time.Minute, 3, log)
	registry := NewRegistry(store, guidance, log)
	loop := NewLoop(loopModel, registry, 5, log)
	memory := NewSessionMemory(nil, 6, time.Hour, log)

	return NewRouter(cls, retriever, registry, loop, memory,
		config.AdvisorConfig{DefaultTopK: 10, MaxReasoningSteps: 5}, log)
}

func TestProcessQuerySemanticPath(t *testing.T) {
	guidance := &fakeGuidance{hits: []models.SemanticHit{
		{Content: "Lodge your visa application online with supporting documents."},
	}}
	classifierModel := &scriptedModel{}
	loopModel := &scriptedModel{}
	router := newTestRouter(t, classifierModel, loopModel, &fakeStore{}, guidance)

	resp := router.ProcessQuery(context.Background(), "how do I apply for a student visa", "sess-1")

	require.NotNil(t, resp)
	assert.Contains(t, resp.Answer, "Based on our guidance documents:")
	assert.Equal(t, []models.Source{{Type: "document", Content: "PDF Guidance Documents"}}, resp.Sources)
	assert.Equal(t, 0.85, resp.ConfidenceScore)
	assert.False(t, resp.WebSearchUsed)
	assert.Equal(t, "sess-1", resp.SessionID)
	assert.Equal(t, "semantic", resp.Metadata["query_type"])
	assert.Equal(t, "get_guidance", resp.Metadata["intent"])

	// Guidance questions bypass the reasoning loop entirely.
	assert.Equal(t, 0, classifierModel.calls)
	assert.Equal(t, 0, loopModel.calls)
	assert.Equal(t, 5, guidance.lastK)
}

func TestProcessQueryStructuredPath(t *testing.T) {
	classifierModel := &scriptedModel{responses: []*llms.ContentResponse{
		textResponse("INTENT: SEARCH_COURSES\nDATA_TYPE: STRUCTURED\nREASONING: course search"),
	}}
	loopModel := &scriptedModel{responses: []*llms.ContentResponse{
		toolCallResponse("call_1", "search_courses", `{"field_of_study":"Information Technology","location_city":"Sydney"}`),
		textResponse("Macquarie University offers a Bachelor of IT in Sydney for $28,000 a year."),
	}}
	store := &fakeStore{courses: []map[string]interface{}{
		sampleCourse("Bachelor of IT", "Macquarie University", 28000),
	}}
	router := newTestRouter(t, classifierModel, loopModel, store, &fakeGuidance{})

	resp := router.ProcessQuery(context.Background(), "find IT courses in Sydney", "")

	require.NotNil(t, resp)
	assert.Contains(t, resp.Answer, "Bachelor of IT")
	assert.Equal(t, []models.Source{{Type: "tool", Content: "search_courses"}}, resp.Sources)
	assert.NotEmpty(t, resp.SessionID, "empty session IDs get generated")
	assert.Equal(t, "structured", resp.Metadata["query_type"])
	assert.Equal(t, resp.SessionID, resp.Metadata["session_id"])

	entitiesFound, ok := resp.Metadata["entities_found"].(int)
	require.True(t, ok)
	assert.Greater(t, entitiesFound, 0)
}

func TestProcessQueryHybridPath(t *testing.T) {
	classifierModel := &scriptedModel{responses: []*llms.ContentResponse{
		textResponse("INTENT: SEARCH_COURSES\nDATA_TYPE: STRUCTURED\nREASONING: course search"),
	}}
	loopModel := &scriptedModel{responses: []*llms.ContentResponse{
		textResponse("Here are IT courses in Sydney, plus what you need for your visa."),
	}}
	store := &fakeStore{courses: []map[string]interface{}{
		sampleCourse("Bachelor of IT", "Macquarie University", 28000),
	}}
	guidance := &fakeGuidance{hits: []models.SemanticHit{
		{Content: "Student visa holders must maintain enrolment.", Score: 0.8},
	}}
	router := newTestRouter(t, classifierModel, loopModel, store, guidance)

	resp := router.ProcessQuery(context.Background(), "IT courses in Sydney and visa requirements", "sess-h")

	require.NotNil(t, resp)
	assert.Equal(t, "hybrid", resp.Metadata["query_type"])
	assert.Equal(t, 0.9, resp.ConfidenceScore)

	// The loop receives retrieved context, not the raw question.
	require.Equal(t, 1, loopModel.calls)
	first := loopModel.requests[0]
	enhanced := first[len(first)-1].Parts[0].(llms.TextContent).Text
	assert.Contains(t, enhanced, "Based on the following information")
	assert.Contains(t, enhanced, "Bachelor of IT")
	assert.Contains(t, enhanced, "Student visa holders")
	assert.Contains(t, enhanced, "Student Question: IT courses in Sydney and visa requirements")
}

func TestProcessQueryComparisonPath(t *testing.T) {
	classifierModel := &scriptedModel{}
	loopModel := &scriptedModel{responses: []*llms.ContentResponse{
		toolCallResponse("call_1", "compare_providers", `{"provider_names":["Macquarie University","UNSW"]}`),
		textResponse("Macquarie ranks #9 nationally while UNSW ranks #4."),
	}}
	store := &fakeStore{comparison: []map[string]interface{}{
		{"provider_name": "Macquarie University", "australian_ranking": int64(9)},
		{"provider_name": "UNSW", "australian_ranking": int64(4)},
	}}
	router := newTestRouter(t, classifierModel, loopModel, store, &fakeGuidance{})

	resp := router.ProcessQuery(context.Background(), "compare Macquarie and UNSW universities", "sess-c")

	require.NotNil(t, resp)
	assert.Equal(t, "comparison", resp.Metadata["query_type"])
	assert.Equal(t, []models.Source{{Type: "tool", Content: "compare_providers"}}, resp.Sources)
	assert.Equal(t, []string{"Macquarie University", "UNSW"}, store.lastNames)
	assert.Equal(t, 0, classifierModel.calls, "comparison fast path must not call the model")
}

func TestProcessQueryDegradesToApology(t *testing.T) {
	classifierModel := &scriptedModel{}
	loopModel := &scriptedModel{err: errors.New("upstream unavailable")}
	router := newTestRouter(t, classifierModel, loopModel, &fakeStore{}, &fakeGuidance{})

	resp := router.ProcessQuery(context.Background(), "compare Macquarie and UNSW universities", "sess-e")

	require.NotNil(t, resp)
	assert.Equal(t, processingFallback, resp.Answer)
	assert.Empty(t, resp.Sources)
	assert.Equal(t, "sess-e", resp.SessionID)
	assert.Contains(t, resp.Metadata["error"], "upstream unavailable")
}

type panickingModel struct{}

func (panickingModel) GenerateContent(context.Context, []llms.MessageContent, ...llms.CallOption) (*llms.ContentResponse, error) {
	panic("nil pointer dereference in upstream client")
}

func (panickingModel) Call(context.Context, string, ...llms.CallOption) (string, error) {
	panic("nil pointer dereference in upstream client")
}

func TestProcessQueryRecoversFromPanic(t *testing.T) {
	router := newTestRouter(t, &scriptedModel{}, panickingModel{}, &fakeStore{}, &fakeGuidance{})

	resp := router.ProcessQuery(context.Background(), "compare Macquarie and UNSW universities", "sess-p")

	require.NotNil(t, resp)
	assert.Equal(t, processingFallback, resp.Answer)
	assert.Equal(t, "sess-p", resp.SessionID)
	assert.Contains(t, resp.Metadata["error"], "nil pointer dereference")
}

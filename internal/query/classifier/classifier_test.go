// internal/query/classifier/classifier_test.go
package classifier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tmc/langchaingo/llms"

	"studynet-advisor/internal/common/config"
	"studynet-advisor/internal/common/logger"
	"studynet-advisor/internal/models"
	"studynet-advisor/internal/query/extractor"
	"studynet-advisor/internal/query/filters"
)

// fakeModel returns a canned response and counts invocations.
type fakeModel struct {
	response string
	err      error
	calls    int
}

func (f *fakeModel) GenerateContent(_ context.Context, _ []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: f.response}},
	}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func newTestClassifier(model *fakeModel) *Classifier {
	log := logger.NewNoOpLogger()
	return New(model, extractor.New(log), filters.NewBuilder(log), config.LLMConfig{
		Temperature: 0.1,
		MaxTokens:   500,
	}, 10, log)
}

func TestClassifyComparisonFastPath(t *testing.T) {
	model := &fakeModel{}
	c := newTestClassifier(model)

	parsed := c.Classify(context.Background(), "compare UNSW and Monash universities")

	assert.Equal(t, models.QueryTypeComparison, parsed.QueryType)
	assert.Equal(t, models.IntentCompareProviders, parsed.Intent)
	assert.Equal(t, 0, model.calls, "fast path must not call the model")
	assert.Equal(t, 10, parsed.TopK)
}

func TestClassifySemanticFastPath(t *testing.T) {
	model := &fakeModel{}
	c := newTestClassifier(model)

	parsed := c.Classify(context.Background(), "how do I get a visa for my studies")

	assert.Equal(t, models.QueryTypeSemantic, parsed.QueryType)
	assert.Equal(t, models.IntentGetGuidance, parsed.Intent)
	assert.Equal(t, 0, model.calls)
	assert.Equal(t, "student visa application", parsed.SemanticContext)
}

func TestClassifySemanticFastPathBlockedByStructuredKeyword(t *testing.T) {
	// A question-prefixed query that mentions courses still goes to the LLM.
	model := &fakeModel{response: "INTENT: SEARCH_COURSES\nDATA_TYPE: STRUCTURED\nREASONING: asks for courses"}
	c := newTestClassifier(model)

	parsed := c.Classify(context.Background(), "what courses does UNSW offer")

	assert.Equal(t, 1, model.calls)
	// The provider entity plus the "what" keyword then upgrade the
	// structured result to hybrid.
	assert.Equal(t, models.QueryTypeHybrid, parsed.QueryType)
	assert.Equal(t, models.IntentSearchCourses, parsed.Intent)
}

func TestClassifyLLMPath(t *testing.T) {
	tests := []struct {
		name         string
		response     string
		expectIntent models.Intent
		expectType   models.QueryType
	}{
		{
			name:         "scholarships",
			response:     "INTENT: GET_SCHOLARSHIPS\nDATA_TYPE: STRUCTURED\nREASONING: scholarship lookup",
			expectIntent: models.IntentGetScholarships,
			expectType:   models.QueryTypeStructured,
		},
		{
			name:         "hybrid",
			response:     "INTENT: FILTER_BY_CRITERIA\nDATA_TYPE: HYBRID\nREASONING: both",
			expectIntent: models.IntentFilterByCriteria,
			expectType:   models.QueryTypeHybrid,
		},
		{
			name:         "unknown labels fall back per field",
			response:     "INTENT: SOMETHING_ELSE\nDATA_TYPE: GRAPH\nREASONING: none",
			expectIntent: models.IntentSearchCourses,
			expectType:   models.QueryTypeStructured,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &fakeModel{response: tt.response}
			c := newTestClassifier(model)

			parsed := c.Classify(context.Background(), "scholarships please")

			assert.Equal(t, tt.expectIntent, parsed.Intent)
			assert.Equal(t, tt.expectType, parsed.QueryType)
		})
	}
}

func TestClassifyLLMFailureDefaults(t *testing.T) {
	model := &fakeModel{err: errors.New("connection refused")}
	c := newTestClassifier(model)

	parsed := c.Classify(context.Background(), "find me something good")

	assert.Equal(t, models.IntentSearchCourses, parsed.Intent)
	assert.Equal(t, models.QueryTypeStructured, parsed.QueryType)
}

func TestClassifyLLMGarbageDefaults(t *testing.T) {
	model := &fakeModel{response: "I am not sure what you mean."}
	c := newTestClassifier(model)

	parsed := c.Classify(context.Background(), "find me something good")

	assert.Equal(t, models.IntentSearchCourses, parsed.Intent)
	assert.Equal(t, models.QueryTypeStructured, parsed.QueryType)
}

func TestClassifyHybridUpgrade(t *testing.T) {
	// Structured result plus semantic keywords plus entities upgrades to hybrid.
	model := &fakeModel{response: "INTENT: SEARCH_COURSES\nDATA_TYPE: STRUCTURED\nREASONING: courses"}
	c := newTestClassifier(model)

	parsed := c.Classify(context.Background(), "IT courses in sydney and what documents do I need")

	assert.Equal(t, models.QueryTypeHybrid, parsed.QueryType)
	assert.NotEmpty(t, parsed.Entities)
}

func TestClassifyBuildsFilters(t *testing.T) {
	model := &fakeModel{response: "INTENT: FILTER_BY_CRITERIA\nDATA_TYPE: STRUCTURED\nREASONING: criteria"}
	c := newTestClassifier(model)

	parsed := c.Classify(context.Background(), "IT courses in sydney under 30k")

	assert.Equal(t, []string{"Information Technology", "Information technologies", "Computing"}, parsed.Filters.FieldOfStudy)
	assert.Equal(t, "Sydney", parsed.Filters.LocationCity)
	assert.NotNil(t, parsed.Filters.PriceRange)
	assert.Equal(t, 30000.0, parsed.Filters.PriceRange.Max)
}

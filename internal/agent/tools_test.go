// internal/agent/tools_test.go
package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studynet-advisor/internal/common/logger"
	"studynet-advisor/internal/models"
)

// fakeStore records the last call per method and serves canned rows.
type fakeStore struct {
	courses     []map[string]interface{}
	comparison  []map[string]interface{}
	provider    map[string]interface{}
	scholars    []map[string]interface{}
	intakes     []map[string]interface{}
	budget      []map[string]interface{}
	err         error
	lastFilters models.Filters
	lastLimit   int
	lastNames   []string
}

func (f *fakeStore) SearchCourses(_ context.Context, filters models.Filters, limit int) ([]map[string]interface{}, error) {
	f.lastFilters = filters
	f.lastLimit = limit
	return f.courses, f.err
}

func (f *fakeStore) CompareProviders(_ context.Context, providerNames []string) ([]map[string]interface{}, error) {
	f.lastNames = providerNames
	return f.comparison, f.err
}

func (f *fakeStore) GetProviderDetails(_ context.Context, _ string) (map[string]interface{}, error) {
	return f.provider, f.err
}

func (f *fakeStore) GetScholarships(_ context.Context, filters models.Filters) ([]map[string]interface{}, error) {
	f.lastFilters = filters
	return f.scholars, f.err
}

func (f *fakeStore) GetUpcomingIntakes(_ context.Context, _ string, _ int, limit int) ([]map[string]interface{}, error) {
	f.lastLimit = limit
	return f.intakes, f.err
}

func (f *fakeStore) GetCoursesByBudget(_ context.Context, _, maxBudget float64, _ string, limit int) ([]map[string]interface{}, error) {
	f.lastLimit = limit
	return f.budget, f.err
}

// fakeGuidance serves canned semantic hits and records the requested k.
type fakeGuidance struct {
	hits  []models.SemanticHit
	err   error
	lastQ string
	lastK int
}

func (f *fakeGuidance) Search(_ context.Context, query string, k int) ([]models.SemanticHit, error) {
	f.lastQ = query
	f.lastK = k
	return f.hits, f.err
}

func sampleCourse(name, provider string, fee float64) map[string]interface{} {
	return map[string]interface{}{
		"course_name":      name,
		"provider_name":    provider,
		"study_level":      "Bachelor Degree",
		"total_annual_fee": fee,
		"address_city":     "Sydney",
		"address_state":    "NSW",
	}
}

func newTestRegistry(store *fakeStore, guidance *fakeGuidance) *Registry {
	return NewRegistry(store, guidance, logger.NewNoOpLogger())
}

func TestRegistryHasAllTools(t *testing.T) {
	r := newTestRegistry(&fakeStore{}, &fakeGuidance{})

	names := make([]string, 0, len(r.Tools()))
	for _, tool := range r.Tools() {
		names = append(names, tool.Name)
	}

	assert.Equal(t, []string{
		"search_courses",
		"compare_providers",
		"get_provider_details",
		"get_scholarships",
		"get_intakes",
		"get_budget_options",
		"search_guidance",
		"search_provider_info",
	}, names)

	for _, tool := range r.Tools() {
		assert.NotEmpty(t, tool.Description, tool.Name)
		assert.NotNil(t, tool.Parameters, tool.Name)
	}
}

func TestInvokeUnknownTool(t *testing.T) {
	r := newTestRegistry(&fakeStore{}, &fakeGuidance{})

	_, err := r.Invoke(context.Background(), "book_flight", map[string]interface{}{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "UNKNOWN_TOOL")
}

func TestInvokeRejectsInvalidInput(t *testing.T) {
	r := newTestRegistry(&fakeStore{}, &fakeGuidance{})

	tests := []struct {
		name  string
		tool  string
		input map[string]interface{}
	}{
		{"missing required provider_names", "compare_providers", map[string]interface{}{}},
		{"too few providers", "compare_providers", map[string]interface{}{
			"provider_names": []interface{}{"UNSW"},
		}},
		{"missing required query", "search_guidance", map[string]interface{}{"k": float64(3)}},
		{"missing required max_budget", "get_budget_options", map[string]interface{}{}},
		{"unexpected property", "search_courses", map[string]interface{}{
			"favourite_colour": "blue",
		}},
		{"wrong type", "search_courses", map[string]interface{}{
			"max_fee": "twenty thousand",
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := r.Invoke(context.Background(), tc.tool, tc.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "INVALID_TOOL_INPUT")
		})
	}
}

func TestSearchCoursesTool(t *testing.T) {
	store := &fakeStore{courses: []map[string]interface{}{
		sampleCourse("Bachelor of IT", "Macquarie University", 28000),
	}}
	r := newTestRegistry(store, &fakeGuidance{})

	out, err := r.Invoke(context.Background(), "search_courses", map[string]interface{}{
		"field_of_study": "Information Technology",
		"max_fee":        float64(30000),
		"location_city":  "Sydney",
	})

	require.NoError(t, err)
	assert.Contains(t, out, "Found 1 courses:")
	assert.Contains(t, out, "Bachelor of IT")
	assert.Contains(t, out, "Provider: Macquarie University")
	assert.Contains(t, out, "Annual Fee: $28,000.00")
	assert.Contains(t, out, "Location: Sydney, NSW")

	assert.Equal(t, []string{"Information Technology"}, store.lastFilters.FieldOfStudy)
	require.NotNil(t, store.lastFilters.PriceRange)
	assert.Equal(t, float64(0), store.lastFilters.PriceRange.Min)
	assert.Equal(t, float64(30000), store.lastFilters.PriceRange.Max)
	assert.Equal(t, "Sydney", store.lastFilters.LocationCity)
	assert.Equal(t, 10, store.lastLimit)
}

func TestSearchCoursesToolMinFeeOnly(t *testing.T) {
	store := &fakeStore{}
	r := newTestRegistry(store, &fakeGuidance{})

	out, err := r.Invoke(context.Background(), "search_courses", map[string]interface{}{
		"min_fee": float64(15000),
	})

	require.NoError(t, err)
	assert.Equal(t, "No courses found matching your criteria. Try broadening your search filters.", out)
	require.NotNil(t, store.lastFilters.PriceRange)
	assert.Equal(t, float64(15000), store.lastFilters.PriceRange.Min)
	assert.Equal(t, float64(models.PriceCeiling), store.lastFilters.PriceRange.Max)
}

func TestSearchCoursesToolStoreError(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	r := newTestRegistry(store, &fakeGuidance{})

	out, err := r.Invoke(context.Background(), "search_courses", map[string]interface{}{})

	// Store failures come back as model-readable text, not errors.
	require.NoError(t, err)
	assert.Contains(t, out, "Error searching courses:")
	assert.Contains(t, out, "connection refused")
}

func TestCompareProvidersTool(t *testing.T) {
	store := &fakeStore{comparison: []map[string]interface{}{
		{
			"provider_name":      "Macquarie University",
			"provider_type":      "University",
			"australian_ranking": int64(9),
			"total_courses":      int64(120),
			"campus_count":       int64(2),
			"min_fee":            float64(24000),
			"max_fee":            float64(42000),
		},
		{
			"provider_name": "UNSW",
			"provider_type": "University",
			"total_courses": int64(300),
			"campus_count":  int64(3),
		},
	}}
	r := newTestRegistry(store, &fakeGuidance{})

	out, err := r.Invoke(context.Background(), "compare_providers", map[string]interface{}{
		"provider_names": []interface{}{"Macquarie University", "UNSW"},
	})

	require.NoError(t, err)
	assert.Contains(t, out, "Comparison of 2 universities:")
	assert.Contains(t, out, "Macquarie University")
	assert.Contains(t, out, "Australian Ranking: #9")
	assert.Contains(t, out, "Fee Range: $24,000.00 - $42,000.00")
	assert.Equal(t, []string{"Macquarie University", "UNSW"}, store.lastNames)
}

func TestCompareProvidersToolNoData(t *testing.T) {
	r := newTestRegistry(&fakeStore{}, &fakeGuidance{})

	out, err := r.Invoke(context.Background(), "compare_providers", map[string]interface{}{
		"provider_names": []interface{}{"Nowhere University", "Nonexistent College"},
	})

	require.NoError(t, err)
	assert.Equal(t, "Could not find data for providers: Nowhere University, Nonexistent College", out)
}

func TestProviderDetailsTool(t *testing.T) {
	store := &fakeStore{provider: map[string]interface{}{
		"provider_name":      "Macquarie University",
		"company_name":       "Macquarie University Ltd",
		"provider_type":      "University",
		"public_private":     "Public",
		"australian_ranking": int64(9),
		"global_ranking":     int64(195),
		"total_courses":      int64(120),
		"campus_count":       int64(2),
		"cities":             "Sydney",
		"scholarship_url":    "https://mq.edu.au/scholarships",
		"website_url":        "https://mq.edu.au",
	}}
	r := newTestRegistry(store, &fakeGuidance{})

	out, err := r.Invoke(context.Background(), "get_provider_details", map[string]interface{}{
		"provider_name": "Macquarie University",
	})

	require.NoError(t, err)
	assert.Contains(t, out, "Full Name: Macquarie University Ltd")
	assert.Contains(t, out, "  - Australian Ranking: #9")
	assert.Contains(t, out, "  - Global Ranking: #195")
	assert.Contains(t, out, "Scholarships: Available")
	assert.Contains(t, out, "Website: https://mq.edu.au")
}

func TestProviderDetailsToolNotFound(t *testing.T) {
	r := newTestRegistry(&fakeStore{}, &fakeGuidance{})

	out, err := r.Invoke(context.Background(), "get_provider_details", map[string]interface{}{
		"provider_name": "Atlantis University",
	})

	require.NoError(t, err)
	assert.Equal(t, "Could not find information for provider: Atlantis University", out)
}

func TestScholarshipsTool(t *testing.T) {
	store := &fakeStore{scholars: []map[string]interface{}{
		{
			"provider_name":            "UNSW",
			"australian_ranking":       int64(4),
			"courses_with_scholarship": int64(45),
			"scholarship_url":          "https://unsw.edu.au/scholarships",
		},
	}}
	r := newTestRegistry(store, &fakeGuidance{})

	out, err := r.Invoke(context.Background(), "get_scholarships", map[string]interface{}{
		"field_of_study": "Engineering",
	})

	require.NoError(t, err)
	assert.Contains(t, out, "Found 1 universities offering scholarships:")
	assert.Contains(t, out, "Courses with scholarships: 45")
	assert.Equal(t, []string{"Engineering"}, store.lastFilters.FieldOfStudy)
}

func TestScholarshipsToolEmpty(t *testing.T) {
	r := newTestRegistry(&fakeStore{}, &fakeGuidance{})

	out, err := r.Invoke(context.Background(), "get_scholarships", map[string]interface{}{
		"field_of_study": "Astrology",
	})

	require.NoError(t, err)
	assert.Equal(t, "No scholarships found in Astrology.", out)
}

func TestIntakesTool(t *testing.T) {
	store := &fakeStore{intakes: []map[string]interface{}{
		{
			"provider_name":        "UNSW",
			"intake_date":          "2026-02-16",
			"application_deadline": "2025-11-30",
		},
	}}
	r := newTestRegistry(store, &fakeGuidance{})

	out, err := r.Invoke(context.Background(), "get_intakes", map[string]interface{}{
		"provider_name": "UNSW",
		"year":          float64(2026),
	})

	require.NoError(t, err)
	assert.Contains(t, out, "Found 1 upcoming intakes:")
	assert.Contains(t, out, "Intake Date: 2026-02-16")
	assert.Contains(t, out, "Application Deadline: 2025-11-30")
	assert.Equal(t, 20, store.lastLimit)
}

func TestBudgetOptionsTool(t *testing.T) {
	store := &fakeStore{budget: []map[string]interface{}{
		sampleCourse("Diploma of IT", "TAFE NSW", 14500),
	}}
	r := newTestRegistry(store, &fakeGuidance{})

	out, err := r.Invoke(context.Background(), "get_budget_options", map[string]interface{}{
		"max_budget": float64(20000),
	})

	require.NoError(t, err)
	assert.Contains(t, out, "Found 1 courses under $20,000.00:")
	assert.Contains(t, out, "Diploma of IT")
	assert.Contains(t, out, "Annual Fee: $14,500.00")
}

func TestBudgetOptionsToolEmptyWithField(t *testing.T) {
	r := newTestRegistry(&fakeStore{}, &fakeGuidance{})

	out, err := r.Invoke(context.Background(), "get_budget_options", map[string]interface{}{
		"max_budget":     float64(5000),
		"field_of_study": "Medicine",
	})

	require.NoError(t, err)
	assert.Equal(t, "No courses found under $5,000.00 in Medicine.", out)
}

func TestSearchGuidanceTool(t *testing.T) {
	guidance := &fakeGuidance{hits: []models.SemanticHit{
		{
			Content:  "Apply for a subclass 500 student visa online.",
			Metadata: map[string]interface{}{"source": "docs/visa_guide.pdf"},
			Score:    0.91,
		},
	}}
	r := newTestRegistry(&fakeStore{}, guidance)

	out, err := r.Invoke(context.Background(), "search_guidance", map[string]interface{}{
		"query": "how do I apply for a student visa",
	})

	require.NoError(t, err)
	assert.Contains(t, out, "Based on our guidance documents:")
	assert.Contains(t, out, "[From visa_guide.pdf]")
	assert.Contains(t, out, "subclass 500")
	assert.Contains(t, out, "📌 Note: Always verify this information")
	assert.Equal(t, 5, guidance.lastK)
}

func TestSearchGuidanceToolNoHits(t *testing.T) {
	r := newTestRegistry(&fakeStore{}, &fakeGuidance{})

	out, err := r.Invoke(context.Background(), "search_guidance", map[string]interface{}{
		"query": "obscure topic",
	})

	require.NoError(t, err)
	assert.Contains(t, out, "I couldn't find specific guidance on that topic")
}

func TestSearchProviderInfoToolPostFilter(t *testing.T) {
	guidance := &fakeGuidance{hits: []models.SemanticHit{
		{Content: "UNSW research hub", Metadata: map[string]interface{}{"provider_name": "UNSW"}},
		{Content: "Monash labs", Metadata: map[string]interface{}{"provider_name": "Monash University"}},
		{Content: "UNSW student life", Metadata: map[string]interface{}{"provider_name": "UNSW"}},
	}}
	r := newTestRegistry(&fakeStore{}, guidance)

	out, err := r.Invoke(context.Background(), "search_provider_info", map[string]interface{}{
		"query":         "research facilities",
		"provider_name": "UNSW",
		"k":             float64(2),
	})

	require.NoError(t, err)
	// Over-fetches to compensate for post-filtering.
	assert.Equal(t, 4, guidance.lastK)
	assert.Contains(t, out, "Information about UNSW:")
	assert.Contains(t, out, "UNSW research hub")
	assert.Contains(t, out, "UNSW student life")
	assert.NotContains(t, out, "Monash labs")
}

func TestSearchProviderInfoToolNoMatchAfterFilter(t *testing.T) {
	guidance := &fakeGuidance{hits: []models.SemanticHit{
		{Content: "Monash labs", Metadata: map[string]interface{}{"provider_name": "Monash University"}},
	}}
	r := newTestRegistry(&fakeStore{}, guidance)

	out, err := r.Invoke(context.Background(), "search_provider_info", map[string]interface{}{
		"query":         "campus culture",
		"provider_name": "UNSW",
	})

	require.NoError(t, err)
	assert.Contains(t, out, "I couldn't find specific information about UNSW")
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{999, "999.00"},
		{1000, "1,000.00"},
		{28000, "28,000.00"},
		{1234567.5, "1,234,567.50"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, formatMoney(tc.in))
	}
}

func TestFormatHybridContextLimits(t *testing.T) {
	result := models.HybridResult{}
	for i := 0; i < 8; i++ {
		result.StructuredData = append(result.StructuredData,
			sampleCourse("Course", "Provider", 20000))
	}
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'a'
	}
	for i := 0; i < 5; i++ {
		result.SemanticData = append(result.SemanticData,
			models.SemanticHit{Content: string(long)})
	}

	out := formatHybridContext(result)

	assert.Contains(t, out, "## Course Information:")
	assert.Contains(t, out, "## Additional Context:")
	assert.Contains(t, out, "5. **Course**")
	assert.NotContains(t, out, "6. **Course**")
	assert.Contains(t, out, "3. "+string(long[:200])+"...")
	assert.NotContains(t, out, "4. "+string(long[:200]))
}

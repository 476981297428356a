// internal/agent/tools.go
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"studynet-advisor/internal/common/logger"
	"studynet-advisor/internal/common/metrics"
	"studynet-advisor/internal/common/validation"
	"studynet-advisor/internal/models"

	stderrors "studynet-advisor/internal/common/errors"
)

// StructuredStore is the slice of the course store the tools need.
type StructuredStore interface {
	SearchCourses(ctx context.Context, f models.Filters, limit int) ([]map[string]interface{}, error)
	CompareProviders(ctx context.Context, providerNames []string) ([]map[string]interface{}, error)
	GetProviderDetails(ctx context.Context, providerName string) (map[string]interface{}, error)
	GetScholarships(ctx context.Context, f models.Filters) ([]map[string]interface{}, error)
	GetUpcomingIntakes(ctx context.Context, providerName string, year int, limit int) ([]map[string]interface{}, error)
	GetCoursesByBudget(ctx context.Context, minBudget, maxBudget float64, fieldOfStudy string, limit int) ([]map[string]interface{}, error)
}

// GuidanceSearcher runs semantic search over the guidance document index.
type GuidanceSearcher interface {
	Search(ctx context.Context, query string, k int) ([]models.SemanticHit, error)
}

// Tool is a named, schema-validated capability exposed to the reasoning
// loop. Run returns human-readable text for the model; store failures are
// reported inside that text so the model can recover, a non-nil error is
// reserved for invalid input.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
	schema      *gojsonschema.Schema
	Run         func(ctx context.Context, input map[string]interface{}) (string, error)
}

// Registry holds the advisor's tool set in a stable order.
type Registry struct {
	tools  []*Tool
	byName map[string]*Tool
	logger logger.Logger
}

const defaultGuidanceK = 5

// NewRegistry wires the eight advisor tools against the given store and
// guidance searcher.
func NewRegistry(store StructuredStore, guidance GuidanceSearcher, log logger.Logger) *Registry {
	r := &Registry{
		byName: make(map[string]*Tool),
		logger: log.With(map[string]interface{}{"component": "tool_registry"}),
	}

	r.register(searchCoursesTool(store))
	r.register(compareProvidersTool(store))
	r.register(providerDetailsTool(store))
	r.register(scholarshipsTool(store))
	r.register(intakesTool(store))
	r.register(budgetOptionsTool(store))
	r.register(searchGuidanceTool(guidance))
	r.register(searchProviderInfoTool(guidance))

	return r
}

func (r *Registry) register(t *Tool) {
	r.tools = append(r.tools, t)
	r.byName[t.Name] = t
}

// Tools returns the registered tools in registration order.
func (r *Registry) Tools() []*Tool {
	return r.tools
}

// Invoke validates the input against the tool's schema and runs it.
func (r *Registry) Invoke(ctx context.Context, name string, input map[string]interface{}) (string, error) {
	t, ok := r.byName[name]
	if !ok {
		return "", stderrors.Wrap(stderrors.ErrCodeUnknownTool, fmt.Sprintf("no tool registered as %q", name), nil)
	}

	if err := validation.ValidateInput(t.schema, input); err != nil {
		r.logger.Warn("tool input rejected", map[string]interface{}{
			"tool":  name,
			"error": err.Error(),
		})
		return "", err
	}

	metrics.ToolInvocations.WithLabelValues(name).Inc()
	return t.Run(ctx, input)
}

func newTool(name, description, rawSchema string, run func(ctx context.Context, input map[string]interface{}) (string, error)) *Tool {
	var params map[string]interface{}
	if err := json.Unmarshal([]byte(rawSchema), &params); err != nil {
		panic(fmt.Sprintf("tool %s: bad schema: %v", name, err))
	}
	return &Tool{
		Name:        name,
		Description: description,
		Parameters:  params,
		schema:      validation.MustCompileSchema(rawSchema),
		Run:         run,
	}
}

// Input accessors. Decoded JSON arguments carry numbers as float64.

func inputString(input map[string]interface{}, key string) string {
	if v, ok := input[key].(string); ok {
		return v
	}
	return ""
}

func inputFloat(input map[string]interface{}, key string) (float64, bool) {
	if v, ok := input[key].(float64); ok {
		return v, true
	}
	return 0, false
}

func inputInt(input map[string]interface{}, key string, fallback int) int {
	if v, ok := input[key].(float64); ok {
		return int(v)
	}
	return fallback
}

func inputBool(input map[string]interface{}, key string) (bool, bool) {
	if v, ok := input[key].(bool); ok {
		return v, true
	}
	return false, false
}

func inputStringList(input map[string]interface{}, key string) []string {
	raw, ok := input[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func searchCoursesTool(store StructuredStore) *Tool {
	const schema = `{
		"type": "object",
		"properties": {
			"field_of_study": {"type": "string", "description": "Field of study, e.g. Information Technology"},
			"min_fee": {"type": "number", "description": "Minimum annual fee in AUD"},
			"max_fee": {"type": "number", "description": "Maximum annual fee in AUD"},
			"location_city": {"type": "string", "description": "Campus city, e.g. Sydney"},
			"location_state": {"type": "string", "description": "Campus state code, e.g. NSW"},
			"provider_name": {"type": "string", "description": "University name to narrow the search"},
			"study_level": {"type": "string", "description": "Study level, e.g. Bachelor Degree"},
			"has_scholarship": {"type": "boolean", "description": "Only courses with scholarships"},
			"limit": {"type": "integer", "minimum": 1, "description": "Maximum results, default 10"}
		},
		"additionalProperties": false
	}`

	return newTool(
		"search_courses",
		"Search for courses with filters for field of study, fee range, location, provider, study level and scholarship availability. Use for queries like 'Show me IT courses under $20k in Sydney'.",
		schema,
		func(ctx context.Context, input map[string]interface{}) (string, error) {
			var f models.Filters
			if field := inputString(input, "field_of_study"); field != "" {
				f.FieldOfStudy = []string{field}
			}
			minFee, hasMin := inputFloat(input, "min_fee")
			maxFee, hasMax := inputFloat(input, "max_fee")
			if hasMin || hasMax {
				pr := &models.PriceRange{Min: minFee, Max: models.PriceCeiling}
				if hasMax {
					pr.Max = maxFee
				}
				f.PriceRange = pr
			}
			f.LocationCity = inputString(input, "location_city")
			f.LocationState = inputString(input, "location_state")
			f.ProviderName = inputString(input, "provider_name")
			f.StudyLevel = inputString(input, "study_level")
			if v, ok := inputBool(input, "has_scholarship"); ok {
				f.HasScholarship = v
			}

			results, err := store.SearchCourses(ctx, f, inputInt(input, "limit", 10))
			if err != nil {
				return fmt.Sprintf("Error searching courses: %v", err), nil
			}
			if len(results) == 0 {
				return "No courses found matching your criteria. Try broadening your search filters.", nil
			}
			return formatCourseList(results), nil
		},
	)
}

func compareProvidersTool(store StructuredStore) *Tool {
	const schema = `{
		"type": "object",
		"properties": {
			"provider_names": {
				"type": "array",
				"items": {"type": "string"},
				"minItems": 2,
				"description": "Two to four university names to compare"
			}
		},
		"required": ["provider_names"],
		"additionalProperties": false
	}`

	return newTool(
		"compare_providers",
		"Compare 2-4 universities side-by-side on rankings, course offerings, locations and fee ranges. Use for queries like 'Compare Macquarie and UNSW'.",
		schema,
		func(ctx context.Context, input map[string]interface{}) (string, error) {
			names := inputStringList(input, "provider_names")

			results, err := store.CompareProviders(ctx, names)
			if err != nil {
				return fmt.Sprintf("Error comparing providers: %v", err), nil
			}
			if len(results) == 0 {
				return fmt.Sprintf("Could not find data for providers: %s", strings.Join(names, ", ")), nil
			}
			return formatProviderComparison(results), nil
		},
	)
}

func providerDetailsTool(store StructuredStore) *Tool {
	const schema = `{
		"type": "object",
		"properties": {
			"provider_name": {"type": "string", "description": "University name, e.g. Macquarie University"}
		},
		"required": ["provider_name"],
		"additionalProperties": false
	}`

	return newTool(
		"get_provider_details",
		"Get comprehensive details about a specific university: rankings, course counts, campuses, fee ranges, scholarships and recognized study areas. Use for queries like 'Tell me about UNSW'.",
		schema,
		func(ctx context.Context, input map[string]interface{}) (string, error) {
			name := inputString(input, "provider_name")

			provider, err := store.GetProviderDetails(ctx, name)
			if err != nil {
				return fmt.Sprintf("Error getting provider details: %v", err), nil
			}
			if provider == nil {
				return fmt.Sprintf("Could not find information for provider: %s", name), nil
			}
			return formatProviderDetails(provider), nil
		},
	)
}

func scholarshipsTool(store StructuredStore) *Tool {
	const schema = `{
		"type": "object",
		"properties": {
			"field_of_study": {"type": "string", "description": "Optional field of study to narrow the search"}
		},
		"additionalProperties": false
	}`

	return newTool(
		"get_scholarships",
		"Find universities that offer scholarships, optionally filtered by field of study. Use for queries like 'Which universities offer scholarships?'.",
		schema,
		func(ctx context.Context, input map[string]interface{}) (string, error) {
			var f models.Filters
			field := inputString(input, "field_of_study")
			if field != "" {
				f.FieldOfStudy = []string{field}
			}

			results, err := store.GetScholarships(ctx, f)
			if err != nil {
				return fmt.Sprintf("Error finding scholarships: %v", err), nil
			}
			if len(results) == 0 {
				if field != "" {
					return fmt.Sprintf("No scholarships found in %s.", field), nil
				}
				return "No scholarships found.", nil
			}
			return formatScholarshipList(results), nil
		},
	)
}

func intakesTool(store StructuredStore) *Tool {
	const schema = `{
		"type": "object",
		"properties": {
			"provider_name": {"type": "string", "description": "Optional university name"},
			"year": {"type": "integer", "description": "Optional intake year, e.g. 2026"},
			"limit": {"type": "integer", "minimum": 1, "description": "Maximum results, default 20"}
		},
		"additionalProperties": false
	}`

	return newTool(
		"get_intakes",
		"Get upcoming course intake dates and application deadlines, optionally filtered by provider or year. Use for queries like 'When can I apply?'.",
		schema,
		func(ctx context.Context, input map[string]interface{}) (string, error) {
			results, err := store.GetUpcomingIntakes(ctx,
				inputString(input, "provider_name"),
				inputInt(input, "year", 0),
				inputInt(input, "limit", 20))
			if err != nil {
				return fmt.Sprintf("Error getting intakes: %v", err), nil
			}
			if len(results) == 0 {
				return "No upcoming intakes found matching your criteria.", nil
			}
			return formatIntakeList(results), nil
		},
	)
}

func budgetOptionsTool(store StructuredStore) *Tool {
	const schema = `{
		"type": "object",
		"properties": {
			"max_budget": {"type": "number", "minimum": 0, "description": "Maximum annual budget in AUD"},
			"field_of_study": {"type": "string", "description": "Optional field of study"},
			"limit": {"type": "integer", "minimum": 1, "description": "Maximum results, default 10"}
		},
		"required": ["max_budget"],
		"additionalProperties": false
	}`

	return newTool(
		"get_budget_options",
		"Find courses within a specific budget, cheapest first, optionally filtered by field of study. Use for queries like 'Courses under $25,000'.",
		schema,
		func(ctx context.Context, input map[string]interface{}) (string, error) {
			maxBudget, _ := inputFloat(input, "max_budget")

			results, err := store.GetCoursesByBudget(ctx, 0, maxBudget,
				inputString(input, "field_of_study"),
				inputInt(input, "limit", 10))
			if err != nil {
				return fmt.Sprintf("Error finding budget options: %v", err), nil
			}
			if len(results) == 0 {
				if field := inputString(input, "field_of_study"); field != "" {
					return fmt.Sprintf("No courses found under $%s in %s.", formatMoney(maxBudget), field), nil
				}
				return fmt.Sprintf("No courses found under $%s.", formatMoney(maxBudget)), nil
			}
			return formatBudgetList(results, maxBudget), nil
		},
	)
}

func searchGuidanceTool(guidance GuidanceSearcher) *Tool {
	const schema = `{
		"type": "object",
		"properties": {
			"query": {"type": "string", "minLength": 1, "description": "The guidance question, e.g. 'How do I apply for a student visa?'"},
			"k": {"type": "integer", "minimum": 1, "description": "Number of documents to retrieve, default 5"}
		},
		"required": ["query"],
		"additionalProperties": false
	}`

	return newTool(
		"search_guidance",
		"Search guidance documents for procedural questions: visa applications, admission requirements, required documents, working while studying, health insurance. Do not use for course search or university comparison.",
		schema,
		func(ctx context.Context, input map[string]interface{}) (string, error) {
			hits, err := guidance.Search(ctx, inputString(input, "query"), inputInt(input, "k", defaultGuidanceK))
			if err != nil {
				return fmt.Sprintf("I encountered an error while searching guidance documents: %v\nPlease try rephrasing your question or contact support.", err), nil
			}
			if len(hits) == 0 {
				return "I couldn't find specific guidance on that topic in our knowledge base. " +
					"For the most accurate information, please visit the official Australian " +
					"government immigration website or contact the university directly.", nil
			}
			return formatGuidanceHits(hits), nil
		},
	)
}

func searchProviderInfoTool(guidance GuidanceSearcher) *Tool {
	const schema = `{
		"type": "object",
		"properties": {
			"query": {"type": "string", "minLength": 1, "description": "Question about university facilities, culture or research areas"},
			"provider_name": {"type": "string", "description": "Optional provider name to filter results"},
			"k": {"type": "integer", "minimum": 1, "description": "Number of documents to retrieve, default 5"}
		},
		"required": ["query"],
		"additionalProperties": false
	}`

	return newTool(
		"search_provider_info",
		"Search documents for qualitative university information: campus facilities, research strengths, student life, support services. Do not use for course search, rankings or application procedures.",
		schema,
		func(ctx context.Context, input map[string]interface{}) (string, error) {
			providerName := inputString(input, "provider_name")
			k := inputInt(input, "k", defaultGuidanceK)

			// Over-fetch when post-filtering by provider, the index has no
			// metadata filter.
			fetchK := k
			if providerName != "" {
				fetchK = k * 2
			}

			hits, err := guidance.Search(ctx, inputString(input, "query"), fetchK)
			if err != nil {
				return fmt.Sprintf("I encountered an error while searching provider information: %v\nPlease try rephrasing your question or contact support.", err), nil
			}

			if providerName != "" {
				filtered := hits[:0:0]
				for _, hit := range hits {
					if name, ok := hit.Metadata["provider_name"].(string); ok && name == providerName {
						filtered = append(filtered, hit)
					}
				}
				if len(filtered) > k {
					filtered = filtered[:k]
				}
				hits = filtered
			}

			if len(hits) == 0 {
				if providerName != "" {
					return fmt.Sprintf("I couldn't find specific information about %s in our knowledge base. "+
						"For detailed information about the university, please visit their official website "+
						"or use get_provider_details for statistical information.", providerName), nil
				}
				return "I couldn't find specific information in our knowledge base. " +
					"For detailed information about the university, please visit their official website " +
					"or use get_provider_details for statistical information.", nil
			}
			return formatProviderInfoHits(hits, providerName), nil
		},
	)
}

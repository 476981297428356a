// internal/models/query.go
package models

// QueryType is the data-access strategy a query needs.
type QueryType string

const (
	QueryTypeStructured QueryType = "structured"
	QueryTypeSemantic   QueryType = "semantic"
	QueryTypeHybrid     QueryType = "hybrid"
	QueryTypeComparison QueryType = "comparison"
)

// Intent is the user's primary goal category.
type Intent string

const (
	IntentSearchCourses    Intent = "search_courses"
	IntentFilterByCriteria Intent = "filter_by_criteria"
	IntentCompareProviders Intent = "compare_providers"
	IntentGetProviderInfo  Intent = "get_provider_info"
	IntentGetGuidance      Intent = "get_guidance"
	IntentCalculateCosts   Intent = "calculate_costs"
	IntentGetScholarships  Intent = "get_scholarships"
	IntentGetIntakes       Intent = "get_intakes"
)

// Entity types produced by the extractor.
const (
	EntityFieldOfStudy   = "field_of_study"
	EntityLocation       = "location"
	EntityPriceRange     = "price_range"
	EntityProviderName   = "provider_name"
	EntityStudyLevel     = "study_level"
	EntityHasScholarship = "has_scholarship"
	EntityHasInternship  = "has_internship"
	EntityRanking        = "ranking"
)

// Entity is a normalized fact extracted from query text.
// Normalized's shape depends on Type: []string for field_of_study,
// Location for location, PriceRange for price_range, string for
// provider_name/study_level, bool for the flags, int for ranking.
type Entity struct {
	Type       string      `json:"type"`
	Value      string      `json:"value"`
	Normalized interface{} `json:"normalizedValue"`
	Confidence float64     `json:"confidence"`
}

// Location is a partial city/state pair. Either field may be empty.
type Location struct {
	City  string `json:"city,omitempty"`
	State string `json:"state,omitempty"`
}

// PriceRange is a normalized fee constraint in AUD.
// Max 999999 is the "no upper bound" sentinel for "over $X" phrasing.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// PriceCeiling is the sentinel max for open-ended "over $X" ranges.
const PriceCeiling = 999999

// Filters is the canonical filter map built from entities and consumed by
// the structured query builder and hybrid retriever. Read-only after
// construction.
type Filters struct {
	FieldOfStudy   []string    `json:"field_of_study,omitempty"`
	PriceRange     *PriceRange `json:"price_range,omitempty"`
	LocationCity   string      `json:"location_city,omitempty"`
	LocationState  string      `json:"location_state,omitempty"`
	ProviderName   string      `json:"provider_name,omitempty"`
	StudyLevel     string      `json:"study_level,omitempty"`
	HasScholarship bool        `json:"has_scholarship,omitempty"`
	HasInternship  bool        `json:"has_internship,omitempty"`
	MaxRanking     int         `json:"max_ranking,omitempty"`
}

// IsEmpty reports whether no filter is set.
func (f Filters) IsEmpty() bool {
	return len(f.FieldOfStudy) == 0 &&
		f.PriceRange == nil &&
		f.LocationCity == "" &&
		f.LocationState == "" &&
		f.ProviderName == "" &&
		f.StudyLevel == "" &&
		!f.HasScholarship &&
		!f.HasInternship &&
		f.MaxRanking == 0
}

// ParsedQuery is the immutable result of classifying one input string.
type ParsedQuery struct {
	OriginalQuery   string    `json:"originalQuery"`
	QueryType       QueryType `json:"queryType"`
	Intent          Intent    `json:"intent"`
	Entities        []Entity  `json:"entities"`
	Filters         Filters   `json:"filters"`
	SemanticContext string    `json:"semanticContext,omitempty"`
	TopK            int       `json:"topK"`
}

// ResultStatus tags how a retrieval completed.
type ResultStatus string

const (
	ResultStatusOK       ResultStatus = "ok"
	ResultStatusEmpty    ResultStatus = "empty"
	ResultStatusDegraded ResultStatus = "degraded"
)

// SemanticHit is one vector-search match.
type SemanticHit struct {
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata"`
	Score    float64                `json:"score"`
}

// HybridResult is the retrieval output for one ParsedQuery.
type HybridResult struct {
	ResultType     string                   `json:"resultType"` // course | provider | guidance | mixed
	StructuredData []map[string]interface{} `json:"structuredData,omitempty"`
	SemanticData   []SemanticHit            `json:"semanticData,omitempty"`
	Source         string                   `json:"source"` // structured | semantic | hybrid
	Confidence     float64                  `json:"confidence"`
	Status         ResultStatus             `json:"status"`
}

// Source is one piece of evidence cited in a response.
type Source struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Response is the envelope returned to the web layer for every query,
// including all degraded paths.
type Response struct {
	Answer          string                 `json:"answer"`
	Sources         []Source               `json:"sources"`
	ConfidenceScore float64                `json:"confidence_score"`
	WebSearchUsed   bool                   `json:"web_search_used"`
	SessionID       string                 `json:"session_id"`
	Metadata        map[string]interface{} `json:"metadata"`
}

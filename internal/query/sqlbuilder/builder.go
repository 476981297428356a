// internal/query/sqlbuilder/builder.go
package sqlbuilder

import (
	"fmt"
	"strings"

	"studynet-advisor/internal/common/logger"
	"studynet-advisor/internal/models"
)

// Builder translates a ParsedQuery into one parameterized SQL statement.
// All user-derived values travel as bind parameters; the SQL text only ever
// contains $N placeholders.
type Builder struct {
	logger logger.Logger
}

func New(log logger.Logger) *Builder {
	return &Builder{
		logger: log.With(map[string]interface{}{"component": "sql-builder"}),
	}
}

// args accumulates bind parameters and hands out matching placeholders.
type args struct {
	params []interface{}
}

// next appends a value and returns its placeholder.
func (a *args) next(v interface{}) string {
	a.params = append(a.params, v)
	return fmt.Sprintf("$%d", len(a.params))
}

// nextList appends every value and returns a comma-joined placeholder list.
func (a *args) nextList(values []string) string {
	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = a.next(v)
	}
	return strings.Join(placeholders, ",")
}

// Build dispatches on intent. Comparison without a provider filter falls
// back to a plain course search, the same degradation the router applies
// when fewer than two providers are named.
func (b *Builder) Build(parsed models.ParsedQuery) (string, []interface{}) {
	b.logger.Info("building sql", map[string]interface{}{
		"intent": string(parsed.Intent),
	})

	switch parsed.Intent {
	case models.IntentSearchCourses, models.IntentFilterByCriteria:
		return b.CourseSearch(parsed.Filters, parsed.TopK)
	case models.IntentCompareProviders:
		if parsed.Filters.ProviderName != "" {
			return b.ProviderComparison([]string{parsed.Filters.ProviderName})
		}
		return b.CourseSearch(parsed.Filters, parsed.TopK)
	case models.IntentGetProviderInfo:
		return b.ProviderDetails(parsed.Filters.ProviderName)
	case models.IntentGetScholarships:
		return b.ScholarshipSearch(parsed.Filters)
	case models.IntentGetIntakes:
		return b.IntakeSearch(parsed.Filters)
	default:
		return b.CourseSearch(parsed.Filters, parsed.TopK)
	}
}

// CourseSearch is the workhorse query: active courses joined to fees,
// providers, and campuses, narrowed by whatever filters are present.
func (b *Builder) CourseSearch(f models.Filters, limit int) (string, []interface{}) {
	var sb strings.Builder
	a := &args{}

	sb.WriteString(`SELECT
	c.course_id,
	c.course_name,
	c.provider_name,
	c.study_level,
	c.area_of_study_broad,
	c.area_of_study_narrow,
	c.duration,
	c.duration_unit,
	c.has_scholarship,
	c.has_internship,
	c.description,
	c.url_course_info,
	f.total_annual_fee,
	f.total_course_fee,
	f.year AS fee_year,
	p.australian_ranking,
	p.global_ranking,
	p.website_url,
	p.scholarship_url,
	l.address_city,
	l.address_state,
	l.campus_name
FROM courses c
LEFT JOIN fees f ON c.course_id = f.course_id
LEFT JOIN providers p ON c.provider_id = p.provider_id
LEFT JOIN campus_locations l ON c.provider_id = l.provider_id
WHERE c.is_active = TRUE`)

	var conditions []string

	if len(f.FieldOfStudy) > 0 {
		// Same values checked against both granularity columns, one bind
		// per value.
		list := a.nextList(f.FieldOfStudy)
		conditions = append(conditions, fmt.Sprintf(
			"(c.area_of_study_broad IN (%s) OR c.area_of_study_narrow IN (%s))", list, list))
	}

	if f.PriceRange != nil {
		if f.PriceRange.Min > 0 {
			conditions = append(conditions, "f.total_annual_fee >= "+a.next(f.PriceRange.Min))
		}
		if f.PriceRange.Max < models.PriceCeiling {
			conditions = append(conditions, "f.total_annual_fee <= "+a.next(f.PriceRange.Max))
		}
	}

	if f.LocationCity != "" {
		conditions = append(conditions, "l.address_city = "+a.next(f.LocationCity))
	}
	if f.LocationState != "" {
		conditions = append(conditions, "l.address_state = "+a.next(f.LocationState))
	}

	if f.ProviderName != "" {
		conditions = append(conditions, "c.provider_name ILIKE "+a.next("%"+f.ProviderName+"%"))
	}

	if f.StudyLevel != "" {
		conditions = append(conditions, "c.study_level = "+a.next(f.StudyLevel))
	}

	if f.HasScholarship {
		conditions = append(conditions, "c.has_scholarship = TRUE")
	}
	if f.HasInternship {
		conditions = append(conditions, "c.has_internship = TRUE")
	}

	if f.MaxRanking > 0 {
		conditions = append(conditions, "p.australian_ranking <= "+a.next(f.MaxRanking))
	}

	if len(conditions) > 0 {
		sb.WriteString(" AND ")
		sb.WriteString(strings.Join(conditions, " AND "))
	}

	if f.PriceRange != nil {
		sb.WriteString(" ORDER BY f.total_annual_fee ASC NULLS LAST")
	} else {
		sb.WriteString(" ORDER BY p.australian_ranking ASC NULLS LAST, f.total_annual_fee ASC NULLS LAST")
	}

	sb.WriteString(" LIMIT " + a.next(limit))

	b.logger.Debug("course search built", map[string]interface{}{
		"conditionCount": len(conditions),
	})

	return sb.String(), a.params
}

// ProviderComparison aggregates per-provider stats for a named set of
// providers.
func (b *Builder) ProviderComparison(providerNames []string) (string, []interface{}) {
	if len(providerNames) == 0 {
		return "SELECT 1 WHERE 1=0", nil
	}

	a := &args{}
	list := a.nextList(providerNames)

	sql := fmt.Sprintf(`SELECT
	p.provider_name,
	p.australian_ranking,
	p.global_ranking,
	p.provider_type,
	p.public_private,
	p.recognised_area_of_study,
	p.website_url,
	p.scholarship_url,
	COUNT(DISTINCT c.course_id) AS total_courses,
	MIN(f.total_annual_fee) AS min_fee,
	MAX(f.total_annual_fee) AS max_fee,
	AVG(f.total_annual_fee) AS avg_fee,
	COUNT(DISTINCT l.campus_id) AS campus_count,
	STRING_AGG(DISTINCT l.address_city, ', ') AS cities
FROM providers p
LEFT JOIN courses c ON p.provider_id = c.provider_id AND c.is_active = TRUE
LEFT JOIN fees f ON c.course_id = f.course_id
LEFT JOIN campus_locations l ON p.provider_id = l.provider_id
WHERE p.provider_name IN (%s)
GROUP BY p.provider_id, p.provider_name, p.australian_ranking,
	p.global_ranking, p.provider_type, p.public_private,
	p.recognised_area_of_study, p.website_url, p.scholarship_url
ORDER BY p.australian_ranking ASC NULLS LAST`, list)

	return sql, a.params
}

// ProviderDetails returns the aggregate profile of providers matching a
// name fragment.
func (b *Builder) ProviderDetails(providerName string) (string, []interface{}) {
	a := &args{}
	placeholder := a.next("%" + providerName + "%")

	sql := fmt.Sprintf(`SELECT
	p.provider_id,
	p.provider_name,
	p.company_name,
	p.provider_type,
	p.public_private,
	p.australian_ranking,
	p.global_ranking,
	p.website_url,
	p.scholarship_url,
	p.recognised_area_of_study,
	COUNT(DISTINCT c.course_id) AS total_courses,
	COUNT(DISTINCT l.campus_id) AS campus_count,
	STRING_AGG(DISTINCT l.address_city, ', ') AS cities,
	MIN(f.total_annual_fee) AS min_fee,
	MAX(f.total_annual_fee) AS max_fee
FROM providers p
LEFT JOIN courses c ON p.provider_id = c.provider_id AND c.is_active = TRUE
LEFT JOIN campus_locations l ON p.provider_id = l.provider_id
LEFT JOIN fees f ON c.course_id = f.course_id
WHERE p.provider_name ILIKE %s
GROUP BY p.provider_id, p.provider_name, p.company_name, p.provider_type,
	p.public_private, p.australian_ranking, p.global_ranking,
	p.website_url, p.scholarship_url, p.recognised_area_of_study`, placeholder)

	return sql, a.params
}

// ScholarshipSearch lists providers with published scholarship pages,
// optionally narrowed to a field of study.
func (b *Builder) ScholarshipSearch(f models.Filters) (string, []interface{}) {
	var sb strings.Builder
	a := &args{}

	sb.WriteString(`SELECT DISTINCT
	p.provider_name,
	p.scholarship_url,
	p.australian_ranking,
	p.website_url,
	COUNT(DISTINCT c.course_id) AS courses_with_scholarship,
	STRING_AGG(DISTINCT l.address_city, ', ') AS cities
FROM providers p
LEFT JOIN courses c ON p.provider_id = c.provider_id
	AND c.has_scholarship = TRUE
	AND c.is_active = TRUE
LEFT JOIN campus_locations l ON p.provider_id = l.provider_id
WHERE p.scholarship_url IS NOT NULL
	AND p.scholarship_url != ''`)

	if len(f.FieldOfStudy) > 0 {
		sb.WriteString(" AND c.area_of_study_broad IN (" + a.nextList(f.FieldOfStudy) + ")")
	}

	sb.WriteString(`
GROUP BY p.provider_id, p.provider_name, p.scholarship_url,
	p.australian_ranking, p.website_url
ORDER BY courses_with_scholarship DESC, p.australian_ranking ASC
LIMIT 20`)

	return sb.String(), a.params
}

// IntakeSearch lists open intakes in commencement order.
func (b *Builder) IntakeSearch(f models.Filters) (string, []interface{}) {
	var sb strings.Builder
	a := &args{}

	sb.WriteString(`SELECT
	i.provider_name,
	i.year,
	i.commencement_date,
	i.application_deadline,
	i.orientation_date,
	i.is_open,
	p.website_url,
	p.australian_ranking
FROM intakes i
LEFT JOIN providers p ON i.provider_id = p.provider_id
WHERE i.is_open = TRUE`)

	if f.ProviderName != "" {
		sb.WriteString(" AND i.provider_name ILIKE " + a.next("%"+f.ProviderName+"%"))
	}

	sb.WriteString(" ORDER BY i.commencement_date ASC LIMIT 20")

	return sb.String(), a.params
}

// internal/retrieval/store/store.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	stderrors "studynet-advisor/internal/common/errors"
	"studynet-advisor/internal/common/logger"
	"studynet-advisor/internal/models"
	"studynet-advisor/internal/query/sqlbuilder"
)

// CourseStore runs structured queries against the course catalog schema:
// providers, campus_locations, courses, fees, intakes.
type CourseStore struct {
	db      *sql.DB
	builder *sqlbuilder.Builder
	logger  logger.Logger
}

func NewCourseStore(db *sql.DB, builder *sqlbuilder.Builder, log logger.Logger) *CourseStore {
	return &CourseStore{
		db:      db,
		builder: builder,
		logger:  log.With(map[string]interface{}{"component": "course-store"}),
	}
}

// Execute runs a parameterized query and returns rows as column-name maps.
// Byte slices from the driver come back as strings.
func (s *CourseStore) Execute(ctx context.Context, query string, params []interface{}) ([]map[string]interface{}, error) {
	start := time.Now()

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, stderrors.Wrap(stderrors.ErrCodeQueryExecutionFailed, "query failed", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, stderrors.Wrap(stderrors.ErrCodeQueryExecutionFailed, "column read failed", err)
	}

	var results []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, stderrors.Wrap(stderrors.ErrCodeQueryExecutionFailed, "row scan failed", err)
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, stderrors.Wrap(stderrors.ErrCodeQueryExecutionFailed, "row iteration failed", err)
	}

	s.logger.Debug("query executed", map[string]interface{}{
		"rowCount": len(results),
		"duration": time.Since(start).String(),
	})

	return results, nil
}

// SearchCourses runs the filtered course search.
func (s *CourseStore) SearchCourses(ctx context.Context, f models.Filters, limit int) ([]map[string]interface{}, error) {
	query, params := s.builder.CourseSearch(f, limit)
	return s.Execute(ctx, query, params)
}

// CompareProviders returns side-by-side aggregates for the named providers.
func (s *CourseStore) CompareProviders(ctx context.Context, providerNames []string) ([]map[string]interface{}, error) {
	query, params := s.builder.ProviderComparison(providerNames)
	return s.Execute(ctx, query, params)
}

// GetProviderDetails returns the first provider whose name matches the
// fragment, or nil when none does.
func (s *CourseStore) GetProviderDetails(ctx context.Context, providerName string) (map[string]interface{}, error) {
	query, params := s.builder.ProviderDetails(providerName)
	results, err := s.Execute(ctx, query, params)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

// GetScholarships lists providers with published scholarship pages.
func (s *CourseStore) GetScholarships(ctx context.Context, f models.Filters) ([]map[string]interface{}, error) {
	query, params := s.builder.ScholarshipSearch(f)
	return s.Execute(ctx, query, params)
}

// GetUpcomingIntakes lists open intakes, optionally narrowed by provider
// and calendar year.
func (s *CourseStore) GetUpcomingIntakes(ctx context.Context, providerName string, year int, limit int) ([]map[string]interface{}, error) {
	var sb strings.Builder
	var params []interface{}

	sb.WriteString(`SELECT
	i.provider_name,
	i.year,
	i.commencement_date AS intake_date,
	i.application_deadline,
	i.orientation_date,
	i.is_open,
	p.website_url
FROM intakes i
LEFT JOIN providers p ON i.provider_id = p.provider_id
WHERE i.is_open = TRUE`)

	if providerName != "" {
		params = append(params, "%"+providerName+"%")
		fmt.Fprintf(&sb, " AND i.provider_name ILIKE $%d", len(params))
	}
	if year > 0 {
		params = append(params, year)
		fmt.Fprintf(&sb, " AND i.year = $%d", len(params))
	}

	params = append(params, limit)
	fmt.Fprintf(&sb, " ORDER BY i.commencement_date ASC LIMIT $%d", len(params))

	return s.Execute(ctx, sb.String(), params)
}

// GetCoursesByBudget finds active courses whose annual fee falls inside the
// budget, cheapest first.
func (s *CourseStore) GetCoursesByBudget(ctx context.Context, minBudget, maxBudget float64, fieldOfStudy string, limit int) ([]map[string]interface{}, error) {
	var sb strings.Builder
	params := []interface{}{minBudget, maxBudget}

	sb.WriteString(`SELECT
	c.course_name,
	c.provider_name,
	c.study_level,
	c.area_of_study_broad,
	f.total_annual_fee,
	f.total_course_fee,
	p.australian_ranking,
	l.address_city,
	l.address_state
FROM courses c
JOIN fees f ON c.course_id = f.course_id
LEFT JOIN providers p ON c.provider_id = p.provider_id
LEFT JOIN campus_locations l ON c.provider_id = l.provider_id
WHERE c.is_active = TRUE
	AND f.total_annual_fee BETWEEN $1 AND $2`)

	if fieldOfStudy != "" {
		params = append(params, "%"+fieldOfStudy+"%")
		fmt.Fprintf(&sb, " AND c.area_of_study_broad ILIKE $%d", len(params))
	}

	params = append(params, limit)
	fmt.Fprintf(&sb, " ORDER BY f.total_annual_fee ASC LIMIT $%d", len(params))

	return s.Execute(ctx, sb.String(), params)
}

// TableStats returns row counts for every catalog table. A table that
// cannot be counted reports zero rather than failing the whole call.
func (s *CourseStore) TableStats(ctx context.Context) map[string]int64 {
	tables := []string{"providers", "campus_locations", "courses", "fees", "intakes"}
	stats := make(map[string]int64, len(tables))

	for _, table := range tables {
		var count int64
		err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count)
		if err != nil {
			s.logger.Warn("table count failed", map[string]interface{}{
				"table": table,
			})
			count = 0
		}
		stats[table] = count
	}

	return stats
}

// Ping verifies the database connection.
func (s *CourseStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return stderrors.Wrap(stderrors.ErrCodeDatabaseConnectionFailed, "database unreachable", err)
	}
	return nil
}

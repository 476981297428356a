// internal/retrieval/store/store_test.go
package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studynet-advisor/internal/common/logger"
	"studynet-advisor/internal/models"
	"studynet-advisor/internal/query/sqlbuilder"
)

func newTestStore(t *testing.T) (*CourseStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logger.NewNoOpLogger()
	return NewCourseStore(db, sqlbuilder.New(log), log), mock
}

func TestSearchCourses(t *testing.T) {
	s, mock := newTestStore(t)

	rows := sqlmock.NewRows([]string{"course_id", "course_name", "provider_name", "total_annual_fee"}).
		AddRow("C1", "Bachelor of IT", "University of Sydney", 28000.0).
		AddRow("C2", "Bachelor of Computing", "Macquarie University", 31000.0)

	mock.ExpectQuery(`SELECT .+ FROM courses c .+ WHERE c\.is_active = TRUE`).
		WithArgs("Information Technology", 30000.0, "Sydney", 10).
		WillReturnRows(rows)

	results, err := s.SearchCourses(context.Background(), models.Filters{
		FieldOfStudy: []string{"Information Technology"},
		PriceRange:   &models.PriceRange{Min: 0, Max: 30000},
		LocationCity: "Sydney",
	}, 10)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Bachelor of IT", results[0]["course_name"])
	assert.Equal(t, 28000.0, results[0]["total_annual_fee"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchCoursesQueryError(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery(`SELECT .+ FROM courses c`).
		WillReturnError(assert.AnError)

	_, err := s.SearchCourses(context.Background(), models.Filters{}, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "QUERY_EXECUTION_FAILED")
}

func TestCompareProviders(t *testing.T) {
	s, mock := newTestStore(t)

	rows := sqlmock.NewRows([]string{"provider_name", "australian_ranking", "total_courses", "avg_fee"}).
		AddRow("Monash University", 6, 412, 32000.5).
		AddRow("University of Melbourne", 1, 388, 36500.0)

	mock.ExpectQuery(`WHERE p\.provider_name IN \(\$1,\$2\)`).
		WithArgs("Monash University", "University of Melbourne").
		WillReturnRows(rows)

	results, err := s.CompareProviders(context.Background(), []string{"Monash University", "University of Melbourne"})

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Monash University", results[0]["provider_name"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProviderDetails(t *testing.T) {
	s, mock := newTestStore(t)

	rows := sqlmock.NewRows([]string{"provider_name", "total_courses", "cities"}).
		AddRow("Deakin University", 210, "Melbourne, Geelong")

	mock.ExpectQuery(`WHERE p\.provider_name ILIKE \$1`).
		WithArgs("%Deakin%").
		WillReturnRows(rows)

	result, err := s.GetProviderDetails(context.Background(), "Deakin")

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "Deakin University", result["provider_name"])
}

func TestGetProviderDetailsNotFound(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery(`WHERE p\.provider_name ILIKE \$1`).
		WithArgs("%Nowhere%").
		WillReturnRows(sqlmock.NewRows([]string{"provider_name"}))

	result, err := s.GetProviderDetails(context.Background(), "Nowhere")

	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestGetUpcomingIntakes(t *testing.T) {
	s, mock := newTestStore(t)

	rows := sqlmock.NewRows([]string{"provider_name", "year", "intake_date", "is_open"}).
		AddRow("Griffith University", 2026, "2026-02-23", true)

	mock.ExpectQuery(`FROM intakes i .+ WHERE i\.is_open = TRUE AND i\.provider_name ILIKE \$1 AND i\.year = \$2`).
		WithArgs("%Griffith%", 2026, 20).
		WillReturnRows(rows)

	results, err := s.GetUpcomingIntakes(context.Background(), "Griffith", 2026, 20)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Griffith University", results[0]["provider_name"])
}

func TestGetCoursesByBudget(t *testing.T) {
	s, mock := newTestStore(t)

	rows := sqlmock.NewRows([]string{"course_name", "provider_name", "total_annual_fee"}).
		AddRow("Diploma of Business", "RMIT University", 18000.0)

	mock.ExpectQuery(`f\.total_annual_fee BETWEEN \$1 AND \$2`).
		WithArgs(10000.0, 20000.0, "%Business%", 20).
		WillReturnRows(rows)

	results, err := s.GetCoursesByBudget(context.Background(), 10000, 20000, "Business", 20)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Diploma of Business", results[0]["course_name"])
}

func TestExecuteConvertsBytes(t *testing.T) {
	s, mock := newTestStore(t)

	rows := sqlmock.NewRows([]string{"course_name"}).
		AddRow([]byte("Bachelor of Science"))

	mock.ExpectQuery(`SELECT course_name`).WillReturnRows(rows)

	results, err := s.Execute(context.Background(), "SELECT course_name FROM courses", nil)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Bachelor of Science", results[0]["course_name"])
}

func TestTableStats(t *testing.T) {
	s, mock := newTestStore(t)

	for _, table := range []string{"providers", "campus_locations", "courses", "fees", "intakes"} {
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM ` + table).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	}

	stats := s.TableStats(context.Background())

	assert.Equal(t, int64(5), stats["courses"])
	assert.Len(t, stats, 5)
}

func TestPing(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	log := logger.NewNoOpLogger()
	s := NewCourseStore(db, sqlbuilder.New(log), log)

	mock.ExpectPing()
	assert.NoError(t, s.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(assert.AnError)
	err = s.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_CONNECTION_FAILED")
}

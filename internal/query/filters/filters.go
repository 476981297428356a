// internal/query/filters/filters.go
package filters

import (
	"studynet-advisor/internal/common/logger"
	"studynet-advisor/internal/models"
)

// Builder converts extracted entities into SQL-ready filters.
type Builder struct {
	logger logger.Logger
}

func NewBuilder(log logger.Logger) *Builder {
	return &Builder{
		logger: log.With(map[string]interface{}{"component": "filter-builder"}),
	}
}

// Build folds entities into a Filters value. When two entities of the same
// type appear, the later one wins; a warning records the overwrite so the
// behavior is visible in logs.
func (b *Builder) Build(entities []models.Entity) models.Filters {
	var f models.Filters

	for _, entity := range entities {
		switch entity.Type {
		case models.EntityFieldOfStudy:
			values, ok := entity.Normalized.([]string)
			if !ok {
				b.warnBadValue(entity)
				continue
			}
			if f.FieldOfStudy != nil {
				b.warnOverwrite(entity)
			}
			f.FieldOfStudy = values

		case models.EntityPriceRange:
			pr, ok := entity.Normalized.(models.PriceRange)
			if !ok {
				b.warnBadValue(entity)
				continue
			}
			if f.PriceRange != nil {
				b.warnOverwrite(entity)
			}
			f.PriceRange = &pr

		case models.EntityLocation:
			loc, ok := entity.Normalized.(models.Location)
			if !ok {
				b.warnBadValue(entity)
				continue
			}
			if f.LocationCity != "" || f.LocationState != "" {
				b.warnOverwrite(entity)
			}
			f.LocationCity = loc.City
			f.LocationState = loc.State

		case models.EntityProviderName:
			name, ok := entity.Normalized.(string)
			if !ok {
				b.warnBadValue(entity)
				continue
			}
			if f.ProviderName != "" {
				b.warnOverwrite(entity)
			}
			f.ProviderName = name

		case models.EntityStudyLevel:
			level, ok := entity.Normalized.(string)
			if !ok {
				b.warnBadValue(entity)
				continue
			}
			if f.StudyLevel != "" {
				b.warnOverwrite(entity)
			}
			f.StudyLevel = level

		case models.EntityHasScholarship:
			flag, ok := entity.Normalized.(bool)
			if !ok {
				b.warnBadValue(entity)
				continue
			}
			f.HasScholarship = flag

		case models.EntityHasInternship:
			flag, ok := entity.Normalized.(bool)
			if !ok {
				b.warnBadValue(entity)
				continue
			}
			f.HasInternship = flag

		case models.EntityRanking:
			ranking, ok := entity.Normalized.(int)
			if !ok {
				b.warnBadValue(entity)
				continue
			}
			if f.MaxRanking != 0 {
				b.warnOverwrite(entity)
			}
			f.MaxRanking = ranking
		}
	}

	return f
}

func (b *Builder) warnOverwrite(entity models.Entity) {
	b.logger.Warn("duplicate entity type, later value wins", map[string]interface{}{
		"entityType": entity.Type,
		"value":      entity.Value,
	})
}

func (b *Builder) warnBadValue(entity models.Entity) {
	b.logger.Warn("unexpected normalized value, entity skipped", map[string]interface{}{
		"entityType": entity.Type,
		"value":      entity.Value,
	})
}

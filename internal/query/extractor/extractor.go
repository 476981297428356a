// internal/query/extractor/extractor.go
package extractor

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"studynet-advisor/internal/common/logger"
	"studynet-advisor/internal/models"
)

// match is a raw extraction hit before it becomes a models.Entity.
type match struct {
	raw        string
	normalized interface{}
	confidence float64
}

// pricePattern pairs a compiled regex with its range interpretation.
type pricePattern struct {
	re   *regexp.Regexp
	kind string // under | over | range
}

// Extractor maps substrings of a query to normalized domain values. It is
// pure and deterministic: all matching runs against static tables compiled
// once at construction.
type Extractor struct {
	logger logger.Logger

	fieldPatterns    []*regexp.Regexp
	locationKeys     []string
	locationPatterns map[string]*regexp.Regexp
	aliasPatterns    []*regexp.Regexp
	levelPatterns    []*regexp.Regexp
	pricePatterns    []pricePattern

	universityRe  *regexp.Regexp
	scholarshipRe *regexp.Regexp
	internshipRe  *regexp.Regexp
	rankingRe     *regexp.Regexp
}

func New(log logger.Logger) *Extractor {
	e := &Extractor{
		logger:           log.With(map[string]interface{}{"component": "entity-extractor"}),
		locationPatterns: make(map[string]*regexp.Regexp),
	}

	for _, fm := range fieldMappings {
		e.fieldPatterns = append(e.fieldPatterns, wordPattern(fm.term))
	}

	// Longest location name first so "south australia" is not shadowed by
	// a shorter term embedded in it.
	for loc := range cityStateMap {
		e.locationKeys = append(e.locationKeys, loc)
		e.locationPatterns[loc] = wordPattern(loc)
	}
	sort.Slice(e.locationKeys, func(i, j int) bool {
		if len(e.locationKeys[i]) != len(e.locationKeys[j]) {
			return len(e.locationKeys[i]) > len(e.locationKeys[j])
		}
		return e.locationKeys[i] < e.locationKeys[j]
	})

	for _, pa := range providerAliases {
		e.aliasPatterns = append(e.aliasPatterns, wordPattern(pa.alias))
	}

	for _, lm := range levelMappings {
		e.levelPatterns = append(e.levelPatterns, wordPattern(lm.term))
	}

	for _, p := range []struct{ expr, kind string }{
		{`under\s+\$?(\d+k?)\b`, "under"},
		{`less\s+than\s+\$?(\d+k?)\b`, "under"},
		{`below\s+\$?(\d+k?)\b`, "under"},
		{`cheaper\s+than\s+\$?(\d+k?)\b`, "under"},
		{`maximum\s+\$?(\d+k?)\b`, "under"},
		{`up\s+to\s+\$?(\d+k?)\b`, "under"},
		{`between\s+\$?(\d+k?)\s+and\s+\$?(\d+k?)\b`, "range"},
		{`\$?(\d+k?)\s+to\s+\$?(\d+k?)\b`, "range"},
		{`from\s+\$?(\d+k?)\s+to\s+\$?(\d+k?)\b`, "range"},
		{`over\s+\$?(\d+k?)\b`, "over"},
		{`more\s+than\s+\$?(\d+k?)\b`, "over"},
		{`above\s+\$?(\d+k?)\b`, "over"},
	} {
		e.pricePatterns = append(e.pricePatterns, pricePattern{
			re:   regexp.MustCompile(`(?i)` + p.expr),
			kind: p.kind,
		})
	}

	e.universityRe = regexp.MustCompile(`(\w+(?:\s+\w+)?)\s+university`)
	e.scholarshipRe = regexp.MustCompile(`(?i)\b(with|has|have|offer|offers)\s+scholarship`)
	e.internshipRe = regexp.MustCompile(`(?i)\b(with|has|have|offer|offers)\s+internship`)
	e.rankingRe = regexp.MustCompile(`(?i)top\s+(\d+)|rank(?:ed|ing)\s+(?:under|below|top)\s+(\d+)`)

	return e
}

// Extract runs every sub-extractor against the query and concatenates the
// results. A query may yield zero to N entities.
func (e *Extractor) Extract(query string) []models.Entity {
	var entities []models.Entity

	if m := e.extractField(query); m != nil {
		entities = append(entities, toEntity(models.EntityFieldOfStudy, m))
	}

	if m := e.extractLocation(query); m != nil {
		entities = append(entities, toEntity(models.EntityLocation, m))
	}

	if m := e.extractPrice(query); m != nil {
		entities = append(entities, toEntity(models.EntityPriceRange, m))
	}

	if m := e.extractProvider(query); m != nil {
		entities = append(entities, toEntity(models.EntityProviderName, m))
	}

	if m := e.extractStudyLevel(query); m != nil {
		entities = append(entities, toEntity(models.EntityStudyLevel, m))
	}

	if loc := e.scholarshipRe.FindString(query); loc != "" {
		entities = append(entities, models.Entity{
			Type:       models.EntityHasScholarship,
			Value:      "with scholarship",
			Normalized: true,
			Confidence: 0.95,
		})
	}

	if loc := e.internshipRe.FindString(query); loc != "" {
		entities = append(entities, models.Entity{
			Type:       models.EntityHasInternship,
			Value:      "with internship",
			Normalized: true,
			Confidence: 0.95,
		})
	}

	if sub := e.rankingRe.FindStringSubmatch(query); sub != nil {
		digits := sub[1]
		if digits == "" {
			digits = sub[2]
		}
		if ranking, err := strconv.Atoi(digits); err == nil {
			entities = append(entities, models.Entity{
				Type:       models.EntityRanking,
				Value:      sub[0],
				Normalized: ranking,
				Confidence: 0.9,
			})
		}
	}

	e.logger.Debug("extraction complete", map[string]interface{}{
		"entityCount": len(entities),
	})

	return entities
}

// extractField returns the first field-of-study term in table order that
// appears in the query. Table order, not term specificity, decides priority.
func (e *Extractor) extractField(query string) *match {
	queryLower := strings.ToLower(query)

	for i, fm := range fieldMappings {
		if e.fieldPatterns[i].MatchString(queryLower) {
			return &match{
				raw:        fm.term,
				normalized: fm.values,
				confidence: 0.9,
			}
		}
	}

	return nil
}

func (e *Extractor) extractLocation(query string) *match {
	queryLower := strings.ToLower(query)

	for _, loc := range e.locationKeys {
		if e.locationPatterns[loc].MatchString(queryLower) {
			v := cityStateMap[loc]
			return &match{
				raw:        loc,
				normalized: models.Location{City: v.City, State: v.State},
				confidence: 0.95,
			}
		}
	}

	return nil
}

func (e *Extractor) extractProvider(query string) *match {
	queryLower := strings.ToLower(query)

	// Alias table first, at full confidence.
	for i, pa := range providerAliases {
		if e.aliasPatterns[i].MatchString(queryLower) {
			return &match{
				raw:        pa.alias,
				normalized: pa.name,
				confidence: 0.95,
			}
		}
	}

	// Heuristic fallback: "<name> university" at reduced confidence.
	if sub := e.universityRe.FindString(queryLower); sub != "" {
		name := titleCase(sub)
		return &match{
			raw:        name,
			normalized: name,
			confidence: 0.8,
		}
	}

	return nil
}

func (e *Extractor) extractPrice(query string) *match {
	for _, pp := range e.pricePatterns {
		sub := pp.re.FindStringSubmatch(query)
		if sub == nil {
			continue
		}

		var normalized models.PriceRange
		switch pp.kind {
		case "under":
			normalized = models.PriceRange{Min: 0, Max: parseAmount(sub[1])}
		case "over":
			normalized = models.PriceRange{Min: parseAmount(sub[1]), Max: models.PriceCeiling}
		case "range":
			normalized = models.PriceRange{Min: parseAmount(sub[1]), Max: parseAmount(sub[2])}
		}

		return &match{
			raw:        sub[0],
			normalized: normalized,
			confidence: 0.95,
		}
	}

	return nil
}

func (e *Extractor) extractStudyLevel(query string) *match {
	queryLower := strings.ToLower(query)

	for i, lm := range levelMappings {
		if e.levelPatterns[i].MatchString(queryLower) {
			return &match{
				raw:        lm.term,
				normalized: lm.level,
				confidence: 0.9,
			}
		}
	}

	return nil
}

func toEntity(entityType string, m *match) models.Entity {
	return models.Entity{
		Type:       entityType,
		Value:      m.raw,
		Normalized: m.normalized,
		Confidence: m.confidence,
	}
}

// parseAmount converts "20k" to 20000 and "20000" to 20000.
func parseAmount(value string) float64 {
	value = strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(value, "$", ""), ",", ""))
	multiplier := 1.0
	if strings.HasSuffix(value, "k") || strings.HasSuffix(value, "K") {
		value = value[:len(value)-1]
		multiplier = 1000.0
	}
	n, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return n * multiplier
}

func wordPattern(term string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(term) + `\b`)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

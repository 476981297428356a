// internal/agent/format.go
package agent

import (
	"fmt"
	"strconv"
	"strings"

	"studynet-advisor/internal/models"
)

// Row value accessors. Store rows are map[string]interface{} with driver
// dependent numeric types.

func rowString(row map[string]interface{}, key string) string {
	if v, ok := row[key].(string); ok {
		return v
	}
	return ""
}

func rowFloat(row map[string]interface{}, key string) (float64, bool) {
	switch v := row[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}

func rowInt(row map[string]interface{}, key string) (int64, bool) {
	switch v := row[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	}
	return 0, false
}

// formatMoney renders 28000 as "28,000.00".
func formatMoney(amount float64) string {
	s := strconv.FormatFloat(amount, 'f', 2, 64)
	dot := strings.Index(s, ".")
	intPart, fracPart := s[:dot], s[dot:]

	negative := strings.HasPrefix(intPart, "-")
	if negative {
		intPart = intPart[1:]
	}

	var sb strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(digit)
	}

	out := sb.String() + fracPart
	if negative {
		out = "-" + out
	}
	return out
}

func formatCourseList(rows []map[string]interface{}) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d courses:\n\n", len(rows))

	for i, course := range rows {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, rowString(course, "course_name"))
		fmt.Fprintf(&sb, "   Provider: %s\n", rowString(course, "provider_name"))
		fmt.Fprintf(&sb, "   Level: %s\n", rowString(course, "study_level"))
		if fee, ok := rowFloat(course, "total_annual_fee"); ok && fee > 0 {
			fmt.Fprintf(&sb, "   Annual Fee: $%s\n", formatMoney(fee))
		}
		if city := rowString(course, "address_city"); city != "" {
			fmt.Fprintf(&sb, "   Location: %s, %s\n", city, rowString(course, "address_state"))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func formatProviderComparison(rows []map[string]interface{}) string {
	divider := strings.Repeat("=", 60)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Comparison of %d universities:\n\n", len(rows))

	for _, provider := range rows {
		fmt.Fprintf(&sb, "%s\n%s\n%s\n", divider, rowString(provider, "provider_name"), divider)
		if pt := rowString(provider, "provider_type"); pt != "" {
			fmt.Fprintf(&sb, "Type: %s\n", pt)
		}
		if ranking, ok := rowInt(provider, "australian_ranking"); ok && ranking > 0 {
			fmt.Fprintf(&sb, "Australian Ranking: #%d\n", ranking)
		}
		if ranking, ok := rowInt(provider, "global_ranking"); ok && ranking > 0 {
			fmt.Fprintf(&sb, "Global Ranking: #%d\n", ranking)
		}
		if total, ok := rowInt(provider, "total_courses"); ok {
			fmt.Fprintf(&sb, "Total Courses: %d\n", total)
		}
		if campuses, ok := rowInt(provider, "campus_count"); ok {
			fmt.Fprintf(&sb, "Campus Locations: %d\n", campuses)
		}
		if cities := rowString(provider, "cities"); cities != "" {
			fmt.Fprintf(&sb, "Cities: %s\n", cities)
		}
		minFee, hasMin := rowFloat(provider, "min_fee")
		maxFee, hasMax := rowFloat(provider, "max_fee")
		if hasMin && hasMax && minFee > 0 && maxFee > 0 {
			fmt.Fprintf(&sb, "Fee Range: $%s - $%s\n", formatMoney(minFee), formatMoney(maxFee))
		}
		if rowString(provider, "scholarship_url") != "" {
			sb.WriteString("Scholarships Available: Yes\n")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func formatProviderDetails(provider map[string]interface{}) string {
	divider := strings.Repeat("=", 60)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n%s\n\n", rowString(provider, "provider_name"), divider)

	if company := rowString(provider, "company_name"); company != "" {
		fmt.Fprintf(&sb, "Full Name: %s\n", company)
	}
	if pt := rowString(provider, "provider_type"); pt != "" {
		fmt.Fprintf(&sb, "Type: %s\n", pt)
	}
	if sector := rowString(provider, "public_private"); sector != "" {
		fmt.Fprintf(&sb, "Sector: %s\n", sector)
	}
	sb.WriteString("\nRankings:\n")
	if ranking, ok := rowInt(provider, "australian_ranking"); ok && ranking > 0 {
		fmt.Fprintf(&sb, "  - Australian Ranking: #%d\n", ranking)
	}
	if ranking, ok := rowInt(provider, "global_ranking"); ok && ranking > 0 {
		fmt.Fprintf(&sb, "  - Global Ranking: #%d\n", ranking)
	}
	sb.WriteString("\n")

	if total, ok := rowInt(provider, "total_courses"); ok {
		fmt.Fprintf(&sb, "Total Courses: %d\n", total)
	}
	if campuses, ok := rowInt(provider, "campus_count"); ok {
		fmt.Fprintf(&sb, "Campus Locations: %d\n", campuses)
	}
	if cities := rowString(provider, "cities"); cities != "" {
		fmt.Fprintf(&sb, "Cities: %s\n", cities)
	}

	minFee, hasMin := rowFloat(provider, "min_fee")
	maxFee, hasMax := rowFloat(provider, "max_fee")
	if hasMin && hasMax && minFee > 0 && maxFee > 0 {
		fmt.Fprintf(&sb, "\nFee Range: $%s - $%s\n", formatMoney(minFee), formatMoney(maxFee))
	}

	if url := rowString(provider, "scholarship_url"); url != "" {
		sb.WriteString("\nScholarships: Available\n")
		fmt.Fprintf(&sb, "Scholarship URL: %s\n", url)
	}
	if url := rowString(provider, "website_url"); url != "" {
		fmt.Fprintf(&sb, "\nWebsite: %s\n", url)
	}
	if areas := rowString(provider, "recognised_area_of_study"); areas != "" {
		fmt.Fprintf(&sb, "\nRecognized Areas: %s\n", areas)
	}

	return sb.String()
}

func formatScholarshipList(rows []map[string]interface{}) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d universities offering scholarships:\n\n", len(rows))

	for i, provider := range rows {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, rowString(provider, "provider_name"))
		if ranking, ok := rowInt(provider, "australian_ranking"); ok && ranking > 0 {
			fmt.Fprintf(&sb, "   Ranking: #%d\n", ranking)
		}
		if count, ok := rowInt(provider, "courses_with_scholarship"); ok {
			fmt.Fprintf(&sb, "   Courses with scholarships: %d\n", count)
		}
		if url := rowString(provider, "scholarship_url"); url != "" {
			fmt.Fprintf(&sb, "   URL: %s\n", url)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func formatIntakeList(rows []map[string]interface{}) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d upcoming intakes:\n\n", len(rows))

	for i, intake := range rows {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, rowString(intake, "provider_name"))
		if date := rowString(intake, "intake_date"); date != "" {
			fmt.Fprintf(&sb, "   Intake Date: %s\n", date)
		}
		if deadline := rowString(intake, "application_deadline"); deadline != "" {
			fmt.Fprintf(&sb, "   Application Deadline: %s\n", deadline)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func formatBudgetList(rows []map[string]interface{}, maxBudget float64) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d courses under $%s:\n\n", len(rows), formatMoney(maxBudget))

	for i, course := range rows {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, rowString(course, "course_name"))
		fmt.Fprintf(&sb, "   Provider: %s\n", rowString(course, "provider_name"))
		if fee, ok := rowFloat(course, "total_annual_fee"); ok && fee > 0 {
			fmt.Fprintf(&sb, "   Annual Fee: $%s\n", formatMoney(fee))
		}
		if level := rowString(course, "study_level"); level != "" {
			fmt.Fprintf(&sb, "   Level: %s\n", level)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func formatGuidanceHits(hits []models.SemanticHit) string {
	var sb strings.Builder
	sb.WriteString("Based on our guidance documents:\n\n")

	for i, hit := range hits {
		fmt.Fprintf(&sb, "%d. ", i+1)
		if source, ok := hit.Metadata["source"].(string); ok && source != "" {
			parts := strings.Split(source, "/")
			fmt.Fprintf(&sb, "[From %s]\n", parts[len(parts)-1])
		}
		fmt.Fprintf(&sb, "%s\n\n", hit.Content)
	}

	sb.WriteString("\n📌 Note: Always verify this information with official sources and the university.")
	return sb.String()
}

func formatProviderInfoHits(hits []models.SemanticHit, providerName string) string {
	var sb strings.Builder
	if providerName != "" {
		fmt.Fprintf(&sb, "Information about %s:\n\n", providerName)
	} else {
		sb.WriteString("Based on university information:\n\n")
	}

	for i, hit := range hits {
		fmt.Fprintf(&sb, "%d. ", i+1)
		if source, ok := hit.Metadata["source"].(string); ok && source != "" {
			parts := strings.Split(source, "/")
			fmt.Fprintf(&sb, "[From %s]\n", parts[len(parts)-1])
		} else if name, ok := hit.Metadata["provider_name"].(string); ok && name != "" {
			fmt.Fprintf(&sb, "[%s]\n", name)
		}
		fmt.Fprintf(&sb, "%s\n\n", hit.Content)
	}

	return sb.String()
}

// formatHybridContext renders a HybridResult as LLM grounding context:
// up to five structured rows and three guidance snippets.
func formatHybridContext(result models.HybridResult) string {
	var sb strings.Builder

	if len(result.StructuredData) > 0 {
		sb.WriteString("## Course Information:\n\n")
		rows := result.StructuredData
		if len(rows) > 5 {
			rows = rows[:5]
		}
		for i, course := range rows {
			fmt.Fprintf(&sb, "%d. **%s**\n", i+1, rowString(course, "course_name"))
			fmt.Fprintf(&sb, "   - Provider: %s\n", rowString(course, "provider_name"))
			fmt.Fprintf(&sb, "   - Level: %s\n", rowString(course, "study_level"))
			if fee, ok := rowFloat(course, "total_annual_fee"); ok && fee > 0 {
				fmt.Fprintf(&sb, "   - Annual Fee: $%s\n", formatMoney(fee))
			}
			if city := rowString(course, "address_city"); city != "" {
				fmt.Fprintf(&sb, "   - Location: %s, %s\n", city, rowString(course, "address_state"))
			}
			sb.WriteString("\n")
		}
	}

	if len(result.SemanticData) > 0 {
		sb.WriteString("\n## Additional Context:\n\n")
		hits := result.SemanticData
		if len(hits) > 3 {
			hits = hits[:3]
		}
		for i, hit := range hits {
			content := hit.Content
			if len(content) > 200 {
				content = content[:200]
			}
			fmt.Fprintf(&sb, "%d. %s...\n\n", i+1, content)
		}
	}

	return sb.String()
}

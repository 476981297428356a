// internal/common/validation/validation.go
package validation

import (
	"strings"

	"github.com/xeipuuv/gojsonschema"

	stderrors "studynet-advisor/internal/common/errors"
)

// MustCompileSchema compiles a JSON schema string. Schemas are package-level
// constants, so a bad one is a programming error.
func MustCompileSchema(raw string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
	if err != nil {
		panic("invalid schema: " + err.Error())
	}
	return schema
}

// ValidateInput checks a decoded input document against a compiled schema.
func ValidateInput(schema *gojsonschema.Schema, input map[string]interface{}) error {
	result, err := schema.Validate(gojsonschema.NewGoLoader(input))
	if err != nil {
		return stderrors.Wrap(stderrors.ErrCodeInvalidToolInput, "input validation failed", err)
	}
	if result.Valid() {
		return nil
	}

	var problems []string
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return stderrors.New(stderrors.ErrCodeInvalidToolInput, strings.Join(problems, "; "))
}

// Package schemas provides JSON Schema validation for the structured
// artifacts the pipeline produces. Schemas are embedded so validation works
// regardless of the working directory.
package schemas

import (
	"embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed *.schema.json
var schemaFS embed.FS

// Schema names for the pipeline's structured artifacts.
const (
	DiscoveredCompanyProfile = "discovered_company_profile"
	ResearchPlan             = "research_plan"
	Resume                   = "resume"
	ResumeEvaluation         = "resume_evaluation"
	CoverLetter              = "cover_letter"
	CoverLetterEvaluation    = "cover_letter_evaluation"
)

// ValidationError represents a schema validation failure with field paths.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field.
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// SchemaLoadError represents errors loading or parsing the schema itself.
type SchemaLoadError struct {
	Name    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Name, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Name, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// Get returns the raw embedded schema document.
func Get(name string) ([]byte, error) {
	raw, err := schemaFS.ReadFile(name + ".schema.json")
	if err != nil {
		return nil, &SchemaLoadError{Name: name, Message: "schema not embedded", Cause: err}
	}
	return raw, nil
}

// MustGet returns the raw embedded schema document, panicking when missing.
// Intended for schemas referenced at startup.
func MustGet(name string) []byte {
	raw, err := Get(name)
	if err != nil {
		panic(err)
	}
	return raw
}

// Validate checks a JSON document against a named embedded schema.
func Validate(name string, document []byte) error {
	raw, err := Get(name)
	if err != nil {
		return err
	}
	return ValidateBytes(raw, document)
}

// ValidateBytes checks a JSON document against a raw schema document.
func ValidateBytes(schema, document []byte) error {
	schemaLoader := gojsonschema.NewBytesLoader(schema)
	documentLoader := gojsonschema.NewBytesLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &SchemaLoadError{Name: "(inline)", Message: "schema validation failed during load", Cause: err}
	}

	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}

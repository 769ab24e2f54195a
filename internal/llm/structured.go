// Package llm - structured.go provides schema-checked structured generation.
// The schema is enforced twice: sent to the provider to constrain decoding,
// then used to validate whatever came back before unmarshalling.
package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/resumind/resumind/internal/schemas"
)

// Validator is implemented by artifact types that carry their own field-level
// validation rules.
type Validator interface {
	Validate() error
}

// InvokeStructured runs a structured generation call and unmarshals the
// result into out. When the model emits JSON that fails schema or field
// validation, the error is fed back as a corrective turn and the call is
// retried up to maxAttempts times.
func InvokeStructured(ctx context.Context, client Client, req Request, schema []byte, maxAttempts int, out any) error {
	if maxAttempts <= 0 {
		maxAttempts = 2
	}
	req.ResponseSchema = schema

	messages := req.Messages
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		req.Messages = messages

		resp, err := client.Invoke(ctx, req)
		if err != nil {
			return err
		}

		raw := []byte(CleanJSONBlock(resp.Text))
		if err := decodeStructured(raw, schema, out); err != nil {
			lastErr = err
			messages = append(messages,
				Message{Role: RoleModel, Text: resp.Text},
				Message{Role: RoleUser, Text: fmt.Sprintf(
					"The previous response was not valid: %v\nReturn a corrected JSON object matching the required schema.", err)},
			)
			continue
		}
		return nil
	}
	return fmt.Errorf("structured output invalid after %d attempts: %w", maxAttempts, lastErr)
}

func decodeStructured(raw, schema []byte, out any) error {
	if schema != nil {
		if err := schemas.ValidateBytes(schema, raw); err != nil {
			return err
		}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to unmarshal structured response: %w", err)
	}
	if v, ok := out.(Validator); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

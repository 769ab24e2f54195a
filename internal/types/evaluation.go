package types

import "github.com/go-playground/validator/v10"

// ResumeEvaluation is the evaluator's verdict on a generated resume draft.
// Only the latest evaluation is retained in pipeline state; it feeds the next
// generation iteration.
type ResumeEvaluation struct {
	Grade   int               `json:"grade" validate:"min=0,max=100"`
	Changes map[string]string `json:"changes"`
	Summary string            `json:"summary" validate:"required"`
}

// Validate checks the evaluation returned by the model.
func (e *ResumeEvaluation) Validate() error {
	return validator.New().Struct(e)
}

// CoverLetterEvaluation is the evaluator's verdict on a generated cover
// letter draft.
type CoverLetterEvaluation struct {
	Grade   int      `json:"grade" validate:"min=0,max=100"`
	Changes []string `json:"changes"`
	Summary string   `json:"summary" validate:"required"`
}

// Validate checks the evaluation returned by the model.
func (e *CoverLetterEvaluation) Validate() error {
	return validator.New().Struct(e)
}

// CoverLetter wraps the generated cover letter text so it can be produced as
// structured output.
type CoverLetter struct {
	Content string `json:"content" validate:"required"`
}

// Validate checks the cover letter returned by the model.
func (c *CoverLetter) Validate() error {
	return validator.New().Struct(c)
}

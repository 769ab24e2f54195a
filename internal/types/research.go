package types

import "github.com/go-playground/validator/v10"

// ResearchCategory is one research assignment produced by the planning stage.
// Priority is descriptive metadata only; it does not influence scheduling.
type ResearchCategory struct {
	CategoryName string   `json:"category_name" validate:"required"`
	Description  string   `json:"description" validate:"required"`
	Priority     int      `json:"priority" validate:"required,min=1,max=5"`
	DataPoints   []string `json:"data_points" validate:"required,min=1"`
}

// ResearchPlan is the structured output of the research planning stage. Each
// category becomes one concurrently executed research task.
type ResearchPlan struct {
	TargetRole         string             `json:"target_role" validate:"required"`
	ResearchCategories []ResearchCategory `json:"research_categories" validate:"required,min=1,dive"`
	Rationale          string             `json:"rationale" validate:"required"`
}

// Validate checks the plan returned by the model.
func (p *ResearchPlan) Validate() error {
	return validator.New().Struct(p)
}

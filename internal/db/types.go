package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/resumind/resumind/internal/types"
)

// Status constants for the job application pipeline state machine
const (
	StatusStarted                     = "started"
	StatusProcessingCompanyProfile    = "processing_company_profile"
	StatusProcessingResumeGeneration  = "processing_resume_generation"
	StatusProcessingCoverLetter       = "processing_cover_letter"
	StatusCompleted                   = "completed"
	StatusFailed                      = "failed"
)

// EventName constants
const (
	EventPipelineStep      = "pipeline.step"
	EventPipelineUpdate    = "pipeline.update"
	EventResearchCategory  = "research.category"
	EventToolExecution     = "tool.execution"
	EventArtifactGenerated = "artifact.generated"
	EventPipelineCompleted = "pipeline.completed"
	EventPipelineFailed    = "pipeline.failed"
)

// EventStatus constants
const (
	EventStarted   = "started"
	EventSucceeded = "succeeded"
	EventFailed    = "failed"
)

// PipelineStep constants tagged on events
const (
	StepCompanyDiscovery       = "company_discovery"
	StepResearchPlanning       = "research_planning"
	StepResearch               = "research"
	StepResumeGeneration       = "resume_generation"
	StepResumeDrafting         = "resume_drafting"
	StepResumeEvaluation       = "resume_evaluation"
	StepCoverLetterGeneration  = "cover_letter_generation"
	StepCoverLetterDrafting    = "cover_letter_drafting"
	StepCoverLetterEvaluation  = "cover_letter_evaluation"
)

// JobApplication is the aggregate root for one tailored-application run.
// CompanyProfile, GeneratedResume, and OriginalResumeSnapshot are stored as
// JSONB documents; UpdatedAt bumps on every mutation.
type JobApplication struct {
	ID                     uuid.UUID             `json:"id"`
	JobTitle               string                `json:"job_title"`
	CompanyName            string                `json:"company_name"`
	JobDescription         string                `json:"job_description"`
	UserID                 uuid.UUID             `json:"user_id"`
	Status                 string                `json:"status"`
	CompanyProfile         *types.CompanyProfile `json:"company_profile,omitempty"`
	GeneratedResume        *types.Resume         `json:"generated_resume,omitempty"`
	GeneratedCoverLetter   *string               `json:"generated_cover_letter,omitempty"`
	OriginalResumeSnapshot *types.Resume         `json:"original_resume_snapshot,omitempty"`
	CreatedAt              time.Time             `json:"created_at"`
	UpdatedAt              time.Time             `json:"updated_at"`
}

// Event is one immutable record in a job application's pipeline event log.
type Event struct {
	ID               uuid.UUID      `json:"id"`
	JobApplicationID uuid.UUID      `json:"job_application_id"`
	EventName        string         `json:"event_name"`
	Status           *string        `json:"status,omitempty"`
	Step             *string        `json:"step,omitempty"`
	CategoryName     *string        `json:"category_name,omitempty"`
	ToolName         *string        `json:"tool_name,omitempty"`
	Iteration        *int           `json:"iteration,omitempty"`
	Message          *string        `json:"message,omitempty"`
	Data             map[string]any `json:"data,omitempty"`
	Error            map[string]any `json:"error,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
}

// EventFilter narrows ListEvents results. Zero-value fields are ignored.
type EventFilter struct {
	EventName    string
	Step         string
	Status       string
	CategoryName string
	ToolName     string
	Since        *time.Time
	Until        *time.Time
	Limit        int
	Offset       int
	Descending   bool
}

// Checkpoint records the last completed pipeline stage for a job application
// together with a JSON snapshot of the execution state needed to resume.
type Checkpoint struct {
	JobApplicationID uuid.UUID      `json:"job_application_id"`
	Stage            string         `json:"stage"`
	State            map[string]any `json:"state,omitempty"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

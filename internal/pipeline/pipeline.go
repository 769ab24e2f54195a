// Package pipeline provides the high-level orchestration for the job
// application assistant: company discovery, research planning, parallel
// research execution, and the resume and cover letter draft cycles. Stages
// run as an explicit state machine with a checkpoint persisted after each
// completed stage so an interrupted run resumes where it stopped.
package pipeline

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/resumind/resumind/internal/db"
	"github.com/resumind/resumind/internal/events"
	"github.com/resumind/resumind/internal/llm"
	"github.com/resumind/resumind/internal/ratelimit"
	"github.com/resumind/resumind/internal/types"
)

// Pipeline stage names recorded in checkpoints, in execution order.
const (
	StageDiscovery   = "company_discovery"
	StagePlanning    = "research_planning"
	StageResearch    = "research"
	StageResume      = "resume"
	StageCoverLetter = "cover_letter"
)

var stageOrder = map[string]int{
	StageDiscovery:   0,
	StagePlanning:    1,
	StageResearch:    2,
	StageResume:      3,
	StageCoverLetter: 4,
}

// Loop bounds and draft cycle thresholds.
const (
	maxToolIterations        = 7
	maxEvaluations           = 5
	gradeThreshold           = 90
	structuredOutputMaxRetry = 3
)

// ErrAllResearchFailed is returned when every research category executor
// failed, leaving nothing to generate drafts from.
var ErrAllResearchFailed = errors.New("all research categories failed")

// Store is the persistence surface the pipeline writes through. *db.DB
// satisfies it; tests substitute an in-memory implementation.
type Store interface {
	GetJobApplication(ctx context.Context, id uuid.UUID) (*db.JobApplication, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	SaveDiscoveryResults(ctx context.Context, id uuid.UUID, profile *types.DiscoveredCompanyProfile) error
	SaveResearchPlan(ctx context.Context, id uuid.UUID, plan *types.ResearchPlan) error
	MergeResearchResult(ctx context.Context, id uuid.UUID, category, findings string) error
	SaveGeneratedResume(ctx context.Context, id uuid.UUID, resume *types.Resume) error
	SaveGeneratedCoverLetter(ctx context.Context, id uuid.UUID, coverLetter string) error
	SaveCheckpoint(ctx context.Context, cp *db.Checkpoint) error
	GetCheckpoint(ctx context.Context, id uuid.UUID) (*db.Checkpoint, error)
	DeleteCheckpoint(ctx context.Context, id uuid.UUID) error
}

// ToolRunner executes tool calls requested by the agent loops.
// *tools.Registry satisfies it.
type ToolRunner interface {
	Dispatch(ctx context.Context, call llm.ToolCall) (string, error)
}

// Config bundles the pipeline's collaborators.
type Config struct {
	Store   Store
	Emitter *events.Emitter
	LLM     llm.Client
	Tools   ToolRunner
	Limiter *ratelimit.Limiter
	Retry   ratelimit.RetryPolicy
	Logger  zerolog.Logger
}

// Pipeline runs the full customization flow for one job application.
type Pipeline struct {
	store   Store
	emitter *events.Emitter
	llm     llm.Client
	tools   ToolRunner
	limiter *ratelimit.Limiter
	retry   ratelimit.RetryPolicy
	logger  zerolog.Logger
}

// New creates a pipeline.
func New(cfg Config) *Pipeline {
	return &Pipeline{
		store:   cfg.Store,
		emitter: cfg.Emitter,
		llm:     cfg.LLM,
		tools:   cfg.Tools,
		limiter: cfg.Limiter,
		retry:   cfg.Retry,
		logger:  cfg.Logger.With().Str("component", "pipeline").Logger(),
	}
}

// invoke runs one rate-limited, retry-wrapped model turn.
func (p *Pipeline) invoke(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if err := p.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	return ratelimit.Retry(ctx, p.retry, func(ctx context.Context) (*llm.Response, error) {
		return p.llm.Invoke(ctx, req)
	})
}

// invokeStructured runs a schema-checked structured call with the shared
// limiter and retry policy applied to each underlying model turn.
func (p *Pipeline) invokeStructured(ctx context.Context, req llm.Request, schema []byte, out any) error {
	limited := &limitedClient{inner: p.llm, limiter: p.limiter, retry: p.retry}
	return llm.InvokeStructured(ctx, limited, req, schema, structuredOutputMaxRetry, out)
}

// limitedClient decorates an llm.Client with the run's rate limiter and
// retry policy.
type limitedClient struct {
	inner   llm.Client
	limiter *ratelimit.Limiter
	retry   ratelimit.RetryPolicy
}

func (c *limitedClient) Invoke(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	return ratelimit.Retry(ctx, c.retry, func(ctx context.Context) (*llm.Response, error) {
		return c.inner.Invoke(ctx, req)
	})
}

func (c *limitedClient) Close() error { return c.inner.Close() }

func errInfo(err error) map[string]any {
	return map[string]any{"message": err.Error()}
}

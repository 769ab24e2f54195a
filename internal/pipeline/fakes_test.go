package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/resumind/resumind/internal/db"
	"github.com/resumind/resumind/internal/events"
	"github.com/resumind/resumind/internal/llm"
	"github.com/resumind/resumind/internal/ratelimit"
	"github.com/resumind/resumind/internal/types"
)

// fakeStore is an in-memory Store that mirrors the persistence semantics the
// pipeline depends on.
type fakeStore struct {
	mu sync.Mutex

	app         *db.JobApplication
	checkpoints map[uuid.UUID]*db.Checkpoint
	statuses    []string

	resumeSaves      int
	coverLetterSaves int
}

func newFakeStore(app *db.JobApplication) *fakeStore {
	return &fakeStore{app: app, checkpoints: map[uuid.UUID]*db.Checkpoint{}}
}

func (s *fakeStore) GetJobApplication(_ context.Context, id uuid.UUID) (*db.JobApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.app == nil || s.app.ID != id {
		return nil, db.ErrNotFound
	}
	clone := *s.app
	return &clone, nil
}

func (s *fakeStore) UpdateStatus(_ context.Context, _ uuid.UUID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.app.Status = status
	s.statuses = append(s.statuses, status)
	return nil
}

func (s *fakeStore) profile() *types.CompanyProfile {
	if s.app.CompanyProfile == nil {
		s.app.CompanyProfile = &types.CompanyProfile{}
	}
	return s.app.CompanyProfile
}

func (s *fakeStore) SaveDiscoveryResults(_ context.Context, _ uuid.UUID, profile *types.DiscoveredCompanyProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile().DiscoveryResults = profile
	return nil
}

func (s *fakeStore) SaveResearchPlan(_ context.Context, _ uuid.UUID, plan *types.ResearchPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile().ResearchPlan = plan
	return nil
}

func (s *fakeStore) MergeResearchResult(_ context.Context, _ uuid.UUID, category, findings string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := s.profile()
	if cp.ResearchResults == nil {
		cp.ResearchResults = map[string]string{}
	}
	cp.ResearchResults[category] = findings
	return nil
}

func (s *fakeStore) SaveGeneratedResume(_ context.Context, _ uuid.UUID, resume *types.Resume) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.app.GeneratedResume = resume
	s.resumeSaves++
	return nil
}

func (s *fakeStore) SaveGeneratedCoverLetter(_ context.Context, _ uuid.UUID, coverLetter string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.app.GeneratedCoverLetter = &coverLetter
	s.coverLetterSaves++
	return nil
}

func (s *fakeStore) SaveCheckpoint(_ context.Context, cp *db.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp.UpdatedAt = time.Now()
	s.checkpoints[cp.JobApplicationID] = cp
	return nil
}

func (s *fakeStore) GetCheckpoint(_ context.Context, id uuid.UUID) (*db.Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp, ok := s.checkpoints[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return cp, nil
}

func (s *fakeStore) DeleteCheckpoint(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.checkpoints, id)
	return nil
}

// scriptedLLM routes each request through a caller-provided function.
type scriptedLLM struct {
	mu       sync.Mutex
	invoke   func(req llm.Request) (*llm.Response, error)
	requests []llm.Request
}

func (c *scriptedLLM) Invoke(_ context.Context, req llm.Request) (*llm.Response, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()
	return c.invoke(req)
}

func (c *scriptedLLM) Close() error { return nil }

// fakeTools routes tool dispatch through a caller-provided function.
type fakeTools struct {
	mu       sync.Mutex
	dispatch func(call llm.ToolCall) (string, error)
	calls    []llm.ToolCall
}

func (f *fakeTools) Dispatch(_ context.Context, call llm.ToolCall) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
	if f.dispatch == nil {
		return "ok", nil
	}
	return f.dispatch(call)
}

// eventRecorder is an in-memory events.Store.
type eventRecorder struct {
	mu     sync.Mutex
	events []*db.Event
}

func (r *eventRecorder) InsertEvent(_ context.Context, evt *db.Event) (*db.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return evt, nil
}

func (r *eventRecorder) ListEvents(_ context.Context, _ uuid.UUID, _ db.EventFilter) ([]db.Event, error) {
	return nil, nil
}

func (r *eventRecorder) LatestEventForStep(_ context.Context, _ uuid.UUID, _ string) (*db.Event, error) {
	return nil, db.ErrNotFound
}

func (r *eventRecorder) DeleteEvents(_ context.Context, _ uuid.UUID) (int64, error) {
	return 0, nil
}

// byName returns recorded events with the given event name.
func (r *eventRecorder) byName(name string) []*db.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*db.Event
	for _, evt := range r.events {
		if evt.EventName == name {
			out = append(out, evt)
		}
	}
	return out
}

func newTestPipeline(store *fakeStore, client llm.Client, runner ToolRunner) (*Pipeline, *eventRecorder) {
	recorder := &eventRecorder{}
	p := New(Config{
		Store:   store,
		Emitter: events.NewEmitter(recorder, zerolog.Nop()),
		LLM:     client,
		Tools:   runner,
		Limiter: ratelimit.NewLimiter(0, zerolog.Nop()),
		Retry:   ratelimit.NewRetryPolicy(1, time.Millisecond, zerolog.Nop()),
		Logger:  zerolog.Nop(),
	})
	return p, recorder
}

func testApplication() *db.JobApplication {
	return &db.JobApplication{
		ID:             uuid.New(),
		JobTitle:       "Backend Engineer",
		CompanyName:    "Acme Labs",
		JobDescription: "Build and operate Go services.",
		UserID:         uuid.New(),
		Status:         db.StatusStarted,
		OriginalResumeSnapshot: &types.Resume{
			Name:  "Ada Lovelace",
			Email: "ada@example.com",
			PersonalInfo: types.PersonalInfo{
				PhoneNumber:       "+1 555 0100",
				Address:           "London",
				Summary:           "Engineer",
				ProfessionalTitle: "Software Engineer",
			},
			WorkExperiences: []types.WorkExperience{{
				CompanyName:      "Analytical Engines Ltd",
				Position:         "Engineer",
				StartDate:        "2020-01",
				Responsibilities: "Built things",
			}},
			Educations: []types.Education{},
			Skills:     []types.Skill{{Name: "Go", ProficiencyLevel: "expert"}},
		},
	}
}

// validDiscoveryArgs is a discovery_done payload that passes both schema and
// field validation.
func validDiscoveryArgs() map[string]any {
	return map[string]any{
		"discovery_results": map[string]any{
			"company_name":         "Acme Labs",
			"official_website":     "https://acmelabs.com",
			"discovery_confidence": "high",
			"company_characteristics": map[string]any{
				"industry_sector":       "robotics",
				"company_size_estimate": "startup",
				"company_type":          "private",
			},
			"research_context": map[string]any{
				"information_availability": "medium",
				"web_presence_quality":     "professional",
				"research_difficulty":      "moderate",
			},
			"discovery_notes": "official site confirmed",
		},
	}
}

// testProfileWithResearch is a company profile as it looks after discovery,
// planning, and research have all completed.
func testProfileWithResearch() *types.CompanyProfile {
	profile, err := decodeDiscoveryResults(validDiscoveryArgs())
	if err != nil {
		panic(err)
	}
	return &types.CompanyProfile{
		DiscoveryResults: profile,
		ResearchPlan:     testPlan(),
		ResearchResults: map[string]string{
			"engineering_culture": "uses Go and Postgres",
			"company_strategy":    "expanding into industrial robotics",
		},
	}
}

func validPlanJSON() string {
	return `{
		"target_role": "Backend Engineer",
		"research_categories": [
			{
				"category_name": "engineering_culture",
				"description": "How the team builds software",
				"priority": 1,
				"data_points": ["tech stack", "practices"]
			},
			{
				"category_name": "company_strategy",
				"description": "Market position and direction",
				"priority": 2,
				"data_points": ["products"]
			}
		],
		"rationale": "startup with a strong web presence"
	}`
}

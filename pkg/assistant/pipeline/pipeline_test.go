package pipeline

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"portfolio-assistant-be/internal/pkg/logger"
	"portfolio-assistant-be/pkg/assistant/generate"
	"portfolio-assistant-be/pkg/assistant/prompt"
	"portfolio-assistant-be/pkg/assistant/query"
	"portfolio-assistant-be/pkg/assistant/retrieval"
	"portfolio-assistant-be/pkg/assistant/role"
	"portfolio-assistant-be/pkg/assistant/state"
	"portfolio-assistant-be/pkg/knowledge"
	"portfolio-assistant-be/pkg/llm"
)

// countingProvider serves a fixed response and counts calls.
type countingProvider struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
}

func (p *countingProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.response, p.err
}

func (p *countingProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, nil, options...)
}

func (p *countingProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// countingStore tracks search traffic and returns fixed documents.
type countingStore struct {
	mu    sync.Mutex
	docs  []knowledge.Document
	calls int
}

func (f *countingStore) Search(q string, k int, filter knowledge.Filter) []knowledge.Document {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.docs
}

func (f *countingStore) SearchCombined(q string, k int) []knowledge.Document {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.docs
}

func (f *countingStore) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestPipeline(provider llm.LLMProvider, store retrieval.Searcher) *Pipeline {
	nop := logger.NewNopLogger()
	builder := prompt.NewBuilder("Jane Doe", "Backend engineer who builds chat systems.")
	classifier := role.NewClassifier(0.9, nop)
	decomposer := query.NewDecomposer(provider, nop)
	orchestrator := retrieval.NewOrchestrator(store, decomposer, 3, nop)
	generator := generate.NewGenerator(provider, builder, generate.Config{
		TokenBudget:   2000,
		WarnFraction:  0.8,
		MaxRetries:    3,
		RetryDelay:    time.Millisecond,
		CallTimeout:   time.Second,
		Temperature:   0.7,
		CVDownloadURL: "https://example.com/cv.pdf",
	}, nop)
	return New(classifier, orchestrator, generator, builder, 5, nop)
}

func TestRunGreetingTurn(t *testing.T) {
	provider := &countingProvider{response: "model reply"}
	store := &countingStore{}
	p := newTestPipeline(provider, store)

	s := &state.Session{Input: "HI!", UserName: "Alice"}
	p.Run(context.Background(), s)

	if store.callCount() != 0 {
		t.Errorf("store searched %d times for a greeting, want 0", store.callCount())
	}
	if provider.callCount() != 0 {
		t.Errorf("model called %d times for a greeting, want 0", provider.callCount())
	}
	if !strings.Contains(s.Response, "Alice") {
		t.Errorf("greeting reply should address Alice: %q", s.Response)
	}
	if len(s.History) != 1 {
		t.Errorf("history length = %d, want the completed turn recorded", len(s.History))
	}
}

func TestRunRecruiterTurn(t *testing.T) {
	provider := &countingProvider{response: `["your main projects"]`}
	store := &countingStore{docs: []knowledge.Document{
		{Content: "Project: realtime analytics pipeline in Go", Metadata: knowledge.Metadata{"type": "project"}},
	}}
	p := newTestPipeline(provider, store)

	s := &state.Session{Input: "I'm hiring for an AI role, tell me about your projects", UserName: "Sam"}
	p.Run(context.Background(), s)

	if !s.IsRecruiter {
		t.Error("recruiter keywords should flip IsRecruiter in one turn")
	}
	if len(s.RetrievedDocs) == 0 {
		t.Error("a substantive question should retrieve documents")
	}
	if !strings.Contains(s.Persona, "professional") {
		t.Errorf("recruiter persona should be selected: %q", s.Persona)
	}
	if s.Response == "" {
		t.Error("turn must end with a response")
	}
}

func TestRunAlwaysProducesResponse(t *testing.T) {
	// Provider fails every call: decomposition falls back to the raw input
	// and generation lands on the persona fallback.
	provider := &countingProvider{err: &llm.StatusError{Code: 503}}
	store := &countingStore{}
	p := newTestPipeline(provider, store)

	s := &state.Session{Input: "what is your experience?"}
	p.Run(context.Background(), s)

	if strings.TrimSpace(s.Response) == "" {
		t.Fatal("pipeline must never end with an empty response")
	}
	if !strings.Contains(s.Response, "there") {
		t.Errorf("anonymous users are addressed as %q, got: %q", "there", s.Response)
	}
}

func TestRunBoundsHistory(t *testing.T) {
	provider := &countingProvider{response: "short reply"}
	store := &countingStore{}
	p := newTestPipeline(provider, store)

	s := &state.Session{UserName: "Alice"}
	questions := []string{
		"what is your current job?",
		"which skills do you have?",
		"tell me about your education",
		"what was your first job?",
		"do you like Go?",
		"what about Python?",
		"any open source work?",
	}
	for _, q := range questions {
		s.Input = q
		s.Response = ""
		p.Run(context.Background(), s)
	}

	if len(s.History) != 5 {
		t.Errorf("history length = %d, want capped at 5", len(s.History))
	}
	if s.History[0].User != questions[2] {
		t.Errorf("oldest retained turn = %q, want %q", s.History[0].User, questions[2])
	}
}

func TestRunCachesPersonaOnceIdentified(t *testing.T) {
	provider := &countingProvider{response: "reply"}
	store := &countingStore{}
	p := newTestPipeline(provider, store)

	s := &state.Session{Input: "hello", UserName: "Alice", RoleIdentified: true}
	s.Persona = "CACHED PERSONA"
	s.Confidence = state.RoleConfidence{Visitor: 0.95, Recruiter: 0.05}

	p.Run(context.Background(), s)

	if s.Persona != "CACHED PERSONA" {
		t.Errorf("identified role should keep the cached persona, got %q", s.Persona)
	}
}

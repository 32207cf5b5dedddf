package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"portfolio-assistant-be/internal/dto"
	"portfolio-assistant-be/internal/pkg/logger"
	"portfolio-assistant-be/internal/repository/memory"
	"portfolio-assistant-be/pkg/assistant/generate"
	"portfolio-assistant-be/pkg/assistant/pipeline"
	"portfolio-assistant-be/pkg/assistant/prompt"
	"portfolio-assistant-be/pkg/assistant/query"
	"portfolio-assistant-be/pkg/assistant/retrieval"
	"portfolio-assistant-be/pkg/assistant/role"
	"portfolio-assistant-be/pkg/knowledge"
	"portfolio-assistant-be/pkg/llm"
)

type fixedProvider struct{ response string }

func (p *fixedProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return p.response, nil
}

func (p *fixedProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.response, nil
}

type emptyStore struct{}

func (emptyStore) Search(q string, k int, f knowledge.Filter) []knowledge.Document { return nil }
func (emptyStore) SearchCombined(q string, k int) []knowledge.Document             { return nil }

func newTestService(repo *memory.SessionRepository) IChatService {
	nop := logger.NewNopLogger()
	provider := &fixedProvider{response: "a reply about my work"}
	builder := prompt.NewBuilder("Jane Doe", "Backend engineer.")
	p := pipeline.New(
		role.NewClassifier(0.9, nop),
		retrieval.NewOrchestrator(emptyStore{}, query.NewDecomposer(provider, nop), 3, nop),
		generate.NewGenerator(provider, builder, generate.Config{
			TokenBudget:  2000,
			WarnFraction: 0.8,
			MaxRetries:   1,
			RetryDelay:   time.Millisecond,
			CallTimeout:  time.Second,
		}, nop),
		builder,
		5,
		nop,
	)
	return NewChatService(p, repo, nop)
}

func TestChatCreatesSessionAndRespondsToGreeting(t *testing.T) {
	repo := memory.NewSessionRepository()
	svc := newTestService(repo)

	resp, err := svc.Chat(context.Background(), &dto.ChatRequest{
		Message:  "HI!",
		UserName: "Alice",
	})
	if err != nil {
		t.Fatalf("Chat error: %v", err)
	}

	if resp.SessionID == "" {
		t.Error("a fresh chat should be assigned a session id")
	}
	if !strings.Contains(resp.Response, "Alice") {
		t.Errorf("greeting reply should address Alice: %q", resp.Response)
	}

	session, found := repo.Get(resp.SessionID)
	if !found {
		t.Fatal("session should be persisted after the turn")
	}
	if len(session.History) != 1 {
		t.Errorf("history length = %d, want 1", len(session.History))
	}
}

func TestChatRehydratesSessionAcrossTurns(t *testing.T) {
	repo := memory.NewSessionRepository()
	svc := newTestService(repo)

	first, err := svc.Chat(context.Background(), &dto.ChatRequest{Message: "hello", UserName: "Alice"})
	if err != nil {
		t.Fatalf("first Chat error: %v", err)
	}

	second, err := svc.Chat(context.Background(), &dto.ChatRequest{
		Message:   "what do you work on?",
		SessionID: first.SessionID,
	})
	if err != nil {
		t.Fatalf("second Chat error: %v", err)
	}
	if second.SessionID != first.SessionID {
		t.Errorf("SessionID changed across turns: %q vs %q", second.SessionID, first.SessionID)
	}

	session, _ := repo.Get(first.SessionID)
	if len(session.History) != 2 {
		t.Errorf("history length = %d, want 2", len(session.History))
	}
	// The name set on the first turn survives turns that omit it.
	if session.UserName != "Alice" {
		t.Errorf("UserName = %q, want Alice", session.UserName)
	}
}

func TestChatSeedsClientHeldHistory(t *testing.T) {
	repo := memory.NewSessionRepository()
	svc := newTestService(repo)

	resp, err := svc.Chat(context.Background(), &dto.ChatRequest{
		Message:   "and what about Go?",
		SessionID: "client-session",
		History: []dto.ChatTurnDTO{
			{User: "what languages do you use?", Assistant: "Mostly Go and Python."},
		},
	})
	if err != nil {
		t.Fatalf("Chat error: %v", err)
	}

	session, found := repo.Get(resp.SessionID)
	if !found {
		t.Fatal("session should be persisted")
	}
	if len(session.History) != 2 {
		t.Fatalf("history length = %d, want seeded turn + new turn", len(session.History))
	}
	if session.History[0].User != "what languages do you use?" {
		t.Errorf("seeded turn = %q, want the client-held history first", session.History[0].User)
	}
}

func TestChatSerializesConcurrentTurnsOnOneSession(t *testing.T) {
	repo := memory.NewSessionRepository()
	svc := newTestService(repo)

	const turns = 4
	var wg sync.WaitGroup
	errs := make(chan error, turns)
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Chat(context.Background(), &dto.ChatRequest{
				Message:   fmt.Sprintf("question %d about your education", i),
				SessionID: "shared-session",
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Chat error: %v", err)
		}
	}

	session, found := repo.Get("shared-session")
	if !found {
		t.Fatal("shared session should be persisted")
	}
	// Every turn lands in history exactly once; none is lost to a race.
	if len(session.History) != turns {
		t.Errorf("history length = %d, want %d", len(session.History), turns)
	}
	for _, turn := range session.History {
		if turn.Assistant == "" {
			t.Errorf("turn %q recorded without a response", turn.User)
		}
	}
}

func TestChatAcceptsLegacyInputField(t *testing.T) {
	repo := memory.NewSessionRepository()
	svc := newTestService(repo)

	resp, err := svc.Chat(context.Background(), &dto.ChatRequest{Input: "hello", UserName: "Bob"})
	if err != nil {
		t.Fatalf("Chat error: %v", err)
	}
	if !strings.Contains(resp.Response, "Bob") {
		t.Errorf("reply should address Bob: %q", resp.Response)
	}
}

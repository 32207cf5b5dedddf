package pipeline

import (
	"context"
	"fmt"
	"strings"

	"portfolio-assistant-be/internal/pkg/logger"
	"portfolio-assistant-be/pkg/assistant/generate"
	"portfolio-assistant-be/pkg/assistant/prompt"
	"portfolio-assistant-be/pkg/assistant/retrieval"
	"portfolio-assistant-be/pkg/assistant/role"
	"portfolio-assistant-be/pkg/assistant/state"
)

// Stage names the states of the per-turn machine.
type Stage string

const (
	StageReceive             Stage = "receive"
	StageClassifyRole        Stage = "classify_role"
	StageProfessionalContext Stage = "professional_context"
	StageVisitorContext      Stage = "visitor_context"
	StageRetrieveContext     Stage = "retrieve_context"
	StageGenerateResponse    Stage = "generate_response"
	StageFormatResponse      Stage = "format_response"
	StageUpdateMemory        Stage = "update_memory"
	StageReturnResponse      Stage = "return_response"
	StageDone                Stage = "done"
)

// The last line of defense when every stage failed to produce text.
const emptyResponseSentinel = "No response generated."

// node pairs a stage's work with its transition. Every edge is
// unconditional except the persona fork after classification.
type node struct {
	run  func(ctx context.Context, s *state.Session)
	next func(s *state.Session) Stage
}

// Pipeline drives one conversational turn through a fixed stage order.
// It runs exactly once per inbound request; looping across turns is the
// caller's job via the session store.
type Pipeline struct {
	classifier    *role.Classifier
	retriever     *retrieval.Orchestrator
	generator     *generate.Generator
	builder       *prompt.Builder
	historyWindow int
	log           logger.ILogger

	nodes map[Stage]node
}

func New(
	classifier *role.Classifier,
	retriever *retrieval.Orchestrator,
	generator *generate.Generator,
	builder *prompt.Builder,
	historyWindow int,
	log logger.ILogger,
) *Pipeline {
	p := &Pipeline{
		classifier:    classifier,
		retriever:     retriever,
		generator:     generator,
		builder:       builder,
		historyWindow: historyWindow,
		log:           log,
	}
	p.nodes = map[Stage]node{
		StageReceive: {
			run:  func(_ context.Context, s *state.Session) { s.Normalize() },
			next: to(StageClassifyRole),
		},
		StageClassifyRole: {
			run: func(_ context.Context, s *state.Session) { p.classifier.Classify(s) },
			next: func(s *state.Session) Stage {
				if s.IsRecruiter {
					return StageProfessionalContext
				}
				return StageVisitorContext
			},
		},
		StageProfessionalContext: {
			run:  func(_ context.Context, s *state.Session) { p.selectPersona(s, prompt.RoleRecruiter) },
			next: to(StageRetrieveContext),
		},
		StageVisitorContext: {
			run:  func(_ context.Context, s *state.Session) { p.selectPersona(s, prompt.RoleVisitor) },
			next: to(StageRetrieveContext),
		},
		StageRetrieveContext: {
			run:  func(ctx context.Context, s *state.Session) { p.retriever.Retrieve(ctx, s) },
			next: to(StageGenerateResponse),
		},
		StageGenerateResponse: {
			run:  func(ctx context.Context, s *state.Session) { p.generator.Generate(ctx, s) },
			next: to(StageFormatResponse),
		},
		StageFormatResponse: {
			run:  func(_ context.Context, s *state.Session) { s.Response = strings.TrimSpace(s.Response) },
			next: to(StageUpdateMemory),
		},
		StageUpdateMemory: {
			run:  func(_ context.Context, s *state.Session) { s.Remember(s.Input, s.Response, p.historyWindow) },
			next: to(StageReturnResponse),
		},
		StageReturnResponse: {
			run: func(_ context.Context, s *state.Session) {
				if s.Response == "" {
					s.Response = emptyResponseSentinel
				}
			},
			next: to(StageDone),
		},
	}
	return p
}

func to(stage Stage) func(*state.Session) Stage {
	return func(*state.Session) Stage { return stage }
}

// Run executes the turn. The pipeline is total: whatever happens inside a
// stage, the session ends up with a non-empty response.
func (p *Pipeline) Run(ctx context.Context, s *state.Session) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("pipeline", "stage panicked", map[string]interface{}{
				"panic": fmt.Sprint(r),
			})
			if s.Response == "" {
				s.Response = fmt.Sprintf(
					"Hey %s, something went wrong on my end — let's try another question!", s.UserName)
			}
		}
	}()

	for stage := StageReceive; stage != StageDone; {
		n, ok := p.nodes[stage]
		if !ok {
			p.log.Error("pipeline", "unknown stage", map[string]interface{}{"stage": string(stage)})
			break
		}
		n.run(ctx, s)
		stage = n.next(s)
	}

	if s.Response == "" {
		s.Response = emptyResponseSentinel
	}
}

// selectPersona caches the role-toned persona block. Once the role is
// identified with high confidence, the cached string is reused instead of
// rebuilding it every turn.
func (p *Pipeline) selectPersona(s *state.Session, roleName string) {
	if s.RoleIdentified && s.Persona != "" {
		return
	}
	s.Persona = p.builder.PersonaBlock(roleName)
}

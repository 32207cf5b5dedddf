package generate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"portfolio-assistant-be/internal/pkg/logger"
	"portfolio-assistant-be/pkg/assistant/prompt"
	"portfolio-assistant-be/pkg/assistant/state"
	"portfolio-assistant-be/pkg/llm"
)

const fallbackTruncateLen = 300

type Config struct {
	TokenBudget   int
	WarnFraction  float64
	MaxRetries    int
	RetryDelay    time.Duration
	CallTimeout   time.Duration
	Temperature   float64
	CVDownloadURL string
}

// Generator is the only pipeline stage allowed to call the model. Per
// call: budget check, greeting fast paths, bounded retry on transient
// failures, then the fallback chain. It always leaves a non-empty,
// persona-consistent response on the session.
type Generator struct {
	provider llm.LLMProvider
	builder  *prompt.Builder
	cfg      Config
	log      logger.ILogger
}

func NewGenerator(provider llm.LLMProvider, builder *prompt.Builder, cfg Config, log logger.ILogger) *Generator {
	return &Generator{
		provider: provider,
		builder:  builder,
		cfg:      cfg,
		log:      log,
	}
}

func (g *Generator) Generate(ctx context.Context, s *state.Session) {
	// 1. Budget check: hard cutoff, no model call.
	if s.TokensUsed >= g.cfg.TokenBudget {
		s.Response = fmt.Sprintf(
			"Hey %s, we've covered a lot this session! Let's take a short break — come back anytime and we can pick up right here.",
			s.UserName)
		g.log.Info("generate", "session token budget exhausted", map[string]interface{}{
			"tokens_used": s.TokensUsed,
			"budget":      g.cfg.TokenBudget,
		})
		return
	}

	// 2. Fast paths: the most common inputs get deterministic answers and
	// cost nothing.
	if canned, ok := g.fastPath(s); ok {
		s.Response = canned
		return
	}

	// 3. Model call with bounded retry.
	systemPrompt := g.systemPrompt(s)
	responseText, err := g.callModel(ctx, systemPrompt, s)

	// 4. Fallback chain.
	if err != nil || strings.TrimSpace(responseText) == "" {
		if err != nil {
			g.log.Error("generate", "model call failed, falling back", map[string]interface{}{
				"error": err.Error(),
			})
		}
		responseText = g.fallback(s)
	}

	// CV directive: the model asks us to attach the document.
	if strings.Contains(responseText, "[SEND_CV]") {
		responseText = strings.TrimSpace(strings.ReplaceAll(responseText, "[SEND_CV]", ""))
		s.FileURL = g.cfg.CVDownloadURL
	}

	// 5. Token accounting: word counts are a crude proxy, good enough for
	// a soft safety valve.
	s.TokensUsed += countWords(systemPrompt) + countWords(s.Input) + countWords(responseText)
	if float64(s.TokensUsed) >= g.cfg.WarnFraction*float64(g.cfg.TokenBudget) {
		responseText += "\n\n(We're getting close to this session's chat limit — ask me the important things first!)"
	}

	s.Response = responseText
}

func (g *Generator) fastPath(s *state.Session) (string, bool) {
	normalized := strings.Trim(strings.ToLower(strings.TrimSpace(s.Input)), "!.?, ")
	switch normalized {
	case "hi", "hello", "hey":
		return fmt.Sprintf("Hey %s! I'm %s — excited to chat! What brought you here today?",
			s.UserName, g.builder.OwnerName()), true
	case "how are you", "how are you doing":
		return fmt.Sprintf("I'm doing great, %s, thanks for asking! Always happy to talk about what I've been building. What would you like to know?",
			s.UserName), true
	}
	return "", false
}

func (g *Generator) systemPrompt(s *state.Session) string {
	personaBlock := s.Persona
	if personaBlock == "" {
		role := prompt.RoleVisitor
		if s.IsRecruiter {
			role = prompt.RoleRecruiter
		}
		personaBlock = g.builder.PersonaBlock(role)
	}
	return g.builder.Compose(personaBlock, s.UserName, s.RetrievedDocs)
}

// callModel retries transient failures (rate limits, upstream outages,
// timeouts) up to the configured bound with a fixed, context-aware delay.
// Anything else aborts immediately.
func (g *Generator) callModel(ctx context.Context, systemPrompt string, s *state.Session) (string, error) {
	messages := make([]llm.Message, 0, len(s.History)*2+1)
	for _, turn := range s.History {
		messages = append(messages,
			llm.Message{Role: "user", Content: turn.User},
			llm.Message{Role: "assistant", Content: turn.Assistant},
		)
	}
	messages = append(messages, llm.Message{Role: "user", Content: s.Input})

	operation := func() (string, error) {
		callCtx, cancel := context.WithTimeout(ctx, g.cfg.CallTimeout)
		defer cancel()

		out, err := g.provider.Chat(callCtx, messages,
			llm.WithSystemPrompt(systemPrompt),
			llm.WithTemperature(g.cfg.Temperature),
		)
		if err != nil {
			if llm.IsTransient(err) {
				return "", err
			}
			return "", backoff.Permanent(err)
		}
		return out, nil
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(g.cfg.RetryDelay)),
		backoff.WithMaxTries(uint(g.cfg.MaxRetries)),
	)
}

// fallback synthesizes a reply from retrieved facts when available, else
// from the persona summary. Either way it stays addressed to the user and
// ends on a question, so the conversation survives a full model outage.
func (g *Generator) fallback(s *state.Session) string {
	if len(s.RetrievedDocs) > 0 {
		return fmt.Sprintf("Hey %s, I'm having a small glitch on my end, but here's what I can tell you: %s What else would you like to explore?",
			s.UserName, truncate(s.RetrievedDocs[0].Content, fallbackTruncateLen))
	}
	return fmt.Sprintf("Hey %s, something went a bit sideways on my end! In short: %s What would you like to ask about?",
		s.UserName, g.builder.PersonaSummary())
}

func countWords(text string) int {
	return len(strings.Fields(text))
}

func truncate(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen] + "..."
}

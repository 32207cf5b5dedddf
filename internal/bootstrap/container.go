package bootstrap

import (
	"context"
	"log"

	"portfolio-assistant-be/internal/config"
	"portfolio-assistant-be/internal/controller"
	"portfolio-assistant-be/internal/pkg/logger"
	"portfolio-assistant-be/internal/repository/memory"
	"portfolio-assistant-be/internal/service"
	"portfolio-assistant-be/pkg/assistant/generate"
	"portfolio-assistant-be/pkg/assistant/pipeline"
	"portfolio-assistant-be/pkg/assistant/prompt"
	"portfolio-assistant-be/pkg/assistant/query"
	"portfolio-assistant-be/pkg/assistant/retrieval"
	"portfolio-assistant-be/pkg/assistant/role"
	"portfolio-assistant-be/pkg/embedding"
	"portfolio-assistant-be/pkg/knowledge"
	"portfolio-assistant-be/pkg/knowledge/loader"
	"portfolio-assistant-be/pkg/llm/factory"
	"portfolio-assistant-be/pkg/refresh"
)

// Container owns every constructed dependency and its lifecycle: build
// here, refresh via the Refresher, tear down in Close. No ambient
// singletons.
type Container struct {
	Logger           logger.ILogger
	Store            *knowledge.Store
	Refresher        *refresh.Refresher
	ChatController   controller.IChatController
	HealthController controller.IHealthController
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaEmbedModel)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaEmbedModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	llmModel := cfg.Ai.LLMModel
	if cfg.Ai.LLMProvider == "ollama" {
		llmModel = cfg.Ai.OllamaModel
	}
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		llmModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.GoogleGemini,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, llmModel)

	// 3. Knowledge Store (static + dynamic partitions)
	staticLoader := loader.NewStaticLoader(cfg.Knowledge.ProfilePath)
	githubLoader := loader.NewGitHubLoader(cfg.Knowledge.GitHubUsername, cfg.Keys.GitHub)
	store := knowledge.NewStore(embeddingProvider, staticLoader, githubLoader, sysLogger)

	if err := store.Update(context.Background()); err != nil {
		sysLogger.Warn("bootstrap", "initial knowledge build failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	refresher := refresh.NewRefresher(store, cfg.Knowledge.RefreshInterval, cfg.Knowledge.ProfilePath, sysLogger)

	// 4. Conversational Pipeline
	ownerName, personaSummary := ownerPersona(cfg, sysLogger)
	promptBuilder := prompt.NewBuilder(ownerName, personaSummary)

	classifier := role.NewClassifier(cfg.Assistant.RoleThreshold, sysLogger)
	decomposer := query.NewDecomposer(llmProvider, sysLogger)
	orchestrator := retrieval.NewOrchestrator(store, decomposer, cfg.Assistant.SearchK, sysLogger)
	generator := generate.NewGenerator(llmProvider, promptBuilder, generate.Config{
		TokenBudget:   cfg.Assistant.TokenBudget,
		WarnFraction:  cfg.Assistant.TokenWarnFraction,
		MaxRetries:    cfg.Assistant.MaxRetries,
		RetryDelay:    cfg.Assistant.RetryDelay,
		CallTimeout:   cfg.Assistant.LLMTimeout,
		Temperature:   cfg.Ai.Temperature,
		CVDownloadURL: cfg.Assistant.CVDownloadURL,
	}, sysLogger)

	turnPipeline := pipeline.New(classifier, orchestrator, generator, promptBuilder,
		cfg.Assistant.HistoryWindow, sysLogger)

	// 5. Services & Controllers
	sessionRepo := memory.NewSessionRepository()
	chatService := service.NewChatService(turnPipeline, sessionRepo, sysLogger)

	return &Container{
		Logger:           sysLogger,
		Store:            store,
		Refresher:        refresher,
		ChatController:   controller.NewChatController(chatService),
		HealthController: controller.NewHealthController(),
	}
}

// Close tears down background work and flushes logs.
func (c *Container) Close() {
	if c.Refresher != nil {
		c.Refresher.Stop()
	}
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
}

// ownerPersona derives the assistant's identity from the profile file; a
// missing profile still yields a usable generic persona.
func ownerPersona(cfg *config.Config, log logger.ILogger) (string, string) {
	profile, err := loader.ReadProfile(cfg.Knowledge.ProfilePath)
	if err != nil {
		log.Warn("bootstrap", "profile unavailable, using generic persona", map[string]interface{}{
			"error": err.Error(),
		})
		return "the portfolio owner", "A software engineer happy to talk about their work."
	}
	return profile.Name, profile.Summary
}

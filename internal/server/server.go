package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mid "github.com/ntria/backend/internal/server/middleware"
	"github.com/ntria/backend/internal/util"
	"github.com/ntria/backend/pkg/ai"
	"github.com/ntria/backend/pkg/ai/gemini"
	"github.com/ntria/backend/pkg/ai/ollama"
	"github.com/ntria/backend/pkg/ai/openai"
	"github.com/ntria/backend/pkg/logger"
	"github.com/ntria/backend/pkg/rag"
	"github.com/ntria/backend/pkg/vector"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// Init builds the provider chain, the knowledge stores and the pipeline,
// then serves HTTP until interrupted.
func Init() {
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chain := buildChain()
	logger.Info("Generation chain configured", "providers", chain.Providers())

	index, err := vector.Open(ctx, vector.OpenParams{
		Backend:        util.GetEnvString("VECTOR_BACKEND", vector.BackendLocal),
		ChunksPath:     util.GetEnvString("CHUNKS_PATH", "data/chunks.json"),
		PineconeHost:   util.GetEnv("PINECONE_HOST"),
		PineconeAPIKey: util.GetEnv("PINECONE_API_KEY"),
		DatabaseURL:    util.GetEnv("DATABASE_URL"),
		Embedder:       buildEmbedder(),
	})
	if err != nil {
		logger.Fatal("Failed to open vector index", "err", err)
	}
	logger.Info("Vector index ready", "backend", index.Name())

	pipeline := rag.NewPipeline(rag.PipelineParams{
		Chain:     chain,
		GraphPath: util.GetEnvString("GRAPH_DB_PATH", "data/knowledge_graph.json"),
		Index:     index,
		Searcher: rag.NewWebSearcher(rag.WebSearcherParams{
			SerperKey:    util.GetEnv("SERPER_API_KEY"),
			TavilyKey:    util.GetEnv("TAVILY_API_KEY"),
			GoogleCSEKey: util.GetEnv("GOOGLE_SEARCH_KEY"),
			GoogleCSEID:  util.GetEnv("GOOGLE_SEARCH_ID"),
		}),
		TopK: int(util.GetEnvNumeric("RAG_TOP_K", rag.DefaultTopK)),
	})
	pipeline.Warmup()

	app := &mid.App{Pipeline: pipeline}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(
		rate.Limit(util.GetEnvNumeric("RATE_LIMIT_RPS", 10)),
	)))

	RegisterRoutes(e)

	go func() {
		port := util.GetEnvString("PORT", "8080")
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}

// buildChain assembles the generation fallback chain: Groq first, Gemini
// second, a local Ollama last when configured. Unconfigured providers are
// included but skipped at call time.
func buildChain() *ai.Chain {
	providers := []ai.Provider{
		openai.NewClient(openai.ClientParams{
			Name:      "groq",
			ChatModel: util.GetEnvString("GROQ_MODEL", "llama-3.3-70b-versatile"),
			ChatURL:   util.GetEnvString("GROQ_API_URL", "https://api.groq.com/openai/v1"),
			ChatKey:   util.GetEnv("GROQ_API_KEY"),
		}),
		gemini.NewClient(gemini.ClientParams{
			Model:  util.GetEnvString("GEMINI_MODEL", "gemini-pro"),
			APIKey: util.GetEnv("GEMINI_API_KEY"),
		}),
	}

	if util.GetEnv("OLLAMA_URL") != "" {
		client, err := ollama.NewClient(ollama.ClientParams{
			ChatModel:             util.GetEnv("OLLAMA_CHAT_MODEL"),
			EmbeddingModel:        util.GetEnv("OLLAMA_EMBED_MODEL"),
			EmbedDimensions:       int(util.GetEnvNumeric("OLLAMA_EMBED_DIM", 1024)),
			BaseURL:               util.GetEnv("OLLAMA_URL"),
			ApiKey:                util.GetEnv("OLLAMA_API_KEY"),
			MaxConcurrentRequests: int64(util.GetEnvNumeric("OLLAMA_PARALLEL_REQ", 4)),
		})
		if err != nil {
			logger.Fatal("Failed to create Ollama client", "err", err)
		}
		providers = append(providers, client)
	}

	return ai.NewChain(providers...)
}

// buildEmbedder selects the embedding backend for the pinecone and
// pgvector adapters. Returns nil when none is configured, which the local
// adapter does not need.
func buildEmbedder() ai.Embedder {
	if util.GetEnv("AI_EMBED_KEY") != "" {
		return openai.NewClient(openai.ClientParams{
			Name:           "embeddings",
			EmbeddingModel: util.GetEnvString("AI_EMBED_MODEL", "text-embedding-3-small"),
			EmbeddingURL:   util.GetEnv("AI_EMBED_URL"),
			EmbeddingKey:   util.GetEnv("AI_EMBED_KEY"),
		})
	}

	if util.GetEnv("OLLAMA_URL") != "" && util.GetEnv("OLLAMA_EMBED_MODEL") != "" {
		client, err := ollama.NewClient(ollama.ClientParams{
			EmbeddingModel:        util.GetEnv("OLLAMA_EMBED_MODEL"),
			EmbedDimensions:       int(util.GetEnvNumeric("OLLAMA_EMBED_DIM", 1024)),
			BaseURL:               util.GetEnv("OLLAMA_URL"),
			ApiKey:                util.GetEnv("OLLAMA_API_KEY"),
			MaxConcurrentRequests: int64(util.GetEnvNumeric("OLLAMA_PARALLEL_REQ", 4)),
		})
		if err != nil {
			logger.Fatal("Failed to create Ollama embedder", "err", err)
		}
		return client
	}

	return nil
}

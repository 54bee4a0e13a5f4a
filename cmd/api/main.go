package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/MohamedImran7868/Mira/internal/config"
	"github.com/MohamedImran7868/Mira/internal/handler"
	"github.com/MohamedImran7868/Mira/internal/service/emotion"
	"github.com/MohamedImran7868/Mira/internal/service/generate"
	"github.com/MohamedImran7868/Mira/internal/service/orchestrator"
	"github.com/MohamedImran7868/Mira/internal/service/session"
	"github.com/MohamedImran7868/Mira/internal/service/transcript"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Generation capability: acquired once at startup and shared read-only
	// across sessions. A missing capability is not fatal; replies degrade
	// to the apology path instead.
	completer, chatModel := buildCompleter(ctx, cfg.AI)
	coordinator := generate.NewCoordinator(completer, cfg.AI.StreamResponse)

	// Classification capability.
	var classifier emotion.Capability = emotion.HeuristicCapability{}
	if cfg.AI.ClassifierLLM {
		if chatModel != nil {
			llmCapability, err := emotion.NewLLMCapability(ctx, chatModel)
			if err != nil {
				log.Printf("warning: failed to initialize LLM classifier, using heuristics: %v", err)
			} else {
				classifier = llmCapability
				log.Println("LLM emotion classifier enabled")
			}
		} else {
			log.Println("LLM classifier requested but chat model unavailable, falling back to heuristics")
		}
	}
	extractor := emotion.NewExtractor(classifier)

	// Session context store.
	var store session.Store
	if cfg.Session.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Session.RedisAddr,
			Password: cfg.Session.RedisPassword,
			DB:       cfg.Session.RedisDB,
		})
		store = session.NewRedisStore(rdb)
		log.Printf("session contexts stored in redis at %s", cfg.Session.RedisAddr)
	} else {
		store = session.NewMemoryStore()
		log.Println("session contexts stored in process memory")
	}

	transcripts := transcript.NewPersister(cfg.Transcript.Dir)
	orch := orchestrator.New(extractor, store, coordinator, transcripts)

	router := handler.NewRouter(orch)

	startServer(ctx, cfg.Server, router)
}

// buildCompleter initializes the configured generation provider. It also
// returns the eino chat model when one was created so the LLM classifier
// can reuse the same instance.
func buildCompleter(ctx context.Context, cfg config.AIConfig) (generate.Completer, model.ChatModel) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		if !cfg.OpenAIEnabled() {
			log.Println("OpenAI credentials not configured, generation runs in degraded mode")
			return nil, nil
		}
		completer, err := generate.NewOpenAICompleter(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if err != nil {
			log.Printf("warning: failed to initialize OpenAI completer: %v", err)
			return nil, nil
		}
		log.Println("OpenAI generation capability initialized")
		return completer, nil
	default:
		if !cfg.ArkEnabled() {
			log.Println("Ark credentials not configured, generation runs in degraded mode")
			return nil, nil
		}
		chatModel, err := cfg.NewArkChatModel(ctx)
		if err != nil {
			log.Printf("warning: failed to create ark chat model: %v", err)
			return nil, nil
		}
		completer, err := generate.NewArkCompleter(chatModel)
		if err != nil {
			log.Printf("warning: failed to initialize ark completer: %v", err)
			return nil, nil
		}
		log.Println("Ark generation capability initialized")
		return completer, chatModel
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Mira backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

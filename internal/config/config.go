package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Generation provider names accepted in MIRA_PROVIDER.
const (
	ProviderArk    = "ark"
	ProviderOpenAI = "openai"
)

// Config aggregates every runtime setting of the service.
type Config struct {
	Server     ServerConfig
	AI         AIConfig
	Session    SessionConfig
	Transcript TranscriptConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:     server,
		AI:         ai,
		Session:    loadSessionConfig(),
		Transcript: loadTranscriptConfig(),
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Allow passing ":8080" or "127.0.0.1:8080" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig holds generation and classification capability settings. Exactly
// one generation provider is active per process.
type AIConfig struct {
	Provider string

	// Ark credentials (used via the eino chat model).
	ArkAPIKey    string
	ArkAccessKey string
	ArkSecretKey string
	ArkBaseURL   string
	ArkRegion    string

	// OpenAI credentials (alternate provider).
	OpenAIAPIKey string
	OpenAIModel  string

	Model          string
	StreamResponse bool

	// ClassifierLLM switches the emotion classifier from the keyword
	// heuristic to the chat-model-backed classifier.
	ClassifierLLM bool
}

// ArkEnabled reports whether the Ark credentials are usable.
func (c AIConfig) ArkEnabled() bool {
	return c.Model != "" && (c.ArkAPIKey != "" || (c.ArkAccessKey != "" && c.ArkSecretKey != ""))
}

// OpenAIEnabled reports whether the OpenAI credentials are usable.
func (c AIConfig) OpenAIEnabled() bool {
	return c.OpenAIAPIKey != "" && c.OpenAIModel != ""
}

// NewArkChatModel creates the eino chat model from the Ark settings.
// Request-level parameters (temperature, top_p, max tokens) are set per
// call, not here.
func (c AIConfig) NewArkChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.ArkEnabled() {
		return nil, fmt.Errorf("ark credentials or model missing: provide ARK_API_KEY + MIRA_MODEL or the AK/SK pair")
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:   c.ArkBaseURL,
		Region:    c.ArkRegion,
		APIKey:    c.ArkAPIKey,
		AccessKey: c.ArkAccessKey,
		SecretKey: c.ArkSecretKey,
		Model:     c.Model,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	stream, err := parseBoolEnv("ARK_STREAM", true)
	if err != nil {
		return AIConfig{}, err
	}

	classifierLLM, err := parseBoolEnv("MIRA_CLASSIFIER_LLM", false)
	if err != nil {
		return AIConfig{}, err
	}

	provider := strings.ToLower(strings.TrimSpace(os.Getenv("MIRA_PROVIDER")))
	if provider == "" {
		provider = ProviderArk
	}
	if provider != ProviderArk && provider != ProviderOpenAI {
		return AIConfig{}, fmt.Errorf("invalid MIRA_PROVIDER value %q: want %s or %s", provider, ProviderArk, ProviderOpenAI)
	}

	return AIConfig{
		Provider:       provider,
		ArkAPIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		ArkAccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		ArkSecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		ArkBaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		ArkRegion:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		OpenAIAPIKey:   strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:    strings.TrimSpace(os.Getenv("OPENAI_MODEL")),
		Model:          strings.TrimSpace(os.Getenv("MIRA_MODEL")),
		StreamResponse: stream,
		ClassifierLLM:  classifierLLM,
	}, nil
}

// SessionConfig selects the session context store backend. An empty
// RedisAddr keeps contexts in process memory.
type SessionConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

func loadSessionConfig() SessionConfig {
	db := 0
	if raw := strings.TrimSpace(os.Getenv("REDIS_DB")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			db = parsed
		}
	}

	return SessionConfig{
		RedisAddr:     strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword: strings.TrimSpace(os.Getenv("REDIS_PASSWORD")),
		RedisDB:       db,
	}
}

// TranscriptConfig locates the durable transcript directory.
type TranscriptConfig struct {
	Dir string
}

func loadTranscriptConfig() TranscriptConfig {
	return TranscriptConfig{Dir: getEnvOrDefault("TRANSCRIPT_DIR", "conversations")}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

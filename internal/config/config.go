package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"

	"github.com/leadline/diagnostic/backend/internal/model/dialogue"
)

// Config aggregates every setting of the diagnostic backend.
type Config struct {
	Server   ServerConfig
	Dialogue DialogueConfig
	AI       AIConfig
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	dlg, err := loadDialogueConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Dialogue: dlg, AI: ai}, nil
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
		// Allow ":8080" or "127.0.0.1:8080" verbatim.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// DialogueConfig tunes the scripted session behavior.
type DialogueConfig struct {
	// CostFloor and CostSpan bound the randomized annual estimate:
	// the draw lands in [CostFloor, CostFloor+CostSpan).
	CostFloor int
	CostSpan  int
	// AgentDelay is the simulated agent round-trip latency.
	AgentDelay time.Duration
	// FollowUpDelay overrides how long after the diagnosis the
	// follow-up message appears; zero keeps the script default.
	FollowUpDelay time.Duration
	// SessionTTL is how long an idle session survives before the
	// janitor discards it.
	SessionTTL time.Duration
	// CTATargets are the host actions returned on CTA selection.
	CTATargets map[dialogue.CTA]string
}

func loadDialogueConfig() (DialogueConfig, error) {
	cfg := DialogueConfig{
		CostFloor:  150000,
		CostSpan:   300000,
		AgentDelay: 1500 * time.Millisecond,
		SessionTTL: 30 * time.Minute,
		CTATargets: map[dialogue.CTA]string{
			dialogue.CTAAnalysis: getEnvOrDefault("CTA_ANALYSIS_URL", "/funnel-analysis"),
			dialogue.CTACall:     getEnvOrDefault("CTA_CALL_URL", "/book-a-call"),
			dialogue.CTASprint:   getEnvOrDefault("CTA_SPRINT_URL", "/pilot-sprint"),
		},
	}

	if floor, err := parseOptionalIntEnv("DIAG_COST_FLOOR"); err != nil {
		return DialogueConfig{}, err
	} else if floor != nil {
		if *floor <= 0 {
			return DialogueConfig{}, fmt.Errorf("DIAG_COST_FLOOR must be positive, got %d", *floor)
		}
		cfg.CostFloor = *floor
	}

	if span, err := parseOptionalIntEnv("DIAG_COST_SPAN"); err != nil {
		return DialogueConfig{}, err
	} else if span != nil {
		if *span <= 0 {
			return DialogueConfig{}, fmt.Errorf("DIAG_COST_SPAN must be positive, got %d", *span)
		}
		cfg.CostSpan = *span
	}

	if delay, err := parseOptionalIntEnv("DIAG_AGENT_DELAY_MS"); err != nil {
		return DialogueConfig{}, err
	} else if delay != nil {
		cfg.AgentDelay = time.Duration(*delay) * time.Millisecond
	}

	if delay, err := parseOptionalIntEnv("DIAG_FOLLOWUP_DELAY_MS"); err != nil {
		return DialogueConfig{}, err
	} else if delay != nil {
		cfg.FollowUpDelay = time.Duration(*delay) * time.Millisecond
	}

	if ttl, err := parseOptionalIntEnv("DIAG_SESSION_TTL_MIN"); err != nil {
		return DialogueConfig{}, err
	} else if ttl != nil {
		cfg.SessionTTL = time.Duration(*ttl) * time.Minute
	}

	return cfg, nil
}

// AIConfig describes the optional Ark chat model used to reword the
// scripted agent lines.
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
	Timeout     time.Duration
}

// Enabled reports whether the required credentials are present.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel builds the Ark model instance from this configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark credentials missing: provide ARK_API_KEY + ARK_MODEL or an AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	timeout := 10 * time.Second
	if override, err := parseOptionalIntEnv("ARK_TIMEOUT_SEC"); err != nil {
		return AIConfig{}, err
	} else if override != nil {
		timeout = time.Duration(*override) * time.Second
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
		Timeout:     timeout,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

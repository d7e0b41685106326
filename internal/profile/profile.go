package profile

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is configuration to start the main server.
type Profile struct {
	// LLM configuration (OpenAI-compatible protocol). The assistant talks to
	// whichever provider is configured; Groq is the default because its chat
	// completion API is a drop-in OpenAI endpoint.
	LLMProvider       string // groq, openai, ollama
	LLMAPIKey         string
	LLMBaseURL        string // optional, has default per provider
	LLMModel          string
	LLMEmbeddingModel string
	LLMTimeout        int // LLM request timeout in seconds (default: 30)

	// Third-party dashboard API keys.
	FinnhubAPIKey    string
	TwelveDataAPIKey string
	NewsDataAPIKey   string

	// JWT signing secret for auth tokens.
	JWTSecret string

	Mode        string // dev, demo, prod
	Addr        string
	Port        int
	Data        string // data directory for workspace documents
	Driver      string // sqlite, postgres
	DSN         string
	InstanceURL string
	Version     string
}

// Provider default configurations for the LLM endpoint.
// Used when OBEL_AI_BASE_URL is not explicitly set.
var llmProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"groq": {
		BaseURL: "https://api.groq.com/openai/v1",
		Model:   "llama-3.3-70b-versatile",
	},
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o-mini",
	},
	"ollama": {
		BaseURL: "http://localhost:11434",
		Model:   "llama3.1",
	},
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if an LLM API key is configured.
func (p *Profile) IsAIEnabled() bool {
	return p.LLMAPIKey != ""
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	p.LLMProvider = getEnvOrDefault("OBEL_AI_PROVIDER", "groq")
	p.LLMAPIKey = getEnvOrDefault("OBEL_AI_API_KEY", os.Getenv("GROQ_API_KEY"))
	p.LLMBaseURL = getEnvOrDefault("OBEL_AI_BASE_URL", "")
	p.LLMModel = getEnvOrDefault("OBEL_AI_MODEL", "")
	p.LLMEmbeddingModel = getEnvOrDefault("OBEL_AI_EMBEDDING_MODEL", "nomic-embed-text")
	p.LLMTimeout = getEnvOrDefaultInt("OBEL_AI_TIMEOUT_SECONDS", 30)

	if p.LLMProvider != "" {
		if _, ok := llmProviderDefaults[p.LLMProvider]; !ok {
			slog.Warn("unknown LLM provider, using default: groq", "provider", p.LLMProvider)
			p.LLMProvider = "groq"
		}
	}
	if p.LLMBaseURL == "" || p.LLMModel == "" {
		if defaults, ok := llmProviderDefaults[p.LLMProvider]; ok {
			if p.LLMBaseURL == "" {
				p.LLMBaseURL = defaults.BaseURL
			}
			if p.LLMModel == "" {
				p.LLMModel = defaults.Model
			}
		}
	}

	p.FinnhubAPIKey = getEnvOrDefault("OBEL_FINNHUB_API_KEY", os.Getenv("FINNHUB_API_KEY"))
	p.TwelveDataAPIKey = getEnvOrDefault("OBEL_TWELVEDATA_API_KEY", os.Getenv("TWELVEDATA_API_KEY"))
	p.NewsDataAPIKey = getEnvOrDefault("OBEL_NEWSDATA_API_KEY", os.Getenv("NEWSDATA_API_KEY"))
	p.JWTSecret = getEnvOrDefault("OBEL_JWT_SECRET", os.Getenv("JWT_SECRET"))
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies.
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

// Validate normalizes the profile and rejects unusable configurations.
func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		p.Data = "/var/opt/obel"
	}
	if p.Data == "" {
		p.Data = "."
	}
	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		return err
	}
	p.Data = dataDir

	switch p.Driver {
	case "sqlite":
		if p.DSN == "" {
			p.DSN = filepath.Join(p.Data, "obel_"+p.Mode+".db")
		}
	case "postgres":
		if p.DSN == "" {
			return errors.New("dsn is required for postgres driver")
		}
	default:
		return errors.Errorf("unsupported driver %q, expected sqlite or postgres", p.Driver)
	}

	if p.JWTSecret == "" {
		if p.Mode == "prod" {
			return errors.New("jwt secret is required in prod mode")
		}
		p.JWTSecret = "obel-dev-secret"
	}

	return nil
}

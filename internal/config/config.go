package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config carries every knob the pipeline needs. It is built once at process
// start and passed by reference into each component constructor; nothing in
// the codebase reads the environment after Load returns.
type Config struct {
	ProjectDir     string `json:"project_dir"`
	DataDir        string `json:"data_dir"`
	FilingIndexDir string `json:"filing_index_dir"`

	LLMProvider   string `json:"llm_provider"` // openai or deepseek
	BackendURL    string `json:"backend_url"`
	OpenAIAPIKey  string `json:"-"`
	DeepSeekKey   string `json:"-"`
	DecisionModel string `json:"decision_model"`
	QuickModel    string `json:"quick_model"`
	EmbedModel    string `json:"embed_model"`

	TavilyAPIKey   string `json:"-"`
	EdgarUserAgent string `json:"edgar_user_agent"`

	MaxNewsResults int  `json:"max_news_results"`
	Debug          bool `json:"debug"`
}

func DefaultConfig() *Config {
	currentDir, _ := os.Getwd()

	return &Config{
		ProjectDir:     currentDir,
		DataDir:        filepath.Join(currentDir, "data"),
		FilingIndexDir: filepath.Join(currentDir, "data", "filing_index"),

		LLMProvider:   "openai",
		BackendURL:    "https://api.openai.com/v1",
		DecisionModel: "gpt-4o",
		QuickModel:    "gpt-4o-mini",
		EmbedModel:    "text-embedding-3-small",

		EdgarUserAgent: "marketsense research@marketsense.dev",
		MaxNewsResults: 8,
	}
}

// Load builds a Config from defaults overlaid with .env / environment
// variables.
func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := DefaultConfig()

	setString(&cfg.DataDir, "MARKETSENSE_DATA_DIR")
	if v := os.Getenv("MARKETSENSE_DATA_DIR"); v != "" {
		cfg.FilingIndexDir = filepath.Join(v, "filing_index")
	}
	setString(&cfg.LLMProvider, "LLM_PROVIDER")
	setString(&cfg.BackendURL, "LLM_BACKEND_URL")
	setString(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&cfg.DeepSeekKey, "DEEPSEEK_API_KEY")
	setString(&cfg.DecisionModel, "DECISION_MODEL")
	setString(&cfg.QuickModel, "QUICK_MODEL")
	setString(&cfg.EmbedModel, "EMBED_MODEL")
	setString(&cfg.TavilyAPIKey, "TAVILY_API_KEY")
	setString(&cfg.EdgarUserAgent, "EDGAR_USER_AGENT")

	if v := os.Getenv("MAX_NEWS_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxNewsResults = n
		}
	}
	cfg.Debug = os.Getenv("MARKETSENSE_DEBUG") == "true"

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.LLMProvider {
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
	case "deepseek":
		if c.DeepSeekKey == "" {
			return fmt.Errorf("DEEPSEEK_API_KEY is required when LLM_PROVIDER=deepseek")
		}
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q", c.LLMProvider)
	}
	if c.OpenAIAPIKey == "" {
		// Embeddings always go through the OpenAI endpoint.
		return fmt.Errorf("OPENAI_API_KEY is required for embeddings")
	}
	if c.MaxNewsResults <= 0 {
		return fmt.Errorf("max news results must be positive, got %d", c.MaxNewsResults)
	}
	return nil
}

func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.DataDir, c.FilingIndexDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

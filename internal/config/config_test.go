package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.LLMProvider != "openai" {
		t.Fatalf("provider = %q", cfg.LLMProvider)
	}
	if cfg.DecisionModel != "gpt-4o" || cfg.QuickModel != "gpt-4o-mini" {
		t.Fatalf("model defaults wrong: %s / %s", cfg.DecisionModel, cfg.QuickModel)
	}
	if cfg.MaxNewsResults != 8 {
		t.Fatalf("MaxNewsResults = %d", cfg.MaxNewsResults)
	}
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("MARKETSENSE_DATA_DIR", dir)
	t.Setenv("QUICK_MODEL", "gpt-4o-mini-2024")
	t.Setenv("MAX_NEWS_RESULTS", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.DataDir != dir {
		t.Fatalf("DataDir = %q", cfg.DataDir)
	}
	if cfg.FilingIndexDir != filepath.Join(dir, "filing_index") {
		t.Fatalf("FilingIndexDir = %q", cfg.FilingIndexDir)
	}
	if cfg.QuickModel != "gpt-4o-mini-2024" {
		t.Fatalf("QuickModel = %q", cfg.QuickModel)
	}
	if cfg.MaxNewsResults != 5 {
		t.Fatalf("MaxNewsResults = %d", cfg.MaxNewsResults)
	}
}

func TestValidateMissingKey(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation failure without an API key")
	}

	cfg.LLMProvider = "watsonx"
	cfg.OpenAIAPIKey = "sk-test"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation failure for unsupported provider")
	}
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.DataDir = filepath.Join(dir, "data")
	cfg.FilingIndexDir = filepath.Join(dir, "data", "filing_index")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	if _, err := os.Stat(cfg.FilingIndexDir); err != nil {
		t.Fatalf("filing index dir not created: %v", err)
	}
}

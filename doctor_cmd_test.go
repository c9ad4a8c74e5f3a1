package main

import (
	"strings"
	"testing"

	"github.com/dgnsrekt/subvox/internal/config"
)

func TestCheckAPIKey(t *testing.T) {
	cfg := config.Default()

	cfg.Provider = "openai"
	r := checkAPIKey(cfg)
	if r.Available {
		t.Error("openai without a key should not be available")
	}
	if !r.Required {
		t.Error("the API key check should be required")
	}
	if !strings.Contains(r.Guidance, "OPENAI_API_KEY") {
		t.Errorf("guidance %q should name the environment variable", r.Guidance)
	}

	cfg.OpenAI.APIKey = "sk-test"
	if r := checkAPIKey(cfg); !r.Available {
		t.Error("openai with a key should be available")
	}

	cfg.Provider = "mock"
	if r := checkAPIKey(cfg); !r.Available {
		t.Error("mock needs no key and should always be available")
	}
}

func TestCheckCacheDir(t *testing.T) {
	cfg := config.Default()
	cfg.CacheDir = t.TempDir()

	r := checkCacheDir(cfg)
	if !r.Available {
		t.Errorf("writable cache dir reported unavailable: %v", r.Error)
	}
	if r.Details["path"] != cfg.CacheDir {
		t.Errorf("details path = %q, want %q", r.Details["path"], cfg.CacheDir)
	}
}

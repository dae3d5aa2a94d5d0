package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// setCredentials puts both required credentials into the environment.
// t.Setenv restores the previous values when the test finishes.
func setCredentials(t *testing.T) {
	t.Helper()
	t.Setenv("GITHUB_TOKEN", "ghp_test_token")
	t.Setenv("OPENAI_API_KEY", "sk-test-key")
}

// TestLoad_EnvOnlyCredentials is the deployment mode that matters most:
// no config file anywhere, credentials supplied purely via env vars. The
// explicit BindEnv calls are what make this work — viper's AutomaticEnv
// alone never consults the environment for keys it has no default for.
func TestLoad_EnvOnlyCredentials(t *testing.T) {
	t.Chdir(t.TempDir()) // guarantees no config.yaml is found
	setCredentials(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.GitHub.Token != "ghp_test_token" {
		t.Errorf("GitHub.Token = %q, want ghp_test_token", cfg.GitHub.Token)
	}
	if cfg.OpenAI.APIKey != "sk-test-key" {
		t.Errorf("OpenAI.APIKey = %q, want sk-test-key", cfg.OpenAI.APIKey)
	}

	// Defaults fill in everything else.
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.OpenAI.PrimaryModel != "gpt-4" || cfg.OpenAI.FallbackModel != "gpt-3.5-turbo" {
		t.Errorf("model defaults = %q/%q", cfg.OpenAI.PrimaryModel, cfg.OpenAI.FallbackModel)
	}
	if cfg.GitHub.MaxPages != 1000 {
		t.Errorf("GitHub.MaxPages = %d, want 1000", cfg.GitHub.MaxPages)
	}
	if cfg.Pipeline.RequestTimeout != 10*time.Minute {
		t.Errorf("Pipeline.RequestTimeout = %v, want 10m", cfg.Pipeline.RequestTimeout)
	}
}

func TestLoad_MissingGitHubToken(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("OPENAI_API_KEY", "sk-test-key")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() should fail without a GitHub token")
	}
	if !strings.Contains(err.Error(), "GITHUB_TOKEN") {
		t.Errorf("error %q should name GITHUB_TOKEN", err)
	}
}

func TestLoad_MissingOpenAIKey(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GITHUB_TOKEN", "ghp_test_token")
	t.Setenv("OPENAI_API_KEY", "")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() should fail without an OpenAI API key")
	}
	if !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Errorf("error %q should name OPENAI_API_KEY", err)
	}
}

// TestLoad_FileAndEnvMerge checks the full priority order on one value each:
// env beats file, file beats default, default survives when neither sets it.
func TestLoad_FileAndEnvMerge(t *testing.T) {
	dir := t.TempDir()
	yaml := "server:\n  port: 9999\ngithub:\n  perPage: 25\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	t.Chdir(dir)
	setCredentials(t)
	t.Setenv("SERVER_PORT", "4242")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 4242 {
		t.Errorf("Server.Port = %d, want 4242 (env over file)", cfg.Server.Port)
	}
	if cfg.GitHub.PerPage != 25 {
		t.Errorf("GitHub.PerPage = %d, want 25 (file over default)", cfg.GitHub.PerPage)
	}
	if cfg.OpenAI.ImageModel != "dall-e-3" {
		t.Errorf("OpenAI.ImageModel = %q, want default dall-e-3", cfg.OpenAI.ImageModel)
	}
}

func TestLoad_MalformedConfigFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [not a map"), 0644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	t.Chdir(dir)
	setCredentials(t)

	// A missing file is tolerated; a broken one is not.
	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail on a malformed config file")
	}
}

package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfigFile(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, ".taskboard.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
}

func TestConfigLoad_MissingFileUsesDefaults(t *testing.T) {
	loader := NewConfigLoader(t.TempDir())

	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.TasksPath != "tasks.csv" || cfg.AuditPath != "audit.csv" {
		t.Fatalf("unexpected default paths: %q %q", cfg.TasksPath, cfg.AuditPath)
	}
	if cfg.Timezone != "Asia/Tokyo" {
		t.Fatalf("expected Asia/Tokyo default, got %q", cfg.Timezone)
	}
	if !cfg.SaveWithTime {
		t.Fatal("expected save_with_time default true")
	}
	if cfg.CacheTTLSeconds != 10 {
		t.Fatalf("expected cache ttl 10, got %d", cfg.CacheTTLSeconds)
	}
	if cfg.CandidateMaxAgeDays != 7 {
		t.Fatalf("expected candidate horizon 7, got %d", cfg.CandidateMaxAgeDays)
	}
	if len(cfg.ReplyKeywords) == 0 {
		t.Fatal("expected default reply keywords")
	}
	if cfg.GitHub.Configured() {
		t.Fatal("remote must be unconfigured by default")
	}
}

func TestConfigLoad_FileOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, `
tasks_path: board.csv
save_with_time: false
fixed_owners: [alice, bob]
github:
  token: tok
  owner: acme
  repo: board
  branch: develop
`)

	cfg, err := NewConfigLoader(dir).Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.TasksPath != "board.csv" {
		t.Fatalf("expected board.csv, got %q", cfg.TasksPath)
	}
	if cfg.SaveWithTime {
		t.Fatal("expected save_with_time false")
	}
	if len(cfg.FixedOwners) != 2 {
		t.Fatalf("expected 2 fixed owners, got %v", cfg.FixedOwners)
	}
	if !cfg.GitHub.Configured() || cfg.GitHub.Branch != "develop" {
		t.Fatalf("unexpected github config: %+v", cfg.GitHub)
	}
	// Untouched keys keep their defaults.
	if cfg.AuditPath != "audit.csv" {
		t.Fatalf("expected default audit path, got %q", cfg.AuditPath)
	}
}

func TestConfigLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, `
github:
  token: from-file
  owner: acme
  repo: board
`)
	t.Setenv("TASKBOARD_GITHUB_TOKEN", "from-env")

	cfg, err := NewConfigLoader(dir).Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GitHub.Token != "from-env" {
		t.Fatalf("expected env token to win, got %q", cfg.GitHub.Token)
	}
}

func TestConfigValidate_CollectsAllErrors(t *testing.T) {
	loader := NewConfigLoader(t.TempDir())
	cfg := DefaultConfig()
	cfg.TasksPath = ""
	cfg.CacheTTLSeconds = -1
	cfg.Timezone = "Mars/Olympus"

	err := loader.Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"tasks_path", "cache_ttl_seconds", "timezone"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q mentioned in %q", want, msg)
		}
	}
}

func TestConfigValidate_PartialGitHub(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, `
github:
  token: tok
`)

	_, err := NewConfigLoader(dir).Load()
	if err == nil || !strings.Contains(err.Error(), "github") {
		t.Fatalf("expected partial github config rejected, got %v", err)
	}
}

func TestRenderConfigYAML(t *testing.T) {
	out, err := RenderConfigYAML(DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := string(out)
	for _, want := range []string{"tasks_path", "timezone", "github"} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %q in rendered config:\n%s", want, s)
		}
	}
}

package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/valter-silva-au/taskboard/pkg/models"
)

// ConfigLoader loads and validates the board configuration from the
// .taskboard.yaml file, with environment variables taking precedence over
// file values (TASKBOARD_GITHUB_TOKEN overrides github.token, and so on).
type ConfigLoader interface {
	Load() (*models.Config, error)
	Validate(cfg *models.Config) error
}

// viperConfigLoader implements ConfigLoader using Viper for reading the
// YAML configuration file.
type viperConfigLoader struct {
	// basePath is the directory where .taskboard.yaml resides.
	basePath string
}

// NewConfigLoader creates a ConfigLoader that reads the configuration file
// from basePath.
func NewConfigLoader(basePath string) ConfigLoader {
	return &viperConfigLoader{basePath: basePath}
}

// DefaultConfig returns a Config populated with the stock defaults: a local
// tasks.csv and audit.csv, Asia/Tokyo timestamps with time-of-day enabled,
// the Japanese awaiting-reply keyword set, a 10 second read cache, and a
// 7 day closing-candidate horizon.
func DefaultConfig() *models.Config {
	return &models.Config{
		TasksPath:           "tasks.csv",
		AuditPath:           "audit.csv",
		SaveWithTime:        true,
		Timezone:            "Asia/Tokyo",
		CacheTTLSeconds:     10,
		ReplyKeywords:       []string{"返信待ち", "返信無し", "返信なし", "返信ない", "催促"},
		CandidateMaxAgeDays: 7,
		GitHub: models.GitHubConfig{
			Branch:           "main",
			APIBase:          "https://api.github.com",
			TasksPath:        "tasks.csv",
			AuditPath:        "audit.csv",
			CommitterEmail:   "noreply@example.com",
			RetryWaitSeconds: 5,
			TimeoutSeconds:   20,
		},
	}
}

// Load reads .taskboard.yaml from the base path. A missing file is not an
// error; defaults (plus any environment overrides) are returned instead.
func (cl *viperConfigLoader) Load() (*models.Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName(".taskboard")
	v.SetConfigType("yaml")
	v.AddConfigPath(cl.basePath)
	v.SetEnvPrefix("TASKBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set Viper defaults so missing keys fall back gracefully.
	v.SetDefault("tasks_path", cfg.TasksPath)
	v.SetDefault("audit_path", cfg.AuditPath)
	v.SetDefault("lock_path", cfg.LockPath)
	v.SetDefault("save_with_time", cfg.SaveWithTime)
	v.SetDefault("timezone", cfg.Timezone)
	v.SetDefault("cache_ttl_seconds", cfg.CacheTTLSeconds)
	v.SetDefault("debug", cfg.Debug)
	v.SetDefault("reply_keywords", cfg.ReplyKeywords)
	v.SetDefault("fixed_owners", cfg.FixedOwners)
	v.SetDefault("default_actor", cfg.DefaultActor)
	v.SetDefault("candidate_max_age_days", cfg.CandidateMaxAgeDays)
	v.SetDefault("github.token", cfg.GitHub.Token)
	v.SetDefault("github.owner", cfg.GitHub.Owner)
	v.SetDefault("github.repo", cfg.GitHub.Repo)
	v.SetDefault("github.branch", cfg.GitHub.Branch)
	v.SetDefault("github.api_base", cfg.GitHub.APIBase)
	v.SetDefault("github.tasks_path", cfg.GitHub.TasksPath)
	v.SetDefault("github.audit_path", cfg.GitHub.AuditPath)
	v.SetDefault("github.committer_email", cfg.GitHub.CommitterEmail)
	v.SetDefault("github.retry_wait_seconds", cfg.GitHub.RetryWaitSeconds)
	v.SetDefault("github.timeout_seconds", cfg.GitHub.TimeoutSeconds)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading .taskboard.yaml: %w", err)
		}
	}

	cfg.TasksPath = v.GetString("tasks_path")
	cfg.AuditPath = v.GetString("audit_path")
	cfg.LockPath = v.GetString("lock_path")
	cfg.SaveWithTime = v.GetBool("save_with_time")
	cfg.Timezone = v.GetString("timezone")
	cfg.CacheTTLSeconds = v.GetInt("cache_ttl_seconds")
	cfg.Debug = v.GetBool("debug")
	cfg.ReplyKeywords = v.GetStringSlice("reply_keywords")
	cfg.FixedOwners = v.GetStringSlice("fixed_owners")
	cfg.DefaultActor = v.GetString("default_actor")
	cfg.CandidateMaxAgeDays = v.GetInt("candidate_max_age_days")
	cfg.GitHub.Token = v.GetString("github.token")
	cfg.GitHub.Owner = v.GetString("github.owner")
	cfg.GitHub.Repo = v.GetString("github.repo")
	cfg.GitHub.Branch = v.GetString("github.branch")
	cfg.GitHub.APIBase = v.GetString("github.api_base")
	cfg.GitHub.TasksPath = v.GetString("github.tasks_path")
	cfg.GitHub.AuditPath = v.GetString("github.audit_path")
	cfg.GitHub.CommitterEmail = v.GetString("github.committer_email")
	cfg.GitHub.RetryWaitSeconds = v.GetInt("github.retry_wait_seconds")
	cfg.GitHub.TimeoutSeconds = v.GetInt("github.timeout_seconds")

	if err := cl.Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for invalid values and returns a clear
// error message listing every problem found.
func (cl *viperConfigLoader) Validate(cfg *models.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if strings.TrimSpace(cfg.TasksPath) == "" {
		errs = append(errs, "tasks_path must not be empty")
	}

	if strings.TrimSpace(cfg.AuditPath) == "" {
		errs = append(errs, "audit_path must not be empty")
	}

	if cfg.CacheTTLSeconds < 0 {
		errs = append(errs, fmt.Sprintf("cache_ttl_seconds must be non-negative, got %d", cfg.CacheTTLSeconds))
	}

	if cfg.CandidateMaxAgeDays < 0 {
		errs = append(errs, fmt.Sprintf("candidate_max_age_days must be non-negative, got %d", cfg.CandidateMaxAgeDays))
	}

	if cfg.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Timezone); err != nil {
			errs = append(errs, fmt.Sprintf("timezone %q is invalid: %v", cfg.Timezone, err))
		}
	}

	if cfg.GitHub.RetryWaitSeconds < 0 {
		errs = append(errs, fmt.Sprintf("github.retry_wait_seconds must be non-negative, got %d", cfg.GitHub.RetryWaitSeconds))
	}

	if cfg.GitHub.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Sprintf("github.timeout_seconds must be non-negative, got %d", cfg.GitHub.TimeoutSeconds))
	}

	// A partially configured remote is almost always a mistake: either all
	// three of token, owner, and repo are set, or none of them are.
	gh := cfg.GitHub
	set := 0
	for _, s := range []string{gh.Token, gh.Owner, gh.Repo} {
		if strings.TrimSpace(s) != "" {
			set++
		}
	}
	if set > 0 && set < 3 {
		errs = append(errs, "github sync requires github.token, github.owner, and github.repo to all be set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// RenderConfigYAML renders a Config as YAML, suitable for seeding a new
// .taskboard.yaml file.
func RenderConfigYAML(cfg *models.Config) ([]byte, error) {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("rendering config: %w", err)
	}
	return out, nil
}

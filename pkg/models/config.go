package models

// Config holds every runtime setting for the task board. It is loaded once
// at startup from .taskboard.yaml (plus environment overrides) and passed
// explicitly into the services that need it.
type Config struct {
	// TasksPath is the local CSV file holding the task table.
	TasksPath string `yaml:"tasks_path"`
	// AuditPath is the local CSV file holding the append-only audit trail.
	AuditPath string `yaml:"audit_path"`
	// LockPath is reserved for a future advisory-lock scheme. It is accepted
	// and ignored.
	LockPath string `yaml:"lock_path"`

	// SaveWithTime selects the persisted timestamp format: full date-time
	// when true, date-only when false.
	SaveWithTime bool `yaml:"save_with_time"`
	// Timezone is the fixed zone all timestamps are taken in.
	Timezone string `yaml:"timezone"`

	// CacheTTLSeconds bounds how long a loaded task table may be served
	// from memory before re-reading the file.
	CacheTTLSeconds int `yaml:"cache_ttl_seconds"`
	// Debug enables verbose sync diagnostics.
	Debug bool `yaml:"debug"`

	// ReplyKeywords mark a task as "awaiting reply" when found in its
	// next-action or notes text.
	ReplyKeywords []string `yaml:"reply_keywords"`
	// FixedOwners, when non-empty, restricts the owner field to this set.
	FixedOwners []string `yaml:"fixed_owners"`
	// DefaultActor is used when no --actor is given.
	DefaultActor string `yaml:"default_actor"`
	// CandidateMaxAgeDays is the staleness threshold for closing candidates.
	CandidateMaxAgeDays int `yaml:"candidate_max_age_days"`

	GitHub GitHubConfig `yaml:"github"`
}

// GitHubConfig describes the remote mirror of the board files. When Token,
// Owner, or Repo is empty the remote integration is disabled and every sync
// degrades to a no-op success.
type GitHubConfig struct {
	Token          string `yaml:"token"`
	Owner          string `yaml:"owner"`
	Repo           string `yaml:"repo"`
	Branch         string `yaml:"branch"`
	APIBase        string `yaml:"api_base"`
	TasksPath      string `yaml:"tasks_path"`
	AuditPath      string `yaml:"audit_path"`
	CommitterEmail string `yaml:"committer_email"`
	// RetryWaitSeconds is the fallback wait before the single rate-limit
	// retry when the server sends no Retry-After header.
	RetryWaitSeconds int `yaml:"retry_wait_seconds"`
	// TimeoutSeconds bounds every request to the contents API.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// Configured reports whether the remote integration has the minimum
// settings required to talk to the contents API.
func (g GitHubConfig) Configured() bool {
	return g.Token != "" && g.Owner != "" && g.Repo != ""
}

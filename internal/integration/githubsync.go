// Package integration talks to external systems, currently the GitHub
// contents API that mirrors the board's CSV files to a remote repository.
package integration

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/valter-silva-au/taskboard/pkg/models"
)

// ErrConflict signals that the remote file changed between the version fetch
// and the conditioned put. The caller decides whether to merge and retry or
// surface the conflict.
var ErrConflict = errors.New("remote file changed since last fetch")

// SyncError carries the status code and a truncated response body for
// failures that have no more specific classification.
type SyncError struct {
	StatusCode int
	Body       string
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("remote sync failed: status %d: %s", e.StatusCode, e.Body)
}

// ContentSyncer pushes local file content to a remote path under optimistic
// concurrency control, and fetches remote content for conflict merging.
type ContentSyncer interface {
	// Sync uploads the local file to remotePath, conditioned on the current
	// remote version. An unconfigured remote is a no-op success.
	Sync(ctx context.Context, localPath, remotePath, message string, session models.Session) error
	// Fetch returns the remote file content and its version tag. A missing
	// remote file returns nil content, an empty tag, and no error.
	Fetch(ctx context.Context, remotePath string) (content []byte, versionTag string, err error)
	// Enabled reports whether the remote integration is configured.
	Enabled() bool
}

// NoopSyncer satisfies ContentSyncer when no remote is configured: local
// persistence alone is sufficient and every sync succeeds without effect.
type NoopSyncer struct{}

func (NoopSyncer) Sync(context.Context, string, string, string, models.Session) error {
	return nil
}

func (NoopSyncer) Fetch(context.Context, string) ([]byte, string, error) {
	return nil, "", nil
}

func (NoopSyncer) Enabled() bool { return false }

// githubSyncer implements ContentSyncer against the GitHub contents API.
type githubSyncer struct {
	cfg     models.GitHubConfig
	client  *http.Client
	timeout time.Duration
	// retryWait is the fallback wait before the single rate-limit retry when
	// the server sends no Retry-After header.
	retryWait time.Duration
	// sleep is injected so tests substitute a fake.
	sleep func(time.Duration)
	// readFile is injected for tests; defaults to os.ReadFile.
	readFile func(string) ([]byte, error)
	// debug, when non-nil, receives request/response diagnostics.
	debug io.Writer
}

// NewSyncer returns a ContentSyncer for the given remote configuration.
// When the remote is not configured a NoopSyncer is returned so the feature
// degrades gracefully. debug may be nil.
func NewSyncer(cfg models.GitHubConfig, debug io.Writer) ContentSyncer {
	if !cfg.Configured() {
		return NoopSyncer{}
	}
	return newGitHubSyncer(cfg, debug)
}

func newGitHubSyncer(cfg models.GitHubConfig, debug io.Writer) *githubSyncer {
	if cfg.APIBase == "" {
		cfg.APIBase = "https://api.github.com"
	}
	if cfg.Branch == "" {
		cfg.Branch = "main"
	}
	if cfg.CommitterEmail == "" {
		cfg.CommitterEmail = "noreply@example.com"
	}
	if cfg.RetryWaitSeconds <= 0 {
		cfg.RetryWaitSeconds = 5
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 20
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	return &githubSyncer{
		cfg:       cfg,
		client:    oauth2.NewClient(context.Background(), src),
		timeout:   time.Duration(cfg.TimeoutSeconds) * time.Second,
		retryWait: time.Duration(cfg.RetryWaitSeconds) * time.Second,
		sleep:     time.Sleep,
		debug:     debug,
	}
}

func (s *githubSyncer) Enabled() bool { return true }

// contentsURL builds the contents-API URL for a remote path.
func (s *githubSyncer) contentsURL(remotePath string) string {
	base := strings.TrimRight(s.cfg.APIBase, "/")
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s", base, s.cfg.Owner, s.cfg.Repo, remotePath)
}

// contentsResponse is the subset of the GET response the syncer reads.
type contentsResponse struct {
	SHA     string `json:"sha"`
	Content string `json:"content"`
}

// putPayload is the PUT request body. SHA is omitted on first write.
type putPayload struct {
	Message   string    `json:"message"`
	Content   string    `json:"content"`
	Branch    string    `json:"branch"`
	SHA       string    `json:"sha,omitempty"`
	Committer committer `json:"committer"`
}

type committer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Sync uploads the local file conditioned on the remote's current version
// tag. A rate-limited put is retried exactly once after the server-suggested
// wait; a version-tag mismatch surfaces as ErrConflict.
func (s *githubSyncer) Sync(ctx context.Context, localPath, remotePath, message string, session models.Session) error {
	if remotePath == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	sha, err := s.fetchVersion(ctx, remotePath)
	if err != nil {
		return fmt.Errorf("syncing %s: %w", remotePath, err)
	}

	read := s.readFile
	if read == nil {
		read = defaultReadFile
	}
	data, err := read(localPath)
	if err != nil {
		return fmt.Errorf("syncing %s: reading %s: %w", remotePath, localPath, err)
	}

	payload := putPayload{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(data),
		Branch:  s.cfg.Branch,
		SHA:     sha,
		Committer: committer{
			Name:  session.ActorOrAnonymous(),
			Email: s.cfg.CommitterEmail,
		},
	}

	status, body, header, err := s.put(ctx, remotePath, payload)
	if err != nil {
		return fmt.Errorf("syncing %s: %w", remotePath, err)
	}

	if status == http.StatusTooManyRequests {
		s.sleep(retryAfter(header, s.retryWait))
		status, body, _, err = s.put(ctx, remotePath, payload)
		if err != nil {
			return fmt.Errorf("syncing %s: retrying after rate limit: %w", remotePath, err)
		}
	}

	return s.interpretPut(remotePath, status, body)
}

// interpretPut maps a PUT status to the error taxonomy. Auth and not-found
// failures carry enough detail to fix the configuration without reading
// source code.
func (s *githubSyncer) interpretPut(remotePath string, status int, body string) error {
	switch {
	case status == http.StatusOK || status == http.StatusCreated:
		return nil
	case status == http.StatusUnprocessableEntity:
		return fmt.Errorf("syncing %s: %w", remotePath, ErrConflict)
	case status == http.StatusUnauthorized:
		return fmt.Errorf("syncing %s: 401 unauthorized: the github.token credential was rejected; generate a new token and update the configuration", remotePath)
	case status == http.StatusForbidden:
		return fmt.Errorf("syncing %s: 403 forbidden: the token lacks \"Contents: Read and write\" permission or a branch protection rule blocks the write", remotePath)
	case status == http.StatusNotFound:
		return fmt.Errorf("syncing %s: 404 not found: check github.owner, github.repo, github.branch, and the remote path", remotePath)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("syncing %s: still rate limited after one retry: %w", remotePath, &SyncError{StatusCode: status, Body: body})
	default:
		return fmt.Errorf("syncing %s: %w", remotePath, &SyncError{StatusCode: status, Body: body})
	}
}

// Fetch returns the decoded remote file content and its version tag.
func (s *githubSyncer) Fetch(ctx context.Context, remotePath string) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, status, err := s.get(ctx, remotePath)
	if err != nil {
		return nil, "", fmt.Errorf("fetching %s: %w", remotePath, err)
	}
	if status == http.StatusNotFound {
		return nil, "", nil
	}
	if status != http.StatusOK {
		return nil, "", fmt.Errorf("fetching %s: %w", remotePath, &SyncError{StatusCode: status})
	}

	// The API wraps base64 content with newlines.
	raw := strings.ReplaceAll(resp.Content, "\n", "")
	content, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, "", fmt.Errorf("fetching %s: decoding content: %w", remotePath, err)
	}
	return content, resp.SHA, nil
}

// fetchVersion returns the current version tag for remotePath, or the empty
// string when the file does not exist yet (first write proceeds without a
// version condition).
func (s *githubSyncer) fetchVersion(ctx context.Context, remotePath string) (string, error) {
	resp, status, err := s.get(ctx, remotePath)
	if err != nil {
		return "", err
	}
	if status == http.StatusOK {
		return resp.SHA, nil
	}
	// Any non-200 here (including auth errors) falls through to the put,
	// which reports the authoritative failure.
	return "", nil
}

func (s *githubSyncer) get(ctx context.Context, remotePath string) (*contentsResponse, int, error) {
	url := s.contentsURL(remotePath) + "?ref=" + s.cfg.Branch
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("building GET request: %w", err)
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("GET %s: %w", remotePath, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("reading GET response: %w", err)
	}
	s.debugf("GET %s: status %d body %s", remotePath, resp.StatusCode, truncate(string(body), 300))

	var parsed contentsResponse
	if resp.StatusCode == http.StatusOK {
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, 0, fmt.Errorf("parsing GET response: %w", err)
		}
	}
	return &parsed, resp.StatusCode, nil
}

func (s *githubSyncer) put(ctx context.Context, remotePath string, payload putPayload) (int, string, http.Header, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, "", nil, fmt.Errorf("encoding PUT payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.contentsURL(remotePath), bytes.NewReader(body))
	if err != nil {
		return 0, "", nil, fmt.Errorf("building PUT request: %w", err)
	}
	s.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, "", nil, fmt.Errorf("PUT %s: %w", remotePath, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", nil, fmt.Errorf("reading PUT response: %w", err)
	}
	s.debugf("PUT %s: status %d body %s", remotePath, resp.StatusCode, truncate(string(respBody), 300))

	return resp.StatusCode, truncate(string(respBody), 300), resp.Header, nil
}

func (s *githubSyncer) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", "taskboard")
}

func (s *githubSyncer) debugf(format string, args ...any) {
	if s.debug != nil {
		fmt.Fprintf(s.debug, format+"\n", args...)
	}
}

// retryAfter reads the server-suggested wait from a 429 response, falling
// back to the configured default when absent or unparsable.
func retryAfter(header http.Header, fallback time.Duration) time.Duration {
	if header == nil {
		return fallback
	}
	raw := header.Get("Retry-After")
	if raw == "" {
		return fallback
	}
	secs, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || secs < 0 {
		return fallback
	}
	return time.Duration(secs * float64(time.Second))
}

func defaultReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

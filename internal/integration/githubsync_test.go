package integration

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/taskboard/pkg/models"
)

func testConfig(apiBase string) models.GitHubConfig {
	return models.GitHubConfig{
		Token:   "test-token",
		Owner:   "acme",
		Repo:    "board",
		Branch:  "main",
		APIBase: apiBase,
	}
}

// newTestSyncer builds a syncer against the given server with instant sleeps
// and fixed local file content.
func newTestSyncer(server *httptest.Server, content string) (*githubSyncer, *[]time.Duration) {
	s := newGitHubSyncer(testConfig(server.URL), nil)
	var sleeps []time.Duration
	s.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }
	s.readFile = func(string) ([]byte, error) { return []byte(content), nil }
	return s, &sleeps
}

func TestNewSyncer_UnconfiguredIsNoop(t *testing.T) {
	s := NewSyncer(models.GitHubConfig{}, nil)
	if s.Enabled() {
		t.Fatal("expected disabled syncer")
	}
	if err := s.Sync(context.Background(), "tasks.csv", "tasks.csv", "msg", models.Session{}); err != nil {
		t.Fatalf("noop sync must succeed: %v", err)
	}
	content, tag, err := s.Fetch(context.Background(), "tasks.csv")
	if content != nil || tag != "" || err != nil {
		t.Fatalf("noop fetch must return nothing: %v %q %v", content, tag, err)
	}
}

func TestSync_FirstWriteOmitsSHA(t *testing.T) {
	var putBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &putBody)
			w.WriteHeader(http.StatusCreated)
		}
	}))
	defer server.Close()

	s, _ := newTestSyncer(server, "id,title\n")
	err := s.Sync(context.Background(), "tasks.csv", "tasks.csv", "first write", models.Session{Actor: "alice"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := putBody["sha"]; ok {
		t.Fatalf("first write must not carry a sha, got %v", putBody["sha"])
	}
	if putBody["message"] != "first write" || putBody["branch"] != "main" {
		t.Fatalf("unexpected payload: %+v", putBody)
	}
	committer, _ := putBody["committer"].(map[string]any)
	if committer["name"] != "alice" || committer["email"] != "noreply@example.com" {
		t.Fatalf("unexpected committer: %+v", committer)
	}
}

func TestSync_UpdateConditionsOnFetchedSHA(t *testing.T) {
	var putBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`{"sha":"abc123","content":""}`))
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &putBody)
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer server.Close()

	s, _ := newTestSyncer(server, "id,title\n")
	if err := s.Sync(context.Background(), "tasks.csv", "tasks.csv", "update", models.Session{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if putBody["sha"] != "abc123" {
		t.Fatalf("expected put conditioned on fetched sha, got %v", putBody["sha"])
	}
	decoded, err := base64.StdEncoding.DecodeString(putBody["content"].(string))
	if err != nil || string(decoded) != "id,title\n" {
		t.Fatalf("payload content mismatch: %q %v", decoded, err)
	}
}

func TestSync_ConflictSurfacesAsErrConflict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`{"sha":"stale","content":""}`))
		case http.MethodPut:
			w.WriteHeader(http.StatusUnprocessableEntity)
		}
	}))
	defer server.Close()

	s, _ := newTestSyncer(server, "data")
	err := s.Sync(context.Background(), "tasks.csv", "tasks.csv", "msg", models.Session{})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestSync_RateLimitRetriesOnceAfterRetryAfter(t *testing.T) {
	var puts int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			puts++
			if puts == 1 {
				w.Header().Set("Retry-After", "2")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer server.Close()

	s, sleeps := newTestSyncer(server, "data")
	if err := s.Sync(context.Background(), "tasks.csv", "tasks.csv", "msg", models.Session{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if puts != 2 {
		t.Fatalf("expected exactly one retry, got %d puts", puts)
	}
	if len(*sleeps) != 1 || (*sleeps)[0] != 2*time.Second {
		t.Fatalf("expected a single 2s wait, got %v", *sleeps)
	}
}

func TestSync_RateLimitFallbackWaitAndSingleRetry(t *testing.T) {
	var puts int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			puts++
			w.WriteHeader(http.StatusTooManyRequests)
		}
	}))
	defer server.Close()

	s, sleeps := newTestSyncer(server, "data")
	err := s.Sync(context.Background(), "tasks.csv", "tasks.csv", "msg", models.Session{})
	if err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("expected rate-limit error after single retry, got %v", err)
	}

	if puts != 2 {
		t.Fatalf("expected exactly 2 puts, got %d", puts)
	}
	// No Retry-After header: the configured fallback applies.
	if len(*sleeps) != 1 || (*sleeps)[0] != 5*time.Second {
		t.Fatalf("expected the 5s fallback wait, got %v", *sleeps)
	}
}

func TestSync_AuthFailuresAreActionable(t *testing.T) {
	status := http.StatusUnauthorized
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(status)
	}))
	defer server.Close()

	s, _ := newTestSyncer(server, "data")

	err := s.Sync(context.Background(), "tasks.csv", "tasks.csv", "msg", models.Session{})
	if err == nil || !strings.Contains(err.Error(), "github.token") {
		t.Fatalf("expected token guidance on 401, got %v", err)
	}

	status = http.StatusForbidden
	err = s.Sync(context.Background(), "tasks.csv", "tasks.csv", "msg", models.Session{})
	if err == nil || !strings.Contains(err.Error(), "permission") {
		t.Fatalf("expected permission guidance on 403, got %v", err)
	}
}

func TestFetch_DecodesWrappedBase64(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("id,title\nt1,a\n"))
	// The API wraps base64 payloads with newlines.
	wrapped := encoded[:10] + "\\n" + encoded[10:]
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"sha":"abc","content":"` + wrapped + `"}`))
	}))
	defer server.Close()

	s, _ := newTestSyncer(server, "")
	content, tag, err := s.Fetch(context.Background(), "tasks.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(content) != "id,title\nt1,a\n" || tag != "abc" {
		t.Fatalf("unexpected fetch result: %q %q", content, tag)
	}
}

func TestFetch_MissingFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	s, _ := newTestSyncer(server, "")
	content, tag, err := s.Fetch(context.Background(), "tasks.csv")
	if err != nil {
		t.Fatalf("missing remote file must not error: %v", err)
	}
	if content != nil || tag != "" {
		t.Fatalf("expected empty result, got %q %q", content, tag)
	}
}

func TestRetryAfter(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", "3")
	if got := retryAfter(h, 5*time.Second); got != 3*time.Second {
		t.Fatalf("expected 3s, got %v", got)
	}

	h.Set("Retry-After", "not a number")
	if got := retryAfter(h, 5*time.Second); got != 5*time.Second {
		t.Fatalf("expected fallback, got %v", got)
	}

	if got := retryAfter(nil, 5*time.Second); got != 5*time.Second {
		t.Fatalf("expected fallback for nil header, got %v", got)
	}
}

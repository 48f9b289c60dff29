package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"

	"github.com/matzehuels/statsnap/pkg/integrations"
)

type advancingClock interface {
	clockwork.Clock
	Advance(d time.Duration)
}

type fakeTime struct {
	clock  advancingClock
	sleeps []time.Duration
}

func (f *fakeTime) sleep(_ context.Context, d time.Duration) error {
	f.sleeps = append(f.sleeps, d)
	f.clock.Advance(d)
	return nil
}

func testClient(t *testing.T, handler http.HandlerFunc, token, owner string) (*Client, *fakeTime) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	ft := &fakeTime{clock: clockwork.NewFakeClockAt(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))}
	c := NewClient(Options{
		Token:      token,
		Owner:      owner,
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		Clock:      ft.clock,
		Sleep:      ft.sleep,
		Logger:     log.NewWithOptions(io.Discard, log.Options{}),
	})
	t.Cleanup(func() { c.Close() })
	return c, ft
}

const repoJSON = `{"name":"tower","owner":{"login":"octo"},"stargazers_count":12,"forks_count":3,
"watchers_count":12,"open_issues_count":2,"description":"Stacks","pushed_at":"2025-01-02T03:04:05Z"}`

func TestClient_Accessors(t *testing.T) {
	calls := 0
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path != "/repos/octo/tower" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "token secret" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("X-GitHub-Api-Version"); got != APIVersion {
			t.Errorf("X-GitHub-Api-Version = %q", got)
		}
		if got := r.Header.Get("Accept"); got != "application/vnd.github+json" {
			t.Errorf("Accept = %q", got)
		}
		fmt.Fprint(w, repoJSON)
	}, "secret", "octo")
	ctx := context.Background()

	counts := map[string]func(context.Context, string, string) (int64, error){
		"stars":       c.Stars,
		"forks":       c.Forks,
		"watchers":    c.Watchers,
		"open_issues": c.OpenIssues,
	}
	want := map[string]int64{"stars": 12, "forks": 3, "watchers": 12, "open_issues": 2}
	for name, fn := range counts {
		got, err := fn(ctx, "", "tower")
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if got != want[name] {
			t.Errorf("%s = %d, want %d", name, got, want[name])
		}
	}

	desc, err := c.Description(ctx, "octo", "tower")
	if err != nil || desc != "Stacks" {
		t.Errorf("Description() = %q, %v", desc, err)
	}
	pushed, err := c.LastPushed(ctx, "", "tower")
	if err != nil || pushed != "2025-01-02T03:04:05Z" {
		t.Errorf("LastPushed() = %q, %v", pushed, err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (cached)", calls)
	}
}

func TestClient_NoOwner(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected request")
	}, "", "")

	if _, err := c.Stars(context.Background(), "", "tower"); !errors.Is(err, ErrNoOwner) {
		t.Errorf("Stars() error = %v, want ErrNoOwner", err)
	}
	if _, err := c.ListUserRepos(context.Background(), ""); !errors.Is(err, ErrNoOwner) {
		t.Errorf("ListUserRepos() error = %v, want ErrNoOwner", err)
	}
}

func TestClient_Anonymous(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "" {
			t.Errorf("Authorization = %q, want none", auth)
		}
		fmt.Fprint(w, `{"stargazers_count":1}`)
	}, "", "octo")

	if _, err := c.Stars(context.Background(), "", "tower"); err != nil {
		t.Fatalf("Stars() error: %v", err)
	}
}

func TestClient_MissingFieldsDefault(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"bare","description":null}`)
	}, "", "octo")
	ctx := context.Background()

	if n, err := c.Forks(ctx, "", "bare"); err != nil || n != 0 {
		t.Errorf("Forks() = %d, %v", n, err)
	}
	if d, err := c.Description(ctx, "", "bare"); err != nil || d != "" {
		t.Errorf("Description() = %q, %v", d, err)
	}
}

func TestClient_NotFound(t *testing.T) {
	c, ft := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Not Found"}`)
	}, "", "octo")

	_, err := c.Repo(context.Background(), "", "missing", true)
	if !errors.Is(err, integrations.ErrNotFound) {
		t.Fatalf("Repo() error = %v, want ErrNotFound", err)
	}
	if !strings.Contains(err.Error(), "octo/missing") {
		t.Errorf("error %q does not name the repo", err)
	}
	if len(ft.sleeps) != 0 {
		t.Errorf("sleeps = %v, want none", ft.sleeps)
	}
}

func TestClient_ForbiddenIsRetried(t *testing.T) {
	calls := 0
	c, ft := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		fmt.Fprint(w, repoJSON)
	}, "", "octo")

	stars, err := c.Stars(context.Background(), "", "tower")
	if err != nil {
		t.Fatalf("Stars() error: %v", err)
	}
	if stars != 12 || calls != 2 {
		t.Errorf("stars = %d, calls = %d", stars, calls)
	}
	if len(ft.sleeps) == 0 || ft.sleeps[len(ft.sleeps)-1] != time.Second {
		t.Errorf("sleeps = %v, want a 1s backoff", ft.sleeps)
	}
}

func TestClient_ListUserRepos(t *testing.T) {
	var paths []string
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.RequestURI())
		switch {
		case r.URL.Path == "/users/octo/repos" && r.URL.Query().Get("page") == "":
			if r.URL.Query().Get("per_page") != "100" {
				t.Errorf("per_page = %q", r.URL.Query().Get("per_page"))
			}
			w.Header().Set("Link", fmt.Sprintf(`<http://%s/users/octo/repos?per_page=100&page=2>; rel="next"`, r.Host))
			fmt.Fprint(w, `[{"name":"a","owner":{"login":"octo"},"stargazers_count":1}]`)
		case r.URL.Path == "/users/octo/repos":
			fmt.Fprint(w, `[{"name":"b","owner":{"login":"octo"},"stargazers_count":2}]`)
		default:
			t.Errorf("unexpected request %s", r.URL)
			http.NotFound(w, r)
		}
	}, "", "octo")
	ctx := context.Background()

	repos, err := c.ListUserRepos(ctx, "")
	if err != nil {
		t.Fatalf("ListUserRepos() error: %v", err)
	}
	if len(repos) != 2 {
		t.Fatalf("len(repos) = %d, want 2", len(repos))
	}

	// Accessors are served from the primed cache.
	if stars, err := c.Stars(ctx, "", "b"); err != nil || stars != 2 {
		t.Errorf("Stars(b) = %d, %v", stars, err)
	}
	if len(paths) != 2 {
		t.Errorf("requests = %v, want 2 page requests only", paths)
	}
}

func TestClient_QuotaGuard(t *testing.T) {
	reset := time.Date(2025, 1, 1, 12, 1, 0, 0, time.UTC)
	calls := 0
	c, ft := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("X-RateLimit-Remaining", "3")
		w.Header().Set("X-RateLimit-Reset", fmt.Sprint(reset.Unix()))
		fmt.Fprint(w, `{"stargazers_count":1}`)
	}, "", "octo")
	ctx := context.Background()

	if _, err := c.Repo(ctx, "", "a", false); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Repo(ctx, "", "b", false); err != nil {
		t.Fatal(err)
	}

	// 500ms request spacing, then the remaining 59.5s until reset plus 1s.
	want := []time.Duration{DefaultMinInterval, 60500 * time.Millisecond}
	if fmt.Sprint(ft.sleeps) != fmt.Sprint(want) {
		t.Errorf("sleeps = %v, want %v", ft.sleeps, want)
	}
}

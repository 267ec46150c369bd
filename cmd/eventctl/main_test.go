package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"event-management/client/internal/apitest"
	"event-management/client/internal/events/domain"
)

type result struct {
	code           int
	stdout, stderr string
}

func runCLI(args ...string) result {
	var out, errOut bytes.Buffer
	code := run(context.Background(), args, &out, &errOut)
	return result{code: code, stdout: out.String(), stderr: errOut.String()}
}

// setEnv points the CLI at srv with a throwaway sqlite profile shared by every run in the test.
func setEnv(t *testing.T, srv *apitest.Server) {
	t.Helper()
	t.Setenv("APP_ENV", "development")
	t.Setenv("API_BASE_URL", srv.URL)
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("STORAGE_DSN", filepath.Join(t.TempDir(), "eventctl.db"))
	t.Setenv("STORAGE_ENCRYPTION_KEY", "")
	t.Setenv("QUERY_RETRY_COUNT", "0")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
}

func TestRun_Help(t *testing.T) {
	r := runCLI("--help")
	if r.code != 0 {
		t.Fatalf("exit = %d", r.code)
	}
	for _, want := range []string{"Commands:", "login", "events", "dashboard"} {
		if !strings.Contains(r.stderr, want) {
			t.Errorf("help missing %q:\n%s", want, r.stderr)
		}
	}
}

func TestRun_NoArgsIsUsage(t *testing.T) {
	if r := runCLI(); r.code != 2 {
		t.Errorf("exit = %d, want 2", r.code)
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	r := runCLI("frobnicate")
	if r.code != 1 || !strings.Contains(r.stderr, `unknown command "frobnicate"`) {
		t.Errorf("got %d %q", r.code, r.stderr)
	}
}

func TestRun_SessionSurvivesBetweenRuns(t *testing.T) {
	srv := apitest.New(t)
	setEnv(t, srv)
	srv.AddUser("ada@example.com", "secret123", "Ada Lovelace")

	if r := runCLI("whoami"); r.code != 1 || !strings.Contains(r.stderr, "not logged in") {
		t.Fatalf("whoami before login: %+v", r)
	}

	r := runCLI("login", "--email", "ada@example.com", "--password", "wrong")
	if r.code != 1 || !strings.Contains(r.stderr, "Invalid credentials") {
		t.Fatalf("bad login: %+v", r)
	}

	r = runCLI("login", "--email", "ada@example.com", "--password", "secret123")
	if r.code != 0 || !strings.Contains(r.stdout, "Logged in as Ada Lovelace") {
		t.Fatalf("login: %+v", r)
	}

	r = runCLI("whoami")
	if r.code != 0 || !strings.Contains(r.stdout, "ada@example.com") {
		t.Fatalf("whoami: %+v", r)
	}

	if r = runCLI("logout"); r.code != 0 {
		t.Fatalf("logout: %+v", r)
	}
	if r = runCLI("whoami"); r.code != 1 {
		t.Errorf("whoami after logout: %+v", r)
	}
}

func TestRun_EventLifecycle(t *testing.T) {
	srv := apitest.New(t)
	setEnv(t, srv)
	srv.AddUser("ada@example.com", "secret123", "Ada Lovelace")
	org := srv.AddUser("org@example.com", "secret123", "Org")
	start := time.Date(2026, 7, 1, 18, 0, 0, 0, time.UTC)
	other := srv.AddEvent(org, domain.Event{
		Title: "Rust Night", Description: "talks", Location: "Paris",
		StartTime: start, EndTime: start.Add(time.Hour), IsPublic: true,
	})

	if r := runCLI("rsvp", "1", "going"); r.code != 1 || !strings.Contains(r.stderr, "Please login to RSVP") {
		t.Fatalf("anonymous rsvp: %+v", r)
	}
	if r := runCLI("login", "--email", "ada@example.com", "--password", "secret123"); r.code != 0 {
		t.Fatalf("login: %+v", r)
	}

	r := runCLI("events", "create", "--title", "Go Meetup", "--description", "Lightning talks",
		"--location", "Berlin", "--start", "2026-09-01 18:00", "--end", "2026-09-01 17:00")
	if r.code != 1 || !strings.Contains(r.stderr, domain.MsgEndBeforeStart) {
		t.Fatalf("create with bad times: %+v", r)
	}

	r = runCLI("events", "create", "--title", "Go Meetup", "--description", "Lightning talks",
		"--location", "Berlin", "--start", "2026-09-01T18:00:00Z", "--end", "2026-09-01T21:00:00Z")
	if r.code != 0 || !strings.Contains(r.stderr, "Event created successfully!") {
		t.Fatalf("create: %+v", r)
	}
	id := strings.SplitN(strings.TrimSpace(r.stdout), "\t", 2)[0]

	r = runCLI("events", "list", "--search", "go")
	if r.code != 0 || !strings.Contains(r.stdout, "Go Meetup") || strings.Contains(r.stdout, "Rust Night") {
		t.Fatalf("list: %+v", r)
	}

	if r = runCLI("events", "update", id, "--title", "Go Meetup #2"); r.code != 0 {
		t.Fatalf("update: %+v", r)
	}
	if r = runCLI("events", "show", id); r.code != 0 || !strings.Contains(r.stdout, "Go Meetup #2") || !strings.Contains(r.stdout, "edit") {
		t.Fatalf("show: %+v", r)
	}

	theirs := strconv.Itoa(other)
	if r = runCLI("events", "update", theirs, "--title", "Mine now"); r.code != 1 || !strings.Contains(r.stderr, "You don't have permission to edit this event") {
		t.Fatalf("update someone else's event: %+v", r)
	}
	if r = runCLI("rsvp", theirs, "going"); r.code != 0 || !strings.Contains(r.stderr, "RSVP updated to: going") {
		t.Fatalf("rsvp: %+v", r)
	}
	if r = runCLI("reviews", "add", theirs, "--rating", "4", "--comment", "Great evening"); r.code != 0 {
		t.Fatalf("review: %+v", r)
	}
	if r = runCLI("reviews", "list", theirs); r.code != 0 || !strings.Contains(r.stdout, "Great evening") {
		t.Fatalf("reviews list: %+v", r)
	}

	r = runCLI("dashboard")
	if r.code != 0 || !strings.Contains(r.stdout, "Organizing (1)") || !strings.Contains(r.stdout, "Attending (1)") {
		t.Fatalf("dashboard: %+v", r)
	}

	if r = runCLI("events", "delete", id); r.code != 0 || !strings.Contains(r.stderr, "Event deleted successfully") {
		t.Fatalf("delete: %+v", r)
	}
}

func TestRun_ProfileUpdate(t *testing.T) {
	srv := apitest.New(t)
	setEnv(t, srv)
	srv.AddUser("ada@example.com", "secret123", "Ada Lovelace")
	if r := runCLI("login", "--email", "ada@example.com", "--password", "secret123"); r.code != 0 {
		t.Fatalf("login: %+v", r)
	}
	if r := runCLI("profile", "update"); r.code != 1 || !strings.Contains(r.stderr, "nothing to update") {
		t.Fatalf("empty update: %+v", r)
	}
	r := runCLI("profile", "update", "--bio", "Analyst", "--location", "London")
	if r.code != 0 || !strings.Contains(r.stderr, "Profile updated successfully!") {
		t.Fatalf("update: %+v", r)
	}
	r = runCLI("profile", "show")
	if r.code != 0 || !strings.Contains(r.stdout, "London") || !strings.Contains(r.stdout, "Analyst") {
		t.Fatalf("show: %+v", r)
	}
}

func TestRun_ExpiredSessionIsReported(t *testing.T) {
	srv := apitest.New(t)
	setEnv(t, srv)
	srv.AddUser("ada@example.com", "secret123", "Ada Lovelace")
	if r := runCLI("login", "--email", "ada@example.com", "--password", "secret123"); r.code != 0 {
		t.Fatalf("login: %+v", r)
	}
	srv.ExpireAccessTokens()
	srv.RevokeRefreshTokens()

	r := runCLI("dashboard")
	if r.code != 1 || !strings.Contains(r.stderr, "session expired; run `eventctl login`") {
		t.Fatalf("dashboard: %+v", r)
	}
	if r = runCLI("whoami"); r.code != 1 {
		t.Errorf("whoami after expiry: %+v", r)
	}
}

func TestParseTime(t *testing.T) {
	if tm, err := parseTime(""); err != nil || !tm.IsZero() {
		t.Errorf("empty: %v %v", tm, err)
	}
	tm, err := parseTime("2026-09-01T18:00:00Z")
	if err != nil || !tm.Equal(time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC)) {
		t.Errorf("rfc3339: %v %v", tm, err)
	}
	if _, err := parseTime("next tuesday"); err == nil {
		t.Error("expected an error for free text")
	}
}

package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"

	"github.com/hyeonlog/booklog/internal/models"
	"github.com/hyeonlog/booklog/internal/session"
	"github.com/hyeonlog/booklog/internal/shared"
	tu "github.com/hyeonlog/booklog/internal/testing"
)

func testConfig(t *testing.T) *shared.Config {
	t.Helper()
	dir := t.TempDir()
	config := shared.DefaultConfig()
	config.Session.Dir = filepath.Join(dir, "session")
	config.Cache.Path = filepath.Join(dir, "cache.db")
	return config
}

func testRunner(t *testing.T, gw *tu.MockGateway) (*Runner, *bytes.Buffer) {
	t.Helper()
	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config:  testConfig(t),
		Gateway: gw,
		Logger:  shared.NewLogger(&bytes.Buffer{}),
		Output:  output,
	})
	return runner, output
}

func runCLI(t *testing.T, r *Runner, args ...string) error {
	t.Helper()
	app := &cli.Command{Name: "booklog", Commands: r.register()}
	return app.Run(context.Background(), append([]string{"booklog"}, args...))
}

func TestNewRunner(t *testing.T) {
	t.Run("with all dependencies provided", func(t *testing.T) {
		config := testConfig(t)
		logger := shared.NewLogger(nil)
		output := &bytes.Buffer{}
		gw := &tu.MockGateway{}
		sessions := session.NewStore(config.Session.Dir)

		runner := NewRunner(RunnerOpts{
			Config:   config,
			Gateway:  gw,
			Sessions: sessions,
			Logger:   logger,
			Output:   output,
		})

		if runner.config != config {
			t.Error("expected config to be set")
		}
		if runner.logger != logger {
			t.Error("expected logger to be set")
		}
		if runner.output != output {
			t.Error("expected output to be set")
		}
		if runner.sessions != sessions {
			t.Error("expected session store to be set")
		}
		if runner.app == nil || runner.books == nil || runner.form == nil || runner.detail == nil {
			t.Error("expected controllers to be wired")
		}
	})

	t.Run("with nil config uses defaults", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Gateway: &tu.MockGateway{}})
		if runner.config == nil {
			t.Error("expected default config to be set")
		}
	})

	t.Run("with nil output uses stdout", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Config: testConfig(t), Gateway: &tu.MockGateway{}})
		if runner.output != os.Stdout {
			t.Error("expected output to default to os.Stdout")
		}
	})

	t.Run("with nil gateway builds an API client", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Config: testConfig(t)})
		if runner.gw == nil {
			t.Error("expected a gateway to be constructed from config")
		}
	})
}

func TestWriters(t *testing.T) {
	t.Run("writeJSON", func(t *testing.T) {
		runner, output := testRunner(t, &tu.MockGateway{})

		if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
			t.Fatalf("writeJSON failed: %v", err)
		}
		if got := output.String(); got != "{\"key\":\"value\"}\n" {
			t.Errorf("unexpected output %q", got)
		}
	})

	t.Run("writeJSON failed writer", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{
			Config:  testConfig(t),
			Gateway: &tu.MockGateway{},
			Logger:  shared.NewLogger(&bytes.Buffer{}),
			Output:  &tu.FWriter{},
		})

		if err := runner.writeJSON("data", false); err == nil {
			t.Error("expected write error")
		}
	})

	t.Run("writePlain", func(t *testing.T) {
		runner, output := testRunner(t, &tu.MockGateway{})

		if err := runner.writePlain("books: %d\n", 3); err != nil {
			t.Fatalf("writePlain failed: %v", err)
		}
		if output.String() != "books: 3\n" {
			t.Errorf("unexpected output %q", output.String())
		}
	})
}

func TestRequireSession(t *testing.T) {
	t.Run("no session", func(t *testing.T) {
		runner, _ := testRunner(t, &tu.MockGateway{})
		if err := runner.requireSession(); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("established session", func(t *testing.T) {
		runner, _ := testRunner(t, &tu.MockGateway{})
		if err := runner.sessions.Save("tok123", models.User{ID: 1, Email: "a@b.com"}); err != nil {
			t.Fatalf("failed to seed session: %v", err)
		}
		if err := runner.requireSession(); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})
}

func TestAuthStatusCommand(t *testing.T) {
	t.Run("not logged in", func(t *testing.T) {
		runner, output := testRunner(t, &tu.MockGateway{})

		if err := runCLI(t, runner, "auth", "status"); err != nil {
			t.Fatalf("auth status failed: %v", err)
		}
		if !strings.Contains(output.String(), "Not logged in") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("logged in", func(t *testing.T) {
		runner, output := testRunner(t, &tu.MockGateway{})
		if err := runner.sessions.Save("tok123", models.User{ID: 1, Email: "a@b.com", Nickname: "Ann"}); err != nil {
			t.Fatalf("failed to seed session: %v", err)
		}

		if err := runCLI(t, runner, "auth", "status"); err != nil {
			t.Fatalf("auth status failed: %v", err)
		}
		if !strings.Contains(output.String(), "Ann") || !strings.Contains(output.String(), "a@b.com") {
			t.Errorf("unexpected output %q", output.String())
		}
	})
}

func TestBooksListCommand(t *testing.T) {
	t.Run("requires a session", func(t *testing.T) {
		runner, _ := testRunner(t, &tu.MockGateway{})

		err := runCLI(t, runner, "books", "list")
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("lists and refreshes the cache", func(t *testing.T) {
		gw := &tu.MockGateway{
			ListBooksFunc: func(ctx context.Context, q models.ListQuery) (*models.BookPage, error) {
				return &models.BookPage{
					Content:       []models.Book{{ID: 1, Title: "Dispossessed", Author: "Le Guin"}},
					TotalElements: 1, TotalPages: 1,
				}, nil
			},
		}
		runner, output := testRunner(t, gw)
		if err := runner.sessions.Save("tok123", models.User{ID: 1}); err != nil {
			t.Fatalf("failed to seed session: %v", err)
		}

		if err := runCLI(t, runner, "books", "list"); err != nil {
			t.Fatalf("books list failed: %v", err)
		}
		if !strings.Contains(output.String(), "Dispossessed") {
			t.Errorf("unexpected output %q", output.String())
		}

		// The snapshot written during list serves --cached reads.
		output.Reset()
		if err := runCLI(t, runner, "books", "list", "--cached"); err != nil {
			t.Fatalf("cached list failed: %v", err)
		}
		if !strings.Contains(output.String(), "Dispossessed") {
			t.Errorf("expected cached output, got %q", output.String())
		}
		if gw.CallCount("ListBooks") != 1 {
			t.Errorf("cached read must not hit the server, got %d calls", gw.CallCount("ListBooks"))
		}
	})
}

func TestBooksDeleteCommand(t *testing.T) {
	t.Run("aborts without --yes", func(t *testing.T) {
		gw := &tu.MockGateway{}
		runner, output := testRunner(t, gw)
		if err := runner.sessions.Save("tok123", models.User{ID: 1}); err != nil {
			t.Fatalf("failed to seed session: %v", err)
		}

		if err := runCLI(t, runner, "books", "delete", "7"); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if gw.CallCount("DeleteBook") != 0 {
			t.Error("expected no delete request without confirmation")
		}
		if !strings.Contains(output.String(), "Aborted") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("deletes with --yes", func(t *testing.T) {
		gw := &tu.MockGateway{}
		runner, output := testRunner(t, gw)
		if err := runner.sessions.Save("tok123", models.User{ID: 1}); err != nil {
			t.Fatalf("failed to seed session: %v", err)
		}

		if err := runCLI(t, runner, "books", "delete", "--yes", "7"); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if gw.CallCount("DeleteBook") != 1 {
			t.Errorf("expected one delete request, got %d", gw.CallCount("DeleteBook"))
		}
		if !strings.Contains(output.String(), "Deleted") {
			t.Errorf("unexpected output %q", output.String())
		}
	})
}

func TestBooksArchiveCommand(t *testing.T) {
	t.Run("archives the cached snapshot", func(t *testing.T) {
		runner, output := testRunner(t, &tu.MockGateway{})
		runner.refreshCache([]models.Book{
			{ID: 1, Title: "Dispossessed", Author: "Le Guin"},
			{ID: 2, Title: "Borne", Author: "VanderMeer"},
		})

		dir := filepath.Join(t.TempDir(), "archive")
		if err := runCLI(t, runner, "books", "archive", "--cached", "-o", dir); err != nil {
			t.Fatalf("archive failed: %v", err)
		}

		if _, err := os.Stat(filepath.Join(dir, "archive_manifest.json")); err != nil {
			t.Errorf("expected a manifest: %v", err)
		}
		if !strings.Contains(output.String(), "Archived 2 books") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("requires a session without --cached", func(t *testing.T) {
		runner, _ := testRunner(t, &tu.MockGateway{})

		err := runCLI(t, runner, "books", "archive")
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}

func TestParseBookID(t *testing.T) {
	tc := []struct {
		name    string
		arg     string
		want    int64
		wantErr error
	}{
		{name: "valid", arg: "42", want: 42},
		{name: "empty", arg: "", wantErr: shared.ErrMissingArgument},
		{name: "not a number", arg: "abc", wantErr: shared.ErrInvalidArgument},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			id, err := parseBookID(tt.arg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if id != tt.want {
				t.Errorf("expected %d, got %d", tt.want, id)
			}
		})
	}
}

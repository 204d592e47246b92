package tasks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyeonlog/booklog/internal/models"
)

var pngBytes = append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, make([]byte, 64)...)

func sampleBooks(coverURL func(path string) string) []models.Book {
	return []models.Book{
		{ID: 1, Title: "The Dispossessed", Author: "Ursula K. Le Guin", ReadDate: "2024-03-01", IsPublic: true, CoverImageURL: coverURL("/covers/good.png")},
		{ID: 2, Title: "Annihilation", Author: "Jeff VanderMeer", ReadDate: "2024-05-12", CoverImageURL: coverURL("/covers/missing.png")},
		{ID: 3, Title: "Borne", Author: "Jeff VanderMeer", ReadDate: "2024-01-20"},
	}
}

func drainProgress(prog chan ProgressUpdate) []ProgressUpdate {
	close(prog)
	var updates []ProgressUpdate
	for u := range prog {
		updates = append(updates, u)
	}
	return updates
}

func TestArchive(t *testing.T) {
	t.Run("writes list and manifest without covers", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "archive")
		books := sampleBooks(func(string) string { return "" })

		engine := NewArchiveEngine(nil)
		prog := make(chan ProgressUpdate, 32)
		result, err := engine.Archive(context.Background(), prog, books, ArchiveOpts{
			Format:    "json",
			OutputDir: dir,
		})
		if err != nil {
			t.Fatalf("archive failed: %v", err)
		}

		if result.TotalBooks != 3 {
			t.Errorf("expected 3 books, got %d", result.TotalBooks)
		}
		if result.CoversRequested != 0 || result.CoversSaved != 0 {
			t.Errorf("expected no cover activity, got %+v", result)
		}

		data, err := os.ReadFile(result.ListFile)
		if err != nil {
			t.Fatalf("failed to read list file: %v", err)
		}
		var exported []models.Book
		if err := json.Unmarshal(data, &exported); err != nil {
			t.Fatalf("list file is not valid JSON: %v", err)
		}
		if len(exported) != 3 {
			t.Errorf("expected 3 exported books, got %d", len(exported))
		}

		manifest, err := os.ReadFile(result.ManifestPath)
		if err != nil {
			t.Fatalf("failed to read manifest: %v", err)
		}
		var decoded ArchiveResult
		if err := json.Unmarshal(manifest, &decoded); err != nil {
			t.Fatalf("manifest is not valid JSON: %v", err)
		}
		if decoded.TotalBooks != 3 {
			t.Errorf("expected manifest to record 3 books, got %d", decoded.TotalBooks)
		}
	})

	t.Run("rejects unknown formats", func(t *testing.T) {
		engine := NewArchiveEngine(nil)
		_, err := engine.Archive(context.Background(), nil, nil, ArchiveOpts{
			Format:    "xml",
			OutputDir: filepath.Join(t.TempDir(), "archive"),
		})
		if err == nil {
			t.Error("expected an error for an unsupported format")
		}
	})
}

func TestArchiveCovers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/covers/good.png":
			w.Write(pngBytes)
		case "/covers/notimage.png":
			w.Write([]byte("this is not an image at all, just text"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	t.Run("downloads covers and records failures", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "archive")
		books := sampleBooks(func(path string) string { return server.URL + path })
		books = append(books, models.Book{
			ID: 4, Title: "Roadside Picnic", Author: "Strugatsky",
			CoverImageURL: server.URL + "/covers/notimage.png",
		})

		engine := NewArchiveEngine(server.Client())
		prog := make(chan ProgressUpdate, 64)
		result, err := engine.Archive(context.Background(), prog, books, ArchiveOpts{
			Format:     "csv",
			OutputDir:  dir,
			WithCovers: true,
			NumWorkers: 2,
			RateLimit:  100,
		})
		if err != nil {
			t.Fatalf("archive failed: %v", err)
		}

		if result.CoversRequested != 3 {
			t.Errorf("expected 3 cover requests, got %d", result.CoversRequested)
		}
		if result.CoversSaved != 1 {
			t.Errorf("expected 1 saved cover, got %d", result.CoversSaved)
		}
		if result.CoversFailed != 2 {
			t.Errorf("expected 2 failed covers, got %d", result.CoversFailed)
		}

		saved := filepath.Join(dir, "covers", "book_1.png")
		if _, err := os.Stat(saved); err != nil {
			t.Errorf("expected cover file at %s: %v", saved, err)
		}

		for _, cover := range result.Covers {
			switch cover.BookID {
			case 1:
				if cover.Error != "" {
					t.Errorf("expected book 1 to succeed, got %q", cover.Error)
				}
			case 2:
				if !strings.Contains(cover.Error, "status 404") {
					t.Errorf("expected a 404 error for book 2, got %q", cover.Error)
				}
			case 4:
				if !strings.Contains(cover.Error, "not an image") {
					t.Errorf("expected a content-type error for book 4, got %q", cover.Error)
				}
			}
		}

		phases := map[Phase]bool{}
		for _, u := range drainProgress(prog) {
			phases[u.Phase] = true
		}
		for _, want := range []Phase{WriteList, FetchCovers, WriteManifest} {
			if !phases[want] {
				t.Errorf("expected a %s progress update", want)
			}
		}
	})

	t.Run("cancelled context stops the run", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		dir := filepath.Join(t.TempDir(), "archive")
		books := sampleBooks(func(path string) string { return server.URL + path })

		engine := NewArchiveEngine(server.Client())
		result, err := engine.Archive(ctx, nil, books, ArchiveOpts{
			OutputDir:  dir,
			WithCovers: true,
		})
		if err != nil {
			t.Fatalf("archive failed: %v", err)
		}
		if result.CoversSaved != 0 {
			t.Errorf("expected no covers after cancellation, got %d", result.CoversSaved)
		}
	})
}

func TestListExtension(t *testing.T) {
	tc := map[string]string{
		"csv":      "csv",
		"markdown": "md",
		"md":       "md",
		"yaml":     "yaml",
		"yml":      "yaml",
		"json":     "json",
	}
	for format, want := range tc {
		if got := listExtension(format); got != want {
			t.Errorf("listExtension(%q) = %q, want %q", format, got, want)
		}
	}
}

func TestPhaseString(t *testing.T) {
	tc := map[Phase]string{
		WriteList:     "write_list",
		FetchCovers:   "fetch_covers",
		WriteManifest: "write_manifest",
		Phase(99):     "",
	}
	for phase, want := range tc {
		if got := phase.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", phase, got, want)
		}
	}
}

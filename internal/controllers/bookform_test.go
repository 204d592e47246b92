package controllers

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyeonlog/booklog/internal/api"
	"github.com/hyeonlog/booklog/internal/models"
	"github.com/hyeonlog/booklog/internal/shared"
	tu "github.com/hyeonlog/booklog/internal/testing"
)

func newTestForm(gw *tu.MockGateway) *BookForm {
	list := NewBookList(gw, tu.NewFakeScheduler(), 500*time.Millisecond, models.ListQuery{}, nil)
	return NewBookForm(gw, list)
}

func TestBookFormSubmit(t *testing.T) {
	t.Run("Empty Title Never Issues A Network Call", func(t *testing.T) {
		gw := &tu.MockGateway{}
		form := newTestForm(gw)
		form.Open(FormCreate, nil)

		_, err := form.Submit(context.Background(), models.Book{Author: "Le Guin"}, nil)
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if len(gw.Calls) != 0 {
			t.Errorf("expected zero gateway calls, got %v", gw.Calls)
		}
	})

	t.Run("Create Success Reloads And Closes", func(t *testing.T) {
		gw := &tu.MockGateway{}
		form := newTestForm(gw)
		form.Open(FormCreate, nil)

		saved, err := form.Submit(context.Background(), models.Book{Title: "X", Author: "Y", IsPublic: true}, nil)
		if err != nil {
			t.Fatalf("expected submit to succeed, got %v", err)
		}
		if saved == nil || saved.ID == 0 {
			t.Errorf("expected saved book with id, got %+v", saved)
		}

		if gw.CallCount("CreateBook") != 1 {
			t.Errorf("expected one create, got %d", gw.CallCount("CreateBook"))
		}
		if gw.CallCount("ListBooks") != 1 {
			t.Errorf("expected one reload after create, got %d", gw.CallCount("ListBooks"))
		}
		if form.IsOpen() {
			t.Error("expected form closed after success")
		}
	})

	t.Run("Edit Targets The Opened Book", func(t *testing.T) {
		var gotID int64
		gw := &tu.MockGateway{
			UpdateBookFunc: func(ctx context.Context, id int64, book models.Book, cover *api.Attachment) (*models.Book, error) {
				gotID = id
				saved := book
				saved.ID = id
				return &saved, nil
			},
		}
		form := newTestForm(gw)
		form.Open(FormEdit, &models.Book{ID: 3, Title: "Old", Author: "Y"})

		if _, err := form.Submit(context.Background(), models.Book{Title: "New", Author: "Y"}, nil); err != nil {
			t.Fatalf("expected submit to succeed, got %v", err)
		}
		if gotID != 3 {
			t.Errorf("expected update of book 3, got %d", gotID)
		}
		if gw.CallCount("CreateBook") != 0 {
			t.Error("edit must not create")
		}
	})

	t.Run("Failure Keeps Form Open With Fields Intact", func(t *testing.T) {
		gw := &tu.MockGateway{
			CreateBookFunc: func(ctx context.Context, book models.Book, cover *api.Attachment) (*models.Book, error) {
				return nil, &api.Error{Status: 500, Message: "boom"}
			},
		}
		form := newTestForm(gw)
		form.Open(FormCreate, nil)

		draft := models.Book{Title: "X", Author: "Y", Review: "kept text"}
		if _, err := form.Submit(context.Background(), draft, nil); err == nil {
			t.Fatal("expected submit to fail")
		}

		if !form.IsOpen() {
			t.Error("expected form to stay open on failure")
		}
		if form.Draft().Review != "kept text" {
			t.Errorf("expected draft fields intact, got %+v", form.Draft())
		}
		if gw.CallCount("ListBooks") != 0 {
			t.Error("expected no reload after a failed submit")
		}
	})

	t.Run("Single Flight Rejects Concurrent Submit", func(t *testing.T) {
		started := make(chan struct{})
		release := make(chan struct{})
		gw := &tu.MockGateway{
			CreateBookFunc: func(ctx context.Context, book models.Book, cover *api.Attachment) (*models.Book, error) {
				close(started)
				<-release
				saved := book
				saved.ID = 1
				return &saved, nil
			},
		}
		form := newTestForm(gw)
		form.Open(FormCreate, nil)

		done := make(chan error, 1)
		go func() {
			_, err := form.Submit(context.Background(), models.Book{Title: "X", Author: "Y"}, nil)
			done <- err
		}()

		<-started
		_, err := form.Submit(context.Background(), models.Book{Title: "X", Author: "Y"}, nil)
		if !errors.Is(err, shared.ErrSubmitInFlight) {
			t.Errorf("expected ErrSubmitInFlight, got %v", err)
		}

		close(release)
		if err := <-done; err != nil {
			t.Errorf("expected first submit to succeed, got %v", err)
		}
		if gw.CallCount("CreateBook") != 1 {
			t.Errorf("expected exactly one create, got %d", gw.CallCount("CreateBook"))
		}
	})
}

func TestValidateCover(t *testing.T) {
	tc := []struct {
		name    string
		cover   api.Attachment
		wantErr error
	}{
		{
			name:  "small png",
			cover: api.Attachment{Filename: "c.png", ContentType: "image/png", Data: []byte("png")},
		},
		{
			name:    "oversized image",
			cover:   api.Attachment{Filename: "c.png", ContentType: "image/png", Data: bytes.Repeat([]byte{0}, MaxCoverBytes+1)},
			wantErr: shared.ErrImageTooLarge,
		},
		{
			name:    "not an image",
			cover:   api.Attachment{Filename: "c.txt", ContentType: "text/plain; charset=utf-8", Data: []byte("hello")},
			wantErr: shared.ErrNotAnImage,
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCover(&tt.cover)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadCover(t *testing.T) {
	t.Run("Sniffs PNG", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cover.png")
		pngHeader := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}
		if err := os.WriteFile(path, pngHeader, 0644); err != nil {
			t.Fatalf("failed to write test image: %v", err)
		}

		cover, err := LoadCover(path)
		if err != nil {
			t.Fatalf("expected cover to load, got %v", err)
		}
		if cover.ContentType != "image/png" {
			t.Errorf("expected image/png, got %s", cover.ContentType)
		}
		if cover.Filename != "cover.png" {
			t.Errorf("expected filename cover.png, got %s", cover.Filename)
		}
	})

	t.Run("Rejects Text File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "notes.txt")
		if err := os.WriteFile(path, []byte("just some notes"), 0644); err != nil {
			t.Fatalf("failed to write test file: %v", err)
		}

		if _, err := LoadCover(path); !errors.Is(err, shared.ErrNotAnImage) {
			t.Errorf("expected ErrNotAnImage, got %v", err)
		}
	})

	t.Run("Missing File", func(t *testing.T) {
		if _, err := LoadCover(filepath.Join(t.TempDir(), "nope.png")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

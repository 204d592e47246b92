package controllers

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/hyeonlog/booklog/internal/api"
	"github.com/hyeonlog/booklog/internal/models"
	"github.com/hyeonlog/booklog/internal/shared"
)

// MaxCoverBytes is the client-side cover image size limit.
const MaxCoverBytes = 10 << 20 // 10MB

// FormMode distinguishes create from edit submissions.
type FormMode int

const (
	FormCreate FormMode = iota
	FormEdit
)

func (m FormMode) String() string {
	if m == FormEdit {
		return "edit"
	}
	return "create"
}

// BookForm manages the create/update submission lifecycle.
//
// Submissions are single-flight: while one is outstanding, further submits
// for the same form are rejected rather than queued. A successful submit
// reloads the book list and closes the form; a failed one leaves the form
// open with its fields intact.
type BookForm struct {
	gw   Gateway
	list *BookList

	inFlight atomic.Bool

	open   bool
	mode   FormMode
	bookID int64
	draft  models.Book
}

// NewBookForm creates the form controller.
func NewBookForm(gw Gateway, list *BookList) *BookForm {
	return &BookForm{gw: gw, list: list}
}

// Open prepares the form. For edits, existing seeds the draft fields.
func (f *BookForm) Open(mode FormMode, existing *models.Book) {
	f.mode = mode
	f.open = true
	if mode == FormEdit && existing != nil {
		f.bookID = existing.ID
		f.draft = *existing
	} else {
		f.bookID = 0
		f.draft = models.Book{IsPublic: true}
	}
}

// Close discards the form state.
func (f *BookForm) Close() {
	f.open = false
	f.draft = models.Book{}
}

// IsOpen reports whether the form is visible.
func (f *BookForm) IsOpen() bool { return f.open }

// Mode returns the current submission mode.
func (f *BookForm) Mode() FormMode { return f.mode }

// Draft returns the current field values.
func (f *BookForm) Draft() models.Book { return f.draft }

// SetDraft replaces the field values, keeping the form open.
func (f *BookForm) SetDraft(book models.Book) { f.draft = book }

// Submit validates locally, then sends the create or update request.
// No network call is made when validation fails. Returns the saved book.
func (f *BookForm) Submit(ctx context.Context, book models.Book, cover *api.Attachment) (*models.Book, error) {
	if !f.inFlight.CompareAndSwap(false, true) {
		return nil, shared.ErrSubmitInFlight
	}
	defer f.inFlight.Store(false)

	if err := book.Validate(); err != nil {
		return nil, err
	}
	if cover != nil {
		if err := ValidateCover(cover); err != nil {
			return nil, err
		}
	}

	var (
		saved *models.Book
		err   error
	)
	if f.mode == FormEdit {
		saved, err = f.gw.UpdateBook(ctx, f.bookID, book, cover)
	} else {
		saved, err = f.gw.CreateBook(ctx, book, cover)
	}
	if err != nil {
		// Form stays open, fields intact.
		f.draft = book
		return nil, err
	}

	f.Close()
	if f.list != nil {
		if err := f.list.Reload(ctx); err != nil {
			return saved, err
		}
	}
	return saved, nil
}

// ValidateCover enforces the client-side attachment rules: at most 10MB and
// an image/* content type.
func ValidateCover(cover *api.Attachment) error {
	if len(cover.Data) > MaxCoverBytes {
		return fmt.Errorf("%w: %d bytes (limit %d)", shared.ErrImageTooLarge, len(cover.Data), MaxCoverBytes)
	}
	if !strings.HasPrefix(cover.ContentType, "image/") {
		return fmt.Errorf("%w: detected %s", shared.ErrNotAnImage, cover.ContentType)
	}
	return nil
}

// LoadCover reads and validates a cover image from disk. The content type is
// sniffed from the bytes, with the file extension as a fallback for formats
// the sniffer reports as octet-stream.
func LoadCover(path string) (*api.Attachment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cover image: %w", err)
	}
	if info.Size() > MaxCoverBytes {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", shared.ErrImageTooLarge, info.Size(), MaxCoverBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cover image: %w", err)
	}

	contentType := http.DetectContentType(data)
	if contentType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(filepath.Ext(path)); byExt != "" {
			contentType = byExt
		}
	}

	cover := &api.Attachment{
		Filename:    filepath.Base(path),
		ContentType: contentType,
		Data:        data,
	}
	if err := ValidateCover(cover); err != nil {
		return nil, err
	}
	return cover, nil
}

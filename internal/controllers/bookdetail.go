package controllers

import (
	"context"
	"fmt"

	"github.com/hyeonlog/booklog/internal/models"
	"github.com/hyeonlog/booklog/internal/shared"
)

// BookDetail holds the single selected book: a one-slot cache, replaced on
// every Open.
type BookDetail struct {
	gw   Gateway
	list *BookList

	open bool
	book *models.Book
}

// NewBookDetail creates the detail controller.
func NewBookDetail(gw Gateway, list *BookList) *BookDetail {
	return &BookDetail{gw: gw, list: list}
}

// Open fetches one book and makes it the selected instance.
func (d *BookDetail) Open(ctx context.Context, id int64) error {
	book, err := d.gw.GetBook(ctx, id)
	if err != nil {
		return err
	}
	d.book = book
	d.open = true
	return nil
}

// Current returns the selected book, or nil when nothing is open.
func (d *BookDetail) Current() *models.Book { return d.book }

// IsOpen reports whether the detail view is visible.
func (d *BookDetail) IsOpen() bool { return d.open }

// Close drops the selection.
func (d *BookDetail) Close() {
	d.open = false
	d.book = nil
}

// Delete removes the selected book after confirmation. On success the book
// list is reloaded exactly once and the detail view closes; on failure the
// view stays open with the selection intact.
func (d *BookDetail) Delete(ctx context.Context, confirm func() bool) error {
	if d.book == nil {
		return fmt.Errorf("%w: no book selected", shared.ErrBookNotFound)
	}
	if confirm != nil && !confirm() {
		return nil
	}

	if err := d.gw.DeleteBook(ctx, d.book.ID); err != nil {
		return err
	}

	d.Close()
	if d.list != nil {
		if err := d.list.Reload(ctx); err != nil {
			return err
		}
	}
	return nil
}

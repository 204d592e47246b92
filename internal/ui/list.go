package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/hyeonlog/booklog/internal/models"
	"github.com/hyeonlog/booklog/internal/shared"
)

var (
	_ list.Item = bookItem{}
)

// bookItem wraps [models.Book] to implement [list.Item].
type bookItem struct {
	book models.Book
}

func (i bookItem) FilterValue() string { return i.book.Title }
func (i bookItem) Title() string       { return i.book.Title }
func (i bookItem) Description() string {
	desc := i.book.Author
	if i.book.ReadDate != "" {
		desc = fmt.Sprintf("%s • read %s", desc, i.book.ReadDate)
	}
	return fmt.Sprintf("%s • %s", desc, shared.VisibilityString(i.book.IsPublic))
}

package controllers

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hyeonlog/booklog/internal/models"
	"github.com/hyeonlog/booklog/internal/shared"
)

// searchKey is the scheduler key for the debounced search reload.
const searchKey = "booklist.search"

// BookList fetches and caches the current page of the user's books.
//
// The collection is replaced wholesale on every successful reload and left
// untouched on failure. Search input is debounced; sort and page changes
// reload immediately.
type BookList struct {
	gw     Gateway
	sched  Scheduler
	window time.Duration
	logger *log.Logger

	mu            sync.Mutex
	query         models.ListQuery
	books         []models.Book
	totalElements int
	totalPages    int
	loaded        bool

	// onReload, when set, observes the outcome of every completed reload,
	// including debounced ones fired from a timer.
	onReload func(error)
}

// NewBookList creates the list controller with its initial query.
func NewBookList(gw Gateway, sched Scheduler, window time.Duration, query models.ListQuery, logger *log.Logger) *BookList {
	if sched == nil {
		sched = NewTimerScheduler()
	}
	if window <= 0 {
		window = 500 * time.Millisecond
	}
	if query.Size <= 0 {
		query.Size = 20
	}
	if query.SortBy == "" {
		query.SortBy = "date"
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &BookList{gw: gw, sched: sched, window: window, query: query, logger: logger}
}

// SetOnReload registers an observer for reload outcomes.
func (l *BookList) SetOnReload(fn func(error)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onReload = fn
}

// Reload fetches with the current query and replaces the collection.
// On failure the cached collection is left exactly as it was.
func (l *BookList) Reload(ctx context.Context) error {
	l.mu.Lock()
	query := l.query
	notify := l.onReload
	l.mu.Unlock()

	page, err := l.gw.ListBooks(ctx, query)
	if err != nil {
		l.logger.Warn("book list reload failed", "error", err)
		if notify != nil {
			notify(err)
		}
		return err
	}

	l.mu.Lock()
	l.books = page.Content
	l.totalElements = page.TotalElements
	l.totalPages = page.TotalPages
	l.loaded = true
	l.mu.Unlock()

	l.logger.Debug("book list reloaded", "count", len(page.Content), "search", query.Search)
	if notify != nil {
		notify(nil)
	}
	return nil
}

// SearchChanged records the new term and schedules a reload after the quiet
// window. Each call supersedes any pending scheduled reload, so only the
// last term in a burst of keystrokes triggers a fetch.
func (l *BookList) SearchChanged(ctx context.Context, term string) {
	l.mu.Lock()
	l.query.Search = term
	l.query.Page = 0
	l.mu.Unlock()

	l.sched.Schedule(searchKey, l.window, func() {
		l.Reload(ctx)
	})
}

// SetSort switches the sort key and reloads immediately.
func (l *BookList) SetSort(ctx context.Context, sortBy string) error {
	l.mu.Lock()
	l.query.SortBy = sortBy
	l.query.Page = 0
	l.mu.Unlock()
	return l.Reload(ctx)
}

// SetPage moves to another page and reloads immediately.
func (l *BookList) SetPage(ctx context.Context, page int) error {
	if page < 0 {
		page = 0
	}
	l.mu.Lock()
	l.query.Page = page
	l.mu.Unlock()
	return l.Reload(ctx)
}

// Books returns a copy of the cached collection.
func (l *BookList) Books() []models.Book {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.Book, len(l.books))
	copy(out, l.books)
	return out
}

// Query returns the current list inputs.
func (l *BookList) Query() models.ListQuery {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.query
}

// Totals returns the element and page counts from the last successful fetch.
func (l *BookList) Totals() (elements, pages int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalElements, l.totalPages
}

// Loaded reports whether at least one fetch has succeeded.
func (l *BookList) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded
}

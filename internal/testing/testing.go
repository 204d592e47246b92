// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/hyeonlog/booklog/internal/api"
	"github.com/hyeonlog/booklog/internal/models"
)

// MockGateway is a scriptable test double for the controllers' Gateway.
// Unset funcs return empty successes. Every invocation is appended to Calls.
type MockGateway struct {
	mu    sync.Mutex
	Calls []string

	LoginFunc      func(ctx context.Context, creds models.Credentials) (*api.LoginResponse, error)
	RegisterFunc   func(ctx context.Context, reg models.Registration) error
	ListBooksFunc  func(ctx context.Context, q models.ListQuery) (*models.BookPage, error)
	GetBookFunc    func(ctx context.Context, id int64) (*models.Book, error)
	CreateBookFunc func(ctx context.Context, book models.Book, cover *api.Attachment) (*models.Book, error)
	UpdateBookFunc func(ctx context.Context, id int64, book models.Book, cover *api.Attachment) (*models.Book, error)
	DeleteBookFunc func(ctx context.Context, id int64) error
}

func (m *MockGateway) record(name string) {
	m.mu.Lock()
	m.Calls = append(m.Calls, name)
	m.mu.Unlock()
}

// CallCount returns how many times the named method was invoked.
func (m *MockGateway) CallCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c == name {
			n++
		}
	}
	return n
}

func (m *MockGateway) Login(ctx context.Context, creds models.Credentials) (*api.LoginResponse, error) {
	m.record("Login")
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, creds)
	}
	return &api.LoginResponse{Token: "test-token", Type: "Bearer"}, nil
}

func (m *MockGateway) Register(ctx context.Context, reg models.Registration) error {
	m.record("Register")
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, reg)
	}
	return nil
}

func (m *MockGateway) ListBooks(ctx context.Context, q models.ListQuery) (*models.BookPage, error) {
	m.record("ListBooks")
	if m.ListBooksFunc != nil {
		return m.ListBooksFunc(ctx, q)
	}
	return &models.BookPage{}, nil
}

func (m *MockGateway) GetBook(ctx context.Context, id int64) (*models.Book, error) {
	m.record("GetBook")
	if m.GetBookFunc != nil {
		return m.GetBookFunc(ctx, id)
	}
	return &models.Book{ID: id}, nil
}

func (m *MockGateway) CreateBook(ctx context.Context, book models.Book, cover *api.Attachment) (*models.Book, error) {
	m.record("CreateBook")
	if m.CreateBookFunc != nil {
		return m.CreateBookFunc(ctx, book, cover)
	}
	saved := book
	saved.ID = 1
	return &saved, nil
}

func (m *MockGateway) UpdateBook(ctx context.Context, id int64, book models.Book, cover *api.Attachment) (*models.Book, error) {
	m.record("UpdateBook")
	if m.UpdateBookFunc != nil {
		return m.UpdateBookFunc(ctx, id, book, cover)
	}
	saved := book
	saved.ID = id
	return &saved, nil
}

func (m *MockGateway) DeleteBook(ctx context.Context, id int64) error {
	m.record("DeleteBook")
	if m.DeleteBookFunc != nil {
		return m.DeleteBookFunc(ctx, id)
	}
	return nil
}

// FakeScheduler is a deterministic Scheduler driven by Advance instead of
// wall-clock timers.
type FakeScheduler struct {
	mu      sync.Mutex
	now     time.Duration
	pending map[string]fakeTask
}

type fakeTask struct {
	fireAt time.Duration
	fn     func()
}

func NewFakeScheduler() *FakeScheduler {
	return &FakeScheduler{pending: make(map[string]fakeTask)}
}

// Schedule arms fn at now+d, superseding any pending task for key.
func (s *FakeScheduler) Schedule(key string, d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[key] = fakeTask{fireAt: s.now + d, fn: fn}
}

// Cancel drops the pending task for key.
func (s *FakeScheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, key)
}

// Advance moves the fake clock forward, firing tasks that come due.
func (s *FakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now += d
	var due []func()
	for key, task := range s.pending {
		if task.fireAt <= s.now {
			due = append(due, task.fn)
			delete(s.pending, key)
		}
	}
	s.mu.Unlock()

	for _, fn := range due {
		fn()
	}
}

// PendingCount returns the number of armed tasks.
func (s *FakeScheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

var _ io.Writer = (*FWriter)(nil)

// Package api wraps the book-log backend's REST surface.
//
// Every call is a single attempt: no retries, no backoff. The client never
// mutates the session; callers decide what a failure means for auth state.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/hyeonlog/booklog/internal/models"
	"github.com/hyeonlog/booklog/internal/shared"
)

// Error is a failed HTTP exchange with the backend.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

// IsAuthError reports whether err is a 401 rejection, the signal that the
// session is no longer accepted and must be torn down.
func IsAuthError(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// Client issues requests against the book-log backend.
//
// The bearer token is read per request from an [oauth2.TokenSource], so a
// login or logout between calls takes effect immediately.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     oauth2.TokenSource
	limiter    *rate.Limiter
}

// NewClient creates a Client for the backend at baseURL. tokens may be nil
// for a client that only performs unauthenticated calls.
func NewClient(baseURL string, client *http.Client, tokens oauth2.TokenSource) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		tokens:     tokens,
		limiter:    rate.NewLimiter(rate.Limit(5), 1),
	}
}

// SetRateLimit adjusts the outbound requests-per-second guard.
func (c *Client) SetRateLimit(rps float64) {
	if rps > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// do performs one request. A JSON body is decoded into out when out is
// non-nil; statuses outside [200,299] become an [*Error].
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Request-ID", shared.GenerateID())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if c.tokens != nil {
		tok, err := c.tokens.Token()
		switch {
		case err == nil:
			tok.SetAuthHeader(req)
		case errors.Is(err, shared.ErrNotAuthenticated):
			// Unauthenticated calls (login, register) go out bare.
		default:
			return fmt.Errorf("failed to read session token: %w", err)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{Status: resp.StatusCode, Message: extractMessage(respBody)}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// extractMessage pulls the error text from a failure body's message or error
// field, falling back to a generic failure string.
func extractMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return "request failed"
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(data), "application/json", out)
}

// LoginResponse is the token envelope returned by POST /api/auth/login.
type LoginResponse struct {
	Token    string `json:"token"`
	Type     string `json:"type"`
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
}

// User projects the login response into the cached profile shape.
func (r *LoginResponse) User() models.User {
	return models.User{ID: r.ID, Email: r.Email, Nickname: r.Nickname}
}

// Register creates an account. The backend replies with a plain-text ack.
func (c *Client) Register(ctx context.Context, reg models.Registration) error {
	return c.postJSON(ctx, "/api/auth/register", reg, nil)
}

// Login exchanges credentials for a bearer token and profile.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.postJSON(ctx, "/api/auth/login", creds, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("%w: response carried no token", shared.ErrAuthFailed)
	}
	return &resp, nil
}

// ListBooks fetches one page of the user's books.
func (c *Client) ListBooks(ctx context.Context, q models.ListQuery) (*models.BookPage, error) {
	params := url.Values{}
	params.Set("search", q.Search)
	params.Set("sortBy", q.SortBy)
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("size", strconv.Itoa(q.Size))

	var page models.BookPage
	if err := c.do(ctx, http.MethodGet, "/api/books?"+params.Encode(), nil, "", &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetBook fetches a single book by id.
func (c *Client) GetBook(ctx context.Context, id int64) (*models.Book, error) {
	var book models.Book
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/books/%d", id), nil, "", &book); err != nil {
		return nil, err
	}
	return &book, nil
}

// CreateBook submits a new book, with an optional cover image attachment.
func (c *Client) CreateBook(ctx context.Context, book models.Book, cover *Attachment) (*models.Book, error) {
	return c.submitMultipart(ctx, http.MethodPost, "/api/books", book, cover)
}

// UpdateBook replaces an existing book's fields, same body shape as create.
func (c *Client) UpdateBook(ctx context.Context, id int64, book models.Book, cover *Attachment) (*models.Book, error) {
	return c.submitMultipart(ctx, http.MethodPut, fmt.Sprintf("/api/books/%d", id), book, cover)
}

// DeleteBook removes a book by id.
func (c *Client) DeleteBook(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/books/%d", id), nil, "", nil)
}

// Attachment is a cover image ready for upload. Validation (size, MIME)
// happens before this is built; see the form controller.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// submitMultipart writes the backend's two-part body: a JSON "book" part and
// an optional "coverImage" file part.
func (c *Client) submitMultipart(ctx context.Context, method, path string, book models.Book, cover *Attachment) (*models.Book, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	bookJSON, err := json.Marshal(book)
	if err != nil {
		return nil, fmt.Errorf("failed to encode book: %w", err)
	}

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="book"`)
	header.Set("Content-Type", "application/json")
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create book part: %w", err)
	}
	if _, err := part.Write(bookJSON); err != nil {
		return nil, fmt.Errorf("failed to write book part: %w", err)
	}

	if cover != nil {
		fileHeader := textproto.MIMEHeader{}
		fileHeader.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="coverImage"; filename=%q`, cover.Filename))
		fileHeader.Set("Content-Type", cover.ContentType)
		filePart, err := w.CreatePart(fileHeader)
		if err != nil {
			return nil, fmt.Errorf("failed to create cover part: %w", err)
		}
		if _, err := filePart.Write(cover.Data); err != nil {
			return nil, fmt.Errorf("failed to write cover part: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	var saved models.Book
	if err := c.do(ctx, method, path, &buf, w.FormDataContentType(), &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

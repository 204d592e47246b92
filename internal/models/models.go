package models

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hyeonlog/booklog/internal/shared"
)

// Book is the client-side projection of a server book entity.
type Book struct {
	ID             int64  `json:"id,omitempty"`
	Title          string `json:"title"`
	Author         string `json:"author"`
	Publisher      string `json:"publisher,omitempty"`
	ReadDate       string `json:"readDate,omitempty"` // YYYY-MM-DD
	Description    string `json:"description,omitempty"`
	Review         string `json:"review,omitempty"`
	BeforeThoughts string `json:"beforeThoughts,omitempty"`
	AfterThoughts  string `json:"afterThoughts,omitempty"`
	IsPublic       bool   `json:"isPublic"`
	CoverImageURL  string `json:"coverImageUrl,omitempty"`
	UserNickname   string `json:"userNickname,omitempty"`
}

// Validate checks the fields the server requires before any network call is made.
func (b *Book) Validate() error {
	if strings.TrimSpace(b.Title) == "" {
		return fmt.Errorf("%w: title is required", shared.ErrInvalidInput)
	}
	if strings.TrimSpace(b.Author) == "" {
		return fmt.Errorf("%w: author is required", shared.ErrInvalidInput)
	}
	return nil
}

// BookPage is the paginated list envelope returned by GET /api/books.
type BookPage struct {
	Content       []Book `json:"content"`
	TotalElements int    `json:"totalElements"`
	TotalPages    int    `json:"totalPages"`
	Number        int    `json:"number"`
	Size          int    `json:"size"`
}

// User is the cached profile of the logged-in user.
type User struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
}

// Credentials carries a login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration carries a register request body.
type Registration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Validate checks registration fields locally before the request is sent.
func (r *Registration) Validate() error {
	if !emailPattern.MatchString(r.Email) {
		return fmt.Errorf("%w: invalid email address", shared.ErrInvalidInput)
	}
	if len(r.Password) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", shared.ErrInvalidInput)
	}
	if strings.TrimSpace(r.Nickname) == "" {
		return fmt.Errorf("%w: nickname is required", shared.ErrInvalidInput)
	}
	return nil
}

// ListQuery holds the book list view inputs that drive a fetch.
type ListQuery struct {
	Search string
	SortBy string // date, title, author
	Page   int
	Size   int
}

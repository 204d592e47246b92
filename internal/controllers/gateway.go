package controllers

import (
	"context"

	"github.com/hyeonlog/booklog/internal/api"
	"github.com/hyeonlog/booklog/internal/models"
)

// Gateway is the slice of the API client the controllers drive.
type Gateway interface {
	Register(ctx context.Context, reg models.Registration) error
	Login(ctx context.Context, creds models.Credentials) (*api.LoginResponse, error)
	ListBooks(ctx context.Context, q models.ListQuery) (*models.BookPage, error)
	GetBook(ctx context.Context, id int64) (*models.Book, error)
	CreateBook(ctx context.Context, book models.Book, cover *api.Attachment) (*models.Book, error)
	UpdateBook(ctx context.Context, id int64, book models.Book, cover *api.Attachment) (*models.Book, error)
	DeleteBook(ctx context.Context, id int64) error
}

var _ Gateway = (*api.Client)(nil)

package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/hyeonlog/booklog/internal/models"
	"github.com/hyeonlog/booklog/internal/shared"
)

// BookCacheRepository stores snapshots of fetched book lists in sqlite.
//
// Every successful fetch replaces the whole cache, matching the server's
// pagination semantics: stale rows never mix with fresh ones.
type BookCacheRepository struct {
	db *sql.DB
}

// NewBookCacheRepository creates a new BookCacheRepository with the given database connection
func NewBookCacheRepository(db *sql.DB) *BookCacheRepository {
	return &BookCacheRepository{db: db}
}

// ReplaceAll drops the current snapshot and inserts the given books in a
// single transaction. A failed insert rolls back, leaving the old snapshot
// intact.
func (r *BookCacheRepository) ReplaceAll(books []models.Book) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM cached_books"); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	query := `
		INSERT INTO cached_books (id, book_id, title, author, publisher, read_date, description, review, before_thoughts, after_thoughts, is_public, cover_image_url, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC()
	for _, book := range books {
		if err := book.Validate(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}

		_, err := tx.Exec(query,
			shared.GenerateID(),
			book.ID,
			book.Title,
			book.Author,
			book.Publisher,
			book.ReadDate,
			book.Description,
			book.Review,
			book.BeforeThoughts,
			book.AfterThoughts,
			book.IsPublic,
			book.CoverImageURL,
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert cached book %d: %w", book.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cache snapshot: %w", err)
	}

	return nil
}

// Get retrieves a cached book by its server ID
func (r *BookCacheRepository) Get(bookID int64) (*models.Book, error) {
	query := `
		SELECT book_id, title, author, publisher, read_date, description, review, before_thoughts, after_thoughts, is_public, cover_image_url
		FROM cached_books
		WHERE book_id = ?
	`

	book, err := scanBook(r.db.QueryRow(query, bookID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: book %d not cached", shared.ErrBookNotFound, bookID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan cached book: %w", err)
	}

	return book, nil
}

// List retrieves cached books filtered by a search term over title and author,
// ordered the same way the server orders them
func (r *BookCacheRepository) List(search, sortBy string) ([]models.Book, error) {
	query := `
		SELECT book_id, title, author, publisher, read_date, description, review, before_thoughts, after_thoughts, is_public, cover_image_url
		FROM cached_books
	`

	args := []any{}
	if search != "" {
		query += " WHERE title LIKE ? OR author LIKE ?"
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern)
	}

	switch sortBy {
	case "title":
		query += " ORDER BY title ASC"
	case "author":
		query += " ORDER BY author ASC"
	default:
		query += " ORDER BY read_date DESC, book_id DESC"
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cached books: %w", err)
	}
	defer rows.Close()

	var books []models.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cached book: %w", err)
		}
		books = append(books, *book)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return books, nil
}

// Count returns the number of cached books
func (r *BookCacheRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM cached_books").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cached books: %w", err)
	}
	return n, nil
}

// FetchedAt returns when the current snapshot was taken. The zero time means
// the cache is empty.
func (r *BookCacheRepository) FetchedAt() (time.Time, error) {
	var fetched time.Time
	err := r.db.QueryRow("SELECT fetched_at FROM cached_books ORDER BY fetched_at DESC LIMIT 1").Scan(&fetched)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read cache timestamp: %w", err)
	}
	return fetched, nil
}

// Remove drops a single book from the snapshot, keeping the cache consistent
// after a server-side delete.
func (r *BookCacheRepository) Remove(bookID int64) error {
	result, err := r.db.Exec("DELETE FROM cached_books WHERE book_id = ?", bookID)
	if err != nil {
		return fmt.Errorf("failed to remove cached book: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: book %d not cached", shared.ErrBookNotFound, bookID)
	}

	return nil
}

// scanner covers both sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanBook(row scanner) (*models.Book, error) {
	var (
		book           models.Book
		publisher      sql.NullString
		readDate       sql.NullString
		description    sql.NullString
		review         sql.NullString
		beforeThoughts sql.NullString
		afterThoughts  sql.NullString
		coverImageURL  sql.NullString
	)

	err := row.Scan(
		&book.ID,
		&book.Title,
		&book.Author,
		&publisher,
		&readDate,
		&description,
		&review,
		&beforeThoughts,
		&afterThoughts,
		&book.IsPublic,
		&coverImageURL,
	)
	if err != nil {
		return nil, err
	}

	book.Publisher = publisher.String
	book.ReadDate = readDate.String
	book.Description = description.String
	book.Review = review.String
	book.BeforeThoughts = beforeThoughts.String
	book.AfterThoughts = afterThoughts.String
	book.CoverImageURL = coverImageURL.String

	return &book, nil
}

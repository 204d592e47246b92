// package formatter provides functions to export book lists to various formats (CSV, Markdown, YAML, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/hyeonlog/booklog/internal/models"
	"github.com/hyeonlog/booklog/internal/shared"
)

// ExportToCSV converts a book list to CSV format with columns: ID, Title, Author, Publisher, ReadDate, Visibility
func ExportToCSV(books []models.Book) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Author", "Publisher", "ReadDate", "Visibility"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, book := range books {
		record := []string{
			strconv.FormatInt(book.ID, 10),
			book.Title,
			book.Author,
			book.Publisher,
			book.ReadDate,
			shared.VisibilityString(book.IsPublic),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a book list to a Markdown reading log
func ExportToMarkdown(books []models.Book, title string) ([]byte, error) {
	var buf bytes.Buffer

	if title == "" {
		title = "Reading Log"
	}
	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	buf.WriteString(fmt.Sprintf("**Books**: %d\n\n", len(books)))

	for _, book := range books {
		buf.WriteString(fmt.Sprintf("## %s\n\n", book.Title))
		buf.WriteString(fmt.Sprintf("**Author**: %s\n", book.Author))
		if book.Publisher != "" {
			buf.WriteString(fmt.Sprintf("**Publisher**: %s\n", book.Publisher))
		}
		if book.ReadDate != "" {
			buf.WriteString(fmt.Sprintf("**Read**: %s\n", book.ReadDate))
		}
		buf.WriteString(fmt.Sprintf("**Visibility**: %s\n", shared.VisibilityString(book.IsPublic)))

		if book.Description != "" {
			buf.WriteString(fmt.Sprintf("\n%s\n", book.Description))
		}
		if book.BeforeThoughts != "" {
			buf.WriteString(fmt.Sprintf("\n### Before Reading\n\n%s\n", book.BeforeThoughts))
		}
		if book.Review != "" {
			buf.WriteString(fmt.Sprintf("\n### Review\n\n%s\n", book.Review))
		}
		if book.AfterThoughts != "" {
			buf.WriteString(fmt.Sprintf("\n### After Reading\n\n%s\n", book.AfterThoughts))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// bookYAML flattens a book for export so field names stay stable even if the
// JSON wire format changes.
type bookYAML struct {
	ID             int64  `yaml:"id"`
	Title          string `yaml:"title"`
	Author         string `yaml:"author"`
	Publisher      string `yaml:"publisher,omitempty"`
	ReadDate       string `yaml:"read_date,omitempty"`
	Description    string `yaml:"description,omitempty"`
	Review         string `yaml:"review,omitempty"`
	BeforeThoughts string `yaml:"before_thoughts,omitempty"`
	AfterThoughts  string `yaml:"after_thoughts,omitempty"`
	Public         bool   `yaml:"public"`
	CoverImageURL  string `yaml:"cover_image_url,omitempty"`
}

// ExportToYAML converts a book list to a YAML document
func ExportToYAML(books []models.Book) ([]byte, error) {
	out := make([]bookYAML, 0, len(books))
	for _, book := range books {
		out = append(out, bookYAML{
			ID:             book.ID,
			Title:          book.Title,
			Author:         book.Author,
			Publisher:      book.Publisher,
			ReadDate:       book.ReadDate,
			Description:    book.Description,
			Review:         book.Review,
			BeforeThoughts: book.BeforeThoughts,
			AfterThoughts:  book.AfterThoughts,
			Public:         book.IsPublic,
			CoverImageURL:  book.CoverImageURL,
		})
	}

	data, err := yaml.Marshal(map[string]any{"books": out})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal YAML: %w", err)
	}

	return data, nil
}

// ExportToJSON converts a book list to indented JSON
func ExportToJSON(books []models.Book) ([]byte, error) {
	data, err := shared.MarshalJSON(books, true)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return data, nil
}

// Export renders books in the named format: csv, markdown, yaml or json
func Export(books []models.Book, format string) ([]byte, error) {
	switch format {
	case "csv":
		return ExportToCSV(books)
	case "markdown", "md":
		return ExportToMarkdown(books, "")
	case "yaml", "yml":
		return ExportToYAML(books)
	case "json":
		return ExportToJSON(books)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidInput, format)
	}
}

// WriteExport renders books in the named format and writes them to path
func WriteExport(books []models.Book, format, path string) error {
	data, err := Export(books, format)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}

	return nil
}

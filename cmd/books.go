package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/hyeonlog/booklog/internal/api"
	"github.com/hyeonlog/booklog/internal/controllers"
	"github.com/hyeonlog/booklog/internal/formatter"
	"github.com/hyeonlog/booklog/internal/models"
	"github.com/hyeonlog/booklog/internal/shared"
	"github.com/hyeonlog/booklog/internal/tasks"
)

// BooksList lists books from the server, refreshing the local cache snapshot
// on success. With --cached it reads the snapshot instead.
func (r *Runner) BooksList(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("cached") {
		return r.listCached(cmd)
	}

	if err := r.requireSession(); err != nil {
		return err
	}

	query := r.queryFromFlags(cmd)
	books := controllers.NewBookList(r.gw, nil, 0, query, r.logger)
	if err := r.app.HandleFailure(books.Reload(ctx)); err != nil {
		return err
	}

	r.refreshCache(books.Books())

	if cmd.Bool("json") {
		elements, pages := books.Totals()
		return r.writeJSON(map[string]any{
			"books":         books.Books(),
			"totalElements": elements,
			"totalPages":    pages,
			"page":          query.Page,
		}, true)
	}

	elements, pages := books.Totals()
	return r.printBooks(books.Books(), elements, pages)
}

// BooksShow fetches and prints one book in full.
func (r *Runner) BooksShow(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	id, err := parseBookID(cmd.StringArg("id"))
	if err != nil {
		return err
	}

	if err := r.app.HandleFailure(r.detail.Open(ctx, id)); err != nil {
		return err
	}
	book := r.detail.Current()

	if cmd.Bool("json") {
		return r.writeJSON(book, true)
	}

	r.writePlain("%s\n", heading("%s", book.Title))
	r.writePlain("Author: %s\n", book.Author)
	if book.Publisher != "" {
		r.writePlain("Publisher: %s\n", book.Publisher)
	}
	if book.ReadDate != "" {
		r.writePlain("Read: %s\n", book.ReadDate)
	}
	r.writePlain("Visibility: %s\n", shared.VisibilityString(book.IsPublic))

	sections := []struct{ label, text string }{
		{"Description", book.Description},
		{"Before reading", book.BeforeThoughts},
		{"Review", book.Review},
		{"After reading", book.AfterThoughts},
	}
	for _, s := range sections {
		if s.text != "" {
			r.writePlainln("%s:\n%s", heading("%s", s.label), s.text)
		}
	}
	return nil
}

// BooksAdd creates a book from flags, with an optional cover image.
func (r *Runner) BooksAdd(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	book := bookFromFlags(cmd, models.Book{})

	cover, err := loadCoverFlag(cmd)
	if err != nil {
		return err
	}

	r.form.Open(controllers.FormCreate, nil)
	saved, err := r.form.Submit(ctx, book, cover)
	if err != nil {
		return r.app.HandleFailure(err)
	}

	r.refreshCache(r.books.Books())
	r.writePlain("%s Added '%s' (id %d)\n", okMark, saved.Title, saved.ID)
	return nil
}

// BooksEdit updates an existing book. Unset flags keep their current values.
func (r *Runner) BooksEdit(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	id, err := parseBookID(cmd.StringArg("id"))
	if err != nil {
		return err
	}

	existing, err := r.gw.GetBook(ctx, id)
	if err != nil {
		return r.app.HandleFailure(err)
	}

	book := bookFromFlags(cmd, *existing)

	cover, err := loadCoverFlag(cmd)
	if err != nil {
		return err
	}

	r.form.Open(controllers.FormEdit, existing)
	saved, err := r.form.Submit(ctx, book, cover)
	if err != nil {
		return r.app.HandleFailure(err)
	}

	r.refreshCache(r.books.Books())
	r.writePlain("%s Updated '%s' (id %d)\n", okMark, saved.Title, saved.ID)
	return nil
}

// BooksDelete removes a book after confirmation.
func (r *Runner) BooksDelete(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	id, err := parseBookID(cmd.StringArg("id"))
	if err != nil {
		return err
	}

	if err := r.app.HandleFailure(r.detail.Open(ctx, id)); err != nil {
		return err
	}
	title := r.detail.Current().Title

	if err := r.app.HandleFailure(r.detail.Delete(ctx, func() bool { return cmd.Bool("yes") })); err != nil {
		return err
	}
	if r.detail.IsOpen() {
		return r.writePlain("Aborted; pass --yes to delete '%s'\n", title)
	}

	r.refreshCache(r.books.Books())
	r.writePlain("%s Deleted '%s'\n", okMark, title)
	return nil
}

// BooksExport renders the book list in the requested format.
func (r *Runner) BooksExport(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	outputPath := cmd.String("output")

	books, err := r.collectBooks(ctx, cmd)
	if err != nil {
		return err
	}

	if outputPath != "" {
		if err := formatter.WriteExport(books, format, outputPath); err != nil {
			return err
		}
		return r.writePlain("%s Exported %d books to %s\n", okMark, len(books), outputPath)
	}

	data, err := formatter.Export(books, format)
	if err != nil {
		return err
	}
	return r.writePlain("%s", data)
}

// BooksArchive writes a full on-disk archive of the log, optionally
// downloading cover images, and streams progress as it goes.
func (r *Runner) BooksArchive(ctx context.Context, cmd *cli.Command) error {
	books, err := r.collectBooks(ctx, cmd)
	if err != nil {
		return err
	}

	engine := tasks.NewArchiveEngine(nil)
	opts := tasks.ArchiveOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output-dir"),
		WithCovers: cmd.Bool("covers"),
		NumWorkers: int(cmd.Int("workers")),
	}

	prog := make(chan tasks.ProgressUpdate, 64)
	type archiveDone struct {
		result *tasks.ArchiveResult
		err    error
	}
	done := make(chan archiveDone, 1)

	go func() {
		result, err := engine.Archive(ctx, prog, books, opts)
		close(prog)
		done <- archiveDone{result, err}
	}()

	for update := range prog {
		r.writePlain("%s\n", update.Message)
	}

	d := <-done
	if d.err != nil {
		return d.err
	}

	r.writePlain("%s Archived %d books to %s\n", okMark, d.result.TotalBooks, d.result.OutputDirectory)
	if d.result.CoversRequested > 0 {
		r.writePlain("Covers: %d saved, %d failed\n", d.result.CoversSaved, d.result.CoversFailed)
	}
	return nil
}

// collectBooks resolves the list to operate on, from the cache with --cached
// or from the server otherwise.
func (r *Runner) collectBooks(ctx context.Context, cmd *cli.Command) ([]models.Book, error) {
	if cmd.Bool("cached") {
		db, repo, err := r.openCache()
		if err != nil {
			return nil, err
		}
		defer db.Close()

		return repo.List(cmd.String("search"), cmd.String("sort"))
	}

	if err := r.requireSession(); err != nil {
		return nil, err
	}

	list := controllers.NewBookList(r.gw, nil, 0, r.queryFromFlags(cmd), r.logger)
	if err := r.app.HandleFailure(list.Reload(ctx)); err != nil {
		return nil, err
	}
	return list.Books(), nil
}

func (r *Runner) listCached(cmd *cli.Command) error {
	db, repo, err := r.openCache()
	if err != nil {
		return err
	}
	defer db.Close()

	books, err := repo.List(cmd.String("search"), cmd.String("sort"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(books, true)
	}

	if fetched, err := repo.FetchedAt(); err == nil && !fetched.IsZero() {
		r.writePlain("Cached snapshot from %s\n\n", fetched.Local().Format(time.RFC1123))
	}
	return r.printBooks(books, len(books), 1)
}

// refreshCache replaces the local snapshot, best effort.
func (r *Runner) refreshCache(books []models.Book) {
	db, repo, err := r.openCache()
	if err != nil {
		r.logger.Warn("cache unavailable", "error", err)
		return
	}
	defer db.Close()

	if err := repo.ReplaceAll(books); err != nil {
		r.logger.Warn("failed to refresh cache", "error", err)
	}
}

func (r *Runner) printBooks(books []models.Book, elements, pages int) error {
	if len(books) == 0 {
		return r.writePlain("No books found\n")
	}

	for _, book := range books {
		line := fmt.Sprintf("%4d  %s — %s", book.ID, heading("%s", book.Title), book.Author)
		if book.ReadDate != "" {
			line += fmt.Sprintf(" (read %s)", book.ReadDate)
		}
		r.writePlain("%s\n", line)
	}
	r.writePlain("\n%d books, %d pages\n", elements, pages)
	return nil
}

func (r *Runner) queryFromFlags(cmd *cli.Command) models.ListQuery {
	query := listQuery(r.config)
	if cmd.IsSet("search") {
		query.Search = cmd.String("search")
	}
	if cmd.IsSet("sort") {
		query.SortBy = cmd.String("sort")
	}
	if cmd.IsSet("page") {
		query.Page = int(cmd.Int("page"))
	}
	if cmd.IsSet("size") {
		query.Size = int(cmd.Int("size"))
	}
	return query
}

// bookFromFlags overlays set flags onto base, leaving unset fields alone.
func bookFromFlags(cmd *cli.Command, base models.Book) models.Book {
	set := func(name string, dst *string) {
		if cmd.IsSet(name) {
			*dst = cmd.String(name)
		}
	}
	set("title", &base.Title)
	set("author", &base.Author)
	set("publisher", &base.Publisher)
	set("read-date", &base.ReadDate)
	set("description", &base.Description)
	set("review", &base.Review)
	set("before", &base.BeforeThoughts)
	set("after", &base.AfterThoughts)
	if cmd.IsSet("public") {
		base.IsPublic = cmd.Bool("public")
	}
	return base
}

func loadCoverFlag(cmd *cli.Command) (*api.Attachment, error) {
	path := cmd.String("cover")
	if path == "" {
		return nil, nil
	}
	return controllers.LoadCover(path)
}

func parseBookID(arg string) (int64, error) {
	if arg == "" {
		return 0, fmt.Errorf("%w: book id", shared.ErrMissingArgument)
	}
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: book id must be a number, got %q", shared.ErrInvalidArgument, arg)
	}
	return id, nil
}

package main

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"github.com/hyeonlog/booklog/internal/api"
	"github.com/hyeonlog/booklog/internal/controllers"
	"github.com/hyeonlog/booklog/internal/models"
	"github.com/hyeonlog/booklog/internal/repositories"
	"github.com/hyeonlog/booklog/internal/session"
	"github.com/hyeonlog/booklog/internal/shared"
)

var (
	okMark  = color.New(color.FgGreen, color.Bold).Sprint("✓")
	badMark = color.New(color.FgRed, color.Bold).Sprint("✗")
	heading = color.New(color.Bold).SprintfFunc()
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config   *shared.Config
	gw       controllers.Gateway
	sessions *session.Store
	app      *controllers.App
	books    *controllers.BookList
	form     *controllers.BookForm
	detail   *controllers.BookDetail
	logger   *log.Logger
	output   io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config   *shared.Config
	Gateway  controllers.Gateway
	Sessions *session.Store
	Logger   *log.Logger
	Output   io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Sessions == nil {
		opts.Sessions = session.NewStore(opts.Config.Session.Dir)
	}
	if opts.Gateway == nil {
		client := api.NewClient(opts.Config.Server.BaseURL, nil, opts.Sessions)
		client.SetRateLimit(opts.Config.Server.RequestsPerSec)
		opts.Gateway = client
	}

	books := controllers.NewBookList(
		opts.Gateway,
		nil,
		time.Duration(opts.Config.UI.DebounceMS)*time.Millisecond,
		listQuery(opts.Config),
		opts.Logger,
	)
	form := controllers.NewBookForm(opts.Gateway, books)
	detail := controllers.NewBookDetail(opts.Gateway, books)
	app := controllers.NewApp(opts.Gateway, opts.Sessions, books, opts.Logger)

	return &Runner{
		config:   opts.Config,
		gw:       opts.Gateway,
		sessions: opts.Sessions,
		app:      app,
		books:    books,
		form:     form,
		detail:   detail,
		logger:   opts.Logger,
		output:   opts.Output,
	}
}

// SetLogger swaps the runner and controller loggers, used by the TUI to keep
// log lines off the rendered screen.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, booksCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// requireSession loads the persisted session and fails fast when none exists,
// so authenticated commands error before the first network round trip.
func (r *Runner) requireSession() error {
	sess, err := r.sessions.Load()
	if err != nil {
		r.logger.Warn("failed to load session", "error", err)
	}
	if !sess.Established() {
		return shared.ErrNotAuthenticated
	}
	return nil
}

// openCache opens the local sqlite cache, applying migrations. Callers own
// closing the handle.
func (r *Runner) openCache() (*sql.DB, *repositories.BookCacheRepository, error) {
	db, err := shared.NewDatabase(r.config.Cache.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	shared.ConfigureDatabase(db, r.config.Cache.MaxOpenConns, r.config.Cache.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to migrate cache database: %w", err)
	}

	return db, repositories.NewBookCacheRepository(db), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func listQuery(config *shared.Config) (q models.ListQuery) {
	q.Size = config.UI.PageSize
	q.SortBy = config.UI.SortBy
	return q
}

package controllers

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/hyeonlog/booklog/internal/api"
	"github.com/hyeonlog/booklog/internal/models"
	"github.com/hyeonlog/booklog/internal/session"
	"github.com/hyeonlog/booklog/internal/shared"
)

// Screen identifies the single visible top-level view.
type Screen int

const (
	ScreenLogin Screen = iota
	ScreenRegister
	ScreenBookList
	ScreenBookDetail
	ScreenBookForm
)

func (s Screen) String() string {
	switch s {
	case ScreenLogin:
		return "login"
	case ScreenRegister:
		return "register"
	case ScreenBookList:
		return "book-list"
	case ScreenBookDetail:
		return "book-detail"
	case ScreenBookForm:
		return "book-form"
	default:
		return "unknown"
	}
}

// ViewState is the explicit tagged state the old display toggles collapse
// into. Exactly one state is active at a time.
type ViewState struct {
	Screen   Screen
	FormMode FormMode // meaningful only when Screen == ScreenBookForm
}

// Authenticated reports whether the state belongs to the logged-in half of
// the machine.
func (v ViewState) Authenticated() bool {
	return v.Screen != ScreenLogin && v.Screen != ScreenRegister
}

// App is the view-state controller: it decides which screen is visible and
// owns the login/register/logout transitions against the session store.
type App struct {
	gw       Gateway
	sessions *session.Store
	books    *BookList
	logger   *log.Logger

	state        ViewState
	prefillEmail string
	notice       string
}

// NewApp wires the view-state machine to its collaborators.
func NewApp(gw Gateway, sessions *session.Store, books *BookList, logger *log.Logger) *App {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &App{
		gw:       gw,
		sessions: sessions,
		books:    books,
		logger:   logger,
		state:    ViewState{Screen: ScreenLogin},
	}
}

// Start loads the persisted session once and picks the initial screen:
// the book list when a session exists, the login screen otherwise.
func (a *App) Start() ViewState {
	sess, err := a.sessions.Load()
	if err != nil {
		a.logger.Warn("failed to load session", "error", err)
	}

	if sess.Established() {
		a.state = ViewState{Screen: ScreenBookList}
	} else {
		a.state = ViewState{Screen: ScreenLogin}
	}
	return a.state
}

// State returns the active view state.
func (a *App) State() ViewState { return a.state }

// Session returns the in-memory session snapshot.
func (a *App) Session() session.Session { return a.sessions.Current() }

// PrefillEmail returns the email to pre-fill on the login screen after a
// registration, consuming it.
func (a *App) PrefillEmail() string {
	email := a.prefillEmail
	a.prefillEmail = ""
	return email
}

// Notice returns the pending user-visible message, consuming it.
func (a *App) Notice() string {
	n := a.notice
	a.notice = ""
	return n
}

// ShowLogin and ShowRegister toggle between the unauthenticated screens.
func (a *App) ShowLogin() {
	if !a.state.Authenticated() {
		a.state = ViewState{Screen: ScreenLogin}
	}
}

func (a *App) ShowRegister() {
	if !a.state.Authenticated() {
		a.state = ViewState{Screen: ScreenRegister}
	}
}

// ShowList returns to the book list from any authenticated screen.
func (a *App) ShowList() {
	if a.state.Authenticated() {
		a.state = ViewState{Screen: ScreenBookList}
	}
}

// ShowDetail and ShowForm open the authenticated overlay screens.
func (a *App) ShowDetail() {
	if a.state.Authenticated() {
		a.state = ViewState{Screen: ScreenBookDetail}
	}
}

func (a *App) ShowForm(mode FormMode) {
	if a.state.Authenticated() {
		a.state = ViewState{Screen: ScreenBookForm, FormMode: mode}
	}
}

// Login exchanges credentials, establishes the session, and moves to the
// book list. The first list load is kicked off immediately; its failure
// surfaces as an error but does not undo the login.
func (a *App) Login(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return fmt.Errorf("%w: email and password are required", shared.ErrInvalidInput)
	}

	resp, err := a.gw.Login(ctx, models.Credentials{Email: email, Password: password})
	if err != nil {
		return a.fail(err)
	}

	if err := a.sessions.Save(resp.Token, resp.User()); err != nil {
		a.state = ViewState{Screen: ScreenLogin}
		return err
	}

	a.logger.Info("logged in", "email", resp.Email)
	a.state = ViewState{Screen: ScreenBookList}

	if a.books != nil {
		if err := a.books.Reload(ctx); err != nil {
			return a.fail(err)
		}
	}
	return nil
}

// Register validates locally, creates the account, and lands back on the
// login screen with the email kept for pre-fill.
func (a *App) Register(ctx context.Context, reg models.Registration) error {
	if err := reg.Validate(); err != nil {
		return err
	}

	if err := a.gw.Register(ctx, reg); err != nil {
		return a.fail(err)
	}

	a.logger.Info("registered", "email", reg.Email)
	a.prefillEmail = reg.Email
	a.notice = "Registration complete. Please log in."
	a.state = ViewState{Screen: ScreenLogin}
	return nil
}

// Logout tears the session down after confirmation. Returns true when the
// logout actually happened.
func (a *App) Logout(confirm func() bool) bool {
	if confirm != nil && !confirm() {
		return false
	}

	if err := a.sessions.Clear(); err != nil {
		a.logger.Warn("failed to clear session", "error", err)
	}
	a.state = ViewState{Screen: ScreenLogin}
	a.notice = "Logged out."
	return true
}

// AuthRejected handles a 401 from any API call: the session is cleared and
// the machine drops to the login screen with an expiry notice.
func (a *App) AuthRejected() {
	if err := a.sessions.Clear(); err != nil {
		a.logger.Warn("failed to clear session", "error", err)
	}
	a.state = ViewState{Screen: ScreenLogin}
	a.notice = "Your session has expired. Please log in again."
}

// fail inspects a gateway error, converting 401 rejections into the forced
// logout transition. The original error is always returned to the caller
// for display.
func (a *App) fail(err error) error {
	if api.IsAuthError(err) {
		a.AuthRejected()
		return fmt.Errorf("%w: %v", shared.ErrSessionExpired, err)
	}
	return err
}

// HandleFailure is fail exposed for collaborators that talk to the gateway
// themselves (list, form, detail controllers).
func (a *App) HandleFailure(err error) error {
	if err == nil {
		return nil
	}
	return a.fail(err)
}

package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/hyeonlog/booklog/internal/api"
	"github.com/hyeonlog/booklog/internal/controllers"
	"github.com/hyeonlog/booklog/internal/shared"
)

// confirmTarget names which pending action a y/n prompt belongs to.
type confirmTarget int

const (
	confirmNone confirmTarget = iota
	confirmDelete
	confirmLogout
)

// Model represents the TUI application state.
//
// All screen transitions live in the controllers; the Model projects their
// state and translates key presses into controller calls.
type Model struct {
	ctx    context.Context
	app    *controllers.App
	books  *controllers.BookList
	form   *controllers.BookForm
	detail *controllers.BookDetail
	logger *log.Logger

	width  int
	height int

	bookList  list.Model
	listReady bool

	search    textinput.Model
	searching bool

	inputs []textinput.Model
	focus  int
	public bool

	confirming confirmTarget

	reloads chan error

	notice string
	err    error

	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model with the provided controllers.
func NewModel(ctx context.Context, app *controllers.App, books *controllers.BookList, form *controllers.BookForm, detail *controllers.BookDetail, logger *log.Logger) *Model {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	search := textinput.New()
	search.Placeholder = "search title or author"
	search.CharLimit = 100

	m := &Model{
		ctx:     ctx,
		app:     app,
		books:   books,
		form:    form,
		detail:  detail,
		logger:  logger,
		search:  search,
		reloads: make(chan error, 8),
		help:    help.New(),
		keys:    newKeyMap(),
	}

	// Timer-fired debounced reloads land here so the list repaints without
	// blocking Update.
	books.SetOnReload(func(err error) {
		select {
		case m.reloads <- err:
		default:
		}
	})

	return m
}

// Init loads the persisted session and, when one exists, kicks off the first
// book list fetch.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.start(), m.waitForReload(), textinput.Blink)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.listReady {
			m.bookList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.app.State().Screen {
		case controllers.ScreenLogin:
			return m.handleLoginKeys(msg)
		case controllers.ScreenRegister:
			return m.handleRegisterKeys(msg)
		case controllers.ScreenBookList:
			return m.handleListKeys(msg)
		case controllers.ScreenBookDetail:
			return m.handleDetailKeys(msg)
		case controllers.ScreenBookForm:
			return m.handleFormKeys(msg)
		}
		return m, nil

	case startedMsg:
		m.err = msg.err
		if m.app.State().Authenticated() {
			m.refreshList()
		} else {
			m.setupLoginInputs()
		}
		m.consumeNotice()
		return m, nil

	case authDoneMsg:
		m.afterFailure(msg.err)
		if msg.err == nil {
			switch m.app.State().Screen {
			case controllers.ScreenBookList:
				m.refreshList()
			case controllers.ScreenLogin:
				// Registration landed back on login with the email kept.
				m.setupLoginInputs()
			}
		}
		m.consumeNotice()
		return m, nil

	case reloadDoneMsg:
		if msg.err != nil {
			m.afterFailure(m.app.HandleFailure(msg.err))
		} else {
			m.err = nil
			m.refreshList()
		}
		return m, m.waitForReload()

	case detailOpenedMsg:
		m.afterFailure(msg.err)
		if msg.err == nil {
			m.app.ShowDetail()
		}
		return m, nil

	case submitDoneMsg:
		m.afterFailure(msg.err)
		if msg.err == nil {
			m.app.ShowList()
			m.refreshList()
		}
		return m, nil

	case deleteDoneMsg:
		m.confirming = confirmNone
		m.afterFailure(msg.err)
		if msg.err == nil {
			m.app.ShowList()
			m.refreshList()
			m.notice = "Book deleted."
		}
		return m, nil
	}

	if m.listReady && m.app.State().Screen == controllers.ScreenBookList {
		var cmd tea.Cmd
		m.bookList, cmd = m.bookList.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the active screen.
func (m *Model) View() string {
	switch m.app.State().Screen {
	case controllers.ScreenLogin:
		return m.renderLogin()
	case controllers.ScreenRegister:
		return m.renderRegister()
	case controllers.ScreenBookList:
		return m.renderList()
	case controllers.ScreenBookDetail:
		return m.renderDetail()
	case controllers.ScreenBookForm:
		return m.renderForm()
	default:
		return ""
	}
}

func (m *Model) start() tea.Cmd {
	return func() tea.Msg {
		state := m.app.Start()
		if state.Authenticated() {
			return startedMsg{err: m.app.HandleFailure(m.books.Reload(m.ctx))}
		}
		return startedMsg{}
	}
}

func (m *Model) waitForReload() tea.Cmd {
	return func() tea.Msg {
		return reloadDoneMsg{err: <-m.reloads}
	}
}

// afterFailure records an error for display and resets the input widgets when
// a rejected token dropped the machine back to the login screen.
func (m *Model) afterFailure(err error) {
	m.err = err
	if err != nil && m.app.State().Screen == controllers.ScreenLogin {
		m.setupLoginInputs()
		m.consumeNotice()
	}
}

func (m *Model) consumeNotice() {
	if n := m.app.Notice(); n != "" {
		m.notice = n
	}
}

func (m *Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "ctrl+r":
		m.app.ShowRegister()
		m.setupRegisterInputs()
		return m, nil
	case "tab", "shift+tab", "up", "down":
		return m, m.moveFocus(msg.String())
	case "enter":
		if m.focus < len(m.inputs)-1 {
			return m, m.moveFocus("tab")
		}
		email := m.inputs[0].Value()
		password := m.inputs[1].Value()
		return m, func() tea.Msg {
			return authDoneMsg{err: m.app.Login(m.ctx, email, password)}
		}
	}
	return m, m.updateFocused(msg)
}

func (m *Model) handleRegisterKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.app.ShowLogin()
		m.setupLoginInputs()
		return m, nil
	case "tab", "shift+tab", "up", "down":
		return m, m.moveFocus(msg.String())
	case "enter":
		if m.focus < len(m.inputs)-1 {
			return m, m.moveFocus("tab")
		}
		reg := m.registrationFromInputs()
		return m, func() tea.Msg {
			return authDoneMsg{err: m.app.Register(m.ctx, reg)}
		}
	}
	return m, m.updateFocused(msg)
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirming == confirmLogout {
		switch msg.String() {
		case "y":
			m.confirming = confirmNone
			m.app.Logout(func() bool { return true })
			m.setupLoginInputs()
			m.consumeNotice()
		case "n", "esc":
			m.confirming = confirmNone
		}
		return m, nil
	}

	if m.searching {
		switch msg.String() {
		case "esc", "enter":
			m.searching = false
			m.search.Blur()
			return m, nil
		case "ctrl+c":
			return m, tea.Quit
		}
		before := m.search.Value()
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		if after := m.search.Value(); after != before {
			// Schedules the debounced reload; the outcome arrives on the
			// reload channel once the quiet window elapses.
			m.books.SearchChanged(m.ctx, after)
		}
		return m, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "/":
		m.searching = true
		return m, m.search.Focus()
	case "n":
		m.form.Open(controllers.FormCreate, nil)
		m.app.ShowForm(controllers.FormCreate)
		m.setupFormInputs()
		return m, nil
	case "s":
		return m, m.cycleSort()
	case "left", "[":
		return m, m.turnPage(-1)
	case "right", "]":
		return m, m.turnPage(1)
	case "ctrl+l":
		m.confirming = confirmLogout
		return m, nil
	case "enter":
		if m.listReady {
			if item, ok := m.bookList.SelectedItem().(bookItem); ok {
				return m, m.openDetail(item.book.ID)
			}
		}
		return m, nil
	}

	if m.listReady {
		var cmd tea.Cmd
		m.bookList, cmd = m.bookList.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirming == confirmDelete {
		switch msg.String() {
		case "y":
			return m, func() tea.Msg {
				err := m.app.HandleFailure(m.detail.Delete(m.ctx, func() bool { return true }))
				return deleteDoneMsg{err: err}
			}
		case "n", "esc":
			m.confirming = confirmNone
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.detail.Close()
		m.app.ShowList()
		return m, nil
	case "e":
		if book := m.detail.Current(); book != nil {
			m.form.Open(controllers.FormEdit, book)
			m.app.ShowForm(controllers.FormEdit)
			m.setupFormInputs()
		}
		return m, nil
	case "d":
		m.confirming = confirmDelete
		return m, nil
	}
	return m, nil
}

func (m *Model) handleFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.form.Close()
		m.app.ShowList()
		return m, nil
	case "tab", "shift+tab", "up", "down":
		return m, m.moveFocus(msg.String())
	case "ctrl+p":
		m.public = !m.public
		return m, nil
	case "ctrl+s":
		book := m.bookFromInputs()
		coverPath := strings.TrimSpace(m.inputs[len(m.inputs)-1].Value())
		return m, func() tea.Msg {
			var cover *api.Attachment
			if coverPath != "" {
				var err error
				cover, err = controllers.LoadCover(coverPath)
				if err != nil {
					return submitDoneMsg{err: err}
				}
			}
			_, err := m.form.Submit(m.ctx, book, cover)
			return submitDoneMsg{err: m.app.HandleFailure(err)}
		}
	}
	return m, m.updateFocused(msg)
}

func (m *Model) openDetail(id int64) tea.Cmd {
	return func() tea.Msg {
		return detailOpenedMsg{err: m.app.HandleFailure(m.detail.Open(m.ctx, id))}
	}
}

func (m *Model) cycleSort() tea.Cmd {
	next := map[string]string{"date": "title", "title": "author", "author": "date"}
	sortBy, ok := next[m.books.Query().SortBy]
	if !ok {
		sortBy = "date"
	}
	return func() tea.Msg {
		return reloadDoneMsg{err: m.books.SetSort(m.ctx, sortBy)}
	}
}

func (m *Model) turnPage(delta int) tea.Cmd {
	query := m.books.Query()
	_, pages := m.books.Totals()
	page := query.Page + delta
	if page < 0 || (pages > 0 && page >= pages) {
		return nil
	}
	return func() tea.Msg {
		return reloadDoneMsg{err: m.books.SetPage(m.ctx, page)}
	}
}

func (m *Model) refreshList() {
	books := m.books.Books()
	items := make([]list.Item, len(books))
	for i, book := range books {
		items[i] = bookItem{book: book}
	}

	if !m.listReady {
		m.bookList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.bookList.SetShowHelp(false)
		m.bookList.SetFilteringEnabled(false)
		m.bookList.SetSize(m.width-4, m.height-8)
		m.listReady = true
	} else {
		m.bookList.SetItems(items)
	}
	m.bookList.Title = listTitle(m.books)
}

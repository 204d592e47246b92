package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hyeonlog/booklog/internal/controllers"
	"github.com/hyeonlog/booklog/internal/models"
	"github.com/hyeonlog/booklog/internal/shared"
)

var formLabels = []string{
	"Title",
	"Author",
	"Publisher",
	"Read date (YYYY-MM-DD)",
	"Description",
	"Review",
	"Before reading",
	"After reading",
	"Cover image path",
}

func newInput(placeholder string, limit int) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = limit
	return in
}

func (m *Model) setupLoginInputs() {
	email := newInput("email", 100)
	email.SetValue(m.app.PrefillEmail())
	password := newInput("password", 72)
	password.EchoMode = textinput.EchoPassword

	m.inputs = []textinput.Model{email, password}
	m.focus = 0
	m.inputs[0].Focus()
}

func (m *Model) setupRegisterInputs() {
	email := newInput("email", 100)
	password := newInput("password (6+ characters)", 72)
	password.EchoMode = textinput.EchoPassword
	nickname := newInput("nickname", 50)

	m.inputs = []textinput.Model{email, password, nickname}
	m.focus = 0
	m.inputs[0].Focus()
}

func (m *Model) setupFormInputs() {
	draft := m.form.Draft()
	values := []string{
		draft.Title,
		draft.Author,
		draft.Publisher,
		draft.ReadDate,
		draft.Description,
		draft.Review,
		draft.BeforeThoughts,
		draft.AfterThoughts,
		"",
	}

	m.inputs = make([]textinput.Model, len(formLabels))
	for i, label := range formLabels {
		in := newInput(strings.ToLower(label), 500)
		in.SetValue(values[i])
		m.inputs[i] = in
	}
	m.public = draft.IsPublic
	m.focus = 0
	m.inputs[0].Focus()
}

// moveFocus shifts input focus forward or backward depending on the key.
func (m *Model) moveFocus(keyName string) tea.Cmd {
	if len(m.inputs) == 0 {
		return nil
	}

	m.inputs[m.focus].Blur()
	if keyName == "shift+tab" || keyName == "up" {
		m.focus--
	} else {
		m.focus++
	}
	if m.focus < 0 {
		m.focus = len(m.inputs) - 1
	}
	if m.focus >= len(m.inputs) {
		m.focus = 0
	}
	return m.inputs[m.focus].Focus()
}

func (m *Model) updateFocused(msg tea.Msg) tea.Cmd {
	if len(m.inputs) == 0 {
		return nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return cmd
}

func (m *Model) registrationFromInputs() models.Registration {
	return models.Registration{
		Email:    m.inputs[0].Value(),
		Password: m.inputs[1].Value(),
		Nickname: m.inputs[2].Value(),
	}
}

func (m *Model) bookFromInputs() models.Book {
	draft := m.form.Draft()
	book := models.Book{
		ID:             draft.ID,
		Title:          m.inputs[0].Value(),
		Author:         m.inputs[1].Value(),
		Publisher:      m.inputs[2].Value(),
		ReadDate:       m.inputs[3].Value(),
		Description:    m.inputs[4].Value(),
		Review:         m.inputs[5].Value(),
		BeforeThoughts: m.inputs[6].Value(),
		AfterThoughts:  m.inputs[7].Value(),
		IsPublic:       m.public,
	}
	return book
}

func listTitle(books *controllers.BookList) string {
	elements, _ := books.Totals()
	query := books.Query()
	title := fmt.Sprintf("My Books (%d)", elements)
	if query.Search != "" {
		title = fmt.Sprintf("%s • %q", title, query.Search)
	}
	return fmt.Sprintf("%s • by %s", title, query.SortBy)
}

func (m *Model) renderStatus() string {
	var parts []string
	if m.err != nil {
		parts = append(parts, styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
	}
	if m.notice != "" {
		parts = append(parts, styles.warn.Render(m.notice))
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "\n") + "\n\n"
}

func (m *Model) renderInputs(labels []string) string {
	var b strings.Builder
	for i, in := range m.inputs {
		cursor := "  "
		if i == m.focus {
			cursor = styles.cursor.Render("> ")
		}
		b.WriteString(fmt.Sprintf("%s%s\n%s%s\n", cursor, styles.label.Render(labels[i]), "  ", in.View()))
	}
	return b.String()
}

func (m *Model) renderLogin() string {
	title := styles.title.Render("Book Log • Sign In")
	body := m.renderInputs([]string{"Email", "Password"})
	helpView := m.help.ShortHelpView([]key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "sign in")),
		key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "register")),
		key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	})
	return fmt.Sprintf("%s\n%s%s\n%s", title, m.renderStatus(), body, helpView)
}

func (m *Model) renderRegister() string {
	title := styles.title.Render("Book Log • Create Account")
	body := m.renderInputs([]string{"Email", "Password", "Nickname"})
	helpView := m.help.ShortHelpView([]key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "register")),
		m.keys.back,
		key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	})
	return fmt.Sprintf("%s\n%s%s\n%s", title, m.renderStatus(), body, helpView)
}

func (m *Model) renderList() string {
	if m.confirming == confirmLogout {
		title := styles.title.Render("Log out?")
		helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no})
		return fmt.Sprintf("%s\n%s", title, helpView)
	}

	var listView string
	if m.listReady {
		listView = m.bookList.View()
	} else {
		listView = styles.help.Render("Loading books...")
	}

	var searchLine string
	if m.searching {
		searchLine = fmt.Sprintf("%s %s\n", styles.label.Render("Search:"), m.search.View())
	} else if term := m.books.Query().Search; term != "" {
		searchLine = fmt.Sprintf("%s %s\n", styles.label.Render("Search:"), term)
	}

	helpView := m.help.ShortHelpView([]key.Binding{
		m.keys.enter, m.keys.search, m.keys.sort, m.keys.add, m.keys.logout, m.keys.quit,
	})
	return fmt.Sprintf("%s%s\n%s\n%s", m.renderStatus(), searchLine, listView, helpView)
}

func (m *Model) renderDetail() string {
	book := m.detail.Current()
	if book == nil {
		return styles.err.Render("No book selected\n\nPress esc to go back")
	}

	if m.confirming == confirmDelete {
		title := styles.title.Render(fmt.Sprintf("Delete '%s'?", book.Title))
		warn := styles.warn.Render("This cannot be undone.")
		helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no})
		return fmt.Sprintf("%s\n%s\n\n%s", title, warn, helpView)
	}

	var b strings.Builder
	b.WriteString(styles.title.Render(book.Title) + "\n")
	b.WriteString(fmt.Sprintf("%s %s\n", styles.label.Render("Author:"), book.Author))
	if book.Publisher != "" {
		b.WriteString(fmt.Sprintf("%s %s\n", styles.label.Render("Publisher:"), book.Publisher))
	}
	if book.ReadDate != "" {
		b.WriteString(fmt.Sprintf("%s %s\n", styles.label.Render("Read:"), book.ReadDate))
	}
	b.WriteString(fmt.Sprintf("%s %s\n", styles.label.Render("Visibility:"), shared.VisibilityString(book.IsPublic)))

	sections := []struct{ label, text string }{
		{"Description", book.Description},
		{"Before reading", book.BeforeThoughts},
		{"Review", book.Review},
		{"After reading", book.AfterThoughts},
	}
	for _, s := range sections {
		if s.text != "" {
			b.WriteString(fmt.Sprintf("\n%s\n%s\n", styles.label.Render(s.label), s.text))
		}
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.edit, m.keys.delete, m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s%s\n%s", m.renderStatus(), b.String(), helpView)
}

func (m *Model) renderForm() string {
	heading := "New Book"
	if m.form.Mode() == controllers.FormEdit {
		heading = "Edit Book"
	}
	title := styles.title.Render(heading)

	body := m.renderInputs(formLabels)
	visibility := fmt.Sprintf("%s %s (ctrl+p to toggle)\n", styles.label.Render("Visibility:"), shared.VisibilityString(m.public))

	helpView := m.help.ShortHelpView([]key.Binding{
		m.keys.submit,
		key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		m.keys.back,
	})
	return fmt.Sprintf("%s\n%s%s%s\n%s", title, m.renderStatus(), body, visibility, helpView)
}

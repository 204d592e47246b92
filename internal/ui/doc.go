// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI mirrors the screens of the web client:
//  1. Login : Email/password entry, with a toggle to registration
//  2. Register : Account creation, landing back on login with the email pre-filled
//  3. Book list : Browse, search (debounced) and sort the user's books
//  4. Detail : Full record of one book, with edit and confirmed delete
//  5. Form : Create or edit a book, including an optional cover image path
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Screen transitions are owned by the controllers package; the Model only
// projects controller state and feeds key presses back into it. Debounced
// search reload outcomes arrive through a channel so timer-fired fetches
// repaint the list without blocking Update.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui

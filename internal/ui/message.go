package ui

// startedMsg carries the outcome of the initial session load and, when a
// session existed, the first book list fetch.
type startedMsg struct {
	err error
}

// authDoneMsg carries the outcome of a login or register submission.
type authDoneMsg struct {
	err error
}

// reloadDoneMsg arrives whenever a book list reload completes, including
// debounced reloads fired from a timer rather than a key press.
type reloadDoneMsg struct {
	err error
}

// detailOpenedMsg carries the outcome of fetching one book for the detail view.
type detailOpenedMsg struct {
	err error
}

// submitDoneMsg carries the outcome of a create or edit form submission.
type submitDoneMsg struct {
	err error
}

// deleteDoneMsg carries the outcome of a confirmed delete.
type deleteDoneMsg struct {
	err error
}

// Package controllers holds the client's view-state machine and the
// list/form/detail orchestration around the API gateway.
//
// Controllers own in-memory caches of server state and the transitions
// between screens. Rendering layers (CLI output, TUI) are pure projections
// of this state and never mutate it directly.
package controllers

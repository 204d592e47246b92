// Package models defines the client-side projections of book-log server
// entities.
//
// Books held here are read-only caches of server state. They are replaced
// wholesale by re-fetching after a successful write, never patched in place.
package models

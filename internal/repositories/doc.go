// package repositories provides the local read-cache persistence layer.
//
// The cache mirrors the last book list fetched from the server so list and
// export commands keep working offline. It is never the source of truth.
package repositories

// Package store implements PostgreSQL persistence for users, polygons
// and polygon chat history using database/sql with the lib/pq driver.
//
// All queries are context-aware and inline; schema setup runs through
// Migrate at startup. Typed sentinel errors (ErrNotFound,
// ErrDuplicateEmail) let handlers map store failures to HTTP statuses
// without string matching.
package store

// Package localstore is a SQLite backend for the handbook.
//
// It satisfies the same table and authentication contracts as the Supabase
// client, so the state container can run against a file on disk during
// development or offline use. Entry ids are UUIDv4 strings. Sign-in checks
// a bcrypt hash from the users table and issues an HS256 access token plus a
// refresh token recorded in the sessions table; sign-out deletes that row.
// As with the hosted tables, category names are not forced to be unique.
package localstore

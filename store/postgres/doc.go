// Package postgres implements store.Store on PostgreSQL using pgx/v5.
// Schema migrations are embedded and applied by Migrate; checkpoint
// writes rely on ON CONFLICT DO NOTHING for first-write-wins semantics.
package postgres

// Package sqlite provides a SQLite-backed persistent embedding cache.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements driven.EmbeddingCache so
// re-uploading the same text across process restarts skips the embedding call.
// Sessions themselves are never persisted.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory as NNN_name.up.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.docqa/data/embeddings.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite

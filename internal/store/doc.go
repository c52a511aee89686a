// Package store persists projects, images, scores, categories, tag groups,
// tags, image-tag assignments, and export tag rules in SQLite.
//
// The Store owns every durability invariant the rest of the core relies on:
// deletes cascade through the tag and category join tables, display orders
// stay gap-free after reorders and deletes, and any mutation to a project's
// images, scores, or tag groups bumps the project's updated_at. Callers never
// compensate for these themselves.
//
// On open the store takes an advisory file lock beside the database and walks
// the embedded migration ladder; each pending step runs in its own
// transaction and is recorded in schema_migrations. Steps that fail because
// their objects already exist are treated as applied.
//
// Treat this package as the single source of truth for the schema; changes go
// through a new migration pair under migrations/.
package store

// Package config persists the application's layered settings document.
//
// Settings live in config.yaml under the base directory. Reads consult the
// user overlay first and fall back to the hard-coded defaults along the same
// dotted path; writes touch only the overlay and persist immediately. Typed
// views (Behaviour, ExportOptions, score labels) sit on top of the raw
// document for the packages that care.
//
// Get never fails: an unreadable or malformed overlay falls back to defaults
// and the file is rewritten on the next successful write.
package config

// Package legacy imports single-table score databases produced by earlier
// versions of the tool.
//
// A legacy file carries one scores table mixing image identity and score
// state. The importer reads every row, synthesizes a project rooted at the
// parent directory of the first row, and fills in any image files on disk
// that the legacy database never scored. The destination write is a single
// transaction; a failed import leaves the store untouched.
package legacy

// Package export copies a project's accepted images into a routed output
// tree and optionally writes caption files beside them.
//
// Routing rules map category sets to destination subdirectories with
// priority precedence; a nil category set is the catch-all. Enabled export
// tag rules append per-export caption tags without mutating stored
// assignments. The output directory's top-level entries are wiped before
// copying, so re-running an export with identical inputs reproduces the same
// tree. Image copies are sequential; caption writes go through a small
// worker pool after a serial directory preflight.
package export

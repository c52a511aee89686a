// Package project holds the in-memory view of an open project: its identity,
// directory roots, ordered tag groups, and a cursor over its images.
//
// The store remains the source of truth; this aggregate is rebuilt on open
// and refreshed by the shell after structural changes (group edits, imports).
package project

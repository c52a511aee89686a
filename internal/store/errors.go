package store

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateName indicates a name collision within its uniqueness scope
	// (tag within group, group or category within project). The store is left
	// unchanged.
	ErrDuplicateName = errors.New("duplicate name")

	// ErrLocked indicates another process holds the database lock.
	ErrLocked = errors.New("database locked by another process")
)

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isAlreadyApplied recognizes migration failures that mean the step's work was
// done before the ladder existed (or by an interrupted earlier run).
func isAlreadyApplied(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "duplicate column")
}

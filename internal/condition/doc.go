// Package condition implements the boolean expression language used to gate
// tag-group auto-advance and to drive export tag rules.
//
// An expression combines atoms of the form Name[body] with NOT, AND, and OR
// (symbol aliases !, &&, ||) and parentheses. The body is one of "completed",
// "has:...", "has_all:...", or a "count OP N" comparison. Expressions are
// parsed once, validated against the owning project's ordered tag groups, and
// evaluated against the set of tag IDs currently selected for an image.
//
// The package is deliberately free of store dependencies: callers project
// their tag groups into the Group view type before validating or evaluating.
package condition

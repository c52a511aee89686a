package condition

import "fmt"

// ParseError reports malformed expression text: unbalanced brackets, an
// unexpected token, or a malformed atom body.
type ParseError struct {
	Pos int
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("condition parse error at offset %d: %s", e.Pos, e.Msg)
}

func parseErrorf(pos int, format string, args ...any) error {
	return &ParseError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// ReferenceError reports an atom referencing an unknown group or tag, or a
// group at an equal or later position than the condition's owner.
type ReferenceError struct {
	Group string
	Tag   string
	Msg   string
}

func (e *ReferenceError) Error() string {
	return "condition reference error: " + e.Msg
}

// EvalError reports a comparison the evaluator has no handler for. The
// evaluator returns false alongside it so callers can log and continue.
type EvalError struct {
	Msg string
}

func (e *EvalError) Error() string {
	return "condition eval error: " + e.Msg
}

package condition

import (
	"strconv"
	"strings"
)

// Format renders a tree back to canonical text. Binary nodes are always
// parenthesized so the output never depends on operator precedence. The
// result reparses to a semantically identical tree.
func Format(expr Expr) string {
	if expr == nil {
		return ""
	}
	var b strings.Builder
	formatNode(&b, expr)
	return b.String()
}

func formatNode(b *strings.Builder, expr Expr) {
	switch node := expr.(type) {
	case *Binary:
		b.WriteByte('(')
		formatNode(b, node.Left)
		b.WriteByte(' ')
		b.WriteString(node.Op.String())
		b.WriteByte(' ')
		formatNode(b, node.Right)
		b.WriteByte(')')
	case *Not:
		b.WriteString("NOT ")
		formatNode(b, node.Expr)
	case *Atom:
		formatAtom(b, node)
	}
}

func formatAtom(b *strings.Builder, atom *Atom) {
	b.WriteString(atom.Group)
	b.WriteByte('[')
	switch atom.Kind {
	case AtomCompleted:
		b.WriteString("completed")
	case AtomHas:
		b.WriteString("has:")
		b.WriteString(strings.Join(atom.Tags, ","))
	case AtomHasAll:
		b.WriteString("has_all:")
		b.WriteString(strings.Join(atom.Tags, ","))
	case AtomCount:
		b.WriteString("count")
		b.WriteString(atom.Cmp)
		b.WriteString(strconv.Itoa(atom.N))
	}
	b.WriteByte(']')
}

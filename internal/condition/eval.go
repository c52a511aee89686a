package condition

import "fmt"

// Evaluate runs expr against the tag IDs currently selected for an image.
// Atoms only ever look at selections within their own referenced group. A nil
// expr evaluates to true.
//
// Unknown comparison operators yield false plus an EvalError rather than
// aborting; everything else the parser admits evaluates cleanly.
func Evaluate(expr Expr, groups []Group, selected map[int64]bool) (bool, error) {
	if expr == nil {
		return true, nil
	}
	byName := make(map[string]Group, len(groups))
	for _, g := range groups {
		byName[g.Name] = g
	}
	return evalNode(expr, byName, selected)
}

func evalNode(expr Expr, byName map[string]Group, selected map[int64]bool) (bool, error) {
	switch node := expr.(type) {
	case *Binary:
		left, err := evalNode(node.Left, byName, selected)
		if err != nil {
			return false, err
		}
		if node.Op == OpAnd && !left {
			return false, nil
		}
		if node.Op == OpOr && left {
			return true, nil
		}
		return evalNode(node.Right, byName, selected)
	case *Not:
		inner, err := evalNode(node.Expr, byName, selected)
		if err != nil {
			return false, err
		}
		return !inner, nil
	case *Atom:
		return evalAtom(node, byName, selected)
	default:
		return false, fmt.Errorf("unknown expression node %T", expr)
	}
}

func evalAtom(atom *Atom, byName map[string]Group, selected map[int64]bool) (bool, error) {
	group, ok := byName[atom.Group]
	if !ok {
		return false, &ReferenceError{
			Group: atom.Group,
			Msg:   fmt.Sprintf("unknown tag group %q", atom.Group),
		}
	}

	selectedNames := make(map[string]bool)
	count := 0
	for _, tag := range group.Tags {
		if selected[tag.ID] {
			count++
			selectedNames[tag.Name] = true
		}
	}

	switch atom.Kind {
	case AtomCompleted:
		return count >= group.MinTags, nil
	case AtomHas:
		for _, name := range atom.Tags {
			if selectedNames[name] {
				return true, nil
			}
		}
		return false, nil
	case AtomHasAll:
		for _, name := range atom.Tags {
			if !selectedNames[name] {
				return false, nil
			}
		}
		return true, nil
	case AtomCount:
		switch atom.Cmp {
		case "=":
			return count == atom.N, nil
		case ">":
			return count > atom.N, nil
		case ">=":
			return count >= atom.N, nil
		case "<":
			return count < atom.N, nil
		case "<=":
			return count <= atom.N, nil
		default:
			return false, &EvalError{Msg: fmt.Sprintf("no handler for comparison %q", atom.Cmp)}
		}
	default:
		return false, &EvalError{Msg: fmt.Sprintf("no handler for atom kind %d", atom.Kind)}
	}
}

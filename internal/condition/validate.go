package condition

import "fmt"

// Validate checks every atom of expr against the project's ordered groups.
// ownerOrder is the position of the group (or rule context) carrying the
// condition: referenced groups must exist and sit strictly earlier. Export tag
// rules validate with ownerOrder past the last group so any group qualifies.
//
// Tag names mentioned in has/has_all atoms must exist in their referenced
// group. A nil expr validates trivially.
func Validate(expr Expr, ownerOrder int, groups []Group) error {
	if expr == nil {
		return nil
	}
	byName := make(map[string]Group, len(groups))
	for _, g := range groups {
		byName[g.Name] = g
	}
	return validateNode(expr, ownerOrder, byName)
}

func validateNode(expr Expr, ownerOrder int, byName map[string]Group) error {
	switch node := expr.(type) {
	case *Binary:
		if err := validateNode(node.Left, ownerOrder, byName); err != nil {
			return err
		}
		return validateNode(node.Right, ownerOrder, byName)
	case *Not:
		return validateNode(node.Expr, ownerOrder, byName)
	case *Atom:
		return validateAtom(node, ownerOrder, byName)
	default:
		return fmt.Errorf("unknown expression node %T", expr)
	}
}

func validateAtom(atom *Atom, ownerOrder int, byName map[string]Group) error {
	group, ok := byName[atom.Group]
	if !ok {
		return &ReferenceError{
			Group: atom.Group,
			Msg:   fmt.Sprintf("unknown tag group %q", atom.Group),
		}
	}
	if group.Order >= ownerOrder {
		return &ReferenceError{
			Group: atom.Group,
			Msg:   fmt.Sprintf("tag group %q must come before the group using it", atom.Group),
		}
	}
	if atom.Kind == AtomHas || atom.Kind == AtomHasAll {
		known := make(map[string]bool, len(group.Tags))
		for _, tag := range group.Tags {
			known[tag.Name] = true
		}
		for _, name := range atom.Tags {
			if !known[name] {
				return &ReferenceError{
					Group: atom.Group,
					Tag:   name,
					Msg:   fmt.Sprintf("tag %q does not exist in group %q", name, atom.Group),
				}
			}
		}
	}
	return nil
}

package condition

// Expr is a parsed condition tree. A nil Expr is the empty condition, which
// validates trivially and evaluates to true.
type Expr interface {
	isExpr()
}

// BinaryOp identifies the operator of a Binary node.
type BinaryOp int

const (
	OpAnd BinaryOp = iota
	OpOr
)

func (op BinaryOp) String() string {
	if op == OpAnd {
		return "AND"
	}
	return "OR"
}

// Binary is an AND/OR node over two subtrees.
type Binary struct {
	Op    BinaryOp
	Left  Expr
	Right Expr
}

// Not negates its single subtree.
type Not struct {
	Expr Expr
}

// AtomKind identifies the predicate carried by an Atom.
type AtomKind int

const (
	AtomCompleted AtomKind = iota
	AtomHas
	AtomHasAll
	AtomCount
)

// Atom is a leaf predicate over a single referenced tag group.
type Atom struct {
	Group string
	Kind  AtomKind

	// Tags holds the tag names for AtomHas and AtomHasAll.
	Tags []string

	// Cmp and N describe an AtomCount comparison, Cmp one of = > >= < <=.
	Cmp string
	N   int
}

func (*Binary) isExpr() {}
func (*Not) isExpr()    {}
func (*Atom) isExpr()   {}

// Group is the validator/evaluator view of a tag group. Order is the group's
// position within the project; Tags are in display order.
type Group struct {
	ID      int64
	Name    string
	Order   int
	MinTags int
	Tags    []Tag
}

// Tag pairs a tag ID with its name.
type Tag struct {
	ID   int64
	Name string
}

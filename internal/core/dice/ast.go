package dice

import "strconv"

// Node is an arithmetic AST node. The set of implementations is closed:
// *Literal, *BinaryOp, *UnaryMinus and *DiceTerm.
type Node interface {
	// Offset returns the byte offset of the node in the input.
	Offset() int
	node()
}

// Literal is an integer constant.
type Literal struct {
	Value int64
	Pos   int
}

// BinaryOp combines two operands with + - * or /.
type BinaryOp struct {
	Op    byte
	Left  Node
	Right Node
	Pos   int // offset of the operator
}

// UnaryMinus negates its operand.
type UnaryMinus struct {
	Operand Node
	Pos     int
}

// SidesKind distinguishes numbered dice from the special die types.
type SidesKind int

const (
	SidesNumbered SidesKind = iota
	SidesFate
	SidesPercentile
)

// DiceTerm is one NdM term with its modifier suffixes in source order.
type DiceTerm struct {
	Count     int
	Sides     int // 3 for FATE dice, 100 for percentile dice
	Kind      SidesKind
	Modifiers []Modifier
	Source    string
	Pos       int
}

func (n *Literal) Offset() int    { return n.Pos }
func (n *BinaryOp) Offset() int   { return n.Pos }
func (n *UnaryMinus) Offset() int { return n.Pos }
func (n *DiceTerm) Offset() int   { return n.Pos }

func (*Literal) node()    {}
func (*BinaryOp) node()   {}
func (*UnaryMinus) node() {}
func (*DiceTerm) node()   {}

// MaxFace returns the highest face of the term's die.
func (t *DiceTerm) MaxFace() int {
	if t.Kind == SidesFate {
		return 1
	}
	return t.Sides
}

// Comparator is a relational operator used by predicates and thresholds.
type Comparator string

const (
	CompareEQ Comparator = "="
	CompareLT Comparator = "<"
	CompareLE Comparator = "<="
	CompareGT Comparator = ">"
	CompareGE Comparator = ">="
)

// Predicate tests a die value against a fixed number.
type Predicate struct {
	Op    Comparator
	Value int
}

// Match reports whether value satisfies the predicate.
func (p Predicate) Match(value int) bool {
	switch p.Op {
	case CompareEQ:
		return value == p.Value
	case CompareLT:
		return value < p.Value
	case CompareLE:
		return value <= p.Value
	case CompareGT:
		return value > p.Value
	case CompareGE:
		return value >= p.Value
	default:
		return false
	}
}

func (p Predicate) String() string {
	return string(p.Op) + strconv.Itoa(p.Value)
}

// Modifier is a dice-term suffix. The set of implementations is closed:
// KeepDrop, Reroll, Explode, Threshold and Sort.
type Modifier interface {
	modifier()
}

// KeepDropKind selects which ranked dice a KeepDrop retains.
type KeepDropKind string

const (
	KeepHigh KeepDropKind = "kh"
	KeepLow  KeepDropKind = "kl"
	DropHigh KeepDropKind = "dh"
	DropLow  KeepDropKind = "dl"
)

// KeepDrop keeps or drops the N highest or lowest dice.
type KeepDrop struct {
	Kind  KeepDropKind
	Count int
	Pos   int
}

// Reroll replaces dice matching When; Once limits it to one redraw per die.
type Reroll struct {
	When Predicate
	Once bool
	Pos  int
}

// ExplodeMode selects how explosion dice contribute.
type ExplodeMode int

const (
	ExplodeStandard ExplodeMode = iota
	ExplodePenetrating
	ExplodeCompound
)

func (m ExplodeMode) String() string {
	switch m {
	case ExplodePenetrating:
		return "!p"
	case ExplodeCompound:
		return "!!"
	default:
		return "!"
	}
}

// Explode adds dice when a die matches When. A nil When means "rolled the
// maximum face".
type Explode struct {
	When *Predicate
	Mode ExplodeMode
	Pos  int
}

// Threshold turns the term into a success count.
type Threshold struct {
	When Predicate
	Pos  int
}

// SortDirection orders the displayed dice.
type SortDirection string

const (
	SortAscending  SortDirection = "sa"
	SortDescending SortDirection = "sd"
)

// Sort reorders the trace without changing the value.
type Sort struct {
	Direction SortDirection
	Pos       int
}

func (KeepDrop) modifier()  {}
func (Reroll) modifier()    {}
func (Explode) modifier()   {}
func (Threshold) modifier() {}
func (Sort) modifier()      {}

package dice

import (
	"strconv"
	"strings"
)

// Format renders node as canonical notation: lower-case markers, explicit
// dice counts, no whitespace, and parentheses only where precedence needs
// them. Parsing the output yields an equivalent AST.
func Format(node Node) string {
	var b strings.Builder
	writeNode(&b, node, 0)
	return b.String()
}

// precedence levels: 1 for + -, 2 for * /, 3 for unary, 4 for atoms.
func precedence(node Node) int {
	switch n := node.(type) {
	case *BinaryOp:
		if n.Op == '+' || n.Op == '-' {
			return 1
		}
		return 2
	case *UnaryMinus:
		return 3
	default:
		return 4
	}
}

func writeNode(b *strings.Builder, node Node, parent int) {
	wrap := precedence(node) < parent
	if wrap {
		b.WriteByte('(')
	}
	switch n := node.(type) {
	case *Literal:
		b.WriteString(strconv.FormatInt(n.Value, 10))
	case *UnaryMinus:
		b.WriteByte('-')
		writeNode(b, n.Operand, 3)
	case *BinaryOp:
		level := precedence(n)
		writeNode(b, n.Left, level)
		b.WriteByte(n.Op)
		// Right operands bind one level tighter to keep left associativity.
		writeNode(b, n.Right, level+1)
	case *DiceTerm:
		b.WriteString(FormatTerm(n))
	}
	if wrap {
		b.WriteByte(')')
	}
}

// FormatTerm renders a dice term and its modifiers in canonical form.
func FormatTerm(t *DiceTerm) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(t.Count))
	b.WriteByte('d')
	switch t.Kind {
	case SidesFate:
		b.WriteByte('F')
	case SidesPercentile:
		b.WriteByte('%')
	default:
		b.WriteString(strconv.Itoa(t.Sides))
	}
	for _, mod := range t.Modifiers {
		switch m := mod.(type) {
		case KeepDrop:
			b.WriteString(string(m.Kind))
			b.WriteString(strconv.Itoa(m.Count))
		case Reroll:
			b.WriteByte('r')
			if m.Once {
				b.WriteByte('o')
			}
			b.WriteString(m.When.String())
		case Explode:
			b.WriteString(m.Mode.String())
			if m.When != nil {
				b.WriteString(m.When.String())
			}
		case Threshold:
			b.WriteString(m.When.String())
		case Sort:
			b.WriteString(string(m.Direction))
		}
	}
	return b.String()
}

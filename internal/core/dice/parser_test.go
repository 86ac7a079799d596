package dice

import (
	"strings"
	"testing"
)

func TestParse_Structure(t *testing.T) {
	node, err := Parse("2d6+3*-(1d4)", DefaultLimits())
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	add, ok := node.(*BinaryOp)
	if !ok || add.Op != '+' {
		t.Fatalf("root = %#v, want + operator", node)
	}
	term, ok := add.Left.(*DiceTerm)
	if !ok || term.Count != 2 || term.Sides != 6 || term.Source != "2d6" {
		t.Fatalf("left = %#v, want 2d6", add.Left)
	}
	mul, ok := add.Right.(*BinaryOp)
	if !ok || mul.Op != '*' {
		t.Fatalf("right = %#v, want * operator", add.Right)
	}
	neg, ok := mul.Right.(*UnaryMinus)
	if !ok {
		t.Fatalf("multiplier = %#v, want unary minus", mul.Right)
	}
	if inner, ok := neg.Operand.(*DiceTerm); !ok || inner.Sides != 4 {
		t.Fatalf("negated operand = %#v, want 1d4", neg.Operand)
	}
}

func TestParse_DiceTerms(t *testing.T) {
	tests := []struct {
		input     string
		count     int
		sides     int
		kind      SidesKind
		modifiers int
	}{
		{input: "d20", count: 1, sides: 20, kind: SidesNumbered},
		{input: "1d1", count: 1, sides: 1, kind: SidesNumbered},
		{input: "4dF", count: 4, sides: 3, kind: SidesFate},
		{input: "d%", count: 1, sides: 100, kind: SidesPercentile},
		{input: "2d00", count: 2, sides: 100, kind: SidesPercentile},
		{input: "4d6kh3", count: 4, sides: 6, modifiers: 1},
		{input: "10d10r<3!>=9dl2>=7sd", count: 10, sides: 10, modifiers: 5},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			node, err := Parse(tt.input, DefaultLimits())
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tt.input, err)
			}
			term, ok := node.(*DiceTerm)
			if !ok {
				t.Fatalf("Parse(%q) = %T, want *DiceTerm", tt.input, node)
			}
			if term.Count != tt.count || term.Sides != tt.sides || term.Kind != tt.kind {
				t.Fatalf("term = %dd%d kind %d, want %dd%d kind %d", term.Count, term.Sides, term.Kind, tt.count, tt.sides, tt.kind)
			}
			if len(term.Modifiers) != tt.modifiers {
				t.Fatalf("modifiers = %d, want %d", len(term.Modifiers), tt.modifiers)
			}
			if term.Source != tt.input {
				t.Fatalf("source = %q, want %q", term.Source, tt.input)
			}
		})
	}
}

func TestParse_ComparatorAfterExplosionBindsToExplosion(t *testing.T) {
	node, err := Parse("10d10!>=7", DefaultLimits())
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	term := node.(*DiceTerm)
	if len(term.Modifiers) != 1 {
		t.Fatalf("modifiers = %v, want one explosion", term.Modifiers)
	}
	explode, ok := term.Modifiers[0].(Explode)
	if !ok {
		t.Fatalf("modifier = %T, want Explode", term.Modifiers[0])
	}
	if explode.When == nil || explode.When.String() != ">=7" {
		t.Fatalf("explosion predicate = %v, want >=7", explode.When)
	}
}

func TestParse_RerollDefaultsToOnes(t *testing.T) {
	node, err := Parse("3d6r", DefaultLimits())
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	reroll := node.(*DiceTerm).Modifiers[0].(Reroll)
	if reroll.When.String() != "=1" || reroll.Once {
		t.Fatalf("reroll = %+v, want =1 repeated", reroll)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		limits   Limits
		kind     Kind
		position int
		message  string
	}{
		{name: "empty", input: "", kind: KindParse, position: 0},
		{name: "comment only", input: "# nothing", kind: KindParse, position: 0},
		{name: "missing keep count", input: "4d6kh", kind: KindParse, position: 5, message: `expected number after "kh"`},
		{name: "missing sides", input: "2d", kind: KindParse, position: 2},
		{name: "trailing number", input: "2d6 3", kind: KindParse, position: 4},
		{name: "dangling operator", input: "1+", kind: KindParse, position: 2},
		{name: "unclosed paren", input: "(2d6+3", kind: KindParse, position: 6},
		{name: "empty parens", input: "()", kind: KindParse, position: 1},
		{name: "identifier", input: "invalid", kind: KindParse, position: 0},
		{name: "stray modifier", input: "kh3", kind: KindParse, position: 0},
		{name: "zero dice", input: "0d6", kind: KindSemantic, position: 0},
		{name: "zero sides", input: "1d0", kind: KindSemantic, position: 2},
		{name: "duplicate threshold", input: "10d10>=7>=5", kind: KindSemantic, position: 8, message: "only one success threshold"},
		{name: "duplicate keep", input: "4d6kh3kl1", kind: KindSemantic, position: 6},
		{name: "duplicate explosion", input: "4d6!!!", kind: KindSemantic, position: 5},
		{name: "too many dice", input: "1001d6", kind: KindLimit, position: 0},
		{name: "too many sides", input: "1d1000000001", kind: KindLimit, position: 2},
		{name: "number overflow", input: "99999999999999999999", kind: KindLimit, position: 0},
		{name: "modifier argument overflow", input: "4d6kh3000000000", kind: KindLimit, position: 5},
		{name: "custom dice limit", input: "6d6", limits: Limits{MaxDice: 5, MaxSides: 6, MaxExplosions: 1, MaxRerolls: 1, MaxRecursion: 1}, kind: KindLimit, position: 0},
		{name: "custom nesting limit", input: "((1))", limits: Limits{MaxDice: 5, MaxSides: 6, MaxExplosions: 1, MaxRerolls: 1, MaxRecursion: 1}, kind: KindLimit, position: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input, tt.limits)
			diceErr := requireKind(t, err, tt.kind)
			if diceErr.Position != tt.position {
				t.Fatalf("position = %d, want %d (%v)", diceErr.Position, tt.position, err)
			}
			if diceErr.Input != tt.input {
				t.Fatalf("input = %q, want %q", diceErr.Input, tt.input)
			}
			if tt.message != "" && !strings.Contains(diceErr.Message, tt.message) {
				t.Fatalf("message = %q, want it to contain %q", diceErr.Message, tt.message)
			}
		})
	}
}

func TestParse_NestingDepth(t *testing.T) {
	nested := func(depth int) string {
		return strings.Repeat("(", depth) + "1d1" + strings.Repeat(")", depth)
	}

	if _, err := Parse(nested(DefaultMaxRecursion), DefaultLimits()); err != nil {
		t.Fatalf("depth %d returned error: %v", DefaultMaxRecursion, err)
	}
	_, err := Parse(nested(DefaultMaxRecursion+1), DefaultLimits())
	diceErr := requireKind(t, err, KindLimit)
	if diceErr.Position != DefaultMaxRecursion {
		t.Fatalf("position = %d, want %d", diceErr.Position, DefaultMaxRecursion)
	}
}

func TestParse_LongUnaryChain(t *testing.T) {
	input := strings.Repeat("-", 10000) + "1"
	if _, err := Parse(input, DefaultLimits()); err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
}

func TestFormat_RoundTrip(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "4d6kh3", want: "4d6kh3"},
		{input: "d20 + 5", want: "1d20+5"},
		{input: "2D6 * (1d4 - 1)", want: "2d6*(1d4-1)"},
		{input: "1 - (2 - 3)", want: "1-(2-3)"},
		{input: "(1 - 2) - 3", want: "1-2-3"},
		{input: "--1", want: "--1"},
		{input: "4dF", want: "4dF"},
		{input: "4dFkh2", want: "4dFkh2"},
		{input: "4dF kh2", want: "4dFkh2"},
		{input: "4dFsa", want: "4dFsa"},
		{input: "4dfdl1", want: "4dFdl1"},
		{input: "d%", want: "1d%"},
		{input: "3d6r", want: "3d6r=1"},
		{input: "10d10!>=7", want: "10d10!>=7"},
		{input: "5d6ro<2!!kl2>4sa", want: "5d6ro<2!!kl2>4sa"},
		{input: "6d6!p", want: "6d6!p"},
		{input: "8/2/2", want: "8/2/2"},
		{input: "8/(2/2)", want: "8/(2/2)"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			node, err := Parse(tt.input, DefaultLimits())
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tt.input, err)
			}
			got := Format(node)
			if got != tt.want {
				t.Fatalf("Format = %q, want %q", got, tt.want)
			}
			again, err := Parse(got, DefaultLimits())
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", got, err)
			}
			if Format(again) != got {
				t.Fatalf("Format not stable: %q then %q", got, Format(again))
			}
		})
	}
}

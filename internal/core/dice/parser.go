package dice

import (
	"errors"
	"strconv"
)

// Parse tokenizes and parses input into an AST. It performs no randomness
// and no evaluation; dice-count, sides and nesting limits are enforced here.
func Parse(input string, limits Limits) (Node, error) {
	tokens, err := Tokenize(input)
	if err != nil {
		return nil, err
	}
	p := &parser{input: input, tokens: tokens, limits: limits.orDefault()}
	return p.parse()
}

type parser struct {
	input  string
	tokens []Token
	pos    int
	depth  int
	limits Limits
}

func (p *parser) parse() (Node, error) {
	if len(p.tokens) == 0 {
		return nil, parseErrorf(p.input, 0, "empty expression")
	}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if tok, ok := p.peek(); ok {
		return nil, parseErrorf(p.input, tok.Pos, "unexpected %s %q after expression", tok.Kind, tok.Text)
	}
	return root, nil
}

func (p *parser) peek() (Token, bool) {
	if p.pos >= len(p.tokens) {
		return Token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) next() Token {
	tok := p.tokens[p.pos]
	p.pos++
	return tok
}

// endOffset is the position reported when input ends too early.
func (p *parser) endOffset() int {
	return len(p.input)
}

func (p *parser) isOperator(ops ...byte) (Token, bool) {
	tok, ok := p.peek()
	if !ok || tok.Kind != TokenOperator {
		return Token{}, false
	}
	for _, op := range ops {
		if tok.Text[0] == op {
			return tok, true
		}
	}
	return Token{}, false
}

func (p *parser) parseExpr() (Node, error) {
	left, err := p.parseMul()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.isOperator('+', '-')
		if !ok {
			return left, nil
		}
		p.next()
		right, err := p.parseMul()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: tok.Text[0], Left: left, Right: right, Pos: tok.Pos}
	}
}

func (p *parser) parseMul() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.isOperator('*', '/')
		if !ok {
			return left, nil
		}
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: tok.Text[0], Left: left, Right: right, Pos: tok.Pos}
	}
}

// parseUnary collects leading minus signs iteratively so long chains of
// '-' cannot grow the call stack.
func (p *parser) parseUnary() (Node, error) {
	var signs []int
	for {
		tok, ok := p.isOperator('-')
		if !ok {
			break
		}
		p.next()
		signs = append(signs, tok.Pos)
	}
	operand, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for i := len(signs) - 1; i >= 0; i-- {
		operand = &UnaryMinus{Operand: operand, Pos: signs[i]}
	}
	return operand, nil
}

func (p *parser) parsePrimary() (Node, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, parseErrorf(p.input, p.endOffset(), "unexpected end of expression")
	}

	switch tok.Kind {
	case TokenLParen:
		return p.parseGroup()
	case TokenDice:
		return p.parseDice(nil)
	case TokenNumber:
		p.next()
		if after, ok := p.peek(); ok && after.Kind == TokenDice {
			return p.parseDice(&tok)
		}
		value, err := p.parseLiteral(tok)
		if err != nil {
			return nil, err
		}
		return &Literal{Value: value, Pos: tok.Pos}, nil
	default:
		return nil, parseErrorf(p.input, tok.Pos, "unexpected %s %q", tok.Kind, tok.Text)
	}
}

func (p *parser) parseGroup() (Node, error) {
	open := p.next()
	p.depth++
	if p.depth > p.limits.MaxRecursion {
		return nil, limitErrorf(p.input, open.Pos, "exceeded maximum nesting depth of %d", p.limits.MaxRecursion)
	}
	inner, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	closing, ok := p.peek()
	if !ok {
		return nil, parseErrorf(p.input, p.endOffset(), "expected ')' to close '(' at %d but reached end of input", open.Pos)
	}
	if closing.Kind != TokenRParen {
		return nil, parseErrorf(p.input, closing.Pos, "expected ')' but got %q", closing.Text)
	}
	p.next()
	p.depth--
	return inner, nil
}

// parseLiteral converts an arithmetic constant. Only int64 overflow is a
// LimitError.
func (p *parser) parseLiteral(tok Token) (int64, error) {
	value, err := strconv.ParseInt(tok.Text, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, limitErrorf(p.input, tok.Pos, "number %s is too large", tok.Text)
		}
		return 0, parseErrorf(p.input, tok.Pos, "invalid number %q", tok.Text)
	}
	return value, nil
}

// parseInt converts a dice count, sides or modifier argument, which must
// fit in an int32.
func (p *parser) parseInt(tok Token) (int, error) {
	value, err := p.parseLiteral(tok)
	if err != nil {
		return 0, err
	}
	if value > int64(^uint32(0)>>1) {
		return 0, limitErrorf(p.input, tok.Pos, "number %s is too large", tok.Text)
	}
	return int(value), nil
}

// expectNumber consumes the integer argument of a modifier. A missing
// argument is reported immediately after the preceding token.
func (p *parser) expectNumber(after Token) (int, error) {
	tok, ok := p.peek()
	if !ok || tok.Kind != TokenNumber {
		return 0, parseErrorf(p.input, after.End(), "expected number after %q", after.Text)
	}
	p.next()
	return p.parseInt(tok)
}

func (p *parser) parseDice(countTok *Token) (Node, error) {
	start := p.tokens[p.pos].Pos
	count := 1
	if countTok != nil {
		start = countTok.Pos
		value, err := p.parseInt(*countTok)
		if err != nil {
			if errors.Is(err, ErrLimit) {
				return nil, limitErrorf(p.input, countTok.Pos, "cannot roll more than %d dice per term", p.limits.MaxDice)
			}
			return nil, err
		}
		count = value
	}

	marker := p.next()
	term := &DiceTerm{Count: count, Pos: start}

	sidesTok, ok := p.peek()
	if !ok || (sidesTok.Kind != TokenNumber && sidesTok.Kind != TokenSides) {
		return nil, parseErrorf(p.input, marker.End(), "expected die sides after %q", marker.Text)
	}
	p.next()
	switch {
	case sidesTok.Text == "%" || sidesTok.Text == "00":
		term.Kind, term.Sides = SidesPercentile, 100
	case sidesTok.Kind == TokenSides:
		term.Kind, term.Sides = SidesFate, 3
	default:
		sides, err := p.parseInt(sidesTok)
		if err != nil {
			if errors.Is(err, ErrLimit) {
				return nil, limitErrorf(p.input, sidesTok.Pos, "die cannot have more than %d sides", p.limits.MaxSides)
			}
			return nil, err
		}
		term.Sides = sides
	}

	if term.Count > p.limits.MaxDice {
		return nil, limitErrorf(p.input, start, "cannot roll more than %d dice per term", p.limits.MaxDice)
	}
	if term.Sides > p.limits.MaxSides {
		return nil, limitErrorf(p.input, sidesTok.Pos, "die cannot have more than %d sides", p.limits.MaxSides)
	}
	if term.Count < 1 {
		return nil, semanticErrorf(p.input, start, "must roll at least 1 die")
	}
	if term.Sides < 1 {
		return nil, semanticErrorf(p.input, sidesTok.Pos, "die must have at least 1 side")
	}

	if err := p.parseModifiers(term); err != nil {
		return nil, err
	}
	end := p.tokens[p.pos-1].End()
	term.Source = p.input[start:end]
	return term, nil
}

// parseModifiers consumes suffixes greedily until a token that cannot
// extend the term.
func (p *parser) parseModifiers(term *DiceTerm) error {
	seen := map[string]int{}
	for {
		tok, ok := p.peek()
		if !ok {
			return nil
		}

		var (
			mod  Modifier
			slot string
			err  error
		)
		switch tok.Kind {
		case TokenModifier:
			p.next()
			mod, slot, err = p.parseModifier(tok, term)
		case TokenComparator:
			p.next()
			var value int
			value, err = p.expectNumber(tok)
			mod, slot = Threshold{When: Predicate{Op: Comparator(tok.Text), Value: value}, Pos: tok.Pos}, "threshold"
		default:
			return nil
		}
		if err != nil {
			return err
		}

		if first, dup := seen[slot]; dup {
			if slot == "threshold" {
				return semanticErrorf(p.input, tok.Pos, "only one success threshold is allowed per dice term (first at %d)", first)
			}
			return semanticErrorf(p.input, tok.Pos, "duplicate %s modifier %q in dice term", slot, tok.Text)
		}
		seen[slot] = tok.Pos
		term.Modifiers = append(term.Modifiers, mod)
	}
}

func (p *parser) parseModifier(tok Token, term *DiceTerm) (Modifier, string, error) {
	switch name := modifierName(tok); name {
	case "kh", "kl", "dh", "dl":
		count, err := p.expectNumber(tok)
		if err != nil {
			return nil, "", err
		}
		return KeepDrop{Kind: KeepDropKind(name), Count: count, Pos: tok.Pos}, "keep/drop", nil
	case "r", "ro":
		when, err := p.parsePredicate()
		if err != nil {
			return nil, "", err
		}
		if when == nil {
			when = &Predicate{Op: CompareEQ, Value: 1}
		}
		return Reroll{When: *when, Once: name == "ro", Pos: tok.Pos}, "reroll", nil
	case "!", "!!", "!p":
		when, err := p.parsePredicate()
		if err != nil {
			return nil, "", err
		}
		mode := ExplodeStandard
		switch name {
		case "!!":
			mode = ExplodeCompound
		case "!p":
			mode = ExplodePenetrating
		}
		return Explode{When: when, Mode: mode, Pos: tok.Pos}, "explode", nil
	case "sa", "sd":
		return Sort{Direction: SortDirection(name), Pos: tok.Pos}, "sort", nil
	default:
		return nil, "", parseErrorf(p.input, tok.Pos, "unknown modifier %q", tok.Text)
	}
}

// parsePredicate reads an optional "cmp N" or bare "N" (meaning "= N").
// It returns nil when neither follows.
func (p *parser) parsePredicate() (*Predicate, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, nil
	}
	switch tok.Kind {
	case TokenComparator:
		p.next()
		value, err := p.expectNumber(tok)
		if err != nil {
			return nil, err
		}
		return &Predicate{Op: Comparator(tok.Text), Value: value}, nil
	case TokenNumber:
		p.next()
		value, err := p.parseInt(tok)
		if err != nil {
			return nil, err
		}
		return &Predicate{Op: CompareEQ, Value: value}, nil
	default:
		return nil, nil
	}
}

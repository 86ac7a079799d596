package dice

import "fmt"

// TokenKind identifies the lexical class of a token.
type TokenKind int

const (
	TokenNumber TokenKind = iota
	TokenDice
	TokenSides
	TokenOperator
	TokenComparator
	TokenModifier
	TokenLParen
	TokenRParen
	TokenIdentifier
)

func (k TokenKind) String() string {
	switch k {
	case TokenNumber:
		return "number"
	case TokenDice:
		return "dice marker"
	case TokenSides:
		return "sides marker"
	case TokenOperator:
		return "operator"
	case TokenComparator:
		return "comparator"
	case TokenModifier:
		return "modifier"
	case TokenLParen:
		return "'('"
	case TokenRParen:
		return "')'"
	case TokenIdentifier:
		return "identifier"
	default:
		return "unknown"
	}
}

// Token is one lexeme with its byte offset in the input.
type Token struct {
	Kind TokenKind
	Text string
	Pos  int
}

// End returns the offset just past the token.
func (t Token) End() int {
	return t.Pos + len(t.Text)
}

func (t Token) String() string {
	return fmt.Sprintf("%s %q@%d", t.Kind, t.Text, t.Pos)
}

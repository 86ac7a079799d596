package dice

import "strings"

// Tokenize splits input into tokens. Whitespace and '#' comments produce no
// tokens; any character that starts no token is a ParseError at its offset.
func Tokenize(input string) ([]Token, error) {
	var tokens []Token
	i := 0
	n := len(input)

	peek := func(off int) byte {
		j := i + off
		if j >= n {
			return 0
		}
		return input[j]
	}
	emit := func(kind TokenKind, width int) {
		tokens = append(tokens, Token{Kind: kind, Text: input[i : i+width], Pos: i})
		i += width
	}

	for i < n {
		ch := input[i]

		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++
			continue
		case ch == '#':
			for i < n && input[i] != '\n' {
				i++
			}
			continue
		case isDigit(ch):
			width := 1
			for i+width < n && isDigit(input[i+width]) {
				width++
			}
			emit(TokenNumber, width)
			continue
		}

		lower := toLower(ch)
		next := toLower(peek(1))
		switch {
		case lower == 'd' && (next == 'h' || next == 'l') && !isLetter(peek(2)):
			emit(TokenModifier, 2)
		case lower == 'd':
			emit(TokenDice, 1)
			// Letters after a FATE marker start the next modifier.
			if i < n && (input[i] == '%' || toLower(input[i]) == 'f') {
				emit(TokenSides, 1)
			}
		case lower == 'k' && (next == 'h' || next == 'l'):
			emit(TokenModifier, 2)
		case lower == 's' && (next == 'a' || next == 'd') && !isLetter(peek(2)):
			emit(TokenModifier, 2)
		case lower == 'r' && next == 'o':
			emit(TokenModifier, 2)
		case lower == 'r':
			emit(TokenModifier, 1)
		case ch == '!' && (peek(1) == '!' || toLower(peek(1)) == 'p'):
			emit(TokenModifier, 2)
		case ch == '!':
			emit(TokenModifier, 1)
		case (ch == '>' || ch == '<') && peek(1) == '=':
			emit(TokenComparator, 2)
		case ch == '>' || ch == '<' || ch == '=':
			emit(TokenComparator, 1)
		case ch == '+' || ch == '-' || ch == '*' || ch == '/':
			emit(TokenOperator, 1)
		case ch == '(':
			emit(TokenLParen, 1)
		case ch == ')':
			emit(TokenRParen, 1)
		case ch == '%':
			emit(TokenSides, 1)
		case isLetter(ch):
			width := 1
			for i+width < n && isLetter(input[i+width]) {
				width++
			}
			emit(TokenIdentifier, width)
		default:
			return nil, parseErrorf(input, i, "unexpected character %q", string(ch))
		}
	}

	return tokens, nil
}

// modifierName normalizes a modifier token to lower case.
func modifierName(tok Token) string {
	return strings.ToLower(tok.Text)
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isLetter(b byte) bool { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') }

func toLower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

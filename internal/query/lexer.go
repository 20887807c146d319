package query

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenType represents the type of a lexer token.
type TokenType int

const (
	TokenEOF       TokenType = iota
	TokenIdent               // field names and bare values
	TokenString              // quoted strings
	TokenNumber              // 3, 2.5
	TokenDuration            // 7d, 24h
	TokenEquals              // =
	TokenNotEquals           // !=
	TokenLess                // <
	TokenLessEq              // <=
	TokenGreater             // >
	TokenGreaterEq           // >=
	TokenAnd                 // AND
	TokenOr                  // OR
	TokenNot                 // NOT
	TokenLParen              // (
	TokenRParen              // )
)

var tokenNames = map[TokenType]string{
	TokenEOF:       "EOF",
	TokenIdent:     "IDENT",
	TokenString:    "STRING",
	TokenNumber:    "NUMBER",
	TokenDuration:  "DURATION",
	TokenEquals:    "=",
	TokenNotEquals: "!=",
	TokenLess:      "<",
	TokenLessEq:    "<=",
	TokenGreater:   ">",
	TokenGreaterEq: ">=",
	TokenAnd:       "AND",
	TokenOr:        "OR",
	TokenNot:       "NOT",
	TokenLParen:    "(",
	TokenRParen:    ")",
}

// String returns the string representation of a TokenType.
func (t TokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(t))
}

// Token is a single lexeme with its byte offset in the input.
type Token struct {
	Type  TokenType
	Value string
	Pos   int
}

// Lexer tokenizes a query string.
type Lexer struct {
	input string
	pos   int
}

// NewLexer creates a new Lexer for the given input string.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

func (l *Lexer) peekRune() (rune, int) {
	if l.pos >= len(l.input) {
		return 0, 0
	}
	return utf8.DecodeRuneInString(l.input[l.pos:])
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() (Token, error) {
	for {
		r, w := l.peekRune()
		if w == 0 || !unicode.IsSpace(r) {
			break
		}
		l.pos += w
	}

	start := l.pos
	r, w := l.peekRune()
	if w == 0 {
		return Token{Type: TokenEOF, Pos: start}, nil
	}

	op := func(t TokenType, n int) (Token, error) {
		l.pos += n
		return Token{Type: t, Value: l.input[start:l.pos], Pos: start}, nil
	}
	next := byte(0)
	if start+1 < len(l.input) {
		next = l.input[start+1]
	}

	switch r {
	case '(':
		return op(TokenLParen, 1)
	case ')':
		return op(TokenRParen, 1)
	case '=':
		return op(TokenEquals, 1)
	case '!':
		if next == '=' {
			return op(TokenNotEquals, 2)
		}
		return Token{}, fmt.Errorf("unexpected character '!' at position %d (did you mean '!=' or 'NOT'?)", start)
	case '<':
		if next == '=' {
			return op(TokenLessEq, 2)
		}
		return op(TokenLess, 1)
	case '>':
		if next == '=' {
			return op(TokenGreaterEq, 2)
		}
		return op(TokenGreater, 1)
	case '"', '\'':
		return l.readString(r, start)
	}

	if unicode.IsDigit(r) || r == '-' || r == '+' {
		return l.readNumber(start)
	}
	if unicode.IsLetter(r) || r == '_' {
		return l.readIdent(start)
	}
	return Token{}, fmt.Errorf("unexpected character %q at position %d", r, start)
}

func (l *Lexer) readString(quote rune, start int) (Token, error) {
	l.pos++ // opening quote
	var sb strings.Builder
	for {
		r, w := l.peekRune()
		if w == 0 {
			return Token{}, fmt.Errorf("unterminated string starting at position %d", start)
		}
		l.pos += w
		switch {
		case r == quote:
			return Token{Type: TokenString, Value: sb.String(), Pos: start}, nil
		case r == '\\':
			esc, ew := l.peekRune()
			if ew == 0 {
				return Token{}, fmt.Errorf("unterminated escape sequence at position %d", l.pos-1)
			}
			l.pos += ew
			switch esc {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			default:
				sb.WriteRune(esc)
			}
		default:
			sb.WriteRune(r)
		}
	}
}

// readNumber reads an optionally signed number. A trailing unit letter makes
// it a duration (7d), a decimal point makes it fractional (2.5).
func (l *Lexer) readNumber(start int) (Token, error) {
	if c := l.input[l.pos]; c == '-' || c == '+' {
		l.pos++
	}
	digits := l.pos
	for l.pos < len(l.input) && (isDigit(l.input[l.pos]) || l.input[l.pos] == '.') {
		l.pos++
	}
	if l.pos == digits {
		return Token{}, fmt.Errorf("expected digit at position %d", l.pos)
	}
	if l.pos < len(l.input) && isDurationSuffix(l.input[l.pos]) {
		l.pos++
		if l.pos < len(l.input) && isIdentChar(rune(l.input[l.pos])) {
			return Token{}, fmt.Errorf("invalid duration at position %d", start)
		}
		return Token{Type: TokenDuration, Value: strings.ToLower(l.input[start:l.pos]), Pos: start}, nil
	}
	value := l.input[start:l.pos]
	if strings.Count(value, ".") > 1 {
		return Token{}, fmt.Errorf("invalid number %q at position %d", value, start)
	}
	return Token{Type: TokenNumber, Value: value, Pos: start}, nil
}

func (l *Lexer) readIdent(start int) (Token, error) {
	for {
		r, w := l.peekRune()
		if w == 0 || !isIdentChar(r) {
			break
		}
		l.pos += w
	}
	value := l.input[start:l.pos]
	switch strings.ToUpper(value) {
	case "AND":
		return Token{Type: TokenAnd, Value: value, Pos: start}, nil
	case "OR":
		return Token{Type: TokenOr, Value: value, Pos: start}, nil
	case "NOT":
		return Token{Type: TokenNot, Value: value, Pos: start}, nil
	}
	return Token{Type: TokenIdent, Value: value, Pos: start}, nil
}

// Tokenize returns all tokens from the input, ending with TokenEOF.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, nil
		}
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// isIdentChar allows '*' so id prefixes can be written as id=abc*.
func isIdentChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '.' || r == '*'
}

func isDurationSuffix(c byte) bool {
	switch c {
	case 'h', 'd', 'w', 'm', 'y', 'H', 'D', 'W', 'M', 'Y':
		return true
	}
	return false
}

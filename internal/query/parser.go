package query

import (
	"fmt"
	"strings"
)

// Node is a node in the query AST.
type Node interface {
	String() string
	node()
}

// ComparisonOp is a comparison operator.
type ComparisonOp int

const (
	OpEquals ComparisonOp = iota
	OpNotEquals
	OpLess
	OpLessEq
	OpGreater
	OpGreaterEq
)

var opTokens = map[TokenType]ComparisonOp{
	TokenEquals:    OpEquals,
	TokenNotEquals: OpNotEquals,
	TokenLess:      OpLess,
	TokenLessEq:    OpLessEq,
	TokenGreater:   OpGreater,
	TokenGreaterEq: OpGreaterEq,
}

// String returns the operator as written in queries.
func (op ComparisonOp) String() string {
	switch op {
	case OpEquals:
		return "="
	case OpNotEquals:
		return "!="
	case OpLess:
		return "<"
	case OpLessEq:
		return "<="
	case OpGreater:
		return ">"
	case OpGreaterEq:
		return ">="
	}
	return "?"
}

// ComparisonNode is a field comparison such as status=open.
type ComparisonNode struct {
	Field     string
	Op        ComparisonOp
	Value     string
	ValueType TokenType
}

// AndNode is a logical AND.
type AndNode struct{ Left, Right Node }

// OrNode is a logical OR.
type OrNode struct{ Left, Right Node }

// NotNode is a logical NOT.
type NotNode struct{ Operand Node }

func (*ComparisonNode) node() {}
func (*AndNode) node()        {}
func (*OrNode) node()         {}
func (*NotNode) node()        {}

func (n *ComparisonNode) String() string {
	if n.ValueType == TokenString {
		return fmt.Sprintf("%s%s%q", n.Field, n.Op, n.Value)
	}
	return n.Field + n.Op.String() + n.Value
}
func (n *AndNode) String() string { return "(" + n.Left.String() + " AND " + n.Right.String() + ")" }
func (n *OrNode) String() string  { return "(" + n.Left.String() + " OR " + n.Right.String() + ")" }
func (n *NotNode) String() string { return "NOT " + n.Operand.String() }

// Parser is a recursive-descent parser. Precedence from low to high:
// OR, AND, NOT, then comparisons and parenthesized groups.
type Parser struct {
	lexer   *Lexer
	current Token
}

// NewParser creates a new Parser for the given input.
func NewParser(input string) *Parser {
	return &Parser{lexer: NewLexer(input)}
}

// Parse is a convenience function that parses a query string.
func Parse(input string) (Node, error) {
	return NewParser(input).Parse()
}

// Parse parses the whole input and returns the root node.
func (p *Parser) Parse() (Node, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.current.Type == TokenEOF {
		return nil, fmt.Errorf("empty query")
	}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.current.Type != TokenEOF {
		return nil, fmt.Errorf("unexpected token %q at position %d (expected end of query)", p.current.Value, p.current.Pos)
	}
	return node, nil
}

func (p *Parser) advance() error {
	tok, err := p.lexer.NextToken()
	if err != nil {
		return err
	}
	p.current = tok
	return nil
}

func (p *Parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.current.Type == TokenOr {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &OrNode{Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (Node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.current.Type == TokenAnd {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &AndNode{Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNot() (Node, error) {
	if p.current.Type != TokenNot {
		return p.parsePrimary()
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	operand, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	return &NotNode{Operand: operand}, nil
}

func (p *Parser) parsePrimary() (Node, error) {
	if p.current.Type != TokenLParen {
		return p.parseComparison()
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.current.Type != TokenRParen {
		return nil, fmt.Errorf("expected ')' at position %d, got %s", p.current.Pos, p.current.Type)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return node, nil
}

func (p *Parser) parseComparison() (Node, error) {
	if p.current.Type != TokenIdent {
		return nil, fmt.Errorf("expected field name at position %d, got %s", p.current.Pos, p.current.Type)
	}
	field := strings.ToLower(p.current.Value)
	if err := p.advance(); err != nil {
		return nil, err
	}

	op, ok := opTokens[p.current.Type]
	if !ok {
		return nil, fmt.Errorf("expected comparison operator at position %d, got %s", p.current.Pos, p.current.Type)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	switch p.current.Type {
	case TokenIdent, TokenString, TokenNumber, TokenDuration:
	default:
		return nil, fmt.Errorf("expected value at position %d, got %s", p.current.Pos, p.current.Type)
	}
	node := &ComparisonNode{Field: field, Op: op, Value: p.current.Value, ValueType: p.current.Type}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return node, nil
}

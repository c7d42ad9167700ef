package query

import (
	"fmt"
	"strings"
)

type QueryFilter struct {
	Field    string
	Operator string // ":", "=", "!=", "~", "<", "<=", ">", ">="
	Value    string
	IsNot    bool // true if prefixed with - (exclusion)
	Quoted   bool
}

func (qf QueryFilter) String() string {
	prefix := ""
	if qf.IsNot {
		prefix = "-"
	}
	value := qf.Value
	if qf.Quoted || strings.ContainsAny(value, " \t\"") {
		value = fmt.Sprintf("%q", value)
	}
	return fmt.Sprintf("%s%s%s%s", prefix, qf.Field, qf.Operator, value)
}

// ParsedQuery holds OR-separated groups of AND-joined filters.
type ParsedQuery struct {
	Groups [][]QueryFilter
	Errors []ParseError
}

type ParseError struct {
	Message string
	Pos     int
}

func (e ParseError) String() string {
	return fmt.Sprintf("parse error at position %d: %s", e.Pos, e.Message)
}

type Parser struct {
	tokens []Token
	pos    int
	errors []ParseError
}

func NewParser(tokens []Token) *Parser {
	return &Parser{
		tokens: tokens,
		pos:    0,
		errors: []ParseError{},
	}
}

func ParseQuery(input string) (*ParsedQuery, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return &ParsedQuery{Groups: [][]QueryFilter{}, Errors: []ParseError{}}, nil
	}

	tokens, err := Tokenize(input)
	if err != nil {
		return nil, err
	}

	parser := NewParser(tokens)
	return parser.parse()
}

func (p *Parser) parse() (*ParsedQuery, error) {
	groups := [][]QueryFilter{}
	current := []QueryFilter{}

	for !p.isAtEnd() {
		if p.current().Type == TokenPipe {
			groups = append(groups, current)
			current = []QueryFilter{}
			p.advance()
			continue
		}

		filter, err := p.parseFilter()
		if err != nil {
			p.errors = append(p.errors, ParseError{
				Message: err.Error(),
				Pos:     p.current().Pos,
			})
			p.skipToNextFilter()
			continue
		}

		current = append(current, *filter)
	}
	groups = append(groups, current)

	query := &ParsedQuery{
		Groups: groups,
		Errors: p.errors,
	}

	if len(p.errors) > 0 {
		return query, fmt.Errorf("%s", p.errors[0].String())
	}

	return query, nil
}

func (p *Parser) parseFilter() (*QueryFilter, error) {
	isNot := false
	if p.current().Type == TokenMinus {
		isNot = true
		p.advance() // -
	}

	token := p.current()
	if token.Type != TokenWord {
		p.advance()
		return nil, fmt.Errorf("expected field name, got %s", token.String())
	}
	field := token.Value
	p.advance()

	op := p.current()
	if !op.IsOperator() {
		return nil, fmt.Errorf("expected operator after field name '%s'", field)
	}
	p.advance()

	value, quoted, err := p.parseValue()
	if err != nil {
		return nil, err
	}

	return &QueryFilter{
		Field:    field,
		Operator: op.Value,
		Value:    value,
		IsNot:    isNot,
		Quoted:   quoted,
	}, nil
}

func (p *Parser) parseValue() (string, bool, error) {
	token := p.current()

	switch token.Type {
	case TokenWord:
		p.advance()
		return token.Value, false, nil
	case TokenQuoted:
		p.advance()
		return token.Value, true, nil
	case TokenMinus:
		// "-abc" lexes as MINUS WORD when a letter follows the dash
		p.advance()
		if next := p.current(); next.Type == TokenWord {
			p.advance()
			return "-" + next.Value, false, nil
		}
	}

	return "", false, fmt.Errorf("expected value, got %s", token.String())
}

func (p *Parser) skipToNextFilter() {
	for !p.isAtEnd() {
		token := p.current()
		if token.Type == TokenMinus || token.Type == TokenPipe {
			return
		}
		if token.Type == TokenWord && p.peek().IsOperator() {
			return
		}
		p.advance()
	}
}

func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peek() Token {
	if p.pos+1 >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos+1]
}

func (p *Parser) advance() {
	if p.pos < len(p.tokens) {
		p.pos++
	}
}

func (p *Parser) isAtEnd() bool {
	return p.pos >= len(p.tokens) || p.current().Type == TokenEOF
}

// Filters returns every filter across groups.
func (q *ParsedQuery) Filters() []QueryFilter {
	var all []QueryFilter
	for _, g := range q.Groups {
		all = append(all, g...)
	}
	return all
}

func (q *ParsedQuery) HasField(field string) bool {
	for _, filter := range q.Filters() {
		if filter.Field == field {
			return true
		}
	}
	return false
}

func (q *ParsedQuery) HasErrors() bool {
	return len(q.Errors) > 0
}

func (q *ParsedQuery) String() string {
	groups := make([]string, len(q.Groups))
	for i, g := range q.Groups {
		parts := make([]string, len(g))
		for j, f := range g {
			parts[j] = f.String()
		}
		groups[i] = strings.Join(parts, " ")
	}
	return strings.Join(groups, " | ")
}

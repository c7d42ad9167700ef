package query

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type TokenType int

const (
	// specials
	TokenEOF TokenType = iota
	TokenError

	// literals
	TokenWord
	TokenQuoted

	// ops
	TokenColon // :
	TokenTilde // ~
	TokenMinus // -
	TokenLT    // <
	TokenLTE   // <=
	TokenGT    // >
	TokenGTE   // >=
	TokenEQ    // =
	TokenNE    // !=
	TokenPipe  // | (OR separator)
)

type Token struct {
	Type  TokenType
	Value string
	Pos   int
}

func (t Token) String() string {
	switch t.Type {
	case TokenEOF:
		return "EOF"
	case TokenError:
		return fmt.Sprintf("ERROR(%s)", t.Value)
	case TokenWord:
		return fmt.Sprintf("WORD(%s)", t.Value)
	case TokenQuoted:
		return fmt.Sprintf("QUOTED(%s)", t.Value)
	case TokenColon:
		return "COLON"
	case TokenTilde:
		return "TILDE"
	case TokenMinus:
		return "MINUS"
	case TokenLT:
		return "LT"
	case TokenLTE:
		return "LTE"
	case TokenGT:
		return "GT"
	case TokenGTE:
		return "GTE"
	case TokenEQ:
		return "EQ"
	case TokenNE:
		return "NE"
	case TokenPipe:
		return "PIPE"
	default:
		return fmt.Sprintf("UNKNOWN(%s)", t.Value)
	}
}

// IsOperator reports tokens that sit between a field and its value.
func (t Token) IsOperator() bool {
	switch t.Type {
	case TokenColon, TokenTilde, TokenLT, TokenLTE, TokenGT, TokenGTE, TokenEQ, TokenNE:
		return true
	}
	return false
}

type Lexer struct {
	input  string
	pos    int
	ch     rune
	width  int
	tokens []Token
}

func NewLexer(input string) *Lexer {
	l := &Lexer{input: input, tokens: []Token{}}
	l.load()
	return l
}

func Tokenize(input string) ([]Token, error) {
	lexer := NewLexer(input)
	return lexer.tokenize()
}

func (l *Lexer) tokenize() ([]Token, error) {
	for {
		token := l.nextToken()
		l.tokens = append(l.tokens, token)

		if token.Type == TokenEOF {
			break
		}
		if token.Type == TokenError {
			return l.tokens, fmt.Errorf("lexer error at position %d: %s", token.Pos, token.Value)
		}
	}
	return l.tokens, nil
}

func (l *Lexer) nextToken() Token {
	l.skipWhitespace()

	if l.ch == 0 {
		return Token{Type: TokenEOF, Pos: l.pos}
	}

	pos := l.pos

	switch l.ch {
	case ':':
		l.advance()
		return Token{Type: TokenColon, Value: ":", Pos: pos}
	case '~':
		l.advance()
		return Token{Type: TokenTilde, Value: "~", Pos: pos}
	case '-':
		next := l.peek()
		if unicode.IsLetter(next) {
			l.advance()
			return Token{Type: TokenMinus, Value: "-", Pos: pos}
		}
		return l.readWord()
	case '<':
		l.advance()
		if l.ch == '=' {
			l.advance()
			return Token{Type: TokenLTE, Value: "<=", Pos: pos}
		}
		return Token{Type: TokenLT, Value: "<", Pos: pos}
	case '>':
		l.advance()
		if l.ch == '=' {
			l.advance()
			return Token{Type: TokenGTE, Value: ">=", Pos: pos}
		}
		return Token{Type: TokenGT, Value: ">", Pos: pos}
	case '=':
		l.advance()
		return Token{Type: TokenEQ, Value: "=", Pos: pos}
	case '!':
		if l.peek() == '=' {
			l.advance()
			l.advance()
			return Token{Type: TokenNE, Value: "!=", Pos: pos}
		}
		return Token{Type: TokenError, Value: "unexpected character: !", Pos: pos}
	case '|':
		l.advance()
		return Token{Type: TokenPipe, Value: "|", Pos: pos}
	case '"', '\'':
		return l.readQuotedValue()
	}

	if isWordRune(l.ch) {
		return l.readWord()
	}

	ch := l.ch
	l.advance()
	return Token{
		Type:  TokenError,
		Value: fmt.Sprintf("unexpected character: %c", ch),
		Pos:   pos,
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("_-.+,*/@", r)
}

func (l *Lexer) readWord() Token {
	pos := l.pos
	var sb strings.Builder

	for l.ch != 0 && isWordRune(l.ch) {
		sb.WriteRune(l.ch)
		l.advance()
	}

	return Token{Type: TokenWord, Value: sb.String(), Pos: pos}
}

func (l *Lexer) readQuotedValue() Token {
	pos := l.pos
	quote := l.ch
	l.advance()

	var sb strings.Builder

	for l.ch != 0 && l.ch != quote {
		if l.ch == '\\' && l.peek() == quote {
			l.advance()
		}
		sb.WriteRune(l.ch)
		l.advance()
	}

	if l.ch != quote {
		return Token{
			Type:  TokenError,
			Value: "unterminated quoted string",
			Pos:   pos,
		}
	}
	l.advance()

	return Token{Type: TokenQuoted, Value: sb.String(), Pos: pos}
}

func (l *Lexer) skipWhitespace() {
	for l.ch != 0 && unicode.IsSpace(l.ch) {
		l.advance()
	}
}

func (l *Lexer) load() {
	if l.pos >= len(l.input) {
		l.ch, l.width = 0, 0
		return
	}
	l.ch, l.width = utf8.DecodeRuneInString(l.input[l.pos:])
}

func (l *Lexer) advance() {
	l.pos += l.width
	l.load()
}

func (l *Lexer) peek() rune {
	next := l.pos + l.width
	if next >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[next:])
	return r
}

// IsFilterExpression reports whether input looks like filter syntax rather
// than plain search text.
func IsFilterExpression(input string) bool {
	tokens, err := Tokenize(strings.TrimSpace(input))
	if err != nil {
		return false
	}
	for i := 0; i+1 < len(tokens); i++ {
		if tokens[i].Type == TokenWord && tokens[i+1].IsOperator() {
			return true
		}
	}
	return false
}

package sexy

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// NodeType represents the type of a Node
type NodeType int

const (
	NodeSymbol NodeType = iota
	NodeString
	NodeInteger
	NodeFloat
	NodeEllipsis
	NodeList
)

func (t NodeType) String() string {
	switch t {
	case NodeSymbol:
		return "symbol"
	case NodeString:
		return "string"
	case NodeInteger:
		return "integer"
	case NodeFloat:
		return "float"
	case NodeEllipsis:
		return "ellipsis"
	case NodeList:
		return "list"
	default:
		return fmt.Sprintf("NodeType(%d)", int(t))
	}
}

// Node represents any Sexy datum
type Node struct {
	Type NodeType

	// NodeSymbol, NodeString, NodeInteger, NodeFloat. Numbers keep their
	// source spelling.
	Text string

	// NodeList
	Items []*Node

	// 1-based source position of the datum's first character
	Line int
	Col  int
}

func (n *Node) String() string {
	switch n.Type {
	case NodeSymbol, NodeInteger, NodeFloat:
		return n.Text
	case NodeString:
		escaped := strings.ReplaceAll(n.Text, "\\", "\\\\")
		escaped = strings.ReplaceAll(escaped, "\"", "\\\"")
		escaped = strings.ReplaceAll(escaped, "\n", "\\n")
		return fmt.Sprintf("\"%s\"", escaped)
	case NodeEllipsis:
		return "..."
	case NodeList:
		parts := make([]string, len(n.Items))
		for i, item := range n.Items {
			parts[i] = item.String()
		}
		return fmt.Sprintf("(%s)", strings.Join(parts, " "))
	default:
		return fmt.Sprintf("UNKNOWN_NODE_TYPE_%d", n.Type)
	}
}

// Constructors for building patterns in code.
func NewSymbol(name string) *Node {
	return &Node{Type: NodeSymbol, Text: name}
}

func NewString(value string) *Node {
	return &Node{Type: NodeString, Text: value}
}

func NewInteger(text string) *Node {
	return &Node{Type: NodeInteger, Text: text}
}

func NewFloat(text string) *Node {
	return &Node{Type: NodeFloat, Text: text}
}

func NewEllipsis() *Node {
	return &Node{Type: NodeEllipsis}
}

func NewList(items ...*Node) *Node {
	return &Node{Type: NodeList, Items: items}
}

// IsSymbol reports whether n is the symbol name.
func (n *Node) IsSymbol(name string) bool {
	return n.Type == NodeSymbol && n.Text == name
}

// Head returns the symbol text of a list's first item, or "" when n is
// not a list headed by a symbol.
func (n *Node) Head() string {
	if n.Type != NodeList || len(n.Items) == 0 || n.Items[0].Type != NodeSymbol {
		return ""
	}
	return n.Items[0].Text
}

// Int parses an integer node.
func (n *Node) Int() (int64, error) {
	if n.Type != NodeInteger {
		return 0, fmt.Errorf("%d:%d: expected integer but got %s", n.Line, n.Col, n.Type)
	}
	return strconv.ParseInt(n.Text, 10, 64)
}

// Float parses a float node.
func (n *Node) Float() (float64, error) {
	if n.Type != NodeFloat {
		return 0, fmt.Errorf("%d:%d: expected float but got %s", n.Line, n.Col, n.Type)
	}
	return strconv.ParseFloat(n.Text, 64)
}

type parser struct {
	lexer        *lexer
	currentToken token
}

// Parse parses the entire input and returns the top-level datum
func Parse(input string) (*Node, error) {
	p := &parser{lexer: newLexer(input)}
	p.nextToken()

	result, err := p.ParseDatum()
	if len(p.lexer.errors) > 0 {
		// Lexer errors take priority because they might cause confusing parser errors.
		return nil, fmt.Errorf("%s", p.lexer.errors[0])
	}
	if err != nil {
		return nil, err
	}

	if p.currentToken.Type != tokenEOF {
		return nil, fmt.Errorf("%d:%d: expected EOF but got %s", p.currentToken.Line, p.currentToken.Col, p.currentToken.Type)
	}

	return result, nil
}

func (p *parser) nextToken() {
	p.currentToken = p.lexer.nextToken()
}

func (p *parser) ParseDatum() (*Node, error) {
	tok := p.currentToken
	var node *Node
	switch tok.Type {
	case tokenSymbol:
		node = NewSymbol(tok.Value)
	case tokenString:
		node = NewString(tok.Value)
	case tokenInteger:
		node = NewInteger(tok.Value)
	case tokenFloat:
		node = NewFloat(tok.Value)
	case tokenEllipsis:
		node = NewEllipsis()
	case tokenLParen:
		return p.parseList()
	default:
		return nil, fmt.Errorf("%d:%d: unexpected token: %s", tok.Line, tok.Col, tok.Type)
	}
	node.Line, node.Col = tok.Line, tok.Col
	p.nextToken()
	return node, nil
}

func (p *parser) parseList() (*Node, error) {
	open := p.currentToken
	var items []*Node
	p.nextToken() // consume '('

	for p.currentToken.Type != tokenRParen && p.currentToken.Type != tokenEOF {
		item, err := p.ParseDatum()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if p.currentToken.Type != tokenRParen {
		return nil, fmt.Errorf("%d:%d: expected ')' but got %s", p.currentToken.Line, p.currentToken.Col, p.currentToken.Type)
	}
	p.nextToken() // consume ')'

	list := NewList(items...)
	list.Line, list.Col = open.Line, open.Col
	return list, nil
}

type tokenType int

const (
	tokenEOF tokenType = iota
	tokenSymbol
	tokenString
	tokenInteger
	tokenFloat
	tokenEllipsis
	tokenLParen
	tokenRParen
)

func (t tokenType) String() string {
	switch t {
	case tokenEOF:
		return "EOF"
	case tokenSymbol:
		return "symbol"
	case tokenString:
		return "string"
	case tokenInteger:
		return "integer"
	case tokenFloat:
		return "float"
	case tokenEllipsis:
		return "ellipsis"
	case tokenLParen:
		return "'('"
	case tokenRParen:
		return "')'"
	default:
		return fmt.Sprintf("unknown token %d", int(t))
	}
}

type token struct {
	Type  tokenType
	Value string
	Line  int
	Col   int
}

type lexer struct {
	input    string
	position int
	current  rune
	line     int
	col      int
	errors   []string
}

func newLexer(input string) *lexer {
	l := &lexer{input: input, line: 1}
	l.readChar()
	return l
}

func (l *lexer) readChar() {
	if l.current == '\n' {
		l.line++
		l.col = 0
	}
	if l.position >= len(l.input) {
		l.current = 0
	} else {
		l.current = rune(l.input[l.position])
	}
	l.position++
	l.col++
}

func (l *lexer) skipWhitespace() {
	for unicode.IsSpace(l.current) {
		l.readChar()
	}
}

func (l *lexer) skipComment() {
	for l.current != '\n' && l.current != '\r' && l.current != 0 {
		l.readChar()
	}
}

// readAtom consumes a run of non-delimiter characters.
func (l *lexer) readAtom() string {
	start := l.position - 1
	for l.current != 0 && !isDelimiter(l.current) {
		l.readChar()
	}
	return l.input[start : l.position-1]
}

func (l *lexer) readString() (string, error) {
	var result strings.Builder
	l.readChar() // skip opening quote

	for l.current != '"' && l.current != 0 {
		if l.current == '\\' {
			l.readChar()
			switch l.current {
			case '"':
				result.WriteByte('"')
			case '\\':
				result.WriteByte('\\')
			case 'n':
				result.WriteByte('\n')
			case 't':
				result.WriteByte('\t')
			default:
				return "", fmt.Errorf("invalid escape sequence: \\%c", l.current)
			}
		} else {
			result.WriteRune(l.current)
		}
		l.readChar()
	}

	if l.current != '"' {
		return "", fmt.Errorf("unterminated string")
	}
	l.readChar() // skip closing quote

	return result.String(), nil
}

func (l *lexer) nextToken() token {
	for {
		l.skipWhitespace()

		line, col := l.line, l.col
		tok := func(t tokenType, value string) token {
			return token{Type: t, Value: value, Line: line, Col: col}
		}

		switch l.current {
		case 0:
			return tok(tokenEOF, "")
		case ';':
			l.skipComment()
			continue
		case '(':
			l.readChar()
			return tok(tokenLParen, "(")
		case ')':
			l.readChar()
			return tok(tokenRParen, ")")
		case '"':
			str, err := l.readString()
			if err != nil {
				l.errors = append(l.errors, fmt.Sprintf("%d:%d: %v", line, col, err))
				return tok(tokenEOF, "")
			}
			return tok(tokenString, str)
		default:
			atom := l.readAtom()
			switch {
			case atom == "":
				l.errors = append(l.errors, fmt.Sprintf("%d:%d: unexpected character '%c'", line, col, l.current))
				return tok(tokenEOF, "")
			case atom == "...":
				return tok(tokenEllipsis, atom)
			case !looksNumeric(atom):
				return tok(tokenSymbol, atom)
			}
			if _, err := strconv.ParseInt(atom, 10, 64); err == nil {
				return tok(tokenInteger, atom)
			}
			if _, err := strconv.ParseFloat(atom, 64); err == nil {
				return tok(tokenFloat, atom)
			}
			l.errors = append(l.errors, fmt.Sprintf("%d:%d: malformed number %q", line, col, atom))
			return tok(tokenEOF, "")
		}
	}
}

// looksNumeric reports whether an atom starts like a number: a digit, or
// a sign followed by a digit. "-" and "+" alone are symbols.
func looksNumeric(atom string) bool {
	if atom[0] == '+' || atom[0] == '-' {
		atom = atom[1:]
	}
	return atom != "" && atom[0] >= '0' && atom[0] <= '9'
}

func isDelimiter(r rune) bool {
	return unicode.IsSpace(r) || r == '(' || r == ')' || r == '"' || r == ';'
}

package sexy

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/nikandfor/errors"
)

// NodeType represents the type of a Node
type NodeType int

const (
	NodeSymbol NodeType = iota
	NodeString
	NodeInteger
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
	case NodeList:
		return "list"
	default:
		return fmt.Sprintf("NodeType(%d)", int(t))
	}
}

// Node is one datum of an S-expression document.
type Node struct {
	Type NodeType

	Text  string  // NodeSymbol, NodeString, NodeInteger
	Items []*Node // NodeList

	// Pos is the byte offset of the datum in the parsed input.
	Pos int
}

func (n *Node) String() string {
	switch n.Type {
	case NodeSymbol, NodeInteger:
		return n.Text
	case NodeString:
		return quote(n.Text)
	case NodeList:
		parts := make([]string, len(n.Items))
		for i, item := range n.Items {
			parts[i] = item.String()
		}
		return "(" + strings.Join(parts, " ") + ")"
	default:
		return fmt.Sprintf("UNKNOWN_NODE_TYPE_%d", n.Type)
	}
}

func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func NewSymbol(name string) *Node {
	return &Node{Type: NodeSymbol, Text: name}
}

func NewString(value string) *Node {
	return &Node{Type: NodeString, Text: value}
}

func NewInteger(text string) *Node {
	return &Node{Type: NodeInteger, Text: text}
}

func NewList(items ...*Node) *Node {
	return &Node{Type: NodeList, Items: items}
}

// IsAtom checks if the node is an atomic value
func (n *Node) IsAtom() bool {
	return n.Type != NodeList
}

// Head returns the leading symbol of a list, or "" if n is not a list
// starting with a symbol.
func (n *Node) Head() string {
	if n.Type != NodeList || len(n.Items) == 0 || n.Items[0].Type != NodeSymbol {
		return ""
	}
	return n.Items[0].Text
}

// Args returns the list items after the head.
func (n *Node) Args() []*Node {
	if n.Type != NodeList || len(n.Items) == 0 {
		return nil
	}
	return n.Items[1:]
}

type parser struct {
	lexer        *lexer
	currentToken token
}

// Parse parses input holding exactly one datum.
func Parse(input string) (*Node, error) {
	p := &parser{lexer: newLexer(input)}
	p.nextToken()

	result, err := p.parseDatum()
	if p.lexer.err != nil {
		// Lexer errors take priority because they might cause confusing parser errors.
		return nil, p.lexer.err
	}
	if err != nil {
		return nil, err
	}

	if p.currentToken.Type != tokenEOF {
		return nil, errors.New("offset %d: expected EOF but got %s", p.currentToken.Pos, p.currentToken.Type)
	}

	return result, nil
}

func (p *parser) nextToken() {
	p.currentToken = p.lexer.nextToken()
}

func (p *parser) parseDatum() (*Node, error) {
	tok := p.currentToken

	var n *Node
	switch tok.Type {
	case tokenSymbol:
		n = NewSymbol(tok.Value)
	case tokenString:
		n = NewString(tok.Value)
	case tokenInteger:
		n = NewInteger(tok.Value)
	case tokenLParen:
		return p.parseList()
	default:
		return nil, errors.New("offset %d: unexpected token: %s", tok.Pos, tok.Type)
	}

	n.Pos = tok.Pos
	p.nextToken()

	return n, nil
}

func (p *parser) parseList() (*Node, error) {
	list := &Node{Type: NodeList, Pos: p.currentToken.Pos}
	p.nextToken() // consume '('

	for p.currentToken.Type != tokenRParen && p.currentToken.Type != tokenEOF {
		item, err := p.parseDatum()
		if err != nil {
			return nil, err
		}
		list.Items = append(list.Items, item)
	}

	if p.currentToken.Type != tokenRParen {
		return nil, errors.New("offset %d: expected ')' but got %s", p.currentToken.Pos, p.currentToken.Type)
	}
	p.nextToken() // consume ')'

	return list, nil
}

type tokenType int

const (
	tokenEOF tokenType = iota
	tokenSymbol
	tokenString
	tokenInteger
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
	Pos   int
}

type lexer struct {
	input   string
	pos     int // offset of current
	next    int
	current rune

	err error
}

func newLexer(input string) *lexer {
	l := &lexer{input: input}
	l.readChar()
	return l
}

func (l *lexer) readChar() {
	l.pos = l.next
	if l.next >= len(l.input) {
		l.current = 0
		return
	}
	l.current = rune(l.input[l.next])
	l.next++
}

func (l *lexer) peekChar() rune {
	if l.next >= len(l.input) {
		return 0
	}
	return rune(l.input[l.next])
}

func (l *lexer) fail(pos int, format string, args ...any) token {
	if l.err == nil {
		l.err = errors.New("offset %d: %s", pos, fmt.Sprintf(format, args...))
	}
	return token{Type: tokenEOF, Pos: pos}
}

func (l *lexer) readWhile(ok func(rune) bool) string {
	start := l.pos
	for l.current != 0 && ok(l.current) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

func (l *lexer) readString() (string, bool) {
	var b strings.Builder
	l.readChar() // skip opening quote

	for l.current != '"' {
		switch l.current {
		case 0:
			return "", false
		case '\\':
			l.readChar()
			switch l.current {
			case '"', '\\':
				b.WriteRune(l.current)
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				l.fail(l.pos, "invalid escape sequence: \\%c", l.current)
				return "", true
			}
		default:
			b.WriteRune(l.current)
		}
		l.readChar()
	}
	l.readChar() // skip closing quote

	return b.String(), true
}

func (l *lexer) nextToken() token {
	if l.err != nil {
		return token{Type: tokenEOF, Pos: l.pos}
	}

	for {
		for unicode.IsSpace(l.current) {
			l.readChar()
		}
		if l.current != ';' {
			break
		}
		for l.current != '\n' && l.current != 0 {
			l.readChar()
		}
	}

	pos := l.pos

	switch c := l.current; {
	case c == 0:
		return token{Type: tokenEOF, Pos: pos}
	case c == '(':
		l.readChar()
		return token{Type: tokenLParen, Value: "(", Pos: pos}
	case c == ')':
		l.readChar()
		return token{Type: tokenRParen, Value: ")", Pos: pos}
	case c == '"':
		s, ok := l.readString()
		if !ok {
			return l.fail(pos, "unterminated string")
		}
		return token{Type: tokenString, Value: s, Pos: pos}
	case unicode.IsDigit(c), (c == '+' || c == '-') && unicode.IsDigit(l.peekChar()):
		l.readChar()
		text := l.input[pos:l.pos] + l.readWhile(unicode.IsDigit)
		if isSymbolChar(l.current) {
			return l.fail(l.pos, "unexpected character %q in integer", l.current)
		}
		return token{Type: tokenInteger, Value: text, Pos: pos}
	case isSymbolChar(c):
		return token{Type: tokenSymbol, Value: l.readWhile(isSymbolChar), Pos: pos}
	default:
		return l.fail(pos, "unexpected character %q", c)
	}
}

func isSymbolChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '+'
}

package overlay

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Condition is a compiled overlay guard expression. Expressions compare
// card values against literals and compose with boolean operators:
//
//	type == "dashboard"
//	meta.audience != "public" && sections == 4
//	!(palette == "rose" || collapsed)
//
// Identifiers resolve against the value map the decorator builds: card fields
// (id, type, palette, columns, sections) plus metadata entries under the
// "meta." prefix. Missing keys read as empty strings.
type Condition struct {
	raw  string
	root condNode
}

// CompileCondition parses an expression. An empty expression compiles to a
// condition that is always true.
func CompileCondition(input string) (*Condition, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return &Condition{}, nil
	}

	tokens, err := scanCondition(trimmed)
	if err != nil {
		return nil, err
	}

	parser := &condParser{tokens: tokens}
	root, err := parser.parseOr()
	if err != nil {
		return nil, err
	}
	if parser.pos < len(parser.tokens) {
		return nil, fmt.Errorf("overlay: condition %q: unexpected token %q", trimmed, parser.tokens[parser.pos].text)
	}
	return &Condition{raw: trimmed, root: root}, nil
}

// Eval resolves the condition against the supplied values. The zero condition
// and the empty expression evaluate to true.
func (c *Condition) Eval(values map[string]string) bool {
	if c == nil || c.root == nil {
		return true
	}
	return c.root.eval(values)
}

// String returns the original expression text.
func (c *Condition) String() string {
	if c == nil {
		return ""
	}
	return c.raw
}

type condTokenKind int

const (
	condIdent condTokenKind = iota
	condLiteral
	condEq
	condNeq
	condAnd
	condOr
	condNot
	condLParen
	condRParen
)

type condToken struct {
	kind condTokenKind
	text string
}

func scanCondition(input string) ([]condToken, error) {
	var tokens []condToken
	i := 0
	for i < len(input) {
		ch := input[i]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++
		case ch == '(':
			tokens = append(tokens, condToken{kind: condLParen, text: "("})
			i++
		case ch == ')':
			tokens = append(tokens, condToken{kind: condRParen, text: ")"})
			i++
		case ch == '!':
			if i+1 < len(input) && input[i+1] == '=' {
				tokens = append(tokens, condToken{kind: condNeq, text: "!="})
				i += 2
			} else {
				tokens = append(tokens, condToken{kind: condNot, text: "!"})
				i++
			}
		case ch == '=':
			if i+1 >= len(input) || input[i+1] != '=' {
				return nil, errors.New("overlay: condition uses '='; write '=='")
			}
			tokens = append(tokens, condToken{kind: condEq, text: "=="})
			i += 2
		case ch == '&':
			if i+1 >= len(input) || input[i+1] != '&' {
				return nil, errors.New("overlay: condition uses '&'; write '&&'")
			}
			tokens = append(tokens, condToken{kind: condAnd, text: "&&"})
			i += 2
		case ch == '|':
			if i+1 >= len(input) || input[i+1] != '|' {
				return nil, errors.New("overlay: condition uses '|'; write '||'")
			}
			tokens = append(tokens, condToken{kind: condOr, text: "||"})
			i += 2
		case ch == '"' || ch == '\'':
			quote := ch
			j := i + 1
			var sb strings.Builder
			for j < len(input) {
				if input[j] == '\\' && j+1 < len(input) {
					sb.WriteByte(input[j+1])
					j += 2
					continue
				}
				if input[j] == quote {
					break
				}
				sb.WriteByte(input[j])
				j++
			}
			if j >= len(input) {
				return nil, errors.New("overlay: condition has an unterminated string literal")
			}
			tokens = append(tokens, condToken{kind: condLiteral, text: sb.String()})
			i = j + 1
		default:
			j := i
			for j < len(input) && !strings.ContainsRune(" \t\n\r()!=&|", rune(input[j])) {
				j++
			}
			word := input[i:j]
			tokens = append(tokens, condToken{kind: condIdent, text: word})
			i = j
		}
	}
	return tokens, nil
}

type condNode interface {
	eval(values map[string]string) bool
}

type condBinary struct {
	and   bool
	left  condNode
	right condNode
}

func (n condBinary) eval(values map[string]string) bool {
	if n.and {
		return n.left.eval(values) && n.right.eval(values)
	}
	return n.left.eval(values) || n.right.eval(values)
}

type condNegate struct {
	inner condNode
}

func (n condNegate) eval(values map[string]string) bool {
	return !n.inner.eval(values)
}

type condCompare struct {
	key    string
	negate bool
	want   string
}

func (n condCompare) eval(values map[string]string) bool {
	got := strings.TrimSpace(values[n.key])
	equal := compareValues(got, n.want)
	if n.negate {
		return !equal
	}
	return equal
}

// compareValues prefers typed comparison so "4" == "4.0" and "True" == "true"
// both hold, falling back to exact string equality.
func compareValues(got, want string) bool {
	if gotNum, err := strconv.ParseFloat(got, 64); err == nil {
		if wantNum, err := strconv.ParseFloat(want, 64); err == nil {
			return gotNum == wantNum
		}
	}
	if gotBool, err := strconv.ParseBool(strings.ToLower(got)); err == nil {
		if wantBool, err := strconv.ParseBool(strings.ToLower(want)); err == nil {
			return gotBool == wantBool
		}
	}
	return got == want
}

type condTruthy struct {
	key string
}

func (n condTruthy) eval(values map[string]string) bool {
	value := strings.TrimSpace(values[n.key])
	switch strings.ToLower(value) {
	case "", "false", "0":
		return false
	default:
		return true
	}
}

type condParser struct {
	tokens []condToken
	pos    int
}

func (p *condParser) parseOr() (condNode, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.match(condOr) {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = condBinary{left: left, right: right}
	}
	return left, nil
}

func (p *condParser) parseAnd() (condNode, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.match(condAnd) {
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = condBinary{and: true, left: left, right: right}
	}
	return left, nil
}

func (p *condParser) parseUnary() (condNode, error) {
	if p.match(condNot) {
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return condNegate{inner: inner}, nil
	}
	return p.parsePrimary()
}

func (p *condParser) parsePrimary() (condNode, error) {
	if p.match(condLParen) {
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if !p.match(condRParen) {
			return nil, errors.New("overlay: condition is missing a closing ')'")
		}
		return inner, nil
	}

	ident, ok := p.take(condIdent)
	if !ok {
		if p.pos >= len(p.tokens) {
			return nil, errors.New("overlay: condition ends unexpectedly")
		}
		return nil, fmt.Errorf("overlay: condition expected an identifier, got %q", p.tokens[p.pos].text)
	}

	if p.match(condEq) {
		want, err := p.literal()
		if err != nil {
			return nil, err
		}
		return condCompare{key: ident.text, want: want}, nil
	}
	if p.match(condNeq) {
		want, err := p.literal()
		if err != nil {
			return nil, err
		}
		return condCompare{key: ident.text, negate: true, want: want}, nil
	}
	return condTruthy{key: ident.text}, nil
}

func (p *condParser) literal() (string, error) {
	if p.pos >= len(p.tokens) {
		return "", errors.New("overlay: condition comparison is missing its right-hand side")
	}
	tok := p.tokens[p.pos]
	if tok.kind != condLiteral && tok.kind != condIdent {
		return "", fmt.Errorf("overlay: condition expected a literal, got %q", tok.text)
	}
	p.pos++
	return tok.text, nil
}

func (p *condParser) match(kind condTokenKind) bool {
	if p.pos >= len(p.tokens) || p.tokens[p.pos].kind != kind {
		return false
	}
	p.pos++
	return true
}

func (p *condParser) take(kind condTokenKind) (condToken, bool) {
	if p.pos >= len(p.tokens) || p.tokens[p.pos].kind != kind {
		return condToken{}, false
	}
	tok := p.tokens[p.pos]
	p.pos++
	return tok, true
}

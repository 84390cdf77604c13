// Package tags selects test cases by boolean expressions over their
// declared, inherited and computed tags.
//
// Grammar (keywords are case-insensitive, symbols and words are interchangeable):
//
//	expr    := or
//	or      := and { ("OR" | "||") and }
//	and     := unary { ("AND" | "&&") unary }
//	unary   := ("NOT" | "!") unary | primary
//	primary := TAG | "(" expr ")"
//
// NOT binds tighter than AND, which binds tighter than OR. Binary operators
// associate to the left. A TAG is any run of characters other than
// whitespace, parentheses, '&', '|' and '!'.
package tags

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrSyntax is wrapped by every expression parse error.
var ErrSyntax = errors.New("tag expression syntax error")

// Expr is a parsed tag expression.
type Expr interface {
	// Eval reports whether the expression holds for the tag set.
	Eval(tags Set) bool
	String() string
}

type tagExpr struct{ tag string }

type notExpr struct{ x Expr }

type andExpr struct{ left, right Expr }

type orExpr struct{ left, right Expr }

func (e tagExpr) Eval(tags Set) bool { return tags.Has(e.tag) }
func (e notExpr) Eval(tags Set) bool { return !e.x.Eval(tags) }
func (e andExpr) Eval(tags Set) bool { return e.left.Eval(tags) && e.right.Eval(tags) }
func (e orExpr) Eval(tags Set) bool  { return e.left.Eval(tags) || e.right.Eval(tags) }

func (e tagExpr) String() string { return e.tag }
func (e notExpr) String() string { return "NOT " + e.x.String() }
func (e andExpr) String() string { return "(" + e.left.String() + " AND " + e.right.String() + ")" }
func (e orExpr) String() string  { return "(" + e.left.String() + " OR " + e.right.String() + ")" }

type tokenKind int

const (
	tokTag tokenKind = iota
	tokAnd
	tokOr
	tokNot
	tokLParen
	tokRParen
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func (k tokenKind) String() string {
	switch k {
	case tokTag:
		return "tag"
	case tokAnd:
		return "AND"
	case tokOr:
		return "OR"
	case tokNot:
		return "NOT"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	default:
		return "end of expression"
	}
}

func lex(input string) ([]token, error) {
	var toks []token
	runes := []rune(input)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case r == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		case r == '!':
			toks = append(toks, token{kind: tokNot, text: "!", pos: i})
			i++
		case r == '&' || r == '|':
			if i+1 >= len(runes) || runes[i+1] != r {
				return nil, fmt.Errorf("%w: stray %q at position %d", ErrSyntax, r, i)
			}
			kind := tokAnd
			if r == '|' {
				kind = tokOr
			}
			toks = append(toks, token{kind: kind, text: string([]rune{r, r}), pos: i})
			i += 2
		default:
			start := i
			for i < len(runes) && !isDelimiter(runes[i]) {
				i++
			}
			word := string(runes[start:i])
			toks = append(toks, token{kind: keyword(word), text: word, pos: start})
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(runes)}), nil
}

func isDelimiter(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune("()&|!", r)
}

func keyword(word string) tokenKind {
	switch normalize(word) {
	case "and":
		return tokAnd
	case "or":
		return tokOr
	case "not":
		return tokNot
	}
	return tokTag
}

type parser struct {
	toks []token
	pos  int
}

// Parse compiles a tag expression. A bare tag is a valid expression.
func Parse(input string) (Expr, error) {
	if strings.TrimSpace(input) == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrSyntax)
	}
	toks, err := lex(input)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, fmt.Errorf("%w: unexpected %s %q at position %d", ErrSyntax, tok.kind, tok.text, tok.pos)
	}
	return expr, nil
}

// MustParse is like Parse but panics on error.
func MustParse(input string) Expr {
	expr, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return expr
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	tok := p.toks[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOr {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = orExpr{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokAnd {
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = andExpr{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.peek().kind == tokNot {
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return notExpr{x: x}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	tok := p.next()
	switch tok.kind {
	case tokTag:
		return tagExpr{tag: normalize(tok.text)}, nil
	case tokLParen:
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, fmt.Errorf("%w: expected ')' at position %d, found %s", ErrSyntax, closing.pos, closing.kind)
		}
		return expr, nil
	default:
		return nil, fmt.Errorf("%w: expected tag or '(' at position %d, found %s", ErrSyntax, tok.pos, tok.kind)
	}
}

/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: parser.go
Description: Parser for the constraint pattern language. A constraint names a head
primitive followed by one pattern per argument position:

	*            anything
	a|b|(g * a)  only these primitives (nested constraints apply to their own arguments)
	^a|b         anything except these primitives
	var(0,1)     only expressions built from these type request arguments

Outer parentheses are optional: "f zero|one *" and "(f zero|one *)" are equivalent.
*/

package constraints

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Surface symbols of the pattern language
const (
	SymbolAnything  = "*"
	SymbolForbidden = "^"
	SymbolSeparator = "|"
	SymbolVar       = "var"
)

// ErrSyntax is returned (wrapped) for malformed constraint strings
var ErrSyntax = errors.New("constraint syntax error")

// ArgKind tags the pattern applied at an argument position
type ArgKind uint8

const (
	ArgAnything ArgKind = iota
	ArgAllow
	ArgForbid
	ArgVar
)

// Choice is one alternative of an allow-list: a bare name or a nested constraint
type Choice struct {
	Name   string
	Nested *Constraint
}

// Head returns the primitive named by the choice
func (c Choice) Head() string {
	if c.Nested != nil {
		return c.Nested.Head
	}
	return c.Name
}

// Arg is the pattern for a single argument position
type Arg struct {
	Kind    ArgKind
	Choices []Choice // ArgAllow
	Names   []string // ArgForbid
	Vars    []int    // ArgVar
}

// Constraint is a parsed pattern rooted at a head primitive
type Constraint struct {
	Head string
	Args []Arg
}

// HasVar reports whether the constraint or any nested one uses var(...)
func (c *Constraint) HasVar() bool {
	for _, a := range c.Args {
		switch a.Kind {
		case ArgVar:
			return true
		case ArgAllow:
			for _, ch := range a.Choices {
				if ch.Nested != nil && ch.Nested.HasVar() {
					return true
				}
			}
		}
	}
	return false
}

// Unconstrained reports whether every argument is "*"
func (c *Constraint) Unconstrained() bool {
	for _, a := range c.Args {
		if a.Kind != ArgAnything {
			return false
		}
	}
	return true
}

// String renders the constraint in canonical form with outer parentheses
func (c *Constraint) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	sb.WriteString(c.Head)
	for _, a := range c.Args {
		sb.WriteByte(' ')
		switch a.Kind {
		case ArgAnything:
			sb.WriteString(SymbolAnything)
		case ArgForbid:
			sb.WriteString(SymbolForbidden + strings.Join(a.Names, SymbolSeparator))
		case ArgVar:
			parts := make([]string, len(a.Vars))
			for i, v := range a.Vars {
				parts[i] = strconv.Itoa(v)
			}
			sb.WriteString(SymbolVar + "(" + strings.Join(parts, ",") + ")")
		case ArgAllow:
			parts := make([]string, len(a.Choices))
			for i, ch := range a.Choices {
				if ch.Nested != nil {
					parts[i] = ch.Nested.String()
				} else {
					parts[i] = ch.Name
				}
			}
			sb.WriteString(strings.Join(parts, SymbolSeparator))
		}
	}
	sb.WriteByte(')')
	return sb.String()
}

// Parse reads a single constraint
func Parse(input string) (*Constraint, error) {
	toks, err := tokenize(input)
	if err != nil {
		return nil, err
	}
	p := &parser{src: input, toks: toks}

	if len(toks) == 0 {
		return nil, p.errorf(0, "empty constraint")
	}

	var c *Constraint
	if p.peek().kind == tokOpen {
		p.next()
		if c, err = p.parseBody(); err != nil {
			return nil, err
		}
		if err := p.expect(tokClose); err != nil {
			return nil, err
		}
	} else if c, err = p.parseBody(); err != nil {
		return nil, err
	}

	if !p.done() {
		return nil, p.errorf(p.peek().pos, "unexpected %q", p.peek().text)
	}
	return c, nil
}

type tokKind uint8

const (
	tokWord tokKind = iota
	tokOpen
	tokClose
	tokPipe
	tokComma
)

type token struct {
	kind tokKind
	text string
	pos  int
}

func tokenize(input string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(input) {
		c := rune(input[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '(':
			toks = append(toks, token{tokOpen, "(", i})
			i++
		case c == ')':
			toks = append(toks, token{tokClose, ")", i})
			i++
		case c == '|':
			toks = append(toks, token{tokPipe, "|", i})
			i++
		case c == ',':
			toks = append(toks, token{tokComma, ",", i})
			i++
		default:
			start := i
			for i < len(input) && !strings.ContainsRune("()|, \t\r\n", rune(input[i])) {
				i++
			}
			toks = append(toks, token{tokWord, input[start:i], start})
		}
	}
	return toks, nil
}

type parser struct {
	src  string
	toks []token
	pos  int
}

func (p *parser) errorf(offset int, format string, args ...any) error {
	return fmt.Errorf("%w at offset %d in %q: %s", ErrSyntax, offset, p.src, fmt.Sprintf(format, args...))
}

func (p *parser) done() bool { return p.pos >= len(p.toks) }

func (p *parser) peek() token {
	if p.done() {
		return token{kind: tokClose, text: "<end>", pos: len(p.src)}
	}
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.peek()
	p.pos++
	return t
}

func (p *parser) expect(kind tokKind) error {
	if p.done() {
		return p.errorf(len(p.src), "unexpected end of constraint")
	}
	if t := p.next(); t.kind != kind {
		return p.errorf(t.pos, "unexpected %q", t.text)
	}
	return nil
}

// parseBody reads "head arg*" up to a closing parenthesis or the end
func (p *parser) parseBody() (*Constraint, error) {
	head := p.next()
	if head.kind != tokWord || strings.HasPrefix(head.text, SymbolForbidden) {
		return nil, p.errorf(head.pos, "expected primitive name, got %q", head.text)
	}

	c := &Constraint{Head: head.text}
	for !p.done() && p.peek().kind != tokClose {
		arg, err := p.parseArg()
		if err != nil {
			return nil, err
		}
		c.Args = append(c.Args, arg)
	}
	return c, nil
}

func (p *parser) parseArg() (Arg, error) {
	t := p.peek()

	switch {
	case t.kind == tokWord && t.text == SymbolAnything && !p.followedBy(tokPipe):
		p.next()
		return Arg{Kind: ArgAnything}, nil

	case t.kind == tokWord && strings.HasPrefix(t.text, SymbolForbidden):
		p.next()
		first := strings.TrimPrefix(t.text, SymbolForbidden)
		if first == "" {
			return Arg{}, p.errorf(t.pos, "empty forbidden list")
		}
		names := []string{first}
		for p.peek().kind == tokPipe {
			p.next()
			n := p.next()
			if n.kind != tokWord {
				return Arg{}, p.errorf(n.pos, "expected primitive name, got %q", n.text)
			}
			names = append(names, n.text)
		}
		return Arg{Kind: ArgForbid, Names: names}, nil

	case t.kind == tokWord && t.text == SymbolVar && p.adjacentOpen():
		p.next()
		return p.parseVar()

	case t.kind == tokWord || t.kind == tokOpen:
		var choices []Choice
		for {
			ch, err := p.parseChoice()
			if err != nil {
				return Arg{}, err
			}
			choices = append(choices, ch)
			if p.peek().kind != tokPipe || p.done() {
				break
			}
			p.next()
		}
		return Arg{Kind: ArgAllow, Choices: choices}, nil
	}

	return Arg{}, p.errorf(t.pos, "unexpected %q", t.text)
}

func (p *parser) parseChoice() (Choice, error) {
	t := p.next()
	switch t.kind {
	case tokWord:
		if strings.HasPrefix(t.text, SymbolForbidden) {
			return Choice{}, p.errorf(t.pos, "forbidden marker inside an allow-list")
		}
		return Choice{Name: t.text}, nil
	case tokOpen:
		nested, err := p.parseBody()
		if err != nil {
			return Choice{}, err
		}
		if err := p.expect(tokClose); err != nil {
			return Choice{}, err
		}
		return Choice{Nested: nested}, nil
	}
	return Choice{}, p.errorf(t.pos, "unexpected %q", t.text)
}

// parseVar reads "(i, j, ...)" after the var keyword. "|" is accepted as a separator too.
func (p *parser) parseVar() (Arg, error) {
	if err := p.expect(tokOpen); err != nil {
		return Arg{}, err
	}
	var vars []int
	for {
		t := p.next()
		if t.kind != tokWord {
			return Arg{}, p.errorf(t.pos, "expected variable index, got %q", t.text)
		}
		i, err := strconv.Atoi(t.text)
		if err != nil || i < 0 {
			return Arg{}, p.errorf(t.pos, "invalid variable index %q", t.text)
		}
		vars = append(vars, i)

		sep := p.next()
		if sep.kind == tokClose && sep.text == ")" {
			break
		}
		if sep.kind != tokComma && sep.kind != tokPipe {
			return Arg{}, p.errorf(sep.pos, "unexpected %q in var list", sep.text)
		}
	}
	return Arg{Kind: ArgVar, Vars: vars}, nil
}

func (p *parser) followedBy(kind tokKind) bool {
	return p.pos+1 < len(p.toks) && p.toks[p.pos+1].kind == kind
}

// adjacentOpen reports whether the current word is immediately followed by "("
func (p *parser) adjacentOpen() bool {
	if p.pos+1 >= len(p.toks) {
		return false
	}
	cur, nxt := p.toks[p.pos], p.toks[p.pos+1]
	return nxt.kind == tokOpen && nxt.pos == cur.pos+len(cur.text)
}

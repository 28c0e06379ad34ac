/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: rules.go
Description: Non-terminals and the rule table produced by the grammar builder.
A non-terminal is identified by (type, context, depth, tag); each maps to an
ordered set of productions with their argument non-terminals.
*/

package grammar

import (
	"fmt"
	"strings"

	"github.com/kleascm/akaylee-synth/pkg/program"
	"github.com/kleascm/akaylee-synth/pkg/typesys"
)

// NonTerminal is a point of the bounded grammar where expansion can occur
type NonTerminal struct {
	Type    typesys.Type
	Context NGram
	Depth   int
	Tag     string // unused by the depth grammar
}

// Key is the comparable identity of a non-terminal
type Key struct {
	Type    string
	Context string
	Depth   int
	Tag     string
}

// Key returns the identity of nt
func (nt NonTerminal) Key() Key {
	return Key{Type: nt.Type.String(), Context: nt.Context.Key(), Depth: nt.Depth, Tag: nt.Tag}
}

func (nt NonTerminal) String() string {
	if nt.Tag != "" {
		return fmt.Sprintf("(%s, %s, %d, %s)", nt.Type, nt.Context, nt.Depth, nt.Tag)
	}
	return fmt.Sprintf("(%s, %s, %d)", nt.Type, nt.Context, nt.Depth)
}

// Production derives a program head with one non-terminal per argument
type Production struct {
	Program program.Derivable
	Args    []NonTerminal
}

// Rule holds the productions of one non-terminal in insertion order
type Rule struct {
	NonTerminal NonTerminal
	Productions []Production
	index       map[string]int
}

// Get returns the production whose head has the given key
func (r *Rule) Get(key string) (Production, bool) {
	i, ok := r.index[key]
	if !ok {
		return Production{}, false
	}
	return r.Productions[i], true
}

// put adds p, replacing a production with the same head
func (r *Rule) put(p Production) {
	key := p.Program.Key()
	if i, ok := r.index[key]; ok {
		r.Productions[i] = p
		return
	}
	r.index[key] = len(r.Productions)
	r.Productions = append(r.Productions, p)
}

// retain keeps only the productions accepted by keep
func (r *Rule) retain(keep func(Production) bool) {
	kept := r.Productions[:0]
	r.index = make(map[string]int, len(r.Productions))
	for _, p := range r.Productions {
		if keep(p) {
			r.index[p.Program.Key()] = len(kept)
			kept = append(kept, p)
		}
	}
	r.Productions = kept
}

// RuleTable maps non-terminals to their rules
type RuleTable struct {
	start       NonTerminal
	typeRequest typesys.Type
	rules       map[Key]*Rule
	order       []Key
}

func newRuleTable(start NonTerminal, typeRequest typesys.Type) *RuleTable {
	return &RuleTable{
		start:       start,
		typeRequest: typeRequest,
		rules:       make(map[Key]*Rule),
	}
}

// Start returns the start symbol
func (t *RuleTable) Start() NonTerminal { return t.start }

// TypeRequest returns the type request the table was built for
func (t *RuleTable) TypeRequest() typesys.Type { return t.typeRequest }

// Len returns the number of non-terminals
func (t *RuleTable) Len() int { return len(t.rules) }

// IsEmpty reports whether no program can be derived: the start symbol is missing
// or has no production
func (t *RuleTable) IsEmpty() bool {
	r, ok := t.rules[t.start.Key()]
	return !ok || len(r.Productions) == 0
}

// Rule returns the rule of nt
func (t *RuleTable) Rule(nt NonTerminal) (*Rule, bool) {
	r, ok := t.rules[nt.Key()]
	return r, ok
}

// Has reports whether nt is present
func (t *RuleTable) Has(nt NonTerminal) bool {
	_, ok := t.rules[nt.Key()]
	return ok
}

// Productions returns the productions of nt, nil if absent
func (t *RuleTable) Productions(nt NonTerminal) []Production {
	if r, ok := t.rules[nt.Key()]; ok {
		return r.Productions
	}
	return nil
}

// NonTerminals returns the non-terminals in discovery order
func (t *RuleTable) NonTerminals() []NonTerminal {
	out := make([]NonTerminal, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, t.rules[k].NonTerminal)
	}
	return out
}

// ProductionCount returns the total number of productions
func (t *RuleTable) ProductionCount() int {
	n := 0
	for _, r := range t.rules {
		n += len(r.Productions)
	}
	return n
}

// ensure returns the rule of nt, creating an empty one
func (t *RuleTable) ensure(nt NonTerminal) *Rule {
	key := nt.Key()
	if r, ok := t.rules[key]; ok {
		return r
	}
	r := &Rule{NonTerminal: nt, index: make(map[string]int)}
	t.rules[key] = r
	t.order = append(t.order, key)
	return r
}

// removeIf deletes every non-terminal for which drop returns true
func (t *RuleTable) removeIf(drop func(Key) bool) {
	kept := t.order[:0]
	for _, k := range t.order {
		if drop(k) {
			delete(t.rules, k)
			continue
		}
		kept = append(kept, k)
	}
	t.order = kept
}

func (t *RuleTable) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Start: %s\n", t.start)
	for _, nt := range t.NonTerminals() {
		fmt.Fprintf(&sb, "%s\n", nt)
		for _, p := range t.Productions(nt) {
			args := make([]string, len(p.Args))
			for i, a := range p.Args {
				args[i] = a.String()
			}
			fmt.Fprintf(&sb, "   %s: [%s]\n", p.Program, strings.Join(args, ", "))
		}
	}
	return sb.String()
}

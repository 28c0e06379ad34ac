/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: analysis.go
Description: Queries and pruning over a built rule table: depth, exact program
count and cleaning (productivity then reachability). Every operation is total,
including on an empty table.
*/

package grammar

import (
	"math/big"
	"sort"
)

// MaxDepth returns one plus the largest depth of a non-terminal, 0 when empty
func (t *RuleTable) MaxDepth() int {
	if len(t.rules) == 0 {
		return 0
	}
	deepest := 0
	for k := range t.rules {
		deepest = max(deepest, k.Depth)
	}
	return deepest + 1
}

// byDepthDesc returns the keys ordered by decreasing depth, discovery order within a depth
func (t *RuleTable) byDepthDesc() []Key {
	keys := make([]Key, len(t.order))
	copy(keys, t.order)
	sort.SliceStable(keys, func(i, j int) bool { return keys[i].Depth > keys[j].Depth })
	return keys
}

// Size returns the exact number of programs derivable from the start symbol.
// Children always sit one level deeper than their parent so a single pass in
// decreasing depth order sees every child count before it is needed.
func (t *RuleTable) Size() *big.Int {
	counts := make(map[Key]*big.Int, len(t.rules))
	for _, k := range t.byDepthDesc() {
		total := new(big.Int)
		for _, p := range t.rules[k].Productions {
			prod := big.NewInt(1)
			for _, arg := range p.Args {
				c, ok := counts[arg.Key()]
				if !ok {
					prod.SetInt64(0)
					break
				}
				prod.Mul(prod, c)
			}
			total.Add(total, prod)
		}
		counts[k] = total
	}

	if c, ok := counts[t.start.Key()]; ok {
		return c
	}
	return new(big.Int)
}

// Clean removes unproductive productions and non-terminals, then everything not
// reachable from the start symbol
func (t *RuleTable) Clean() {
	t.removeNonProductive()
	t.removeUnreachable()
}

func (t *RuleTable) removeNonProductive() {
	productive := make(map[Key]bool, len(t.rules))
	for _, k := range t.byDepthDesc() {
		rule := t.rules[k]
		rule.retain(func(p Production) bool {
			for _, arg := range p.Args {
				if !productive[arg.Key()] {
					return false
				}
			}
			return true
		})
		if len(rule.Productions) > 0 {
			productive[k] = true
		}
	}
	t.removeIf(func(k Key) bool { return !productive[k] })
}

func (t *RuleTable) removeUnreachable() {
	startKey := t.start.Key()
	if _, ok := t.rules[startKey]; !ok {
		t.removeIf(func(Key) bool { return true })
		return
	}

	reachable := map[Key]bool{startKey: true}
	frontier := []Key{startKey}
	for i := 0; i < t.MaxDepth() && len(frontier) > 0; i++ {
		var next []Key
		for _, k := range frontier {
			rule, ok := t.rules[k]
			if !ok {
				continue
			}
			for _, p := range rule.Productions {
				for _, arg := range p.Args {
					ak := arg.Key()
					if !reachable[ak] {
						reachable[ak] = true
						next = append(next, ak)
					}
				}
			}
		}
		frontier = next
	}

	t.removeIf(func(k Key) bool { return !reachable[k] })
}

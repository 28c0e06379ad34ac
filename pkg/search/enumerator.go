/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: enumerator.go
Description: Enumeration strategy selection by name, as used by the command line.
*/

package search

import (
	"fmt"
	"sort"

	"github.com/kleascm/akaylee-synth/pkg/grammar"
)

// Strategy names
const (
	StrategyHeap   = "heap_search"
	StrategyBucket = "bucket_search"
)

// Factory creates an enumerator over a probabilistic grammar
type Factory func(g *grammar.ProbGrammar) Enumerator

// Strategies lists the available strategy names
func Strategies() []string {
	names := []string{StrategyHeap, StrategyBucket}
	sort.Strings(names)
	return names
}

// NewFactory returns the factory for a strategy name
func NewFactory(name string, bucketSize int) (Factory, error) {
	switch name {
	case StrategyHeap, "":
		return NewHeapSearch, nil
	case StrategyBucket:
		return func(g *grammar.ProbGrammar) Enumerator { return NewBucketSearch(g, bucketSize) }, nil
	default:
		return nil, fmt.Errorf("unknown search strategy %q (available: %v)", name, Strategies())
	}
}

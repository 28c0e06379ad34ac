/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: bucket.go
Description: Bucketed enumeration. Production probabilities are quantized into a
fixed number of linearly spaced buckets and a program is ranked by how many of
its productions fall into each bucket. Cheaper to compare than exact products and
tolerant to small probability differences.
*/

package search

import (
	"fmt"
	"strings"

	"github.com/kleascm/akaylee-synth/pkg/grammar"
)

// Bucket counts productions per probability bucket; index 0 holds the most likely
type Bucket []int

// add counts probability p in its bucket
func (b Bucket) add(p float64) {
	size := len(b)
	index := size - int(p*float64(size)) - 1
	index = min(max(index, 0), size-1)
	b[index]++
}

// Less reports whether b should be enumerated before o: comparing from the
// least likely bucket upward, fewer unlikely productions come first
func (b Bucket) Less(o Bucket) bool {
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] != o[i] {
			return b[i] < o[i]
		}
	}
	return false
}

func (b Bucket) String() string {
	parts := make([]string, len(b))
	for i, n := range b {
		parts[i] = fmt.Sprint(n)
	}
	return "(" + strings.Join(parts, ",") + ")"
}

type bucketRanking struct {
	size int
}

func (r bucketRanking) leaf(p float64) Bucket {
	b := make(Bucket, r.size)
	b.add(p)
	return b
}

func (r bucketRanking) combine(p float64, children []Bucket) Bucket {
	b := r.leaf(p)
	for _, c := range children {
		for i := range b {
			b[i] += c[i]
		}
	}
	return b
}

func (bucketRanking) before(a, b Bucket) bool { return a.Less(b) }

// NewBucketSearch enumerates g by bucketed priority using size buckets
func NewBucketSearch(g *grammar.ProbGrammar, size int) Enumerator {
	if size <= 0 {
		size = 1
	}
	return newHeapEnumerator[Bucket](g, bucketRanking{size: size})
}

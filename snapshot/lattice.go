// Copyright 2020 Nathan Taylor (nbtaylor@gmail.com)
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package snapshot

import (
	"fmt"
	"math/bits"

	"github.com/dijkstracula/todc/word"
)

// ErrInvalidSnapshotConfig is the construction-time error for a snapshot
// whose parameters are self-contradictory, such as a lattice snapshot
// whose shot count is not a power of two.
var ErrInvalidSnapshotConfig = fmt.Errorf("snapshot: invalid configuration")

// latticeComponent is the per-process record backing a LatticeSnapshot:
// value is the last value written by the owning process, sequence strictly
// increases on every write, and counter counts how many updates the owning
// process has performed.
type latticeComponent[T any] struct {
	value    T
	sequence uint32
	counter  uint32
}

// latticeView is a read of every component of a lattice snapshot at once.
type latticeView[T any] struct {
	components []latticeComponent[T]
}

// size is the amount of knowledge a view represents: the total number of
// updates, across all processes, reflected in it.
func (v latticeView[T]) size() uint32 {
	var total uint32
	for _, c := range v.components {
		total += c.counter
	}
	return total
}

func (v latticeView[T]) values() []T {
	out := make([]T, len(v.components))
	for i, c := range v.components {
		out[i] = c.value
	}
	return out
}

// unionMany returns the componentwise join of a set of views: for each
// component index, the component with the greatest sequence number among
// the inputs wins.
func unionMany[T any](views []latticeView[T]) latticeView[T] {
	n := len(views[0].components)
	out := make([]latticeComponent[T], n)
	for i := 0; i < n; i++ {
		best := views[0].components[i]
		for _, v := range views[1:] {
			if v.components[i].sequence > best.sequence {
				best = v.components[i]
			}
		}
		out[i] = best
	}
	return latticeView[T]{components: out}
}

// classification is the outcome of presenting a view to a classifier node:
// either the caller's knowledge is at or below the node's threshold
// (Secondary, and the caller's own view is unchanged), or it is above it
// (Primary, with the union of every process's view at this node).
type classification[T any] struct {
	primary bool
	union   latticeView[T]
}

// classifier realises one node of the classifier tree: N shared view cells,
// one per process, used to decide whether a caller has "enough" knowledge
// to be classified Primary at this node.
type classifier[T any] struct {
	n         int
	registers []word.Register[latticeView[T]]
}

func newClassifier[T any](n int) *classifier[T] {
	registers := make([]word.Register[latticeView[T]], n)
	for i := range registers {
		r := word.NewMutexRegister[latticeView[T]]()
		r.Store(latticeView[T]{components: make([]latticeComponent[T], n)})
		registers[i] = r
	}
	return &classifier[T]{n: n, registers: registers}
}

func (c *classifier[T]) collect() []latticeView[T] {
	out := make([]latticeView[T], c.n)
	for i := range out {
		out[i] = c.registers[i].Load()
	}
	return out
}

// classify deposits the caller's view into this node and classifies it
// against knowledgeBound.
func (c *classifier[T]) classify(i int, knowledgeBound uint32, view latticeView[T]) classification[T] {
	c.registers[i].Store(view)
	union := unionMany(c.collect())
	if union.size() > knowledgeBound {
		return classification[T]{primary: true, union: union}
	}
	return classification[T]{primary: false}
}

// classifierTree is a complete binary tree of classifiers, built once at
// construction. level is the height of the subtree rooted at this node (a
// leaf has level 1), matching the original construction's labelling so
// that the M/2^(level+1) arithmetic in traverse lines up exactly.
type classifierTree[T any] struct {
	classifier  *classifier[T]
	left, right *classifierTree[T]
	level       int
}

func newClassifierTree[T any](height, n int) *classifierTree[T] {
	if height <= 1 {
		return &classifierTree[T]{classifier: newClassifier[T](n), level: 1}
	}
	return &classifierTree[T]{
		classifier: newClassifier[T](n),
		left:       newClassifierTree[T](height-1, n),
		right:      newClassifierTree[T](height-1, n),
		level:      height,
	}
}

func (t *classifierTree[T]) isLeaf() bool { return t.left == nil }

// traverse walks from node towards a leaf, returning the values the caller
// should observe for this operation.
func traverse[T any](i int, node *classifierTree[T], view latticeView[T], label uint32, m uint32) []T {
	result := node.classifier.classify(i, label, view)
	if node.isLeaf() {
		if result.primary {
			return result.union.values()
		}
		return view.values()
	}
	if result.primary {
		newLabel := label + m/(uint32(1)<<(node.right.level+1))
		return traverse(i, node.right, result.union, newLabel, m)
	}
	newLabel := label - m/(uint32(1)<<(node.left.level+1))
	return traverse(i, node.left, view, newLabel, m)
}

// LatticeSnapshot is an N-process, M-shot snapshot object following AR'98:
// scan and update cost O(log2(M)) classifier visits rather than the
// unbounded number of double collects that UnboundedSnapshot and
// BoundedSnapshot may require. M bounds the total number of operations,
// across every process, that this instance can ever service.
type LatticeSnapshot[T any] struct {
	n          int
	m          uint32
	components []word.Register[latticeComponent[T]]
	root       *classifierTree[T]
}

// NewLatticeSnapshot returns an N-process snapshot good for at most m total
// operations across all processes. Panics if m is not a power of two, per
// the construction's requirement of a complete binary tree of height
// log2(m); values of m below 2 are rejected for the same reason (a tree of
// height zero has no leaf to terminate a traversal at).
func NewLatticeSnapshot[T any](n int, m uint32) *LatticeSnapshot[T] {
	if m < 2 || bits.OnesCount32(m) != 1 {
		panic(fmt.Errorf("%w: lattice snapshot shot count must be a power of two >= 2, got %d",
			ErrInvalidSnapshotConfig, m))
	}
	height := bits.TrailingZeros32(m)
	components := make([]word.Register[latticeComponent[T]], n)
	for i := range components {
		components[i] = word.NewMutexRegister[latticeComponent[T]]()
	}
	return &LatticeSnapshot[T]{
		n:          n,
		m:          m,
		components: components,
		root:       newClassifierTree[T](height, n),
	}
}

func (s *LatticeSnapshot[T]) collect() latticeView[T] {
	components := make([]latticeComponent[T], s.n)
	for i := range components {
		components[i] = s.components[i].Load()
	}
	return latticeView[T]{components: components}
}

// scate ("scan+update") is the shared inner routine for Scan and Update: it
// records process i's value, then traverses the classifier tree to return a
// view consistent with every operation the tree has recorded so far.
func (s *LatticeSnapshot[T]) scate(i int, value T) []T {
	prev := s.components[i].Load()
	s.components[i].Store(latticeComponent[T]{
		value:    value,
		sequence: prev.sequence + 1,
		counter:  prev.counter + 1,
	})
	return traverse(i, s.root, s.collect(), s.m, s.m)
}

// Scan returns the value of every component, as of some single instant
// consistent with the M-shot bound this snapshot was constructed with.
func (s *LatticeSnapshot[T]) Scan(pid int) []T {
	return s.scate(pid, s.components[pid].Load().value)
}

// Update sets pid's component to value. pid must be the component's owning
// process; no other process may call Update(pid, ...).
func (s *LatticeSnapshot[T]) Update(pid int, value T) {
	s.scate(pid, value)
}

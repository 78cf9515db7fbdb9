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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLatticeSnapshotReadsAndWrites(t *testing.T) {
	s := NewLatticeSnapshot[int](3, 8)
	assert.Equal(t, []int{0, 0, 0}, s.Scan(0))

	s.Update(1, 1)
	s.Update(2, 2)
	assert.Equal(t, []int{0, 1, 2}, s.Scan(0))

	s.Update(0, 10)
	assert.Equal(t, []int{10, 1, 2}, s.Scan(0))
}

func TestLatticeSnapshotPanicsOnNonPowerOfTwo(t *testing.T) {
	assert.Panics(t, func() {
		NewLatticeSnapshot[int](3, 6)
	})
}

func TestLatticeSnapshotPanicsOnShotCountBelowTwo(t *testing.T) {
	assert.Panics(t, func() {
		NewLatticeSnapshot[int](3, 1)
	})
	assert.Panics(t, func() {
		NewLatticeSnapshot[int](3, 0)
	})
}

func TestLatticeSnapshotAllowsPowerOfTwoShotCounts(t *testing.T) {
	assert.NotPanics(t, func() {
		NewLatticeSnapshot[int](4, 16)
	})
	assert.NotPanics(t, func() {
		NewLatticeSnapshot[int](4, 2)
	})
}

// The M-shot bound limits the total number of Scan+Update calls, across all
// processes, that the object is built to service; this test stays well
// within it.
func TestLatticeSnapshotStaysWithinShotBudget(t *testing.T) {
	s := NewLatticeSnapshot[int](2, 4)
	s.Update(0, 1)
	s.Update(1, 2)
	got := s.Scan(0)
	assert.Equal(t, []int{1, 2}, got)
}

func TestLatticeViewUnionPicksHighestSequence(t *testing.T) {
	a := latticeView[int]{components: []latticeComponent[int]{
		{value: 1, sequence: 1},
		{value: 2, sequence: 5},
	}}
	b := latticeView[int]{components: []latticeComponent[int]{
		{value: 10, sequence: 3},
		{value: 20, sequence: 2},
	}}
	union := unionMany([]latticeView[int]{a, b})
	assert.Equal(t, []int{10, 2}, union.values())
}

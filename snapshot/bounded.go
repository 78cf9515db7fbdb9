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
	"sync/atomic"

	"github.com/dijkstracula/todc/word"
)

// boundedComponent is the per-process record backing a BoundedSnapshot: the
// value last written by the owning process i, the view i observed while
// writing it, the handshake bits i presents to every other process, and a
// toggle bit that flips on every write.
type boundedComponent[T any] struct {
	value  T
	view   []T
	p      []bool
	toggle bool
}

// BoundedSnapshot is a wait-free N-component snapshot object following
// AAD+'93 section 4: like UnboundedSnapshot, but replacing the unbounded
// per-process sequence number with a constant amount of handshake state per
// pair of processes. Construct one with NewBoundedMutexSnapshot for any
// value type, or NewBoundedAtomicSnapshot for a lock-free byte-valued
// snapshot of six or fewer components.
type BoundedSnapshot[T any] struct {
	n          int
	registers  []word.Register[boundedComponent[T]]
	handshakes []atomic.Bool // Q[i][j] lives at handshakes[i*n+j]; owned by the snapshot, not by any one component.
}

func (s *BoundedSnapshot[T]) handshakeIndex(i, j int) int { return i*s.n + j }

func (s *BoundedSnapshot[T]) loadHandshake(i, j int) bool {
	return s.handshakes[s.handshakeIndex(i, j)].Load()
}

func (s *BoundedSnapshot[T]) storeHandshake(i, j int, v bool) {
	s.handshakes[s.handshakeIndex(i, j)].Store(v)
}

// NewBoundedMutexSnapshot returns an N-component snapshot backed by
// mutex-guarded registers. Works for any T and any N; not lock-free.
func NewBoundedMutexSnapshot[T any](n int) *BoundedSnapshot[T] {
	registers := make([]word.Register[boundedComponent[T]], n)
	for i := range registers {
		r := word.NewMutexRegister[boundedComponent[T]]()
		r.Store(boundedComponent[T]{
			view: make([]T, n),
			p:    make([]bool, n),
		})
		registers[i] = r
	}
	return &BoundedSnapshot[T]{
		n:          n,
		registers:  registers,
		handshakes: make([]atomic.Bool, n*n),
	}
}

// maxBoundedAtomicComponents is the largest N for which a byte value, an
// N-byte view, N handshake bits, and a toggle bit fit in a 64-bit word
// (8 + 8*6 + 6 + 1 == 63).
const maxBoundedAtomicComponents = 6

// NewBoundedAtomicSnapshot returns a lock-free N-component snapshot of byte
// values, backed directly by atomic words. Panics if n exceeds
// maxBoundedAtomicComponents; construct a NewBoundedMutexSnapshot instead
// for larger N or non-byte values.
func NewBoundedAtomicSnapshot(n int) *BoundedSnapshot[byte] {
	if n > maxBoundedAtomicComponents {
		panic(fmt.Errorf("%w: bounded atomic snapshot supports at most %d components, got %d",
			word.ErrEncodingOverflow, maxBoundedAtomicComponents, n))
	}
	registers := make([]word.Register[boundedComponent[byte]], n)
	bits := 8 + 8*n + n + 1
	for i := range registers {
		registers[i] = word.NewEncoded(bits, encodeBoundedByte(n), decodeBoundedByte(n))
	}
	return &BoundedSnapshot[byte]{
		n:          n,
		registers:  registers,
		handshakes: make([]atomic.Bool, n*n),
	}
}

func encodeBoundedByte(n int) func(boundedComponent[byte]) uint64 {
	return func(c boundedComponent[byte]) uint64 {
		var w uint64
		w |= uint64(c.value)
		offset := 8
		for i := 0; i < n && i < len(c.view); i++ {
			w |= uint64(c.view[i]) << (offset + 8*i)
		}
		offset += 8 * n
		for i := 0; i < n && i < len(c.p); i++ {
			if c.p[i] {
				w |= 1 << (offset + i)
			}
		}
		offset += n
		if c.toggle {
			w |= 1 << offset
		}
		return w
	}
}

func decodeBoundedByte(n int) func(uint64) boundedComponent[byte] {
	return func(w uint64) boundedComponent[byte] {
		view := make([]byte, n)
		offset := 8
		for i := 0; i < n; i++ {
			view[i] = byte(w >> (offset + 8*i))
		}
		offset += 8 * n
		p := make([]bool, n)
		for i := 0; i < n; i++ {
			p[i] = (w>>(offset+i))&1 == 1
		}
		offset += n
		toggle := (w>>offset)&1 == 1
		return boundedComponent[byte]{
			value:  byte(w),
			view:   view,
			p:      p,
			toggle: toggle,
		}
	}
}

func (s *BoundedSnapshot[T]) collect() []boundedComponent[T] {
	out := make([]boundedComponent[T], s.n)
	for j := range out {
		out[j] = s.registers[j].Load()
	}
	return out
}

// hasMoved reports whether process j is observed to have performed an
// update between the two collects, from i's perspective: either of the two
// collects disagrees with what i last echoed into Q[i][j], or j's toggle
// bit flipped across the two collects.
func (s *BoundedSnapshot[T]) hasMoved(first, second []boundedComponent[T], i, j int) bool {
	q := s.loadHandshake(i, j)
	firstChanged := first[j].p[i] != q
	secondChanged := second[j].p[i] != q
	toggleChanged := first[j].toggle != second[j].toggle
	return firstChanged || secondChanged || toggleChanged
}

// Scan returns the value of every component, as of some single instant
// consistent with every update that completed before this call and every
// update that started after it returned.
func (s *BoundedSnapshot[T]) Scan(pid int) []T {
	return s.scan(pid)
}

func (s *BoundedSnapshot[T]) scan(i int) []T {
	moved := make([]int, s.n)
	for {
		for j := 0; j < s.n; j++ {
			bit := s.registers[j].Load().p[i]
			s.storeHandshake(i, j, bit)
		}
		first := s.collect()
		second := s.collect()

		anyMoved := false
		for j := 0; j < s.n; j++ {
			if s.hasMoved(first, second, i, j) {
				anyMoved = true
			}
		}
		if !anyMoved {
			values := make([]T, s.n)
			for j := range second {
				values[j] = second[j].value
			}
			return values
		}

		for j := 0; j < s.n; j++ {
			if s.hasMoved(first, second, i, j) {
				if moved[j] == 1 {
					borrowed := make([]T, len(second[j].view))
					copy(borrowed, second[j].view)
					return borrowed
				}
				moved[j] = 1
			}
		}
	}
}

// Update sets pid's component to value. pid must be the component's owning
// process; no other process may call Update(pid, ...).
func (s *BoundedSnapshot[T]) Update(pid int, value T) {
	view := s.scan(pid)
	toggle := !s.registers[pid].Load().toggle

	p := make([]bool, s.n)
	for j := 0; j < s.n; j++ {
		p[j] = !s.loadHandshake(j, pid)
	}

	s.registers[pid].Store(boundedComponent[T]{
		value:  value,
		view:   view,
		p:      p,
		toggle: toggle,
	})
}

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

	"github.com/dijkstracula/todc/word"
)

// unboundedComponent is the per-process record backing an UnboundedSnapshot:
// the value last written by the owning process, a strictly-increasing
// sequence number, and the view that process observed at the moment it
// wrote value.
type unboundedComponent[T any] struct {
	value    T
	sequence uint64
	view     []T
}

// UnboundedSnapshot is a wait-free N-component snapshot object following
// AAD+'93 section 3. Construct one with NewUnboundedMutexSnapshot for any
// value type, or NewUnboundedAtomicSnapshot for a lock-free byte-valued
// snapshot of five or fewer components.
type UnboundedSnapshot[T any] struct {
	n         int
	registers []word.Register[unboundedComponent[T]]
}

// NewUnboundedMutexSnapshot returns an N-component snapshot backed by
// mutex-guarded registers. Works for any T and any N; not lock-free.
func NewUnboundedMutexSnapshot[T any](n int) *UnboundedSnapshot[T] {
	registers := make([]word.Register[unboundedComponent[T]], n)
	for i := range registers {
		registers[i] = word.NewMutexRegister[unboundedComponent[T]]()
	}
	return &UnboundedSnapshot[T]{n: n, registers: registers}
}

// maxUnboundedAtomicComponents is the largest N for which a byte value, an
// N-byte view, and a 16-bit sequence number fit in a 64-bit word
// (8 + 8*5 + 16 == 64).
const maxUnboundedAtomicComponents = 5

// NewUnboundedAtomicSnapshot returns a lock-free N-component snapshot of
// byte values, backed directly by atomic words. Panics if n exceeds
// maxUnboundedAtomicComponents; construct a NewUnboundedMutexSnapshot
// instead for larger N or non-byte values.
func NewUnboundedAtomicSnapshot(n int) *UnboundedSnapshot[byte] {
	if n > maxUnboundedAtomicComponents {
		panic(fmt.Errorf("%w: unbounded atomic snapshot supports at most %d components, got %d",
			word.ErrEncodingOverflow, maxUnboundedAtomicComponents, n))
	}
	registers := make([]word.Register[unboundedComponent[byte]], n)
	bits := 8 + 8*n + 16
	for i := range registers {
		registers[i] = word.NewEncoded(bits, encodeUnboundedByte(n), decodeUnboundedByte(n))
	}
	return &UnboundedSnapshot[byte]{n: n, registers: registers}
}

func encodeUnboundedByte(n int) func(unboundedComponent[byte]) uint64 {
	return func(c unboundedComponent[byte]) uint64 {
		var w uint64
		w |= uint64(c.value)
		for i := 0; i < n && i < len(c.view); i++ {
			w |= uint64(c.view[i]) << (8 + 8*i)
		}
		w |= (c.sequence & 0xffff) << (8 + 8*n)
		return w
	}
}

func decodeUnboundedByte(n int) func(uint64) unboundedComponent[byte] {
	return func(w uint64) unboundedComponent[byte] {
		view := make([]byte, n)
		for i := 0; i < n; i++ {
			view[i] = byte(w >> (8 + 8*i))
		}
		return unboundedComponent[byte]{
			value:    byte(w),
			sequence: (w >> (8 + 8*n)) & 0xffff,
			view:     view,
		}
	}
}

func (s *UnboundedSnapshot[T]) collect() []unboundedComponent[T] {
	out := make([]unboundedComponent[T], s.n)
	for j := range out {
		out[j] = s.registers[j].Load()
	}
	return out
}

// Scan returns the value of every component, as of some single instant
// consistent with every update that completed before this call and every
// update that started after it returned.
func (s *UnboundedSnapshot[T]) Scan(pid int) []T {
	return s.scan(pid)
}

func (s *UnboundedSnapshot[T]) scan(pid int) []T {
	moved := make([]int, s.n)
	for {
		first := s.collect()
		second := s.collect()

		allStill := true
		for j := 0; j < s.n; j++ {
			if first[j].sequence != second[j].sequence {
				allStill = false
				if moved[j] == 1 {
					// j has moved twice during this scan: it must have
					// completed an update, and the view it recorded while
					// doing so can be borrowed instead of looping further.
					borrowed := make([]T, len(second[j].view))
					copy(borrowed, second[j].view)
					return borrowed
				}
				moved[j] = 1
			}
		}
		if allStill {
			values := make([]T, s.n)
			for j := range second {
				values[j] = second[j].value
			}
			return values
		}
	}
}

// Update sets pid's component to value. pid must be the component's owning
// process; no other process may call Update(pid, ...).
func (s *UnboundedSnapshot[T]) Update(pid int, value T) {
	view := s.scan(pid)
	prev := s.registers[pid].Load()
	s.registers[pid].Store(unboundedComponent[T]{
		value:    value,
		sequence: prev.sequence + 1,
		view:     view,
	})
}

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

// Package word implements the atomic word primitive that every snapshot
// construction in this repository is built on top of: a single 64-bit cell
// that can be loaded and stored under sequential consistency.
//
// A bare word is not very interesting on its own. What makes it useful is
// Register[T], which wraps a word with a pair of total functions encoding a
// caller's type T into the 64 bits of the word and back out again:
//
//	|63                                                    0|
//	 \                      encode(T) -> word               /
//
// Callers own the bit layout; this package only owns the load/store.
// Implementations must document which (T, N) combinations overflow 64 bits
// -- see package snapshot for the N-component layouts that do this -- and
// must fall back to MutexRegister when they do. A register that silently
// truncated its encoding would be a correctness bug, not a performance one.
package word

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// MaxBits is the capacity of the underlying atomic cell.
const MaxBits = 64

// ErrEncodingOverflow is the error a constructor panics with (wrapped with
// the offending size) when a caller asks for an atomic-backed register whose
// encoding cannot fit in the word.
var ErrEncodingOverflow = fmt.Errorf("word: encoding exceeds %d-bit word capacity", MaxBits)

// Register is a single-cell store of one value of type T. Load and Store are
// both sequentially consistent: every Load returns some previously Stored
// value, or the zero value if there has been no preceding Store.
type Register[T any] interface {
	Load() T
	Store(T)
}

// AtomicRegister is a Register backed directly by a hardware atomic word.
// It is lock-free: Load and Store are each a single atomic operation on the
// underlying uint64, with no CAS loop and no possibility of blocking.
type AtomicRegister[T any] struct {
	cell   atomic.Uint64
	encode func(T) uint64
	decode func(uint64) T
}

// NewAtomicRegister builds an AtomicRegister given the encode/decode pair
// for T. The pair must be mutually inverse; any information lost between
// encode and decode is a correctness bug in the caller, not something this
// package can detect.
func NewAtomicRegister[T any](encode func(T) uint64, decode func(uint64) T) *AtomicRegister[T] {
	return &AtomicRegister[T]{encode: encode, decode: decode}
}

// NewEncoded is like NewAtomicRegister, but additionally takes the number of
// bits the caller's encoding actually uses, and panics with
// ErrEncodingOverflow if that exceeds the word's capacity. Use this
// constructor (rather than NewAtomicRegister directly) whenever the bit
// width depends on a construction-time parameter, such as a snapshot's
// component count N, so that the overflow is caught at construction instead
// of silently truncating in the field.
func NewEncoded[T any](bits int, encode func(T) uint64, decode func(uint64) T) *AtomicRegister[T] {
	if bits > MaxBits {
		panic(fmt.Errorf("%w: encoding requires %d bits", ErrEncodingOverflow, bits))
	}
	return NewAtomicRegister(encode, decode)
}

// Load returns the most recently Stored value, or the zero value of T if
// Store has never been called.
func (r *AtomicRegister[T]) Load() T {
	return r.decode(r.cell.Load())
}

// Store sets the register's value.
func (r *AtomicRegister[T]) Store(v T) {
	r.cell.Store(r.encode(v))
}

// MutexRegister is a Register backed by a plain mutex. It is the fallback
// for any T whose encoding would not fit in a 64-bit word: no longer
// lock-free, but still linearizable, and with the same two-operation
// interface as AtomicRegister so that callers (see package snapshot) can
// select a backing store without changing their algorithm.
type MutexRegister[T any] struct {
	mu    sync.Mutex
	value T
}

// NewMutexRegister returns a MutexRegister holding the zero value of T.
func NewMutexRegister[T any]() *MutexRegister[T] {
	return &MutexRegister[T]{}
}

// Load returns the current value.
func (r *MutexRegister[T]) Load() T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value
}

// Store sets the current value.
func (r *MutexRegister[T]) Store(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.value = v
}

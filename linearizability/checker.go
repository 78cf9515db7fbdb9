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

package linearizability

import (
	"fmt"
	"strings"
)

// Specification describes how operations performed against a shared object
// affect its sequential state.
//
// State and Operation are carried as interface{} rather than as a type
// parameter: some specifications (a snapshot object's State, for instance)
// are naturally slices, which Go does not allow as map/comparable keys, so
// the checker's memoization cache keys on a string encoding of State rather
// than on State itself. This mirrors the design of the Go linearizability
// checker Porcupine (https://github.com/anishathalye/porcupine), which the
// original literature this package is based on cites directly as the
// reference Go implementation.
type Specification interface {
	// Init returns the initial state of the object.
	Init() any

	// Apply returns whether op is a valid operation to perform against
	// state, and the state that results from applying it. If the
	// operation is not valid, the returned state must equal the input
	// state unchanged.
	Apply(op any, state any) (bool, any)
}

// Checker decides whether histories of a particular operation type are
// linearizable with respect to a Specification.
type Checker[T any] struct {
	spec Specification
}

// NewChecker returns a Checker that validates histories against spec.
func NewChecker[T any](spec Specification) *Checker[T] {
	return &Checker[T]{spec: spec}
}

type liftedCall[T any] struct {
	call     Entry[T]
	response Entry[T]
	state    any
}

// IsLinearizable reports whether history could have occurred as some
// sequential execution of its operations, consistent with the real-time
// order in which each operation was called and responded to.
//
// The supplied history is consumed: its entries are repeatedly lifted out
// and restored as the search backtracks. It is left empty when the result is
// true; when the result is false, every entry is back at its original index.
func (c *Checker[T]) IsLinearizable(history *History[T]) bool {
	state := c.spec.Init()
	linearized := make([]bool, history.Len())
	var calls []liftedCall[T]
	cache := make(map[string]struct{})
	curr := 0

	for {
		if history.IsEmpty() {
			return true
		}

		entry := history.At(curr)
		switch entry.Kind {
		case Call:
			respEntry := history.At(history.indexOfID(entry.Response))
			if respEntry.Kind != Response {
				panic("linearizability: response cannot be a call entry")
			}

			isValid, newState := c.spec.Apply(respEntry.Operation, state)
			changed := false
			if isValid {
				tmpLinearized := make([]bool, len(linearized))
				copy(tmpLinearized, linearized)
				tmpLinearized[entry.ID] = true

				key := cacheKey(tmpLinearized, newState)
				if _, seen := cache[key]; !seen {
					cache[key] = struct{}{}
					changed = true
				}
			}

			if changed {
				linearized[entry.ID] = true
				call, response := history.lift(curr)
				calls = append(calls, liftedCall[T]{call: call, response: response, state: state})
				state = newState
				curr = 0
			} else {
				curr++
			}

		case Response:
			if len(calls) == 0 {
				return false
			}
			frame := calls[len(calls)-1]
			calls = calls[:len(calls)-1]

			state = frame.state
			linearized[frame.call.ID] = false
			callIndex, _ := history.unlift(frame.call, frame.response)
			curr = callIndex + 1
		}
	}
}

// cacheKey encodes a memoization entry as a string: the set of
// already-linearized operations, as a bitstring, followed by the resulting
// state's Go-syntax (%#v) formatting. Specification.State values must not embed
// pointers, or distinct states may collide under this encoding.
func cacheKey(linearized []bool, state any) string {
	var b strings.Builder
	b.Grow(len(linearized) + 8)
	for _, v := range linearized {
		if v {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	b.WriteByte('|')
	fmt.Fprintf(&b, "%#v", state)
	return b.String()
}

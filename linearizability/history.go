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

// Package linearizability checks whether a history of operations performed
// against a shared object could have occurred atomically, one at a time, in
// an order consistent with each operation's real-time call and response.
//
// A History is a flat, chronologically-ordered sequence of Call and Response
// entries, one pair per operation, possibly interleaved with the entries of
// concurrent operations performed by other processes:
//
//	P0 |--------|            Write("Hello, World!")
//	P1            |--------| Read("Hello, World!")
//
// Checker implements the algorithm of Wing and Gong, extended by Lowe, in
// the formulation given by Horn and Kroening: each operation is linearized
// as soon as possible, backtracking to the most recently linearized
// operation whenever no further operation can be applied, with memoization
// of (which-operations-are-linearized, resulting-state) pairs to avoid
// repeating work the search has already ruled out.
package linearizability

import "fmt"

// EntryID identifies an Entry within a History. IDs are assigned once, at
// construction, and an entry keeps its ID even as it is lifted out of and
// restored into the history during the search.
type EntryID int

// ProcessID identifies the process that performed an operation.
type ProcessID int

// ActionKind distinguishes the call from the response half of an operation.
type ActionKind int

const (
	// Call marks the beginning of an operation.
	Call ActionKind = iota
	// Response marks the end of an operation.
	Response
)

// ActionRecord is one line of an operation's invocation or completion, as
// supplied to FromActions.
type ActionRecord[T any] struct {
	Process   ProcessID
	Kind      ActionKind
	Operation T
}

// Entry is either half of an operation appearing in a History: the ID is
// stable across the entry's lifetime, even while it is lifted out of the
// history during the search. Response is only meaningful when Kind is Call,
// and names the EntryID of the matching Response entry.
type Entry[T any] struct {
	Kind      ActionKind
	ID        EntryID
	Operation T
	Response  EntryID
}

// ErrIncompleteHistory is returned by FromActions when some process's Call
// has no matching Response, or vice versa.
var ErrIncompleteHistory = fmt.Errorf("linearizability: incomplete history")

// History is a sequence of Call/Response entries recording the operations
// performed against a shared object, in the order those operations were
// invoked and completed in real time.
type History[T any] struct {
	entries []Entry[T]
	// removedFrom[id] holds the index an entry was last removed from, or -1
	// if the entry with that ID is currently present in entries.
	removedFrom []int
}

// FromActions builds a History by pairing each process's Calls with that
// process's Responses, in the order each occurs in actions. Panics if
// actions is empty. Returns ErrIncompleteHistory if any process has a Call
// without a corresponding Response.
func FromActions[T any](actions []ActionRecord[T]) (*History[T], error) {
	if len(actions) == 0 {
		panic("linearizability: history must not be empty")
	}

	numProcesses := 0
	for _, a := range actions {
		if int(a.Process) > numProcesses {
			numProcesses = int(a.Process)
		}
	}

	responsesByProcess := make([][]int, numProcesses+1)
	for i, a := range actions {
		if a.Kind == Response {
			responsesByProcess[a.Process] = append(responsesByProcess[a.Process], i)
		}
	}
	responseCursor := make([]int, numProcesses+1)

	entries := make([]Entry[T], len(actions))
	for i, a := range actions {
		switch a.Kind {
		case Call:
			queue := responsesByProcess[a.Process]
			cursor := responseCursor[a.Process]
			if cursor >= len(queue) {
				return nil, fmt.Errorf("%w: process %d has a call with no matching response",
					ErrIncompleteHistory, a.Process)
			}
			responseCursor[a.Process]++
			entries[i] = Entry[T]{Kind: Call, ID: EntryID(i), Operation: a.Operation, Response: EntryID(queue[cursor])}
		case Response:
			entries[i] = Entry[T]{Kind: Response, ID: EntryID(i), Operation: a.Operation}
		default:
			panic(fmt.Sprintf("linearizability: unknown action kind %d", a.Kind))
		}
	}

	for p := 0; p <= numProcesses; p++ {
		if responseCursor[p] != len(responsesByProcess[p]) {
			return nil, fmt.Errorf("%w: process %d has a response with no matching call",
				ErrIncompleteHistory, p)
		}
	}

	removedFrom := make([]int, len(actions))
	for i := range removedFrom {
		removedFrom[i] = -1
	}
	return &History[T]{entries: entries, removedFrom: removedFrom}, nil
}

// Len returns the number of entries currently present in the history.
func (h *History[T]) Len() int { return len(h.entries) }

// IsEmpty reports whether every entry has been lifted out of the history.
func (h *History[T]) IsEmpty() bool { return len(h.entries) == 0 }

// At returns the entry currently at position i.
func (h *History[T]) At(i int) Entry[T] { return h.entries[i] }

func (h *History[T]) indexOfID(id EntryID) int {
	for i, e := range h.entries {
		if e.ID == id {
			return i
		}
	}
	panic(fmt.Sprintf("linearizability: no entry with id %d is present", id))
}

func (h *History[T]) remove(i int) Entry[T] {
	e := h.entries[i]
	h.entries = append(h.entries[:i:i], h.entries[i+1:]...)
	h.removedFrom[e.ID] = i
	return e
}

func (h *History[T]) insert(e Entry[T]) int {
	i := h.removedFrom[e.ID]
	if i < 0 {
		panic(fmt.Sprintf("linearizability: entry %d was not previously removed from the history", e.ID))
	}
	h.removedFrom[e.ID] = -1
	h.entries = append(h.entries, Entry[T]{})
	copy(h.entries[i+1:], h.entries[i:])
	h.entries[i] = e
	return i
}

// lift removes a Call entry at position i, along with its matching Response
// entry, from the history. Panics if the entry at i is not a Call.
func (h *History[T]) lift(i int) (Entry[T], Entry[T]) {
	call := h.remove(i)
	if call.Kind != Call {
		panic("linearizability: cannot lift a response entry out of the history")
	}
	response := h.remove(h.indexOfID(call.Response))
	return call, response
}

// unlift is the inverse of lift: it restores a previously lifted Call and
// Response pair to the indices they were removed from, and returns the
// indices the Call and the Response were restored to, in that order.
func (h *History[T]) unlift(call, response Entry[T]) (int, int) {
	responseIndex := h.insert(response)
	callIndex := h.insert(call)
	return callIndex, responseIndex
}

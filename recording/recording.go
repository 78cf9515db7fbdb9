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

// Package recording wraps a shared object so that every operation performed
// against it is recorded as a timestamped call/response pair, suitable for
// feeding to linearizability.Checker once a test's concurrent load has
// finished.
package recording

import (
	"sort"
	"sync"
	"time"

	"github.com/dijkstracula/todc/linearizability"
)

// Record is one timestamped call or response recorded against a shared
// object under test.
type Record[T any] struct {
	Process   linearizability.ProcessID
	Kind      linearizability.ActionKind
	Operation T
	At        time.Time
}

// Log is a process-safe, append-only sequence of Records.
type Log[T any] struct {
	mu      sync.Mutex
	records []Record[T]
}

func (l *Log[T]) append(process linearizability.ProcessID, kind linearizability.ActionKind, op T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, Record[T]{Process: process, Kind: kind, Operation: op, At: time.Now()})
}

// Snapshot returns a copy of the records recorded so far, ordered by the
// time each was recorded; ties are broken by original insertion order.
func (l *Log[T]) Snapshot() []Record[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Record[T], len(l.records))
	copy(out, l.records)
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out
}

// History converts the log's current contents into a linearizability.History,
// sorted as Snapshot does.
func (l *Log[T]) History() (*linearizability.History[T], error) {
	records := l.Snapshot()
	actions := make([]linearizability.ActionRecord[T], len(records))
	for i, r := range records {
		actions[i] = linearizability.ActionRecord[T]{Process: r.Process, Kind: r.Kind, Operation: r.Operation}
	}
	return linearizability.FromActions(actions)
}

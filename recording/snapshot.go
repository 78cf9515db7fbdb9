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

package recording

import (
	"github.com/dijkstracula/todc/linearizability"
	"github.com/dijkstracula/todc/specifications"
)

// Snapshot is the subset of an N-component snapshot object's API that
// RecordingSnapshot wraps.
type Snapshot[T any] interface {
	Scan(pid int) []T
	Update(pid int, value T)
}

// RecordingSnapshot wraps a Snapshot, recording a Call/Response pair for
// every Scan and Update performed through it.
type RecordingSnapshot[T any] struct {
	snapshot Snapshot[T]
	log      Log[specifications.SnapshotOperation[T]]
}

// NewRecordingSnapshot wraps snapshot so that operations performed through
// the returned value are recorded.
func NewRecordingSnapshot[T any](snapshot Snapshot[T]) *RecordingSnapshot[T] {
	return &RecordingSnapshot[T]{snapshot: snapshot}
}

// Scan records a call, performs the scan, and records the response.
func (r *RecordingSnapshot[T]) Scan(pid int) []T {
	r.log.append(linearizability.ProcessID(pid), linearizability.Call, specifications.Scan[T](pid))
	view := r.snapshot.Scan(pid)
	r.log.append(linearizability.ProcessID(pid), linearizability.Response, specifications.ScanResult(pid, view))
	return view
}

// Update records a call, performs the update, and records the response.
func (r *RecordingSnapshot[T]) Update(pid int, value T) {
	r.log.append(linearizability.ProcessID(pid), linearizability.Call, specifications.Update(pid, value))
	r.snapshot.Update(pid, value)
	r.log.append(linearizability.ProcessID(pid), linearizability.Response, specifications.Update(pid, value))
}

// History returns a linearizability.History of every operation recorded so
// far, in the order each was recorded.
func (r *RecordingSnapshot[T]) History() (*linearizability.History[specifications.SnapshotOperation[T]], error) {
	return r.log.History()
}

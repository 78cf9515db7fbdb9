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

package specifications

// SnapshotOperationKind distinguishes a Scan from an Update.
type SnapshotOperationKind int

const (
	SnapshotScan SnapshotOperationKind = iota
	SnapshotUpdate
)

// SnapshotOperation is an operation performed against an N-component
// snapshot object holding values of type T. Known is false only for the
// call-side representation of a Scan whose result is not yet known.
type SnapshotOperation[T any] struct {
	Kind  SnapshotOperationKind
	PID   int
	Value T
	View  []T
	Known bool
}

// Scan returns the call-side representation of a scan whose result is not
// yet known.
func Scan[T any](pid int) SnapshotOperation[T] {
	return SnapshotOperation[T]{Kind: SnapshotScan, PID: pid}
}

// ScanResult returns the response-side representation of a scan by pid that
// observed view.
func ScanResult[T any](pid int, view []T) SnapshotOperation[T] {
	return SnapshotOperation[T]{Kind: SnapshotScan, PID: pid, View: view, Known: true}
}

// Update returns an update by pid of value, valid as either the call or the
// response side of the operation.
func Update[T any](pid int, value T) SnapshotOperation[T] {
	return SnapshotOperation[T]{Kind: SnapshotUpdate, PID: pid, Value: value, Known: true}
}

// SnapshotSpecification is the sequential specification of an N-component
// snapshot object: a scan is valid iff its view equals the state
// componentwise, leaving the state unchanged; an update is always valid and
// replaces its component's value.
//
// State is represented as a slice rather than a fixed-size array, since Go
// has no type parameter over array lengths; this is why
// linearizability.Specification carries State as interface{} instead of a
// generic, comparable type.
type SnapshotSpecification[T comparable] struct {
	n int
}

// NewSnapshotSpecification returns a SnapshotSpecification for n
// components, each initialized to the zero value of T.
func NewSnapshotSpecification[T comparable](n int) *SnapshotSpecification[T] {
	return &SnapshotSpecification[T]{n: n}
}

func (s *SnapshotSpecification[T]) Init() any {
	return make([]T, s.n)
}

func (s *SnapshotSpecification[T]) Apply(op any, state any) (bool, any) {
	o := op.(SnapshotOperation[T])
	st := state.([]T)
	switch o.Kind {
	case SnapshotScan:
		if !o.Known {
			panic("specifications: cannot apply a scan with an unknown return value")
		}
		if len(o.View) != len(st) {
			return false, st
		}
		for i := range st {
			if st[i] != o.View[i] {
				return false, st
			}
		}
		return true, st
	case SnapshotUpdate:
		newState := make([]T, len(st))
		copy(newState, st)
		newState[o.PID] = o.Value
		return true, newState
	default:
		panic("specifications: unknown snapshot operation kind")
	}
}

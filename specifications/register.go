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

// RegisterOperationKind distinguishes a register Read from a Write.
type RegisterOperationKind int

const (
	RegisterRead RegisterOperationKind = iota
	RegisterWrite
)

// RegisterOperation is an operation performed against a single-cell
// register holding values of type T. Known is false only for a Read whose
// return value is not yet known (the call side of a Read); the checker
// never applies such an operation, since it always resolves the matching
// Response entry's operation before calling Specification.Apply.
type RegisterOperation[T any] struct {
	Kind  RegisterOperationKind
	Value T
	Known bool
}

// Read returns the call-side representation of a read whose result is not
// yet known.
func Read[T any]() RegisterOperation[T] {
	return RegisterOperation[T]{Kind: RegisterRead}
}

// ReadResult returns the response-side representation of a read that
// returned value.
func ReadResult[T any](value T) RegisterOperation[T] {
	return RegisterOperation[T]{Kind: RegisterRead, Value: value, Known: true}
}

// Write returns a write of value, valid as either the call or the response
// side of the operation.
func Write[T any](value T) RegisterOperation[T] {
	return RegisterOperation[T]{Kind: RegisterWrite, Value: value, Known: true}
}

// RegisterSpecification is the sequential specification of a register: a
// read is valid iff it returns the current state, and it never changes
// that state; a write is always valid and replaces the state.
type RegisterSpecification[T comparable] struct{}

// NewRegisterSpecification returns a RegisterSpecification whose initial
// state is the zero value of T.
func NewRegisterSpecification[T comparable]() *RegisterSpecification[T] {
	return &RegisterSpecification[T]{}
}

func (s *RegisterSpecification[T]) Init() any {
	var zero T
	return zero
}

func (s *RegisterSpecification[T]) Apply(op any, state any) (bool, any) {
	o := op.(RegisterOperation[T])
	st := state.(T)
	switch o.Kind {
	case RegisterRead:
		if !o.Known {
			panic("specifications: cannot apply a read with an unknown return value")
		}
		return o.Value == st, st
	case RegisterWrite:
		return true, o.Value
	default:
		panic("specifications: unknown register operation kind")
	}
}

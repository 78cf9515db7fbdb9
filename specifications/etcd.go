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

// EtcdStatus is the outcome of an etcd operation as reported by a Jepsen
// log: an operation is either still in flight, succeeded, failed outright,
// or finished with an outcome the log never recorded.
type EtcdStatus int

const (
	EtcdInvoke EtcdStatus = iota
	EtcdOkay
	EtcdFail
	EtcdUnknown
)

// EtcdOperationKind distinguishes the three operations this specification
// models.
type EtcdOperationKind int

const (
	EtcdRead EtcdOperationKind = iota
	EtcdWrite
	EtcdCompareAndSwap
)

// EtcdState is the state of one etcd key: either unset, or set to Value.
// Represented as a plain value rather than a pointer so that it can be
// safely embedded in the checker's memoization cache key.
type EtcdState struct {
	Valid bool
	Value uint32
}

// EtcdOperation is an operation performed against a single etcd key. Which
// fields are meaningful depends on Kind: ReadValue for EtcdRead, WriteValue
// for EtcdWrite, Compare and Swap for EtcdCompareAndSwap.
type EtcdOperation struct {
	Kind       EtcdOperationKind
	Status     EtcdStatus
	ReadValue  EtcdState
	WriteValue uint32
	Compare    uint32
	Swap       uint32
}

// EtcdSpecification is the sequential specification of a single etcd key
// exposed through read, write, and compare-and-swap operations.
//
// Operations whose completion was never observed (EtcdUnknown) are treated
// as though they succeeded: this is indistinguishable, from the checker's
// perspective, from a successful operation linearized at the very end of
// the history, which is where a Jepsen log's parser places them.
type EtcdSpecification struct{}

func (EtcdSpecification) Init() any {
	return EtcdState{}
}

func (EtcdSpecification) Apply(op any, state any) (bool, any) {
	o := op.(EtcdOperation)
	st := state.(EtcdState)

	switch o.Kind {
	case EtcdRead:
		switch o.Status {
		case EtcdOkay:
			return o.ReadValue == st, st
		case EtcdFail:
			return o.ReadValue != st, st
		default:
			panic("specifications: cannot apply a read that has not succeeded or failed")
		}

	case EtcdWrite:
		switch o.Status {
		case EtcdInvoke:
			panic("specifications: cannot apply a write that has only been invoked")
		case EtcdOkay, EtcdUnknown:
			return true, EtcdState{Valid: true, Value: o.WriteValue}
		case EtcdFail:
			return true, st
		default:
			panic("specifications: unknown etcd status")
		}

	case EtcdCompareAndSwap:
		success := st.Valid && st.Value == o.Compare
		switch o.Status {
		case EtcdInvoke:
			panic("specifications: cannot apply a compare-and-swap that has only been invoked")
		case EtcdOkay:
			if success {
				return true, EtcdState{Valid: true, Value: o.Swap}
			}
			return false, st
		case EtcdFail:
			return !success, st
		case EtcdUnknown:
			if success {
				return true, EtcdState{Valid: true, Value: o.Swap}
			}
			return true, st
		default:
			panic("specifications: unknown etcd status")
		}

	default:
		panic("specifications: unknown etcd operation kind")
	}
}

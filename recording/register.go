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
	"context"

	"github.com/dijkstracula/todc/linearizability"
	"github.com/dijkstracula/todc/specifications"
)

// Register is the subset of a register's API that RecordingRegister wraps.
// It takes a context because the only register this repository ships that
// is worth recording, the networked ABD'95 register, does I/O on every
// call; a purely in-memory register can simply ignore it.
type Register[T any] interface {
	Read(ctx context.Context) (T, error)
	Write(ctx context.Context, value T) error
}

// RecordingRegister wraps a Register, recording a Call/Response pair for
// every Read and Write that completes. Operations that fail are not
// recorded at all: they never took effect, so they have no place in a
// history of operations the object actually performed.
type RecordingRegister[T comparable] struct {
	register Register[T]
	log      Log[specifications.RegisterOperation[T]]
}

// NewRecordingRegister wraps register so that operations performed through
// the returned value are recorded.
func NewRecordingRegister[T comparable](register Register[T]) *RecordingRegister[T] {
	return &RecordingRegister[T]{register: register}
}

// Read records a call, performs the read, and records the response if it
// completed successfully.
func (r *RecordingRegister[T]) Read(ctx context.Context, pid int) (T, error) {
	r.log.append(linearizability.ProcessID(pid), linearizability.Call, specifications.Read[T]())
	value, err := r.register.Read(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	r.log.append(linearizability.ProcessID(pid), linearizability.Response, specifications.ReadResult(value))
	return value, nil
}

// Write records a call, performs the write, and records the response if it
// completed successfully.
func (r *RecordingRegister[T]) Write(ctx context.Context, pid int, value T) error {
	r.log.append(linearizability.ProcessID(pid), linearizability.Call, specifications.Write(value))
	if err := r.register.Write(ctx, value); err != nil {
		return err
	}
	r.log.append(linearizability.ProcessID(pid), linearizability.Response, specifications.Write(value))
	return nil
}

// History returns a linearizability.History of every operation recorded so
// far, in the order each was recorded.
func (r *RecordingRegister[T]) History() (*linearizability.History[specifications.RegisterOperation[T]], error) {
	return r.log.History()
}

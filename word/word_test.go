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

package word

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func encodeUint32(v uint32) uint64 { return uint64(v) }
func decodeUint32(w uint64) uint32 { return uint32(w) }

func TestAtomicRegisterZeroValue(t *testing.T) {
	r := NewAtomicRegister(encodeUint32, decodeUint32)
	assert.Equal(t, uint32(0), r.Load())
}

func TestAtomicRegisterReadAfterWrite(t *testing.T) {
	r := NewAtomicRegister(encodeUint32, decodeUint32)
	r.Store(123)
	assert.Equal(t, uint32(123), r.Load())

	r.Store(42)
	assert.Equal(t, uint32(42), r.Load())
}

func TestAtomicRegisterEncodeDecodeRoundTrip(t *testing.T) {
	seed := time.Now().UTC().UnixNano()
	rng := rand.New(rand.NewSource(seed))
	r := NewAtomicRegister(encodeUint32, decodeUint32)
	for i := 0; i < 100; i++ {
		val := rng.Uint32()
		r.Store(val)
		assert.Equal(t, val, r.Load(), "expected %d; got %d", val, r.Load())
	}
}

func TestNewEncodedPanicsOnOverflow(t *testing.T) {
	assert.Panics(t, func() {
		NewEncoded(65, encodeUint32, decodeUint32)
	})
}

func TestNewEncodedAcceptsExactCapacity(t *testing.T) {
	assert.NotPanics(t, func() {
		NewEncoded(MaxBits, encodeUint32, decodeUint32)
	})
}

func TestMutexRegisterZeroValue(t *testing.T) {
	r := NewMutexRegister[string]()
	assert.Equal(t, "", r.Load())
}

func TestMutexRegisterReadAfterWrite(t *testing.T) {
	r := NewMutexRegister[string]()
	r.Store("hello")
	assert.Equal(t, "hello", r.Load())
}

func TestMutexRegisterConcurrentAccessDoesNotRace(t *testing.T) {
	r := NewMutexRegister[int]()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			r.Store(v)
			_ = r.Load()
		}(i)
	}
	wg.Wait()
}

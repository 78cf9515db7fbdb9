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

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegisterSpecificationInitSetsZeroValue(t *testing.T) {
	spec := NewRegisterSpecification[uint32]()
	assert.Equal(t, uint32(0), spec.Init())
}

func TestRegisterSpecificationReadValidIfCurrentState(t *testing.T) {
	spec := NewRegisterSpecification[uint32]()
	isValid, _ := spec.Apply(ReadResult[uint32](0), spec.Init())
	assert.True(t, isValid)
}

func TestRegisterSpecificationReadInvalidIfNotCurrentState(t *testing.T) {
	spec := NewRegisterSpecification[uint32]()
	isValid, _ := spec.Apply(ReadResult[uint32](1), spec.Init())
	assert.False(t, isValid)
}

func TestRegisterSpecificationReadDoesNotAffectState(t *testing.T) {
	spec := NewRegisterSpecification[uint32]()
	oldState := spec.Init()
	_, newState := spec.Apply(ReadResult[uint32](0), oldState)
	assert.Equal(t, oldState, newState)
}

func TestRegisterSpecificationWriteAlwaysValid(t *testing.T) {
	spec := NewRegisterSpecification[uint32]()
	isValid, _ := spec.Apply(Write[uint32](1), spec.Init())
	assert.True(t, isValid)
}

func TestRegisterSpecificationWriteSetsNewState(t *testing.T) {
	spec := NewRegisterSpecification[uint32]()
	_, newState := spec.Apply(Write[uint32](123), spec.Init())
	assert.Equal(t, uint32(123), newState)
}

func TestRegisterSpecificationPanicsOnUnknownRead(t *testing.T) {
	spec := NewRegisterSpecification[uint32]()
	assert.Panics(t, func() {
		spec.Apply(Read[uint32](), spec.Init())
	})
}

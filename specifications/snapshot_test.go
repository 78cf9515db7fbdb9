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

const numProcesses = 3

func TestSnapshotSpecificationInitReturnsDefaults(t *testing.T) {
	spec := NewSnapshotSpecification[uint32](numProcesses)
	assert.Equal(t, []uint32{0, 0, 0}, spec.Init())
}

func TestSnapshotSpecificationUpdateAppliedToProperComponent(t *testing.T) {
	spec := NewSnapshotSpecification[uint32](numProcesses)
	_, newState := spec.Apply(Update[uint32](1, 123), spec.Init())
	state := newState.([]uint32)
	assert.Equal(t, uint32(123), state[1])
	assert.Equal(t, uint32(0), state[0])
	assert.Equal(t, uint32(0), state[2])
}

func TestSnapshotSpecificationUpdateAlwaysValid(t *testing.T) {
	spec := NewSnapshotSpecification[uint32](numProcesses)
	for i := 0; i < numProcesses; i++ {
		isValid, _ := spec.Apply(Update[uint32](i, uint32(i)), spec.Init())
		assert.True(t, isValid)
	}
}

func TestSnapshotSpecificationScanDoesNotAffectState(t *testing.T) {
	spec := NewSnapshotSpecification[uint32](numProcesses)
	_, newState := spec.Apply(ScanResult[uint32](0, []uint32{0, 0, 0}), spec.Init())
	assert.Equal(t, spec.Init(), newState)
}

func TestSnapshotSpecificationScanInvalidIfDiffersFromState(t *testing.T) {
	isValid, _ := NewSnapshotSpecification[uint32](numProcesses).Apply(
		ScanResult[uint32](0, []uint32{123, 0, 0}),
		[]uint32{0, 0, 0},
	)
	assert.False(t, isValid)
}

func TestSnapshotSpecificationPanicsOnUnknownScan(t *testing.T) {
	spec := NewSnapshotSpecification[uint32](numProcesses)
	assert.Panics(t, func() {
		spec.Apply(Scan[uint32](0), spec.Init())
	})
}

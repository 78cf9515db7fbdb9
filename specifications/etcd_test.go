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

func TestEtcdSpecificationInitializesStateToInvalid(t *testing.T) {
	var spec EtcdSpecification
	assert.Equal(t, EtcdState{}, spec.Init())
}

func TestEtcdSpecificationReadDoesNotMutateState(t *testing.T) {
	var spec EtcdSpecification
	_, newState := spec.Apply(EtcdOperation{Kind: EtcdRead, Status: EtcdOkay}, spec.Init())
	assert.Equal(t, spec.Init(), newState)
}

func TestEtcdSpecificationReadOfStateIsValid(t *testing.T) {
	var spec EtcdSpecification
	state := EtcdState{Valid: true, Value: 42}
	isValid, _ := spec.Apply(EtcdOperation{Kind: EtcdRead, Status: EtcdOkay, ReadValue: state}, state)
	assert.True(t, isValid)
}

func TestEtcdSpecificationReadOfBadValueIsInvalid(t *testing.T) {
	var spec EtcdSpecification
	isValid, _ := spec.Apply(
		EtcdOperation{Kind: EtcdRead, Status: EtcdOkay, ReadValue: EtcdState{Valid: true, Value: 42}},
		EtcdState{},
	)
	assert.False(t, isValid)
}

func TestEtcdSpecificationFailedReadValidWhenValueDiffers(t *testing.T) {
	var spec EtcdSpecification
	isValid, _ := spec.Apply(
		EtcdOperation{Kind: EtcdRead, Status: EtcdFail, ReadValue: EtcdState{Valid: true, Value: 42}},
		EtcdState{},
	)
	assert.True(t, isValid)
}

func TestEtcdSpecificationWriteSetsNewState(t *testing.T) {
	var spec EtcdSpecification
	_, newState := spec.Apply(EtcdOperation{Kind: EtcdWrite, Status: EtcdOkay, WriteValue: 123}, spec.Init())
	assert.Equal(t, EtcdState{Valid: true, Value: 123}, newState)
}

func TestEtcdSpecificationFailedWriteLeavesStateUnchanged(t *testing.T) {
	var spec EtcdSpecification
	state := EtcdState{Valid: true, Value: 7}
	_, newState := spec.Apply(EtcdOperation{Kind: EtcdWrite, Status: EtcdFail, WriteValue: 123}, state)
	assert.Equal(t, state, newState)
}

func TestEtcdSpecificationUnknownWriteAssumedSuccessful(t *testing.T) {
	var spec EtcdSpecification
	isValid, newState := spec.Apply(EtcdOperation{Kind: EtcdWrite, Status: EtcdUnknown, WriteValue: 9}, spec.Init())
	assert.True(t, isValid)
	assert.Equal(t, EtcdState{Valid: true, Value: 9}, newState)
}

func TestEtcdSpecificationCASOfBadValueIsInvalid(t *testing.T) {
	var spec EtcdSpecification
	isValid, _ := spec.Apply(
		EtcdOperation{Kind: EtcdCompareAndSwap, Status: EtcdOkay, Compare: 1, Swap: 2},
		EtcdState{},
	)
	assert.False(t, isValid)
}

func TestEtcdSpecificationCASSwapsWhenCompareMatches(t *testing.T) {
	var spec EtcdSpecification
	_, newState := spec.Apply(
		EtcdOperation{Kind: EtcdCompareAndSwap, Status: EtcdOkay, Compare: 1, Swap: 2},
		EtcdState{Valid: true, Value: 1},
	)
	assert.Equal(t, EtcdState{Valid: true, Value: 2}, newState)
}

func TestEtcdSpecificationFailedCASValidWhenCompareDoesNotMatch(t *testing.T) {
	var spec EtcdSpecification
	isValid, state := spec.Apply(
		EtcdOperation{Kind: EtcdCompareAndSwap, Status: EtcdFail, Compare: 1, Swap: 2},
		EtcdState{Valid: true, Value: 99},
	)
	assert.True(t, isValid)
	assert.Equal(t, EtcdState{Valid: true, Value: 99}, state)
}

func TestEtcdSpecificationPanicsOnInvokeStatus(t *testing.T) {
	var spec EtcdSpecification
	assert.Panics(t, func() {
		spec.Apply(EtcdOperation{Kind: EtcdWrite, Status: EtcdInvoke, WriteValue: 1}, spec.Init())
	})
	assert.Panics(t, func() {
		spec.Apply(EtcdOperation{Kind: EtcdCompareAndSwap, Status: EtcdInvoke}, spec.Init())
	})
}

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

package linearizability

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromActionsCreatesSequentialIDs(t *testing.T) {
	history, err := FromActions([]ActionRecord[string]{
		{Process: 0, Kind: Call, Operation: "a"},
		{Process: 0, Kind: Response, Operation: "a"},
		{Process: 0, Kind: Call, Operation: "b"},
		{Process: 0, Kind: Response, Operation: "b"},
	})
	require.NoError(t, err)
	for i := 0; i < history.Len(); i++ {
		assert.Equal(t, EntryID(i), history.At(i).ID)
	}
}

func TestFromActionsLinksActionsOfMultipleProcesses(t *testing.T) {
	history, err := FromActions([]ActionRecord[string]{
		{Process: 0, Kind: Call, Operation: "a"},
		{Process: 1, Kind: Call, Operation: "b"},
		{Process: 2, Kind: Call, Operation: "c"},
		{Process: 0, Kind: Response, Operation: "a"},
		{Process: 1, Kind: Response, Operation: "b"},
		{Process: 2, Kind: Response, Operation: "c"},
	})
	require.NoError(t, err)
	for i := 0; i < history.Len(); i++ {
		entry := history.At(i)
		if entry.Kind == Call {
			response := history.At(history.indexOfID(entry.Response))
			require.Equal(t, Response, response.Kind)
			assert.Equal(t, entry.Operation, response.Operation)
		}
	}
}

func TestFromActionsLinksActionsOfSingleProcess(t *testing.T) {
	history, err := FromActions([]ActionRecord[string]{
		{Process: 0, Kind: Call, Operation: "a"},
		{Process: 0, Kind: Response, Operation: "a"},
		{Process: 0, Kind: Call, Operation: "b"},
		{Process: 0, Kind: Response, Operation: "b"},
		{Process: 0, Kind: Call, Operation: "c"},
		{Process: 0, Kind: Response, Operation: "c"},
	})
	require.NoError(t, err)
	for i := 0; i < history.Len(); i++ {
		entry := history.At(i)
		if entry.Kind == Call {
			response := history.At(history.indexOfID(entry.Response))
			assert.Equal(t, entry.Operation, response.Operation)
		}
	}
}

func TestFromActionsRejectsIncompleteHistory(t *testing.T) {
	_, err := FromActions([]ActionRecord[string]{
		{Process: 0, Kind: Call, Operation: "Hello"},
		{Process: 1, Kind: Call, Operation: "World"},
		{Process: 0, Kind: Response, Operation: "Hello"},
		// Missing response to the call by process 1.
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIncompleteHistory))
}

func TestFromActionsPanicsOnEmptyHistory(t *testing.T) {
	assert.Panics(t, func() {
		FromActions([]ActionRecord[string]{})
	})
}

func TestLiftRemovesCallAndResponseEntries(t *testing.T) {
	history, err := FromActions([]ActionRecord[string]{
		{Process: 0, Kind: Call, Operation: "a"},
		{Process: 1, Kind: Call, Operation: "b"},
		{Process: 2, Kind: Call, Operation: "c"},
		{Process: 0, Kind: Response, Operation: "a"},
		{Process: 1, Kind: Response, Operation: "b"},
		{Process: 2, Kind: Response, Operation: "c"},
	})
	require.NoError(t, err)
	history.lift(0)
	want := []string{"b", "c", "b", "c"}
	require.Equal(t, len(want), history.Len())
	for i, op := range want {
		assert.Equal(t, op, history.At(i).Operation)
	}
}

func TestUnliftIsInverseOfLift(t *testing.T) {
	history, err := FromActions([]ActionRecord[string]{
		{Process: 0, Kind: Call, Operation: "a"},
		{Process: 1, Kind: Call, Operation: "b"},
		{Process: 0, Kind: Response, Operation: "a"},
		{Process: 1, Kind: Response, Operation: "b"},
	})
	require.NoError(t, err)

	before := make([]Entry[string], history.Len())
	for i := range before {
		before[i] = history.At(i)
	}

	call, response := history.lift(0)
	history.unlift(call, response)

	require.Equal(t, len(before), history.Len())
	for i, entry := range before {
		assert.Equal(t, entry, history.At(i))
	}
}

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

// Package jepsen parses logs produced by Jepsen (https://github.com/jepsen-io/jepsen)
// against an etcd cluster into a linearizability.History suitable for
// checking against specifications.EtcdSpecification.
package jepsen

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dijkstracula/todc/linearizability"
	"github.com/dijkstracula/todc/specifications"
)

type action = linearizability.ActionRecord[specifications.EtcdOperation]

// HistoryFromLog reads the Jepsen log at path and returns the resulting
// history.
func HistoryFromLog(path string) (*linearizability.History[specifications.EtcdOperation], error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return historyFromReader(file)
}

func historyFromReader(r io.Reader) (*linearizability.History[specifications.EtcdOperation], error) {
	var actions []action
	var unknowns []action

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		words := strings.Fields(line)
		if len(words) < 7 {
			continue
		}
		if words[1] != "jepsen.util" {
			continue
		}
		if words[3] == ":nemesis" {
			continue
		}

		processInt, err := strconv.Atoi(words[3])
		if err != nil {
			return nil, fmt.Errorf("jepsen: invalid process id %q: %w", words[3], err)
		}
		process := linearizability.ProcessID(processInt)

		// Logs are marked with :info when the success of the operation is
		// unknown. It suffices to consider a history where all such
		// operations eventually finish, but at the very end of the history.
		// See: https://aphyr.com/posts/316-jepsen-etcd-and-consul#writing-a-client
		if words[4] == ":info" {
			response, err := synthesizeUnknownResponse(actions, process)
			if err != nil {
				return nil, err
			}
			unknowns = append(unknowns, action{Process: process, Kind: linearizability.Response, Operation: response})
			continue
		}

		status, err := etcdStatusFromLog(words[4])
		if err != nil {
			return nil, err
		}
		operation, err := etcdOperationFromLog(words[4:])
		if err != nil {
			return nil, err
		}

		kind := linearizability.Response
		if status == specifications.EtcdInvoke {
			kind = linearizability.Call
		}
		actions = append(actions, action{Process: process, Kind: kind, Operation: operation})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	// Append responses for operations whose status was unknown to the end
	// of the history.
	actions = append(actions, unknowns...)
	return linearizability.FromActions(actions)
}

// synthesizeUnknownResponse builds the response for a call whose outcome a
// log marked :info, by finding that process's most recent call.
//
// Reads can never be synthesized this way: a read has no effect on state,
// so treating an unknown read as though it had completed would mean
// inventing a value the log never reported.
func synthesizeUnknownResponse(actions []action, process linearizability.ProcessID) (specifications.EtcdOperation, error) {
	for i := len(actions) - 1; i >= 0; i-- {
		if actions[i].Process != process || actions[i].Kind != linearizability.Call {
			continue
		}
		call := actions[i].Operation
		switch call.Kind {
		case specifications.EtcdRead:
			panic("jepsen: success of a read operation cannot be unknown")
		case specifications.EtcdWrite:
			return specifications.EtcdOperation{
				Kind: specifications.EtcdWrite, Status: specifications.EtcdUnknown, WriteValue: call.WriteValue,
			}, nil
		case specifications.EtcdCompareAndSwap:
			return specifications.EtcdOperation{
				Kind: specifications.EtcdCompareAndSwap, Status: specifications.EtcdUnknown,
				Compare: call.Compare, Swap: call.Swap,
			}, nil
		default:
			return specifications.EtcdOperation{}, fmt.Errorf("jepsen: unknown operation kind for process %d", process)
		}
	}
	return specifications.EtcdOperation{}, fmt.Errorf("jepsen: process %d has no preceding call for :info", process)
}

func etcdStatusFromLog(s string) (specifications.EtcdStatus, error) {
	switch s {
	case ":invoke":
		return specifications.EtcdInvoke, nil
	case ":ok":
		return specifications.EtcdOkay, nil
	case ":fail":
		return specifications.EtcdFail, nil
	case ":info":
		return specifications.EtcdUnknown, nil
	default:
		return 0, fmt.Errorf("jepsen: unexpected status %q", s)
	}
}

// etcdOperationFromLog parses words[0:] as "<status> <op> <args...>", where
// words is already known to start at the status column.
func etcdOperationFromLog(words []string) (specifications.EtcdOperation, error) {
	status, err := etcdStatusFromLog(words[0])
	if err != nil {
		return specifications.EtcdOperation{}, err
	}

	switch words[1] {
	case ":read":
		if words[2] == "nil" || words[2] == ":timed-out" {
			return specifications.EtcdOperation{Kind: specifications.EtcdRead, Status: status}, nil
		}
		value, err := strconv.ParseUint(words[2], 10, 32)
		if err != nil {
			return specifications.EtcdOperation{}, fmt.Errorf("jepsen: invalid read value %q: %w", words[2], err)
		}
		return specifications.EtcdOperation{
			Kind: specifications.EtcdRead, Status: status,
			ReadValue: specifications.EtcdState{Valid: true, Value: uint32(value)},
		}, nil

	case ":write":
		value, err := strconv.ParseUint(words[2], 10, 32)
		if err != nil {
			return specifications.EtcdOperation{}, fmt.Errorf("jepsen: invalid write value %q: %w", words[2], err)
		}
		return specifications.EtcdOperation{Kind: specifications.EtcdWrite, Status: status, WriteValue: uint32(value)}, nil

	case ":cas":
		compareWord := strings.TrimPrefix(words[2], "[")
		swapWord := strings.TrimSuffix(words[3], "]")
		compare, err := strconv.ParseUint(compareWord, 10, 32)
		if err != nil {
			return specifications.EtcdOperation{}, fmt.Errorf("jepsen: invalid cas compare value %q: %w", words[2], err)
		}
		swap, err := strconv.ParseUint(swapWord, 10, 32)
		if err != nil {
			return specifications.EtcdOperation{}, fmt.Errorf("jepsen: invalid cas swap value %q: %w", words[3], err)
		}
		return specifications.EtcdOperation{
			Kind: specifications.EtcdCompareAndSwap, Status: status,
			Compare: uint32(compare), Swap: uint32(swap),
		}, nil

	default:
		return specifications.EtcdOperation{}, fmt.Errorf("jepsen: unexpected operation %q", words[1])
	}
}

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

// Package netregister implements a message-passing simulation of an atomic
// register over HTTP, following Attiya, Bar-Noy & Dolev's majority-quorum
// construction (ABD'95).
//
// Each instance holds a LocalValue, a (label, value) pair ordered first by
// label and tie-broken by value. A read asks every neighbor for its local
// value, adopts the greatest one seen (including its own), announces that
// adoption to the neighborhood, and returns it. A write bumps its own label
// past any it has seen and announces the result. Because every operation
// propagates to a majority before returning, any two operations that don't
// overlap in time see a consistent order: the simulated register is atomic
// even though no single replica is authoritative.
//
//	           Ask            Announce
//	   read:  -------> majority -------> majority
//	  write:               -------> majority
//
// Unlike the shared-memory core, this is the one construction in the
// repository that blocks on I/O, so every exported method takes a
// context.Context.
package netregister

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"
)

// LocalValue is the (label, value) pair an AtomicRegister holds locally
// between quorum rounds. Values are ordered first by label, then,
// arbitrarily but deterministically, by value, so that every replica that
// has collected the same set of LocalValues agrees on which one is
// greatest.
type LocalValue[T cmp.Ordered] struct {
	Label uint32 `json:"label"`
	Value T      `json:"value"`
}

// compare returns a negative number if a is ordered before b, zero if they
// are equal, and a positive number if a is ordered after b.
func (a LocalValue[T]) compare(b LocalValue[T]) int {
	if a.Label != b.Label {
		return cmp.Compare(a.Label, b.Label)
	}
	return cmp.Compare(a.Value, b.Value)
}

// requestKind distinguishes the two halves of a quorum round.
type requestKind int

const (
	ask requestKind = iota
	announce
)

// ErrQuorumUnreachable is returned by Read and Write when a majority of
// neighbors could not be reached within a single communicate round.
var ErrQuorumUnreachable = fmt.Errorf("netregister: quorum unreachable")

// HTTPDoer is the subset of *http.Client that AtomicRegister depends on,
// so that tests can substitute a fake transport.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// AtomicRegister is one replica of a networked atomic register. The zero
// value is not usable; construct one with NewAtomicRegister.
type AtomicRegister[T cmp.Ordered] struct {
	mu        sync.Mutex
	local     LocalValue[T]
	neighbors []string
	client    HTTPDoer
}

// NewAtomicRegister returns a register seeded with the zero value of T and
// the given neighbor base URLs (e.g. "http://host:8080"), communicating
// over client.
func NewAtomicRegister[T cmp.Ordered](neighbors []string, client HTTPDoer) *AtomicRegister[T] {
	return &AtomicRegister[T]{neighbors: neighbors, client: client}
}

// Local returns the register's current local value without performing a
// quorum round.
func (r *AtomicRegister[T]) Local() LocalValue[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.local
}

// MergeLocal adopts other if it is greater than the register's current
// local value, and returns the (possibly updated) local value. It performs
// no quorum round; it is the handler for the inter-instance gossip
// endpoint, and the hook through which any transport - HTTP or otherwise -
// feeds a peer's announcement back into this replica.
func (r *AtomicRegister[T]) MergeLocal(other LocalValue[T]) LocalValue[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	if other.compare(r.local) > 0 {
		r.local = other
	}
	return r.local
}

// Read performs a full ABD'95 read: ask every neighbor for its local value,
// adopt the greatest one seen, announce the adoption, and return it.
func (r *AtomicRegister[T]) Read(ctx context.Context) (T, error) {
	values, err := r.communicate(ctx, ask)
	if err != nil {
		var zero T
		return zero, err
	}

	greatest := r.Local()
	for _, v := range values {
		if v.compare(greatest) > 0 {
			greatest = v
		}
	}
	r.MergeLocal(greatest)

	if _, err := r.communicate(ctx, announce); err != nil {
		var zero T
		return zero, err
	}
	return greatest.Value, nil
}

// Write bumps the register's label past any value it currently holds and
// announces the result to a majority of neighbors.
func (r *AtomicRegister[T]) Write(ctx context.Context, value T) error {
	r.mu.Lock()
	r.local = LocalValue[T]{Label: r.local.Label + 1, Value: value}
	r.mu.Unlock()

	_, err := r.communicate(ctx, announce)
	return err
}

// communicate fans out one HTTP request per neighbor - an Ask or an
// Announce of the register's current local value - and returns once acks
// (counting the register's own local value) form a strict majority of
// len(neighbors)+1, or returns ErrQuorumUnreachable once enough requests
// have failed that a majority can no longer be reached.
func (r *AtomicRegister[T]) communicate(ctx context.Context, kind requestKind) ([]LocalValue[T], error) {
	local := r.Local()
	total := len(r.neighbors) + 1
	majority := total/2 + 1

	type result struct {
		value LocalValue[T]
		err   error
	}
	results := make(chan result, len(r.neighbors))

	g, gctx := errgroup.WithContext(ctx)
	for _, neighbor := range r.neighbors {
		neighbor := neighbor
		g.Go(func() error {
			value, err := r.request(gctx, neighbor, kind, local)
			results <- result{value: value, err: err}
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(results)
	}()

	acks := 1
	fails := 0
	values := []LocalValue[T]{local}
	if acks >= majority {
		return values, nil
	}
	for res := range results {
		if res.err == nil {
			acks++
			values = append(values, res.value)
		} else {
			fails++
		}
		if acks >= majority {
			return values, nil
		}
		if fails > total-majority {
			return nil, ErrQuorumUnreachable
		}
	}
	return nil, ErrQuorumUnreachable
}

// request performs a single Ask or Announce round-trip against one
// neighbor's /register/local endpoint.
func (r *AtomicRegister[T]) request(ctx context.Context, neighbor string, kind requestKind, local LocalValue[T]) (LocalValue[T], error) {
	url := neighbor + "/register/local"

	var req *http.Request
	var err error
	switch kind {
	case ask:
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	case announce:
		body, marshalErr := json.Marshal(local)
		if marshalErr != nil {
			return LocalValue[T]{}, marshalErr
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if req != nil {
			req.Header.Set("Content-Type", "application/json")
		}
	default:
		return LocalValue[T]{}, fmt.Errorf("netregister: unknown request kind %d", kind)
	}
	if err != nil {
		return LocalValue[T]{}, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return LocalValue[T]{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return LocalValue[T]{}, fmt.Errorf("netregister: neighbor %s returned status %d", neighbor, resp.StatusCode)
	}

	var value LocalValue[T]
	if err := json.NewDecoder(resp.Body).Decode(&value); err != nil {
		return LocalValue[T]{}, err
	}
	return value, nil
}

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

package netregister

import (
	"cmp"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

// Handlers wires an AtomicRegister to its HTTP surface: the public
// /register read/write API and the /register/local inter-instance gossip
// endpoint.
type Handlers[T cmp.Ordered] struct {
	register *AtomicRegister[T]
	logger   zerolog.Logger
}

// NewHandlers returns the HTTP handlers for register.
func NewHandlers[T cmp.Ordered](register *AtomicRegister[T], logger zerolog.Logger) *Handlers[T] {
	return &Handlers[T]{register: register, logger: logger}
}

// Register registers the register's four endpoints on mux.
func (h *Handlers[T]) Register(mux *http.ServeMux) {
	mux.HandleFunc("/register", h.register_)
	mux.HandleFunc("/register/local", h.local)
}

// register_ is named with a trailing underscore to avoid shadowing the
// Handlers.register field.
func (h *Handlers[T]) register_(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodGet:
		value, err := h.register.Read(r.Context())
		if err != nil {
			h.logger.Error().Err(err).Msg("read failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(errorBody{Error: err.Error()})
			return
		}
		json.NewEncoder(w).Encode(value)

	case http.MethodPost:
		var value T
		if err := json.NewDecoder(r.Body).Decode(&value); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(errorBody{Error: err.Error()})
			return
		}
		if err := h.register.Write(r.Context(), value); err != nil {
			h.logger.Error().Err(err).Msg("write failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(errorBody{Error: err.Error()})
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// local serves the inter-instance gossip endpoint: a GET returns this
// replica's local value with no quorum round; a POST merges an incoming
// LocalValue and returns the (possibly updated) result.
func (h *Handlers[T]) local(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodGet:
		json.NewEncoder(w).Encode(h.register.Local())

	case http.MethodPost:
		var incoming LocalValue[T]
		if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(errorBody{Error: err.Error()})
			return
		}
		merged := h.register.MergeLocal(incoming)
		json.NewEncoder(w).Encode(merged)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

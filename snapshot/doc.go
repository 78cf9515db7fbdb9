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

// Package snapshot implements three wait-free constructions of an
// N-component single-writer-multi-reader snapshot object: a single logical
// object that N processes can each Update (writing their own component) and
// Scan (reading every component at once, as of some instant that all other
// concurrent operations agree happened).
//
// Every process owns exactly one component (process i only ever calls
// Update(i, ...)); any process may Scan. All three constructions are
// wait-free: a call to Scan or Update completes in a bounded number of steps
// regardless of what other processes are doing, and regardless of how they
// are scheduled.
//
// Unbounded (AAD+'93 section 3) tags each component with a strictly
// increasing sequence number and detects interference with a double
// collect: read every component twice, and if nothing changed in between,
// the second collect is consistent. A process that is observed to have
// moved (changed its sequence number) twice is about to hand the scanner
// its own most recent scan for free -- a "borrowed" view -- which is how
// the construction bounds the number of double collects by N+1 instead of
// looping forever.
//
//	moved[j] counts how many times j has been seen to move this scan.
//	moved[j] == 0 -> 1: keep looping, something may still be in flight.
//	moved[j] == 1 -> 2: j definitely completed an update; borrow its view.
//
// Bounded (AAD+'93 section 4) replaces the unbounded sequence number with a
// constant amount of state per pair of processes: a single-writer
// handshake bit p[j] that i presents to every other process, echoed into a
// shared per-pair cell Q[i][j], plus a toggle bit that flips on every
// update. The same "moved twice -> borrow" logic from Unbounded carries
// over unchanged; only the movement detector changes shape.
//
// Lattice (AR'98) replaces the double-collect entirely with a classifier
// tree: an M-shot object (an a priori bound on the total number of
// operations across every process) realises lattice agreement by having
// each scan or update walk from the tree's root towards a leaf, at each
// node either being classified Primary (the union of views at that node has
// more than `label` components' worth of progress, and the walk continues
// into the right child carrying that union) or Secondary (it has not, and
// the walk continues into the left child with the caller's own view). Every
// walk ends at a leaf, whose classification decides the result. The tree
// has height log2(M), which is also the worst-case number of classifier
// visits per operation.
package snapshot

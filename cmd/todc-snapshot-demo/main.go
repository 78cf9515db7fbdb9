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

// Command todc-snapshot-demo drives an UnboundedSnapshot with several
// concurrent writers and readers, records every Scan and Update performed
// against it, and checks the resulting history for linearizability. It
// exists to exercise the snapshot/recording/linearizability packages
// end-to-end without any network transport in the way.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/dijkstracula/todc/linearizability"
	"github.com/dijkstracula/todc/recording"
	"github.com/dijkstracula/todc/snapshot"
	"github.com/dijkstracula/todc/specifications"
)

func main() {
	components := flag.Int("components", 4, "number of snapshot components, one per writer")
	updates := flag.Int("updates", 20, "number of updates each writer performs")
	scanners := flag.Int("scanners", 2, "number of additional reader-only processes")
	seed := flag.Int64("seed", 1, "seed for each writer's pseudo-random update values")
	flag.Parse()

	n := *components
	underlying := snapshot.NewUnboundedMutexSnapshot[int](n)
	recorded := recording.NewRecordingSnapshot[int](underlying)

	var wg sync.WaitGroup
	for pid := 0; pid < n; pid++ {
		wg.Add(1)
		go func(pid int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(*seed + int64(pid)))
			for i := 0; i < *updates; i++ {
				recorded.Update(pid, rng.Intn(1000))
				recorded.Scan(pid)
			}
		}(pid)
	}
	for s := 0; s < *scanners; s++ {
		wg.Add(1)
		go func(pid int) {
			defer wg.Done()
			for i := 0; i < *updates; i++ {
				recorded.Scan(pid)
				time.Sleep(time.Microsecond)
			}
		}(n + s)
	}
	wg.Wait()

	history, err := recorded.History()
	if err != nil {
		fmt.Println("failed to build history:", err)
		return
	}

	recordedOps := history.Len() / 2

	spec := specifications.NewSnapshotSpecification[int](n)
	checker := linearizability.NewChecker[specifications.SnapshotOperation[int]](spec)
	linearizable := checker.IsLinearizable(history)

	fmt.Printf("recorded %d operations across %d components (%d writers, %d scanners)\n",
		recordedOps, n, n, *scanners)
	fmt.Printf("linearizable: %v\n", linearizable)
}

// Package hammer runs a test body concurrently to surface races: goroutines
// are started one by one, held at a gate until all of them are running, then
// released together.
package hammer

import (
	"runtime"
	"sync"
	"testing"
)

// Run launches p goroutines, blocks until all of them are running, then
// releases them at once to invoke test n times each. A panic inside the
// body, including a require failure, fails t instead of crashing the run.
func Run(t *testing.T, p, n int, test func(p, n int)) {
	t.Helper()
	defer runtime.GOMAXPROCS(runtime.GOMAXPROCS(p / 2)) // Force goroutines to share cores.

	running := make(chan struct{})
	finished := make(chan struct{})
	var gate sync.WaitGroup
	gate.Add(1)

	for g := 0; g < p; g++ {
		g := g
		go func() {
			defer func() {
				if recovered := recover(); recovered != nil {
					// Seen as string, runtime.errorString and others; let
					// printing handle the conversion.
					t.Error(recovered)
				}
				finished <- struct{}{}
			}()
			running <- struct{}{}

			gate.Wait()
			for i := 0; i < n; i++ {
				test(g, i)
			}
		}()
	}

	for i := 0; i < p; i++ {
		<-running
	}
	gate.Done()
	for i := 0; i < p; i++ {
		<-finished
	}
}

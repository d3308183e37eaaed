// Package parallel provides a bounded parallel-for used by the attention engine.
package parallel

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled    bool // Whether parallel execution is enabled.
	NumWorkers int  // Maximum number of concurrent goroutines.
	MinItems   int  // Below this many items the loop runs sequentially.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:    n > 1,
		NumWorkers: n,
		MinItems:   2,
	}
}

// Sequential returns a configuration that never spawns goroutines.
func Sequential() Config {
	return Config{}
}

// Parallel reports whether a loop of n items would run concurrently.
func (c Config) Parallel(n int) bool {
	return c.Enabled && c.NumWorkers > 1 && n >= max(c.MinItems, 2)
}

// PanicError carries a panic raised by an iteration back to the caller of For.
type PanicError struct {
	Index int
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("parallel: iteration %d panicked: %v", e.Index, e.Value)
}

// For executes f(i) for i in [0, n) and returns the first error.
//
// Sequential execution stops at the first error. In parallel mode every
// iteration is started (at most NumWorkers at a time) and a panic inside an
// iteration is returned as a *PanicError instead of crashing the process.
func For(n int, f func(i int) error, cfg Config) error {
	if !cfg.Parallel(n) {
		for i := 0; i < n; i++ {
			if err := f(i); err != nil {
				return err
			}
		}
		return nil
	}

	var g errgroup.Group
	g.SetLimit(cfg.NumWorkers)
	for i := 0; i < n; i++ {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &PanicError{Index: i, Value: r}
				}
			}()
			return f(i)
		})
	}
	return g.Wait()
}

// Package batch provides the progressive batch runner shared by the access
// graph builder and the password health analyzer. Inputs are partitioned into
// fixed-size chunks that are processed strictly in order, with one progress
// record emitted per chunk so large datasets never block a consumer for long
// synchronous spans.
package batch

import (
	"context"
	"runtime"
	"time"
)

// State classifies a progress emission.
type State int

const (
	// StateRunning marks a non-terminal emission after one completed batch.
	StateRunning State = iota
	// StateComplete marks the terminal emission carrying the full result set.
	StateComplete
	// StateError marks a terminal emission after a failure; previously
	// accumulated results are preserved.
	StateError
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateComplete:
		return "complete"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further emissions follow this state.
func (s State) Terminal() bool {
	return s != StateRunning
}

// Progress is one emission from a progressive run. Partial holds every result
// accumulated so far; on the terminal StateComplete emission it is the full
// result set.
type Progress[T any] struct {
	State           State
	ProcessedCount  int
	TotalCount      int
	PercentComplete float64
	Partial         []T
	Elapsed         time.Duration
	Err             error
}

// Func processes one batch of inputs into zero or more results. A batch is
// atomic from the consumer's perspective: its results are either emitted in
// full or not at all.
type Func[I, O any] func(ctx context.Context, batch []I) ([]O, error)

// Partition splits items into chunks of at most size elements, preserving
// order. A non-positive size yields a single chunk.
func Partition[T any](items []T, size int) [][]T {
	if size <= 0 {
		if len(items) == 0 {
			return nil
		}
		return [][]T{items}
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}

// Run processes items in batches of batchSize, strictly in order, and returns
// a channel of progress records. One StateRunning record follows every batch;
// a separate terminal StateComplete (or StateError) record closes the stream.
// Empty input short-circuits to an immediate StateComplete emission. The
// runner yields between batches and honors context cancellation at batch
// boundaries, so no partial batch is ever observed.
//
// A consumer may stop receiving at any point but must then cancel ctx: every
// send also waits on ctx.Done, so cancellation always releases the producer
// goroutine.
func Run[I, O any](ctx context.Context, items []I, batchSize int, fn Func[I, O]) <-chan Progress[O] {
	out := make(chan Progress[O], 1)

	go func() {
		defer close(out)

		// emit blocks until the record is consumed or the context is
		// cancelled. A false return means the stream was abandoned.
		emit := func(p Progress[O]) bool {
			select {
			case out <- p:
				return true
			case <-ctx.Done():
				return false
			}
		}

		start := time.Now()
		total := len(items)
		if total == 0 {
			// Buffered channel, never blocks.
			out <- Progress[O]{
				State:           StateComplete,
				TotalCount:      0,
				PercentComplete: 100,
				Elapsed:         time.Since(start),
			}
			return
		}

		var results []O
		processed := 0
		for _, chunk := range Partition(items, batchSize) {
			select {
			case <-ctx.Done():
				// Best effort: the consumer already cancelled, so never
				// block on delivering the terminal record.
				select {
				case out <- Progress[O]{
					State:           StateError,
					ProcessedCount:  processed,
					TotalCount:      total,
					PercentComplete: percent(processed, total),
					Partial:         results,
					Elapsed:         time.Since(start),
					Err:             ctx.Err(),
				}:
				default:
				}
				return
			default:
			}

			batchResults, err := fn(ctx, chunk)
			if err != nil {
				emit(Progress[O]{
					State:           StateError,
					ProcessedCount:  processed,
					TotalCount:      total,
					PercentComplete: percent(processed, total),
					Partial:         results,
					Elapsed:         time.Since(start),
					Err:             err,
				})
				return
			}

			results = append(results, batchResults...)
			processed += len(chunk)

			if !emit(Progress[O]{
				State:           StateRunning,
				ProcessedCount:  processed,
				TotalCount:      total,
				PercentComplete: percent(processed, total),
				Partial:         results,
				Elapsed:         time.Since(start),
			}) {
				return
			}

			// Yield between batches so long runs interleave with other work.
			runtime.Gosched()
		}

		emit(Progress[O]{
			State:           StateComplete,
			ProcessedCount:  processed,
			TotalCount:      total,
			PercentComplete: 100,
			Partial:         results,
			Elapsed:         time.Since(start),
		})
	}()

	return out
}

func percent(processed, total int) float64 {
	if total == 0 {
		return 100
	}
	return float64(processed) / float64(total) * 100
}

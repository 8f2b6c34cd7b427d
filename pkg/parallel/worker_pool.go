package parallel

import (
	"fmt"
	"math"
	"sync"
)

// WorkerPool runs submitted tasks on a fixed set of goroutines.
type WorkerPool struct {
	workers   int
	taskQueue chan func()
	wg        sync.WaitGroup
	once      sync.Once
	mu        sync.RWMutex // Protects taskQueue from concurrent close during send
	closed    bool         // Protected by mu

	panicMu sync.Mutex
	panics  []any
}

// ErrTooManyWorkers is returned when the worker count exceeds the maximum allowed.
var ErrTooManyWorkers = fmt.Errorf("worker count exceeds maximum")

// ErrTaskPanic wraps a panic raised by a task.
var ErrTaskPanic = fmt.Errorf("task panicked")

// MaxWorkers is the maximum number of workers allowed in a pool.
const MaxWorkers = math.MaxInt / 2

// NewWorkerPool creates a pool with the given number of workers; values
// below one are raised to one.
func NewWorkerPool(workers int) (*WorkerPool, error) {
	if workers <= 0 {
		workers = 1
	}
	if workers > MaxWorkers {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrTooManyWorkers, workers, MaxWorkers)
	}

	pool := &WorkerPool{
		workers:   workers,
		taskQueue: make(chan func(), workers*2),
	}
	pool.start()
	return pool, nil
}

func (wp *WorkerPool) start() {
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for task := range wp.taskQueue {
		func() {
			defer func() {
				if r := recover(); r != nil {
					wp.panicMu.Lock()
					wp.panics = append(wp.panics, r)
					wp.panicMu.Unlock()
				}
			}()
			task()
		}()
	}
}

// Submit queues a task. It returns false once the pool is closed.
func (wp *WorkerPool) Submit(task func()) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed {
		return false
	}
	wp.taskQueue <- task
	return true
}

// Close stops accepting tasks and waits for the queued ones to finish.
func (wp *WorkerPool) Close() {
	wp.once.Do(func() {
		wp.mu.Lock()
		wp.closed = true
		close(wp.taskQueue)
		wp.mu.Unlock()
	})
	wp.wg.Wait()
}

// Wait closes the pool and reports the first task panic, if any.
func (wp *WorkerPool) Wait() error {
	wp.Close()

	wp.panicMu.Lock()
	defer wp.panicMu.Unlock()
	if len(wp.panics) > 0 {
		return fmt.Errorf("%w: %v (%d total)", ErrTaskPanic, wp.panics[0], len(wp.panics))
	}
	return nil
}

// ForEach calls fn(i) for every i in [0, n) on up to workers goroutines and
// waits for all calls. With one worker, or a single item, it runs inline.
// fn must only write state owned by index i.
func ForEach(workers, n int, fn func(i int)) error {
	if n <= 0 {
		return nil
	}
	if workers <= 1 || n == 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return nil
	}
	if workers > n {
		workers = n
	}

	pool, err := NewWorkerPool(workers)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		i := i
		pool.Submit(func() { fn(i) })
	}
	return pool.Wait()
}

package preview

import (
	"fmt"
	"log/slog"
	"sync"
)

// Scheduler runs a function later, never inline.
type Scheduler interface {
	Schedule(task func())
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(task func())

func (f SchedulerFunc) Schedule(task func()) { f(task) }

// GoScheduler runs every task on its own goroutine.
type GoScheduler struct{}

func (GoScheduler) Schedule(task func()) { go task() }

// Loop is a single goroutine task queue.
//
// Tasks run one at a time, to completion, in the order they were posted. A
// task posted while another is running waits until that one returns, which
// is how a deferred error report ends up after the render that produced it.
//
// The queue is unbounded so Post never blocks; a task posting to its own loop
// is therefore safe.
type Loop struct {
	logger *slog.Logger

	mu      sync.Mutex
	queue   []func()
	stopped bool

	wake chan struct{}
	done chan struct{}
	wg   sync.WaitGroup
}

// NewLoop starts a loop goroutine.
func NewLoop(logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	l := &Loop{
		logger: logger,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	l.wg.Add(1)
	go l.run()
	return l
}

// Post enqueues task. It reports false once the loop has been stopped.
func (l *Loop) Post(task func()) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, task)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Schedule implements Scheduler.
func (l *Loop) Schedule(task func()) {
	l.Post(task)
}

// Do posts task and waits for it to finish. It must not be called from a task
// running on the same loop.
func (l *Loop) Do(task func()) bool {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		task()
	}) {
		return false
	}
	select {
	case <-finished:
		return true
	case <-l.done:
		return false
	}
}

// Stop lets the running task finish, drops whatever is still queued and
// waits for the loop goroutine to exit.
func (l *Loop) Stop() {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.stopped = true
	l.queue = nil
	l.mu.Unlock()

	close(l.done)
	l.wg.Wait()
}

func (l *Loop) run() {
	defer l.wg.Done()
	for {
		select {
		case <-l.done:
			return
		case <-l.wake:
		}

		for {
			task, ok := l.next()
			if !ok {
				break
			}
			l.runTask(task)
		}
	}
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped || len(l.queue) == 0 {
		return nil, false
	}
	task := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return task, true
}

// runTask keeps a panicking task from killing the loop.
func (l *Loop) runTask(task func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("loop task panicked", slog.String("panic", fmt.Sprint(r)))
		}
	}()
	task()
}

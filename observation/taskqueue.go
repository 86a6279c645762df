package observation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"time"

	"github.com/delaneyj/viewparty/internal/logutil"
)

const (
	DefaultTaskQueueCapacity = 64
	DefaultTaskTickInterval  = 16 * time.Millisecond
)

// ErrLongStacksNotAvailable is returned when long stack capture is requested
// on a queue that was not created in debug mode.
var ErrLongStacksNotAvailable = errors.New("observation: long stack traces require a debug task queue")

// TaskPriority selects the lane a task runs in.
type TaskPriority uint8

const (
	// Microtask tasks run as soon as the current turn yields.
	Microtask TaskPriority = iota
	// Macrotask tasks run on the next tick, after all microtasks drained.
	Macrotask
)

func (p TaskPriority) String() string {
	switch p {
	case Microtask:
		return "microtask"
	case Macrotask:
		return "macrotask"
	default:
		return fmt.Sprintf("TaskPriority(%d)", p)
	}
}

// TaskError wraps a panic raised by a queued task.
type TaskError struct {
	Priority TaskPriority
	Value    any
	// QueuedAt is the stack of the QueueTask call, captured only when long
	// stacks are enabled.
	QueuedAt []byte
}

func (e *TaskError) Error() string {
	if len(e.QueuedAt) == 0 {
		return fmt.Sprintf("%s task panicked: %v", e.Priority, e.Value)
	}
	return fmt.Sprintf("%s task panicked: %v\nqueued at:\n%s", e.Priority, e.Value, e.QueuedAt)
}

type TaskQueueOptions struct {
	// Capacity preallocates each lane. Zero means DefaultTaskQueueCapacity.
	Capacity int
	// TickInterval paces macrotask flushes in Run.
	TickInterval time.Duration
	// Debug allows EnableLongStacks.
	Debug   bool
	OnError func(err error)
	Logger  *log.Logger
}

type task struct {
	fn    func()
	stack []byte
}

// ring is a growable FIFO over a preallocated slice.
type ring struct {
	buf   []task
	head  int
	count int
}

func newRing(capacity int) ring {
	return ring{buf: make([]task, capacity)}
}

func (r *ring) push(t task) {
	if r.count == len(r.buf) {
		grown := make([]task, len(r.buf)*2)
		for i := 0; i < r.count; i++ {
			grown[i] = r.buf[(r.head+i)%len(r.buf)]
		}
		r.buf = grown
		r.head = 0
	}
	r.buf[(r.head+r.count)%len(r.buf)] = t
	r.count++
}

func (r *ring) shift() (task, bool) {
	if r.count == 0 {
		return task{}, false
	}
	t := r.buf[r.head]
	r.buf[r.head] = task{}
	r.head = (r.head + 1) % len(r.buf)
	r.count--
	return t, true
}

// TaskQueue schedules work that must run outside the current synchronous
// turn. Tasks may be queued from any goroutine; they run on whichever
// goroutine flushes the queue.
type TaskQueue struct {
	mu         sync.Mutex
	micro      ring
	macro      ring
	wake       chan struct{}
	debug      bool
	longStacks bool
	tick       time.Duration
	onError    func(err error)
	logger     *log.Logger
}

func NewTaskQueue(opts TaskQueueOptions) *TaskQueue {
	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = DefaultTaskQueueCapacity
	}
	tick := opts.TickInterval
	if tick <= 0 {
		tick = DefaultTaskTickInterval
	}
	return &TaskQueue{
		micro:   newRing(capacity),
		macro:   newRing(capacity),
		wake:    make(chan struct{}, 1),
		debug:   opts.Debug,
		tick:    tick,
		onError: opts.OnError,
		logger:  logutil.OrDiscard(opts.Logger),
	}
}

// EnableLongStacks records the queueing stack of every task so panics can
// be traced back to their origin.
func (q *TaskQueue) EnableLongStacks() error {
	if !q.debug {
		return ErrLongStacksNotAvailable
	}
	q.mu.Lock()
	q.longStacks = true
	q.mu.Unlock()
	return nil
}

func (q *TaskQueue) QueueMicrotask(fn func()) {
	q.QueueTask(fn, Microtask)
}

func (q *TaskQueue) QueueTask(fn func(), priority TaskPriority) {
	q.mu.Lock()
	t := task{fn: fn}
	if q.longStacks {
		t.stack = debug.Stack()
	}
	if priority == Microtask {
		q.micro.push(t)
	} else {
		q.macro.push(t)
	}
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of queued microtasks and macrotasks.
func (q *TaskQueue) Pending() (micro, macro int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.micro.count, q.macro.count
}

// FlushMicrotasks runs microtasks until the lane is empty, including those
// queued by the tasks it runs.
func (q *TaskQueue) FlushMicrotasks() {
	for {
		q.mu.Lock()
		t, ok := q.micro.shift()
		q.mu.Unlock()
		if !ok {
			return
		}
		q.runTask(t, Microtask)
	}
}

// FlushTasks runs the macrotasks queued so far, draining microtasks after
// each one. Macrotasks queued while flushing wait for the next call.
func (q *TaskQueue) FlushTasks() {
	q.FlushMicrotasks()
	q.mu.Lock()
	n := q.macro.count
	q.mu.Unlock()
	for i := 0; i < n; i++ {
		q.mu.Lock()
		t, ok := q.macro.shift()
		q.mu.Unlock()
		if !ok {
			return
		}
		q.runTask(t, Macrotask)
		q.FlushMicrotasks()
	}
}

// Flush drains both lanes.
func (q *TaskQueue) Flush() {
	for {
		q.FlushTasks()
		micro, macro := q.Pending()
		if micro == 0 && macro == 0 {
			return
		}
	}
}

// Run owns the queue until ctx is done: microtasks run as soon as they are
// queued, macrotasks on every tick.
func (q *TaskQueue) Run(ctx context.Context) error {
	ticker := time.NewTicker(q.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.wake:
			q.FlushMicrotasks()
		case <-ticker.C:
			q.FlushTasks()
		}
	}
}

func (q *TaskQueue) runTask(t task, priority TaskPriority) {
	defer func() {
		if r := recover(); r != nil {
			err := &TaskError{Priority: priority, Value: r, QueuedAt: t.stack}
			q.logger.Printf("taskqueue: %v", err)
			if q.onError != nil {
				q.onError(err)
			}
		}
	}()
	t.fn()
}

package observation

import (
	"errors"
	"fmt"
	"log"

	"github.com/delaneyj/viewparty/internal/logutil"
)

// DefaultMaxFlushIterations bounds the same-flush drain loop.
const DefaultMaxFlushIterations = 100

// ErrFlushLimit is returned by Flush when handlers kept re-queuing changes
// beyond the configured iteration limit.
var ErrFlushLimit = errors.New("observation: flush iteration limit exceeded")

// Flushable is anything that can be queued on a ChangeSet.
type Flushable interface {
	FlushChanges()
}

// Scheduler defers work until the current synchronous turn has finished.
type Scheduler interface {
	QueueMicrotask(fn func())
}

type ChangeSetOptions struct {
	// MaxIterations is the number of drain rounds a single Flush may run.
	// Zero means DefaultMaxFlushIterations; negative disables the guard.
	MaxIterations int
	Logger        *log.Logger
}

// ChangeSet collects dirty observers during a turn and flushes each of them
// once. Observers dirtied by handlers during a flush are drained by the same
// flush.
type ChangeSet struct {
	scheduler     Scheduler
	logger        *log.Logger
	maxIterations int

	pending   []Flushable
	queued    map[Flushable]struct{}
	done      chan struct{}
	scheduled bool
	flushing  bool
}

// NewChangeSet creates a change set. A nil scheduler means nothing flushes
// until Flush is called.
func NewChangeSet(scheduler Scheduler, opts ChangeSetOptions) *ChangeSet {
	limit := opts.MaxIterations
	if limit == 0 {
		limit = DefaultMaxFlushIterations
	}
	return &ChangeSet{
		scheduler:     scheduler,
		logger:        logutil.OrDiscard(opts.Logger),
		maxIterations: limit,
		queued:        map[Flushable]struct{}{},
	}
}

// Add queues f for the next flush and returns a channel closed once that
// flush has completed. Adding the same observer twice per turn is a no-op.
func (cs *ChangeSet) Add(f Flushable) <-chan struct{} {
	if cs.done == nil {
		cs.done = make(chan struct{})
	}
	if _, ok := cs.queued[f]; !ok {
		cs.queued[f] = struct{}{}
		cs.pending = append(cs.pending, f)
	}
	if !cs.flushing && !cs.scheduled && cs.scheduler != nil {
		cs.scheduled = true
		cs.scheduler.QueueMicrotask(cs.flushFromScheduler)
	}
	return cs.done
}

// Size is the number of observers waiting for a flush.
func (cs *ChangeSet) Size() int {
	return len(cs.pending)
}

func (cs *ChangeSet) flushFromScheduler() {
	if err := cs.Flush(); err != nil {
		cs.logger.Printf("changeset: %v", err)
	}
}

// Flush drains the set. A Flush issued from inside a handler returns
// immediately: the outer flush picks up whatever the handler queued.
func (cs *ChangeSet) Flush() error {
	if cs.flushing {
		return nil
	}
	cs.flushing = true
	cs.scheduled = false
	defer func() {
		cs.flushing = false
		if cs.done != nil {
			close(cs.done)
			cs.done = nil
		}
	}()

	iterations := 0
	for len(cs.pending) > 0 {
		iterations++
		if cs.maxIterations > 0 && iterations > cs.maxIterations {
			dropped := len(cs.pending)
			cs.pending = nil
			cs.queued = map[Flushable]struct{}{}
			return fmt.Errorf("%w: %d rounds, %d observers dropped", ErrFlushLimit, cs.maxIterations, dropped)
		}
		batch := cs.pending
		cs.pending = nil
		for _, f := range batch {
			delete(cs.queued, f)
		}
		for _, f := range batch {
			f.FlushChanges()
		}
	}
	return nil
}

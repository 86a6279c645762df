package observation

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/delaneyj/viewparty/internal/logutil"
)

// DefaultDirtyCheckInterval is the polling period of a started DirtyChecker.
const DefaultDirtyCheckInterval = 120 * time.Millisecond

// ErrNoTaskQueue is returned when polling is started without a task queue
// to run the checks on.
var ErrNoTaskQueue = errors.New("observation: dirty checker polling needs a task queue")

type DirtyCheckerOptions struct {
	Interval time.Duration
	Logger   *log.Logger
}

// DirtyChecker is the fallback for properties nothing can intercept. It
// compares tracked properties against their last seen value. Polling is
// opt-in: until Start is called, checks only happen through Check.
type DirtyChecker struct {
	queue    *TaskQueue
	interval time.Duration
	logger   *log.Logger

	tracked  Subscribers[*DirtyCheckProperty]
	enabled  bool
	parent   context.Context
	mu       sync.Mutex
	stopPoll context.CancelFunc
	wg       sync.WaitGroup
}

func NewDirtyChecker(queue *TaskQueue, opts DirtyCheckerOptions) *DirtyChecker {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultDirtyCheckInterval
	}
	return &DirtyChecker{
		queue:    queue,
		interval: interval,
		logger:   logutil.OrDiscard(opts.Logger),
	}
}

// CreateProperty returns a dirty-checked observer for obj.key. It is only
// polled while it has subscribers.
func (dc *DirtyChecker) CreateProperty(obj any, key string) *DirtyCheckProperty {
	return &DirtyCheckProperty{checker: dc, obj: obj, key: key}
}

// Tracked is the number of properties currently being checked.
func (dc *DirtyChecker) Tracked() int {
	return dc.tracked.Len()
}

func (dc *DirtyChecker) addProperty(p *DirtyCheckProperty) {
	if dc.tracked.Add(p) && dc.tracked.Len() == 1 && dc.enabled {
		dc.startPolling()
	}
}

func (dc *DirtyChecker) removeProperty(p *DirtyCheckProperty) {
	if dc.tracked.Remove(p) && !dc.tracked.Any() {
		dc.stopPolling()
	}
}

// Check flushes every tracked property whose value moved.
func (dc *DirtyChecker) Check() {
	for _, p := range dc.tracked.Snapshot() {
		if p.IsDirty() {
			p.Flush(FromDirtyCheck | UpdateTargetInstance)
		}
	}
}

// Start enables polling for as long as ctx lives. Ticks queue a Check on the
// task queue, so handlers run wherever the queue is flushed.
func (dc *DirtyChecker) Start(ctx context.Context) error {
	if dc.queue == nil {
		return ErrNoTaskQueue
	}
	dc.enabled = true
	dc.parent = ctx
	if dc.tracked.Any() {
		dc.startPolling()
	}
	return nil
}

// Stop disables polling and waits for the poller to exit.
func (dc *DirtyChecker) Stop() {
	dc.enabled = false
	dc.stopPolling()
}

// Polling reports whether the background poller is running.
func (dc *DirtyChecker) Polling() bool {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	return dc.stopPoll != nil
}

func (dc *DirtyChecker) startPolling() {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	if dc.stopPoll != nil {
		return
	}
	parent := dc.parent
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	dc.stopPoll = cancel
	dc.logger.Printf("dirtycheck: polling every %s", dc.interval)
	dc.wg.Add(1)
	go func() {
		defer dc.wg.Done()
		ticker := time.NewTicker(dc.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				dc.queue.QueueTask(dc.Check, Macrotask)
			}
		}
	}()
}

func (dc *DirtyChecker) stopPolling() {
	dc.mu.Lock()
	cancel := dc.stopPoll
	dc.stopPoll = nil
	dc.mu.Unlock()
	if cancel != nil {
		cancel()
		dc.wg.Wait()
		dc.logger.Printf("dirtycheck: polling stopped")
	}
}

// DirtyCheckProperty observes a property by comparison.
type DirtyCheckProperty struct {
	subs     Subscribers[Subscriber]
	checker  *DirtyChecker
	obj      any
	key      string
	oldValue any
}

func (p *DirtyCheckProperty) GetValue() any {
	return GetProperty(p.obj, p.key)
}

func (p *DirtyCheckProperty) SetValue(v any, flags Flags) {
	if err := SetProperty(p.obj, p.key, v); err != nil {
		p.checker.logger.Printf("dirtycheck: %v", err)
	}
}

func (p *DirtyCheckProperty) IsDirty() bool {
	return !SameValue(p.oldValue, p.GetValue())
}

func (p *DirtyCheckProperty) Flush(flags Flags) {
	previous := p.oldValue
	current := p.GetValue()
	p.oldValue = current
	callSubscribers(&p.subs, current, previous, flags)
}

func (p *DirtyCheckProperty) Subscribe(s Subscriber) {
	if p.subs.Add(s) && p.subs.Len() == 1 {
		p.oldValue = p.GetValue()
		p.checker.addProperty(p)
	}
}

func (p *DirtyCheckProperty) Unsubscribe(s Subscriber) {
	if p.subs.Remove(s) && !p.subs.Any() {
		p.checker.removeProperty(p)
	}
}

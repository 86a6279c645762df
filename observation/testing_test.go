package observation_test

import (
	"github.com/delaneyj/viewparty/observation"
)

type change struct {
	newValue, previousValue any
	flags                   observation.Flags
}

type recorder struct {
	changes []change
	onCall  func()
}

func (r *recorder) HandleChange(newValue, previousValue any, flags observation.Flags) {
	r.changes = append(r.changes, change{newValue, previousValue, flags})
	if r.onCall != nil {
		r.onCall()
	}
}

type batchRecorder struct {
	maps    [][]int
	deleted [][]any
}

func (r *batchRecorder) HandleBatchedChange(im *observation.IndexMap, flags observation.Flags) {
	r.maps = append(r.maps, append([]int(nil), im.Indices...))
	r.deleted = append(r.deleted, append([]any(nil), im.DeletedItems...))
}

type mutationRecorder struct {
	methods []string
	args    [][]any
}

func (r *mutationRecorder) HandleCollectionChange(method string, args []any, flags observation.Flags) {
	r.methods = append(r.methods, method)
	r.args = append(r.args, args)
}

// manualScheduler holds microtasks until run is called.
type manualScheduler struct {
	tasks []func()
}

func (s *manualScheduler) QueueMicrotask(fn func()) {
	s.tasks = append(s.tasks, fn)
}

func (s *manualScheduler) run() {
	for len(s.tasks) > 0 {
		fn := s.tasks[0]
		s.tasks = s.tasks[1:]
		fn()
	}
}

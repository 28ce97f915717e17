package werkit

import (
	"context"
	"sync"

	"github.com/Dynom/mxprobe/types"
	"github.com/Dynom/mxprobe/validator"
)

// CheckTask is a single unit of work, Index is the position of the address in the input
type CheckTask struct {
	Ctx   context.Context
	Fn    validator.CheckFn
	Parts types.EmailParts
	Index int
}

// Worker consumes tasks until the channel is closed
type Worker func(tasks <-chan CheckTask)

// WerkIt is a fixed size worker pool. Tasks are handed over unbuffered, so at most one task per worker is in flight.
type WerkIt struct {
	wg    sync.WaitGroup
	tasks chan CheckTask
}

func (wi *WerkIt) StartCheckWorkers(workers int, fn Worker) {
	if workers < 1 {
		workers = 1
	}

	wi.tasks = make(chan CheckTask)
	wi.wg.Add(workers)
	for i := workers; i > 0; i-- {
		go func() {
			defer wi.wg.Done()
			fn(wi.tasks)
		}()
	}
}

// Wait closes the task channel and blocks until every worker returned
func (wi *WerkIt) Wait() {
	close(wi.tasks)
	wi.wg.Wait()
}

// Process blocks until a worker picks up the task, or until the task's context is done. In the latter case the
// context's error is returned and the task is never run.
func (wi *WerkIt) Process(t CheckTask) error {
	if err := t.Ctx.Err(); err != nil {
		return err
	}

	select {
	case wi.tasks <- t:
		return nil
	case <-t.Ctx.Done():
		return t.Ctx.Err()
	}
}

package worker

import (
	"context"
	"sync"
)

// LocalDispatcher runs jobs on detached goroutines when no broker is configured.
type LocalDispatcher struct {
	processor *Processor
	wg        sync.WaitGroup
}

func NewLocalDispatcher(processor *Processor) *LocalDispatcher {
	return &LocalDispatcher{processor: processor}
}

// Dispatch returns immediately. The job outlives the caller's context.
func (d *LocalDispatcher) Dispatch(ctx context.Context, job IngestJob) error {
	jobCtx := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		_ = d.processor.Handle(jobCtx, job)
	}()
	return nil
}

// Wait blocks until every dispatched job has finished.
func (d *LocalDispatcher) Wait() {
	d.wg.Wait()
}

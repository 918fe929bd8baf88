package pipeline

import "context"

// Future is the observable handle for an async job. The zero value is not
// usable; obtain one from UploadAsync.
type Future struct {
	done   chan struct{}
	cancel context.CancelFunc
	result Result
}

// Wait blocks until the job completes and returns its result. Callers who
// need bounded latency should select on Done with their own deadline.
func (f *Future) Wait() Result {
	<-f.done
	return f.result
}

// Done is closed when the job has completed, successfully or not.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Cancel requests best-effort cancellation. If the agent process has already
// started it is terminated and the job fails as cancelled; a job that has
// already completed is unaffected.
func (f *Future) Cancel() {
	f.cancel()
}

package parallel

import (
	gbterrors "github.com/binsetlab/gbdtbin/pkg/errors"
)

// panicToError normalizes a recovered panic value into an error so that
// ParallelizeErr can treat worker panics and worker-returned errors the
// same way when picking the first observed failure. Non-error panic
// values are wrapped in a PanicError carrying the worker's stack trace.
func panicToError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return gbterrors.NewPanicError("parallel worker", r)
}

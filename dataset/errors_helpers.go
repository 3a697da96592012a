package dataset

import gbterrors "github.com/binsetlab/gbdtbin/pkg/errors"

func newContractViolation(op, format string, args ...any) error {
	return gbterrors.NewContractViolation(op, format, args...)
}

func newLengthMismatch(op string, want, got int) error {
	return gbterrors.NewContractViolation(op, "expected length %d, got %d", want, got)
}

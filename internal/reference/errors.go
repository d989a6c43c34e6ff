package reference

import "errors"

// Error kinds returned by readers. Callers test for them with errors.Is;
// the returned errors wrap these with request context.
var (
	// ErrNotFound reports a missing FASTA/index at open time or an unknown contig.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument reports a malformed interval or an empty raw fetch.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrFailedPrecondition reports use of a closed reader.
	ErrFailedPrecondition = errors.New("failed precondition")

	// ErrCorruptIndex reports an index whose contig table cannot be trusted.
	ErrCorruptIndex = errors.New("corrupt index")

	// ErrDataLoss reports FASTA content that cannot be parsed.
	ErrDataLoss = errors.New("data loss")
)

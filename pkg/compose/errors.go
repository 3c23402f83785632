package compose

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("compose: aborted")
	// ErrDiscarded signals the user declined the final save confirmation.
	ErrDiscarded = errors.New("compose: discarded")
)

package snapshot

import "errors"

// Sentinel kinds for strict thrown-stone detection.
var (
	ErrNoThrownObject = errors.New("no thrown stone identified")
	ErrAmbiguousThrow = errors.New("more than one new stone for the acting side")
)

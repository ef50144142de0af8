package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	// Job repository sentinels.
	ErrJobNotFound = errors.New("job not found")
	// ErrStaleStatus is returned when a compare-and-set transition matched no
	// rows because the job already moved to a different status.
	ErrStaleStatus = errors.New("job status changed concurrently")

	// Offer repository sentinels.
	ErrOfferNotFound = errors.New("offer not found")
)

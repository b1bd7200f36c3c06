package services

import "errors"

var (
	ErrBadCreds = errors.New("invalid email or password")

	// ErrCapacityExceeded rejects an intake once today's slip count has
	// reached the max_cars_per_day setting.
	ErrCapacityExceeded = errors.New("daily intake limit reached")

	// ErrNotFound means a referenced slip, repair, item or component id
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition means the slip was not in the status the
	// transition requires (e.g. paying twice, starting a started repair).
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrTotalMismatch means the client-submitted total disagrees with the
	// server-side recomputation beyond rounding tolerance.
	ErrTotalMismatch = errors.New("submitted total does not match computed total")
)

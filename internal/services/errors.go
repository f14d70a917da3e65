package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("you are not allowed to perform this action")
	ErrInvalidTransition  = errors.New("invalid reservation status change")
	ErrBookingClosed      = errors.New("bookings are currently closed")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already in use")
	ErrUnauthorized       = errors.New("authentication required")
	ErrUploadsDisabled    = errors.New("image uploads are not configured")
)

// ValidationError is a client mistake in the request payload.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// SeatConflictError lists the requested seats that are already held.
type SeatConflictError struct {
	Seats []int
}

func newSeatConflict(seats []int) *SeatConflictError {
	uniq := make(map[int]struct{}, len(seats))
	out := make([]int, 0, len(seats))
	for _, s := range seats {
		if _, ok := uniq[s]; ok {
			continue
		}
		uniq[s] = struct{}{}
		out = append(out, s)
	}
	sort.Ints(out)
	return &SeatConflictError{Seats: out}
}

func (e *SeatConflictError) Error() string {
	parts := make([]string, len(e.Seats))
	for i, s := range e.Seats {
		parts[i] = fmt.Sprintf("#%d", s)
	}
	return "seats already reserved: " + strings.Join(parts, ", ")
}

package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates that the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrCheckInExists indicates a second check-in for the same user and day.
	ErrCheckInExists = errors.New("check-in already submitted for this day")
	// ErrUnsupportedGender indicates a gender the BMR formula has no offset for.
	ErrUnsupportedGender = errors.New("unsupported gender")
	// ErrInvalidTables indicates constant tables that would break an engine.
	ErrInvalidTables = errors.New("invalid tables")
)

// MissingProfileFieldError is returned when a profile lacks a field the
// baseline energy formula needs.
type MissingProfileFieldError struct {
	Fields   []string
	WeightKG *float64
	HeightCM *float64
	Age      *int
	Gender   *Gender
}

func (e *MissingProfileFieldError) Error() string {
	return fmt.Sprintf("missing profile fields [%s] (weight=%s height=%s age=%s gender=%s)",
		strings.Join(e.Fields, ", "),
		fmtPtr(e.WeightKG), fmtPtr(e.HeightCM), fmtPtr(e.Age), fmtPtr(e.Gender))
}

func fmtPtr[T any](p *T) string {
	if p == nil {
		return "<nil>"
	}
	return fmt.Sprint(*p)
}

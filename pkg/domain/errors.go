package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by core operations. Use errors.Is to match them.
var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateAccount  = errors.New("duplicate account")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrEmptyMessage      = errors.New("empty message")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidInput      = errors.New("invalid input")
)

// NotFoundError names the missing record.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// Is matches ErrNotFound.
func (e NotFoundError) Is(target error) bool { return target == ErrNotFound }

// TransitionError describes a status change absent from the lifecycle table.
type TransitionError struct {
	ReportID string
	From     ReportStatus
	To       ReportStatus
}

func (e TransitionError) Error() string {
	return fmt.Sprintf("invalid transition for report %s: %q -> %q", e.ReportID, e.From, e.To)
}

// Is matches ErrInvalidTransition.
func (e TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

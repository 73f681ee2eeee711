package domain

import (
	"errors"
	"strings"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("not found")
	ErrBookUnavailable     = errors.New("book is not available for reservation")
	ErrReservationConflict = errors.New("book is already reserved for the selected dates")
	ErrAlreadyReturned     = errors.New("reservation is already returned")
	ErrEmailTaken          = errors.New("email already exists")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrHasActiveRentals    = errors.New("active reservations exist")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
)

// ValidationError набор сообщений о некорректном вводе.
// errors.Is(err, ErrValidation) для нее истинно.
type ValidationError struct {
	Messages []string
}

func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NotFoundError сообщает, какой объект не найден.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return e.Entity + " not found"
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func NewNotFound(entity string) error {
	return &NotFoundError{Entity: entity}
}

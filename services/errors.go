package services

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Engine error taxonomy. Handlers map these onto HTTP statuses; everything
// else surfaces as a 500.
var (
	ErrUnauthenticated  = errors.New("no active session")
	ErrNotFound         = errors.New("record not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrAlreadyCompleted = errors.New("already completed today")
	ErrAlreadyActive    = errors.New("battle already active")
	ErrConflict         = errors.New("concurrent update conflict")
)

// translateDBError converts gorm's not-found into the engine taxonomy so
// callers never have to import gorm to classify failures.
func translateDBError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// StatusForError maps an engine error onto an HTTP status code.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return fiber.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrAlreadyCompleted),
		errors.Is(err, ErrAlreadyActive),
		errors.Is(err, ErrConflict):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

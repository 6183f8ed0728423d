package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/animerch/internal/repo"
)

var (
	ErrValidation         = errors.New("validation")          // 400
	ErrNotFound           = errors.New("not found")           // 404
	ErrForbidden          = errors.New("forbidden")           // 401, caller does not own the resource
	ErrInsufficientStock  = errors.New("insufficient stock")  // 400
	ErrAlreadyReviewed    = errors.New("already reviewed")    // 400
	ErrInvalidTransition  = errors.New("invalid transition")  // 400
	ErrAlreadyExists      = errors.New("already exists")      // 400
	ErrInvalidCredentials = errors.New("invalid credentials") // 400
	ErrConflict           = errors.New("conflict")            // 409
)

// Reason returns the client-facing text of an error built as
// fmt.Errorf("%w: <text>", ErrX).
func Reason(err error) string {
	msg := err.Error()
	if _, after, ok := strings.Cut(msg, ": "); ok {
		return after
	}
	return msg
}

func notFound(err error, format string, args ...any) error {
	if repo.IsNotFound(err) {
		return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
	}
	return err
}

func validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

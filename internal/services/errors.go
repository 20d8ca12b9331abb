package services

import (
	"errors"
	"net/http"

	repo "github.com/slugpoints/slugpoints-backend/internal/repository"
	"github.com/slugpoints/slugpoints-backend/internal/validation"
)

// OpError is a rejected operation carried as a value: the HTTP status
// classification, a machine code, and the human-readable reason. Anything
// that is not an OpError is an internal fault and surfaces as a generic 500.
type OpError struct {
	Status  int
	Code    string
	Message string
}

func (e *OpError) Error() string { return e.Message }

func opError(status int, code, message string) *OpError {
	return &OpError{Status: status, Code: code, Message: message}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusUnauthorized:
		return "unauthorized"
	default:
		return "invalid_input"
	}
}

// fromResult translates a failed validation result.
func fromResult(res validation.Result) *OpError {
	return opError(res.Status, codeForStatus(res.Status), res.Err)
}

// fromRepoError maps repository sentinels onto the lifecycle error surface.
// These fire when a concurrent actor won a race after validation passed, so
// the messages match what validation would have said. Unknown errors pass
// through as internal faults.
func fromRepoError(err error) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return opError(http.StatusNotFound, "not_found", "Request not found")
	case errors.Is(err, repo.ErrNotPending):
		return opError(http.StatusBadRequest, "invalid_state", "Request is no longer pending")
	case errors.Is(err, repo.ErrInsufficientBalance):
		return opError(http.StatusBadRequest, "insufficient_balance", "Insufficient points balance")
	}
	return err
}

package approvalflow

import (
	"errors"
	"fmt"
	"time"
)

// Error codes
const (
	ErrCodeNotFound                = "NOT_FOUND"
	ErrCodeInvalidState            = "INVALID_STATE"
	ErrCodeForbidden               = "FORBIDDEN"
	ErrCodeConflict                = "CONFLICT"
	ErrCodeCollaboratorUnavailable = "COLLABORATOR_UNAVAILABLE"
	ErrCodeValidation              = "VALIDATION_ERROR"
	ErrCodeInternal                = "INTERNAL_ERROR"
)

// Error is the coded error returned by the engine and the stores
type Error struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	WorkflowID string                 `json:"workflowId,omitempty"`
	StageID    string                 `json:"stageId,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.StageID != "" {
		msg += fmt.Sprintf(" (stage: %s)", e.StageID)
	} else if e.WorkflowID != "" {
		msg += fmt.Sprintf(" (workflow: %s)", e.WorkflowID)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on error code, so errors.Is(err, &Error{Code: ErrCodeConflict}) works
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewError creates a new coded error
func NewError(code, message string) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// WithWorkflow attaches the workflow id
func (e *Error) WithWorkflow(workflowID string) *Error {
	e.WorkflowID = workflowID
	return e
}

// WithStage attaches the stage id
func (e *Error) WithStage(stageID string) *Error {
	e.StageID = stageID
	return e
}

// WithDetails adds details to the error
func (e *Error) WithDetails(details map[string]interface{}) *Error {
	e.Details = details
	return e
}

// WithCause records the underlying error
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// Sentinel values for errors.Is
var (
	ErrNotFound                = &Error{Code: ErrCodeNotFound}
	ErrInvalidState            = &Error{Code: ErrCodeInvalidState}
	ErrForbidden               = &Error{Code: ErrCodeForbidden}
	ErrConflict                = &Error{Code: ErrCodeConflict}
	ErrCollaboratorUnavailable = &Error{Code: ErrCodeCollaboratorUnavailable}
	ErrValidation              = &Error{Code: ErrCodeValidation}
)

func NewNotFoundError(message string) *Error {
	return NewError(ErrCodeNotFound, message)
}

func NewInvalidStateError(message string) *Error {
	return NewError(ErrCodeInvalidState, message)
}

func NewForbiddenError(message string) *Error {
	return NewError(ErrCodeForbidden, message)
}

func NewConflictError(message string) *Error {
	return NewError(ErrCodeConflict, message)
}

func NewValidationError(message string) *Error {
	return NewError(ErrCodeValidation, message)
}

// NewCollaboratorUnavailableError wraps a failed store or registry call
func NewCollaboratorUnavailableError(collaborator string, cause error) *Error {
	return NewError(ErrCodeCollaboratorUnavailable, collaborator+" unavailable").WithCause(cause)
}

// CodeOf returns the code of a coded error, or ErrCodeInternal for anything else
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}

// AsCollaboratorError keeps coded errors as they are and wraps anything else
// as COLLABORATOR_UNAVAILABLE.
func AsCollaboratorError(collaborator string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return NewCollaboratorUnavailableError(collaborator, err)
}

// IsNotFound checks if an error is a not-found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidState checks if an error is an invalid-state error
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState)
}

// IsForbidden checks if an error is a forbidden error
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsConflict checks if an error is an optimistic concurrency conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsCollaboratorUnavailable checks if a collaborator call failed
func IsCollaboratorUnavailable(err error) bool {
	return errors.Is(err, ErrCollaboratorUnavailable)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

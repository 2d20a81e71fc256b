package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// sqlStateInvalidText is raised by Postgres when a value cannot be parsed
// into the column type, such as a malformed UUID.
const sqlStateInvalidText = "22P02"

// Error codes understood by API clients.
const (
	CodeValidation        = "VALIDATION_FAILED"
	CodeNotFound          = "NOT_FOUND"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeConflict          = "CONFLICT"
	CodeInternal          = "INTERNAL_ERROR"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeAlreadyEscalated  = "ALREADY_ESCALATED"
	CodeTerminalState     = "TERMINAL_STATE"
	CodeNoEligibleStaff   = "NO_ELIGIBLE_STAFF"
	CodeInvalidAssignee   = "INVALID_ASSIGNEE"
	CodeInvalidInterval   = "INVALID_INTERVAL"
	CodeSweepInProgress   = "SWEEP_IN_PROGRESS"
)

// Sentinels for errors.Is checks. Matching is by code, so any DomainError
// built with the same code satisfies errors.Is against these.
var (
	ErrValidation        = &DomainError{Code: CodeValidation}
	ErrNotFound          = &DomainError{Code: CodeNotFound}
	ErrConflict          = &DomainError{Code: CodeConflict}
	ErrInvalidTransition = &DomainError{Code: CodeInvalidTransition}
	ErrAlreadyEscalated  = &DomainError{Code: CodeAlreadyEscalated}
	ErrTerminalState     = &DomainError{Code: CodeTerminalState}
	ErrNoEligibleStaff   = &DomainError{Code: CodeNoEligibleStaff}
	ErrInvalidAssignee   = &DomainError{Code: CodeInvalidAssignee}
	ErrInvalidInterval   = &DomainError{Code: CodeInvalidInterval}
	ErrSweepInProgress   = &DomainError{Code: CodeSweepInProgress}
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Message == "" {
		return e.Code
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError carrying the same code.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewInvalidTransition(from, to string) error {
	return NewDomainError(CodeInvalidTransition,
		fmt.Sprintf("cannot transition from %s to %s", from, to),
		http.StatusConflict,
		map[string]any{"from": from, "to": to})
}

func NewAlreadyEscalated(complaintID string) error {
	return NewDomainError(CodeAlreadyEscalated, "complaint already escalated",
		http.StatusConflict, map[string]any{"complaint_id": complaintID})
}

func NewTerminalState(complaintID, status string) error {
	return NewDomainError(CodeTerminalState, "complaint is in a terminal state",
		http.StatusConflict, map[string]any{"complaint_id": complaintID, "status": status})
}

func NewNoEligibleStaff(department string) error {
	return NewDomainError(CodeNoEligibleStaff, "no eligible staff available",
		http.StatusConflict, map[string]any{"department": department})
}

func NewInvalidAssignee(staffID string) error {
	return NewDomainError(CodeInvalidAssignee, "assignee must be an active staff member or admin",
		http.StatusUnprocessableEntity, map[string]any{"staff_id": staffID})
}

func NewInvalidInterval(minutes, min, max int) error {
	return NewDomainError(CodeInvalidInterval,
		fmt.Sprintf("interval must be between %d and %d minutes", min, max),
		http.StatusBadRequest,
		map[string]any{"minutes": minutes})
}

func NewSweepInProgress() error {
	return NewDomainError(CodeSweepInProgress, "an escalation sweep is already running", http.StatusConflict, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		if domainErr.HTTPStatus == 0 {
			copied := *domainErr
			copied.HTTPStatus = http.StatusInternalServerError
			return &copied
		}
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) || IsMalformedID(err) {
		return NewNotFound("resource", nil).(*DomainError)
	}
	return NewInternalError(err).(*DomainError)
}

// IsMalformedID reports whether err is Postgres rejecting an identifier that
// does not parse as its column type. No row can match such an id.
func IsMalformedID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == sqlStateInvalidText
}

func MapError(err error) error {
	return ToDomainError(err)
}

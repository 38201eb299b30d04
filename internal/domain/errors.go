package domain

import (
	"fmt"
	"strings"
)

// ValidationError reports every problem found in the input, not just the
// first one, so callers can surface them as a single user-facing error.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

func NewValidationError(problems ...string) *ValidationError {
	return &ValidationError{Problems: problems}
}

// NotFoundError covers both genuinely absent entities and tenant
// mismatches. The two cases are deliberately indistinguishable so a
// lookup cannot leak cross-tenant existence.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// StateConflictError is returned when an operation is attempted from a
// contract status that forbids it. It always names the required
// status(es).
type StateConflictError struct {
	Operation string
	Current   ContractStatus
	Required  []ContractStatus
}

func (e *StateConflictError) Error() string {
	required := make([]string, len(e.Required))
	for i, s := range e.Required {
		required[i] = string(s)
	}
	return fmt.Sprintf("%s requires status %s, contract is %s", e.Operation, strings.Join(required, " or "), e.Current)
}

func NewStateConflictError(operation string, current ContractStatus, required ...ContractStatus) *StateConflictError {
	return &StateConflictError{Operation: operation, Current: current, Required: required}
}

// IntegrityError means a recomputed digest did not match the stored one.
// This is a security incident, never corrected or retried automatically.
type IntegrityError struct {
	Subject  string
	Expected string
	Actual   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s integrity check failed: data may have been tampered (expected %s, got %s)", e.Subject, e.Expected, e.Actual)
}

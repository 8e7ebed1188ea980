package core

import "fmt"

// Error taxonomy shared by the service, repositories and handlers.
// Repositories and the orchestrator return these; the HTTP boundary
// maps them onto status codes with errors.As and never leaks internal
// error text for anything else.

// ValidationError signals malformed input. Never retried.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NotFoundError covers both true absence and ownership mismatch; the
// two are deliberately indistinguishable to the caller.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ConflictError signals creation with a duplicate identity.
type ConflictError struct {
	Resource string
	ID       string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s already exists", e.Resource, e.ID)
}

// ProcessingError wraps any failure inside the processing pipeline.
// The document it refers to has already been persisted as failed.
type ProcessingError struct {
	DocumentID string
	Err        error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("processing document %s: %v", e.DocumentID, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// CollaboratorUnavailableError means the content analysis capability is
// unreachable or unconfigured. It is never surfaced to callers: the
// orchestrator answers it with the deterministic fallback analysis.
type CollaboratorUnavailableError struct {
	Collaborator string
	Err          error
}

func (e *CollaboratorUnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Collaborator, e.Err)
}

func (e *CollaboratorUnavailableError) Unwrap() error { return e.Err }

// RepositoryError wraps persistence failures. Fatal to the current
// operation; there is no automatic retry.
type RepositoryError struct {
	Op  string
	Err error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository %s: %v", e.Op, e.Err)
}

func (e *RepositoryError) Unwrap() error { return e.Err }

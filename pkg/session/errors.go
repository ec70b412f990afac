package session

import "errors"

// Sentinel errors for session operations.
var (
	// ErrContainerNotFound is returned when the container named by the
	// navigation context does not exist in the API.
	ErrContainerNotFound = errors.New("container not found")
	// ErrCommitInProgress is returned when a commit or revert is attempted
	// while a commit is pending.
	ErrCommitInProgress = errors.New("commit already in progress")
	// ErrMissingTemplateKey is returned when committing templates without a key.
	ErrMissingTemplateKey = errors.New("response template key is required")
	// ErrNilAPI is returned when a session is opened without an API.
	ErrNilAPI = errors.New("api is nil")
	// ErrNoPersister is returned when Commit is called without a Persister.
	ErrNoPersister = errors.New("no persister configured")
)

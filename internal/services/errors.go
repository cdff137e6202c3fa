// internal/services/errors.go
package services

import "errors"

// Sentinel errors shared across services. Handlers map these to HTTP
// statuses with errors.Is; wrapped variants carry the human detail.
var (
	ErrValidation = errors.New("validation failed")

	// ErrNoApprover means no approver email could be resolved from the
	// request, configuration, or the user directory.
	ErrNoApprover = errors.New("no approver available")

	// ErrInvalidToken covers both unknown and malformed tokens. Callers
	// must not be able to distinguish a token that never existed from a
	// wrong guess.
	ErrInvalidToken = errors.New("approval token not found")

	ErrAlreadyDecided = errors.New("approval request already decided")
	ErrExpired        = errors.New("approval token expired")

	// ErrInvalidState is the store-level failure for a transition that
	// found the row no longer pending.
	ErrInvalidState = errors.New("approval request is not pending")

	// ErrSubmissionMissing is the non-fatal outcome of attaching a
	// signature when no matching form submission exists yet.
	ErrSubmissionMissing = errors.New("no matching form submission")

	ErrNotFound           = errors.New("record not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserSuspended      = errors.New("user account suspended")
	ErrEmailTaken         = errors.New("email already registered")
)

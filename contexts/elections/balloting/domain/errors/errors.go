package errors

import "errors"

var (
	ErrInvalidInput           = errors.New("invalid ballot input")
	ErrVoterNotFound          = errors.New("voter not found")
	ErrNotVerified            = errors.New("voter is not verified")
	ErrAlreadyVoted           = errors.New("voter has already voted")
	ErrWindowClosed           = errors.New("voting is not open")
	ErrIncompleteBallot       = errors.New("ballot is incomplete")
	ErrInvalidSelection       = errors.New("ballot selection is invalid")
	ErrPersistence            = errors.New("ballot could not be persisted")
	ErrNoClaimedBallot        = errors.New("voter has no claimed ballot to recover")
	ErrRecoveryInProgress     = errors.New("ballot recovery already in progress")
	ErrReconciliationNotFound = errors.New("reconciliation item not found")
	ErrReconciliationResolved = errors.New("reconciliation item is already resolved")
	ErrResultsNotPublished    = errors.New("results are not published")
	ErrCandidateNotFound      = errors.New("candidate not found")
)


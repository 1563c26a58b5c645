package errors

import (
	"errors"
)

// Sentinel errors for different categories
var (
	// ErrParseFailure - a record could not be turned into numbers (skip the record, continue the batch)
	ErrParseFailure = errors.New("parse failure")

	// ErrUnknownTool - the model asked for a tool that is not registered (abort the dispatch loop)
	ErrUnknownTool = errors.New("unknown tool")

	// ErrExternalService - store, model or mail transport failed (report a status string to the user)
	ErrExternalService = errors.New("external service failure")

	// ErrStaleData - derived cells are already filled (success no-op)
	ErrStaleData = errors.New("stale data")

	// ErrMaxRounds - the model kept calling tools past the configured round limit
	ErrMaxRounds = errors.New("max tool rounds reached")

	// ErrInvalidInput - invalid input (show validation error)
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound - resource not found
	ErrNotFound = errors.New("not found")

	// ErrDuplicateEvent - duplicate inbound update (ignore silently)
	ErrDuplicateEvent = errors.New("duplicate event")

	// ErrTransient - transient error (retry hint)
	ErrTransient = errors.New("transient error")

	// ErrInvalidModelOutput - model returned malformed structured output
	ErrInvalidModelOutput = errors.New("invalid model output")

	// ErrInternal - internal error
	ErrInternal = errors.New("internal error")
)

package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// MapError maps errors coming from SDKs (model providers, Google APIs, SMTP)
// into the jarvis taxonomy. Errors already carrying a category are returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) {
		return err
	}
	if Category(err) != "Unknown" {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timeout: %w", ErrTransient)
	}

	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "not found"), strings.Contains(errStr, "does not exist"):
		return fmt.Errorf("%v: %w", err, ErrNotFound)
	case strings.Contains(errStr, "rate limit"), strings.Contains(errStr, "quota"), strings.Contains(errStr, "too many requests"):
		return fmt.Errorf("rate limited: %v: %w", err, ErrTransient)
	case strings.Contains(errStr, "timeout"), strings.Contains(errStr, "deadline exceeded"):
		return fmt.Errorf("request timeout: %v: %w", err, ErrTransient)
	case strings.Contains(errStr, "invalid json"), strings.Contains(errStr, "malformed json"):
		return fmt.Errorf("%v: %w", err, ErrInvalidModelOutput)
	case strings.Contains(errStr, "network"), strings.Contains(errStr, "connection"), strings.Contains(errStr, "unreachable"):
		return fmt.Errorf("network error: %v: %w", err, ErrTransient)
	default:
		return fmt.Errorf("%v: %w", err, ErrExternalService)
	}
}

// Category returns the taxonomy name of an error
func Category(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrParseFailure):
		return "ErrParseFailure"
	case errors.Is(err, ErrUnknownTool):
		return "ErrUnknownTool"
	case errors.Is(err, ErrMaxRounds):
		return "ErrMaxRounds"
	case errors.Is(err, ErrStaleData):
		return "ErrStaleData"
	case errors.Is(err, ErrDuplicateEvent):
		return "ErrDuplicateEvent"
	case errors.Is(err, ErrInvalidInput):
		return "ErrInvalidInput"
	case errors.Is(err, ErrNotFound):
		return "ErrNotFound"
	case errors.Is(err, ErrTransient):
		return "ErrTransient"
	case errors.Is(err, ErrInvalidModelOutput):
		return "ErrInvalidModelOutput"
	case errors.Is(err, ErrExternalService):
		return "ErrExternalService"
	case errors.Is(err, ErrInternal):
		return "ErrInternal"
	default:
		return "Unknown"
	}
}

// UserMessage turns any error into the short status line shown in a chat front-end.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, context.Canceled):
		return "Request cancelled."
	case errors.Is(err, ErrUnknownTool):
		return "Sorry, something went wrong while handling that. Anything logged before the error was kept, so check your sheet before retrying."
	case errors.Is(err, ErrMaxRounds):
		return "Sorry, that took too many steps. Anything logged before I stopped was kept, so check your sheet before retrying."
	case errors.Is(err, ErrTransient):
		return "The assistant is busy right now. Please retry in a moment."
	case errors.Is(err, ErrExternalService), errors.Is(err, ErrInvalidModelOutput):
		return "Couldn't reach a backing service: " + rootMessage(err)
	case errors.Is(err, ErrInvalidInput):
		return "Invalid input: " + rootMessage(err)
	case errors.Is(err, ErrStaleData):
		return "Already up to date."
	default:
		return "Something went wrong: " + rootMessage(err)
	}
}

func rootMessage(err error) string {
	msg := err.Error()
	if idx := strings.Index(msg, ": "); idx > 0 {
		return msg[:idx]
	}
	return msg
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%s: %w", message, err)
}

// IsCategory checks if error belongs to specific category
func IsCategory(err error, category error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, category)
}

// NotFound wraps error as not found
func NotFound(message string) error {
	return fmt.Errorf("%s: %w", message, ErrNotFound)
}

// InvalidInput wraps error as invalid input
func InvalidInput(message string) error {
	return fmt.Errorf("%s: %w", message, ErrInvalidInput)
}

// Transient wraps error as transient
func Transient(message string) error {
	return fmt.Errorf("%s: %w", message, ErrTransient)
}

// Internal wraps error as internal
func Internal(message string) error {
	return fmt.Errorf("%s: %w", message, ErrInternal)
}

// InvalidModelOutput wraps error as invalid model output
func InvalidModelOutput(message string) error {
	return fmt.Errorf("%s: %w", message, ErrInvalidModelOutput)
}

// ParseFailure wraps error as a record parse failure
func ParseFailure(message string) error {
	return fmt.Errorf("%s: %w", message, ErrParseFailure)
}

// UnknownTool wraps error as an unknown tool request
func UnknownTool(name string) error {
	return fmt.Errorf("tool %q: %w", name, ErrUnknownTool)
}

// External wraps an SDK error as an external service failure, keeping the cause in the chain.
func External(service string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", service, errors.Join(ErrExternalService, err))
}

// Stale marks a record whose derived values already exist
func Stale(message string) error {
	return fmt.Errorf("%s: %w", message, ErrStaleData)
}

// IsRetryable checks if an error is transient, indicating it can be retried
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, ErrTransient)
}

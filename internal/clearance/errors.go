package clearance

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound marks a missing application or stage. Surfaced to the
	// caller, never retried.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState marks a decision against an application that is not
	// in progress, or a malformed decision payload.
	ErrInvalidState = errors.New("invalid state")
	// ErrOutOfOrder marks a decision against a stage that is not the first
	// pending stage in sequence order.
	ErrOutOfOrder = errors.New("out of order")
	// ErrUnauthorized marks an actor lacking the department's role.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConfiguration marks an unusable registry or approver setup.
	ErrConfiguration = errors.New("configuration error")
	// ErrRender marks a certificate generation failure. Logged and retried
	// out-of-band; never reverts a completed application.
	ErrRender = errors.New("render error")
	// ErrNotification marks a notification dispatch failure. Logged, never
	// propagated into the decision path.
	ErrNotification = errors.New("notification error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrInvalidState
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Retryable reports whether the error may succeed on a later attempt.
// Only renderer and notifier failures are retried; every other failure in
// the taxonomy is a terminal answer to the caller.
func Retryable(err error) bool {
	return errors.Is(err, ErrRender) || errors.Is(err, ErrNotification)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "clearance failure"
	}
	return strings.Join(parts, ": ")
}

package respond

import (
	"errors"
	"fmt"
	"time"
)

// ConfigError indicates an invalid batch configuration. It is the only
// error that aborts a batch before any target is processed.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid batch configuration: %s: %s", e.Field, e.Message)
}

// IndeterminateError wraps a lookup that could not produce a clear answer,
// such as an eligibility check whose upstream call failed.
type IndeterminateError struct {
	Op       string
	TargetID string
	Cause    error
}

func (e *IndeterminateError) Error() string {
	return fmt.Sprintf("%s for %s indeterminate: %v", e.Op, e.TargetID, e.Cause)
}

func (e *IndeterminateError) Unwrap() error {
	return e.Cause
}

// ConnectivityError is returned by Run when the upstream preflight fails
// before the first target is attempted.
type ConnectivityError struct {
	Cause error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("upstream unreachable: %v", e.Cause)
}

func (e *ConnectivityError) Unwrap() error {
	return e.Cause
}

// The upstream layer exposes response details through these optional
// methods so this package does not depend on a concrete client.
type (
	httpStatusCoder  interface{ HTTPStatus() int }
	requestIDCarrier interface{ UpstreamRequestID() string }
	retryHinter      interface{ RetryDelay() time.Duration }
)

// IsConfigError reports whether err is (or wraps) a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

func httpStatusOf(err error) int {
	var sc httpStatusCoder
	if errors.As(err, &sc) {
		return sc.HTTPStatus()
	}
	return 0
}

func requestIDOf(err error) string {
	var rc requestIDCarrier
	if errors.As(err, &rc) {
		return rc.UpstreamRequestID()
	}
	return ""
}

func retryDelayOf(err error) time.Duration {
	var rh retryHinter
	if errors.As(err, &rh) {
		return rh.RetryDelay()
	}
	return 0
}

package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrConfig     = errors.New("workspace is not configured")
	ErrLoad       = errors.New("failed to load workspace data")
	ErrAction     = errors.New("action failed")
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("requested resource not found")
)

// NetworkError reports a transport failure talking to a remote service.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServiceError reports a non-success HTTP status from a remote service.
type ServiceError struct {
	Op     string
	Status int
	Body   string
}

func (e *ServiceError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: service returned %d %s", e.Op, e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("%s: service returned %d: %s", e.Op, e.Status, e.Body)
}

func (e *ServiceError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Load marks err as a load-time failure.
func Load(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrLoad, op, err)
}

// Action marks err as a non-fatal action failure.
func Action(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrAction, op, err)
}

func Validation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

func Config(msg string) error {
	return fmt.Errorf("%w: %s", ErrConfig, msg)
}

type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindConfig
	KindLoad
	KindAction
	KindValidation
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindLoad:
		return "load"
	case KindAction:
		return "action"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Kind classifies err into the workspace error taxonomy.
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrConfig):
		return KindConfig
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrLoad):
		return KindLoad
	case errors.Is(err, ErrAction):
		return KindAction
	}
	var netErr *NetworkError
	var svcErr *ServiceError
	if errors.As(err, &netErr) || errors.As(err, &svcErr) {
		return KindAction
	}
	return KindUnknown
}

// UserMessage strips wrapping down to something fit for a status line.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return "network unavailable (" + netErr.Op + ")"
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		if svcErr.Body != "" {
			return fmt.Sprintf("%s failed: %s", svcErr.Op, svcErr.Body)
		}
		return fmt.Sprintf("%s failed with status %d", svcErr.Op, svcErr.Status)
	}
	return err.Error()
}

package services

import (
	"errors"
	"fmt"
	"strings"

	"dugout/internal/queue"
)

var (
	ErrPermission    = errors.New("permission denied")
	ErrCapability    = errors.New("capability unavailable")
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrPersistence   = errors.New("persistence error")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// ErrorKind classifies a failure for status mapping and operator messaging.
type ErrorKind string

const (
	KindPermission    ErrorKind = "permission"
	KindCapability    ErrorKind = "capability"
	KindExternalTool  ErrorKind = "external_tool"
	KindValidation    ErrorKind = "validation"
	KindConfiguration ErrorKind = "configuration"
	KindNotFound      ErrorKind = "not_found"
	KindPersistence   ErrorKind = "persistence"
	KindTimeout       ErrorKind = "timeout"
	KindTransient     ErrorKind = "transient"
	KindUnknown       ErrorKind = "unknown"
)

// ErrorDetails carries the structured failure data attached by Wrap.
type ErrorDetails struct {
	Kind      ErrorKind
	Stage     string
	Operation string
	Message   string
	Hint      string
	Cause     error
}

type serviceError struct {
	marker    error
	stage     string
	operation string
	message   string
	cause     error
}

func (e *serviceError) Error() string {
	detail := buildDetail(e.stage, e.operation, e.message)
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.marker.Error(), detail, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.marker.Error(), detail)
}

func (e *serviceError) Unwrap() []error {
	if e.cause != nil {
		return []error{e.marker, e.cause}
	}
	return []error{e.marker}
}

// Wrap builds an error that includes stage context while tagging it with the
// provided marker for later status classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	return &serviceError{
		marker:    marker,
		stage:     strings.TrimSpace(stage),
		operation: strings.TrimSpace(operation),
		message:   strings.TrimSpace(message),
		cause:     err,
	}
}

// Details extracts structured failure data from an error produced by Wrap.
// Errors from other sources are classified by sentinel matching with the raw
// message preserved.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{Kind: KindUnknown}
	}
	var se *serviceError
	if errors.As(err, &se) {
		kind := classifyKind(se.marker)
		return ErrorDetails{
			Kind:      kind,
			Stage:     se.stage,
			Operation: se.operation,
			Message:   buildDetail(se.stage, se.operation, se.message),
			Hint:      hintForKind(kind),
			Cause:     se.cause,
		}
	}
	kind := classifyKind(err)
	return ErrorDetails{
		Kind:    kind,
		Message: strings.TrimSpace(err.Error()),
		Hint:    hintForKind(kind),
		Cause:   err,
	}
}

// FailureStatus maps a stage error to the queue status the workflow manager
// should persist after the stage fails. User-fixable failures park the item
// in review rather than failed.
func FailureStatus(err error) queue.Status {
	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrConfiguration),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrPermission):
		return queue.StatusReview
	default:
		return queue.StatusFailed
	}
}

func classifyKind(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrPermission):
		return KindPermission
	case errors.Is(err, ErrCapability):
		return KindCapability
	case errors.Is(err, ErrExternalTool):
		return KindExternalTool
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrPersistence):
		return KindPersistence
	case errors.Is(err, ErrTimeout):
		return KindTimeout
	case errors.Is(err, ErrTransient):
		return KindTransient
	default:
		return KindUnknown
	}
}

func hintForKind(kind ErrorKind) string {
	switch kind {
	case KindPermission:
		return "check directory and device permissions"
	case KindCapability:
		return "verify the camera and required tools are available"
	case KindExternalTool:
		return "confirm ffmpeg and ffprobe are installed and working"
	case KindValidation:
		return "inspect the source clip and adjust before retrying"
	case KindConfiguration:
		return "review config.toml settings"
	case KindNotFound:
		return "confirm the referenced file or record exists"
	case KindPersistence:
		return "check the queue and library databases"
	case KindTimeout:
		return "retry once the system is responsive"
	default:
		return ""
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

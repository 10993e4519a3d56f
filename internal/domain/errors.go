package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy. Every failure surfaced by the controller wraps exactly one
// of these sentinels so transports can map it with errors.Is.
var (
	ErrValidation          = errors.New("validation failed")
	ErrParse               = errors.New("invalid json")
	ErrNetwork             = errors.New("network error")
	ErrRemoteRejection     = errors.New("remote rejected request")
	ErrNotFound            = errors.New("not found")
	ErrStorageWrite        = errors.New("storage write failed")
	ErrBusy                = errors.New("another operation is in progress, please wait")
	ErrUnknownConfirmation = errors.New("unknown confirmation")
	ErrStaleConfirmation   = errors.New("confirmation is stale, state changed since it was proposed")
)

// ParseError describes a document that is not valid JSON.
type ParseError struct {
	Offset int64  // byte offset of the failure, 0 when unknown
	Msg    string // decoder message
}

func (e *ParseError) Error() string {
	if e.Offset > 0 {
		return fmt.Sprintf("invalid json at offset %d: %s", e.Offset, e.Msg)
	}
	return "invalid json: " + e.Msg
}

func (e *ParseError) Unwrap() error { return ErrParse }

// RemoteRejectionError is returned when the remote endpoint answers with a non-2xx status.
type RemoteRejectionError struct {
	StatusCode int
	Status     string
	Body       string // short excerpt of the response body
}

func (e *RemoteRejectionError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("remote rejected request: %s: %s", e.Status, e.Body)
	}
	return "remote rejected request: " + e.Status
}

func (e *RemoteRejectionError) Unwrap() error { return ErrRemoteRejection }

// Validationf builds an ErrValidation with a formatted message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Error kinds, stable strings used by the HTTP and CLI layers.
const (
	KindValidation          = "validation"
	KindParse               = "parse"
	KindNetwork             = "network"
	KindRemoteRejection     = "remote_rejection"
	KindNotFound            = "not_found"
	KindStorageWrite        = "storage_write"
	KindBusy                = "busy"
	KindUnknownConfirmation = "unknown_confirmation"
	KindStaleConfirmation   = "stale_confirmation"
	KindInternal            = "internal"
)

// KindOf classifies err into one of the Kind constants.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrParse):
		return KindParse
	case errors.Is(err, ErrNetwork):
		return KindNetwork
	case errors.Is(err, ErrRemoteRejection):
		return KindRemoteRejection
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrStorageWrite):
		return KindStorageWrite
	case errors.Is(err, ErrBusy):
		return KindBusy
	case errors.Is(err, ErrUnknownConfirmation):
		return KindUnknownConfirmation
	case errors.Is(err, ErrStaleConfirmation):
		return KindStaleConfirmation
	default:
		return KindInternal
	}
}

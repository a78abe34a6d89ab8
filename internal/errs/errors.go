// Package errs provides the error type shared by the browser core, the API
// client and the API server.
//
// Store drivers and transports wrap their native errors into *errs.Error so
// that callers can branch on the kind of failure without importing SDK
// packages:
//
//	if errs.IsNotFound(err) {
//	    // deleting a missing key is fine
//	}
package errs

import (
	"context"
	"errors"
	"fmt"
)

// ErrKind categorises an error.
type ErrKind int

const (
	ErrKindUnknown          ErrKind = iota
	ErrKindTransport                // network / HTTP failure talking to the store or the API
	ErrKindNotFound                 // key absent from the store or the catalog
	ErrKindValidation               // bad arguments from the caller
	ErrKindCancelled                // user-initiated cancellation
	ErrKindConflict                 // operation not allowed in the current state
	ErrKindPermissionDenied         // access denied / bad credentials
	ErrKindUnsupported              // capability not offered by the backend
	ErrKindBucketNotFound           // the bucket itself does not exist
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindTransport:
		return "transport"
	case ErrKindNotFound:
		return "not_found"
	case ErrKindValidation:
		return "validation"
	case ErrKindCancelled:
		return "cancelled"
	case ErrKindConflict:
		return "conflict"
	case ErrKindPermissionDenied:
		return "permission_denied"
	case ErrKindUnsupported:
		return "unsupported"
	case ErrKindBucketNotFound:
		return "bucket_not_found"
	default:
		return "unknown"
	}
}

// ParseKind is the inverse of ErrKind.String. Unknown names map to
// ErrKindUnknown.
func ParseKind(name string) ErrKind {
	for k := ErrKindTransport; k <= ErrKindBucketNotFound; k++ {
		if k.String() == name {
			return k
		}
	}
	return ErrKindUnknown
}

// Error is the single error type returned across the module.
type Error struct {
	Kind    ErrKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an *Error with no cause.
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap creates an *Error around an underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// FromContext classifies err, preferring context state when the error came
// out of a cancelled or expired operation. It returns nil for a nil err.
func FromContext(ctx context.Context, msg string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || (ctx != nil && errors.Is(ctx.Err(), context.Canceled)) {
		return Wrap(ErrKindCancelled, msg, err)
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return Wrap(ErrKindTransport, msg, err)
}

// IsTransport reports whether err is a network or HTTP failure.
func IsTransport(err error) bool {
	return KindOf(err) == ErrKindTransport
}

// IsNotFound reports whether err refers to a missing key.
func IsNotFound(err error) bool {
	return KindOf(err) == ErrKindNotFound
}

// IsBucketNotFound reports whether err refers to a missing bucket. A missing
// bucket is never a missing key.
func IsBucketNotFound(err error) bool {
	return KindOf(err) == ErrKindBucketNotFound
}

// IsValidation reports whether err was caused by bad input.
func IsValidation(err error) bool {
	return KindOf(err) == ErrKindValidation
}

// IsCancelled reports whether err was caused by a user cancel.
func IsCancelled(err error) bool {
	return KindOf(err) == ErrKindCancelled
}

// IsConflict reports whether err was rejected because of current state.
func IsConflict(err error) bool {
	return KindOf(err) == ErrKindConflict
}

// IsPermissionDenied reports whether err is an access control failure.
func IsPermissionDenied(err error) bool {
	return KindOf(err) == ErrKindPermissionDenied
}

// IsUnsupported reports whether err signals a missing backend capability.
func IsUnsupported(err error) bool {
	return KindOf(err) == ErrKindUnsupported
}

// KindOf extracts the ErrKind from any error in the chain.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}

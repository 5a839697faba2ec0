// Package errs defines the error taxonomy shared by the data model services.
//
// Every error carries a stable machine-readable key (see Key) so that clients
// can localize messages without parsing free text.
package errs

import (
	"errors"
	"fmt"

	sserrors "github.com/c360studio/semstreams/errors"
)

// Stable error keys.
const (
	KeyNotFound           = "not-found"
	KeyAlreadyExists      = "already-exists"
	KeyCyclicalReference  = "cyclical reference"
	KeyReferencedByOthers = "referenced-by-others"
	KeyCircularDependency = "circular dependency"
	KeyDanglingReference  = "dangling-reference"
	KeyInvalidKind        = "invalid-kind"
	KeyInvalidIdentifier  = "invalid-identifier"
	KeyInvalidDTO         = "invalid-dto"
	KeyUnauthorized       = "unauthorized"
	KeyInvalidURI         = "invalid-uri"
	KeyRepository         = "repository"
	KeyUpstreamResolution = "upstream-resolution"
	KeyConflict           = "conflict"
	KeyUnknown            = "unknown"
)

// NotFoundError reports that a model, version or resource does not exist.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s", e.Resource)
}

// NotFound returns a NotFoundError for the given URI or identifier.
func NotFound(resource string) error {
	return &NotFoundError{Resource: resource}
}

// MappingError reports an invariant violation detected before any write.
type MappingError struct {
	Key      string
	Resource string
	Detail   string
}

func (e *MappingError) Error() string {
	msg := e.Key
	if e.Resource != "" {
		msg += ": " + e.Resource
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

// Mapping returns a MappingError with the given key.
func Mapping(key, resource string) error {
	return &MappingError{Key: key, Resource: resource}
}

// Mappingf returns a MappingError with a formatted detail message.
func Mappingf(key, resource, format string, args ...any) error {
	return &MappingError{Key: key, Resource: resource, Detail: fmt.Sprintf(format, args...)}
}

// UnauthorizedError reports that the caller lacks rights to the target.
type UnauthorizedError struct {
	Target string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("unauthorized: %s", e.Target)
}

// Unauthorized returns an UnauthorizedError for target.
func Unauthorized(target string) error {
	return &UnauthorizedError{Target: target}
}

// InvalidURIError reports a malformed prefix, version or identifier.
type InvalidURIError struct {
	Value  string
	Reason string
}

func (e *InvalidURIError) Error() string {
	return fmt.Sprintf("invalid uri component %q: %s", e.Value, e.Reason)
}

// InvalidURI returns an InvalidURIError.
func InvalidURI(value, reason string) error {
	return &InvalidURIError{Value: value, Reason: reason}
}

// UpstreamResolutionError reports a failed terminology or code list lookup.
// It is logged at the resolver boundary and never aborts a lifecycle operation.
type UpstreamResolutionError struct {
	URI string
	Err error
}

func (e *UpstreamResolutionError) Error() string {
	return fmt.Sprintf("resolve %s: %v", e.URI, e.Err)
}

func (e *UpstreamResolutionError) Unwrap() error { return e.Err }

// RepositoryError reports a failed graph store or index call.
type RepositoryError struct {
	Op  string
	Err error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository %s: %v", e.Op, e.Err)
}

func (e *RepositoryError) Unwrap() error { return e.Err }

// Repository wraps err as a RepositoryError classified as transient.
func Repository(component, op string, err error) error {
	if err == nil {
		return nil
	}
	return &RepositoryError{Op: op, Err: sserrors.WrapTransient(err, component, op, op)}
}

// RepositoryFatal wraps err as a RepositoryError classified as fatal.
func RepositoryFatal(component, op string, err error) error {
	if err == nil {
		return nil
	}
	return &RepositoryError{Op: op, Err: sserrors.WrapFatal(err, component, op, op)}
}

// ErrConflict is returned by compare-and-swap writes when the partition
// changed since it was read.
var ErrConflict = errors.New("graph partition changed concurrently")

// Key returns the stable machine-readable key for err.
func Key(err error) string {
	if err == nil {
		return ""
	}
	var (
		nf   *NotFoundError
		me   *MappingError
		ue   *UnauthorizedError
		iu   *InvalidURIError
		up   *UpstreamResolutionError
		repo *RepositoryError
	)
	switch {
	case errors.As(err, &me):
		return me.Key
	case errors.As(err, &nf):
		return KeyNotFound
	case errors.As(err, &ue):
		return KeyUnauthorized
	case errors.As(err, &iu):
		return KeyInvalidURI
	case errors.Is(err, ErrConflict):
		return KeyConflict
	case errors.As(err, &up):
		return KeyUpstreamResolution
	case errors.As(err, &repo):
		return KeyRepository
	default:
		return KeyUnknown
	}
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsMapping reports whether err is a MappingError, optionally with one of keys.
func IsMapping(err error, keys ...string) bool {
	var me *MappingError
	if !errors.As(err, &me) {
		return false
	}
	if len(keys) == 0 {
		return true
	}
	for _, k := range keys {
		if me.Key == k {
			return true
		}
	}
	return false
}

// IsUnauthorized reports whether err is an UnauthorizedError.
func IsUnauthorized(err error) bool {
	var ue *UnauthorizedError
	return errors.As(err, &ue)
}

// Retryable reports whether err is an infrastructure failure classified as
// transient. Validation and authorization failures are never retryable.
func Retryable(err error) bool {
	var repo *RepositoryError
	if !errors.As(err, &repo) {
		return false
	}
	return sserrors.IsTransient(repo.Err)
}

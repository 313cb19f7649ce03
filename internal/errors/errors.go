package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Base error values, one per Kind, for use with errors.Is
var (
	ErrUnrecognizedSearchType = errors.New("unrecognized search type")
	ErrConflictingFilter      = errors.New("conflicting filter")
	ErrUnsafeOrderBy          = errors.New("unsafe order_by")
	ErrInvalidArgument        = errors.New("invalid argument")
	ErrBackendFault           = errors.New("backend fault")
	ErrNoAccess               = errors.New("not a recognized user")
)

// Kind is the closed set of failure categories surfaced by the host search core
type Kind string

const (
	KindUnrecognizedSearchType Kind = "unrecognized_search_type"
	KindConflictingFilter      Kind = "conflicting_filter"
	KindUnsafeOrderBy          Kind = "unsafe_order_by"
	KindInvalidArgument        Kind = "invalid_argument"
	KindBackendFault           Kind = "backend_fault"
	KindNoAccess               Kind = "no_access"
)

// Well-known backend fault codes
const (
	FaultPermissionDenied = "PermissionDenied"
	FaultNotFound         = "NotFound"
	FaultListFault        = "ListFault"
)

// Error is a structured failure. Only the fields relevant to Kind are set.
type Error struct {
	Kind     Kind
	Op       string   // operation that failed (e.g. "classify", "list_hosts")
	Type     string   // offending search type for UnrecognizedSearchType
	Value    string   // offending value
	Values   []string // colliding values for ConflictingFilter
	Fault    string   // backend fault code
	Messages []string // per-field messages for ListFault
	Err      error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindUnrecognizedSearchType:
		return fmt.Sprintf("Unrecognized special search type: %s (value: %s)", e.Type, e.Value)
	case KindConflictingFilter:
		return fmt.Sprintf("Invalid search string -- more than one name (%s)", strings.Join(e.Values, ", "))
	case KindUnsafeOrderBy:
		return fmt.Sprintf("invalid order_by %q", e.Value)
	case KindNoAccess:
		if e.Value != "" {
			return fmt.Sprintf("%s: %s is not a recognized user", e.Op, e.Value)
		}
		return fmt.Sprintf("%s: not a recognized user", e.Op)
	case KindBackendFault:
		msg := e.Op + " failed"
		if e.Fault != "" {
			msg += " [" + e.Fault + "]"
		}
		if len(e.Messages) > 0 {
			msg += ": " + strings.Join(e.Messages, "; ")
		} else if e.Err != nil {
			msg += ": " + e.Err.Error()
		}
		return msg
	}
	if e.Value != "" {
		return e.Value
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the base error value of the same kind, then the wrapped error
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if base, ok := baseErrors[e.Kind]; ok && base == target {
		return true
	}
	return e.Err != nil && errors.Is(e.Err, target)
}

var baseErrors = map[Kind]error{
	KindUnrecognizedSearchType: ErrUnrecognizedSearchType,
	KindConflictingFilter:      ErrConflictingFilter,
	KindUnsafeOrderBy:          ErrUnsafeOrderBy,
	KindInvalidArgument:        ErrInvalidArgument,
	KindBackendFault:           ErrBackendFault,
	KindNoAccess:               ErrNoAccess,
}

// UnrecognizedSearchType reports a type:value token whose type is not an alias
func UnrecognizedSearchType(stype, value string) *Error {
	return &Error{Kind: KindUnrecognizedSearchType, Op: "classify", Type: stype, Value: value}
}

// ConflictingFilter reports two name-like filters in the same query
func ConflictingFilter(existing, incoming string) *Error {
	return &Error{Kind: KindConflictingFilter, Op: "classify", Values: []string{existing, incoming}}
}

// UnsafeOrderBy reports an ordering key outside the safe character class
func UnsafeOrderBy(orderBy string) *Error {
	return &Error{Kind: KindUnsafeOrderBy, Op: "normalize", Value: orderBy}
}

// InvalidArgument reports a caller input problem detected before any backend call
func InvalidArgument(op, format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidArgument, Op: op, Value: fmt.Sprintf(format, args...)}
}

// BackendFault wraps a backend failure with its fault code
func BackendFault(op, fault string, err error) *Error {
	return &Error{Kind: KindBackendFault, Op: op, Fault: fault, Err: err}
}

// ListFault reports several validation messages from one backend call
func ListFault(op string, messages []string) *Error {
	return &Error{Kind: KindBackendFault, Op: op, Fault: FaultListFault, Messages: messages}
}

// NoAccess reports that the requester is not a recognized user
func NoAccess(op, user string) *Error {
	return &Error{Kind: KindNoAccess, Op: op, Value: user}
}

// KindOf returns the Kind of err, or "" when err is not an *Error
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// FaultOf returns the backend fault code carried by err, if any
func FaultOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fault
	}
	return ""
}

// IsUserError reports whether err is an input problem the user can correct
func IsUserError(err error) bool {
	switch KindOf(err) {
	case KindUnrecognizedSearchType, KindConflictingFilter, KindUnsafeOrderBy, KindInvalidArgument:
		return true
	}
	return false
}

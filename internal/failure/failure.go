// Package failure classifies the ways a ledger command can fail and maps each
// kind to a stable process exit code, so scripts can react to them.
package failure

import (
	"errors"
	"fmt"
	"net/http"
)

// Category groups kinds by what went wrong.
type Category string

const (
	CategoryStateConflict Category = "state_conflict"
	CategoryValidation    Category = "validation"
	CategoryLifecycleHook Category = "lifecycle_hook"
	CategoryDryRun        Category = "dry_run"
	CategoryUsage         Category = "usage"
	CategoryInternal      Category = "internal"
)

// Kind identifies a single failure mode.
type Kind int

const (
	Unknown Kind = iota
	StopwatchAlreadyRunning
	NoStopwatchRunning
	InterruptionAlreadyOpen
	ResumeWithoutStopwatch
	NoOpenInterruption
	MissingInterval
	NonPositiveInterval
	UnparseableTimespec
	RecordNotFound
	HookFailed
	InvalidSortKey
	InvalidFilter
	InvalidConfig
	InvalidArgument
	DryRun
)

var kindInfo = map[Kind]struct {
	name     string
	exitCode int
	category Category
}{
	Unknown:                 {"Unknown", 1, CategoryInternal},
	StopwatchAlreadyRunning: {"StopwatchAlreadyRunning", 1, CategoryStateConflict},
	NoStopwatchRunning:      {"NoStopwatchRunning", 2, CategoryStateConflict},
	InterruptionAlreadyOpen: {"InterruptionAlreadyOpen", 3, CategoryStateConflict},
	ResumeWithoutStopwatch:  {"ResumeWithoutStopwatch", 4, CategoryStateConflict},
	NoOpenInterruption:      {"NoOpenInterruption", 5, CategoryStateConflict},
	MissingInterval:         {"MissingInterval", 6, CategoryValidation},
	NonPositiveInterval:     {"NonPositiveInterval", 7, CategoryValidation},
	UnparseableTimespec:     {"UnparseableTimespec", 8, CategoryValidation},
	RecordNotFound:          {"RecordNotFound", 9, CategoryValidation},
	HookFailed:              {"HookFailed", 10, CategoryLifecycleHook},
	InvalidSortKey:          {"InvalidSortKey", 11, CategoryValidation},
	InvalidFilter:           {"InvalidFilter", 12, CategoryUsage},
	InvalidConfig:           {"InvalidConfig", 13, CategoryUsage},
	InvalidArgument:         {"InvalidArgument", 64, CategoryUsage},
	DryRun:                  {"DryRun", 127, CategoryDryRun},
}

func (k Kind) String() string {
	if info, ok := kindInfo[k]; ok {
		return info.name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ExitCode is the process exit status reserved for k.
func (k Kind) ExitCode() int {
	if info, ok := kindInfo[k]; ok {
		return info.exitCode
	}
	return 1
}

// Category reports the category k belongs to.
func (k Kind) Category() Category {
	if info, ok := kindInfo[k]; ok {
		return info.category
	}
	return CategoryInternal
}

// Error is a classified failure.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same kind, so errors.Is(err, failure.New(k, ""))
// works without comparing messages.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// New creates a classified error.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a classified error around cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf extracts the kind from anywhere in err's chain.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Unknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// ExitCode maps err to a process exit status; nil maps to 0.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return KindOf(err).ExitCode()
}

// HTTPStatus maps err to the status the HTTP front-end answers with.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	kind := KindOf(err)
	if kind == RecordNotFound {
		return http.StatusNotFound
	}
	switch kind.Category() {
	case CategoryStateConflict:
		return http.StatusConflict
	case CategoryValidation, CategoryUsage:
		return http.StatusBadRequest
	case CategoryDryRun:
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}

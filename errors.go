package crucible

import (
	"errors"
	"strings"
)

// =============================================================================
// ERROR CODES
// =============================================================================

// Error code constants for structured errors
const (
	CodeDuplicateDependency     = "DUPLICATE_DEPENDENCY"
	CodeDependencyNotFound      = "DEPENDENCY_NOT_FOUND"
	CodeDependencyCycle         = "DEPENDENCY_CYCLE"
	CodeInstantiationFailed     = "INSTANTIATION_FAILED"
	CodeFrozenContainer         = "FROZEN_CONTAINER"
	CodeImplicitsAlreadyDefined = "IMPLICITS_ALREADY_DEFINED"
	CodeScopeAlreadyExists      = "SCOPE_ALREADY_EXISTS"
	CodeScopeNotFound           = "SCOPE_NOT_FOUND"
	CodeInvalidRegistration     = "INVALID_REGISTRATION"
	CodeInvalidCall             = "INVALID_CALL"
)

// =============================================================================
// STRUCTURED ERROR
// =============================================================================

// Error is a structured resolution error with a stable code and context.
type Error struct {
	Code    string
	Message string
	Cause   error
	Context map[string]any
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for Error.
// Errors match when their codes are equal, allowing sentinel comparisons.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code != "" && e.Code == t.Code
}

// WithContext adds context to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// =============================================================================
// ERROR CONSTRUCTORS
// =============================================================================

// ErrDuplicateDependency reports a second registration under an identifier
// already owned by a provider.
func ErrDuplicateDependency(dependency any) *Error {
	d := describe(dependency)
	return &Error{
		Code:    CodeDuplicateDependency,
		Message: "dependency " + d + " already registered",
		Context: map[string]any{"dependency": d},
	}
}

// ErrDependencyNotFound reports an identifier no provider supplies.
func ErrDependencyNotFound(dependency any) *Error {
	d := describe(dependency)
	return &Error{
		Code:    CodeDependencyNotFound,
		Message: "dependency " + d + " not found",
		Context: map[string]any{"dependency": d},
	}
}

// ErrDependencyCycle reports a resolution chain that reached one of its own
// ancestors. The path lists the chain from the first occurrence onwards.
func ErrDependencyCycle(path []string) *Error {
	return &Error{
		Code:    CodeDependencyCycle,
		Message: "dependency cycle detected: " + strings.Join(path, " -> "),
		Context: map[string]any{"path": path},
	}
}

// ErrInstantiationFailed wraps a failure inside a user constructor or factory.
func ErrInstantiationFailed(target string, cause error) *Error {
	return &Error{
		Code:    CodeInstantiationFailed,
		Message: "instantiating " + target + " failed",
		Cause:   cause,
		Context: map[string]any{"target": target},
	}
}

// ErrFrozenContainer reports a mutating call on a frozen container.
func ErrFrozenContainer(operation string) *Error {
	return &Error{
		Code:    CodeFrozenContainer,
		Message: "container is frozen, cannot " + operation,
		Context: map[string]any{"operation": operation},
	}
}

// ErrImplicitsAlreadyDefined reports a second attempt to define the implicit
// link table, which may only ever be set once per provider.
func ErrImplicitsAlreadyDefined() *Error {
	return &Error{
		Code:    CodeImplicitsAlreadyDefined,
		Message: "implicit links have already been defined",
	}
}

// ErrScopeAlreadyExists reports a scope name collision.
func ErrScopeAlreadyExists(name string) *Error {
	return &Error{
		Code:    CodeScopeAlreadyExists,
		Message: "scope '" + name + "' already exists",
		Context: map[string]any{"scope": name},
	}
}

// ErrScopeNotFound reports a scope unknown to the container.
func ErrScopeNotFound(name string) *Error {
	return &Error{
		Code:    CodeScopeNotFound,
		Message: "scope '" + name + "' is not registered with this container",
		Context: map[string]any{"scope": name},
	}
}

// ErrInvalidRegistration reports a malformed registration.
func ErrInvalidRegistration(reason string, cause error) *Error {
	return &Error{
		Code:    CodeInvalidRegistration,
		Message: "invalid registration: " + reason,
		Cause:   cause,
		Context: map[string]any{"reason": reason},
	}
}

// ErrInvalidCall reports a malformed call to an injected callable.
func ErrInvalidCall(callable, reason string) *Error {
	return &Error{
		Code:    CodeInvalidCall,
		Message: "invalid call to " + callable + ": " + reason,
		Context: map[string]any{"callable": callable, "reason": reason},
	}
}

// =============================================================================
// SENTINEL ERRORS (for use with errors.Is)
// =============================================================================

// Sentinel errors that can be used with errors.Is comparisons
var (
	// ErrDuplicateDependencySentinel matches duplicate registration errors
	ErrDuplicateDependencySentinel = &Error{Code: CodeDuplicateDependency}

	// ErrDependencyNotFoundSentinel matches missing dependency errors
	ErrDependencyNotFoundSentinel = &Error{Code: CodeDependencyNotFound}

	// ErrDependencyCycleSentinel matches cyclic resolution errors
	ErrDependencyCycleSentinel = &Error{Code: CodeDependencyCycle}

	// ErrInstantiationFailedSentinel matches constructor failure errors
	ErrInstantiationFailedSentinel = &Error{Code: CodeInstantiationFailed}

	// ErrFrozenContainerSentinel matches frozen container errors
	ErrFrozenContainerSentinel = &Error{Code: CodeFrozenContainer}

	// ErrImplicitsAlreadyDefinedSentinel matches repeated implicit table definitions
	ErrImplicitsAlreadyDefinedSentinel = &Error{Code: CodeImplicitsAlreadyDefined}

	// ErrScopeAlreadyExistsSentinel matches scope name collisions
	ErrScopeAlreadyExistsSentinel = &Error{Code: CodeScopeAlreadyExists}

	// ErrScopeNotFoundSentinel matches unknown scope errors
	ErrScopeNotFoundSentinel = &Error{Code: CodeScopeNotFound}

	// ErrInvalidRegistrationSentinel matches malformed registration errors
	ErrInvalidRegistrationSentinel = &Error{Code: CodeInvalidRegistration}

	// ErrInvalidCallSentinel matches malformed wrapper call errors
	ErrInvalidCallSentinel = &Error{Code: CodeInvalidCall}
)

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsDuplicateDependency checks if the error is a duplicate registration error.
func IsDuplicateDependency(err error) bool {
	return errors.Is(err, ErrDuplicateDependencySentinel)
}

// IsDependencyNotFound checks if the error is a missing dependency error.
func IsDependencyNotFound(err error) bool {
	return errors.Is(err, ErrDependencyNotFoundSentinel)
}

// IsDependencyCycle checks if the error is a cyclic resolution error.
func IsDependencyCycle(err error) bool {
	return errors.Is(err, ErrDependencyCycleSentinel)
}

// IsInstantiationFailed checks if the error is a constructor failure.
func IsInstantiationFailed(err error) bool {
	return errors.Is(err, ErrInstantiationFailedSentinel)
}

// IsFrozenContainer checks if the error is a frozen container error.
func IsFrozenContainer(err error) bool {
	return errors.Is(err, ErrFrozenContainerSentinel)
}

// instantiationError wraps err for dependency unless it already carries a
// structured resolution error, so cycle and not-found failures keep their
// original code while plain constructor failures become instantiation errors.
func instantiationError(dependency any, err error) error {
	var ce *Error
	if errors.As(err, &ce) {
		return err
	}
	return ErrInstantiationFailed(describe(dependency), err)
}

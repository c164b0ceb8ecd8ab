package domain

import "errors"

// Domain errors represent business-level errors that can occur in the system.
// Callers wrap them with context using fmt.Errorf("%w: ...") and match them
// with errors.Is.
var (
	// Request and name validation errors. These abort a run before any
	// mutation happens.
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidFormat = errors.New("invalid format")
	ErrInvalidLength = errors.New("invalid length")
	ErrReservedName  = errors.New("reserved name")
	ErrAlreadyExists = errors.New("already exists")

	// Provisioning errors. Raised after the first mutation, so the run is
	// rolled back before they reach the caller.
	ErrPathTraversal = errors.New("path traversal")
	ErrMissingIndex  = errors.New("missing index")
	ErrIO            = errors.New("io error")

	// Web-server control plane errors
	ErrConfigValidationFailed = errors.New("config validation failed")
	ErrActivationFailed       = errors.New("activation failed")
	ErrExternalTimeout        = errors.New("external timeout")

	// Registry errors
	ErrRegistryUpdateFailed = errors.New("registry update failed")
	ErrProjectNotFound      = errors.New("project not found")

	// Concurrency errors
	ErrLockContention = errors.New("lock contention")
)

// ErrorKind is the stable, transport-facing name of an error category.
type ErrorKind string

const (
	KindInvalidInput           ErrorKind = "InvalidInput"
	KindInvalidFormat          ErrorKind = "InvalidFormat"
	KindInvalidLength          ErrorKind = "InvalidLength"
	KindReservedName           ErrorKind = "ReservedName"
	KindAlreadyExists          ErrorKind = "AlreadyExists"
	KindPathTraversal          ErrorKind = "PathTraversal"
	KindMissingIndex           ErrorKind = "MissingIndex"
	KindIOError                ErrorKind = "IOError"
	KindConfigValidationFailed ErrorKind = "ConfigValidationFailed"
	KindActivationFailed       ErrorKind = "ActivationFailed"
	KindExternalTimeout        ErrorKind = "ExternalTimeout"
	KindRegistryUpdateFailed   ErrorKind = "RegistryUpdateFailed"
	KindProjectNotFound        ErrorKind = "ProjectNotFound"
	KindLockContention         ErrorKind = "LockContention"
	KindInternal               ErrorKind = "Internal"
)

// kindTable is ordered: the first matching sentinel wins. ExternalTimeout is
// checked before ActivationFailed because a timed-out enable wraps both.
var kindTable = []struct {
	err  error
	kind ErrorKind
}{
	{ErrInvalidInput, KindInvalidInput},
	{ErrInvalidFormat, KindInvalidFormat},
	{ErrInvalidLength, KindInvalidLength},
	{ErrReservedName, KindReservedName},
	{ErrAlreadyExists, KindAlreadyExists},
	{ErrPathTraversal, KindPathTraversal},
	{ErrMissingIndex, KindMissingIndex},
	{ErrExternalTimeout, KindExternalTimeout},
	{ErrConfigValidationFailed, KindConfigValidationFailed},
	{ErrActivationFailed, KindActivationFailed},
	{ErrIO, KindIOError},
	{ErrProjectNotFound, KindProjectNotFound},
	{ErrRegistryUpdateFailed, KindRegistryUpdateFailed},
	{ErrLockContention, KindLockContention},
}

// KindOf returns the kind of err, or KindInternal when err does not wrap a
// known domain error.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	for _, entry := range kindTable {
		if errors.Is(err, entry.err) {
			return entry.kind
		}
	}
	return KindInternal
}

// IsPrecondition reports whether err is a validation or precondition error,
// i.e. one raised before the run mutated anything.
func IsPrecondition(err error) bool {
	switch KindOf(err) {
	case KindInvalidInput, KindInvalidFormat, KindInvalidLength, KindReservedName, KindAlreadyExists:
		return true
	}
	return false
}

package release

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthenticationMissing means the registry identity probe failed
	ErrAuthenticationMissing = errors.New("not authenticated against the package registry")
	// ErrDirtyRepository means a package's working tree has uncommitted changes
	ErrDirtyRepository = errors.New("working tree has uncommitted changes")
	// ErrDetachedHead means a package is not on a branch
	ErrDetachedHead = errors.New("HEAD is detached")
	// ErrUserAborted means the operator declined the release gate
	ErrUserAborted = errors.New("release aborted by user")
)

// PreflightError ties a safety violation to the package that caused it
type PreflightError struct {
	Package string
	Path    string
	Err     error
}

func (e *PreflightError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Package, e.Path, e.Err)
}

func (e *PreflightError) Unwrap() error { return e.Err }

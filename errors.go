package vertag

import "errors"

// ErrGitUnavailable is wrapped by GitUnavailableError. The Git View
// could not be constructed or a required query against it failed
// unrecoverably; this is fatal, and distinct from "not a working
// directory" or "no commits yet", both of which the Versioner absorbs
// into a default Version instead of returning an error.
var ErrGitUnavailable = errors.New("git unavailable")

// ErrInvalidConfiguration is the sentinel wrapped (via fmt.Errorf's
// %w) by every configuration error. Returned at configuration intake, before the walk begins, when
// build_metadata cannot be tokenized as SemVer build metadata, when
// auto_increment names something other than major, minor, or patch,
// or when a default pre-release identifier is malformed.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// GitUnavailableError reports that the underlying Git mechanism
// (object store, reference store) could not be read.
type GitUnavailableError struct {
	Err error
}

func (e *GitUnavailableError) Error() string {
	return ErrGitUnavailable.Error() + ": " + e.Err.Error()
}

func (e *GitUnavailableError) Unwrap() error {
	return e.Err
}

func (e *GitUnavailableError) Is(target error) bool {
	return target == ErrGitUnavailable
}

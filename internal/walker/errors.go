package walker

import "fmt"

// AccessError is the non-fatal failure to read one directory or entry during
// traversal. The scheduler reports it through the warn callback, emits no
// children for the affected directory, and continues with the remaining
// frontier.
type AccessError struct {
	Path string
	Err  error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("cannot access %s: %v", e.Path, e.Err)
}

func (e *AccessError) Unwrap() error { return e.Err }

// RootError is the fatal failure of a traversal root: the path does not
// exist or is not a directory. It aborts the run before any traversal.
type RootError struct {
	Path string
	Err  error
}

func (e *RootError) Error() string {
	return fmt.Sprintf("invalid root %s: %v", e.Path, e.Err)
}

func (e *RootError) Unwrap() error { return e.Err }

package kernel

import "fmt"

// LoadError reports an unreadable or malformed CAD input file. It is
// fatal to that file's conversion only.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

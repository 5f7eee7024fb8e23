package host

import "fmt"

// UndefinedGlobalError reports that Host.Get was asked for a global that
// was never posted — distinct from the tolerant in-script get() built-in,
// which returns nil instead (spec.md §7).
type UndefinedGlobalError struct {
	Name string
}

func CreateUndefinedGlobalError(name string) UndefinedGlobalError {
	return UndefinedGlobalError{Name: name}
}

func (e UndefinedGlobalError) Error() string {
	return fmt.Sprintf("💥 IonScript: undefined global '%s'", e.Name)
}

// BadStreamError wraps a failure reading IonScript source from an external
// stream (a file, a pipe), so a read failure surfaces the engine's own
// error formatting instead of a raw os error (spec.md §7).
type BadStreamError struct {
	Path string
	Err  error
}

func CreateBadStreamError(path string, err error) BadStreamError {
	return BadStreamError{Path: path, Err: err}
}

func (e BadStreamError) Error() string {
	return fmt.Sprintf("💥 IonScript: cannot read '%s': %s", e.Path, e.Err)
}

func (e BadStreamError) Unwrap() error { return e.Err }

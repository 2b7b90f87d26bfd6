package registry

import "fmt"

// ConflictError reports a duplicate registration key. Conflicts are logged
// and ignored; the first registration wins.
type ConflictError struct {
	Key    string
	Origin string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("duplicate registration for %s (from %s)", e.Key, e.Origin)
}

// UnsupportedFormatError reports a reconcile registration for a file whose
// extension is not a recognized declarative format. The entry is downgraded
// to watch-only.
type UnsupportedFormatError struct {
	Path string
	Ext  string
}

// Error implements the error interface.
func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format %q for %s", e.Ext, e.Path)
}

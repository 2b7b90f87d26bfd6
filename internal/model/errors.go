package model

import "fmt"

// UnresolvedReferenceError reports a document reference to an entity that does
// not exist in the store. The referring entry's effect is skipped and the
// apply continues with the remaining entries.
type UnresolvedReferenceError struct {
	Kind Kind
	Name string
}

// Error implements the error interface.
func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("unresolved %s reference %q", e.Kind, e.Name)
}

// StoreError wraps a failed store operation with its context.
type StoreError struct {
	Op  string
	Ref EntityRef
	Err error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s on %s %q: %v", e.Op, e.Ref.Kind, e.Ref.Name, e.Err)
}

// Unwrap supports errors.Is/As matching on the underlying cause.
func (e *StoreError) Unwrap() error {
	return e.Err
}

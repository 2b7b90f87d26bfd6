// Package reconciler applies declarative configuration documents onto a live
// content model through the model.Store capability interface.
//
// The engine is idempotent by construction: entities are looked up by name
// before creation, template field attachment is positional rather than
// additive, and property updates merge instead of replacing. Application is
// best-effort per entry; see Reconciler.Apply for the error policy.
package reconciler

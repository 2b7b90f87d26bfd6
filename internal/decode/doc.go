// Package decode renders watched files into declarative documents.
//
// Three serializations are supported: YAML, JSON (bridged through YAML) and
// executable scripts (Go templates with the sprig function map, whose output
// must render to YAML). Results are tagged (nothing, document or text) so
// the runner can match explicitly instead of duck-typing.
package decode

// Package store provides the in-memory reference implementation of
// model.Store. Host applications embed modelsync against their own store;
// this one backs tests and the standalone CLI.
package store

// Package events models the host application's entity lifecycle hooks as an
// explicit observer interface. The host wires its concrete save/delete/config
// hooks to Bus.Publish; modelsync components (most importantly the recorder)
// subscribe instead of relying on ambient global hooks.
package events

// Package model defines the content-model domain: entities (fields,
// templates, roles, records), the Store capability interface consumed from
// the host application, and the Session context object that carries actor,
// output mode and store handle through every operation.
package model

// Package audittrailservice contains the Groundwork append-only audit log:
// who did what to which resource, when. Events are never mutated or deleted.
//
// The module keeps domain/application logic decoupled from runtime/platform
// concerns through ports and adapter composition.
package audittrailservice

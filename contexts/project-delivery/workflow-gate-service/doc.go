// Package workflowgateservice contains the Groundwork implementation of the
// project workflow gates: permit submission, review submission, and escrow
// release preconditions evaluated over fresh upstream state.
//
// The module keeps domain/application logic decoupled from runtime/platform
// concerns through ports and adapter composition.
package workflowgateservice

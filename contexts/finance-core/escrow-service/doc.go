// Package escrowservice contains the Groundwork implementation of the
// milestone-gated escrow ledger and release workflow.
//
// The module keeps domain/application logic decoupled from runtime/platform
// concerns through ports and adapter composition.
package escrowservice

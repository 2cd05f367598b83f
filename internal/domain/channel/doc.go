// Package channel contains the marketplace integration domain: the canonical
// order and listing model shared by all platforms, the credential lifecycle,
// the listing reconciliation state machine, and the port interfaces that
// infrastructure adapters (Mercado Livre, Shopee) implement.
//
// The package follows the Ports & Adapters pattern: interfaces are defined
// here, concrete platform adapters live in infrastructure/marketplace and
// repositories in infrastructure/persistence.
package channel

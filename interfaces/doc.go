// Package interfaces defines the core types and contracts of the
// confidential document ledger: identities, document records, the
// ledger operations, and the external confidential-value authority.
// Implementations live in the ledger, confidential and session
// packages; nothing here carries state.
package interfaces

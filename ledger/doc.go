// Package ledger implements the access-controlled encrypted-document
// ledger. It is the single source of truth for document records and
// their collaborator lists, while authorization checks for body writes
// are delegated to the external confidential-value store. The ledger
// never observes a secret in the clear: it handles only opaque handles
// and ciphertext.
//
// Concurrency model: a ledger-level read-write mutex guards the id
// space and document map; each document carries its own mutex so
// check-then-act sequences (authorization check followed by commit) are
// atomic per document without serializing unrelated documents.
package ledger

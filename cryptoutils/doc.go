// Package cryptoutils implements the client-side symmetric codec for
// document bodies. The key is derived from the document's numeric
// secret with SHA-256 and the body is sealed with AES-256-GCM into a
// self-describing textual payload, so the ledger can store a single
// opaque string per document with no side channel for nonces.
package cryptoutils

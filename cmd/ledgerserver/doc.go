// Package main (cmd/ledgerserver) implements the document ledger server.
//
// The ledger server provides HTTP endpoints for creating documents,
// sharing them with collaborators, and storing encrypted document
// bodies. Each document's confidential secret lives behind an opaque
// handle in an external confidential value store; the ledger itself
// never holds the secret in the clear and delegates every
// authorization decision to the store.
//
// The server supports two store backends:
//
//   - local: An in-memory store. Values and authorization lists live
//     in process memory. Suitable for development and tests.
//
//   - vault: A HashiCorp Vault KV v2 backend. Values and authorization
//     lists are kept under a configurable mount and path, one Vault
//     secret per handle. The server checks Vault availability at
//     startup and refuses to start against a sealed or unreachable
//     Vault.
//
// Configuration is handled through command-line flags, with separate
// settings for HTTP endpoints, store selection, Vault connectivity,
// and logging.
//
// The server implements graceful shutdown on receiving termination
// signals (SIGINT/SIGTERM) and supports health checks, metrics
// collection, and optional profiling endpoints.
//
// Example usage with the in-memory store:
//
//	ledger-server --listen-addr=0.0.0.0:8080 --store-type=local
//
// Example usage with Vault:
//
//	ledger-server --listen-addr=0.0.0.0:8080 \
//	    --store-type=vault \
//	    --vault-addr=https://vault.example.com:8200 \
//	    --vault-mount=secret \
//	    --vault-path=document-ledger
package main

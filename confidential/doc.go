// Package confidential implements the confidential-value authority
// behind the interfaces.ConfidentialValueStore contract. The authority
// is the trust boundary for document secrets: it mints opaque handles
// for confidential integers, keeps its own per-identity authorization
// list, and only releases a plaintext to a requester whose decryption
// proof verifies.
//
// Two implementations are provided. LocalStore keeps everything
// in-process and is the default for single-node deployments and tests.
// VaultStore keeps values and authorization lists in HashiCorp Vault
// KV v2, placing the trust boundary in an external service.
package confidential

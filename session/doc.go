// Package session drives the client-side workflow: creating documents,
// revealing secrets through the confidential-value authority, and
// transforming bodies with the symmetric codec before submitting them
// back to the ledger. A session never persists a plaintext secret;
// secrets exist only for the duration of the call that uses them.
package session

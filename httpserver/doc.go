// Package httpserver exposes the document ledger over HTTP. The
// transport is deliberately thin: request identities arrive in the
// X-Ledger-Identity header (how callers prove control of an identity
// is outside this service), bodies are JSON, and every ledger error
// kind maps to a stable status code so clients can decide whether to
// retry, re-authenticate or abandon.
//
// Alongside the API the server carries the usual operational surface:
// liveness and readiness probes, drain/undrain for rolling restarts,
// an optional pprof mount, and a separate Prometheus metrics listener.
package httpserver

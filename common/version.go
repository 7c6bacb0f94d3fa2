// Package common holds small shared helpers: service identity and
// logger setup used by the binaries.
package common

// PackageName tags metrics and logs emitted by this service.
const PackageName = "document-ledger-backend"

// Version is set at build time via -ldflags.
var Version = "dev"

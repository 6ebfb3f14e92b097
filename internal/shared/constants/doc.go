// Package constants centralizes defaults shared by the probe engine, the
// gateway and the HTTP service.
//
// Timeouts, read limits and user agents live here so that cmd/ and the
// internal packages agree on them without importing each other. Values can be
// overridden at runtime through internal/config.
package constants

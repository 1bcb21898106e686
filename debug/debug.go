//go:build !debug

package debug

// Debug controls verbose logging and expensive sanity checks.
// Build with -tags=debug to enable.
const Debug = false

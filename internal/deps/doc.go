// Package deps resolves and verifies the external tool binaries before any
// work is admitted. Verification runs each binary with -version under a
// short timeout so a missing or broken install fails fast at startup rather
// than mid-job.
package deps

// Package exitcodes defines the exit codes of a tfw test binary.
package exitcodes

// Exit code constants used by tfw test binaries.
//
// A run exits with the number of failed test methods, so 0 means every
// selected method passed or was skipped. The count is capped at MaxFailures
// because exit statuses are reduced modulo 256 and a large count must never
// look like success. RuntimeErr reports a run that could not be carried out,
// e.g. an unreadable test list or scratch directory.
const (
	Success     = 0   // All tests pass
	MaxFailures = 254 // Highest exit code used for failed tests
	RuntimeErr  = 255 // Runtime or configuration errors
)

// FromFailures returns the exit code for a run with failed test methods.
func FromFailures(failed int) int {
	switch {
	case failed <= 0:
		return Success
	case failed > MaxFailures:
		return MaxFailures
	default:
		return failed
	}
}

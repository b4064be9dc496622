package errors

import "errors"

// Exit codes used by the CLI. Distinct codes let wrapper scripts tell an auth
// problem (re-run `ridelog auth`) from a transient API failure.
const (
	ExitOK         = 0
	ExitGeneral    = 1
	ExitUsage      = 2
	ExitAuth       = 5
	ExitConfig     = 7
	ExitExternal   = 8
	ExitProcessing = 11
	ExitDaemon     = 12
)

// ExitCodeFor determines the appropriate exit code for an error.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitOK
	}

	var re *RidelogError
	if !errors.As(err, &re) {
		return ExitGeneral
	}

	switch re.Category {
	case CategoryValidation:
		return ExitUsage
	case CategoryConfig:
		return ExitConfig
	case CategoryAuth:
		return ExitAuth
	case CategoryNetwork, CategoryAPI, CategoryRateLimit:
		return ExitExternal
	case CategoryRender, CategoryState, CategoryFileSystem:
		return ExitProcessing
	case CategoryDaemon:
		return ExitDaemon
	default:
		return ExitGeneral
	}
}

package core

// Process exit codes. Signal exits use the Unix 128+signal convention so
// supervisors can tell a requested stop from a crash.
const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1

	// 128 + SIGINT(2)
	ExitCodeSIGINT = 130

	// 128 + SIGTERM(15)
	ExitCodeSIGTERM = 143
)

// ExitCodeName translates an exit code for shutdown logs.
func ExitCodeName(code int) string {
	switch code {
	case ExitCodeSuccess:
		return "success"
	case ExitCodeError:
		return "error"
	case ExitCodeSIGINT:
		return "interrupted (SIGINT)"
	case ExitCodeSIGTERM:
		return "terminated (SIGTERM)"
	default:
		return "unknown"
	}
}

// IsSignalExit reports whether the code encodes a signal termination.
func IsSignalExit(code int) bool {
	return code == ExitCodeSIGINT || code == ExitCodeSIGTERM
}

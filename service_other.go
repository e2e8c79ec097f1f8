//go:build !windows

package main

// RunAsService is a no-op off Windows; the process runs in the foreground
// under whatever supervisor launched it.
func RunAsService() (bool, error) {
	return false, nil
}

// HandleServiceCommand is a no-op off Windows.
func HandleServiceCommand(args []string) bool {
	return false
}

package simctl

import "syscall"

// rawWaitStatus extracts the raw waitpid(2) status word from the value
// os.ProcessState.Sys returns.
func rawWaitStatus(sys interface{}) (int, bool) {
	if ws, ok := sys.(syscall.WaitStatus); ok {
		return int(ws), true
	}
	if ws, ok := sys.(interface{ ExitStatus() int }); ok {
		// Fallback: reconstruct a clean-exit status word.
		return ws.ExitStatus() << 8, true
	}
	return 0, false
}

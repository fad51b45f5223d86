//go:build unix

package solver

import (
	"os"
	"runtime"
	"syscall"
)

// peakRSSMB reads the child's peak resident set size from its rusage.
// Linux reports Maxrss in KiB, Darwin in bytes.
func peakRSSMB(state *os.ProcessState) int64 {
	ru, ok := state.SysUsage().(*syscall.Rusage)
	if !ok || ru == nil {
		return 0
	}
	if runtime.GOOS == "darwin" {
		return ru.Maxrss / (1024 * 1024)
	}
	return ru.Maxrss / 1024
}

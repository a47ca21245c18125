package lock

import (
	"os"
	"strconv"
	"strings"
)

// ReadLockPID reads the PID recorded in a lock file. Returns 0 when the
// file is absent or holds no parseable PID.
func ReadLockPID(path string) int {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil || pid <= 0 {
		return 0
	}
	return pid
}

//go:build !windows

package fileipc

import "time"

// postTrigger is a no-op off windows; tests inject their own trigger.
func postTrigger(target uintptr, command string, settle time.Duration) error {
	_ = target
	_ = command
	_ = settle
	return nil
}

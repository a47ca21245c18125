//go:build windows

package fileipc

import (
	"fmt"
	"time"
)

const (
	wmKeyDown = 0x0100
	wmKeyUp   = 0x0101
	wmChar    = 0x0102

	vkEscape = 0x1B
	vkReturn = 0x0D
)

// postTrigger cancels any pending command with two escapes, then types the
// dispatcher invocation followed by a carriage return. Messages are posted,
// not sent, so the target window processes them on its own thread.
func postTrigger(target uintptr, command string, settle time.Duration) error {
	if target == 0 {
		return fmt.Errorf("no target window for trigger")
	}

	for i := 0; i < 2; i++ {
		procPostMessageW.Call(target, wmKeyDown, vkEscape, 0)
		procPostMessageW.Call(target, wmKeyUp, vkEscape, 0)
	}
	time.Sleep(settle)

	for _, r := range command {
		ret, _, err := procPostMessageW.Call(target, wmChar, uintptr(r), 0)
		if ret == 0 {
			return fmt.Errorf("post WM_CHAR %q: %w", r, err)
		}
	}
	if ret, _, err := procPostMessageW.Call(target, wmChar, vkReturn, 0); ret == 0 {
		return fmt.Errorf("post trigger return: %w", err)
	}
	time.Sleep(settle)
	return nil
}

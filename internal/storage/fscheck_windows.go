//go:build windows

package storage

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sys/windows"
)

// detectFilesystemType classifies the volume backing path. Mapped and UNC
// drives report as "cifs" so the shared network-filesystem table applies;
// local volumes report their filesystem name (ntfs, refs, fat32, ...).
func detectFilesystemType(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", path, err)
	}
	root := filepath.VolumeName(abs) + `\`
	rootPtr, err := windows.UTF16PtrFromString(root)
	if err != nil {
		return "", fmt.Errorf("volume root %q: %w", root, err)
	}

	if windows.GetDriveType(rootPtr) == windows.DRIVE_REMOTE {
		return "cifs", nil
	}

	var fsName [windows.MAX_PATH + 1]uint16
	if err := windows.GetVolumeInformation(rootPtr, nil, 0, nil, nil, nil, &fsName[0], uint32(len(fsName))); err != nil {
		return "", fmt.Errorf("volume information for %q: %w", root, err)
	}
	return strings.ToLower(windows.UTF16ToString(fsName[:])), nil
}

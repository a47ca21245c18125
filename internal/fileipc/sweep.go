package fileipc

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// SweepStale deletes exchange artifacts under dir whose last-modified time is
// older than olderThan: command/result JSON files, staging .tmp files, and
// session LISP scripts. It guards against leftovers from a previous crashed
// session sharing the same exchange directory. Best effort; returns the
// number of files removed.
func SweepStale(dir, prefix string, olderThan time.Duration, logger *slog.Logger) int {
	return sweepStale(dir, prefix, olderThan, logger, nil)
}

func sweepStale(dir, prefix string, olderThan time.Duration, logger *slog.Logger, onRemoved func(path string, age time.Duration)) int {
	patterns := []string{
		fmt.Sprintf("%s_*.json", prefix),
		fmt.Sprintf("%s_*.tmp", prefix),
		fmt.Sprintf("%s_lisp_*.lsp", prefix),
	}

	cutoff := time.Now().Add(-olderThan)
	removed := 0

	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			continue
		}
		for _, path := range matches {
			info, err := os.Stat(path)
			if err != nil {
				continue
			}
			if info.ModTime().After(cutoff) {
				continue
			}
			if err := os.Remove(path); err != nil {
				if logger != nil {
					logger.Debug("stale artifact removal failed", "path", path, "error", err)
				}
				continue
			}
			removed++
			age := time.Since(info.ModTime())
			if onRemoved != nil {
				onRemoved(path, age)
			}
			if logger != nil {
				logger.Debug("stale artifact removed", "path", path, "age", age.Round(time.Second).String())
			}
		}
	}

	if removed > 0 && logger != nil {
		logger.Info("stale exchange artifacts swept", "dir", dir, "removed", removed)
	}
	return removed
}

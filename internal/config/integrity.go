package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// IntegrityResult collects the outcome of a manifest verification.
type IntegrityResult struct {
	Passed   bool
	Warnings []string
	Errors   []string
}

// VerifyIntegrity checks the named files against the .checksums manifest in
// configDir. A missing manifest is a warning (integrity not yet enabled); a
// covered file that mismatches, or an existing file the manifest does not
// cover, is an error.
func VerifyIntegrity(configDir string, files []string) (*IntegrityResult, error) {
	result := &IntegrityResult{Passed: true}

	checksumPath := filepath.Join(configDir, ".checksums")
	manifest, err := LoadChecksums(configDir)
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("no .checksums manifest found at %s; run 'drawbridge config lock' to enable integrity verification", checksumPath))
		return result, nil
	}

	for _, filename := range files {
		filePath := filepath.Join(configDir, filename)
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			if _, hasHash := manifest.Hashes[filename]; hasHash {
				result.Passed = false
				result.Errors = append(result.Errors,
					fmt.Sprintf("file %s is in .checksums but missing from disk", filename))
			}
			continue
		}

		expectedHash, inManifest := manifest.Hashes[filename]
		if !inManifest {
			result.Passed = false
			result.Errors = append(result.Errors,
				fmt.Sprintf("file %s not in .checksums manifest; run 'drawbridge config lock'", filename))
			continue
		}

		actualHash, err := ComputeBlake3Hash(filePath)
		if err != nil {
			result.Passed = false
			result.Errors = append(result.Errors, fmt.Sprintf("failed to hash %s: %v", filename, err))
			continue
		}

		if actualHash != expectedHash {
			result.Passed = false
			result.Errors = append(result.Errors,
				fmt.Sprintf("hash mismatch for %s (expected %s, got %s)", filename, expectedHash, actualHash))
		}
	}

	return result, nil
}

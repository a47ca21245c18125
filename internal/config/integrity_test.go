package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeIntegrityFixture(t *testing.T) (string, string) {
	t.Helper()
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(path, []byte("backend:\n  mode: memdoc\n"), 0600); err != nil {
		t.Fatal(err)
	}
	return tmpDir, path
}

func TestVerifyIntegrityNoManifestWarns(t *testing.T) {
	tmpDir, _ := writeIntegrityFixture(t)

	result, err := VerifyIntegrity(tmpDir, []string{"config.yaml"})
	if err != nil {
		t.Fatalf("VerifyIntegrity() error = %v", err)
	}
	if !result.Passed {
		t.Fatal("expected pass with missing manifest")
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", result.Warnings)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("expected no errors, got %v", result.Errors)
	}
}

func TestVerifyIntegrityMatch(t *testing.T) {
	tmpDir, _ := writeIntegrityFixture(t)

	if err := GenerateChecksums(tmpDir, []string{"config.yaml"}); err != nil {
		t.Fatal(err)
	}

	result, err := VerifyIntegrity(tmpDir, []string{"config.yaml"})
	if err != nil {
		t.Fatalf("VerifyIntegrity() error = %v", err)
	}
	if !result.Passed || len(result.Errors) != 0 || len(result.Warnings) != 0 {
		t.Fatalf("expected clean pass, got %+v", result)
	}
}

func TestVerifyIntegrityMismatch(t *testing.T) {
	tmpDir, path := writeIntegrityFixture(t)

	if err := GenerateChecksums(tmpDir, []string{"config.yaml"}); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("backend:\n  mode: fileipc\n"), 0600); err != nil {
		t.Fatal(err)
	}

	result, err := VerifyIntegrity(tmpDir, []string{"config.yaml"})
	if err != nil {
		t.Fatalf("VerifyIntegrity() error = %v", err)
	}
	if result.Passed {
		t.Fatal("expected failure after modification")
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 error, got %v", result.Errors)
	}
}

func TestVerifyIntegrityUncoveredFile(t *testing.T) {
	tmpDir, _ := writeIntegrityFixture(t)

	if err := GenerateChecksums(tmpDir, []string{"config.yaml"}); err != nil {
		t.Fatal(err)
	}
	extra := filepath.Join(tmpDir, "tokens.yaml")
	if err := os.WriteFile(extra, []byte("tokens: []\n"), 0600); err != nil {
		t.Fatal(err)
	}

	result, err := VerifyIntegrity(tmpDir, []string{"config.yaml", "tokens.yaml"})
	if err != nil {
		t.Fatalf("VerifyIntegrity() error = %v", err)
	}
	if result.Passed {
		t.Fatal("expected failure for uncovered file")
	}
}

func TestVerifyIntegrityManifestEntryMissingOnDisk(t *testing.T) {
	tmpDir, path := writeIntegrityFixture(t)

	if err := GenerateChecksums(tmpDir, []string{"config.yaml"}); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	result, err := VerifyIntegrity(tmpDir, []string{"config.yaml"})
	if err != nil {
		t.Fatalf("VerifyIntegrity() error = %v", err)
	}
	if result.Passed {
		t.Fatal("expected failure when a covered file is gone")
	}
}

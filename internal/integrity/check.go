// Package integrity checks the running binary against a known SHA-256 digest.
// The digest is embedded at build time via ldflags or read from a checksum
// file. A mismatch is recorded in the audit journal and long-running servers
// refuse to start.
package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/ppiankov/actiongate/internal/audit"
	"github.com/ppiankov/actiongate/internal/model"
)

// ExpectedHash is set at build time via:
//
//	-ldflags "-X github.com/ppiankov/actiongate/internal/integrity.ExpectedHash=<sha256hex>"
//
// When empty (dev builds), the checksum files in ChecksumPaths are used.
var ExpectedHash string

// ChecksumPaths are checked in order for a file holding one hex SHA-256 digest.
var ChecksumPaths = []string{
	"$HOME/.actiongate/binary.sha256",
}

// Status is the outcome of a binary check.
type Status string

const (
	StatusVerified Status = "verified"
	StatusSkipped  Status = "skipped"
	StatusMismatch Status = "mismatch"
)

// TamperRule is the rule name recorded for a checksum mismatch.
const TamperRule = "integrity.binary_mismatch"

// Result describes one binary check.
type Result struct {
	Status   Status
	Binary   string
	Expected string
	Actual   string
	Source   string // "build" or the checksum file path
}

func (r Result) String() string {
	switch r.Status {
	case StatusSkipped:
		return "no build-time hash or checksum file (dev build)"
	case StatusVerified:
		return fmt.Sprintf("checksum verified (%s...%s)", r.Actual[:8], r.Actual[len(r.Actual)-8:])
	default:
		return fmt.Sprintf("checksum mismatch (expected %s, got %s)", r.Expected, r.Actual)
	}
}

// Check hashes the running executable.
func Check() (Result, error) {
	exe, err := os.Executable()
	if err != nil {
		return Result{}, fmt.Errorf("integrity: resolve executable path: %w", err)
	}
	return CheckFile(exe)
}

// CheckFile hashes path and compares it with the expected digest.
// Without an expected digest the result is StatusSkipped.
func CheckFile(path string) (Result, error) {
	r := Result{Binary: path, Expected: strings.ToLower(ExpectedHash), Source: "build"}
	if r.Expected == "" {
		r.Expected, r.Source = loadChecksumFile()
	}
	if r.Expected == "" {
		r.Status = StatusSkipped
		return r, nil
	}

	actual, err := hashFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("integrity: hash binary: %w", err)
	}
	r.Actual = actual
	if actual == r.Expected {
		r.Status = StatusVerified
	} else {
		r.Status = StatusMismatch
	}
	return r, nil
}

// HashSelf returns the SHA-256 hex digest of the running binary.
func HashSelf() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("integrity: resolve executable path: %w", err)
	}
	return hashFile(exe)
}

// WriteChecksum pins the running binary by writing its digest to path.
func WriteChecksum(path string) (string, error) {
	sum, err := HashSelf()
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(sum+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("integrity: write checksum: %w", err)
	}
	return sum, nil
}

// RecordTamper appends a critical, blocked entry for a mismatch to j.
func RecordTamper(j *audit.Journal, r Result) error {
	return j.Record(audit.JournalEntry{
		EventID:  uuid.NewString(),
		Action:   "binary_tamper",
		Target:   r.Binary,
		Score:    100,
		Level:    string(model.RiskCritical),
		Rules:    []string{TamperRule},
		Allowed:  false,
		Decision: string(model.DecisionAutoBlocked),
	})
}

// Verify checks the running binary and returns an error on mismatch.
// When j is not nil the mismatch is recorded in it first.
func Verify(j *audit.Journal) (Result, error) {
	r, err := Check()
	if err != nil {
		return r, err
	}
	return r, enforce(j, r)
}

func enforce(j *audit.Journal, r Result) error {
	if r.Status != StatusMismatch {
		return nil
	}
	if j != nil {
		if err := RecordTamper(j, r); err != nil {
			return fmt.Errorf("integrity: %s; record tamper event: %w", r, err)
		}
	}
	return fmt.Errorf("integrity: %s", r)
}

// loadChecksumFile returns the first valid digest and the file it came from.
func loadChecksumFile() (string, string) {
	for _, p := range ChecksumPaths {
		path := os.ExpandEnv(p)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		hash := strings.ToLower(strings.TrimSpace(string(data)))
		if len(hash) == 64 && isHex(hash) {
			return hash, path
		}
	}
	return "", ""
}

func isHex(s string) bool {
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

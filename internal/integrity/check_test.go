package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/actiongate/internal/audit"
)

// withExpected overrides the package-level sources for one test.
func withExpected(t *testing.T, hash string, paths ...string) {
	t.Helper()
	oldHash, oldPaths := ExpectedHash, ChecksumPaths
	ExpectedHash, ChecksumPaths = hash, paths
	t.Cleanup(func() {
		ExpectedHash, ChecksumPaths = oldHash, oldPaths
	})
}

func writeBinary(t *testing.T, content string) (string, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "actiongate")
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		t.Fatal(err)
	}
	h := sha256.Sum256([]byte(content))
	return path, hex.EncodeToString(h[:])
}

func TestCheckSkipsWithoutExpectedHash(t *testing.T) {
	withExpected(t, "", "/nonexistent/path")
	bin, _ := writeBinary(t, "binary")

	r, err := CheckFile(bin)
	if err != nil {
		t.Fatal(err)
	}
	if r.Status != StatusSkipped {
		t.Errorf("expected skipped, got %s", r.Status)
	}
	if err := enforce(nil, r); err != nil {
		t.Errorf("skipped check must not fail: %v", err)
	}
}

func TestCheckVerifiesBuildHash(t *testing.T) {
	bin, sum := writeBinary(t, "test binary content")
	withExpected(t, strings.ToUpper(sum))

	r, err := CheckFile(bin)
	if err != nil {
		t.Fatal(err)
	}
	if r.Status != StatusVerified || r.Source != "build" {
		t.Errorf("expected verified from build hash, got %+v", r)
	}
	if !strings.Contains(r.String(), sum[:8]) {
		t.Errorf("unexpected summary: %s", r)
	}
}

func TestCheckReadsChecksumFile(t *testing.T) {
	bin, sum := writeBinary(t, "pinned")
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.sha256")
	good := filepath.Join(dir, "binary.sha256")
	if err := os.WriteFile(bad, []byte("not-a-digest\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(good, []byte(sum+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	withExpected(t, "", filepath.Join(dir, "missing.sha256"), bad, good)

	r, err := CheckFile(bin)
	if err != nil {
		t.Fatal(err)
	}
	if r.Status != StatusVerified || r.Source != good {
		t.Errorf("expected verified from %s, got %+v", good, r)
	}
}

func TestMismatchRecordedInJournal(t *testing.T) {
	bin, _ := writeBinary(t, "tampered")
	withExpected(t, "deadbeef")

	r, err := CheckFile(bin)
	if err != nil {
		t.Fatal(err)
	}
	if r.Status != StatusMismatch || r.Actual == "" {
		t.Fatalf("expected mismatch, got %+v", r)
	}

	path := filepath.Join(t.TempDir(), "journal.jsonl")
	j, err := audit.OpenJournal(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := enforce(j, r); err == nil || !strings.Contains(err.Error(), "mismatch") {
		t.Fatalf("expected mismatch error, got %v", err)
	}
	j.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var entry audit.JournalEntry
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry); err != nil {
		t.Fatalf("failed to parse journal entry: %v", err)
	}
	if entry.Action != "binary_tamper" || entry.Target != bin || entry.Allowed {
		t.Errorf("unexpected tamper entry: %+v", entry)
	}
	if entry.Level != "critical" || len(entry.Rules) != 1 || entry.Rules[0] != TamperRule {
		t.Errorf("expected critical entry with %s, got %+v", TamperRule, entry)
	}
	if v := audit.Verify(path); !v.Valid || v.Lines != 1 {
		t.Errorf("tamper entry must keep the chain valid: %+v", v)
	}
}

func TestMismatchWithoutJournalStillFails(t *testing.T) {
	err := enforce(nil, Result{Status: StatusMismatch, Expected: "aa", Actual: "bb"})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestWriteChecksumPinsRunningBinary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "binary.sha256")
	sum, err := WriteChecksum(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(sum) != 64 || !isHex(sum) {
		t.Fatalf("unexpected digest %q", sum)
	}
	withExpected(t, "", path)

	r, err := Check()
	if err != nil {
		t.Fatal(err)
	}
	if r.Status != StatusVerified {
		t.Errorf("pinned binary should verify, got %+v", r)
	}
}

func TestIsHex(t *testing.T) {
	for s, want := range map[string]bool{"0123abcDEF": true, "xyz": false, "": true} {
		if got := isHex(s); got != want {
			t.Errorf("isHex(%q) = %v, want %v", s, got, want)
		}
	}
}

package audit

import (
	"os"
	"path/filepath"
	"testing"
)

func FuzzVerify(f *testing.F) {
	// Seed with a valid 3-entry chain
	validLog := filepath.Join(f.TempDir(), "valid.jsonl")
	j, err := OpenJournal(validLog)
	if err != nil {
		f.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		j.Record(JournalEntry{Action: "click", Target: "Continue", Level: "low", Allowed: true, Decision: "auto_allowed"})
	}
	j.Close()
	validData, _ := os.ReadFile(validLog)
	f.Add(validData)

	f.Add([]byte{})
	f.Add([]byte(`{"not":"a valid entry"}` + "\n"))
	f.Add([]byte(`not json`))

	f.Fuzz(func(t *testing.T, data []byte) {
		tmpFile := filepath.Join(t.TempDir(), "fuzz.jsonl")
		os.WriteFile(tmpFile, data, 0600)

		// Must not panic
		Verify(tmpFile)
		Replay(tmpFile, ReplayFilter{})
	})
}

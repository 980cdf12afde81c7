package audit

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ppiankov/actiongate/internal/model"
)

// GenesisHash is the prev_hash for the first entry in a new journal.
const GenesisHash = "sha256:0000000000000000000000000000000000000000000000000000000000000000"

// Journal is an append-only JSONL audit trail with SHA-256 hash chaining.
// Each entry's prev_hash is the hash of the previous entry's JSON line,
// forming a tamper-evident chain. Journal implements Sink.
type Journal struct {
	path       string
	file       *os.File
	prevHash   string
	policyHash string
	mu         sync.Mutex
}

// OpenJournal opens (or creates) a journal file for appending.
// If the file already exists, it reads the last line to recover the chain tail.
func OpenJournal(path string) (*Journal, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("audit: create directory: %w", err)
	}

	prevHash := GenesisHash

	// Read existing file to find chain tail
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("audit: read existing journal: %w", err)
		}
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		var lastLine []byte
		for scanner.Scan() {
			if len(scanner.Bytes()) == 0 {
				continue
			}
			lastLine = append(lastLine[:0], scanner.Bytes()...)
		}
		f.Close()
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("audit: scan existing journal: %w", err)
		}
		if len(lastLine) > 0 {
			prevHash = HashLine(lastLine)
		}
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("audit: open file: %w", err)
	}

	return &Journal{
		path:     path,
		file:     file,
		prevHash: prevHash,
	}, nil
}

// SetPolicyHash stamps subsequent entries with the hash of the active rule file.
func (j *Journal) SetPolicyHash(hash string) {
	j.mu.Lock()
	j.policyHash = hash
	j.mu.Unlock()
}

// Write records a masked event. It satisfies Sink.
func (j *Journal) Write(ev model.SecurityEvent) error {
	return j.Record(EntryFromEvent(ev))
}

// Record appends an entry with hash chaining.
// It sets PrevHash, PolicyHash (if empty) and Timestamp (if empty),
// marshals to JSON, writes the line, and syncs to disk.
func (j *Journal) Record(entry JournalEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if entry.Timestamp == "" {
		entry.Timestamp = model.Now()
	}
	if entry.PolicyHash == "" {
		entry.PolicyHash = j.policyHash
	}
	if entry.Rules == nil {
		entry.Rules = []string{}
	}
	entry.PrevHash = j.prevHash

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("audit: marshal entry: %w", err)
	}

	if _, err := j.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("audit: write entry: %w", err)
	}

	if err := j.file.Sync(); err != nil {
		return fmt.Errorf("audit: sync: %w", err)
	}

	j.prevHash = HashLine(line)
	return nil
}

// Path returns the journal file path.
func (j *Journal) Path() string {
	return j.path
}

// Close flushes and closes the underlying file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.file.Close()
}

// HashLine returns "sha256:<hex>" of the given bytes.
func HashLine(line []byte) string {
	h := sha256.Sum256(line)
	return "sha256:" + hex.EncodeToString(h[:])
}

package audit

import (
	"path/filepath"
	"testing"

	"github.com/ppiankov/actiongate/internal/model"
)

func BenchmarkJournalRecord(b *testing.B) {
	j, err := OpenJournal(filepath.Join(b.TempDir(), "bench.jsonl"))
	if err != nil {
		b.Fatal(err)
	}
	defer j.Close()

	entry := JournalEntry{Action: "click", Target: "Continue", Level: "low", Allowed: true, Decision: "auto_allowed"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		j.Record(entry)
	}
}

func BenchmarkStoreLogAction(b *testing.B) {
	s := NewStore()
	ra := model.NewRiskAssessment(45, []string{"email_input"}, nil, 0.7)
	ctx := model.Context{model.KeyCurrentURL: "https://mail.example/compose"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.LogAction(model.KindTypeEmail, "alice@example.com", ra, true, "", ctx)
	}
}

func BenchmarkMaskContext(b *testing.B) {
	ctx := model.Context{
		model.KeyCurrentURL: "https://bank.example/login",
		"password":          "hunter2",
		"notes":             "card 4111 1111 1111 1234",
	}
	for i := 0; i < b.N; i++ {
		MaskContext(ctx)
	}
}

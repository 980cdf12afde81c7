package pattern

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
)

func TestPasswordSubstringDetected(t *testing.T) {
	m := New()
	a := m.ExtractSensitiveData("mypassword123")

	if !a.ContainsPasswords {
		t.Fatal("expected contains_passwords for mypassword123")
	}
	if a.Stats.TotalPatterns != 1 {
		t.Errorf("expected exactly one match, got %d: %v", a.Stats.TotalPatterns, a.Patterns)
	}
	if want := (0.9 + 0.2) / 2; a.Confidence != want {
		t.Errorf("expected confidence %v, got %v", want, a.Confidence)
	}
	if strings.Contains(a.MaskedText, "123") {
		t.Errorf("masked text leaked password tail: %q", a.MaskedText)
	}
}

func TestNothingMatched(t *testing.T) {
	a := New().ExtractSensitiveData("hello")
	if a.Stats.TotalPatterns != 0 || a.Confidence != 0 {
		t.Errorf("expected no matches and zero confidence, got %d / %v", a.Stats.TotalPatterns, a.Confidence)
	}
	if a.ContainsPasswords || a.ContainsFinancial || a.ContainsDangerous || a.ContainsPersonalData {
		t.Error("no flags expected")
	}
	if a.Metadata.TextLength != 5 || a.Metadata.WordCount != 1 {
		t.Errorf("unexpected metadata %+v", a.Metadata)
	}
}

func TestDangerousMarkup(t *testing.T) {
	a := New().ExtractSensitiveData("<script>alert(1)</script>")
	if !a.ContainsDangerous || !a.Stats.HasDangerous {
		t.Fatal("expected dangerous pattern")
	}
	if a.Confidence <= 0 {
		t.Error("expected positive confidence")
	}
}

func TestFinancialAndContact(t *testing.T) {
	m := New()

	fin := m.ExtractSensitiveData("4111 1111 1111 1111")
	if !fin.ContainsFinancial {
		t.Error("expected financial flag for card number")
	}
	if got := fin.Patterns[CategoryFinancial]["card_number"]; len(got) != 1 || got[0] != "4111 1111 1111 1111" {
		t.Errorf("unexpected card matches %v", got)
	}

	contact := m.ExtractSensitiveData("call +7 999 123-45-67")
	if !contact.ContainsContactInfo || !contact.ContainsPersonalData {
		t.Error("expected contact info for phone number")
	}
}

func TestFindPatternsFilter(t *testing.T) {
	m := New()

	got := m.FindPatterns("write to alice@example.com", CategoryPersonal)
	if len(got) != 1 {
		t.Fatalf("expected only personal_data, got %v", got)
	}
	if !reflect.DeepEqual(got[CategoryPersonal]["email"], []string{"alice@example.com"}) {
		t.Errorf("unexpected email matches %v", got[CategoryPersonal])
	}

	if res := m.FindPatterns("alice@example.com", "no_such_category"); len(res) != 0 {
		t.Errorf("unknown category must yield empty result, got %v", res)
	}
}

func TestCaptureGroupsFlatten(t *testing.T) {
	m, err := NewFromDefs(nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.AddPattern("custom", "either", `(foo)|(bar)`); err != nil {
		t.Fatal(err)
	}
	got := m.FindPatterns("foo and BAR", CategoryAll)["custom"]["either"]
	if !reflect.DeepEqual(got, []string{"foo", "BAR"}) {
		t.Errorf("expected non-empty groups [foo BAR], got %v", got)
	}
}

func TestAddPatternRejectsBadRegex(t *testing.T) {
	m := New()
	before := m.Categories()

	err := m.AddPattern("custom", "broken", "(unclosed")
	if !errors.Is(err, ErrInvalidPattern) {
		t.Fatalf("expected ErrInvalidPattern, got %v", err)
	}
	if !reflect.DeepEqual(before, m.Categories()) {
		t.Error("failed add must not change categories")
	}
	if err := m.AddPattern("", "x", "x"); !errors.Is(err, ErrInvalidPattern) {
		t.Errorf("expected error for empty category, got %v", err)
	}
}

func TestAddReplacesSameName(t *testing.T) {
	m := New()
	if err := m.AddPattern(CategoryDangerous, "xss", `zzz`); err != nil {
		t.Fatal(err)
	}
	for _, cd := range m.Defs() {
		if cd.Name != CategoryDangerous {
			continue
		}
		n := 0
		for _, d := range cd.Patterns {
			if d.Name == "xss" {
				n++
				if d.Expr != "zzz" {
					t.Errorf("expected replaced expr, got %q", d.Expr)
				}
			}
		}
		if n != 1 {
			t.Errorf("expected one xss pattern, got %d", n)
		}
	}
}

func TestRemoveLastPatternDropsCategory(t *testing.T) {
	m := New()
	if err := m.AddPattern("custom", "only", `needle`); err != nil {
		t.Fatal(err)
	}
	if !m.RemovePattern("custom", "only") {
		t.Fatal("expected removal")
	}
	for _, c := range m.Categories() {
		if c == "custom" {
			t.Error("empty category should be removed")
		}
	}
	if m.RemovePattern("custom", "only") {
		t.Error("second removal must report false")
	}
}

func TestRedactedDropsRawMatches(t *testing.T) {
	a := New().ExtractSensitiveData("password is hunter2, mail bob@example.com")
	r := a.Redacted()
	if r.Patterns != nil {
		t.Error("redacted analysis must not carry raw matches")
	}
	if r.Counts["personal_data.email"] != 1 {
		t.Errorf("expected email count, got %v", r.Counts)
	}
	if a.Patterns == nil {
		t.Error("Redacted must not modify the receiver")
	}
}

func TestConcurrentAccess(t *testing.T) {
	m := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("p%d", i)
			_ = m.AddPattern("custom", name, name)
			m.RemovePattern("custom", name)
		}(i)
		go func() {
			defer wg.Done()
			m.ExtractSensitiveData("my password is secret")
		}()
	}
	wg.Wait()
}

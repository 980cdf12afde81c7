// Package pattern finds sensitive data, credentials and injection markers in
// free text using ordered families of named regular expressions.
package pattern

import (
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/ppiankov/actiongate/internal/redact"
)

// ErrInvalidPattern is returned by AddPattern for empty names or bad regexes.
var ErrInvalidPattern = errors.New("invalid pattern")

// Matches maps category → pattern name → matched substrings.
type Matches map[string]map[string][]string

// Total counts every matched substring.
func (m Matches) Total() int {
	n := 0
	for _, byName := range m {
		for _, found := range byName {
			n += len(found)
		}
	}
	return n
}

// Names returns "category.name" for every pattern that matched.
func (m Matches) Names() []string {
	var out []string
	for _, cat := range slices.Sorted(maps.Keys(m)) {
		for _, name := range slices.Sorted(maps.Keys(m[cat])) {
			out = append(out, cat+"."+name)
		}
	}
	return out
}

type compiled struct {
	name string
	expr string
	re   *regexp.Regexp
}

type category struct {
	name     string
	patterns []compiled
}

// Matcher holds compiled pattern families. Safe for concurrent use.
type Matcher struct {
	mu         sync.RWMutex
	categories []*category
}

// New returns a Matcher loaded with DefaultCategories.
func New() *Matcher {
	m, err := NewFromDefs(DefaultCategories)
	if err != nil {
		panic(fmt.Sprintf("pattern: built-in patterns: %v", err))
	}
	return m
}

// NewFromDefs compiles defs in order. Any bad expression fails the whole set.
func NewFromDefs(defs []CategoryDef) (*Matcher, error) {
	m := &Matcher{}
	for _, cd := range defs {
		for _, d := range cd.Patterns {
			if err := m.AddPattern(cd.Name, d.Name, d.Expr); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func compile(expr string) (*regexp.Regexp, error) {
	return regexp.Compile("(?i)" + expr)
}

// AddPattern compiles expr case-insensitively and appends it to category,
// creating the category if needed. A pattern with the same name in the same
// category is replaced in place. On error nothing changes.
func (m *Matcher) AddPattern(categoryName, name, expr string) error {
	if categoryName == "" || categoryName == CategoryAll || name == "" {
		return fmt.Errorf("%w: category and name are required", ErrInvalidPattern)
	}
	re, err := compile(expr)
	if err != nil {
		return fmt.Errorf("%w: %s.%s: %v", ErrInvalidPattern, categoryName, name, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cat := m.find(categoryName)
	if cat == nil {
		cat = &category{name: categoryName}
		m.categories = append(m.categories, cat)
	}
	p := compiled{name: name, expr: expr, re: re}
	for i := range cat.patterns {
		if cat.patterns[i].name == name {
			cat.patterns[i] = p
			return nil
		}
	}
	cat.patterns = append(cat.patterns, p)
	return nil
}

// RemovePattern deletes one pattern. Removing the last pattern of a category
// removes the category. Returns false when nothing matched.
func (m *Matcher) RemovePattern(categoryName, name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for ci, cat := range m.categories {
		if cat.name != categoryName {
			continue
		}
		for pi, p := range cat.patterns {
			if p.name != name {
				continue
			}
			cat.patterns = append(cat.patterns[:pi], cat.patterns[pi+1:]...)
			if len(cat.patterns) == 0 {
				m.categories = append(m.categories[:ci], m.categories[ci+1:]...)
			}
			return true
		}
	}
	return false
}

// Categories lists category names in insertion order.
func (m *Matcher) Categories() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, len(m.categories))
	for i, c := range m.categories {
		out[i] = c.name
	}
	return out
}

// Defs returns the current pattern definitions in order.
func (m *Matcher) Defs() []CategoryDef {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]CategoryDef, 0, len(m.categories))
	for _, c := range m.categories {
		cd := CategoryDef{Name: c.name}
		for _, p := range c.patterns {
			cd.Patterns = append(cd.Patterns, Def{Name: p.name, Expr: p.expr})
		}
		out = append(out, cd)
	}
	return out
}

// FindPatterns scans text with every pattern of one category, or of all
// categories when filter is "all". An unknown category yields an empty result.
// Patterns with capture groups report their non-empty groups instead of the
// whole match. Categories and names without matches are omitted.
func (m *Matcher) FindPatterns(text, filter string) Matches {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := Matches{}
	for _, cat := range m.categories {
		if filter != CategoryAll && filter != cat.name {
			continue
		}
		byName := map[string][]string{}
		for _, p := range cat.patterns {
			if found := findAll(p.re, text); len(found) > 0 {
				byName[p.name] = found
			}
		}
		if len(byName) > 0 {
			results[cat.name] = byName
		}
	}
	return results
}

func findAll(re *regexp.Regexp, text string) []string {
	if re.NumSubexp() == 0 {
		return re.FindAllString(text, -1)
	}
	var out []string
	for _, groups := range re.FindAllStringSubmatch(text, -1) {
		for _, g := range groups[1:] {
			if g != "" {
				out = append(out, g)
			}
		}
	}
	return out
}

// Stats summarizes which categories matched.
type Stats struct {
	TotalPatterns        int  `json:"total_patterns"`
	HasPersonal          bool `json:"has_personal_data"`
	HasFinancial         bool `json:"has_financial_data"`
	HasSensitiveKeywords bool `json:"has_sensitive_keywords"`
	HasDangerous         bool `json:"has_dangerous_patterns"`
}

// Metadata describes the scanned text.
type Metadata struct {
	TextLength int  `json:"text_length"`
	WordCount  int  `json:"word_count"`
	HasURLs    bool `json:"has_urls"`
}

// Analysis is the result of ExtractSensitiveData.
type Analysis struct {
	Patterns             Matches        `json:"patterns,omitempty"`
	Counts               map[string]int `json:"pattern_counts,omitempty"`
	Stats                Stats          `json:"stats"`
	ContainsPasswords    bool           `json:"contains_passwords"`
	ContainsFinancial    bool           `json:"contains_financial"`
	ContainsContactInfo  bool           `json:"contains_contact_info"`
	ContainsPersonalData bool           `json:"contains_personal_data"`
	ContainsDangerous    bool           `json:"contains_dangerous"`
	Confidence           float64        `json:"confidence"`
	MaskedText           string         `json:"masked_text"`
	Metadata             Metadata       `json:"metadata"`
}

// Redacted drops raw matched substrings, keeping per-pattern counts.
// Use it wherever the analysis may be persisted.
func (a Analysis) Redacted() Analysis {
	out := a
	out.Patterns = nil
	if len(a.Patterns) > 0 {
		out.Counts = make(map[string]int)
		for cat, byName := range a.Patterns {
			for name, found := range byName {
				out.Counts[cat+"."+name] = len(found)
			}
		}
	}
	return out
}

// Confidence weights per finding.
const (
	passwordConfidence  = 0.9
	financialConfidence = 0.8
	dangerousConfidence = 0.95
	perMatchConfidence  = 0.2
)

// ExtractSensitiveData runs every category over text and derives the
// content flags and a confidence: the mean of 0.9 (passwords), 0.8
// (financial), 0.95 (dangerous) and min(total×0.2, 1), or 0 when nothing matched.
func (m *Matcher) ExtractSensitiveData(text string) Analysis {
	found := m.FindPatterns(text, CategoryAll)

	a := Analysis{
		Patterns: found,
		Stats: Stats{
			TotalPatterns:        found.Total(),
			HasPersonal:          found[CategoryPersonal] != nil,
			HasFinancial:         found[CategoryFinancial] != nil,
			HasSensitiveKeywords: found[CategorySensitiveKeywords] != nil,
			HasDangerous:         found[CategoryDangerous] != nil,
		},
		MaskedText: redact.Mask(text),
		Metadata: Metadata{
			TextLength: len([]rune(text)),
			WordCount:  len(strings.Fields(text)),
			HasURLs:    found[CategoryURL] != nil,
		},
	}

	if kw := found[CategorySensitiveKeywords]; kw != nil {
		_, a.ContainsPasswords = kw["password"]
	}
	a.ContainsFinancial = a.Stats.HasFinancial
	if personal := found[CategoryPersonal]; personal != nil {
		a.ContainsPersonalData = true
		for _, name := range []string{"email", "phone_ru", "phone_international"} {
			if _, ok := personal[name]; ok {
				a.ContainsContactInfo = true
			}
		}
	}
	a.ContainsDangerous = a.Stats.HasDangerous

	var factors []float64
	if a.ContainsPasswords {
		factors = append(factors, passwordConfidence)
	}
	if a.ContainsFinancial {
		factors = append(factors, financialConfidence)
	}
	if a.ContainsDangerous {
		factors = append(factors, dangerousConfidence)
	}
	if total := a.Stats.TotalPatterns; total > 0 {
		factors = append(factors, min(float64(total)*perMatchConfidence, 1.0))
	}
	if len(factors) > 0 {
		sum := 0.0
		for _, f := range factors {
			sum += f
		}
		a.Confidence = sum / float64(len(factors))
	}

	return a
}

func (m *Matcher) find(name string) *category {
	for _, c := range m.categories {
		if c.name == name {
			return c
		}
	}
	return nil
}

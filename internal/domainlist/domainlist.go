// Package domainlist categorizes web domains and flags suspicious ones.
package domainlist

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Category is a named group of registrable domains.
type Category struct {
	Name    string   `yaml:"name" json:"name"`
	Domains []string `yaml:"domains" json:"domains"`
}

// Lists holds the raw lists as loaded from YAML.
type Lists struct {
	Categories         []Category `yaml:"categories" json:"categories"`
	TrustedCategories  []string   `yaml:"trusted_categories" json:"trusted_categories"`
	SuspiciousTLDs     []string   `yaml:"suspicious_tlds" json:"suspicious_tlds"`
	SuspiciousKeywords []string   `yaml:"suspicious_keywords" json:"suspicious_keywords"`
}

// List answers domain questions. Safe for concurrent use.
type List struct {
	mu      sync.RWMutex
	raw     Lists
	trusted map[string]bool
}

// New builds a List from raw lists. Entries are lowercased.
func New(l Lists) *List {
	d := &List{trusted: make(map[string]bool)}
	for _, c := range l.Categories {
		cat := Category{Name: c.Name}
		for _, dom := range c.Domains {
			cat.Domains = append(cat.Domains, strings.ToLower(strings.TrimSpace(dom)))
		}
		d.raw.Categories = append(d.raw.Categories, cat)
	}
	for _, t := range l.TrustedCategories {
		d.raw.TrustedCategories = append(d.raw.TrustedCategories, t)
		d.trusted[t] = true
	}
	for _, tld := range l.SuspiciousTLDs {
		tld = strings.ToLower(strings.TrimSpace(tld))
		if !strings.HasPrefix(tld, ".") {
			tld = "." + tld
		}
		d.raw.SuspiciousTLDs = append(d.raw.SuspiciousTLDs, tld)
	}
	for _, kw := range l.SuspiciousKeywords {
		d.raw.SuspiciousKeywords = append(d.raw.SuspiciousKeywords, strings.ToLower(kw))
	}
	return d
}

// NewDefault creates a List from DefaultLists.
func NewDefault() *List {
	return New(DefaultLists)
}

// Load reads lists from a YAML file. Falls back to defaults if the file doesn't exist.
// Sections missing from the file keep their default values.
func Load(path string) (*List, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return NewDefault(), nil
		}
		path = filepath.Join(home, ".actiongate", "domains.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewDefault(), nil
		}
		return nil, fmt.Errorf("domainlist: read %s: %w", path, err)
	}

	var l Lists
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("domainlist: parse %s: %w", path, err)
	}
	if l.Categories == nil {
		l.Categories = DefaultLists.Categories
	}
	if l.TrustedCategories == nil {
		l.TrustedCategories = DefaultLists.TrustedCategories
	}
	if l.SuspiciousTLDs == nil {
		l.SuspiciousTLDs = DefaultLists.SuspiciousTLDs
	}
	if l.SuspiciousKeywords == nil {
		l.SuspiciousKeywords = DefaultLists.SuspiciousKeywords
	}

	return New(l), nil
}

// ExtractDomain returns the host (with port, without credentials) of rawURL,
// or "" when rawURL has no scheme-qualified host or does not parse.
func ExtractDomain(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return u.Host
}

// IsExternal reports whether targetURL leaves currentURL's host.
// False when either host is unknown.
func IsExternal(currentURL, targetURL string) bool {
	cur := ExtractDomain(currentURL)
	tgt := ExtractDomain(targetURL)
	if cur == "" || tgt == "" {
		return false
	}
	return !strings.EqualFold(cur, tgt)
}

// IsSuspicious flags domains ending in a suspicious TLD or containing
// a suspicious keyword.
func (d *List) IsSuspicious(domain string) bool {
	host := hostname(domain)
	if host == "" {
		return false
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, tld := range d.raw.SuspiciousTLDs {
		if strings.HasSuffix(host, tld) {
			return true
		}
	}
	for _, kw := range d.raw.SuspiciousKeywords {
		if strings.Contains(host, kw) {
			return true
		}
	}
	return false
}

// Category returns the first category listing domain or one of its parent
// domains, else CategoryOther.
func (d *List) Category(domain string) string {
	host := hostname(domain)
	if host == "" {
		return CategoryOther
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, c := range d.raw.Categories {
		for _, dom := range c.Domains {
			if host == dom || strings.HasSuffix(host, "."+dom) {
				return c.Name
			}
		}
	}
	return CategoryOther
}

// IsTrusted reports whether domain's category is a trusted one.
func (d *List) IsTrusted(domain string) bool {
	cat := d.Category(domain)

	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.trusted[cat]
}

// AddDomain appends domain to category at runtime, creating the category.
func (d *List) AddDomain(category, domain string) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if category == "" || domain == "" {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for i := range d.raw.Categories {
		if d.raw.Categories[i].Name == category {
			d.raw.Categories[i].Domains = append(d.raw.Categories[i].Domains, domain)
			return
		}
	}
	d.raw.Categories = append(d.raw.Categories, Category{Name: category, Domains: []string{domain}})
}

// ToMap returns the raw lists for serialization.
func (d *List) ToMap() map[string]any {
	d.mu.RLock()
	defer d.mu.RUnlock()

	cats := make(map[string][]string, len(d.raw.Categories))
	for _, c := range d.raw.Categories {
		cats[c.Name] = append([]string(nil), c.Domains...)
	}
	return map[string]any{
		"categories":          cats,
		"trusted_categories":  append([]string(nil), d.raw.TrustedCategories...),
		"suspicious_tlds":     append([]string(nil), d.raw.SuspiciousTLDs...),
		"suspicious_keywords": append([]string(nil), d.raw.SuspiciousKeywords...),
	}
}

// hostname strips port and userinfo, lowercases, and accepts bare hosts.
func hostname(domain string) string {
	h := strings.ToLower(strings.TrimSpace(domain))
	if i := strings.LastIndex(h, "@"); i >= 0 {
		h = h[i+1:]
	}
	if i := strings.LastIndex(h, ":"); i >= 0 && !strings.Contains(h[i:], "]") {
		h = h[:i]
	}
	return strings.TrimSuffix(h, ".")
}

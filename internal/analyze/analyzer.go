// Package analyze enriches a raw action context with page, domain, keyword,
// sequence and content-pattern signals.
package analyze

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ppiankov/actiongate/internal/domainlist"
	"github.com/ppiankov/actiongate/internal/model"
	"github.com/ppiankov/actiongate/internal/pattern"
)

// Scanner extracts sensitive-content signals from text.
type Scanner interface {
	ExtractSensitiveData(text string) pattern.Analysis
}

// Domains categorizes hosts.
type Domains interface {
	Category(domain string) string
	IsTrusted(domain string) bool
	IsSuspicious(domain string) bool
}

// Analyzer runs the enrichment stages. Safe for concurrent use.
type Analyzer struct {
	scanner Scanner

	mu      sync.RWMutex
	domains Domains
}

// New creates an Analyzer. Nil collaborators fall back to the built-in
// pattern matcher and domain lists.
func New(scanner Scanner, domains Domains) *Analyzer {
	if scanner == nil {
		scanner = pattern.New()
	}
	if domains == nil {
		domains = domainlist.NewDefault()
	}
	return &Analyzer{scanner: scanner, domains: domains}
}

// SetDomains swaps the domain lists used by subsequent calls.
func (a *Analyzer) SetDomains(d Domains) {
	if d == nil {
		return
	}
	a.mu.Lock()
	a.domains = d
	a.mu.Unlock()
}

func (a *Analyzer) domainLists() Domains {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.domains
}

// Analyze returns an enriched copy of raw; raw itself is not modified.
// Keys the caller supplied are kept as given, except confidence,
// recommendations, pattern_analysis and detected_patterns, which the
// analyzer always owns.
func (a *Analyzer) Analyze(kind model.ActionKind, target string, raw model.Context) model.Context {
	ctx := raw.Clone()

	// 1. content patterns in the target
	found := a.scanner.ExtractSensitiveData(target)
	ctx[model.KeyPatternAnalysis] = found.Redacted()
	ctx[model.KeyDetectedPatterns] = found.Patterns.Names()
	ctx.SetIfAbsent(model.KeyContainsPasswords, found.ContainsPasswords)
	ctx.SetIfAbsent(model.KeyContainsFinancial, found.ContainsFinancial)
	ctx.SetIfAbsent(model.KeyContainsContactInfo, found.ContainsContactInfo)
	ctx.SetIfAbsent(model.KeyContainsPersonalData, found.ContainsPersonalData)
	ctx.SetIfAbsent(model.KeyContainsDangerous, found.ContainsDangerous)

	currentURL := ctx.String(model.KeyCurrentURL)

	// 2. page type
	if currentURL != "" {
		lower := strings.ToLower(currentURL)
		for _, f := range pageFamilies {
			ctx.SetIfAbsent("is_"+f.name+"_page", containsAny(lower, f.words))
		}
	}

	// 3. domain of the current page
	if domain := domainlist.ExtractDomain(currentURL); domain != "" {
		lists := a.domainLists()
		cat := lists.Category(domain)
		ctx.SetIfAbsent(model.KeyDomain, domain)
		ctx.SetIfAbsent(model.KeyDomainCategory, cat)
		ctx.SetIfAbsent(model.KeyIsSuspiciousDomain, lists.IsSuspicious(domain))
		ctx.SetIfAbsent(model.KeyIsTrustedDomain, lists.IsTrusted(domain))
	}

	// 4. navigation target
	if kind.IsNavigation() {
		targetURL := ctx.String(model.KeyTargetURL)
		if targetURL == "" {
			targetURL = target
		}
		if targetURL != "" {
			lower := strings.ToLower(targetURL)
			ctx.SetIfAbsent(model.KeyIsExternalDomain, domainlist.IsExternal(currentURL, targetURL))
			ctx.SetIfAbsent(model.KeyIsHTTPS, strings.HasPrefix(lower, "https://"))
			ctx.SetIfAbsent(model.KeyIsHTTP, strings.HasPrefix(lower, "http://"))
			ctx.SetIfAbsent(model.KeyIsSuspiciousURL, a.domainLists().IsSuspicious(domainlist.ExtractDomain(targetURL)))
		}
	}

	// 5. keyword families in the target
	if target != "" {
		lower := strings.ToLower(target)
		for _, f := range keywordFamilies {
			if containsAny(lower, f.words) {
				ctx.SetIfAbsent("contains_"+f.name, true)
			}
		}
	}

	// 6. recent action sequence
	if history := historyEntries(ctx[model.KeyRecentHistory]); len(history) > 0 {
		analyzeSequence(ctx, history)
	}

	// 7. action in its page context; only positive flags are written
	switch {
	case kind == model.KindTypePassword && ctx.Bool(model.KeyIsLoginPage):
		ctx.SetIfAbsent(model.KeyPasswordInLogin, true)
	case kind == model.KindPayment && ctx.Bool(model.KeyIsPaymentPage):
		ctx.SetIfAbsent(model.KeyPaymentInCheckout, true)
	case kind == model.KindDelete && ctx.Bool(model.KeyIsSettingsPage):
		ctx.SetIfAbsent(model.KeyDeleteInSettings, true)
	case kind == model.KindSocialAction && ctx.Bool(model.KeyIsSocialPage):
		ctx.SetIfAbsent(model.KeySocialInContext, true)
	}

	// 8, 9
	ctx[model.KeyConfidence] = confidence(ctx, found.Stats.TotalPatterns)
	ctx[model.KeyRecommendations] = recommendations(ctx)

	return ctx
}

func analyzeSequence(ctx model.Context, history []model.HistoryEntry) {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	kinds := make([]string, 0, len(history))
	targets := make([]string, 0, len(history))
	seen := map[model.ActionKind]bool{}
	typing := 0
	for _, h := range history {
		kinds = append(kinds, string(h.Kind))
		targets = append(targets, strings.ToLower(h.Target))
		seen[h.Kind] = true
		if h.Kind.IsTyping() {
			typing++
		}
	}

	anyTarget := func(words []string) bool {
		for _, t := range targets {
			if containsAny(t, words) {
				return true
			}
		}
		return false
	}

	recent := targets
	if len(recent) > 3 {
		recent = recent[:3]
	}

	ctx.SetIfAbsent(model.KeyIsLoginFlow, seen[model.KindTypeEmail] && seen[model.KindTypePassword])
	ctx.SetIfAbsent(model.KeyIsPaymentFlow, anyTarget(paymentFlowWords))
	ctx.SetIfAbsent(model.KeyIsRegistrationFlow, anyTarget(registrationFlowWords))
	ctx.SetIfAbsent(model.KeyIsFormFilling, typing >= 2)
	ctx.SetIfAbsent(model.KeyRecentActionTypes, kinds)
	ctx.SetIfAbsent(model.KeyRecentTargets, recent)
}

// historyEntries accepts the history shapes callers and decoders produce.
func historyEntries(v any) []model.HistoryEntry {
	switch h := v.(type) {
	case []model.HistoryEntry:
		return h
	case []map[string]any:
		out := make([]model.HistoryEntry, 0, len(h))
		for _, m := range h {
			out = append(out, entryFromMap(m))
		}
		return out
	case []any:
		out := make([]model.HistoryEntry, 0, len(h))
		for _, e := range h {
			switch x := e.(type) {
			case map[string]any:
				out = append(out, entryFromMap(x))
			case model.HistoryEntry:
				out = append(out, x)
			}
		}
		return out
	default:
		return nil
	}
}

func entryFromMap(m map[string]any) model.HistoryEntry {
	str := func(k string) string {
		if v, ok := m[k]; ok && v != nil {
			return fmt.Sprint(v)
		}
		return ""
	}
	return model.HistoryEntry{
		Kind:      model.ActionKind(str("action_type")),
		Target:    str("target"),
		URL:       str("url"),
		Timestamp: str("timestamp"),
	}
}

func confidence(ctx model.Context, totalPatterns int) float64 {
	var factors []float64
	if totalPatterns > 0 {
		factors = append(factors, min(float64(totalPatterns)*perPatternConfidence, 1.0))
	}
	if ctx.Bool(model.KeyIsLoginPage) && ctx.Bool("contains_login") {
		factors = append(factors, loginPageConfidence)
	}
	if ctx.Bool(model.KeyIsPaymentPage) && ctx.Bool("contains_payment") {
		factors = append(factors, paymentPageConfidence)
	}
	if ctx.Bool(model.KeyIsLoginFlow) {
		factors = append(factors, loginFlowConfidence)
	}
	if ctx.Bool(model.KeyIsPaymentFlow) {
		factors = append(factors, paymentFlowConfidence)
	}
	if ctx.Bool(model.KeyIsTrustedDomain) {
		factors = append(factors, trustedConfidence)
	}
	if len(factors) == 0 {
		return defaultConfidence
	}
	sum := 0.0
	for _, f := range factors {
		sum += f
	}
	return sum / float64(len(factors))
}

func recommendations(ctx model.Context) []string {
	recs := []string{}
	if ctx.Bool(model.KeyContainsPasswords) {
		recs = append(recs, RecPassword)
	}
	if ctx.Bool(model.KeyContainsFinancial) {
		recs = append(recs, RecFinancial)
	}
	if ctx.Bool(model.KeyIsExternalDomain) {
		recs = append(recs, RecExternalDomain)
	}
	if ctx.Bool(model.KeyIsSuspiciousDomain) {
		recs = append(recs, RecSuspiciousDomain)
	}
	if !ctx.BoolOr(model.KeyIsHTTPS, true) && ctx.Bool("contains_payment") {
		recs = append(recs, RecHTTPPayment)
	}
	return recs
}

// Features names the enrichment stages.
func (a *Analyzer) Features() []string {
	return []string{
		"page_type_analysis",
		"domain_analysis",
		"keyword_analysis",
		"pattern_detection",
		"sequence_analysis",
		"action_context_analysis",
		"confidence_scoring",
		"recommendations_generation",
	}
}

// KeywordFamilies returns a copy of the target keyword families.
func (a *Analyzer) KeywordFamilies() map[string][]string {
	out := make(map[string][]string, len(keywordFamilies))
	for _, f := range keywordFamilies {
		out[f.name] = append([]string(nil), f.words...)
	}
	return out
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

package policy

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ppiankov/actiongate/internal/model"
)

// ErrUnknownPredicate is returned when a rule names an unregistered predicate.
var ErrUnknownPredicate = errors.New("unknown predicate")

// FlagPrefix selects the generic truthiness predicate for any context key,
// e.g. "flag:is_admin_page".
const FlagPrefix = "flag:"

// Predicate is a named condition over an enriched context.
type Predicate interface {
	Name() string
	Eval(ctx model.Context) bool
}

// ContextFlag holds when its context key is truthy.
type ContextFlag struct {
	name string
	key  string
}

// NewContextFlag returns a predicate named name that reads key.
func NewContextFlag(name, key string) ContextFlag {
	return ContextFlag{name: name, key: key}
}

func (p ContextFlag) Name() string { return p.name }

func (p ContextFlag) Eval(ctx model.Context) bool { return ctx.Bool(p.key) }

// Built-in predicates.
var (
	IsLoginPage        = NewContextFlag("is_login_page", model.KeyIsLoginPage)
	IsPaymentPage      = NewContextFlag("is_payment_page", model.KeyIsPaymentPage)
	IsSettingsPage     = NewContextFlag("is_settings_page", model.KeyIsSettingsPage)
	IsSuspiciousDomain = NewContextFlag("is_suspicious_domain", model.KeyIsSuspiciousDomain)
	IsFormFilling      = NewContextFlag("is_form_filling", model.KeyIsFormFilling)
)

// Registry maps predicate names to implementations. Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	preds map[string]Predicate
}

// NewRegistry returns a registry holding the built-in predicates.
func NewRegistry() *Registry {
	r := &Registry{preds: make(map[string]Predicate)}
	for _, p := range []Predicate{IsLoginPage, IsPaymentPage, IsSettingsPage, IsSuspiciousDomain, IsFormFilling} {
		r.preds[p.Name()] = p
	}
	return r
}

// Register adds or replaces a predicate.
func (r *Registry) Register(p Predicate) error {
	name := p.Name()
	if name == "" || strings.HasPrefix(name, FlagPrefix) {
		return fmt.Errorf("policy: predicate name %q is reserved or empty", name)
	}
	r.mu.Lock()
	r.preds[name] = p
	r.mu.Unlock()
	return nil
}

// Lookup resolves name. "flag:<key>" always resolves to a ContextFlag on key.
func (r *Registry) Lookup(name string) (Predicate, error) {
	if key, ok := strings.CutPrefix(name, FlagPrefix); ok {
		if key == "" {
			return nil, fmt.Errorf("%w: %q has no context key", ErrUnknownPredicate, name)
		}
		return NewContextFlag(name, key), nil
	}

	r.mu.RLock()
	p, ok := r.preds[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPredicate, name)
	}
	return p, nil
}

// Names lists registered predicate names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.preds))
	for n := range r.preds {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

package model

import (
	"fmt"
	"strconv"
)

// Context is the situational snapshot that travels with an action.
// Callers supply raw keys; the analyzer adds derived ones.
type Context map[string]any

// Well-known context keys. Caller-supplied keys first, derived keys after.
const (
	KeyCurrentURL    = "current_url"
	KeyTargetURL     = "target_url"
	KeyRecentHistory = "recent_history"
	KeyTimestamp     = "timestamp"

	KeyPatternAnalysis  = "pattern_analysis"
	KeyDetectedPatterns = "detected_patterns"

	KeyContainsPasswords    = "contains_passwords"
	KeyContainsFinancial    = "contains_financial"
	KeyContainsContactInfo  = "contains_contact_info"
	KeyContainsPersonalData = "contains_personal_data"
	KeyContainsDangerous    = "contains_dangerous"

	KeyIsLoginPage        = "is_login_page"
	KeyIsPaymentPage      = "is_payment_page"
	KeyIsRegistrationPage = "is_registration_page"
	KeyIsSettingsPage     = "is_settings_page"
	KeyIsAdminPage        = "is_admin_page"
	KeyIsSocialPage       = "is_social_page"
	KeyIsSearchPage       = "is_search_page"
	KeyIsEmailPage        = "is_email_page"

	KeyDomain             = "domain"
	KeyDomainCategory     = "domain_category"
	KeyIsSuspiciousDomain = "is_suspicious_domain"
	KeyIsTrustedDomain    = "is_trusted_domain"

	KeyIsExternalDomain = "is_external_domain"
	KeyIsHTTPS          = "is_https"
	KeyIsHTTP           = "is_http"
	KeyIsSuspiciousURL  = "is_suspicious_url"

	KeyIsLoginFlow        = "is_login_flow"
	KeyIsPaymentFlow      = "is_payment_flow"
	KeyIsRegistrationFlow = "is_registration_flow"
	KeyIsFormFilling      = "is_form_filling"
	KeyRecentActionTypes  = "recent_action_types"
	KeyRecentTargets      = "recent_targets"

	KeyPasswordInLogin   = "is_password_in_login_context"
	KeyPaymentInCheckout = "is_payment_in_checkout_context"
	KeyDeleteInSettings  = "is_delete_in_settings_context"
	KeySocialInContext   = "is_social_action_in_context"

	KeyConfidence      = "confidence"
	KeyRecommendations = "recommendations"
)

// Clone returns a shallow copy. Nested values are shared.
func (c Context) Clone() Context {
	out := make(Context, len(c)+16)
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Has reports whether key is present, regardless of value.
func (c Context) Has(key string) bool {
	_, ok := c[key]
	return ok
}

// Bool returns the truthiness of key. Non-bool values follow loose rules:
// non-empty strings other than "false"/"0" and non-zero numbers are true.
func (c Context) Bool(key string) bool {
	switch v := c[key].(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		if v == "" {
			return false
		}
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		return true
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	default:
		return true
	}
}

// BoolOr returns the bool stored at key, or def when the key is absent.
func (c Context) BoolOr(key string, def bool) bool {
	if !c.Has(key) {
		return def
	}
	return c.Bool(key)
}

// String returns the value at key rendered as a string, "" when absent.
func (c Context) String(key string) string {
	switch v := c[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Float returns the numeric value at key, or def when absent or not numeric.
func (c Context) Float(key string, def float64) float64 {
	switch v := c[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

// SetIfAbsent stores value unless the caller already supplied key.
func (c Context) SetIfAbsent(key string, value any) {
	if _, ok := c[key]; !ok {
		c[key] = value
	}
}

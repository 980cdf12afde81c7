package model

import (
	"errors"
	"fmt"
)

// ErrUnknownActionKind is returned when a string does not name a known ActionKind.
var ErrUnknownActionKind = errors.New("unknown action kind")

// ActionKind is the semantic category of a proposed action.
// The set is closed: adding a kind requires touching every switch over it.
type ActionKind string

const (
	KindClick              ActionKind = "click"
	KindClickButton        ActionKind = "click_button"
	KindClickLink          ActionKind = "click_link"
	KindTypeGeneric        ActionKind = "type"
	KindTypePassword       ActionKind = "type_password"
	KindTypeEmail          ActionKind = "type_email"
	KindTypePhone          ActionKind = "type_phone"
	KindTypeCardNumber     ActionKind = "type_card"
	KindTypePersonalData   ActionKind = "type_personal"
	KindNavigate           ActionKind = "navigate"
	KindNavigateExternal   ActionKind = "navigate_external"
	KindNavigateSuspicious ActionKind = "navigate_suspicious"
	KindFormSubmit         ActionKind = "form_submit"
	KindPayment            ActionKind = "payment"
	KindDelete             ActionKind = "delete"
	KindSocialAction       ActionKind = "social_action"
	KindLegalAction        ActionKind = "legal_action"
	KindScroll             ActionKind = "scroll"
	KindAnalyze            ActionKind = "analyze"
)

// AllKinds lists every ActionKind in declaration order.
var AllKinds = []ActionKind{
	KindClick,
	KindClickButton,
	KindClickLink,
	KindTypeGeneric,
	KindTypePassword,
	KindTypeEmail,
	KindTypePhone,
	KindTypeCardNumber,
	KindTypePersonalData,
	KindNavigate,
	KindNavigateExternal,
	KindNavigateSuspicious,
	KindFormSubmit,
	KindPayment,
	KindDelete,
	KindSocialAction,
	KindLegalAction,
	KindScroll,
	KindAnalyze,
}

// ParseActionKind converts a wire value into an ActionKind.
// Unknown values are rejected here so scoring code never sees them.
func ParseActionKind(s string) (ActionKind, error) {
	k := ActionKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownActionKind, s)
	}
	return k, nil
}

// Valid reports whether k is one of the declared kinds.
func (k ActionKind) Valid() bool {
	switch k {
	case KindClick, KindClickButton, KindClickLink,
		KindTypeGeneric, KindTypePassword, KindTypeEmail, KindTypePhone,
		KindTypeCardNumber, KindTypePersonalData,
		KindNavigate, KindNavigateExternal, KindNavigateSuspicious,
		KindFormSubmit, KindPayment, KindDelete, KindSocialAction, KindLegalAction,
		KindScroll, KindAnalyze:
		return true
	default:
		return false
	}
}

// IsNavigation is true for every navigate* kind.
func (k ActionKind) IsNavigation() bool {
	switch k {
	case KindNavigate, KindNavigateExternal, KindNavigateSuspicious:
		return true
	default:
		return false
	}
}

// IsRuleExempt is true for kinds whose risk is never rule-driven.
// Suspicious navigation is deliberately not exempt.
func (k ActionKind) IsRuleExempt() bool {
	return k == KindNavigate || k == KindNavigateExternal
}

// IsTyping is true for every type* kind.
func (k ActionKind) IsTyping() bool {
	switch k {
	case KindTypeGeneric, KindTypePassword, KindTypeEmail, KindTypePhone,
		KindTypeCardNumber, KindTypePersonalData:
		return true
	default:
		return false
	}
}

func (k ActionKind) String() string {
	return string(k)
}

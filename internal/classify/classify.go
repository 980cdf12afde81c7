// Package classify maps a planner tool call onto a semantic ActionKind.
package classify

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ppiankov/actiongate/internal/model"
)

// Tool names the planner emits.
const (
	ToolClickElement = "click_element"
	ToolTypeText     = "type_text"
	ToolNavigate     = "navigate"
	ToolScrollDown   = "scroll_down"
	ToolAnalyzePage  = "analyze_page"
)

// Argument names carrying the action target for each tool.
const (
	ArgDescription = "description"
	ArgText        = "text"
	ArgURL         = "url"
)

// Click keyword families, checked in this order.
var (
	paymentWords = []string{"купить", "оплатить", "заказ", "buy", "checkout", "cart", "корзин"}
	deleteWords  = []string{"удалить", "delete", "remove", "отменить", "cancel"}
	submitWords  = []string{"отправить", "подтвердить", "submit", "save", "сохранить", "далее", "продолжить"}
	socialWords  = []string{"пост", "share", "tweet", "comment", "лайк", "like"}
	legalWords   = []string{"принять", "согласиться", "agree", "terms", "условия"}
	linkWords    = []string{"http", "www", ".com", ".ru", "ссылка", "link"}
)

// Typed-text families.
var (
	passwordWords = []string{"пароль", "password", "pwd", "pass", "ключ", "key", "pin"}
	personalWords = []string{"паспорт", "фио", "адрес", "город", "страна", "рождение", "снилс", "инн",
		"passport", "full name", "address"}

	phoneRe = regexp.MustCompile(`(\+7|8\d{10}|\d{11})`)
	cardRe  = regexp.MustCompile(`\b\d{4}[- ]?\d{4}[- ]?\d{4}[- ]?\d{4}\b`)
)

// suspiciousURLWords mark a navigation target as suspicious.
var suspiciousURLWords = []string{"phishing", "malware", "scam", ".exe", ".zip", ".rar"}

// DetectActionKind classifies a tool invocation. snapshot may be nil; when
// present, is_login_page together with contains_passwords turns otherwise
// unremarkable typed text into a password entry.
func DetectActionKind(toolName string, args map[string]any, snapshot model.Context) model.ActionKind {
	switch toolName {
	case ToolClickElement:
		return classifyClick(strings.ToLower(argString(args, ArgDescription)))
	case ToolTypeText:
		return classifyText(strings.ToLower(argString(args, ArgText)), snapshot)
	case ToolNavigate:
		return classifyNavigation(strings.ToLower(argString(args, ArgURL)))
	case ToolScrollDown:
		return model.KindScroll
	case ToolAnalyzePage:
		return model.KindAnalyze
	default:
		return model.KindClick
	}
}

// TargetFor returns the argument the orchestrator checks for a tool:
// the description for clicks, the text for typing, the url for navigation.
// Other tools have no target.
func TargetFor(toolName string, args map[string]any) string {
	switch toolName {
	case ToolClickElement:
		return argString(args, ArgDescription)
	case ToolTypeText:
		return argString(args, ArgText)
	case ToolNavigate:
		return argString(args, ArgURL)
	default:
		return ""
	}
}

func classifyClick(target string) model.ActionKind {
	switch {
	case containsAny(target, paymentWords):
		return model.KindPayment
	case containsAny(target, deleteWords):
		return model.KindDelete
	case containsAny(target, submitWords):
		return model.KindFormSubmit
	case containsAny(target, socialWords):
		return model.KindSocialAction
	case containsAny(target, legalWords):
		return model.KindLegalAction
	case containsAny(target, linkWords):
		return model.KindClickLink
	default:
		return model.KindClickButton
	}
}

func classifyText(text string, snapshot model.Context) model.ActionKind {
	switch {
	case containsAny(text, passwordWords):
		return model.KindTypePassword
	case strings.Contains(text, "@") && strings.Contains(text, ".") && len([]rune(text)) > 5:
		return model.KindTypeEmail
	case phoneRe.MatchString(text):
		return model.KindTypePhone
	case cardRe.MatchString(text):
		return model.KindTypeCardNumber
	case containsAny(text, personalWords):
		return model.KindTypePersonalData
	case snapshot.Bool(model.KeyIsLoginPage) && snapshot.Bool(model.KeyContainsPasswords):
		return model.KindTypePassword
	default:
		return model.KindTypeGeneric
	}
}

func classifyNavigation(url string) model.ActionKind {
	if strings.HasPrefix(url, "http://") || containsAny(url, suspiciousURLWords) {
		return model.KindNavigateSuspicious
	}
	return model.KindNavigate
}

// argString renders an argument as a string. Missing and nil values are "".
func argString(args map[string]any, name string) string {
	v, ok := args[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

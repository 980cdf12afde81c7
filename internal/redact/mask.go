package redact

import "regexp"

// Compiled masking patterns. Applied in declaration order by Mask.
var (
	// 16-digit card numbers, optionally grouped by space or dash.
	cardRe = regexp.MustCompile(`\b\d{4}[- ]?\d{4}[- ]?\d{4}[- ]?\d{4}\b`)

	// CVV/CVC codes following their label.
	cvvRe = regexp.MustCompile(`(?i)\b(CVV|CVC)[:\s]*\d{3,4}\b`)

	// Password values following a password label.
	passwordRe = regexp.MustCompile(`(?i)(пароль|password)[:\s]*\S+`)

	// Email addresses. Local part keeps its first three characters.
	emailRe = regexp.MustCompile(`\b([A-Za-z0-9._%+\-]+)@([A-Za-z0-9.\-]+\.[A-Za-z]{2,})\b`)

	// Russian-format phone numbers: +7 or 8 followed by ten digits.
	phoneRe = regexp.MustCompile(`(\+7|\b8)[\s-]?\(?\d{3}\)?[\s-]?\d{3}[\s-]?\d{2}[\s-]?\d{2}\b`)
)

// Mask replaces card numbers, CVV codes, password values, email local parts
// and phone numbers with partially hidden forms. Everything else is kept.
// Mask never fails; empty input is returned unchanged.
func Mask(text string) string {
	if text == "" {
		return text
	}

	text = cardRe.ReplaceAllStringFunc(text, func(m string) string {
		return m[:4] + " **** **** " + m[len(m)-4:]
	})

	text = cvvRe.ReplaceAllString(text, "${1}: ***")

	text = passwordRe.ReplaceAllString(text, "${1}: *******")

	text = emailRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := emailRe.FindStringSubmatch(m)
		local := sub[1]
		if len(local) > 3 {
			local = local[:3]
		}
		return local + "***@" + sub[2]
	})

	text = phoneRe.ReplaceAllStringFunc(text, func(m string) string {
		head := m
		if len(head) > 4 {
			head = head[:4]
		}
		return head + " *** ** " + m[len(m)-2:]
	})

	return text
}

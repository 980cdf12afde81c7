package redact

import (
	"strings"
	"testing"
)

func TestMask(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "click the blue button", "click the blue button"},
		{"card grouped", "card 4111 1111 1111 1234 ok", "card 4111 **** **** 1234 ok"},
		{"card dashed", "4111-1111-1111-9876", "4111 **** **** 9876"},
		{"card bare", "4111111111114321", "4111 **** **** 4321"},
		{"cvv", "CVV: 123", "CVV: ***"},
		{"cvc lower", "cvc 9876", "cvc: ***"},
		{"password", "password: hunter2", "password: *******"},
		{"password cyrillic", "Пароль: секрет", "Пароль: *******"},
		{"email", "mail john.doe@example.com now", "mail joh***@example.com now"},
		{"email short local", "ab@mail.ru", "ab***@mail.ru"},
		{"phone plus7", "call +7 999 123-45-67", "call +7 9 *** ** 67"},
		{"phone eight", "89991234567", "8999 *** ** 67"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Mask(tt.in); got != tt.want {
				t.Errorf("Mask(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMaskNeverLeaksCardDigits(t *testing.T) {
	out := Mask("pay with 5500 0000 0000 0004 please")
	if strings.Contains(out, "0000 0000") {
		t.Errorf("middle card digits leaked: %q", out)
	}
}

func TestMaskMapKeysAndNested(t *testing.T) {
	in := map[string]any{
		"password":    "hunter2",
		"PIN":         1234,
		"current_url": "https://shop.example.com",
		"note":        "card 4111 1111 1111 1234",
		"nested": map[string]any{
			"cvv":   "999",
			"email": "alice@example.com",
		},
		"list": []any{"password: x", 3},
	}

	out := MaskAuto(in)

	if out["password"] != "***" {
		t.Errorf("password not masked: %v", out["password"])
	}
	if out["PIN"] != "***" {
		t.Errorf("numeric secret not masked: %v", out["PIN"])
	}
	if out["current_url"] != "https://shop.example.com" {
		t.Errorf("url changed: %v", out["current_url"])
	}
	if out["note"] != "card 4111 **** **** 1234" {
		t.Errorf("note not masked: %v", out["note"])
	}
	nested := out["nested"].(map[string]any)
	if nested["cvv"] != "***" || nested["email"] != "ali***@example.com" {
		t.Errorf("nested not masked: %v", nested)
	}
	list := out["list"].([]any)
	if list[0] != "password: *******" || list[1] != 3 {
		t.Errorf("list not masked: %v", list)
	}

	if in["password"] != "hunter2" {
		t.Error("input map was mutated")
	}
}

func TestMaskMapNil(t *testing.T) {
	if MaskMap(nil, DefaultSecretKeys) != nil {
		t.Error("nil map should stay nil")
	}
}

func TestMaskValueReplacesEveryType(t *testing.T) {
	for _, v := range []any{"hunter2", 123, int64(4111111111111111), 4111111111111111.0, true, false, []any{1, 2}} {
		if got := MaskValue(v); got != "***" {
			t.Errorf("MaskValue(%v) = %v, want ***", v, got)
		}
	}
	if got := MaskValue(nil); got != nil {
		t.Errorf("MaskValue(nil) = %v, want nil", got)
	}
}

func TestMaskAutoNonStringSecrets(t *testing.T) {
	in := map[string]any{
		"cvv":         123,
		"card_number": 4111111111111111.0,
		"pin":         int64(1234),
		"password":    true,
		"score":       42.5,
		"is_https":    true,
	}
	out := MaskAuto(in)
	for _, k := range []string{"cvv", "card_number", "pin", "password"} {
		if out[k] != "***" {
			t.Errorf("%s not masked: %v", k, out[k])
		}
	}
	if out["score"] != 42.5 || out["is_https"] != true {
		t.Errorf("non-secret values changed: %v", out)
	}
}

package pattern

// Category names.
const (
	CategoryAll               = "all"
	CategoryPersonal          = "personal_data"
	CategoryFinancial         = "financial_data"
	CategorySensitiveKeywords = "sensitive_keywords"
	CategoryURL               = "url_patterns"
	CategoryDangerous         = "dangerous_patterns"
)

// Def is a named pattern expression before compilation.
type Def struct {
	Name string `yaml:"name" json:"name"`
	Expr string `yaml:"expr" json:"expr"`
}

// CategoryDef is an ordered group of pattern definitions.
type CategoryDef struct {
	Name     string `yaml:"name" json:"name"`
	Patterns []Def  `yaml:"patterns" json:"patterns"`
}

// DefaultCategories are the built-in pattern families, compiled
// case-insensitively. RE2 word boundaries only recognize ASCII word
// characters, so Cyrillic alternatives carry no \b.
var DefaultCategories = []CategoryDef{
	{
		Name: CategoryPersonal,
		Patterns: []Def{
			{"email", `\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`},
			{"phone_ru", `(?:\+7|\b8)[\s-]?\(?\d{3}\)?[\s-]?\d{3}[\s-]?\d{2}[\s-]?\d{2}\b`},
			{"phone_international", `\+\d{1,3}[\s-]?\d{1,14}\b`},
			{"passport", `\b\d{4}[- ]?\d{6}\b`},
			{"inn", `\b\d{10,12}\b`},
			{"snils", `\b\d{3}-\d{3}-\d{3} \d{2}\b`},
			// Capitalized words only; case folding would match any word pair.
			{"name", `(?-i:[А-ЯЁ][а-яё]+(?:\s+[А-ЯЁ][а-яё]+){1,2}|\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+){1,2}\b)`},
			{"address", `(?:ул\.|улица|пр\.|проспект|пер\.|переулок|д\.|дом|кв\.|квартира).*?\d+\b`},
		},
	},
	{
		Name: CategoryFinancial,
		Patterns: []Def{
			{"card_number", `\b\d{4}[- ]?\d{4}[- ]?\d{4}[- ]?\d{4}\b`},
			{"cvv", `\b\d{3,4}\b`},
			{"expiry_date", `\b(?:0[1-9]|1[0-2])[/-](?:2[0-9]|3[0-9])\b`},
			{"iban", `\b[A-Z]{2}\d{2}[A-Z0-9]{1,30}\b`},
			{"swift", `\b[A-Z]{6}[A-Z0-9]{2}(?:[A-Z0-9]{3})?\b`},
			{"bank_account", `\b\d{20}\b`},
			{"amount", `\b\d+[.,]\d{2}\s*(?:руб|р|usd|eur|€|\$)`},
		},
	},
	{
		Name: CategorySensitiveKeywords,
		Patterns: []Def{
			{"password", `(?:пароль|password|\bpwd\b|\bpass\b|ключ|\bkey\b|\bpin\b|код.*доступ|secret.*key)`},
			{"secret", `(?:секрет|\bsecret\b|\bconfidential\b|\bprivate\b|приватный|конфиденциальный)`},
			{"security", `(?:безопасность|\bsecurity\b|\bauth\b|\btoken\b|\bapi.?key\b|access.*token)`},
			{"login", `(?:логин|\blogin\b|\busername\b|\buser.*name\b|account.*name)`},
			{"authorization", `(?:авторизация|авторизоваться|\bauthorization\b|\bauthenticate\b)`},
		},
	},
	{
		Name: CategoryURL,
		Patterns: []Def{
			{"http", `http://\S+`},
			{"https", `https://\S+`},
			{"ip_address", `\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`},
			{"local_path", `[A-Za-z]:\\[^\\].*|/[^/].*`},
		},
	},
	{
		Name: CategoryDangerous,
		Patterns: []Def{
			{"javascript", `javascript:|<\s*script\s*>|eval\(|alert\(|document\.cookie`},
			{"sql_injection", `\b(?:union\s+select|select\s+.*\s+from|insert\s+into|delete\s+from|drop\s+table)\b`},
			{"xss", `<\s*(?:script|iframe|object|embed)\s*>|\bon\w+\s*=`},
		},
	},
}

package domainlist

// CategoryOther is reported for domains outside every curated category.
const CategoryOther = "other"

// DefaultLists contains the curated domain categories and suspicion markers.
// Category order matters: a domain listed twice belongs to the first category.
var DefaultLists = Lists{
	Categories: []Category{
		{Name: "social", Domains: []string{"facebook.com", "twitter.com", "instagram.com", "vk.com", "tiktok.com", "linkedin.com"}},
		{Name: "shopping", Domains: []string{"amazon.com", "aliexpress.com", "ebay.com", "wildberries.ru", "ozon.ru", "yandex.market"}},
		{Name: "banking", Domains: []string{"sberbank.ru", "tinkoff.ru", "alfabank.ru", "vtb.ru", "raiffeisen.ru", "gazprombank.ru"}},
		{Name: "email", Domains: []string{"gmail.com", "mail.ru", "yandex.ru", "outlook.com", "yahoo.com", "rambler.ru"}},
		{Name: "government", Domains: []string{"gov.ru", "gosuslugi.ru", "nalog.ru", "pfr.gov.ru", "mkgu.mos.ru"}},
		{Name: "search", Domains: []string{"google.com", "yandex.ru", "bing.com", "duckduckgo.com"}},
	},
	TrustedCategories:  []string{"banking", "government", "email"},
	SuspiciousTLDs:     []string{".tk", ".ml", ".ga", ".cf", ".gq", ".xyz", ".top", ".club"},
	SuspiciousKeywords: []string{"phishing", "malware", "scam", "hack", "exploit"},
}

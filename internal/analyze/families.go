package analyze

// family is a named keyword list matched by substring against lowercased text.
type family struct {
	name  string
	words []string
}

// keywordFamilies produce contains_<name> flags from the action target.
var keywordFamilies = []family{
	{"payment", []string{"купить", "оплатить", "цена", "стоимость", "чек", "checkout", "buy", "purchase", "cart", "корзин", "оплат"}},
	{"login", []string{"войти", "вход", "логин", "sign in", "log in", "авторизация", "account", "аккаунт"}},
	{"registration", []string{"регистрация", "зарегистрироваться", "sign up", "register", "создать аккаунт"}},
	{"social", []string{"пост", "публикация", "поделиться", "share", "comment", "комментарий", "like", "лайк", "репост"}},
	{"delete", []string{"удалить", "удаление", "стереть", "очистить", "delete", "remove", "clear", "отменить", "отмена"}},
	{"download", []string{"скачать", "загрузить", "download", "upload", "файл", "документ"}},
	{"legal", []string{"соглашение", "условия", "правила", "terms", "agreement", "policy", "политика"}},
	{"contact", []string{"контакты", "обратная связь", "contact", "support", "поддержка"}},
	{"search", []string{"поиск", "найти", "search", "find", "искать"}},
	{"navigation", []string{"главная", "home", "назад", "back", "вперед", "forward", "меню", "menu"}},
	{"settings", []string{"настройки", "settings", "профиль", "profile", "аккаунт", "account"}},
}

// pageFamilies produce is_<name>_page flags from the current URL.
var pageFamilies = []family{
	{"login", []string{"login", "signin", "auth", "вход", "войти", "account"}},
	{"payment", []string{"checkout", "payment", "pay", "cart", "корзин", "оплат", "order"}},
	{"registration", []string{"register", "signup", "регистрация", "create.account"}},
	{"settings", []string{"settings", "настройки", "profile", "профиль", "account"}},
	{"admin", []string{"admin", "админ", "dashboard", "панель", "control"}},
	{"social", []string{"facebook", "twitter", "vk", "instagram", "tiktok", "social"}},
	{"search", []string{"search", "поиск", "google", "yandex", "bing"}},
	{"email", []string{"mail", "email", "почта", "gmail", "outlook"}},
}

// Sequence markers over recent targets.
var (
	paymentFlowWords      = []string{"payment", "купить", "оплатить"}
	registrationFlowWords = []string{"регистрация", "register"}
)

// Recommendation texts, in emission order.
const (
	RecPassword         = "Password entry detected: be careful"
	RecFinancial        = "Financial data detected: check the connection is secure"
	RecExternalDomain   = "Navigating to an external domain: make sure it is reliable"
	RecSuspiciousDomain = "Suspicious domain: cancelling is recommended"
	RecHTTPPayment      = "Payment over HTTP is insecure: use HTTPS"
)

// Confidence factors.
const (
	defaultConfidence     = 0.3
	perPatternConfidence  = 0.2
	loginPageConfidence   = 0.8
	paymentPageConfidence = 0.9
	loginFlowConfidence   = 0.85
	paymentFlowConfidence = 0.95
	trustedConfidence     = 0.7
)

// historyWindow is how many trailing history entries sequence analysis reads.
const historyWindow = 5

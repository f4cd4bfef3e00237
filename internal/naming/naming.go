package naming

import (
	"strings"
	"unicode"
)

// ToSnakeCase converts a PascalCase string to snake_case by inserting an
// underscore before every ASCII uppercase letter that is not the first
// character and lowercasing the result. Acronyms are not grouped:
// "NewsArticle" → "news_article", "HTTPSConnection" → "h_t_t_p_s_connection".
// Empty and whitespace-only input is returned unchanged.
func ToSnakeCase(s string) string {
	if strings.TrimSpace(s) == "" {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + len(s)/2)
	for i := range len(s) {
		c := s[i]
		if i > 0 && c >= 'A' && c <= 'Z' {
			b.WriteByte('_')
		}
		b.WriteByte(c)
	}
	return strings.ToLower(b.String())
}

// CamelToSnake converts a CamelCase string to snake_case.
// Consecutive uppercase letters (acronyms) are kept together:
// "ID" → "id", "UserID" → "user_id", "HTTPSConnection" → "https_connection".
func CamelToSnake(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				next := rune(0)
				if i+1 < len(runes) {
					next = runes[i+1]
				}
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && unicode.IsLower(next)) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

package orm

import (
	"fmt"
	"strings"
)

// Bind rewrites @Name placeholders in query to positional "?" markers and
// returns the matching values from args in order of appearance. Names are
// case-sensitive. "@@name" system variables and anything inside quotes are
// left untouched. A placeholder without a value yields ErrInvalidArgument.
func Bind(query string, args Args) (string, []any, error) {
	var b strings.Builder
	b.Grow(len(query))

	var values []any
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'' || c == '"':
			end := closingQuote(query, i)
			b.WriteString(query[i:end])
			i = end - 1
		case c == '@' && i+1 < len(query) && query[i+1] == '@':
			b.WriteString("@@")
			i++
		case c == '@' && i+1 < len(query) && isIdentStart(query[i+1]):
			end := i + 1
			for end < len(query) && isIdentPart(query[end]) {
				end++
			}
			name := query[i+1 : end]
			v, ok := args[name]
			if !ok {
				return "", nil, fmt.Errorf("%w: missing value for parameter @%s", ErrInvalidArgument, name)
			}
			b.WriteByte('?')
			values = append(values, v)
			i = end - 1
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), values, nil
}

// closingQuote returns the index just past the quote that closes the one
// at start, or len(s) when the literal is unterminated.
func closingQuote(s string, start int) int {
	q := s[start]
	for i := start + 1; i < len(s); i++ {
		if s[i] == q {
			return i + 1
		}
	}
	return len(s)
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

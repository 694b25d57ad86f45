package auth

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// User is the signed-in account as reported by the identity provider.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	CompanyName string `json:"company_name,omitempty"`
}

// DisplayName is the company name, else the email, else "User".
func (u User) DisplayName() string {
	if name := strings.TrimSpace(u.CompanyName); name != "" {
		return name
	}
	if u.Email != "" {
		return u.Email
	}
	return "User"
}

// Initials are built from the first and last word of the company name, or
// from the dotted parts of the email local part. Falls back to "U".
func (u User) Initials() string {
	if words := strings.Fields(u.CompanyName); len(words) > 0 {
		return firstAndLast(words)
	}

	local, _, _ := strings.Cut(u.Email, "@")
	if local == "" {
		return "U"
	}
	cleaned := strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || r == '.' || unicode.IsSpace(r)) {
			return r
		}
		return ' '
	}, local)
	parts := strings.FieldsFunc(cleaned, func(r rune) bool { return r == '.' || unicode.IsSpace(r) })
	if len(parts) > 0 {
		return firstAndLast(parts)
	}
	return strings.ToUpper(firstRune(u.Email))
}

func firstAndLast(words []string) string {
	out := strings.ToUpper(firstRune(words[0]))
	if len(words) > 1 {
		out += strings.ToUpper(firstRune(words[len(words)-1]))
	}
	return out
}

func firstRune(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError && size <= 1 {
		return ""
	}
	return string(r)
}

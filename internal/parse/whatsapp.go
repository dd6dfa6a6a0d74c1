package parse

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var nonDigitRe = regexp.MustCompile(`\D`)

// Digits strips everything but ASCII digits.
func Digits(s string) string {
	return nonDigitRe.ReplaceAllString(s, "")
}

// ValidWhatsApp reports whether s holds a Brazilian number with area code:
// 10 or 11 digits once punctuation is removed.
func ValidWhatsApp(s string) bool {
	n := len(Digits(s))
	return n >= 10 && n <= 11
}

// FormatWhatsApp renders a number as (00) 00000-0000 or (00) 0000-0000.
// Anything that isn't 10 or 11 digits is returned unchanged.
func FormatWhatsApp(s string) string {
	n := Digits(s)
	switch len(n) {
	case 11:
		return "(" + n[:2] + ") " + n[2:7] + "-" + n[7:]
	case 10:
		return "(" + n[:2] + ") " + n[2:6] + "-" + n[6:]
	}
	return s
}

// MaskWhatsApp applies the input mask progressively, as the user types.
func MaskWhatsApp(s string) string {
	n := Digits(s)
	if len(n) > 11 {
		n = n[:11]
	}
	var b strings.Builder
	if len(n) > 0 {
		b.WriteString("(" + n[:min(2, len(n))])
	}
	if len(n) > 2 {
		b.WriteString(") " + n[2:min(7, len(n))])
	}
	if len(n) > 7 {
		b.WriteString("-" + n[7:])
	}
	return b.String()
}

// WhatsAppLink builds a wa.me link to a Brazilian number, with an optional
// prefilled message.
func WhatsAppLink(number, message string) string {
	link := "https://wa.me/55" + Digits(number)
	if message != "" {
		link += "?text=" + url.QueryEscape(message)
	}
	return link
}

// ShareLink builds a wa.me link that lets the user pick the recipient.
func ShareLink(text string) string {
	return "https://wa.me/?text=" + url.QueryEscape(text)
}

// Truncate cuts s to limit runes and appends "..." when it was longer.
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:limit])) + "..."
}

// Capitalize upper-cases the first rune.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

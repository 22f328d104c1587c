package validation

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MinNameLength = 2
	MaxNameLength = 50

	MaxJerseyNameLength = 12
	MinJerseyNumber     = 0
	MaxJerseyNumber     = 99

	MinIDNumberLength = 5
	MaxIDNumberLength = 20

	MaxSpecialInstructionsLength = 500
)

var (
	phoneRegex = regexp.MustCompile(`^\+?[1-9]\d{0,15}$`)
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	digitsOnly = regexp.MustCompile(`^\d+$`)
)

// ValidName accepts 2 to 50 characters made of letters and spaces.
func ValidName(name string) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n < MinNameLength || n > MaxNameLength {
		return false
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && r != ' ' {
			return false
		}
	}
	return true
}

func ValidEmail(email string) bool {
	return emailRegex.MatchString(strings.TrimSpace(email))
}

// ValidPhone ignores spaces and hyphens used as visual separators.
func ValidPhone(phone string) bool {
	return phoneRegex.MatchString(NormalizePhone(phone))
}

func NormalizePhone(phone string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(phone))
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

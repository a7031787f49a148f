// Package mask obscures contact fields in responses shown to callers who
// have not paid to reveal them. Masking is pure post-processing; stored
// data is never modified.
package mask

import (
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^[\d\s\-\+\(\)]+$`)
	nonDigit     = regexp.MustCompile(`[^\d]`)
)

// Email masks the local part of an address, keeping the domain visible.
func Email(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok {
		return "***@***.com"
	}
	if len(local) <= 2 {
		return "**@" + domain
	}
	return local[:2] + "***@" + domain
}

// Phone masks a number down to its last four digits.
func Phone(phone string) string {
	if len(phone) <= 4 {
		return "***-***-****"
	}
	return "***-***-" + phone[len(phone)-4:]
}

// Emails masks every address in a list, leaving the input untouched.
func Emails(emails []string) []string {
	if emails == nil {
		return nil
	}
	out := make([]string, len(emails))
	for i, e := range emails {
		out[i] = Email(e)
	}
	return out
}

// Phones masks every number in a list, leaving the input untouched.
func Phones(phones []string) []string {
	if phones == nil {
		return nil
	}
	out := make([]string, len(phones))
	for i, p := range phones {
		out[i] = Phone(p)
	}
	return out
}

// Domain hides a domain except for its top-level suffix.
func Domain(domain string) string {
	if domain == "" {
		return ""
	}
	parts := strings.Split(domain, ".")
	return "***." + parts[len(parts)-1]
}

// ValidEmail reports whether an address looks like a deliverable email.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidPhone reports whether a number contains only phone characters and at
// least ten digits.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone) && len(nonDigit.ReplaceAllString(phone, "")) >= 10
}

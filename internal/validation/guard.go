package validation

import (
	"regexp"
	"strings"

	"github.com/ariefcatur/go-grocery-orders/internal/apperr"
)

// injectionPatterns is a coarse denylist, not a parser. It rejects ordinary
// prose containing ; * | or words like "update", and that rejection set is
// relied upon by callers. Queries are parameterised regardless.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)('|--|;|\||\*)`),
	regexp.MustCompile(`(?i)(union|select|insert|update|delete|drop|create|alter|exec|execute)`),
	regexp.MustCompile(`(?i)(script|javascript|vbscript|onload|onerror|onclick)`),
	regexp.MustCompile(`(?i)(<|>|&lt|&gt)`),
}

// GuardInjection fails with an injection error when input matches the
// denylist anywhere, on any line. Blank input passes.
func GuardInjection(input, field string) error {
	if !HasText(input) {
		return nil
	}
	clean := strings.TrimSpace(input)
	for _, p := range injectionPatterns {
		if p.MatchString(clean) {
			return apperr.Injection(
				"Invalid characters detected in %s. Please use only alphanumeric characters and spaces.", field)
		}
	}
	return nil
}

var sanitizeChars = regexp.MustCompile(`[<>"'%;()&+]`)

// Sanitize strips punctuation and comment markers from display text. It is
// not a security boundary; GuardInjection is applied on write paths.
func Sanitize(input string) string {
	if !HasText(input) {
		return input
	}
	out := sanitizeChars.ReplaceAllString(strings.TrimSpace(input), "")
	out = strings.ReplaceAll(out, "--", "")
	out = strings.ReplaceAll(out, "/*", "")
	return strings.ReplaceAll(out, "*/", "")
}

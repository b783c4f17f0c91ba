package dsn

import (
	"fmt"
	"strings"
)

// Canonical is the substitute for status codes that fail validation on
// the permanent-failure paths (RFC 3463 "other undefined status").
const Canonical Code = "5.0.0"

// Code is an RFC 3463 enhanced status code of the form class.subject.detail,
// e.g. "5.1.1". Class 5 is a permanent failure, class 4 a temporary one.
type Code string

// String returns the string representation of Code
func (c Code) String() string {
	return string(c)
}

// Class returns the class digit ('2', '4' or '5')
func (c Code) Class() byte {
	return c[0]
}

// WithClass returns a copy of the code with the class digit replaced
func (c Code) WithClass(class byte) Code {
	return Code(class) + c[1:]
}

// Parse validates the structure of an enhanced status code
func Parse(s string) (Code, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return "", fmt.Errorf("expected 3 components, got %d in %q", len(parts), s)
	}

	// Class is a single digit: 2 (success), 4 (transient) or 5 (permanent)
	if parts[0] != "2" && parts[0] != "4" && parts[0] != "5" {
		return "", fmt.Errorf("invalid class %q in %q", parts[0], s)
	}

	for _, part := range parts[1:] {
		if len(part) < 1 || len(part) > 3 {
			return "", fmt.Errorf("component %q out of range in %q", part, s)
		}
		for _, ch := range part {
			if ch < '0' || ch > '9' {
				return "", fmt.Errorf("non-numeric component %q in %q", part, s)
			}
		}
	}

	return Code(s), nil
}

// Valid reports whether s is a structurally valid enhanced status code
func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// Sanitize returns the code if it is valid and names a permanent failure,
// otherwise the canonical 5.0.0 substitute. The second return value is
// false when the input was repaired.
func Sanitize(s string) (Code, bool) {
	code, err := Parse(s)
	if err != nil || code.Class() != '5' {
		return Canonical, false
	}
	return code, true
}

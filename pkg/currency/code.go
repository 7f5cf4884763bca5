package currency

import (
	"fmt"
	"regexp"
	"strings"
)

// Default is the fallback reporting currency used whenever the host
// application cannot supply one.
const Default = Code("USD")

// Code is an ISO 4217 currency code such as "USD" or "EUR".
type Code string

var codeRx = regexp.MustCompile(`^[A-Z]{3}$`)

// IsValid reports whether the code is a well-formed ISO 4217 code.
func (c Code) IsValid() bool {
	return codeRx.MatchString(string(c))
}

func (c Code) String() string {
	return string(c)
}

// Parse normalizes and validates a currency code.
func Parse(s string) (Code, error) {
	c := Code(strings.ToUpper(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("invalid currency code %q", s)
	}
	return c, nil
}

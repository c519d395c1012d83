package auth

import (
	"regexp"
	"strings"
)

// IdentifierKind is the lookup path selected for a login identifier.
type IdentifierKind int

const (
	// AccountName is the fallback kind.
	AccountName IdentifierKind = iota
	// Email is any identifier containing "@".
	Email
	// Phone is an 11 digit mobile number starting with 1 followed by 3-9.
	Phone
)

var phonePattern = regexp.MustCompile(`^1[3-9]\d{9}$`)

// String implements fmt.Stringer.
func (k IdentifierKind) String() string {
	switch k {
	case Email:
		return "email"
	case Phone:
		return "phone"
	default:
		return "account_name"
	}
}

// Classify returns the kind of a login identifier.
// Email shape is checked before phone shape, phone before the account name fallback.
func Classify(identifier string) IdentifierKind {
	switch {
	case strings.Contains(identifier, "@"):
		return Email
	case phonePattern.MatchString(identifier):
		return Phone
	default:
		return AccountName
	}
}

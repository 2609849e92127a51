// Package domain holds identifier types shared across modules. Typed
// identifiers prevent cross-type mix-ups (a course ID is not a token ID) at
// compile time.
package domain

import (
	"strings"

	dErrors "credentia/pkg/domain-errors"
)

// Address identifies a principal on the ledger. It is an opaque account key
// supplied by the authentication layer, not an email or display name.
type Address string

// ZeroAddress marks "no principal", e.g. a course with no endorsing
// university yet.
const ZeroAddress Address = ""

const maxAddressLen = 128

// ParseAddress validates an address at trust boundaries. Addresses must be
// non-empty, free of whitespace, and bounded in length.
func ParseAddress(s string) (Address, error) {
	if s == "" {
		return ZeroAddress, dErrors.New(dErrors.CodeInvalidInput, "address must not be empty")
	}
	if len(s) > maxAddressLen {
		return ZeroAddress, dErrors.New(dErrors.CodeInvalidInput, "address too long")
	}
	if strings.ContainsAny(s, " \t\r\n") {
		return ZeroAddress, dErrors.New(dErrors.CodeInvalidInput, "address must not contain whitespace")
	}
	return Address(s), nil
}

func (a Address) String() string { return string(a) }

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool { return a == ZeroAddress }

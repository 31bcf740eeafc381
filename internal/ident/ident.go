// Package ident implements the guild-scoped identifier scheme shared by every
// entity in Questboard.
//
// An identifier is a four-letter prefix naming the entity kind followed by a
// six-character "postal" body that alternates letters and digits (QUESH3X1T7).
// Legacy identifiers with a zero-padded numeric body (QUES0042) are still
// parsed for backward compatibility but are never generated.
//
// Identifiers are only meaningful together with a guild ID: two guilds may
// legitimately mint the same prefix+body pair.
package ident

import (
	"errors"
	"fmt"
	"strings"
)

// Entity prefixes. Always four uppercase letters.
const (
	PrefixUser      = "USER"
	PrefixQuest     = "QUES"
	PrefixCharacter = "CHAR"
	PrefixSummary   = "SUMM"
)

// postalBodyLen is the length of a generated identifier body.
const postalBodyLen = 6

// ErrMalformed indicates an identifier string that does not match the
// expected prefix or body shape. Check with errors.Is.
var ErrMalformed = errors.New("malformed identifier")

// ID is a parsed entity identifier. It serializes as its canonical string
// form in both JSON and BSON; see codec.go.
type ID struct {
	Prefix string
	Body   string
}

// String returns the canonical external representation: prefix + body.
func (id ID) String() string {
	return id.Prefix + id.Body
}

// IsZero reports whether the ID is unset.
func (id ID) IsZero() bool {
	return id.Prefix == "" && id.Body == ""
}

// IsLegacy reports whether the body is in the old zero-padded numeric form.
func (id ID) IsLegacy() bool {
	return isLegacyBody(id.Body)
}

// Format returns the external string form of id. It is the inverse of Parse:
// Parse(id.Prefix, Format(id)) always yields id again, for generated and
// legacy identifiers alike.
func Format(id ID) string {
	return id.String()
}

// Parse validates raw against the expected prefix and returns the parsed ID.
// It accepts both postal-style and legacy numeric bodies and fails with
// ErrMalformed on prefix mismatch or an invalid body shape.
func Parse(prefix, raw string) (ID, error) {
	if err := validatePrefix(prefix); err != nil {
		return ID{}, err
	}
	if !strings.HasPrefix(raw, prefix) {
		return ID{}, fmt.Errorf("%w: %q does not start with prefix %s", ErrMalformed, raw, prefix)
	}
	body := raw[len(prefix):]
	if !isPostalBody(body) && !isLegacyBody(body) {
		return ID{}, fmt.Errorf("%w: %q has invalid body %q", ErrMalformed, raw, body)
	}
	return ID{Prefix: prefix, Body: body}, nil
}

// ParseAny parses an identifier whose kind is not known up front, taking the
// first four characters as the prefix.
func ParseAny(raw string) (ID, error) {
	if len(raw) <= 4 {
		return ID{}, fmt.Errorf("%w: %q is too short", ErrMalformed, raw)
	}
	return Parse(raw[:4], raw)
}

// MustParse is Parse for identifiers known to be valid, such as literals in
// tests. It panics on error.
func MustParse(prefix, raw string) ID {
	id, err := Parse(prefix, raw)
	if err != nil {
		panic(err)
	}
	return id
}

func validatePrefix(prefix string) error {
	if len(prefix) != 4 {
		return fmt.Errorf("%w: prefix %q must be four letters", ErrMalformed, prefix)
	}
	for i := 0; i < len(prefix); i++ {
		if prefix[i] < 'A' || prefix[i] > 'Z' {
			return fmt.Errorf("%w: prefix %q must be uppercase letters", ErrMalformed, prefix)
		}
	}
	return nil
}

// isPostalBody reports whether body is six characters alternating
// letter/digit, starting with a letter.
func isPostalBody(body string) bool {
	if len(body) != postalBodyLen {
		return false
	}
	for i := 0; i < len(body); i++ {
		c := body[i]
		if i%2 == 0 {
			if c < 'A' || c > 'Z' {
				return false
			}
		} else {
			if c < '0' || c > '9' {
				return false
			}
		}
	}
	return true
}

// isLegacyBody reports whether body is an old sequence-counter body:
// all digits, zero-padded to at least four places.
func isLegacyBody(body string) bool {
	if len(body) < 4 {
		return false
	}
	for i := 0; i < len(body); i++ {
		if body[i] < '0' || body[i] > '9' {
			return false
		}
	}
	return true
}

// Package phone canonicalizes phone numbers to E.164 so the same physical
// contact is never stored under two different keys.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Normalize returns the E.164 form of raw, parsed against defaultRegion.
// Inputs that cannot be parsed or are not valid numbers come back as the
// trimmed original string so the caller can still attempt a lookup instead
// of aborting. Normalizing an already-canonical number returns it unchanged.
func Normalize(raw, defaultRegion string) string {
	parsed, err := phonenumbers.Parse(raw, defaultRegion)
	if err == nil && phonenumbers.IsValidNumber(parsed) {
		return phonenumbers.Format(parsed, phonenumbers.E164)
	}
	return strings.TrimSpace(raw)
}

// IsValid reports whether raw parses as a fully valid number for
// defaultRegion.
func IsValid(raw, defaultRegion string) bool {
	parsed, err := phonenumbers.Parse(raw, defaultRegion)
	if err != nil {
		return false
	}
	return phonenumbers.IsValidNumber(parsed)
}

package phonenumber

import (
	"errors"
	"strings"

	"github.com/ttacon/libphonenumber"
)

// DefaultRegion is used to parse numbers entered without a country prefix.
// The hotline is a UK community line.
const DefaultRegion = "GB"

var ErrInvalidNumber = errors.New("invalid phone number")

// ToE164 parses a raw number and returns it formatted as E.164.
func ToE164(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidNumber
	}
	num, err := libphonenumber.Parse(raw, DefaultRegion)
	if err != nil {
		return "", ErrInvalidNumber
	}
	if !libphonenumber.IsValidNumber(num) {
		return "", ErrInvalidNumber
	}
	return libphonenumber.Format(num, libphonenumber.E164), nil
}

// Normalize formats a number as E.164 where possible, passing through values
// the parser rejects. Twilio occasionally sends "anonymous" or "+266696687"
// style placeholders for withheld callers; those are stored as received.
func Normalize(raw string) string {
	if e164, err := ToE164(raw); err == nil {
		return e164
	}
	return strings.TrimSpace(raw)
}

package validation

import (
	"errors"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultPhoneRegion resolves numbers written without a country code.
const DefaultPhoneRegion = "ID"

var ErrInvalidPhone = errors.New("invalid phone number")

// NormalizePhone parses raw in region and returns it in E.164 form.
// An empty input stays empty.
func NormalizePhone(raw, region string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	if region == "" {
		region = DefaultPhoneRegion
	}
	num, err := phonenumbers.Parse(raw, region)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return "", ErrInvalidPhone
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// PhoneForStorage returns the E.164 form when raw is a valid number and the
// trimmed input otherwise; phone is free text on the profile.
func PhoneForStorage(raw, region string) string {
	if e164, err := NormalizePhone(raw, region); err == nil {
		return e164
	}
	return strings.TrimSpace(raw)
}

package sanitizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

var (
	supportedRegions = []string{
		"US",
		"GB",
	}
)

// NormalizePhone returns the E.164 form of phone, or "" when no supported
// region yields a possible number.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)

	if phone == "" {
		return ""
	}

	for _, region := range supportedRegions {
		parsedNumber, err := phonenumbers.Parse(phone, region)
		if err == nil && phonenumbers.IsPossibleNumber(parsedNumber) {
			return phonenumbers.Format(parsedNumber, phonenumbers.E164)
		}
	}
	return ""
}

// NormalizeContactPhone is used for optional contact fields on public forms:
// an unparseable number is kept as typed rather than dropped.
func NormalizeContactPhone(phone string) string {
	if normalized := NormalizePhone(phone); normalized != "" {
		return normalized
	}
	return TrimAndNormalize(phone)
}

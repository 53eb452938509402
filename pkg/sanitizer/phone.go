package sanitizer

import (
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

var (
	reValidPhone = regexp.MustCompile(`^(?:|\+[1-9]\d{7,14})$`)

	// Regions tried when parsing numbers dialed without a country prefix.
	supportedRegions = []string{
		"US",
		"CA",
	}
)

// SanitizePhone normalizes a phone number to E.164. Numbers already in
// E.164 are reformatted through the parser; anything unparseable comes back
// empty so validation rejects it instead of storing garbage.
func SanitizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}

	if reValidPhone.MatchString(phone) {
		if parsed, err := phonenumbers.Parse(phone, ""); err == nil {
			return phonenumbers.Format(parsed, phonenumbers.E164)
		}
	}

	for _, region := range supportedRegions {
		parsed, err := phonenumbers.Parse(phone, region)
		if err != nil {
			continue
		}
		if phonenumbers.IsValidNumber(parsed) {
			return phonenumbers.Format(parsed, phonenumbers.E164)
		}
	}
	return ""
}

package sanitizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegions are tried in order for numbers typed without a country code.
var DefaultRegions = []string{"US", "GB", "KE"}

var defaultPhones = NewPhoneNormalizer(DefaultRegions...)

// PhoneNormalizer converts typed phone numbers to E.164.
type PhoneNormalizer struct {
	regions []string
}

func NewPhoneNormalizer(regions ...string) *PhoneNormalizer {
	if len(regions) == 0 {
		regions = DefaultRegions
	}
	return &PhoneNormalizer{regions: regions}
}

// Normalize returns the E.164 form, or "" when no region yields a possible number.
// Numbers with a leading + parse the same under every region.
func (p *PhoneNormalizer) Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	for _, region := range p.regions {
		num, err := phonenumbers.Parse(raw, region)
		if err != nil || !phonenumbers.IsPossibleNumber(num) {
			continue
		}
		return phonenumbers.Format(num, phonenumbers.E164)
	}
	return ""
}

func NormalizePhone(phone string) string {
	return defaultPhones.Normalize(phone)
}

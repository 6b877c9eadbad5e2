package membership

import "strings"

// certIDPrefix starts every membership certificate id:
// ECRMI-<type code>-<4 digits>.
const certIDPrefix = "ECRMI"

// FallbackTypeCode is used when a membership type matches no known phrase.
const FallbackTypeCode = "M"

// typeCodes maps membership-type phrases to certificate code segments,
// evaluated in order so the most specific phrase wins ("professional
// fellowship" before "professional"). Keep new entries above any phrase they
// contain.
var typeCodes = []struct {
	phrase string
	code   string
}{
	{"honorary fellowship", "HF"},
	{"professional fellowship", "PF"},
	{"fellowship", "F"},
	{"fellow", "F"},
	{"professional", "P"},
	{"associate", "A"},
	{"technical", "T"},
}

// TypeCode derives the certificate code segment for a membership type.
func TypeCode(membershipType string) string {
	t := strings.ToLower(membershipType)
	for _, tc := range typeCodes {
		if strings.Contains(t, tc.phrase) {
			return tc.code
		}
	}
	return FallbackTypeCode
}

// certIDCode extracts the type code segment from a certificate id;
// empty when the id does not follow the ECRMI-<code>-<digits> shape.
func certIDCode(certID string) string {
	parts := strings.Split(certID, "-")
	if len(parts) != 3 || parts[0] != certIDPrefix {
		return ""
	}
	return parts[1]
}

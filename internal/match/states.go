package match

import (
	"strings"

	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/domain"
)

// zipSpan is an inclusive ZIP range assigned to one state. Spans are
// compared as strings; all bounds are 5 digits so string order is numeric
// order.
type zipSpan struct {
	low   string
	high  string
	state string
}

// stateZipSpans is the USPS state allocation of 5-digit ZIP ranges.
// A handful of states hold more than one span.
var stateZipSpans = []zipSpan{
	{"00500", "00599", "NY"},
	{"01000", "02799", "MA"},
	{"02800", "02999", "RI"},
	{"03000", "03899", "NH"},
	{"03900", "04999", "ME"},
	{"05000", "05999", "VT"},
	{"06000", "06389", "CT"},
	{"06390", "06390", "NY"},
	{"06391", "06999", "CT"},
	{"07000", "08999", "NJ"},
	{"10000", "14999", "NY"},
	{"15000", "19699", "PA"},
	{"19700", "19999", "DE"},
	{"20000", "20099", "DC"},
	{"20100", "20199", "VA"},
	{"20200", "20599", "DC"},
	{"20600", "21999", "MD"},
	{"22000", "24699", "VA"},
	{"24700", "26899", "WV"},
	{"27000", "28999", "NC"},
	{"29000", "29999", "SC"},
	{"30000", "31999", "GA"},
	{"32000", "34999", "FL"},
	{"35000", "36999", "AL"},
	{"37000", "38599", "TN"},
	{"38600", "39799", "MS"},
	{"39800", "39999", "GA"},
	{"40000", "42799", "KY"},
	{"43000", "45999", "OH"},
	{"46000", "47999", "IN"},
	{"48000", "49799", "MI"},
	{"50000", "52899", "IA"},
	{"53000", "54999", "WI"},
	{"55000", "56799", "MN"},
	{"56900", "56999", "DC"},
	{"57000", "57799", "SD"},
	{"58000", "58899", "ND"},
	{"59000", "59999", "MT"},
	{"60000", "62999", "IL"},
	{"63000", "65899", "MO"},
	{"66000", "67999", "KS"},
	{"68000", "69399", "NE"},
	{"70000", "71499", "LA"},
	{"71600", "72999", "AR"},
	{"73000", "73199", "OK"},
	{"73301", "73344", "TX"},
	{"73400", "74999", "OK"},
	{"75000", "79999", "TX"},
	{"80000", "81699", "CO"},
	{"82000", "83199", "WY"},
	{"83200", "83899", "ID"},
	{"83414", "83414", "WY"},
	{"84000", "84799", "UT"},
	{"85000", "86599", "AZ"},
	{"87000", "88499", "NM"},
	{"88500", "88599", "TX"},
	{"88900", "89899", "NV"},
	{"90000", "96199", "CA"},
	{"96700", "96899", "HI"},
	{"97000", "97999", "OR"},
	{"98000", "99499", "WA"},
	{"99500", "99999", "AK"},
}

// StateForZip returns the two-letter state a ZIP belongs to, or "" when
// the ZIP falls outside every allocated span.
func StateForZip(zip string) string {
	if !domain.IsZipCode(zip) {
		return ""
	}
	for _, span := range stateZipSpans {
		if span.low <= zip && zip <= span.high {
			return span.state
		}
	}
	return ""
}

// CoversState reports whether any coverage token intersects the state's
// ZIP allocation. Wildcards are widened to their full prefix span; exact
// tokens become single-ZIP spans.
func CoversState(tokens []string, state string) bool {
	state = strings.ToUpper(strings.TrimSpace(state))
	if state == "" {
		return false
	}

	for _, token := range tokens {
		low, high, ok := tokenSpan(token)
		if !ok {
			continue
		}
		for _, span := range stateZipSpans {
			if span.state != state {
				continue
			}
			if low <= span.high && span.low <= high {
				return true
			}
		}
	}
	return false
}

// tokenSpan widens one coverage token to an inclusive 5-digit ZIP span.
func tokenSpan(token string) (string, string, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", "", false
	}

	if prefix, ok := strings.CutSuffix(token, "*"); ok {
		if prefix == "" || len(prefix) > 5 {
			return "", "", false
		}
		for i := 0; i < len(prefix); i++ {
			if prefix[i] < '0' || prefix[i] > '9' {
				return "", "", false
			}
		}
		pad := 5 - len(prefix)
		return prefix + strings.Repeat("0", pad), prefix + strings.Repeat("9", pad), true
	}

	if low, high, ok := strings.Cut(token, "-"); ok {
		low = strings.TrimSpace(low)
		high = strings.TrimSpace(high)
		if !domain.IsZipCode(low) || !domain.IsZipCode(high) {
			return "", "", false
		}
		return low, high, true
	}

	if domain.IsZipCode(token) {
		return token, token, true
	}
	return "", "", false
}

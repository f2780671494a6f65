package services

import (
	"regexp"
	"strings"

	"shipping/internal/core/domain/model/kernel"
)

// Confidence grades how much an address cleanup changed and how sure it is.
type Confidence int

const (
	// ConfidenceNone means the address was left untouched.
	ConfidenceNone Confidence = iota
	ConfidenceHigh
	ConfidenceMedium
	ConfidenceLow
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceLow:
		return "low"
	default:
		return "none"
	}
}

// RawAddress is an address as a carrier returned it, before validation.
type RawAddress struct {
	Street     string
	City       string
	State      string
	PostalCode string
	Country    string
}

type CleanupResult struct {
	Address    kernel.Address
	Confidence Confidence
}

var (
	// "TX 78701", "NY10001-1234"
	stateWithNumber = regexp.MustCompile(`^([A-Za-z]{2})[\s,]*\d[\d\s-]*$`)
	// "Austin TX", "Austin, TX 78701"
	cityThenState = regexp.MustCompile(`^([A-Za-z][A-Za-z .'-]*?)[\s,]+([A-Za-z]{2})(?:[\s,]+\d[\d\s-]*)?$`)
	// "123 Main St, Austin"
	trailingSegment = regexp.MustCompile(`^(.+?),\s*([A-Z][A-Za-z.'-]*(?:\s+[A-Z][A-Za-z.'-]*)*)\s*$`)
	// "500 Congress Ave Austin"
	afterStreetType = regexp.MustCompile(`^(.*\b(?i:st|street|ave|avenue|rd|road|blvd|boulevard|dr|drive|ln|lane|way|ct|court|pl|place|pkwy|hwy|ter|cir)\.?)\s+([A-Z][A-Za-z.'-]*(?:\s+[A-Z][A-Za-z.'-]*)*)$`)
)

var usStates = codeSet("AL AK AZ AR CA CO CT DE DC FL GA HI ID IL IN IA KS KY LA ME MD MA MI MN MS MO MT NE NV NH NJ NM NY NC ND OH OK OR PA RI SC SD TN TX UT VT VA WA WV WI WY PR")

var caProvinces = codeSet("AB BC MB NB NL NS NT NU ON PE QC SK YT")

// CleanupAddress repairs a carrier defect where the city field holds a state
// code, alone with a numeric fragment or after the city name. When the city
// must be recovered from the street line it tries, in order, the trailing
// capitalised segment after a comma, then the words after a street-type
// abbreviation, then the caller's city from original.
//
// The country is inferred from the state code (US states, CA provinces), else
// the carrier's country, else original's, else defaultCountry. If the result
// does not form a valid address the original is returned with ConfidenceNone.
func CleanupAddress(raw RawAddress, original kernel.Address, defaultCountry string) CleanupResult {
	raw = trimRaw(raw)
	street, city, state := raw.Street, raw.City, raw.State
	confidence := ConfidenceNone

	if m := stateWithNumber.FindStringSubmatch(raw.City); m != nil && isKnownState(m[1]) {
		state = strings.ToUpper(m[1])
		street, city, confidence = recoverCity(raw.Street, original.City())
	} else if m := cityThenState.FindStringSubmatch(raw.City); m != nil && isKnownState(m[2]) {
		city = strings.TrimSpace(m[1])
		state = strings.ToUpper(m[2])
		confidence = ConfidenceHigh
	}

	country := inferCountry(state, raw.Country, original.Country(), defaultCountry)

	addr, err := kernel.NewAddress(street, city, state, raw.PostalCode, country)
	if err != nil {
		return CleanupResult{Address: original, Confidence: ConfidenceNone}
	}
	return CleanupResult{Address: addr, Confidence: confidence}
}

func recoverCity(street, fallbackCity string) (string, string, Confidence) {
	if m := trailingSegment.FindStringSubmatch(street); m != nil {
		return strings.TrimSpace(m[1]), m[2], ConfidenceHigh
	}
	if m := afterStreetType.FindStringSubmatch(street); m != nil {
		return strings.TrimSpace(m[1]), m[2], ConfidenceMedium
	}
	return street, fallbackCity, ConfidenceLow
}

func inferCountry(state string, candidates ...string) string {
	switch {
	case state == "":
	case usStates[state]:
		return "US"
	case caProvinces[state]:
		return "CA"
	}
	for _, c := range candidates {
		c = strings.ToUpper(strings.TrimSpace(c))
		if len(c) == 2 {
			return c
		}
	}
	return ""
}

func isKnownState(code string) bool {
	code = strings.ToUpper(code)
	return usStates[code] || caProvinces[code]
}

func trimRaw(r RawAddress) RawAddress {
	return RawAddress{
		Street:     strings.TrimSpace(r.Street),
		City:       strings.TrimSpace(r.City),
		State:      strings.ToUpper(strings.TrimSpace(r.State)),
		PostalCode: strings.TrimSpace(r.PostalCode),
		Country:    strings.TrimSpace(r.Country),
	}
}

func codeSet(codes string) map[string]bool {
	set := make(map[string]bool)
	for _, c := range strings.Fields(codes) {
		set[c] = true
	}
	return set
}

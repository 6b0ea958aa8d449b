package resolver

import (
	"sort"
	"strings"
)

// stateNames maps the fifty two-letter USPS abbreviations to full state names.
var stateNames = map[string]string{
	"AL": "Alabama", "AK": "Alaska", "AZ": "Arizona", "AR": "Arkansas",
	"CA": "California", "CO": "Colorado", "CT": "Connecticut", "DE": "Delaware",
	"FL": "Florida", "GA": "Georgia", "HI": "Hawaii", "ID": "Idaho",
	"IL": "Illinois", "IN": "Indiana", "IA": "Iowa", "KS": "Kansas",
	"KY": "Kentucky", "LA": "Louisiana", "ME": "Maine", "MD": "Maryland",
	"MA": "Massachusetts", "MI": "Michigan", "MN": "Minnesota", "MS": "Mississippi",
	"MO": "Missouri", "MT": "Montana", "NE": "Nebraska", "NV": "Nevada",
	"NH": "New Hampshire", "NJ": "New Jersey", "NM": "New Mexico", "NY": "New York",
	"NC": "North Carolina", "ND": "North Dakota", "OH": "Ohio", "OK": "Oklahoma",
	"OR": "Oregon", "PA": "Pennsylvania", "RI": "Rhode Island", "SC": "South Carolina",
	"SD": "South Dakota", "TN": "Tennessee", "TX": "Texas", "UT": "Utah",
	"VT": "Vermont", "VA": "Virginia", "WA": "Washington", "WV": "West Virginia",
	"WI": "Wisconsin", "WY": "Wyoming",
}

// stateAbbrs is the inverse table, keyed by lower-cased full name.
var stateAbbrs = func() map[string]string {
	inverse := make(map[string]string, len(stateNames))
	for abbr, name := range stateNames {
		inverse[strings.ToLower(name)] = abbr
	}
	return inverse
}()

// StateAbbreviations returns the fifty state abbreviations in sorted order.
// The ingestion pipeline iterates this list to fetch per-state city indexes.
func StateAbbreviations() []string {
	abbrs := make([]string, 0, len(stateNames))
	for abbr := range stateNames {
		abbrs = append(abbrs, abbr)
	}
	sort.Strings(abbrs)
	return abbrs
}

// StateFromAddress scans the comma-separated components of a geocoded address
// for a two-letter token matching a state abbreviation, or a whole component
// matching a full state name, and returns the first match in component order.
func StateFromAddress(address string) (string, bool) {
	for _, component := range strings.Split(address, ",") {
		component = strings.TrimSpace(component)
		if component == "" {
			continue
		}
		for _, token := range strings.Fields(component) {
			if len(token) != 2 {
				continue
			}
			upper := strings.ToUpper(token)
			if _, ok := stateNames[upper]; ok {
				return upper, true
			}
		}
		if abbr, ok := stateAbbrs[strings.ToLower(component)]; ok {
			return abbr, true
		}
	}
	return "", false
}

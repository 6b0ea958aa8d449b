package resolver

// QueryKind classifies a free-text location query.
type QueryKind int

const (
	// KindPlace is any non-empty input that is not a five-digit zip code.
	KindPlace QueryKind = iota
	// KindZip is exactly five ASCII digits.
	KindZip
)

const zipLength = 5

// Classify decides whether a trimmed query string is a zip code or a place
// name. Partial-length digit strings used for autocomplete are not a zip code
// here; the suggestion path handles those separately.
func Classify(input string) QueryKind {
	if len(input) != zipLength {
		return KindPlace
	}
	for i := 0; i < len(input); i++ {
		if input[i] < '0' || input[i] > '9' {
			return KindPlace
		}
	}
	return KindZip
}

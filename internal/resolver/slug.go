package resolver

import "strings"

// citySuffix is the inconsistently applied suffix of the city boundary
// dataset ("springfield" vs "springfield_city").
const citySuffix = "_city"

// Slugify derives the canonical lookup key for a place name: lower-case,
// every run of non-alphanumeric characters replaced with a single underscore,
// leading and trailing underscores stripped. The transform is idempotent.
func Slugify(name string) string {
	var sb strings.Builder
	sb.Grow(len(name))

	pendingUnderscore := false
	for _, r := range strings.ToLower(name) {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !alnum {
			pendingUnderscore = sb.Len() > 0
			continue
		}
		if pendingUnderscore {
			sb.WriteByte('_')
			pendingUnderscore = false
		}
		sb.WriteRune(r)
	}

	return sb.String()
}

// slugAttempts returns the ordered lookup attempts for a slug: the slug
// itself, then the opposite _city-suffix spelling. The boundary dataset is
// inconsistently suffixed, and this two-step ladder is the cheapest fix
// without a fuzzy-match index; an unmatched slug after both attempts is a
// legitimate empty result, not an error.
func slugAttempts(slug string) []string {
	if strings.HasSuffix(slug, citySuffix) {
		return []string{slug, strings.TrimSuffix(slug, citySuffix)}
	}
	return []string{slug, slug + citySuffix}
}

// firstComponent returns the first comma-separated component of an address,
// which the geocoder places the bare place name in.
func firstComponent(address string) string {
	if idx := strings.Index(address, ","); idx >= 0 {
		address = address[:idx]
	}
	return strings.TrimSpace(address)
}

package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple name", "Austin", "austin"},
		{"space becomes underscore", "New York", "new_york"},
		{"punctuation run collapses", "St. Louis", "st_louis"},
		{"mixed separators collapse", "Winston - Salem", "winston_salem"},
		{"leading and trailing junk stripped", "  Boise!  ", "boise"},
		{"digits survive", "29 Palms", "29_palms"},
		{"empty input", "", ""},
		{"only punctuation", "---", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Slugify(tc.input)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, got, Slugify(got), "slugify must be idempotent")
		})
	}
}

func TestSlugAttempts(t *testing.T) {
	t.Parallel()

	t.Run("unsuffixed slug retries with suffix", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, []string{"springfield", "springfield_city"}, slugAttempts("springfield"))
	})

	t.Run("suffixed slug retries without suffix", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, []string{"springfield_city", "springfield"}, slugAttempts("springfield_city"))
	})
}

func TestFirstComponent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Springfield", firstComponent("Springfield, Illinois, United States"))
	assert.Equal(t, "Boise", firstComponent("Boise"))
	assert.Equal(t, "Salem", firstComponent("  Salem , OR"))
}

func TestStateFromAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		address string
		want    string
		found   bool
	}{
		{"abbreviation component", "Springfield, IL, United States", "IL", true},
		{"full state name component", "Springfield, Illinois, United States", "IL", true},
		{"abbreviation inside a component", "1600 Pennsylvania Ave, Washington DC 20500, US", "", false},
		{"abbreviation token with zip", "Austin, TX 78701", "TX", true},
		{"lower-case abbreviation", "portland, or", "OR", true},
		{"no state at all", "Paris, France", "", false},
		{"empty address", "", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := StateFromAddress(tc.address)
			assert.Equal(t, tc.found, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestStateAbbreviations(t *testing.T) {
	t.Parallel()

	abbrs := StateAbbreviations()

	require.Len(t, abbrs, 50)
	assert.Equal(t, "AK", abbrs[0])
	assert.Equal(t, "WY", abbrs[49])
	assert.IsIncreasing(t, abbrs)
}

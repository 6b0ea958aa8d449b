package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  QueryKind
	}{
		{"five digits is a zip", "90210", KindZip},
		{"leading zero is a zip", "02134", KindZip},
		{"four digits is a place", "9021", KindPlace},
		{"six digits is a place", "902101", KindPlace},
		{"digits with a letter is a place", "9021a", KindPlace},
		{"city name is a place", "Austin", KindPlace},
		{"city with state is a place", "Austin, TX", KindPlace},
		{"unicode digits are a place", "９０２１０", KindPlace},
		{"empty string is a place", "", KindPlace},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, Classify(tc.input))
		})
	}
}

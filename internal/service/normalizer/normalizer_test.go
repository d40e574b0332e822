package normalizer

import (
	"testing"

	"github.com/openjordan/healthatlas/internal/pkg/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "wiki url", raw: "https://www.wikidata.org/wiki/Q3720", want: "Q3720"},
		{name: "entity url", raw: "http://www.wikidata.org/entity/Q3720", want: "Q3720"},
		{name: "url without www", raw: "https://wikidata.org/wiki/Q3720", want: "Q3720"},
		{name: "url with trailing slash", raw: "https://www.wikidata.org/wiki/Q3720/", want: "Q3720"},
		{name: "bare entity id", raw: "Q3720", want: "Q3720"},
		{name: "bare id with padding", raw: "  Q3720 ", want: "Q3720"},
		{name: "plain name", raw: "Zarqa", want: "zarqa"},
		{name: "name with entity references", raw: "&#1575;&#1604;&#1586;&#1585;&#1602;&#1575;&#1569;", want: "الزرقاء"},
		{name: "named entity reference", raw: "Ma&amp;an", want: "ma&an"},
		{name: "inner whitespace collapsed", raw: "Wadi   Musa", want: "wadi musa"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeKey(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeKeyURLAndBareIDAgree(t *testing.T) {
	fromURL, err := NormalizeKey("https://www.wikidata.org/wiki/Q503582")
	require.NoError(t, err)

	fromID, err := NormalizeKey("Q503582")
	require.NoError(t, err)

	assert.Equal(t, fromID, fromURL)
}

func TestNormalizeKeyInvalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "whitespace only", raw: "   "},
		{name: "punctuation only", raw: "--- !!"},
		{name: "entities decoding to nothing", raw: "&nbsp;&nbsp;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeKey(tt.raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, constants.ErrInvalidKey)
		})
	}
}

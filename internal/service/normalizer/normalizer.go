package normalizer

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode"

	"github.com/openjordan/healthatlas/internal/pkg/constants"
)

var (
	wikidataURLRe = regexp.MustCompile(`^https?://(?:www\.)?wikidata\.org/(?:wiki|entity)/(Q\d+)/?$`)
	bareEntityRe  = regexp.MustCompile(`^Q\d+$`)
	spaceRunRe    = regexp.MustCompile(`\s+`)
)

// NormalizeKey canonicalizes a raw join identifier. Wikidata URLs collapse to
// their trailing Q-id, bare Q-ids pass through, anything else is treated as a
// name: HTML character references are decoded (source CSVs carry Arabic names
// as &#...; sequences), whitespace is trimmed and collapsed, and the result
// is case-folded.
func NormalizeKey(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty input", constants.ErrInvalidKey)
	}

	if m := wikidataURLRe.FindStringSubmatch(trimmed); m != nil {
		return m[1], nil
	}

	if bareEntityRe.MatchString(trimmed) {
		return trimmed, nil
	}

	decoded := html.UnescapeString(trimmed)
	decoded = spaceRunRe.ReplaceAllString(strings.TrimSpace(decoded), " ")

	if !hasAlphanumeric(decoded) {
		return "", fmt.Errorf("%w: no alphanumeric content in %q", constants.ErrInvalidKey, raw)
	}

	return strings.ToLower(decoded), nil
}

func hasAlphanumeric(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

package slug

import (
	"regexp"
	"strings"
)

var slugRegexp = regexp.MustCompile(`[^a-z0-9]+`)

// Generate creates a URL-friendly slug from the given title. Spanish accented
// characters are transliterated to their ASCII equivalents.
//
// Examples:
//   - "Camiseta Niños" → "camiseta-ninos"
//   - "Edición Limitada" → "edicion-limitada"
//   - "Hello   World!" → "hello-world"
func Generate(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))

	replacer := strings.NewReplacer(
		"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u",
		"ñ", "n", "ü", "u",
	)
	s = replacer.Replace(s)

	// Replace any non-alphanumeric run with a single hyphen.
	s = slugRegexp.ReplaceAllString(s, "-")

	return strings.Trim(s, "-")
}

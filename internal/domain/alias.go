package domain

import "strings"

// entityAliases remaps superseded ISO 3166-1 alpha-3 codes, as they appear
// in older boundary datasets, to their modern successors.
var entityAliases = map[string]string{
	"ROM": "ROU", // Romania, code retired in 2002
	"ZAR": "COD", // Zaire, now the Democratic Republic of the Congo
}

// ResolveEntityCode normalizes a raw identifier to a canonical 3-letter
// entity code: trimmed, uppercased, legacy aliases remapped. Returns ""
// when the input cannot represent a code, either the wrong length or
// non-letter characters (boundary datasets use "-99" as a placeholder).
func ResolveEntityCode(raw string) string {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if len(code) != 3 {
		return ""
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return ""
		}
	}
	if canonical, ok := entityAliases[code]; ok {
		return canonical
	}
	return code
}

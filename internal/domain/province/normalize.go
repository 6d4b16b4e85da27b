// Package province canonicalises Indonesian province names entered by hand.
package province

import (
	"strings"
	"unicode"
)

// Canonical province names as stored in the directory.
var Canonical = []string{
	"Aceh",
	"Sumatera Utara",
	"Sumatera Barat",
	"Riau",
	"Kepulauan Riau",
	"Jambi",
	"Sumatera Selatan",
	"Kepulauan Bangka Belitung",
	"Bengkulu",
	"Lampung",
	"DKI Jakarta",
	"Jawa Barat",
	"Banten",
	"Jawa Tengah",
	"DI Yogyakarta",
	"Jawa Timur",
	"Bali",
	"Nusa Tenggara Barat",
	"Nusa Tenggara Timur",
	"Kalimantan Barat",
	"Kalimantan Tengah",
	"Kalimantan Selatan",
	"Kalimantan Timur",
	"Kalimantan Utara",
	"Sulawesi Utara",
	"Gorontalo",
	"Sulawesi Tengah",
	"Sulawesi Barat",
	"Sulawesi Selatan",
	"Sulawesi Tenggara",
	"Maluku",
	"Maluku Utara",
	"Papua",
	"Papua Barat",
	"Papua Barat Daya",
	"Papua Tengah",
	"Papua Pegunungan",
	"Papua Selatan",
}

// aliases maps a folded key to a canonical name.
var aliases = map[string]string{
	"nad":                      "Aceh",
	"nanggroe aceh darussalam": "Aceh",
	"sumut":                    "Sumatera Utara",
	"sumatra utara":            "Sumatera Utara",
	"sumbar":                   "Sumatera Barat",
	"sumatra barat":            "Sumatera Barat",
	"kepri":                    "Kepulauan Riau",
	"sumsel":                   "Sumatera Selatan",
	"sumatra selatan":          "Sumatera Selatan",
	"babel":                    "Kepulauan Bangka Belitung",
	"bangka belitung":          "Kepulauan Bangka Belitung",
	"dki":                      "DKI Jakarta",
	"jakarta":                  "DKI Jakarta",
	"dki jakarta raya":         "DKI Jakarta",
	"jabar":                    "Jawa Barat",
	"jateng":                   "Jawa Tengah",
	"diy":                      "DI Yogyakarta",
	"d i yogyakarta":           "DI Yogyakarta",
	"yogyakarta":               "DI Yogyakarta",
	"jatim":                    "Jawa Timur",
	"ntb":                      "Nusa Tenggara Barat",
	"ntt":                      "Nusa Tenggara Timur",
	"kalbar":                   "Kalimantan Barat",
	"kalteng":                  "Kalimantan Tengah",
	"kalsel":                   "Kalimantan Selatan",
	"kaltim":                   "Kalimantan Timur",
	"kaltara":                  "Kalimantan Utara",
	"sulut":                    "Sulawesi Utara",
	"sulteng":                  "Sulawesi Tengah",
	"sulbar":                   "Sulawesi Barat",
	"sulsel":                   "Sulawesi Selatan",
	"sultra":                   "Sulawesi Tenggara",
	"malut":                    "Maluku Utara",
	"pabar":                    "Papua Barat",
}

var byKey = func() map[string]string {
	m := make(map[string]string, len(Canonical)+len(aliases))
	for _, c := range Canonical {
		m[fold(c)] = c
	}
	for k, v := range aliases {
		m[k] = v
	}
	return m
}()

// Normalize returns the canonical name for s, or s trimmed with collapsed
// whitespace when it is not a known province. The bool reports a match.
func Normalize(s string) (string, bool) {
	key := fold(s)
	if key == "" {
		return "", false
	}
	key = strings.TrimPrefix(key, "provinsi ")
	key = strings.TrimPrefix(key, "prov ")
	key = strings.TrimPrefix(key, "daerah istimewa ")
	if c, ok := byKey[key]; ok {
		return c, true
	}
	return strings.Join(strings.Fields(s), " "), false
}

// MustNormalize drops the match flag.
func MustNormalize(s string) string {
	out, _ := Normalize(s)
	return out
}

func fold(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '.' || r == '_' || r == '-':
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return unicode.ToLower(r)
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

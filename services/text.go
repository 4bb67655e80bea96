package services

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	ligatures = strings.NewReplacer(
		"ﬁ", "fi",
		"ﬂ", "fl",
		"ﬀ", "ff",
		"ﬃ", "ffi",
		"ﬄ", "ffl",
		"ﬆ", "st",
	)
	hyphenBreakRE  = regexp.MustCompile(`(?m)([\p{L}\p{N}])-(?:\r?\n)([\p{Ll}])`)
	spaceRunRE     = regexp.MustCompile("[\t\f\v \u00a0]+")
	manyNewlinesRE = regexp.MustCompile(`\n{3,}`)
)

// CleanText bereinigt Freitext aus Formularen, Excel-Exporten und KI-Antworten:
// NFC, Ligaturen, Silbentrennung am Zeilenende, Leerzeichenfolgen und mehr
// als eine Leerzeile.
func CleanText(s string) string {
	if s == "" {
		return s
	}
	s = ligatures.Replace(s)
	s, _, _ = transform.String(transform.Chain(norm.NFC), s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = hyphenBreakRE.ReplaceAllString(s, "$1$2")
	s = spaceRunRE.ReplaceAllString(s, " ")
	s = manyNewlinesRE.ReplaceAllString(s, "\n\n")

	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRightFunc(lines[i], unicode.IsSpace)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

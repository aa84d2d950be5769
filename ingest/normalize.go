package ingest

import (
	"regexp"
	"strings"
)

// Organizational prefixes that report authors attach inconsistently.
// Longer variants (with the ideographic space) come first so one pass strips
// the whole prefix.
var orgPrefixes = []string{
	"認定こども園　", "認定こども園",
	"学校法人　", "学校法人",
	"社会福祉法人　", "社会福祉法人",
	"incorporated school foundation ",
}

var (
	trailingYearRe = regexp.MustCompile(`[（(]\s*\d{4}\s*(年度|FY)\s*[）)]\s*$`)
	leadingYearRe  = regexp.MustCompile(`^\d{4}年度\s*`)
	bareYearRe     = regexp.MustCompile(`\d{4}年度\s*`)
	bracketNoteRe  = regexp.MustCompile(`[（(][^（()）]*[）)]`)
)

// StripYearMarkers removes the fiscal-year decoration authors add when a
// school row is carried over between years, e.g. "X小学校（2024年度）" or
// "2024年度 Yこども園". The result is the canonical display name.
func StripYearMarkers(name string) string {
	s := strings.TrimSpace(name)
	s = trailingYearRe.ReplaceAllString(s, "")
	s = leadingYearRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// NormalizeSchoolName reduces a school name to the form used for matching:
// organizational prefixes, year markers, and any remaining bracketed
// annotation are removed, and whitespace (including ideographic spaces) is
// collapsed away. Normalization is idempotent.
func NormalizeSchoolName(name string) string {
	s := strings.TrimSpace(name)

	for _, p := range orgPrefixes {
		if strings.HasPrefix(s, p) || strings.HasPrefix(strings.ToLower(s), p) {
			s = s[len(p):]
			break
		}
	}

	s = trailingYearRe.ReplaceAllString(s, "")
	s = bareYearRe.ReplaceAllString(s, "")
	s = bracketNoteRe.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), "")
	return s
}

// NormalizeBrackets unifies half-width brackets to the full-width form used
// by the reference data, so alias lookups are spelling-insensitive.
func NormalizeBrackets(s string) string {
	s = strings.ReplaceAll(s, "(", "（")
	s = strings.ReplaceAll(s, ")", "）")
	return s
}

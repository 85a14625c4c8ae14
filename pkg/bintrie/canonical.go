package bintrie

import "strings"

// ShouldPreserveCanonical reports whether word needs a canonical-forms
// side table entry: it's a contraction, an acronym, or a proper noun.
func ShouldPreserveCanonical(word string) bool {
	return isContraction(word) || isAcronym(word) || isProperNoun(word)
}

// IsContractionOrAcronym reports whether word is a contraction or an
// acronym specifically (excluding proper nouns) — the formatting rule for
// when a canonical form is used verbatim rather than case-mirrored.
func IsContractionOrAcronym(word string) bool {
	return isContraction(word) || isAcronym(word)
}

// isContraction reports whether word contains an apostrophe, e.g. "don't".
func isContraction(word string) bool {
	return strings.Contains(word, "'")
}

// isAcronym reports whether word is 2-5 characters, all ASCII uppercase,
// e.g. "USA".
func isAcronym(word string) bool {
	n := len(word)
	if n < 2 || n > 5 {
		return false
	}
	for _, r := range word {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// isProperNoun reports whether word is at least 2 characters, Title Case
// (first letter uppercase, the rest lowercase), and carries no apostrophe
// (contractions are classified separately), e.g. "Europe".
func isProperNoun(word string) bool {
	if len(word) < 2 || strings.Contains(word, "'") {
		return false
	}
	runes := []rune(word)
	if runes[0] < 'A' || runes[0] > 'Z' {
		return false
	}
	for _, r := range runes[1:] {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

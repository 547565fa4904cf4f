// Package alphabet defines the closed set of static sign letters the
// system can display and recognize. J and Z are excluded because they
// require motion and cannot be read from a single frame.
package alphabet

import "strings"

// Letters is the ordered set of valid letters.
const Letters = "ABCDEFGHIKLMNOPQRSTUVWXY"

// Valid reports whether r is a recognizable static letter.
func Valid(r rune) bool {
	return strings.ContainsRune(Letters, r)
}

// ValidWord reports whether every letter of word (upper-cased) is valid.
func ValidWord(word string) bool {
	w := strings.ToUpper(word)
	if w == "" {
		return false
	}
	for _, r := range w {
		if !Valid(r) {
			return false
		}
	}
	return true
}

// Filter upper-cases word and strips any letter outside the alphabet.
func Filter(word string) string {
	var sb strings.Builder
	for _, r := range strings.ToUpper(word) {
		if Valid(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

package grille

import "strings"

// normalize trims the spaces surrounding text. Other whitespace is kept.
func normalize(text string) string {
	return strings.Trim(text, " ")
}

// pad appends placeholder runes until len(runes) is a multiple of blockSize.
func pad(runes []rune, blockSize int, placeholder rune) []rune {
	rem := len(runes) % blockSize
	if rem == 0 {
		return runes
	}
	padded := make([]rune, len(runes), len(runes)+blockSize-rem)
	copy(padded, runes)
	for i := rem; i < blockSize; i++ {
		padded = append(padded, placeholder)
	}
	return padded
}

// unpad strips trailing placeholder runes. Placeholders that were part of the
// original text at its very end are lost as well.
func unpad(runes []rune, placeholder rune) []rune {
	end := len(runes)
	for end > 0 && runes[end-1] == placeholder {
		end--
	}
	return runes[:end]
}

// Package wordlist exposes the fixed, ordered vocabulary used to encode
// wallet entropy as a recovery phrase.
package wordlist

import (
	"strings"

	"github.com/tyler-smith/go-bip39/wordlists"
)

// Size is the number of words in the list. It is a power of two so that
// 11 random bits select a word uniformly.
const Size = 2048

var (
	words = wordlists.English
	index = make(map[string]int, Size)
)

func init() {
	if len(words) != Size {
		panic("wordlist: unexpected english wordlist size")
	}
	for i, w := range words {
		index[w] = i
	}
}

// Word returns the word at position i. i is reduced modulo Size.
func Word(i int) string {
	i %= Size
	if i < 0 {
		i += Size
	}
	return words[i]
}

// Index returns the position of word (case-insensitive) and whether it exists.
func Index(word string) (int, bool) {
	i, ok := index[strings.ToLower(word)]
	return i, ok
}

// Contains reports whether word is a member of the list (case-insensitive).
func Contains(word string) bool {
	_, ok := Index(word)
	return ok
}

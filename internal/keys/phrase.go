// Package keys turns recovery phrases into seeds, private scalars, public
// points and addresses.
package keys

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/AlexZinkM/seedvault/internal/model"
	"github.com/AlexZinkM/seedvault/internal/wordlist"
)

// PhraseLength is the exact number of words in a recovery phrase.
const PhraseLength = 12

// Phrase is an ordered, validated recovery phrase.
type Phrase []string

// String returns the canonical form: lowercase words joined by single spaces.
// This is the exact KDF input.
func (p Phrase) String() string {
	return strings.Join(p, " ")
}

// Wipe overwrites the phrase words in place.
func (p Phrase) Wipe() {
	for i := range p {
		p[i] = ""
	}
}

// GeneratePhrase draws 12 words independently and uniformly at random from
// the wordlist using crypto/rand.
func GeneratePhrase() (Phrase, error) {
	return GeneratePhraseFrom(rand.Reader)
}

// GeneratePhraseFrom is GeneratePhrase with an explicit entropy source.
func GeneratePhraseFrom(r io.Reader) (Phrase, error) {
	buf := make([]byte, 2*PhraseLength)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("failed to read entropy: %w", err)
	}
	defer clear(buf)
	return phraseFromBytes(buf), nil
}

// phraseFromBytes maps each big-endian uint16 to a word using its low 11
// bits. The wordlist size divides 2^16, so the mapping is uniform.
func phraseFromBytes(buf []byte) Phrase {
	p := make(Phrase, PhraseLength)
	for i := range p {
		n := binary.BigEndian.Uint16(buf[2*i : 2*i+2])
		p[i] = wordlist.Word(int(n & (wordlist.Size - 1)))
	}
	return p
}

// ValidatePhrase splits text on whitespace and checks the word count and
// wordlist membership. Words are lowercased.
func ValidatePhrase(text string) (Phrase, error) {
	fields := strings.Fields(text)
	if len(fields) != PhraseLength {
		return nil, &model.InvalidMnemonicError{Count: len(fields)}
	}
	p := make(Phrase, PhraseLength)
	for i, f := range fields {
		w := strings.ToLower(f)
		if !wordlist.Contains(w) {
			return nil, &model.InvalidMnemonicError{Word: f, Count: len(fields)}
		}
		p[i] = w
	}
	return p, nil
}

package wordlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWordAndIndex(t *testing.T) {
	require.Equal(t, "abandon", Word(0))
	require.Equal(t, "accident", Word(11))
	require.Equal(t, "zoo", Word(Size-1))

	i, ok := Index("ABILITY")
	require.True(t, ok)
	assert.Equal(t, 1, i)

	_, ok = Index("notaword")
	assert.False(t, ok)
}

func TestWordWraps(t *testing.T) {
	assert.Equal(t, Word(0), Word(Size))
	assert.Equal(t, Word(Size-1), Word(-1))
}

func TestContains(t *testing.T) {
	assert.True(t, Contains("Zoo"))
	assert.False(t, Contains(""))
}

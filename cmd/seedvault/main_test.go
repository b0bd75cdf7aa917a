package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()

	for _, path := range [][]string{
		{"serve"},
		{"create"},
		{"restore"},
		{"passwd"},
		{"sign"},
		{"verify"},
		{"accounts"},
		{"account", "add"},
		{"account", "rename"},
		{"account", "switch"},
		{"account", "delete"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestSignRejectsNonHexPayload(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"sign", "not-hex"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "payload must be hex")
}

func TestVerifyNeedsThreeArgs(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"verify", "00"})

	assert.Error(t, root.Execute())
}

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/mvscript/internal/motion/l2frames"
)

func TestParseCells(t *testing.T) {
	layout, err := l2frames.NewLayout(80, 40, 8, 4)
	require.NoError(t, err)

	cells, err := parseCells("", layout)
	require.NoError(t, err)
	assert.Equal(t, []int{10, 11, 12, 13, 18, 19, 20, 21}, cells)

	cells, err = parseCells("0, 7,31", layout)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 7, 31}, cells)

	_, err = parseCells("32", layout)
	assert.Error(t, err)
	_, err = parseCells("x", layout)
	assert.Error(t, err)
}

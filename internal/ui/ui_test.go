package ui

import (
	"bytes"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintTable(t *testing.T) {
	pterm.DisableStyling()
	t.Cleanup(pterm.EnableStyling)

	var buf bytes.Buffer

	err := PrintTable(&buf, []string{"#", "PATIENT"}, [][]string{
		{"1", "P-2"},
		{"2", "P-10"},
	})
	require.NoError(t, err)

	out := buf.String()

	assert.Contains(t, out, "PATIENT")
	assert.Contains(t, out, "P-10")
}

func TestStatus(t *testing.T) {
	pterm.DisableColor()
	t.Cleanup(pterm.EnableColor)

	assert.Equal(t, "finalized", Status(true, true))
	assert.Equal(t, "completed", Status(true, false))
	assert.Equal(t, "open", Status(false, false))
}

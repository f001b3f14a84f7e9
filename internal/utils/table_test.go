package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableFormatter(t *testing.T) {
	table := NewTableFormatter("TASK", "DEPENDS ON")
	table.AddRow("compile", "fetch")
	table.AddRow("package", "compile, test", "ignored")
	table.AddRow("fetch")

	want := "" +
		"┌─────────┬───────────────┐\n" +
		"│ TASK    │ DEPENDS ON    │\n" +
		"├─────────┼───────────────┤\n" +
		"│ compile │ fetch         │\n" +
		"│ package │ compile, test │\n" +
		"│ fetch   │               │\n" +
		"└─────────┴───────────────┘\n"

	assert.Equal(t, want, table.String())
	assert.Equal(t, 3, table.Len())
}

func TestTableFormatter_UnicodeWidth(t *testing.T) {
	table := NewTableFormatter("STATUS")
	table.AddRow("✓ ok")

	assert.Equal(t, ""+
		"┌────────┐\n"+
		"│ STATUS │\n"+
		"├────────┤\n"+
		"│ ✓ ok   │\n"+
		"└────────┘\n", table.String())
}

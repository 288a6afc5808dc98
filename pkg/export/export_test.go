package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() Table {
	return Table{
		Title: "Agreement register",
		Columns: []Column{
			{Key: "counterparty", Header: "Counterparty", Width: 3},
			{Key: "type", Header: "Type"},
			{Key: "expiration_date"},
		},
		Rows: []map[string]string{
			{"counterparty": "Hospital San José, Ltda.", "type": "internship", "expiration_date": "2025-06-30"},
			{"counterparty": "Acme", "type": "framework"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleTable())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Counterparty,Type,expiration_date", lines[0])
	assert.Equal(t, `"Hospital San José, Ltda.",internship,2025-06-30`, lines[1])
	assert.Equal(t, "Acme,framework,", lines[2])
}

func TestExportersRequireColumns(t *testing.T) {
	_, err := NewCSVExporter().Render(Table{})
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(Table{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleTable())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Equal(t, "application/pdf", NewPDFExporter().ContentType())
}

func TestColumnWidthsAndTruncate(t *testing.T) {
	widths := columnWidths(sampleTable().Columns)
	assert.InDelta(t, pdfUsableWidth*3/5, widths[0], 0.001)
	assert.InDelta(t, pdfUsableWidth/5, widths[1], 0.001)

	assert.Equal(t, "short", truncate("short", 50))
	assert.Equal(t, "abcdefg...", truncate(strings.Repeat("abcdefghij", 3), 17))
}

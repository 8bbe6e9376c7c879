package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:    "Daily Proxy Register",
		Subtitle: "Monday, 04 Mar 2024",
		Headers:  []string{"Period", "Class", "Substitute"},
		Rows: []map[string]string{
			{"Period": "1", "Class": "5A", "Substitute": "Teacher V"},
			{"Period": "2", "Class": "5A, annex", "Substitute": "Teacher U"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "Period,Class,Substitute\n1,5A,Teacher V\n2,\"5A, annex\",Teacher U\n", string(out))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestPDFExporterEmptyRows(t *testing.T) {
	data := sampleDataset()
	data.Rows = nil
	out, err := NewPDFExporter().Render(data)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

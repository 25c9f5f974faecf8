package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterWritesFooterLast(t *testing.T) {
	data := Dataset{
		Headers: []string{"Staff", "Days", "Total"},
		Rows: []map[string]string{
			{"Staff": "Bea Ng", "Days": "2", "Total": "240"},
			{"Staff": "Cal, Jr", "Days": "1", "Total": "100"},
		},
		Footer: map[string]string{"Staff": "Total", "Days": "3", "Total": "340"},
	}

	out, err := NewCSVExporter().Render(data)
	require.NoError(t, err)
	assert.Equal(t, "Staff,Days,Total\nBea Ng,2,240\n\"Cal, Jr\",1,100\nTotal,3,340\n", string(out))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRenderInvoice(t *testing.T) {
	out, err := NewPDFExporter().RenderInvoice(InvoiceDocument{
		Number:      "202503-AnLe",
		Status:      "draft",
		ClientName:  "Ann Lee",
		Period:      "March 2025",
		InvoiceDate: "01 Apr 2025",
		DueDate:     "15 Apr 2025",
		Lines: []InvoiceLine{
			{Date: "03 Mar 2025", Description: "Attendance – 03 Mar 2025", Amount: "40.00"},
		},
		Total: "40.00",
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	_, err = NewPDFExporter().RenderInvoice(InvoiceDocument{})
	assert.Error(t, err)
}

func TestPDFExporterRenderDataset(t *testing.T) {
	out, err := NewPDFExporter().Render(Dataset{
		Headers: []string{"Staff", "Total"},
		Rows:    []map[string]string{{"Staff": "Bea Ng", "Total": "240"}},
	}, "Staff reconciliation")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

package export

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ppsgen/backend/internal/model"
	"github.com/ppsgen/backend/internal/pkg/spreadsheet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() model.Tree {
	items := []*model.Item{
		model.NewItem("1.1.1.a-0", "1.1.1.a", map[model.FieldName]string{
			model.FieldDescription:           "Ada regulasi",
			model.FieldEvidenceDocumentTitle: "SK Direktur",
		}),
		model.NewItem("1.1.1.b-1", "1.1.1.b", map[model.FieldName]string{
			model.FieldDescription:           "Ada SOP",
			model.FieldEvidenceDocumentTitle: "SK Direktur",
		}),
	}
	return model.Tree{
		"1": {Title: "BAB 1", Standards: map[string]*model.Standard{
			"1.1": {Title: "Standar 1.1", Criteria: map[string]*model.Criterion{
				"1.1.1": {Title: "Kriteria 1.1.1", Items: items},
			}},
		}},
	}
}

func TestWriteItemsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleTree(), KindItems, FormatCSV))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "BAB,Standar,Kriteria,Kode EP,Uraian Elemen Penilaian"))
	assert.True(t, strings.HasPrefix(lines[1], "BAB 1,Standar 1.1,Kriteria 1.1.1,1.1.1.a,Ada regulasi"))
	assert.True(t, strings.HasSuffix(lines[2], ",SK Direktur"))
}

func TestWriteInventoryXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleTree(), KindInventory, FormatXLSX))

	table, err := spreadsheet.Read("inventory.xlsx", &buf)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, []string{"1", "SK Direktur", "Surat Keputusan (SK)", "1.1.1.a; 1.1.1.b", "Ada regulasi; Ada SOP"}, table.Rows[0])
}

func TestWriteUnsupported(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleTree(), "pdf", FormatCSV); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if err := Write(&buf, sampleTree(), KindItems, "pdf"); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

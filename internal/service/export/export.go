package export

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/ppsgen/backend/internal/model"
	"github.com/ppsgen/backend/internal/pkg/spreadsheet"
	"github.com/ppsgen/backend/internal/service/hierarchy"
	"github.com/ppsgen/backend/internal/service/inventory"
)

type Kind string

const (
	KindItems     Kind = "items"
	KindInventory Kind = "inventory"
)

type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

var ErrUnsupported = errors.New("unsupported export kind or format")

var fieldHeaders = map[model.FieldName]string{
	model.FieldDescription:           "Uraian Elemen Penilaian",
	model.FieldSurveyRecommendation:  "Rekomendasi Hasil Survey",
	model.FieldCorrectionPlan:        "Rencana Perbaikan",
	model.FieldIndicator:             "Indikator Pencapaian",
	model.FieldTarget:                "Sasaran",
	model.FieldDueDate:               "Waktu Penyelesaian",
	model.FieldResponsibleParty:      "Penanggung Jawab",
	model.FieldEvidenceDocumentTitle: "Keterangan",
}

// ItemsSheet 条目明细表，按展示顺序
func ItemsSheet(tree model.Tree) spreadsheet.Sheet {
	header := []string{"BAB", "Standar", "Kriteria", "Kode EP"}
	for _, f := range model.NarrativeFields {
		header = append(header, fieldHeaders[f])
	}

	var rows [][]string
	hierarchy.Walk(tree, func(ck, sk, kk string, item *model.Item) bool {
		chapter := tree[ck]
		standard := chapter.Standards[sk]
		row := []string{chapter.Title, standard.Title, standard.Criteria[kk].Title, item.Code}
		fields := item.Fields()
		for _, f := range model.NarrativeFields {
			row = append(row, fields[f])
		}
		rows = append(rows, row)
		return true
	})
	return spreadsheet.Sheet{Name: "Data PPS", Header: header, Rows: rows}
}

// InventorySheet 证据文档清单
func InventorySheet(entries []inventory.Entry) spreadsheet.Sheet {
	rows := make([][]string, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, []string{strconv.Itoa(i + 1), e.Title, e.Type, e.JoinedCodes(), e.JoinedDescriptions()})
	}
	return spreadsheet.Sheet{
		Name:   "Inventaris Dokumen",
		Header: []string{"No", "Judul Dokumen", "Jenis Dokumen", "Kode EP Terkait", "Uraian EP Terkait"},
		Rows:   rows,
	}
}

// Write 按种类与格式写出
func Write(w io.Writer, tree model.Tree, kind Kind, format Format) error {
	var sheet spreadsheet.Sheet
	switch kind {
	case KindItems:
		sheet = ItemsSheet(tree)
	case KindInventory:
		sheet = InventorySheet(inventory.Build(tree))
	default:
		return fmt.Errorf("%w: kind=%s", ErrUnsupported, kind)
	}

	switch format {
	case FormatXLSX:
		return spreadsheet.WriteXLSX(w, sheet)
	case FormatCSV:
		return spreadsheet.WriteCSV(w, sheet)
	default:
		return fmt.Errorf("%w: format=%s", ErrUnsupported, format)
	}
}

// ContentType 下载响应的 MIME 类型
func ContentType(format Format) string {
	if format == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// FileName 下载文件名
func FileName(dataset string, kind Kind, format Format) string {
	return fmt.Sprintf("%s_%s.%s", dataset, kind, format)
}

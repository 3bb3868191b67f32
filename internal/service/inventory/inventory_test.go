package inventory

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ppsgen/backend/internal/domain"
	"github.com/ppsgen/backend/internal/model"
)

func item(id, code, desc, title string) *model.Item {
	return model.NewItem(id, code, map[model.FieldName]string{
		model.FieldDescription:           desc,
		model.FieldEvidenceDocumentTitle: title,
	})
}

func testTree() model.Tree {
	return model.Tree{
		"1": {Title: "BAB 1", Standards: map[string]*model.Standard{
			"1.1": {Title: "Standar 1.1", Criteria: map[string]*model.Criterion{
				"1.1.1": {Title: "Kriteria 1.1.1", Items: []*model.Item{
					item("1.1.1.a-0", "1.1.1.a", "Ada regulasi", "SK Direktur tentang Mutu"),
					item("1.1.1.b-1", "1.1.1.b", "Ada bukti rapat", "Notulen Rapat Komite"),
					item("1.1.1.c-2", "1.1.1.c", "Ada regulasi", "SK Direktur tentang Mutu"),
					item("1.1.1.d-3", "1.1.1.d", "Belum", domain.PlaceholderNotGenerated),
					item("1.1.1.e-4", "1.1.1.e", "Gagal", domain.RetriesExhaustedStatus()),
				}},
			}},
		}},
		"2": {Title: "BAB 2", Standards: map[string]*model.Standard{
			"2.1": {Title: "Standar 2.1", Criteria: map[string]*model.Criterion{
				"2.1.1": {Title: "Kriteria 2.1.1", Items: []*model.Item{
					item("2.1.1.a-5", "2.1.1.a", "Pelatihan", "Sertifikat Pelatihan PPI"),
					item("2.1.1.b-6", "2.1.1.b", "Lain", "Foto kegiatan"),
				}},
			}},
		}},
	}
}

func TestBuild(t *testing.T) {
	got := Build(testTree())
	want := []Entry{
		{Title: "SK Direktur tentang Mutu", Type: "Surat Keputusan (SK)", Codes: []string{"1.1.1.a", "1.1.1.c"}, Descriptions: []string{"Ada regulasi"}},
		{Title: "Notulen Rapat Komite", Type: "Notulen Rapat", Codes: []string{"1.1.1.b"}, Descriptions: []string{"Ada bukti rapat"}},
		{Title: "Sertifikat Pelatihan PPI", Type: "Sertifikat", Codes: []string{"2.1.1.a"}, Descriptions: []string{"Pelatihan"}},
		{Title: "Foto kegiatan", Type: TypeOther, Codes: []string{"2.1.1.b"}, Descriptions: []string{"Lain"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("inventory mismatch (-want +got):\n%s", diff)
	}
	if joined := got[0].JoinedCodes(); joined != "1.1.1.a; 1.1.1.c" {
		t.Fatalf("unexpected joined codes: %q", joined)
	}
}

func TestGroupByType(t *testing.T) {
	groups := GroupByType(Build(testTree()))
	var types []string
	for _, g := range groups {
		types = append(types, g.Type)
	}
	want := []string{"Surat Keputusan (SK)", "Notulen Rapat", "Sertifikat", TypeOther}
	if diff := cmp.Diff(want, types); diff != "" {
		t.Fatalf("group order mismatch (-want +got):\n%s", diff)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"SK Direktur", "Surat Keputusan (SK)"},
		{"Skrining pasien", TypeOther},
		{"SOP Cuci Tangan", "Standar Prosedur Operasional (SOP)"},
		{"Pedoman Pelayanan", "Pedoman"},
		{"Buku Panduan PPI", "Panduan"},
		{"Kebijakan Mutu", "Kebijakan"},
		{"Program Kerja PMKP", "Program Kerja"},
		{"Laporan Insiden", "Laporan"},
		{"Daftar Hadir Pelatihan", "Daftar Hadir"},
		{"Absensi Rapat", "Daftar Hadir"},
		{"Notulen rapat pedoman", "Notulen Rapat"},
	}
	for _, c := range cases {
		if got := Classify(c.title); got != c.want {
			t.Errorf("Classify(%q) = %q, want %q", c.title, got, c.want)
		}
	}
}

func TestBuildEmptyTree(t *testing.T) {
	if got := Build(model.Tree{}); len(got) != 0 {
		t.Fatalf("expected no entries, got %d", len(got))
	}
}

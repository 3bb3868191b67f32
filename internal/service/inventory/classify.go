package inventory

import "strings"

const TypeOther = "Dokumen Umum/Lainnya"

type rule struct {
	docType string
	match   func(lower string) bool
}

func prefix(p string) func(string) bool {
	return func(s string) bool { return strings.HasPrefix(s, p) }
}

func contains(subs ...string) func(string) bool {
	return func(s string) bool {
		for _, sub := range subs {
			if strings.Contains(s, sub) {
				return true
			}
		}
		return false
	}
}

// rules 按顺序匹配，第一条命中者生效
var rules = []rule{
	{"Surat Keputusan (SK)", prefix("sk ")},
	{"Standar Prosedur Operasional (SOP)", prefix("sop ")},
	{"Notulen Rapat", contains("notulen")},
	{"Pedoman", contains("pedoman")},
	{"Panduan", contains("panduan")},
	{"Kebijakan", contains("kebijakan")},
	{"Program Kerja", contains("program")},
	{"Laporan", contains("laporan")},
	{"Daftar Hadir", contains("daftar hadir", "absensi")},
	{"Sertifikat", contains("sertifikat")},
}

// Classify 根据标题判断文档类型
func Classify(title string) string {
	lower := strings.ToLower(strings.TrimSpace(title))
	for _, r := range rules {
		if r.match(lower) {
			return r.docType
		}
	}
	return TypeOther
}

// TypeOrder 所有文档类型的展示顺序
func TypeOrder() []string {
	order := make([]string, 0, len(rules)+1)
	for _, r := range rules {
		order = append(order, r.docType)
	}
	return append(order, TypeOther)
}

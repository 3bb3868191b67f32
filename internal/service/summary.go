package service

import (
	"fmt"
	"strings"

	"github.com/ppsgen/backend/internal/domain"
	"github.com/ppsgen/backend/internal/model"
	"github.com/ppsgen/backend/internal/service/hierarchy"
)

const summaryPlanLimit = 30

// BuildSummaryPrompt 汇总各章节的完成情况与改进计划样本
func BuildSummaryPrompt(tree model.Tree) string {
	counted := []model.FieldName{
		model.FieldCorrectionPlan,
		model.FieldIndicator,
		model.FieldTarget,
		model.FieldEvidenceDocumentTitle,
	}
	filled := map[model.FieldName]int{}
	total := 0
	var plans []string
	var b strings.Builder

	b.WriteString("PERAN: Anda adalah konsultan akreditasi rumah sakit. ")
	b.WriteString("TUGAS: Buat ringkasan eksekutif Perencanaan Perbaikan Strategis (PPS) dalam 2-3 paragraf. DATA:\n")

	for _, ck := range hierarchy.SortedKeys(tree) {
		chapter := tree[ck]
		chapterItems := 0
		for _, sk := range hierarchy.SortedKeys(chapter.Standards) {
			for _, criterion := range chapter.Standards[sk].Criteria {
				chapterItems += len(criterion.Items)
			}
		}
		fmt.Fprintf(&b, "- %s: %d elemen penilaian\n", chapter.Title, chapterItems)
	}

	hierarchy.Walk(tree, func(_, _, _ string, item *model.Item) bool {
		total++
		for _, f := range counted {
			if domain.CleanAIInput(item.Field(f)) != "" {
				filled[f]++
			}
		}
		if plan := domain.CleanAIInput(item.Field(model.FieldCorrectionPlan)); plan != "" && len(plans) < summaryPlanLimit {
			plans = append(plans, fmt.Sprintf("%s: %s", item.Code, plan))
		}
		return true
	})

	fmt.Fprintf(&b, "- Total elemen penilaian: %d\n", total)
	fmt.Fprintf(&b, "- Rencana perbaikan terisi: %d, indikator terisi: %d, sasaran terisi: %d, dokumen bukti terisi: %d\n",
		filled[model.FieldCorrectionPlan], filled[model.FieldIndicator], filled[model.FieldTarget], filled[model.FieldEvidenceDocumentTitle])
	if len(plans) > 0 {
		b.WriteString("- Contoh rencana perbaikan:\n")
		for _, p := range plans {
			fmt.Fprintf(&b, "  * %s\n", p)
		}
	}
	b.WriteString("ATURAN: Gunakan bahasa Indonesia formal, soroti area prioritas, jangan membuat data baru.")
	return b.String()
}

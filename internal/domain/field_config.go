package domain

import (
	"fmt"

	"github.com/ppsgen/backend/internal/model"
)

// FieldConfig 单个字段的生成配置
type FieldConfig struct {
	Field                   model.FieldName
	LoadingSuffix           string // 忙碌标记后缀：<itemID>_<suffix>
	Precondition            func(item *model.Item) bool
	PreconditionFailureText string
	BuildPrompt             func(item *model.Item) string
}

func clean(item *model.Item, name model.FieldName) string {
	return CleanAIInput(item.Field(name))
}

func anyFilled(names ...model.FieldName) func(item *model.Item) bool {
	return func(item *model.Item) bool {
		for _, n := range names {
			if clean(item, n) != "" {
				return true
			}
		}
		return false
	}
}

// EvidenceTitleConfig 生成证据文档标题（Keterangan）
var EvidenceTitleConfig = FieldConfig{
	Field:                   model.FieldEvidenceDocumentTitle,
	LoadingSuffix:           "ket",
	Precondition:            anyFilled(model.FieldCorrectionPlan, model.FieldIndicator, model.FieldTarget),
	PreconditionFailureText: StatusInputNotReady + " (isi RTL/Indikator/Sasaran)",
	BuildPrompt: func(item *model.Item) string {
		return fmt.Sprintf(
			"PERAN: Anda adalah auditor akreditasi. TUGAS: Tuliskan satu judul DOKUMEN BUKTI IMPLEMENTASI yang konkret. "+
				"DATA: - Rencana Perbaikan: %q - Indikator: %q - Sasaran: %q. "+
				"ATURAN: Jawab dengan satu frasa tunggal dalam format nama dokumen resmi.",
			clean(item, model.FieldCorrectionPlan), clean(item, model.FieldIndicator), clean(item, model.FieldTarget))
	},
}

// CorrectionPlanConfig 生成改进计划（RTL）
var CorrectionPlanConfig = FieldConfig{
	Field:                   model.FieldCorrectionPlan,
	LoadingSuffix:           "rtl",
	Precondition:            anyFilled(model.FieldDescription, model.FieldSurveyRecommendation),
	PreconditionFailureText: StatusInsufficientData + " untuk ide RTL",
	BuildPrompt: func(item *model.Item) string {
		return fmt.Sprintf(
			"PERAN: Anda adalah konsultan mutu. TUGAS: Tuliskan satu kalimat RENCANA PERBAIKAN (RTL) yang operasional dan terukur. "+
				"DATA: - Uraian Elemen Penilaian: %q - Rekomendasi Survei: %q. "+
				"ATURAN: Jawab dengan satu kalimat tindakan yang jelas.",
			clean(item, model.FieldDescription), clean(item, model.FieldSurveyRecommendation))
	},
}

// IndicatorConfig 生成达成指标
var IndicatorConfig = FieldConfig{
	Field:                   model.FieldIndicator,
	LoadingSuffix:           "indikator",
	Precondition:            anyFilled(model.FieldDescription, model.FieldCorrectionPlan),
	PreconditionFailureText: StatusInsufficientData + " untuk indikator",
	BuildPrompt: func(item *model.Item) string {
		return fmt.Sprintf(
			"PERAN: Anda adalah perencana mutu. TUGAS: Tuliskan satu indikator pencapaian yang spesifik, terukur, dan relevan. "+
				"DATA: - Uraian Elemen Penilaian: %q - Rencana Perbaikan: %q. "+
				"ATURAN: Jawab dengan satu frasa indikator.",
			clean(item, model.FieldDescription), clean(item, model.FieldCorrectionPlan))
	},
}

// TargetConfig 生成目标（Sasaran）
var TargetConfig = FieldConfig{
	Field:                   model.FieldTarget,
	LoadingSuffix:           "sasaran",
	Precondition:            anyFilled(model.FieldDescription, model.FieldCorrectionPlan),
	PreconditionFailureText: StatusInsufficientData + " untuk sasaran",
	BuildPrompt: func(item *model.Item) string {
		return fmt.Sprintf(
			"PERAN: Anda adalah manajer strategi. TUGAS: Tuliskan satu sasaran yang jelas dan berorientasi hasil. "+
				"DATA: - Uraian Elemen Penilaian: %q - Rencana Perbaikan: %q. "+
				"ATURAN: Jawab dengan satu kalimat sasaran yang ringkas.",
			clean(item, model.FieldDescription), clean(item, model.FieldCorrectionPlan))
	},
}

var fieldConfigs = map[model.FieldName]*FieldConfig{
	model.FieldEvidenceDocumentTitle: &EvidenceTitleConfig,
	model.FieldCorrectionPlan:        &CorrectionPlanConfig,
	model.FieldIndicator:             &IndicatorConfig,
	model.FieldTarget:                &TargetConfig,
}

// LookupFieldConfig 按目标字段查找生成配置
func LookupFieldConfig(name model.FieldName) (*FieldConfig, bool) {
	cfg, ok := fieldConfigs[name]
	return cfg, ok
}

// GeneratableFields 支持 AI 生成的字段
func GeneratableFields() []model.FieldName {
	return []model.FieldName{
		model.FieldCorrectionPlan,
		model.FieldIndicator,
		model.FieldTarget,
		model.FieldEvidenceDocumentTitle,
	}
}

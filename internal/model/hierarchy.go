package model

import (
	"encoding/json"
	"sync"
)

// FieldName 条目叙述字段名（同时也是 JSON 字段名）
type FieldName string

const (
	FieldDescription           FieldName = "description"
	FieldSurveyRecommendation  FieldName = "surveyRecommendation"
	FieldCorrectionPlan        FieldName = "correctionPlan"
	FieldIndicator             FieldName = "indicator"
	FieldTarget                FieldName = "target"
	FieldDueDate               FieldName = "dueDate"
	FieldResponsibleParty      FieldName = "responsibleParty"
	FieldEvidenceDocumentTitle FieldName = "evidenceDocumentTitle"
)

// NarrativeFields 所有叙述字段，顺序即导出列顺序
var NarrativeFields = []FieldName{
	FieldDescription,
	FieldSurveyRecommendation,
	FieldCorrectionPlan,
	FieldIndicator,
	FieldTarget,
	FieldDueDate,
	FieldResponsibleParty,
	FieldEvidenceDocumentTitle,
}

// IsNarrativeField 判断字段名是否为叙述字段
func IsNarrativeField(name FieldName) bool {
	for _, f := range NarrativeFields {
		if f == name {
			return true
		}
	}
	return false
}

// Item 评估要素（叶子条目）
// 字段读写均经过条目自身的锁，批量生成时多个 goroutine 各自修改不同条目
type Item struct {
	mu sync.RWMutex

	ID   string
	Code string

	fields map[FieldName]string
}

// NewItem 创建条目，fields 中未出现的叙述字段为空字符串
func NewItem(id, code string, fields map[FieldName]string) *Item {
	it := &Item{ID: id, Code: code, fields: make(map[FieldName]string, len(NarrativeFields))}
	for _, f := range NarrativeFields {
		it.fields[f] = fields[f]
	}
	return it
}

// Field 读取字段值
func (it *Item) Field(name FieldName) string {
	it.mu.RLock()
	defer it.mu.RUnlock()
	return it.fields[name]
}

// SetField 写入字段值，非叙述字段被忽略
func (it *Item) SetField(name FieldName, value string) {
	if !IsNarrativeField(name) {
		return
	}
	it.mu.Lock()
	if it.fields == nil {
		it.fields = make(map[FieldName]string, len(NarrativeFields))
	}
	it.fields[name] = value
	it.mu.Unlock()
}

// Fields 返回叙述字段的副本
func (it *Item) Fields() map[FieldName]string {
	it.mu.RLock()
	defer it.mu.RUnlock()
	out := make(map[FieldName]string, len(it.fields))
	for k, v := range it.fields {
		out[k] = v
	}
	return out
}

// MergeFields 用 src 中的叙述字段整体覆盖当前值，ID 与 Code 不变
func (it *Item) MergeFields(src map[FieldName]string) {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.fields == nil {
		it.fields = make(map[FieldName]string, len(NarrativeFields))
	}
	for k, v := range src {
		if IsNarrativeField(k) {
			it.fields[k] = v
		}
	}
}

type itemJSON struct {
	ID                    string `json:"id"`
	Code                  string `json:"code"`
	Description           string `json:"description"`
	SurveyRecommendation  string `json:"surveyRecommendation"`
	CorrectionPlan        string `json:"correctionPlan"`
	Indicator             string `json:"indicator"`
	Target                string `json:"target"`
	DueDate               string `json:"dueDate"`
	ResponsibleParty      string `json:"responsibleParty"`
	EvidenceDocumentTitle string `json:"evidenceDocumentTitle"`
}

// MarshalJSON 在读锁下快照条目
func (it *Item) MarshalJSON() ([]byte, error) {
	it.mu.RLock()
	v := itemJSON{
		ID:                    it.ID,
		Code:                  it.Code,
		Description:           it.fields[FieldDescription],
		SurveyRecommendation:  it.fields[FieldSurveyRecommendation],
		CorrectionPlan:        it.fields[FieldCorrectionPlan],
		Indicator:             it.fields[FieldIndicator],
		Target:                it.fields[FieldTarget],
		DueDate:               it.fields[FieldDueDate],
		ResponsibleParty:      it.fields[FieldResponsibleParty],
		EvidenceDocumentTitle: it.fields[FieldEvidenceDocumentTitle],
	}
	it.mu.RUnlock()
	return json.Marshal(v)
}

func (it *Item) UnmarshalJSON(data []byte) error {
	var v itemJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	it.mu.Lock()
	defer it.mu.Unlock()
	it.ID = v.ID
	it.Code = v.Code
	it.fields = map[FieldName]string{
		FieldDescription:           v.Description,
		FieldSurveyRecommendation:  v.SurveyRecommendation,
		FieldCorrectionPlan:        v.CorrectionPlan,
		FieldIndicator:             v.Indicator,
		FieldTarget:                v.Target,
		FieldDueDate:               v.DueDate,
		FieldResponsibleParty:      v.ResponsibleParty,
		FieldEvidenceDocumentTitle: v.EvidenceDocumentTitle,
	}
	return nil
}

// Criterion 评估标准（第三层），条目按导入顺序排列
type Criterion struct {
	Title string  `json:"title"`
	Items []*Item `json:"items"`
}

// Standard 标准（第二层）
type Standard struct {
	Title    string                `json:"title"`
	Criteria map[string]*Criterion `json:"criterias"`
}

// Chapter 章节（第一层）
type Chapter struct {
	Title     string               `json:"title"`
	Standards map[string]*Standard `json:"standards"`
}

// Tree 层级树根：chapter key -> Chapter
type Tree map[string]*Chapter

package hierarchy

import (
	"errors"
	"fmt"

	"github.com/ppsgen/backend/internal/domain"
	"github.com/ppsgen/backend/internal/model"
	"k8s.io/klog/v2"
)

// ErrTreeEmpty 没有任何一行能解析出合法编码
var ErrTreeEmpty = errors.New("no rows could be processed into the hierarchy")

// fieldColumns 叙述字段对应的规范化表头，按顺序取第一个非空值
var fieldColumns = map[model.FieldName][]string{
	model.FieldDescription:          {"uraianelemenpenilaian"},
	model.FieldSurveyRecommendation: {"rekomendasihasilsurvey"},
	model.FieldCorrectionPlan:       {"rencanaperbaikan"},
	model.FieldIndicator:            {"indikatorpencapaian", "indikator"},
	model.FieldTarget:               {"sasaran"},
	model.FieldDueDate:              {"waktupenyelesaian", "waktu"},
	model.FieldResponsibleParty:     {"penanggungjawab", "pj"},
}

// Build 把扁平的导入行折叠成 BAB -> Standar -> Kriteria -> 条目 的层级树
// 编码缺失或段数不足的行直接跳过；结果可能为空树，由调用方判定为失败
func Build(records []Record) model.Tree {
	tree := model.Tree{}
	kept := 0

	for index, rec := range records {
		row := canonicalize(rec)
		code := row.codeValue()
		if code == "" {
			continue
		}
		parsed, err := ParseCode(code)
		if err != nil {
			continue
		}

		criterion := ensureCriterion(tree, parsed)
		criterion.Items = append(criterion.Items, newItem(code, index, row))
		kept++
	}

	klog.V(6).Infof("层级树构建完成: rows=%d, kept=%d, chapters=%d", len(records), kept, len(tree))
	return tree
}

// BuildChecked 与 Build 相同，但空树返回 ErrTreeEmpty
func BuildChecked(records []Record) (model.Tree, error) {
	tree := Build(records)
	if len(tree) == 0 {
		return nil, ErrTreeEmpty
	}
	return tree, nil
}

func ensureCriterion(tree model.Tree, c Code) *model.Criterion {
	chapter, ok := tree[c.Chapter]
	if !ok {
		chapter = &model.Chapter{Title: fmt.Sprintf("BAB %s", c.Chapter), Standards: map[string]*model.Standard{}}
		tree[c.Chapter] = chapter
	}
	standard, ok := chapter.Standards[c.Standard]
	if !ok {
		standard = &model.Standard{Title: fmt.Sprintf("Standar %s", c.Standard), Criteria: map[string]*model.Criterion{}}
		chapter.Standards[c.Standard] = standard
	}
	criterion, ok := standard.Criteria[c.Criterion]
	if !ok {
		criterion = &model.Criterion{Title: fmt.Sprintf("Kriteria %s", c.Criterion), Items: []*model.Item{}}
		standard.Criteria[c.Criterion] = criterion
	}
	return criterion
}

func newItem(code string, index int, row canonicalRow) *model.Item {
	fields := make(map[model.FieldName]string, len(model.NarrativeFields))
	for field, keys := range fieldColumns {
		fields[field] = row.lookup(keys...)
	}
	fields[model.FieldEvidenceDocumentTitle] = domain.PlaceholderNotGenerated
	return model.NewItem(ItemID(code, index), code, fields)
}

// ItemID 条目标识：编码 + 原始行号
func ItemID(code string, index int) string {
	return fmt.Sprintf("%s-%d", code, index)
}

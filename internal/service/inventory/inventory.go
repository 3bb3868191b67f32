package inventory

import (
	"strings"

	"github.com/ppsgen/backend/internal/domain"
	"github.com/ppsgen/backend/internal/model"
	"github.com/ppsgen/backend/internal/service/hierarchy"
)

// Separator 关联编码与描述的连接符
const Separator = "; "

// Entry 一份证据文档及引用它的条目
type Entry struct {
	Title        string   `json:"title"`
	Type         string   `json:"type"`
	Codes        []string `json:"codes"`
	Descriptions []string `json:"descriptions"`
}

// JoinedCodes 编码以分号连接
func (e Entry) JoinedCodes() string {
	return strings.Join(e.Codes, Separator)
}

// JoinedDescriptions 描述以分号连接
func (e Entry) JoinedDescriptions() string {
	return strings.Join(e.Descriptions, Separator)
}

// Group 同一文档类型下的条目
type Group struct {
	Type    string  `json:"type"`
	Entries []Entry `json:"entries"`
}

// Build 汇总所有非空（清洗后）的证据文档标题，按首次出现顺序排列
// 同一标题的编码与描述分别去重
func Build(tree model.Tree) []Entry {
	var entries []Entry
	index := map[string]int{}
	seenCode := map[string]map[string]bool{}
	seenDesc := map[string]map[string]bool{}

	hierarchy.Walk(tree, func(_, _, _ string, item *model.Item) bool {
		title := domain.CleanAIInput(item.Field(model.FieldEvidenceDocumentTitle))
		if title == "" {
			return true
		}
		i, ok := index[title]
		if !ok {
			i = len(entries)
			index[title] = i
			entries = append(entries, Entry{Title: title, Type: Classify(title)})
			seenCode[title] = map[string]bool{}
			seenDesc[title] = map[string]bool{}
		}
		if item.Code != "" && !seenCode[title][item.Code] {
			seenCode[title][item.Code] = true
			entries[i].Codes = append(entries[i].Codes, item.Code)
		}
		if desc := item.Field(model.FieldDescription); desc != "" && !seenDesc[title][desc] {
			seenDesc[title][desc] = true
			entries[i].Descriptions = append(entries[i].Descriptions, desc)
		}
		return true
	})
	return entries
}

// GroupByType 按文档类型分组；组按分类规则顺序排列，“其他”组在最后
func GroupByType(entries []Entry) []Group {
	byType := map[string][]Entry{}
	for _, e := range entries {
		byType[e.Type] = append(byType[e.Type], e)
	}
	var groups []Group
	for _, t := range TypeOrder() {
		if list, ok := byType[t]; ok {
			groups = append(groups, Group{Type: t, Entries: list})
		}
	}
	return groups
}

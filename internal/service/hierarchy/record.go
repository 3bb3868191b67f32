package hierarchy

import (
	"regexp"
	"sort"
	"strings"
)

// Column 表格中的一个单元格（表头 + 值）
type Column struct {
	Key   string
	Value string
}

// Record 一行导入数据，保留表头顺序
type Record []Column

// RecordFromMap 由无序 map 构造 Record，键按字典序排列以保证查找结果稳定
func RecordFromMap(m map[string]string) Record {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rec := make(Record, 0, len(keys))
	for _, k := range keys {
		rec = append(rec, Column{Key: k, Value: m[k]})
	}
	return rec
}

var whitespace = regexp.MustCompile(`\s+`)

// CanonicalKey 表头规范化：去首尾空白、转小写、去掉所有空白
func CanonicalKey(key string) string {
	return whitespace.ReplaceAllString(strings.ToLower(strings.TrimSpace(key)), "")
}

// canonicalRow 规范化后的行，重复键以后出现者为准
type canonicalRow struct {
	keys   []string
	values map[string]string
}

func canonicalize(rec Record) canonicalRow {
	row := canonicalRow{values: make(map[string]string, len(rec))}
	for _, col := range rec {
		key := CanonicalKey(col.Key)
		if _, seen := row.values[key]; !seen {
			row.keys = append(row.keys, key)
		}
		row.values[key] = col.Value
	}
	return row
}

// codeKeyPatterns 编码列匹配优先级
var codeKeyPatterns = []string{
	"babstandarkriteriaelemenpenilaian",
	"kodeep",
	"kode",
}

// codeValue 按优先级定位编码列
func (r canonicalRow) codeValue() string {
	for _, pattern := range codeKeyPatterns {
		for _, key := range r.keys {
			if strings.Contains(key, pattern) {
				return r.values[key]
			}
		}
	}
	return ""
}

// lookup 依次尝试候选键，返回第一个非空值
func (r canonicalRow) lookup(keys ...string) string {
	for _, k := range keys {
		if v := r.values[k]; v != "" {
			return v
		}
	}
	return ""
}

// RecordsFromRows 按表头把数据行转换为 Record；短行缺失的单元格视为空字符串
func RecordsFromRows(header []string, rows [][]string) []Record {
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec := make(Record, len(header))
		for i, key := range header {
			value := ""
			if i < len(row) {
				value = row[i]
			}
			rec[i] = Column{Key: key, Value: value}
		}
		records = append(records, rec)
	}
	return records
}

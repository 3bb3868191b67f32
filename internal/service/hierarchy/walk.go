package hierarchy

import (
	"sort"
	"strconv"
	"strings"

	"github.com/ppsgen/backend/internal/model"
)

// SortedKeys 按自然顺序排列层级键：以点分隔的各段都是整数时逐段按数值比较，否则按字符串比较
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return naturalLess(keys[i], keys[j])
	})
	return keys
}

func naturalLess(a, b string) bool {
	sa, sb := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(sa) && i < len(sb); i++ {
		if sa[i] == sb[i] {
			continue
		}
		na, errA := strconv.Atoi(sa[i])
		nb, errB := strconv.Atoi(sb[i])
		if errA == nil && errB == nil && na != nb {
			return na < nb
		}
		return sa[i] < sb[i]
	}
	if len(sa) != len(sb) {
		return len(sa) < len(sb)
	}
	return a < b
}

// Walk 按展示顺序遍历所有条目，fn 返回 false 时停止
func Walk(tree model.Tree, fn func(chapterKey, standardKey, criterionKey string, item *model.Item) bool) {
	for _, ck := range SortedKeys(tree) {
		chapter := tree[ck]
		for _, sk := range SortedKeys(chapter.Standards) {
			standard := chapter.Standards[sk]
			for _, kk := range SortedKeys(standard.Criteria) {
				for _, item := range standard.Criteria[kk].Items {
					if !fn(ck, sk, kk, item) {
						return
					}
				}
			}
		}
	}
}

// Items 按展示顺序返回全部条目
func Items(tree model.Tree) []*model.Item {
	var items []*model.Item
	Walk(tree, func(_, _, _ string, item *model.Item) bool {
		items = append(items, item)
		return true
	})
	return items
}

// FindItem 按 ID 定位条目
func FindItem(tree model.Tree, id string) (*model.Item, bool) {
	var found *model.Item
	Walk(tree, func(_, _, _ string, item *model.Item) bool {
		if item.ID == id {
			found = item
			return false
		}
		return true
	})
	return found, found != nil
}

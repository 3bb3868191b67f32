package hierarchy

import (
	"github.com/ppsgen/backend/internal/model"
	"k8s.io/klog/v2"
)

// Merge 把持久化树中的叙述字段回填到新构建的树
// 结构（标题、顺序、条目集合）始终以 fresh 为准；只有 ID 相同的条目才会带回字段值。
// 持久化树中缺失的分支保持 fresh 原样。fresh 被原地修改并返回。
func Merge(fresh, persisted model.Tree) model.Tree {
	if persisted == nil {
		return fresh
	}
	carried := 0
	for chapterKey, chapter := range fresh {
		savedChapter, ok := persisted[chapterKey]
		if !ok || savedChapter == nil {
			continue
		}
		for standardKey, standard := range chapter.Standards {
			savedStandard, ok := savedChapter.Standards[standardKey]
			if !ok || savedStandard == nil {
				continue
			}
			for criterionKey, criterion := range standard.Criteria {
				savedCriterion, ok := savedStandard.Criteria[criterionKey]
				if !ok || savedCriterion == nil {
					continue
				}
				carried += mergeItems(criterion.Items, savedCriterion.Items)
			}
		}
	}
	klog.V(6).Infof("层级树合并完成: carried=%d", carried)
	return fresh
}

func mergeItems(fresh, saved []*model.Item) int {
	if len(saved) == 0 {
		return 0
	}
	byID := make(map[string]*model.Item, len(saved))
	for _, it := range saved {
		if it == nil {
			continue
		}
		if _, dup := byID[it.ID]; !dup {
			byID[it.ID] = it
		}
	}
	n := 0
	for _, it := range fresh {
		if old, ok := byID[it.ID]; ok {
			it.MergeFields(old.Fields())
			n++
		}
	}
	return n
}

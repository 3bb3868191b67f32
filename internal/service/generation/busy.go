package generation

import (
	"sync"
)

// BusyFlags 条目级别的生成中标记，键为 <itemID>_<suffix>
type BusyFlags struct {
	m sync.Map
}

// NewBusyFlags 创建空的标记集合
func NewBusyFlags() *BusyFlags {
	return &BusyFlags{}
}

// BusyKey 组合标记键
func BusyKey(itemID, suffix string) string {
	return itemID + "_" + suffix
}

func (b *BusyFlags) Set(key string) {
	b.m.Store(key, true)
}

func (b *BusyFlags) Clear(key string) {
	b.m.Delete(key)
}

func (b *BusyFlags) IsBusy(key string) bool {
	_, ok := b.m.Load(key)
	return ok
}

// Snapshot 返回当前所有标记
func (b *BusyFlags) Snapshot() map[string]bool {
	out := map[string]bool{}
	b.m.Range(func(k, _ any) bool {
		out[k.(string)] = true
		return true
	})
	return out
}

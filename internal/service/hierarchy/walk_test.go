package hierarchy

import (
	"testing"
)

func TestSortedKeysNatural(t *testing.T) {
	got := SortedKeys(map[string]int{"10": 0, "2": 0, "1": 0, "b": 0, "a": 0})
	want := []string{"1", "2", "10", "a", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected order: %v", got)
		}
	}
}

func TestSortedKeysDottedSegments(t *testing.T) {
	got := SortedKeys(map[string]int{"1.10": 0, "1.2": 0, "1.1": 0, "2.1": 0})
	want := []string{"1.1", "1.2", "1.10", "2.1"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected order: %v", got)
		}
	}
}

func TestItemsDisplayOrder(t *testing.T) {
	tree := Build([]Record{
		rec("Kode", "10.1.1.1"),
		rec("Kode", "2.1.1.1"),
		rec("Kode", "2.1.1.2"),
	})
	items := Items(tree)
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].ID != "2.1.1.1-1" || items[1].ID != "2.1.1.2-2" || items[2].ID != "10.1.1.1-0" {
		t.Fatalf("unexpected order: %s %s %s", items[0].ID, items[1].ID, items[2].ID)
	}
	if _, ok := FindItem(tree, "nope"); ok {
		t.Fatalf("unexpected item found")
	}
}

package index

import (
	"testing"

	"go.uber.org/zap"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	return New(&Config{Logger: zap.NewNop().Sugar()})
}

func TestIndexSetGet(t *testing.T) {
	idx := newTestIndex(t)

	idx.Set("a", RecordPointer{FileID: 1, Offset: 0, Len: 10})
	ptr, ok := idx.Get("a")
	if !ok {
		t.Fatalf("expected key a to be present")
	}
	if ptr.FileID != 1 || ptr.Offset != 0 || ptr.Len != 10 {
		t.Fatalf("unexpected pointer: %+v", ptr)
	}

	if _, ok := idx.Get("missing"); ok {
		t.Fatalf("expected missing key to be absent")
	}
}

func TestIndexDelete(t *testing.T) {
	idx := newTestIndex(t)
	idx.Set("a", RecordPointer{FileID: 1})

	if !idx.Delete("a") {
		t.Fatalf("expected delete of present key to report true")
	}
	if idx.Delete("a") {
		t.Fatalf("expected delete of already-removed key to report false")
	}
	if _, ok := idx.Get("a"); ok {
		t.Fatalf("expected key a to be gone after delete")
	}
}

func TestIndexRangeOrdered(t *testing.T) {
	idx := newTestIndex(t)
	idx.Set("c", RecordPointer{FileID: 3})
	idx.Set("a", RecordPointer{FileID: 1})
	idx.Set("b", RecordPointer{FileID: 2})

	var seen []string
	idx.Range(func(key string, ptr RecordPointer) bool {
		seen = append(seen, key)
		return true
	})

	want := []string{"a", "b", "c"}
	if len(seen) != len(want) {
		t.Fatalf("got %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("got %v, want %v", seen, want)
		}
	}
}

func TestIndexLen(t *testing.T) {
	idx := newTestIndex(t)
	if idx.Len() != 0 {
		t.Fatalf("expected empty index")
	}
	idx.Set("a", RecordPointer{})
	idx.Set("b", RecordPointer{})
	if idx.Len() != 2 {
		t.Fatalf("expected len 2, got %d", idx.Len())
	}
}

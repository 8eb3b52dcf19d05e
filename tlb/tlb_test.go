package tlb

import "testing"

func TestInsertAndLookup(t *testing.T) {
	tb := New(4)
	idx := tb.Insert(Entry{VPage: 0x10, PPage: 0x20, PID: 7})
	if idx != 0 {
		t.Fatalf("Insert index = %d, want 0", idx)
	}
	e, ok := tb.Lookup(0x10)
	if !ok || e.PPage != 0x20 || e.PID != 7 {
		t.Fatalf("Lookup = %+v, %v", e, ok)
	}
	if _, ok := tb.Lookup(0x99); ok {
		t.Fatal("Lookup found entry for unmapped page")
	}
}

func TestInsertFirstFreeSlot(t *testing.T) {
	tb := New(2)
	tb.Insert(Entry{VPage: 1})
	tb.Purge(1)
	idx := tb.Insert(Entry{VPage: 2})
	if idx != 0 {
		t.Fatalf("Insert after purge = %d, want first free slot 0", idx)
	}
}

func TestInsertEvictsSlotZeroWhenFull(t *testing.T) {
	tb := New(2)
	tb.Insert(Entry{VPage: 1})
	tb.Insert(Entry{VPage: 2})
	idx := tb.Insert(Entry{VPage: 3})
	if idx != 0 {
		t.Fatalf("Insert on full TLB = %d, want eviction of slot 0", idx)
	}
	if _, ok := tb.Lookup(1); ok {
		t.Fatal("evicted entry for vpage 1 still present")
	}
	if e, ok := tb.Lookup(2); !ok || e.VPage != 2 {
		t.Fatal("surviving entry for vpage 2 lost")
	}
}

func TestPurgeExactMatch(t *testing.T) {
	tb := New(4)
	tb.Insert(Entry{VPage: 5})
	if !tb.Purge(5) {
		t.Fatal("Purge(5) = false, want true")
	}
	if tb.Purge(5) {
		t.Fatal("second Purge(5) = true, want false (already gone)")
	}
}

func TestGetSetEntry(t *testing.T) {
	tb := New(2)
	if err := tb.SetEntry(1, Entry{VPage: 42, Valid: true}); err != nil {
		t.Fatal(err)
	}
	e, err := tb.GetEntry(1)
	if err != nil || e.VPage != 42 {
		t.Fatalf("GetEntry(1) = %+v, %v", e, err)
	}
	if _, err := tb.GetEntry(5); err == nil {
		t.Fatal("expected out-of-range error")
	}
}

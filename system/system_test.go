package system

import (
	"testing"

	"github.com/twin64/t64sim/cache"
	"github.com/twin64/t64sim/tlb"
)

func newTwoProcessorSystem(t *testing.T) *System {
	t.Helper()
	sys := New()
	mem := NewMemory(0, 1<<24, 0x40, 0, 1<<16)
	if err := sys.AddMemory(mem); err != nil {
		t.Fatal(err)
	}
	typ := cache.Type{Ways: 2, Sets: 64, LineSize: 32}
	if _, err := sys.AddProcessor(8, 8, typ, typ, 0, 1<<16, 0, 0, 0x1000, 0x10); err != nil {
		t.Fatal(err)
	}
	if _, err := sys.AddProcessor(8, 8, typ, typ, 0, 1<<16, 0, 0, 0x1000, 0x10); err != nil {
		t.Fatal(err)
	}
	return sys
}

func TestTwoProcessorCoherence(t *testing.T) {
	sys := newTwoProcessorSystem(t)
	p0, p1 := sys.Processors[0], sys.Processors[1]

	if err := p0.CPU.DCache.Write(0x100, 8, 0xAAAA, true); err != nil {
		t.Fatal(err)
	}

	v, err := p1.CPU.DCache.Read(0x100, 8, true)
	if err != nil || v != 0xAAAA {
		t.Fatalf("p1 read = %#x, %v, want 0xAAAA, nil", v, err)
	}

	// P0's line must have been flushed (written back) and demoted from
	// Modified when P1's read-shared snoop reached it.
	set, way := -1, -1
	for s := 0; s < p0.CPU.DCache.Sets(); s++ {
		for w := 0; w < p0.CPU.DCache.Ways(); w++ {
			l, err := p0.CPU.DCache.GetLine(w, s)
			if err != nil {
				t.Fatal(err)
			}
			if l.Valid {
				set, way = s, w
			}
		}
	}
	if set == -1 {
		t.Fatal("expected p0 to still hold a valid line for 0x100")
	}
	l, err := p0.CPU.DCache.GetLine(way, set)
	if err != nil {
		t.Fatal(err)
	}
	if l.Modified {
		t.Fatal("p0's line should no longer be Modified after p1's shared read snoop")
	}
}

func TestTLBInsertPurgeThenMiss(t *testing.T) {
	sys := newTwoProcessorSystem(t)
	idx, err := sys.InsertTLB(0, sideData, tlb.Entry{VPage: 0x8000_0000, PPage: 0x10_0000, PID: 1})
	if err != nil {
		t.Fatal(err)
	}
	e, err := sys.GetTLBEntry(0, sideData, idx)
	if err != nil || !e.Valid || e.VPage != 0x8000_0000 {
		t.Fatalf("GetTLBEntry = %+v, %v", e, err)
	}

	ok, err := sys.PurgeTLB(0, sideData, 0x8000_0000)
	if err != nil || !ok {
		t.Fatalf("PurgeTLB = %v, %v, want true, nil", ok, err)
	}
	e, err = sys.GetTLBEntry(0, sideData, idx)
	if err != nil || e.Valid {
		t.Fatalf("entry should be invalid after purge, got %+v", e)
	}
}

func TestStepSkipsHaltedProcessors(t *testing.T) {
	sys := newTwoProcessorSystem(t)
	for _, p := range sys.Processors {
		p.CPU.Halted = true
	}
	if err := sys.Step(5); err != nil {
		t.Fatal(err)
	}
}

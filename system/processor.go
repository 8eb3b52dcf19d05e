package system

import (
	"github.com/twin64/t64sim/bus"
	"github.com/twin64/t64sim/cache"
	"github.com/twin64/t64sim/cpu"
	"github.com/twin64/t64sim/tlb"
)

// Processor wraps a cpu.CPU together with its private TLB and cache pair,
// and implements bus.Module so the bus can fan out coherence snoops to it.
// It deliberately does not implement bus.Target: a processor's own HPA
// register file is exposed through the System debugger API directly
// rather than memory-mapped, since no component in this module needs to
// address a processor over the bus.
type Processor struct {
	Num int
	CPU *cpu.CPU
}

// NewProcessor builds a processor with the given TLB sizes and cache
// shapes, wiring both caches to b as originator num. ioStart/ioLimit is
// the cache-bypassing MMIO address range.
func NewProcessor(num int, b *bus.Bus, itlbSize, dtlbSize int, icType, dcType cache.Type, physStart, physLimit, ioStart, ioLimit, trapBase, trapStride cpu.Word) (*Processor, error) {
	ic, err := cache.New(icType, b, num, ioStart, ioLimit)
	if err != nil {
		return nil, err
	}
	dc, err := cache.New(dcType, b, num, ioStart, ioLimit)
	if err != nil {
		return nil, err
	}
	c := &cpu.CPU{
		ITLB:       tlb.New(itlbSize),
		DTLB:       tlb.New(dtlbSize),
		ICache:     ic,
		DCache:     dc,
		PhysStart:  physStart,
		PhysLimit:  physLimit,
		TrapBase:   trapBase,
		TrapStride: trapStride,
	}
	c.Reset()
	return &Processor{Num: num, CPU: c}, nil
}

func (p *Processor) Number() int { return p.Num }

// Snoop reacts to another processor's bus traffic by applying the matching
// coherence transition to both of this processor's caches. Errors from a
// snoop-induced writeback are not escalated: the bus has no secondary
// error channel for a reaction triggered by someone else's operation.
func (p *Processor) Snoop(op bus.Op, originator int, pAdr bus.Word, length int) {
	switch op {
	case bus.OpReadShared, bus.OpReadUncached:
		_ = p.CPU.ICache.SnoopReadShared(pAdr)
		_ = p.CPU.DCache.SnoopReadShared(pAdr)
	case bus.OpReadPrivate:
		_ = p.CPU.ICache.SnoopReadPrivate(pAdr)
		_ = p.CPU.DCache.SnoopReadPrivate(pAdr)
	case bus.OpWriteBlock, bus.OpWriteUncached:
		_ = p.CPU.ICache.SnoopWrite(pAdr)
		_ = p.CPU.DCache.SnoopWrite(pAdr)
	}
}

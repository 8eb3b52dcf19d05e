package system

import (
	"fmt"

	"github.com/twin64/t64sim/bus"
	"github.com/twin64/t64sim/cache"
	"github.com/twin64/t64sim/cpu"
	"github.com/twin64/t64sim/tlb"
)

const debuggerOriginator = -1

// System is the top-level assembly: a shared Bus, a set of Processors, and
// the Memory/IO modules they address, plus the programmatic debugger
// surface (register, memory, TLB and cache inspection, independent of any
// interactive frontend).
type System struct {
	Bus        *bus.Bus
	Processors []*Processor
	Memories   []*Memory
	IOs        []*IOModule
}

// New constructs an empty system ready for AddProcessor/AddMemory/AddIO.
func New() *System {
	return &System{Bus: bus.New()}
}

// usedNumbers collects every module number already registered; module
// numbers must be unique system-wide so snoop-originator filtering can
// tell modules apart.
func (s *System) usedNumbers() map[int]bool {
	used := map[int]bool{}
	for _, p := range s.Processors {
		used[p.Num] = true
	}
	for _, m := range s.Memories {
		used[m.Num] = true
	}
	for _, m := range s.IOs {
		used[m.Num] = true
	}
	return used
}

// AddMemory registers a memory module, rejecting a duplicate module number.
func (s *System) AddMemory(m *Memory) error {
	if s.usedNumbers()[m.Num] {
		return fmt.Errorf("system: duplicate module number %d", m.Num)
	}
	if err := s.Bus.AddTarget(m, m.SPAStart, m.SPALen); err != nil {
		return err
	}
	if err := s.Bus.AddTarget(m, m.HPAStart, m.HPALen); err != nil {
		return err
	}
	s.Memories = append(s.Memories, m)
	return nil
}

// AddIO registers an I/O stub module, rejecting a duplicate module number.
func (s *System) AddIO(m *IOModule) error {
	if s.usedNumbers()[m.Num] {
		return fmt.Errorf("system: duplicate module number %d", m.Num)
	}
	if err := s.Bus.AddTarget(ioAdapter{m}, m.HPAStart, m.HPALen); err != nil {
		return err
	}
	s.IOs = append(s.IOs, m)
	return nil
}

// ioAdapter satisfies bus.Target for an *IOModule, whose own
// ServeBlockRead/Write already report the "not supported" error a block op
// routed to a register-only module should produce.
type ioAdapter struct{ *IOModule }

// AddProcessor builds and registers a processor with its caches wired to
// the system bus as an additional snoop-fanout recipient. ioStart/ioLimit
// is the cache-bypassing MMIO range for both of its caches; pass equal
// values to disable the bypass.
func (s *System) AddProcessor(itlbSize, dtlbSize int, icType, dcType cache.Type, physStart, physLimit, ioStart, ioLimit, trapBase, trapStride cpu.Word) (*Processor, error) {
	used := s.usedNumbers()
	num := 0
	for used[num] {
		num++
	}
	p, err := NewProcessor(num, s.Bus, itlbSize, dtlbSize, icType, dcType, physStart, physLimit, ioStart, ioLimit, trapBase, trapStride)
	if err != nil {
		return nil, err
	}
	s.Bus.AddModule(p)
	s.Processors = append(s.Processors, p)
	return p, nil
}

// Reset reinitializes every processor's architectural state, TLBs and
// caches.
func (s *System) Reset() {
	for _, p := range s.Processors {
		p.CPU.Reset()
		p.CPU.ITLB.Reset()
		p.CPU.DTLB.Reset()
		p.CPU.ICache.Reset()
		p.CPU.DCache.Reset()
	}
}

// Step advances every processor by one instruction, round-robin, repeated
// n times. Scheduling is cooperative and single-threaded; all bus ops of
// processor i's step precede those of processor j>i within one round. A
// halted processor is skipped.
func (s *System) Step(n int) error {
	for i := 0; i < n; i++ {
		for _, p := range s.Processors {
			if p.CPU.Halted {
				continue
			}
			if err := p.CPU.Step(); err != nil {
				return fmt.Errorf("system: processor %d: %w", p.Num, err)
			}
		}
	}
	return nil
}

func (s *System) processor(idx int) (*Processor, error) {
	if idx < 0 || idx >= len(s.Processors) {
		return nil, fmt.Errorf("system: processor index %d out of range", idx)
	}
	return s.Processors[idx], nil
}

// ReadGeneral returns general register r of processor procIdx.
func (s *System) ReadGeneral(procIdx, r int) (cpu.Word, error) {
	p, err := s.processor(procIdx)
	if err != nil {
		return 0, err
	}
	return p.CPU.Regs.GetGeneral(r), nil
}

// WriteGeneral sets general register r of processor procIdx.
func (s *System) WriteGeneral(procIdx, r int, val cpu.Word) error {
	p, err := s.processor(procIdx)
	if err != nil {
		return err
	}
	p.CPU.Regs.SetGeneral(r, val)
	return nil
}

// ReadControl returns control register r of processor procIdx.
func (s *System) ReadControl(procIdx, r int) (cpu.Word, error) {
	p, err := s.processor(procIdx)
	if err != nil {
		return 0, err
	}
	return p.CPU.Regs.GetControl(r), nil
}

// WriteControl sets control register r of processor procIdx.
func (s *System) WriteControl(procIdx, r int, val cpu.Word) error {
	p, err := s.processor(procIdx)
	if err != nil {
		return err
	}
	p.CPU.Regs.SetControl(r, val)
	return nil
}

// ReadPSW returns the full PSW word of processor procIdx.
func (s *System) ReadPSW(procIdx int) (cpu.Word, error) {
	p, err := s.processor(procIdx)
	if err != nil {
		return 0, err
	}
	return p.CPU.Regs.PSW, nil
}

// WritePSW sets the full PSW word of processor procIdx.
func (s *System) WritePSW(procIdx int, val cpu.Word) error {
	p, err := s.processor(procIdx)
	if err != nil {
		return err
	}
	p.CPU.Regs.PSW = val
	return nil
}

// ReadMemory performs an uncached physical read through the bus, bypassing
// every processor's cache; a debugger's view of memory is always
// architecturally current.
func (s *System) ReadMemory(pAdr cpu.Word, length int) (cpu.Word, error) {
	return s.Bus.ReadUncached(debuggerOriginator, pAdr, length)
}

// WriteMemory performs an uncached physical write through the bus. Any
// processor caching the written line is invalidated by the resulting
// snoop, so subsequent cached reads see the update.
func (s *System) WriteMemory(pAdr cpu.Word, length int, val cpu.Word) error {
	return s.Bus.WriteUncached(debuggerOriginator, pAdr, length, val)
}

const (
	sideInstr = false
	sideData  = true
)

func (p *Processor) tlbFor(side bool) *tlb.TLB {
	if side == sideData {
		return p.CPU.DTLB
	}
	return p.CPU.ITLB
}

func (p *Processor) cacheFor(side bool) *cache.Cache {
	if side == sideData {
		return p.CPU.DCache
	}
	return p.CPU.ICache
}

// InsertTLB inserts entry e into processor procIdx's instruction (side=
// false) or data (side=true) TLB, returning the slot used.
func (s *System) InsertTLB(procIdx int, side bool, e tlb.Entry) (int, error) {
	p, err := s.processor(procIdx)
	if err != nil {
		return 0, err
	}
	return p.tlbFor(side).Insert(e), nil
}

// PurgeTLB removes the entry mapping vPage from processor procIdx's
// instruction or data TLB.
func (s *System) PurgeTLB(procIdx int, side bool, vPage cpu.Word) (bool, error) {
	p, err := s.processor(procIdx)
	if err != nil {
		return false, err
	}
	return p.tlbFor(side).Purge(vPage), nil
}

// GetTLBEntry returns TLB entry idx from processor procIdx's instruction or
// data TLB, for debugger inspection.
func (s *System) GetTLBEntry(procIdx int, side bool, idx int) (tlb.Entry, error) {
	p, err := s.processor(procIdx)
	if err != nil {
		return tlb.Entry{}, err
	}
	return p.tlbFor(side).GetEntry(idx)
}

// FlushCacheLine writes back (if modified) the line containing pAdr in
// processor procIdx's instruction or data cache, without invalidating it.
func (s *System) FlushCacheLine(procIdx int, side bool, pAdr cpu.Word) error {
	p, err := s.processor(procIdx)
	if err != nil {
		return err
	}
	return p.cacheFor(side).Flush(pAdr)
}

// PurgeCacheLine invalidates the line containing pAdr in processor
// procIdx's instruction or data cache, writing it back first if modified.
func (s *System) PurgeCacheLine(procIdx int, side bool, pAdr cpu.Word) error {
	p, err := s.processor(procIdx)
	if err != nil {
		return err
	}
	return p.cacheFor(side).Purge(pAdr)
}

// GetCacheLine returns the raw line at (way, set) of processor procIdx's
// instruction or data cache, for debugger inspection.
func (s *System) GetCacheLine(procIdx int, side bool, way, set int) (*cache.Line, error) {
	p, err := s.processor(procIdx)
	if err != nil {
		return nil, err
	}
	return p.cacheFor(side).GetLine(way, set)
}

// Package cpu implements the Twin-64 CPU core: register files, PSW,
// fetch/decode/execute, and the trap mechanism.
package cpu

import (
	"github.com/twin64/t64sim/bitfield"
	"github.com/twin64/t64sim/cache"
	"github.com/twin64/t64sim/tlb"
)

const PageSize = 1 << 12

// CPU is one processor's architectural state and instruction interpreter.
// It owns its TLBs and caches directly.
type CPU struct {
	Regs Registers

	ITLB, DTLB     *tlb.TLB
	ICache, DCache *cache.Cache

	// PhysStart/PhysLimit is the direct-physical-addressing window used
	// before paging is enabled; privileged mode only.
	PhysStart, PhysLimit Word

	// TrapBase is the address of trap handler 0; handler k lives at
	// TrapBase + k*TrapStride.
	TrapBase   Word
	TrapStride Word

	Halted bool
}

// Reset clears architectural state but not TLB/cache contents (those are
// owned and reset independently by their modules).
func (c *CPU) Reset() {
	c.Regs.Reset()
	c.Halted = false
}

// Step executes exactly one instruction: fetch, decode, execute, and
// (unless a branch or trap already redirected it) PSW advance.
func (c *CPU) Step() error {
	if c.Halted {
		return nil
	}

	ia := c.Regs.IA()
	instr, err := c.fetch(ia)
	if err != nil {
		c.takeTrap(err)
		return nil
	}
	c.Regs.IR = instr

	branched, err := c.execute(instr)
	if err != nil {
		c.takeTrap(err)
		return nil
	}
	if !branched {
		c.Regs.SetIA(bitfield.AddrOffset(ia, 4))
	}
	return nil
}

// takeTrap records the trap's info words into CR8-CR10 and the trap kind
// ordinal into CR11, then redirects IA to the trap handler.
func (c *CPU) takeTrap(err error) {
	t, ok := err.(*Trap)
	if !ok {
		t = NewTrap(MachineCheckTrap)
	}
	c.Regs.SetControl(8, t.Info1)
	c.Regs.SetControl(9, t.Info2)
	c.Regs.SetControl(10, t.Info3)
	c.Regs.SetControl(11, Word(t.Kind))
	c.Regs.SetIA(c.TrapBase + Word(t.Kind)*c.TrapStride)
}

// execute dispatches on opcode group/family/opt1 and runs the instruction.
// It returns branched=true when the instruction itself set IA (a branch,
// taken or not, or RFI), so Step must not also advance by 4. A trap is
// reported through err, and Step then redirects IA to the handler.
func (c *CPU) execute(instr bitfield.Instr) (branched bool, err error) {
	group := bitfield.OpGroup(instr)
	family := bitfield.OpFamily(instr)

	switch group {
	case bitfield.OpGroupALU:
		return c.execALU(family, instr)
	case bitfield.OpGroupMEM:
		return c.execMEM(family, instr)
	case bitfield.OpGroupBR:
		return c.execBR(family, instr)
	case bitfield.OpGroupSYS:
		return c.execSYS(family, instr)
	default:
		return false, NewTrap(IllegalInstrTrap, Word(instr))
	}
}

// pageBase and pageOffset split a virtual or physical address into its
// page-aligned base and in-page offset (4KiB pages).
func pageBase(adr Word) Word   { return adr &^ Word(PageSize-1) }
func pageOffset(adr Word) Word { return adr & Word(PageSize-1) }

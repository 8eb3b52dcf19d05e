package cpu

import (
	"github.com/twin64/t64sim/bitfield"
	"github.com/twin64/t64sim/isa"
	"github.com/twin64/t64sim/tlb"
)

// execSYS dispatches the SYS opcode group: register/control transfers,
// TLB and cache maintenance, mode control, and the trap/diagnostic hooks.
func (c *CPU) execSYS(family int, instr bitfield.Instr) (bool, error) {
	switch family {
	case isa.FamMFCR:
		c.Regs.SetGeneral(bitfield.RegR(instr), c.Regs.GetControl(bitfield.RegA(instr)))
		return false, nil
	case isa.FamMTCR:
		if err := c.privModeCheck(); err != nil {
			return false, err
		}
		c.Regs.SetControl(bitfield.RegA(instr), c.Regs.GetGeneral(bitfield.RegB(instr)))
		return false, nil
	case isa.FamMFIA:
		c.Regs.SetGeneral(bitfield.RegR(instr), c.Regs.IA())
		return false, nil
	case isa.FamRSM:
		if err := c.privModeCheck(); err != nil {
			return false, err
		}
		mask := Word(bitfield.Field(instr, 0, 12)) << 52
		c.Regs.PSW &^= mask
		return false, nil
	case isa.FamSSM:
		if err := c.privModeCheck(); err != nil {
			return false, err
		}
		mask := Word(bitfield.Field(instr, 0, 12)) << 52
		c.Regs.PSW |= mask
		return false, nil
	case isa.FamLPA:
		return false, c.execLPA(instr)
	case isa.FamPRB:
		return false, c.execPRB(instr)
	case isa.FamITLB:
		if err := c.privModeCheck(); err != nil {
			return false, err
		}
		return false, c.execITLB(instr)
	case isa.FamPTLB:
		if err := c.privModeCheck(); err != nil {
			return false, err
		}
		return false, c.execPTLB(instr)
	case isa.FamPCA:
		if err := c.privModeCheck(); err != nil {
			return false, err
		}
		return false, c.execCacheMaint(instr, false)
	case isa.FamFCA:
		if err := c.privModeCheck(); err != nil {
			return false, err
		}
		return false, c.execCacheMaint(instr, true)
	case isa.FamRFI:
		if err := c.privModeCheck(); err != nil {
			return false, err
		}
		c.Regs.PSW = c.Regs.GetControl(12)
		return true, nil
	case isa.FamDIAG:
		if err := c.privModeCheck(); err != nil {
			return false, err
		}
		return false, c.execDIAG(instr)
	case isa.FamTRAP:
		return false, c.execTRAP(instr)
	default:
		return false, NewTrap(IllegalInstrTrap, Word(instr))
	}
}

func (c *CPU) execLPA(instr bitfield.Instr) error {
	vAdr := c.Regs.GetGeneral(bitfield.RegB(instr))
	entry, ok := c.DTLB.Lookup(pageBase(vAdr))
	if !ok {
		return NewTrap(TLBAccessTrap, vAdr)
	}
	c.Regs.SetGeneral(bitfield.RegR(instr), entry.PPage|pageOffset(vAdr))
	return nil
}

func (c *CPU) execPRB(instr bitfield.Instr) error {
	vAdr := c.Regs.GetGeneral(bitfield.RegB(instr))
	write := bitfield.Bit(instr, 19) != 0
	entry, ok := c.DTLB.Lookup(pageBase(vAdr))
	if !ok {
		c.Regs.SetGeneral(bitfield.RegR(instr), 0)
		return nil
	}
	allowed := c.protectionCheck(entry.PID, write) == nil && accessPermits(entry.Access, write)
	c.Regs.SetGeneral(bitfield.RegR(instr), bitfield.Word(boolToInt(allowed)))
	return nil
}

// accessPermits reports whether the requested operation (write if true,
// else read) is permitted by a TLB entry's access-rights code: read-only
// pages reject writes, gateway pages (call-only) reject ordinary data
// access outright. Read-write and execute pages permit either direction
// of probe.
func accessPermits(a tlb.AccessRights, write bool) bool {
	switch a {
	case tlb.AccessReadOnly:
		return !write
	case tlb.AccessGateway:
		return false
	default:
		return true
	}
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// tlbSide selects I-TLB or D-TLB by bit 19, the same reg/alt-form bit used
// elsewhere for a two-way instruction selector.
func (c *CPU) tlbSide(instr bitfield.Instr) *tlb.TLB {
	if bitfield.Bit(instr, 19) != 0 {
		return c.DTLB
	}
	return c.ITLB
}

func (c *CPU) execITLB(instr bitfield.Instr) error {
	vAdr := c.Regs.GetGeneral(bitfield.RegB(instr))
	pAdr := c.Regs.GetGeneral(bitfield.RegA(instr))
	pid := uint32(bitfield.Field(instr, 0, 8))
	uncached := bitfield.Bit(instr, 8) != 0
	access := tlb.AccessReadOnly
	if bitfield.Bit(instr, 20) != 0 {
		access = tlb.AccessReadWrite
	}
	idx := c.tlbSide(instr).Insert(tlb.Entry{
		VPage:    pageBase(vAdr),
		PPage:    pageBase(pAdr),
		PID:      pid,
		Uncached: uncached,
		Access:   access,
	})
	c.Regs.SetGeneral(bitfield.RegR(instr), Word(idx))
	return nil
}

func (c *CPU) execPTLB(instr bitfield.Instr) error {
	vAdr := c.Regs.GetGeneral(bitfield.RegB(instr))
	ok := c.tlbSide(instr).Purge(pageBase(vAdr))
	c.Regs.SetGeneral(bitfield.RegR(instr), Word(boolToInt(ok)))
	return nil
}

// cacheSideCache selects the I-cache or D-cache by bit 19.
func (c *CPU) cacheSideCache(instr bitfield.Instr) interface {
	Flush(Word) error
	Purge(Word) error
} {
	if bitfield.Bit(instr, 19) != 0 {
		return c.DCache
	}
	return c.ICache
}

func (c *CPU) execCacheMaint(instr bitfield.Instr, flush bool) error {
	pAdr := c.Regs.GetGeneral(bitfield.RegB(instr))
	side := c.cacheSideCache(instr)
	var err error
	if flush {
		err = side.Flush(pAdr)
	} else {
		err = side.Purge(pAdr)
	}
	if err != nil {
		return NewTrap(PhysMemAdrTrap, pAdr)
	}
	return nil
}

// execDIAG is the diagnostic hook: code 0 is a no-op probe; code 1
// injects a machine-check trap, the only path by which that trap kind is
// ever raised; code 2 halts the processor.
func (c *CPU) execDIAG(instr bitfield.Instr) error {
	switch bitfield.Field(instr, 0, 8) {
	case 1:
		return NewTrap(MachineCheckTrap, 1)
	case 2:
		c.Halted = true
	}
	return nil
}

// execTRAP raises the architectural trap kind named by the low 4 bits of
// the instruction, letting software invoke the trap vector directly (a
// syscall-style software trap). The machine-check code, like any code past
// the last trap kind, raises an illegal-instruction trap instead.
func (c *CPU) execTRAP(instr bitfield.Instr) error {
	kind := Kind(bitfield.Field(instr, 0, 4))
	if int(kind) >= NumKinds || kind == MachineCheckTrap {
		kind = IllegalInstrTrap
	}
	return NewTrap(kind, Word(bitfield.Field(instr, 4, 9)))
}

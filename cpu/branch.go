package cpu

import (
	"github.com/twin64/t64sim/bitfield"
	"github.com/twin64/t64sim/isa"
)

// execBR dispatches the BR opcode group: unconditional branches (B, BR,
// BV, BE) and conditional branches (BB, CBR, MBR, ABR).
func (c *CPU) execBR(family int, instr bitfield.Instr) (bool, error) {
	switch family {
	case isa.FamB:
		return true, c.execB(instr)
	case isa.FamBR:
		return true, c.execBRreg(instr)
	case isa.FamBV:
		return true, c.execBV(instr)
	case isa.FamBE:
		return true, c.execBE(instr)
	case isa.FamBB:
		return true, c.execBB(instr)
	case isa.FamCBR:
		return true, c.execCBR(instr)
	case isa.FamMBR:
		return true, c.execMBR(instr)
	case isa.FamABR:
		return true, c.execABR(instr)
	default:
		return false, NewTrap(IllegalInstrTrap, Word(instr))
	}
}

func (c *CPU) branchTo(target Word) error {
	if err := alignmentCheck(target, 4, InstrAlignmentTrap); err != nil {
		return err
	}
	c.Regs.SetIA(target)
	return nil
}

func (c *CPU) execB(instr bitfield.Instr) error {
	ia := c.Regs.IA()
	offset := Word(bitfield.Imm19(instr)) << 2
	target := bitfield.AddrOffset(ia, offset)

	link := bitfield.Bit(instr, 20) != 0
	gateway := bitfield.Bit(instr, 19) != 0

	if err := c.branchTo(target); err != nil {
		return err
	}
	if link {
		c.Regs.SetGeneral(bitfield.RegR(instr), bitfield.AddrOffset(ia, 4))
	}
	if gateway {
		c.Regs.SetUserMode(false)
	}
	return nil
}

func (c *CPU) execBRreg(instr bitfield.Instr) error {
	ia := c.Regs.IA()
	delta := c.Regs.GetGeneral(bitfield.RegB(instr))
	if bitfield.Bit(instr, 19) != 0 {
		delta += c.Regs.GetGeneral(bitfield.RegA(instr))
	}
	return c.branchTo(bitfield.AddrOffset(ia, delta))
}

func (c *CPU) execBV(instr bitfield.Instr) error {
	target := c.Regs.GetGeneral(bitfield.RegB(instr)) + c.Regs.GetGeneral(bitfield.RegA(instr))
	return c.branchTo(target)
}

func (c *CPU) execBE(instr bitfield.Instr) error {
	target := c.Regs.GetGeneral(bitfield.RegB(instr)) + Word(bitfield.Imm15(instr))
	return c.branchTo(target)
}

// evalCond tests v against the 3-bit condition code {EQ,LT,GT,EV,NE,GE,LE,OD}.
func evalCond(cond int, v Word) bool {
	switch cond {
	case isa.CondEQ:
		return v == 0
	case isa.CondLT:
		return v < 0
	case isa.CondGT:
		return v > 0
	case isa.CondEV:
		return v%2 == 0
	case isa.CondNE:
		return v != 0
	case isa.CondGE:
		return v >= 0
	case isa.CondLE:
		return v <= 0
	case isa.CondOD:
		return v%2 != 0
	default:
		return false
	}
}

// takeCondBranch advances IA by offset on a true test, or by 4 otherwise.
func (c *CPU) takeCondBranch(taken bool, offset Word) error {
	ia := c.Regs.IA()
	if taken {
		return c.branchTo(bitfield.AddrOffset(ia, offset))
	}
	c.Regs.SetIA(bitfield.AddrOffset(ia, 4))
	return nil
}

// execBB's bit-test position would overlap the imm13 offset (bits 0-12)
// if read from bits 6-11 like EXTR/DEP's position field; it is instead
// packed across the otherwise-unused RegR field (bits 22-25) and the DW
// field (bits 13-14), leaving bits 0-12 entirely to the offset.
func (c *CPU) execBB(instr bitfield.Instr) error {
	bitPos := bbBitPos(instr)
	v := Word(bitfield.Bit64(c.Regs.GetGeneral(bitfield.RegB(instr)), bitPos))
	cond := bitfield.Opt1(instr)
	offset := Word(bitfield.Imm13(instr)) << 2
	return c.takeCondBranch(evalCond(cond, v), offset)
}

func bbBitPos(instr bitfield.Instr) int {
	return bitfield.Field(instr, 22, 4) | bitfield.Field(instr, 13, 2)<<4
}

// execCBR compares Rr to Rb directly rather than testing the sign of
// their difference, which would misorder operands far enough apart for
// the subtraction to wrap.
func (c *CPU) execCBR(instr bitfield.Instr) error {
	r := c.Regs.GetGeneral(bitfield.RegR(instr))
	b := c.Regs.GetGeneral(bitfield.RegB(instr))
	cond := bitfield.Opt1(instr)
	offset := Word(bitfield.Imm15(instr))
	var taken bool
	switch cond {
	case isa.CondEQ:
		taken = r == b
	case isa.CondLT:
		taken = r < b
	case isa.CondGT:
		taken = r > b
	case isa.CondNE:
		taken = r != b
	case isa.CondGE:
		taken = r >= b
	case isa.CondLE:
		taken = r <= b
	default:
		taken = evalCond(cond, r-b) // EV/OD: parity survives wraparound
	}
	return c.takeCondBranch(taken, offset)
}

func (c *CPU) execMBR(instr bitfield.Instr) error {
	b := c.Regs.GetGeneral(bitfield.RegB(instr))
	c.Regs.SetGeneral(bitfield.RegR(instr), b)
	cond := bitfield.Opt1(instr)
	offset := Word(bitfield.Imm15(instr))
	return c.takeCondBranch(evalCond(cond, b), offset)
}

func (c *CPU) execABR(instr bitfield.Instr) error {
	r := c.Regs.GetGeneral(bitfield.RegR(instr))
	b := c.Regs.GetGeneral(bitfield.RegB(instr))
	if bitfield.AddOverflows(r, b) {
		return NewTrap(OverflowTrap, r, b)
	}
	sum := r + b
	c.Regs.SetGeneral(bitfield.RegR(instr), sum)
	cond := bitfield.Opt1(instr)
	offset := Word(bitfield.Imm15(instr))
	return c.takeCondBranch(evalCond(cond, sum), offset)
}

package cpu

import (
	"github.com/twin64/t64sim/bitfield"
	"github.com/twin64/t64sim/isa"
)

// execMEM dispatches the MEM opcode group: LD, ST, LDR, STC, and the
// mem-form AND/OR/XOR variants.
func (c *CPU) execMEM(family int, instr bitfield.Instr) (bool, error) {
	switch family {
	case isa.FamLD:
		return false, c.execLD(instr)
	case isa.FamST:
		return false, c.execST(instr)
	case isa.FamLDR:
		return false, c.execLDR(instr)
	case isa.FamSTC:
		return false, c.execSTC(instr)
	case isa.FamANDM:
		return false, c.execLogicalMem(instr, func(a, b Word) Word { return a & b })
	case isa.FamORM:
		return false, c.execLogicalMem(instr, func(a, b Word) Word { return a | b })
	case isa.FamXORM:
		return false, c.execLogicalMem(instr, func(a, b Word) Word { return a ^ b })
	default:
		return false, NewTrap(IllegalInstrTrap, Word(instr))
	}
}

// memAddr computes the effective address: imm-form (bit 19 clear) adds a
// DW-scaled sign-extended imm13; index-form (bit 19 set) adds Ra<<DW.
func memAddr(instr bitfield.Instr, regs *Registers) Word {
	base := regs.GetGeneral(bitfield.RegB(instr))
	if bitfield.Bit(instr, 19) == 0 {
		return base + Word(bitfield.ScaledImm13(instr))
	}
	dw := bitfield.DW(instr)
	return base + regs.GetGeneral(bitfield.RegA(instr))<<uint(dw)
}

func (c *CPU) execLD(instr bitfield.Instr) error {
	addr := memAddr(instr, &c.Regs)
	val, err := c.dataRead(addr, bitfield.DWSize(bitfield.DW(instr)))
	if err != nil {
		return err
	}
	c.Regs.SetGeneral(bitfield.RegR(instr), val)
	return nil
}

func (c *CPU) execST(instr bitfield.Instr) error {
	addr := memAddr(instr, &c.Regs)
	val := c.Regs.GetGeneral(bitfield.RegR(instr))
	return c.dataWrite(addr, bitfield.DWSize(bitfield.DW(instr)), val)
}

func (c *CPU) execLDR(instr bitfield.Instr) error {
	addr := memAddr(instr, &c.Regs)
	val, err := c.dataRead(addr, bitfield.DWSize(bitfield.DW(instr)))
	if err != nil {
		return err
	}
	c.Regs.SetReservation(addr)
	c.Regs.SetGeneral(bitfield.RegR(instr), val)
	return nil
}

// execLogicalMem implements the mem-form AND/OR/XOR: the first operand is
// R's current value (not B, as in the ALU-group register form), the
// second operand is read from memory at the same imm13/indexed address LD
// uses. The .C/.N complement flags apply the same as the register form.
func (c *CPU) execLogicalMem(instr bitfield.Instr, op func(a, b Word) Word) error {
	addr := memAddr(instr, &c.Regs)
	val2, err := c.dataRead(addr, bitfield.DWSize(bitfield.DW(instr)))
	if err != nil {
		return err
	}
	val1 := c.Regs.GetGeneral(bitfield.RegR(instr))
	if bitfield.Bit(instr, 20) != 0 { // .C: complement val1
		val1 = ^val1
	}
	result := op(val1, val2)
	if bitfield.Bit(instr, 21) != 0 { // .N: complement result
		result = ^result
	}
	c.Regs.SetGeneral(bitfield.RegR(instr), result)
	return nil
}

func (c *CPU) execSTC(instr bitfield.Instr) error {
	addr := memAddr(instr, &c.Regs)
	if !c.Regs.CheckReservation(addr) {
		c.Regs.SetGeneral(bitfield.RegR(instr), 0)
		return nil
	}
	val := c.Regs.GetGeneral(bitfield.RegR(instr))
	if err := c.dataWrite(addr, bitfield.DWSize(bitfield.DW(instr)), val); err != nil {
		return err
	}
	c.Regs.SetGeneral(bitfield.RegR(instr), 1)
	return nil
}

package cpu

import (
	"github.com/twin64/t64sim/bitfield"
	"github.com/twin64/t64sim/isa"
)

// execALU dispatches the ALU opcode group.
func (c *CPU) execALU(family int, instr bitfield.Instr) (bool, error) {
	switch family {
	case isa.FamADD:
		return false, c.execAddSub(instr, false)
	case isa.FamSUB:
		return false, c.execAddSub(instr, true)
	case isa.FamAND:
		return false, c.execLogical(instr, func(a, b Word) Word { return a & b })
	case isa.FamOR:
		return false, c.execLogical(instr, func(a, b Word) Word { return a | b })
	case isa.FamXOR:
		return false, c.execLogical(instr, func(a, b Word) Word { return a ^ b })
	case isa.FamCMP:
		return false, c.execCmp(instr)
	case isa.FamBitfield:
		return false, c.execBitfield(instr)
	case isa.FamShAdd:
		return false, c.execShAdd(instr)
	case isa.FamLDI:
		return false, c.execLDI(instr)
	case isa.FamADDIL:
		return false, c.execADDIL(instr)
	case isa.FamLDO:
		return false, c.execLDO(instr)
	case isa.FamNOP:
		return false, nil
	default:
		return false, NewTrap(IllegalInstrTrap, Word(instr))
	}
}

// operand2 resolves the second ALU operand: register A if bit 19 is set,
// otherwise a DW-scaled sign-extended imm13.
func operand2(instr bitfield.Instr, regs *Registers) Word {
	if bitfield.Bit(instr, 19) != 0 {
		return regs.GetGeneral(bitfield.RegA(instr))
	}
	return Word(bitfield.ScaledImm13(instr))
}

func (c *CPU) execAddSub(instr bitfield.Instr, sub bool) error {
	a := c.Regs.GetGeneral(bitfield.RegB(instr))
	b := operand2(instr, &c.Regs)
	var result Word
	if sub {
		if bitfield.SubOverflows(a, b) {
			return NewTrap(OverflowTrap, a, b)
		}
		result = a - b
	} else {
		if bitfield.AddOverflows(a, b) {
			return NewTrap(OverflowTrap, a, b)
		}
		result = a + b
	}
	c.Regs.SetGeneral(bitfield.RegR(instr), result)
	return nil
}

func (c *CPU) execLogical(instr bitfield.Instr, op func(a, b Word) Word) error {
	a := c.Regs.GetGeneral(bitfield.RegB(instr))
	if bitfield.Bit(instr, 20) != 0 { // .C: complement B
		a = ^a
	}
	b := operand2(instr, &c.Regs)
	result := op(a, b)
	if bitfield.Bit(instr, 21) != 0 { // .N: complement result
		result = ^result
	}
	c.Regs.SetGeneral(bitfield.RegR(instr), result)
	return nil
}

func (c *CPU) execCmp(instr bitfield.Instr) error {
	a := c.Regs.GetGeneral(bitfield.RegB(instr))
	b := operand2(instr, &c.Regs)
	var ok bool
	switch bitfield.Field(instr, 20, 2) {
	case isa.CmpEQ:
		ok = a == b
	case isa.CmpLT:
		ok = a < b
	case isa.CmpGT:
		ok = a > b
	case isa.CmpNE:
		ok = a != b
	}
	var v Word
	if ok {
		v = 1
	}
	c.Regs.SetGeneral(bitfield.RegR(instr), v)
	return nil
}

func (c *CPU) execBitfield(instr bitfield.Instr) error {
	posFromSAR := bitfield.Bit(instr, 13) != 0
	flag := bitfield.Bit(instr, 14) != 0

	pos := bitfield.Field(instr, 6, 6)
	if posFromSAR {
		pos = c.Regs.SAR()
	}

	switch bitfield.Opt1(instr) {
	case isa.SubEXTR:
		length := bitfield.Field(instr, 0, 6)
		src := c.Regs.GetGeneral(bitfield.RegB(instr))
		var val Word
		if flag {
			val = bitfield.SignedField64(src, pos, length)
		} else {
			val = bitfield.Field64(src, pos, length)
		}
		c.Regs.SetGeneral(bitfield.RegR(instr), val)
	case isa.SubDEP:
		immForm := bitfield.Bit(instr, 12) != 0
		var value Word
		var length int
		if immForm {
			length = 4
			value = Word(bitfield.Field(instr, 0, 4))
		} else {
			length = bitfield.Field(instr, 0, 6)
			value = c.Regs.GetGeneral(bitfield.RegB(instr))
		}
		base := c.Regs.GetGeneral(bitfield.RegR(instr))
		if flag { // .Z: zero target first
			base = 0
		}
		result := bitfield.DepositField64(base, pos, length, value)
		c.Regs.SetGeneral(bitfield.RegR(instr), result)
	case isa.SubDSR:
		hi := c.Regs.GetGeneral(bitfield.RegB(instr))
		lo := c.Regs.GetGeneral(bitfield.RegA(instr))
		// DSR's shift amount lives in bits 0-5, clear of the RegA field.
		shift := bitfield.Field(instr, 0, 6)
		if posFromSAR {
			shift = c.Regs.SAR()
		}
		val := bitfield.ShiftRight128(hi, lo, shift)
		c.Regs.SetGeneral(bitfield.RegR(instr), val)
	default:
		return NewTrap(IllegalInstrTrap, Word(instr))
	}
	return nil
}

func (c *CPU) execShAdd(instr bitfield.Instr) error {
	sub := bitfield.Opt1(instr)
	var left bool
	var amount uint
	switch sub {
	case isa.SubSHL1A:
		left, amount = true, 1
	case isa.SubSHL2A:
		left, amount = true, 2
	case isa.SubSHL3A:
		left, amount = true, 3
	case isa.SubSHR1A:
		left, amount = false, 1
	case isa.SubSHR2A:
		left, amount = false, 2
	case isa.SubSHR3A:
		left, amount = false, 3
	default:
		return NewTrap(IllegalInstrTrap, Word(instr))
	}

	b := c.Regs.GetGeneral(bitfield.RegB(instr))
	var shifted Word
	if left {
		if bitfield.ShiftLeftOverflows(b, int(amount)) {
			return NewTrap(OverflowTrap, b, Word(amount))
		}
		shifted = b << amount
	} else {
		shifted = b >> amount
	}

	var a Word
	if bitfield.Bit(instr, 14) != 0 { // .I: immediate addend
		a = Word(bitfield.Imm13(instr))
	} else {
		a = c.Regs.GetGeneral(bitfield.RegA(instr))
	}

	if bitfield.AddOverflows(shifted, a) {
		return NewTrap(OverflowTrap, shifted, a)
	}
	c.Regs.SetGeneral(bitfield.RegR(instr), shifted+a)
	return nil
}

func (c *CPU) execLDI(instr bitfield.Instr) error {
	shifts := [4]uint{0, 12, 32, 52}
	sel := bitfield.Field(instr, 20, 2)
	val := Word(bitfield.Imm20U(instr)) << shifts[sel]
	c.Regs.SetGeneral(bitfield.RegR(instr), val)
	return nil
}

func (c *CPU) execADDIL(instr bitfield.Instr) error {
	base := c.Regs.GetGeneral(bitfield.RegR(instr))
	addend := Word(bitfield.Imm20U(instr)) << 10
	if bitfield.AddOverflows(base, addend) {
		return NewTrap(OverflowTrap, base, addend)
	}
	c.Regs.SetGeneral(bitfield.RegR(instr), base+addend)
	return nil
}

func (c *CPU) execLDO(instr bitfield.Instr) error {
	base := c.Regs.GetGeneral(bitfield.RegB(instr))
	val := base + Word(bitfield.ScaledImm13(instr))
	c.Regs.SetGeneral(bitfield.RegR(instr), val)
	return nil
}

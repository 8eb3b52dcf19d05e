package asm

import (
	"github.com/twin64/t64sim/bitfield"
	"github.com/twin64/t64sim/isa"
)

func init() {
	register("NOP", encNOP)
	register("ADD", encAddSub(isa.FamADD))
	register("SUB", encAddSub(isa.FamSUB))
	register("AND", encLogical(isa.FamAND, isa.FamANDM))
	register("OR", encLogical(isa.FamOR, isa.FamORM))
	register("XOR", encLogical(isa.FamXOR, isa.FamXORM))
	register("CMP", encCMP)
	register("EXTR", encEXTR)
	register("DEP", encDEP)
	register("DSR", encDSR)
	register("SHL1A", encShAdd(isa.SubSHL1A))
	register("SHL2A", encShAdd(isa.SubSHL2A))
	register("SHL3A", encShAdd(isa.SubSHL3A))
	register("SHR1A", encShAdd(isa.SubSHR1A))
	register("SHR2A", encShAdd(isa.SubSHR2A))
	register("SHR3A", encShAdd(isa.SubSHR3A))
	register("LDI", encLDI)
	register("ADDIL", encADDIL)
	register("LDO", encLDO)
}

func encNOP(p *Parser) (bitfield.Instr, *Error) {
	if _, err := p.parseOptions(nil, nil); err != nil {
		return 0, err
	}
	return newWord(bitfield.OpGroupALU, isa.FamNOP), nil
}

// regOrImm13 parses the shared "Rb-relative second operand" shape used by
// ADD/SUB/AND/OR/XOR: either a general register or a signed imm13.
func (p *Parser) regOrImm13() (isReg bool, reg int, imm int64, err *Error) {
	if p.tok.Kind == TokGReg {
		n, e := p.gReg()
		return true, n, 0, e
	}
	v, e := p.rangedSigned(13)
	if e != nil {
		return false, 0, 0, e
	}
	return false, 0, v, nil
}

func encAddSub(family int) mnemonicEncoder {
	return func(p *Parser) (bitfield.Instr, *Error) {
		if _, err := p.parseOptions(nil, nil); err != nil {
			return 0, err
		}
		rr, err := p.gReg()
		if err != nil {
			return 0, err
		}
		if err := p.expectComma(); err != nil {
			return 0, err
		}
		rb, err := p.gReg()
		if err != nil {
			return 0, err
		}
		if err := p.expectComma(); err != nil {
			return 0, err
		}
		isReg, ra, imm, err := p.regOrImm13()
		if err != nil {
			return 0, err
		}
		w := newWord(bitfield.OpGroupALU, family)
		setRegR(&w, rr)
		setRegB(&w, rb)
		if isReg {
			setBit(&w, 19, true)
			setRegA(&w, ra)
		} else {
			setImm13(&w, imm)
		}
		return w, nil
	}
}

var logicalAllowed = map[string]bool{"C": true, "N": true, "B": true, "H": true, "W": true, "D": true}
var logicalExclusive = [][]string{{"B", "H", "W", "D"}}

// encLogical parses AND/OR/XOR, which come in two unrelated shapes sharing
// one mnemonic: the ALU-group register/immediate form "Rr, Rb, Ra|imm13"
// (operand 1 is Rb) and the MEM-group mem-form "Rr, imm13(Rb)"/"Rr, Ra(Rb)"
// whose second operand is fetched from memory and whose operand 1 is R's
// own current value. The width suffix only matters for the mem form, same
// letters as LD/ST's, but is accepted before either form is known since
// options precede operands syntactically.
// The two forms are told apart by one token of lookahead after the first
// comma: a bare number can only start a mem-form "imm13(Rb)" (never a
// second ALU operand, which is always a register); a register is
// ambiguous until the following token is seen: a comma means the
// register was Rb (ALU form continues with a third operand), a '(' means
// it was Ra in the mem form's index addressing.
func encLogical(family, memFamily int) mnemonicEncoder {
	return func(p *Parser) (bitfield.Instr, *Error) {
		flags, err := p.parseOptions(logicalAllowed, logicalExclusive)
		if err != nil {
			return 0, err
		}
		rr, err := p.gReg()
		if err != nil {
			return 0, err
		}
		if err := p.expectComma(); err != nil {
			return 0, err
		}

		if p.tok.Kind != TokGReg {
			offs, err := p.number()
			if err != nil {
				return 0, err
			}
			if err := p.expectLParen(); err != nil {
				return 0, err
			}
			base, err := p.gReg()
			if err != nil {
				return 0, err
			}
			if err := p.expectRParen(); err != nil {
				return 0, err
			}
			return encLogicalMem(p, memFamily, flags, rr, base, false, offs)
		}

		reg, err := p.gReg()
		if err != nil {
			return 0, err
		}
		if p.tok.Kind == TokLParen {
			p.advance()
			base, err := p.gReg()
			if err != nil {
				return 0, err
			}
			if err := p.expectRParen(); err != nil {
				return 0, err
			}
			return encLogicalMem(p, memFamily, flags, rr, base, true, int64(reg))
		}

		if err := p.expectComma(); err != nil {
			return 0, err
		}
		if flags["B"] || flags["H"] || flags["W"] || flags["D"] {
			return 0, newErr(ErrOptionNotAllowed, p.tok.Offset, "width suffix is only valid on the memory form")
		}
		isReg, ra, imm, err := p.regOrImm13()
		if err != nil {
			return 0, err
		}
		w := newWord(bitfield.OpGroupALU, family)
		setRegR(&w, rr)
		setRegB(&w, reg)
		setBit(&w, 20, flags["C"])
		setBit(&w, 21, flags["N"])
		if isReg {
			setBit(&w, 19, true)
			setRegA(&w, ra)
		} else {
			setImm13(&w, imm)
		}
		return w, nil
	}
}

// encLogicalMem encodes the mem-form AND/OR/XOR word: same DW-scaled
// imm13/indexed addressing as encMem's LD/ST, plus the .C/.N flags shared
// with the register form.
func encLogicalMem(p *Parser, family int, flags map[string]bool, rr, base int, indexForm bool, immOrReg int64) (bitfield.Instr, *Error) {
	dw := dwFromFlags(flags)
	w := newWord(bitfield.OpGroupMEM, family)
	setRegR(&w, rr)
	setRegB(&w, base)
	setDW(&w, dw)
	setBit(&w, 20, flags["C"])
	setBit(&w, 21, flags["N"])

	if indexForm {
		setBit(&w, 19, true)
		setRegA(&w, int(immOrReg))
		return w, nil
	}

	size := int64(1) << uint(dw)
	if immOrReg%size != 0 {
		return 0, newErr(ErrMisalignedOffset, p.tok.Offset, "")
	}
	scaled := immOrReg / size
	if scaled < -4096 || scaled > 4095 {
		return 0, newErr(ErrValueOutOfRange, p.tok.Offset, "")
	}
	setImm13(&w, scaled)
	return w, nil
}

var cmpAllowed = map[string]bool{"EQ": true, "LT": true, "GT": true, "NE": true}
var cmpExclusive = [][]string{{"EQ", "LT", "GT", "NE"}}

func encCMP(p *Parser) (bitfield.Instr, *Error) {
	flags, err := p.parseOptions(cmpAllowed, cmpExclusive)
	if err != nil {
		return 0, err
	}
	rr, err := p.gReg()
	if err != nil {
		return 0, err
	}
	if err := p.expectComma(); err != nil {
		return 0, err
	}
	rb, err := p.gReg()
	if err != nil {
		return 0, err
	}
	if err := p.expectComma(); err != nil {
		return 0, err
	}
	isReg, ra, imm, err := p.regOrImm13()
	if err != nil {
		return 0, err
	}
	cond := isa.CmpEQ
	switch {
	case flags["LT"]:
		cond = isa.CmpLT
	case flags["GT"]:
		cond = isa.CmpGT
	case flags["NE"]:
		cond = isa.CmpNE
	}
	w := newWord(bitfield.OpGroupALU, isa.FamCMP)
	setRegR(&w, rr)
	setRegB(&w, rb)
	setField(&w, 20, 2, int64(cond))
	if isReg {
		setBit(&w, 19, true)
		setRegA(&w, ra)
	} else {
		setImm13(&w, imm)
	}
	return w, nil
}

var extrAllowed = map[string]bool{"S": true}

func encEXTR(p *Parser) (bitfield.Instr, *Error) {
	flags, err := p.parseOptions(extrAllowed, nil)
	if err != nil {
		return 0, err
	}
	rr, err := p.gReg()
	if err != nil {
		return 0, err
	}
	if err := p.expectComma(); err != nil {
		return 0, err
	}
	rb, err := p.gReg()
	if err != nil {
		return 0, err
	}
	if err := p.expectComma(); err != nil {
		return 0, err
	}
	pos, fromSAR, err := p.posOperand()
	if err != nil {
		return 0, err
	}
	if err := p.expectComma(); err != nil {
		return 0, err
	}
	length, err := p.rangedUnsigned(6)
	if err != nil {
		return 0, err
	}
	w := newWord(bitfield.OpGroupALU, isa.FamBitfield)
	setOpt1(&w, isa.SubEXTR)
	setRegR(&w, rr)
	setRegB(&w, rb)
	setBit(&w, 14, flags["S"])
	setBit(&w, 13, fromSAR)
	if !fromSAR {
		setField(&w, 6, 6, int64(pos))
	}
	setField(&w, 0, 6, length)
	return w, nil
}

var depAllowed = map[string]bool{"Z": true}

func encDEP(p *Parser) (bitfield.Instr, *Error) {
	flags, err := p.parseOptions(depAllowed, nil)
	if err != nil {
		return 0, err
	}
	rr, err := p.gReg()
	if err != nil {
		return 0, err
	}
	if err := p.expectComma(); err != nil {
		return 0, err
	}

	w := newWord(bitfield.OpGroupALU, isa.FamBitfield)
	setOpt1(&w, isa.SubDEP)
	setRegR(&w, rr)
	setBit(&w, 14, flags["Z"])

	if p.tok.Kind == TokGReg {
		rb, err := p.gReg()
		if err != nil {
			return 0, err
		}
		setRegB(&w, rb)
		if err := p.expectComma(); err != nil {
			return 0, err
		}
		pos, fromSAR, err := p.posOperand()
		if err != nil {
			return 0, err
		}
		if err := p.expectComma(); err != nil {
			return 0, err
		}
		length, err := p.rangedUnsigned(6)
		if err != nil {
			return 0, err
		}
		setBit(&w, 13, fromSAR)
		if !fromSAR {
			setField(&w, 6, 6, int64(pos))
		}
		setField(&w, 0, 6, length)
		return w, nil
	}

	imm, err := p.rangedUnsigned(4)
	if err != nil {
		return 0, err
	}
	setBit(&w, 12, true)
	if err := p.expectComma(); err != nil {
		return 0, err
	}
	pos, fromSAR, err := p.posOperand()
	if err != nil {
		return 0, err
	}
	setBit(&w, 13, fromSAR)
	if !fromSAR {
		setField(&w, 6, 6, int64(pos))
	}
	setField(&w, 0, 4, imm)
	return w, nil
}

func encDSR(p *Parser) (bitfield.Instr, *Error) {
	if _, err := p.parseOptions(nil, nil); err != nil {
		return 0, err
	}
	rr, err := p.gReg()
	if err != nil {
		return 0, err
	}
	if err := p.expectComma(); err != nil {
		return 0, err
	}
	rb, err := p.gReg()
	if err != nil {
		return 0, err
	}
	if err := p.expectComma(); err != nil {
		return 0, err
	}
	ra, err := p.gReg()
	if err != nil {
		return 0, err
	}
	if err := p.expectComma(); err != nil {
		return 0, err
	}
	pos, fromSAR, err := p.posOperand()
	if err != nil {
		return 0, err
	}
	w := newWord(bitfield.OpGroupALU, isa.FamBitfield)
	setOpt1(&w, isa.SubDSR)
	setRegR(&w, rr)
	setRegB(&w, rb)
	setRegA(&w, ra)
	setBit(&w, 13, fromSAR)
	// Bits 0-5: the EXTR/DEP position slot at bits 6-11 would overlap
	// RegA, and DSR has no length operand to claim the low bits.
	if !fromSAR {
		setField(&w, 0, 6, int64(pos))
	}
	return w, nil
}

var shAddAllowed = map[string]bool{"I": true}

func encShAdd(sub int) mnemonicEncoder {
	return func(p *Parser) (bitfield.Instr, *Error) {
		flags, err := p.parseOptions(shAddAllowed, nil)
		if err != nil {
			return 0, err
		}
		rr, err := p.gReg()
		if err != nil {
			return 0, err
		}
		if err := p.expectComma(); err != nil {
			return 0, err
		}
		rb, err := p.gReg()
		if err != nil {
			return 0, err
		}
		if err := p.expectComma(); err != nil {
			return 0, err
		}
		w := newWord(bitfield.OpGroupALU, isa.FamShAdd)
		setOpt1(&w, sub)
		setRegR(&w, rr)
		setRegB(&w, rb)
		if flags["I"] {
			setBit(&w, 14, true)
			imm, err := p.rangedSigned(13)
			if err != nil {
				return 0, err
			}
			setImm13(&w, imm)
		} else {
			ra, err := p.gReg()
			if err != nil {
				return 0, err
			}
			setRegA(&w, ra)
		}
		return w, nil
	}
}

var ldiAllowed = map[string]bool{"L": true, "S": true, "U": true}
var ldiExclusive = [][]string{{"L", "S", "U"}}

func encLDI(p *Parser) (bitfield.Instr, *Error) {
	flags, err := p.parseOptions(ldiAllowed, ldiExclusive)
	if err != nil {
		return 0, err
	}
	rr, err := p.gReg()
	if err != nil {
		return 0, err
	}
	if err := p.expectComma(); err != nil {
		return 0, err
	}
	imm, err := p.rangedUnsigned(20)
	if err != nil {
		return 0, err
	}
	sel := int64(0)
	switch {
	case flags["L"]:
		sel = 1
	case flags["S"]:
		sel = 2
	case flags["U"]:
		sel = 3
	}
	w := newWord(bitfield.OpGroupALU, isa.FamLDI)
	setRegR(&w, rr)
	setField(&w, 20, 2, sel)
	setImm20U(&w, imm)
	return w, nil
}

// encADDIL: "ADDIL Rr, imm20". R is both addend and destination, so the
// 20-bit immediate can own bits 0-19 outright (a B register would sit
// inside that span).
func encADDIL(p *Parser) (bitfield.Instr, *Error) {
	if _, err := p.parseOptions(nil, nil); err != nil {
		return 0, err
	}
	rr, err := p.gReg()
	if err != nil {
		return 0, err
	}
	if err := p.expectComma(); err != nil {
		return 0, err
	}
	imm, err := p.rangedUnsigned(20)
	if err != nil {
		return 0, err
	}
	w := newWord(bitfield.OpGroupALU, isa.FamADDIL)
	setRegR(&w, rr)
	setImm20U(&w, imm)
	return w, nil
}

func encLDO(p *Parser) (bitfield.Instr, *Error) {
	if _, err := p.parseOptions(nil, nil); err != nil {
		return 0, err
	}
	rr, err := p.gReg()
	if err != nil {
		return 0, err
	}
	if err := p.expectComma(); err != nil {
		return 0, err
	}
	imm, err := p.rangedSigned(13)
	if err != nil {
		return 0, err
	}
	if err := p.expectLParen(); err != nil {
		return 0, err
	}
	rb, err := p.gReg()
	if err != nil {
		return 0, err
	}
	if err := p.expectRParen(); err != nil {
		return 0, err
	}
	w := newWord(bitfield.OpGroupALU, isa.FamLDO)
	setRegR(&w, rr)
	setRegB(&w, rb)
	setImm13(&w, imm)
	return w, nil
}

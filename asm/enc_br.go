package asm

import (
	"github.com/twin64/t64sim/bitfield"
	"github.com/twin64/t64sim/isa"
)

func init() {
	register("B", encB)
	register("BR", encBR)
	register("BV", encBV)
	register("BE", encBE)
	register("BB", encCondBranch(isa.FamBB, true))
	register("CBR", encCondBranch(isa.FamCBR, false))
	register("MBR", encCondBranch(isa.FamMBR, false))
	register("ABR", encCondBranch(isa.FamABR, false))
}

var bAllowed = map[string]bool{"G": true}

func encB(p *Parser) (bitfield.Instr, *Error) {
	flags, err := p.parseOptions(bAllowed, nil)
	if err != nil {
		return 0, err
	}
	offs, err := p.number()
	if err != nil {
		return 0, err
	}
	if offs%4 != 0 {
		return 0, newErr(ErrMisalignedOffset, p.tok.Offset, "")
	}
	scaled := offs / 4
	if scaled < -(1<<18) || scaled > (1<<18)-1 {
		return 0, newErr(ErrValueOutOfRange, p.tok.Offset, "")
	}

	w := newWord(bitfield.OpGroupBR, isa.FamB)
	setBit(&w, 19, flags["G"])
	setImm19(&w, scaled)

	if p.tok.Kind == TokComma {
		p.advance()
		rr, err := p.gReg()
		if err != nil {
			return 0, err
		}
		setBit(&w, 20, true)
		setRegR(&w, rr)
	}
	return w, nil
}

func encBR(p *Parser) (bitfield.Instr, *Error) {
	if _, err := p.parseOptions(nil, nil); err != nil {
		return 0, err
	}
	rb, err := p.gReg()
	if err != nil {
		return 0, err
	}
	w := newWord(bitfield.OpGroupBR, isa.FamBR)
	setRegB(&w, rb)
	if p.tok.Kind == TokComma {
		p.advance()
		ra, err := p.gReg()
		if err != nil {
			return 0, err
		}
		setBit(&w, 19, true)
		setRegA(&w, ra)
	}
	return w, nil
}

func encBV(p *Parser) (bitfield.Instr, *Error) {
	if _, err := p.parseOptions(nil, nil); err != nil {
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
	w := newWord(bitfield.OpGroupBR, isa.FamBV)
	setRegB(&w, rb)
	setRegA(&w, ra)
	return w, nil
}

func encBE(p *Parser) (bitfield.Instr, *Error) {
	if _, err := p.parseOptions(nil, nil); err != nil {
		return 0, err
	}
	imm, err := p.rangedSigned(15)
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
	w := newWord(bitfield.OpGroupBR, isa.FamBE)
	setRegB(&w, rb)
	setImm15(&w, imm)
	return w, nil
}

// condNames is the 3-bit condition code enumeration shared by BB, CBR,
// MBR and ABR.
var condNames = map[string]int{
	"EQ": isa.CondEQ, "LT": isa.CondLT, "GT": isa.CondGT, "EV": isa.CondEV,
	"NE": isa.CondNE, "GE": isa.CondGE, "LE": isa.CondLE, "OD": isa.CondOD,
}
var condAllowed = map[string]bool{
	"EQ": true, "LT": true, "GT": true, "EV": true,
	"NE": true, "GE": true, "LE": true, "OD": true,
}
var condExclusive = [][]string{{"EQ", "LT", "GT", "EV", "NE", "GE", "LE", "OD"}}

func (p *Parser) condSuffix() (int, *Error) {
	flags, err := p.parseOptions(condAllowed, condExclusive)
	if err != nil {
		return 0, err
	}
	for name, code := range condNames {
		if flags[name] {
			return code, nil
		}
	}
	return 0, newErr(ErrUnknownCondition, p.tok.Offset, "")
}

// encCondBranch builds BB (scaled imm13 offset, explicit bit position) and
// the CBR/MBR/ABR family (unscaled imm15 offset), per cpu/branch.go.
func encCondBranch(family int, isBB bool) mnemonicEncoder {
	return func(p *Parser) (bitfield.Instr, *Error) {
		cond, err := p.condSuffix()
		if err != nil {
			return 0, err
		}

		var rr, rb int
		if !isBB {
			rr, err = p.gReg()
			if err != nil {
				return 0, err
			}
			if err := p.expectComma(); err != nil {
				return 0, err
			}
		}
		rb, err = p.gReg()
		if err != nil {
			return 0, err
		}
		if err := p.expectComma(); err != nil {
			return 0, err
		}

		w := newWord(bitfield.OpGroupBR, family)
		setOpt1(&w, cond)
		setRegB(&w, rb)
		if !isBB {
			setRegR(&w, rr)
		}

		if isBB {
			bitPos, err := p.rangedUnsigned(6)
			if err != nil {
				return 0, err
			}
			if err := p.expectComma(); err != nil {
				return 0, err
			}
			offs, err := p.number()
			if err != nil {
				return 0, err
			}
			if offs%4 != 0 {
				return 0, newErr(ErrMisalignedOffset, p.tok.Offset, "")
			}
			scaled := offs / 4
			if scaled < -4096 || scaled > 4095 {
				return 0, newErr(ErrValueOutOfRange, p.tok.Offset, "")
			}
			// Packed across RegR (bits 22-25) and DW (bits 13-14) so it
			// never overlaps the imm13 offset at bits 0-12; cpu decode
			// unpacks the same way.
			setField(&w, 22, 4, bitPos&0xF)
			setField(&w, 13, 2, (bitPos>>4)&0x3)
			setImm13(&w, scaled)
			return w, nil
		}

		offs, err := p.rangedSigned(15)
		if err != nil {
			return 0, err
		}
		setImm15(&w, offs)
		return w, nil
	}
}

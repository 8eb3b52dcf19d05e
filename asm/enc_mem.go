package asm

import (
	"github.com/twin64/t64sim/bitfield"
	"github.com/twin64/t64sim/isa"
)

func init() {
	register("LD", encMem(isa.FamLD))
	register("ST", encMem(isa.FamST))
	register("LDR", encMem(isa.FamLDR))
	register("STC", encMem(isa.FamSTC))
}

// encMem parses the shared LD/ST/LDR/STC addressing syntax:
// "Rr, imm13(Rb)" (displacement scaled by DW) or "Rr, Ra(Rb)" (index
// form, Ra<<DW).
func encMem(family int) mnemonicEncoder {
	return func(p *Parser) (bitfield.Instr, *Error) {
		flags, err := p.parseOptions(dwAllowed, dwExclusive)
		if err != nil {
			return 0, err
		}
		dw := dwFromFlags(flags)

		rr, err := p.gReg()
		if err != nil {
			return 0, err
		}
		if err := p.expectComma(); err != nil {
			return 0, err
		}

		indexForm, immOrReg, base, err := p.memOperand()
		if err != nil {
			return 0, err
		}

		w := newWord(bitfield.OpGroupMEM, family)
		setRegR(&w, rr)
		setRegB(&w, base)
		setDW(&w, dw)

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
}

package asm

import (
	"github.com/twin64/t64sim/bitfield"
	"github.com/twin64/t64sim/isa"
)

func init() {
	register("MFCR", encMFCR)
	register("MTCR", encMTCR)
	register("MFIA", encMFIA)
	register("RSM", encRSM)
	register("SSM", encSSM)
	register("LPA", encLPA)
	register("PRB", encPRB)
	register("ITLB", encITLB)
	register("PTLB", encPTLB)
	register("PCA", encCacheMaint(isa.FamPCA))
	register("FCA", encCacheMaint(isa.FamFCA))
	register("RFI", encRFI)
	register("DIAG", encDIAG)
	register("TRAP", encTRAP)
}

// MFCR Rr, Ca -- control register read lives in the RegA field (cpu/
// system.go: GetControl(RegA(instr))).
func encMFCR(p *Parser) (bitfield.Instr, *Error) {
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
	ca, err := p.cReg()
	if err != nil {
		return 0, err
	}
	w := newWord(bitfield.OpGroupSYS, isa.FamMFCR)
	setRegR(&w, rr)
	setRegA(&w, ca)
	return w, nil
}

func encMTCR(p *Parser) (bitfield.Instr, *Error) {
	if _, err := p.parseOptions(nil, nil); err != nil {
		return 0, err
	}
	ca, err := p.cReg()
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
	w := newWord(bitfield.OpGroupSYS, isa.FamMTCR)
	setRegA(&w, ca)
	setRegB(&w, rb)
	return w, nil
}

func encMFIA(p *Parser) (bitfield.Instr, *Error) {
	if _, err := p.parseOptions(nil, nil); err != nil {
		return 0, err
	}
	rr, err := p.gReg()
	if err != nil {
		return 0, err
	}
	w := newWord(bitfield.OpGroupSYS, isa.FamMFIA)
	setRegR(&w, rr)
	return w, nil
}

func encRSM(p *Parser) (bitfield.Instr, *Error) {
	if _, err := p.parseOptions(nil, nil); err != nil {
		return 0, err
	}
	mask, err := p.rangedUnsigned(12)
	if err != nil {
		return 0, err
	}
	w := newWord(bitfield.OpGroupSYS, isa.FamRSM)
	setField(&w, 0, 12, mask)
	return w, nil
}

func encSSM(p *Parser) (bitfield.Instr, *Error) {
	if _, err := p.parseOptions(nil, nil); err != nil {
		return 0, err
	}
	mask, err := p.rangedUnsigned(12)
	if err != nil {
		return 0, err
	}
	w := newWord(bitfield.OpGroupSYS, isa.FamSSM)
	setField(&w, 0, 12, mask)
	return w, nil
}

func encLPA(p *Parser) (bitfield.Instr, *Error) {
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
	w := newWord(bitfield.OpGroupSYS, isa.FamLPA)
	setRegR(&w, rr)
	setRegB(&w, rb)
	return w, nil
}

var prbAllowed = map[string]bool{"W": true}

func encPRB(p *Parser) (bitfield.Instr, *Error) {
	flags, err := p.parseOptions(prbAllowed, nil)
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
	w := newWord(bitfield.OpGroupSYS, isa.FamPRB)
	setRegR(&w, rr)
	setRegB(&w, rb)
	setBit(&w, 19, flags["W"])
	return w, nil
}

var itlbAllowed = map[string]bool{"D": true, "U": true, "W": true}

func encITLB(p *Parser) (bitfield.Instr, *Error) {
	flags, err := p.parseOptions(itlbAllowed, nil)
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
	ra, err := p.gReg()
	if err != nil {
		return 0, err
	}
	if err := p.expectComma(); err != nil {
		return 0, err
	}
	pid, err := p.rangedUnsigned(8)
	if err != nil {
		return 0, err
	}
	w := newWord(bitfield.OpGroupSYS, isa.FamITLB)
	setRegR(&w, rr)
	setRegB(&w, rb)
	setRegA(&w, ra)
	setField(&w, 0, 8, pid)
	setBit(&w, 8, flags["U"])
	// Bit 20: bits 9-12 carry RegA, so the write-access flag lives in the
	// unused upper option bit instead.
	setBit(&w, 20, flags["W"])
	setBit(&w, 19, flags["D"])
	return w, nil
}

var ptlbAllowed = map[string]bool{"D": true}

func encPTLB(p *Parser) (bitfield.Instr, *Error) {
	flags, err := p.parseOptions(ptlbAllowed, nil)
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
	w := newWord(bitfield.OpGroupSYS, isa.FamPTLB)
	setRegR(&w, rr)
	setRegB(&w, rb)
	setBit(&w, 19, flags["D"])
	return w, nil
}

var cacheMaintAllowed = map[string]bool{"D": true}

func encCacheMaint(family int) mnemonicEncoder {
	return func(p *Parser) (bitfield.Instr, *Error) {
		flags, err := p.parseOptions(cacheMaintAllowed, nil)
		if err != nil {
			return 0, err
		}
		rb, err := p.gReg()
		if err != nil {
			return 0, err
		}
		w := newWord(bitfield.OpGroupSYS, family)
		setRegB(&w, rb)
		setBit(&w, 19, flags["D"])
		return w, nil
	}
}

func encRFI(p *Parser) (bitfield.Instr, *Error) {
	if _, err := p.parseOptions(nil, nil); err != nil {
		return 0, err
	}
	return newWord(bitfield.OpGroupSYS, isa.FamRFI), nil
}

func encDIAG(p *Parser) (bitfield.Instr, *Error) {
	if _, err := p.parseOptions(nil, nil); err != nil {
		return 0, err
	}
	code, err := p.rangedUnsigned(8)
	if err != nil {
		return 0, err
	}
	w := newWord(bitfield.OpGroupSYS, isa.FamDIAG)
	setField(&w, 0, 8, code)
	return w, nil
}

func encTRAP(p *Parser) (bitfield.Instr, *Error) {
	if _, err := p.parseOptions(nil, nil); err != nil {
		return 0, err
	}
	kind, err := p.rangedUnsigned(4)
	if err != nil {
		return 0, err
	}
	w := newWord(bitfield.OpGroupSYS, isa.FamTRAP)
	setField(&w, 0, 4, kind)
	if p.tok.Kind == TokComma {
		p.advance()
		info, err := p.rangedUnsigned(9)
		if err != nil {
			return 0, err
		}
		setField(&w, 4, 9, info)
	}
	return w, nil
}

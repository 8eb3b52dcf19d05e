package asm

import "github.com/twin64/t64sim/bitfield"

// newWord builds the group/family prefix of an instruction word; every
// per-mnemonic encoder starts from this and deposits its own fields.
func newWord(group, family int) bitfield.Instr {
	var w bitfield.Instr
	bitfield.DepositField(&w, bitfield.PosOpGroup, bitfield.LenOpGroup, uint32(group))
	bitfield.DepositField(&w, bitfield.PosOpFamily, bitfield.LenOpFamily, uint32(family))
	return w
}

func setOpt1(w *bitfield.Instr, v int) {
	bitfield.DepositField(w, bitfield.PosOpt1, bitfield.LenOpt1, uint32(v))
}

func setDW(w *bitfield.Instr, dw int) {
	bitfield.DepositField(w, bitfield.PosDW, bitfield.LenDW, uint32(dw))
}

func setRegR(w *bitfield.Instr, n int) { bitfield.SetRegR(w, uint32(n)) }
func setRegB(w *bitfield.Instr, n int) { bitfield.SetRegB(w, uint32(n)) }
func setRegA(w *bitfield.Instr, n int) { bitfield.SetRegA(w, uint32(n)) }

func setBit(w *bitfield.Instr, pos int, v bool) { bitfield.DepositBit(w, pos, v) }

func setField(w *bitfield.Instr, pos, length int, v int64) {
	bitfield.DepositField(w, pos, length, uint32(v)&((1<<uint(length))-1))
}

func setImm13(w *bitfield.Instr, v int64) { setField(w, 0, 13, v) }
func setImm15(w *bitfield.Instr, v int64) { setField(w, 0, 15, v) }
func setImm19(w *bitfield.Instr, v int64) { setField(w, 0, 19, v) }
func setImm20U(w *bitfield.Instr, v int64) {
	bitfield.DepositField(w, 0, 20, uint32(v)&0xFFFFF)
}

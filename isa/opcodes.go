// Package isa is the shared opcode table between asm and cpu: the
// mnemonic-to-(group,family) assignment and the per-instruction bit
// layout within the option-1 field and the low immediate bits.
//
// Bits 21-19 (option-1) overlap the DW field in some encodings, so the
// per-opcode encoders and decoders are authoritative about which fields
// an instruction actually carries; both sides read this table so they can
// never disagree about where a field lives.
package isa

import "github.com/twin64/t64sim/bitfield"

// Opcode family within the ALU group (bits 29-26).
const (
	FamADD = iota
	FamSUB
	FamAND
	FamOR
	FamXOR
	FamCMP
	FamBitfield // EXTR / DEP / DSR, selected by Opt1
	FamShAdd    // SHLxA / SHRxA, selected by Opt1
	FamLDI
	FamADDIL
	FamLDO
	FamNOP
)

// Opcode family within the MEM group.
const (
	FamLD = iota
	FamST
	FamLDR
	FamSTC
	// FamANDM/FamORM/FamXORM are the mem-form AND/OR/XOR variants: same
	// mnemonic as the ALU-group register/immediate form, dispatched to
	// the MEM group instead because their second operand is a memory
	// reference rather than a register or imm13.
	FamANDM
	FamORM
	FamXORM
)

// Opcode family within the BR group.
const (
	FamB = iota
	FamBR
	FamBV
	FamBE
	FamBB
	FamCBR
	FamMBR
	FamABR
)

// Opcode family within the SYS group.
const (
	FamMFCR = iota
	FamMTCR
	FamMFIA
	FamRSM
	FamSSM
	FamLPA
	FamPRB
	FamITLB
	FamPTLB
	FamPCA
	FamFCA
	FamRFI
	FamDIAG
	FamTRAP
)

// Sub-opcodes (Opt1 field, bits 21-19) for FamBitfield.
const (
	SubEXTR = iota
	SubDEP
	SubDSR
)

// Sub-opcodes for FamShAdd: 0-2 shift left by 1/2/3, 3-5 shift right by
// 1/2/3.
const (
	SubSHL1A = iota
	SubSHL2A
	SubSHL3A
	SubSHR1A
	SubSHR2A
	SubSHR3A
)

// Mnemonic is the canonical instruction name, case-normalized to upper case.
type Mnemonic string

// Info describes one instruction's dispatch coordinates.
type Info struct {
	Mnemonic Mnemonic
	Group    int
	Family   int
	Opt1     int // -1 if the mnemonic does not use Opt1 to select among siblings
}

// Table lists every architectural mnemonic with its dispatch coordinates.
var Table = []Info{
	{"NOP", bitfield.OpGroupALU, FamNOP, -1},
	{"ADD", bitfield.OpGroupALU, FamADD, -1},
	{"SUB", bitfield.OpGroupALU, FamSUB, -1},
	{"AND", bitfield.OpGroupALU, FamAND, -1},
	{"OR", bitfield.OpGroupALU, FamOR, -1},
	{"XOR", bitfield.OpGroupALU, FamXOR, -1},
	{"CMP", bitfield.OpGroupALU, FamCMP, -1},
	{"EXTR", bitfield.OpGroupALU, FamBitfield, SubEXTR},
	{"DEP", bitfield.OpGroupALU, FamBitfield, SubDEP},
	{"DSR", bitfield.OpGroupALU, FamBitfield, SubDSR},
	{"SHL1A", bitfield.OpGroupALU, FamShAdd, SubSHL1A},
	{"SHL2A", bitfield.OpGroupALU, FamShAdd, SubSHL2A},
	{"SHL3A", bitfield.OpGroupALU, FamShAdd, SubSHL3A},
	{"SHR1A", bitfield.OpGroupALU, FamShAdd, SubSHR1A},
	{"SHR2A", bitfield.OpGroupALU, FamShAdd, SubSHR2A},
	{"SHR3A", bitfield.OpGroupALU, FamShAdd, SubSHR3A},
	{"LDI", bitfield.OpGroupALU, FamLDI, -1},
	{"ADDIL", bitfield.OpGroupALU, FamADDIL, -1},
	{"LDO", bitfield.OpGroupALU, FamLDO, -1},
	{"LD", bitfield.OpGroupMEM, FamLD, -1},
	{"ST", bitfield.OpGroupMEM, FamST, -1},
	{"LDR", bitfield.OpGroupMEM, FamLDR, -1},
	{"STC", bitfield.OpGroupMEM, FamSTC, -1},
	{"AND", bitfield.OpGroupMEM, FamANDM, -1},
	{"OR", bitfield.OpGroupMEM, FamORM, -1},
	{"XOR", bitfield.OpGroupMEM, FamXORM, -1},
	{"B", bitfield.OpGroupBR, FamB, -1},
	{"BR", bitfield.OpGroupBR, FamBR, -1},
	{"BV", bitfield.OpGroupBR, FamBV, -1},
	{"BE", bitfield.OpGroupBR, FamBE, -1},
	{"BB", bitfield.OpGroupBR, FamBB, -1},
	{"CBR", bitfield.OpGroupBR, FamCBR, -1},
	{"MBR", bitfield.OpGroupBR, FamMBR, -1},
	{"ABR", bitfield.OpGroupBR, FamABR, -1},
	{"MFCR", bitfield.OpGroupSYS, FamMFCR, -1},
	{"MTCR", bitfield.OpGroupSYS, FamMTCR, -1},
	{"MFIA", bitfield.OpGroupSYS, FamMFIA, -1},
	{"RSM", bitfield.OpGroupSYS, FamRSM, -1},
	{"SSM", bitfield.OpGroupSYS, FamSSM, -1},
	{"LPA", bitfield.OpGroupSYS, FamLPA, -1},
	{"PRB", bitfield.OpGroupSYS, FamPRB, -1},
	{"ITLB", bitfield.OpGroupSYS, FamITLB, -1},
	{"PTLB", bitfield.OpGroupSYS, FamPTLB, -1},
	{"PCA", bitfield.OpGroupSYS, FamPCA, -1},
	{"FCA", bitfield.OpGroupSYS, FamFCA, -1},
	{"RFI", bitfield.OpGroupSYS, FamRFI, -1},
	{"DIAG", bitfield.OpGroupSYS, FamDIAG, -1},
	{"TRAP", bitfield.OpGroupSYS, FamTRAP, -1},
}

// ByMnemonic looks up a mnemonic's dispatch coordinates.
func ByMnemonic(m Mnemonic) (Info, bool) {
	for _, i := range Table {
		if i.Mnemonic == m {
			return i, true
		}
	}
	return Info{}, false
}

// Condition codes for BB/CBR/MBR/ABR (3-bit field, bits 21-19).
const (
	CondEQ = iota
	CondLT
	CondGT
	CondEV
	CondNE
	CondGE
	CondLE
	CondOD
)

// CompareCondition codes for CMP (2-bit field, bits 21-20).
const (
	CmpEQ = iota
	CmpLT
	CmpGT
	CmpNE
)

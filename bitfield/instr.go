package bitfield

// Instruction field layout: bits numbered 31 (MSB) down to 0.
//
//	31-30  opcode group
//	29-26  opcode family
//	25-22  register R
//	21-19  option-1 / sub-opcode
//	18-15  register B
//	14-13  DW (data width)
//	12-9   register A
//	12-0 / 14-0 / 18-0   imm13 / imm15 / imm19, or 19-0 unsigned imm20
const (
	PosOpGroup = 30
	LenOpGroup = 2

	PosOpFamily = 26
	LenOpFamily = 4

	PosRegR = 22
	LenRegR = 4

	PosOpt1 = 19
	LenOpt1 = 3

	PosRegB = 15
	LenRegB = 4

	PosDW   = 13
	LenDW   = 2
	PosRegA = 9
	LenRegA = 4
)

// OpGroup identifiers (bits 31-30).
const (
	OpGroupALU = 0
	OpGroupMEM = 1
	OpGroupBR  = 2
	OpGroupSYS = 3
)

// DW (data-width) field values.
const (
	DWByte       = 0
	DWHalf       = 1
	DWWord       = 2
	DWDoubleword = 3
)

// DWSize returns the byte length for a DW field value.
func DWSize(dw int) int {
	return 1 << uint(dw)
}

// OpGroup extracts the 2-bit opcode group.
func OpGroup(instr Instr) int { return Field(instr, PosOpGroup, LenOpGroup) }

// OpFamily extracts the 4-bit opcode family.
func OpFamily(instr Instr) int { return Field(instr, PosOpFamily, LenOpFamily) }

// DispatchKey packs group and family into a 6-bit dispatch key.
func DispatchKey(instr Instr) int { return OpGroup(instr)<<4 | OpFamily(instr) }

// Opt1 extracts the 3-bit option-1/sub-opcode field (bits 21-19).
func Opt1(instr Instr) int { return Field(instr, PosOpt1, LenOpt1) }

// RegR, RegB, RegA extract the three register fields.
func RegR(instr Instr) int { return Field(instr, PosRegR, LenRegR) }
func RegB(instr Instr) int { return Field(instr, PosRegB, LenRegB) }
func RegA(instr Instr) int { return Field(instr, PosRegA, LenRegA) }

// DW extracts the data-width field (bits 14-13).
func DW(instr Instr) int { return Field(instr, PosDW, LenDW) }

// Imm13 extracts and sign-extends the low 13-bit immediate.
func Imm13(instr Instr) int { return SignedField(instr, 0, 13) }

// ScaledImm13 scales Imm13 by the DW field (shift left by DW).
func ScaledImm13(instr Instr) int { return Imm13(instr) << uint(DW(instr)) }

// Imm15 extracts and sign-extends the low 15-bit immediate.
func Imm15(instr Instr) int { return SignedField(instr, 0, 15) }

// Imm19 extracts and sign-extends the low 19-bit immediate.
func Imm19(instr Instr) int { return SignedField(instr, 0, 19) }

// Imm20U extracts the low 20-bit immediate unsigned (LDI/ADDIL).
func Imm20U(instr Instr) uint32 { return instr & 0xFFFFF }

// SetRegR, SetRegB, SetRegA deposit a register id into the instruction word.
func SetRegR(instr *Instr, id uint32) { DepositField(instr, PosRegR, LenRegR, id) }
func SetRegB(instr *Instr, id uint32) { DepositField(instr, PosRegB, LenRegB, id) }
func SetRegA(instr *Instr, id uint32) { DepositField(instr, PosRegA, LenRegA, id) }

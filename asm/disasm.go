package asm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/twin64/t64sim/bitfield"
	"github.com/twin64/t64sim/isa"
)

// Disassemble renders a 32-bit instruction word as a two-part string
// (opcode-with-options, operands). It never fails: unrecognized or
// reserved bit patterns render as a "**OPC:n**" marker so that every
// 32-bit value is representable.
func Disassemble(instr bitfield.Instr, radix int) (opcode string, operands string) {
	group := bitfield.OpGroup(instr)
	family := bitfield.OpFamily(instr)

	switch group {
	case bitfield.OpGroupALU:
		return disasmALU(instr, family, radix)
	case bitfield.OpGroupMEM:
		return disasmMEM(instr, family, radix)
	case bitfield.OpGroupBR:
		return disasmBR(instr, family, radix)
	case bitfield.OpGroupSYS:
		return disasmSYS(instr, family, radix)
	default:
		return marker(instr), ""
	}
}

func marker(instr bitfield.Instr) string {
	return fmt.Sprintf("**OPC:%d**", bitfield.DispatchKey(instr))
}

func num(v int64, radix int) string {
	if radix == 16 {
		if v < 0 {
			return "-0x" + strconv.FormatInt(-v, 16)
		}
		return "0x" + strconv.FormatInt(v, 16)
	}
	return strconv.FormatInt(v, 10)
}

func mnemonicFor(group, family, opt1 int) (string, bool) {
	for _, info := range isa.Table {
		if info.Group != group || info.Family != family {
			continue
		}
		if info.Opt1 == -1 || info.Opt1 == opt1 {
			return string(info.Mnemonic), true
		}
	}
	return "", false
}

func suffix(flags ...string) string {
	if len(flags) == 0 {
		return ""
	}
	return "." + strings.Join(flags, ".")
}

func regOrImmOperand(instr bitfield.Instr, radix int) string {
	if bitfield.Bit(instr, 19) != 0 {
		return gRegName(bitfield.RegA(instr))
	}
	return num(int64(bitfield.Imm13(instr)), radix)
}

func disasmALU(instr bitfield.Instr, family int, radix int) (string, string) {
	rr := gRegName(bitfield.RegR(instr))
	rb := gRegName(bitfield.RegB(instr))

	switch family {
	case isa.FamNOP:
		return "NOP", ""
	case isa.FamADD, isa.FamSUB:
		name, _ := mnemonicFor(bitfield.OpGroupALU, family, -1)
		return name, fmt.Sprintf("%s, %s, %s", rr, rb, regOrImmOperand(instr, radix))
	case isa.FamAND, isa.FamOR, isa.FamXOR:
		name, _ := mnemonicFor(bitfield.OpGroupALU, family, -1)
		var flags []string
		if bitfield.Bit(instr, 20) != 0 {
			flags = append(flags, "C")
		}
		if bitfield.Bit(instr, 21) != 0 {
			flags = append(flags, "N")
		}
		return name + suffix(flags...), fmt.Sprintf("%s, %s, %s", rr, rb, regOrImmOperand(instr, radix))
	case isa.FamCMP:
		cond := []string{"EQ", "LT", "GT", "NE"}[bitfield.Field(instr, 20, 2)]
		return "CMP" + suffix(cond), fmt.Sprintf("%s, %s, %s", rr, rb, regOrImmOperand(instr, radix))
	case isa.FamBitfield:
		return disasmBitfield(instr, radix)
	case isa.FamShAdd:
		return disasmShAdd(instr, radix)
	case isa.FamLDI:
		sel := bitfield.Field(instr, 20, 2)
		suf := [4]string{"", "L", "S", "U"}[sel]
		opc := "LDI"
		if suf != "" {
			opc += "." + suf
		}
		return opc, fmt.Sprintf("%s, %s", rr, num(int64(bitfield.Imm20U(instr)), radix))
	case isa.FamADDIL:
		return "ADDIL", fmt.Sprintf("%s, %s", rr, num(int64(bitfield.Imm20U(instr)), radix))
	case isa.FamLDO:
		return "LDO", fmt.Sprintf("%s, %s(%s)", rr, num(int64(bitfield.Imm13(instr)), radix), rb)
	default:
		return marker(instr), ""
	}
}

func posOperandText(instr bitfield.Instr, radix int) string {
	if bitfield.Bit(instr, 13) != 0 {
		return "SAR"
	}
	return num(int64(bitfield.Field(instr, 6, 6)), radix)
}

func disasmBitfield(instr bitfield.Instr, radix int) (string, string) {
	rr := gRegName(bitfield.RegR(instr))
	rb := gRegName(bitfield.RegB(instr))
	pos := posOperandText(instr, radix)

	switch bitfield.Opt1(instr) {
	case isa.SubEXTR:
		opc := "EXTR"
		if bitfield.Bit(instr, 14) != 0 {
			opc += ".S"
		}
		length := bitfield.Field(instr, 0, 6)
		return opc, fmt.Sprintf("%s, %s, %s, %s", rr, rb, pos, num(int64(length), radix))
	case isa.SubDEP:
		opc := "DEP"
		if bitfield.Bit(instr, 14) != 0 {
			opc += ".Z"
		}
		if bitfield.Bit(instr, 12) != 0 {
			imm := bitfield.Field(instr, 0, 4)
			return opc, fmt.Sprintf("%s, %s, %s", rr, num(int64(imm), radix), pos)
		}
		length := bitfield.Field(instr, 0, 6)
		return opc, fmt.Sprintf("%s, %s, %s, %s", rr, rb, pos, num(int64(length), radix))
	case isa.SubDSR:
		ra := gRegName(bitfield.RegA(instr))
		shift := "SAR"
		if bitfield.Bit(instr, 13) == 0 {
			shift = num(int64(bitfield.Field(instr, 0, 6)), radix)
		}
		return "DSR", fmt.Sprintf("%s, %s, %s, %s", rr, rb, ra, shift)
	default:
		return marker(instr), ""
	}
}

func disasmShAdd(instr bitfield.Instr, radix int) (string, string) {
	names := map[int]string{
		isa.SubSHL1A: "SHL1A", isa.SubSHL2A: "SHL2A", isa.SubSHL3A: "SHL3A",
		isa.SubSHR1A: "SHR1A", isa.SubSHR2A: "SHR2A", isa.SubSHR3A: "SHR3A",
	}
	name, ok := names[bitfield.Opt1(instr)]
	if !ok {
		return marker(instr), ""
	}
	rr := gRegName(bitfield.RegR(instr))
	rb := gRegName(bitfield.RegB(instr))
	if bitfield.Bit(instr, 14) != 0 {
		return name + ".I", fmt.Sprintf("%s, %s, %s", rr, rb, num(int64(bitfield.Imm13(instr)), radix))
	}
	ra := gRegName(bitfield.RegA(instr))
	return name, fmt.Sprintf("%s, %s, %s", rr, rb, ra)
}

func disasmMEM(instr bitfield.Instr, family int, radix int) (string, string) {
	name, ok := mnemonicFor(bitfield.OpGroupMEM, family, -1)
	if !ok {
		return marker(instr), ""
	}

	opc := name + "." + dwSuffix(bitfield.DW(instr))
	switch family {
	case isa.FamANDM, isa.FamORM, isa.FamXORM:
		var flags []string
		if bitfield.Bit(instr, 20) != 0 {
			flags = append(flags, "C")
		}
		if bitfield.Bit(instr, 21) != 0 {
			flags = append(flags, "N")
		}
		if len(flags) > 0 {
			opc += "." + strings.Join(flags, ".")
		}
	}

	rr := gRegName(bitfield.RegR(instr))
	rb := gRegName(bitfield.RegB(instr))
	if bitfield.Bit(instr, 19) != 0 {
		ra := gRegName(bitfield.RegA(instr))
		return opc, fmt.Sprintf("%s, %s(%s)", rr, ra, rb)
	}
	offs := bitfield.ScaledImm13(instr)
	return opc, fmt.Sprintf("%s, %s(%s)", rr, num(int64(offs), radix), rb)
}

func disasmBR(instr bitfield.Instr, family int, radix int) (string, string) {
	switch family {
	case isa.FamB:
		opc := "B"
		if bitfield.Bit(instr, 19) != 0 {
			opc += ".G"
		}
		offs := int64(bitfield.Imm19(instr)) << 2
		operands := num(offs, radix)
		if bitfield.Bit(instr, 20) != 0 {
			operands += ", " + gRegName(bitfield.RegR(instr))
		}
		return opc, operands
	case isa.FamBR:
		rb := gRegName(bitfield.RegB(instr))
		if bitfield.Bit(instr, 19) != 0 {
			return "BR", fmt.Sprintf("%s, %s", rb, gRegName(bitfield.RegA(instr)))
		}
		return "BR", rb
	case isa.FamBV:
		return "BV", fmt.Sprintf("%s, %s", gRegName(bitfield.RegB(instr)), gRegName(bitfield.RegA(instr)))
	case isa.FamBE:
		return "BE", fmt.Sprintf("%s(%s)", num(int64(bitfield.Imm15(instr)), radix), gRegName(bitfield.RegB(instr)))
	case isa.FamBB:
		cond, ok := condText(bitfield.Opt1(instr))
		if !ok {
			return marker(instr), ""
		}
		bitPos := bitfield.Field(instr, 22, 4) | bitfield.Field(instr, 13, 2)<<4
		offs := int64(bitfield.Imm13(instr)) << 2
		return "BB" + suffix(cond), fmt.Sprintf("%s, %s, %s", gRegName(bitfield.RegB(instr)), num(int64(bitPos), radix), num(offs, radix))
	case isa.FamCBR, isa.FamMBR, isa.FamABR:
		name, _ := mnemonicFor(bitfield.OpGroupBR, family, -1)
		cond, ok := condText(bitfield.Opt1(instr))
		if !ok {
			return marker(instr), ""
		}
		rr := gRegName(bitfield.RegR(instr))
		rb := gRegName(bitfield.RegB(instr))
		offs := int64(bitfield.Imm15(instr))
		return name + suffix(cond), fmt.Sprintf("%s, %s, %s", rr, rb, num(offs, radix))
	default:
		return marker(instr), ""
	}
}

func condText(code int) (string, bool) {
	for name, c := range condNames {
		if c == code {
			return name, true
		}
	}
	return "", false
}

func disasmSYS(instr bitfield.Instr, family int, radix int) (string, string) {
	switch family {
	case isa.FamMFCR:
		return "MFCR", fmt.Sprintf("%s, %s", gRegName(bitfield.RegR(instr)), cRegName(bitfield.RegA(instr)))
	case isa.FamMTCR:
		return "MTCR", fmt.Sprintf("%s, %s", cRegName(bitfield.RegA(instr)), gRegName(bitfield.RegB(instr)))
	case isa.FamMFIA:
		return "MFIA", gRegName(bitfield.RegR(instr))
	case isa.FamRSM:
		return "RSM", num(int64(bitfield.Field(instr, 0, 12)), radix)
	case isa.FamSSM:
		return "SSM", num(int64(bitfield.Field(instr, 0, 12)), radix)
	case isa.FamLPA:
		return "LPA", fmt.Sprintf("%s, %s", gRegName(bitfield.RegR(instr)), gRegName(bitfield.RegB(instr)))
	case isa.FamPRB:
		opc := "PRB"
		if bitfield.Bit(instr, 19) != 0 {
			opc += ".W"
		}
		return opc, fmt.Sprintf("%s, %s", gRegName(bitfield.RegR(instr)), gRegName(bitfield.RegB(instr)))
	case isa.FamITLB:
		var flags []string
		if bitfield.Bit(instr, 19) != 0 {
			flags = append(flags, "D")
		}
		if bitfield.Bit(instr, 8) != 0 {
			flags = append(flags, "U")
		}
		if bitfield.Bit(instr, 20) != 0 {
			flags = append(flags, "W")
		}
		pid := bitfield.Field(instr, 0, 8)
		return "ITLB" + suffix(flags...), fmt.Sprintf("%s, %s, %s, %s", gRegName(bitfield.RegR(instr)), gRegName(bitfield.RegB(instr)), gRegName(bitfield.RegA(instr)), num(int64(pid), radix))
	case isa.FamPTLB:
		opc := "PTLB"
		if bitfield.Bit(instr, 19) != 0 {
			opc += ".D"
		}
		return opc, fmt.Sprintf("%s, %s", gRegName(bitfield.RegR(instr)), gRegName(bitfield.RegB(instr)))
	case isa.FamPCA, isa.FamFCA:
		name, _ := mnemonicFor(bitfield.OpGroupSYS, family, -1)
		if bitfield.Bit(instr, 19) != 0 {
			name += ".D"
		}
		return name, gRegName(bitfield.RegB(instr))
	case isa.FamRFI:
		return "RFI", ""
	case isa.FamDIAG:
		return "DIAG", num(int64(bitfield.Field(instr, 0, 8)), radix)
	case isa.FamTRAP:
		kind := bitfield.Field(instr, 0, 4)
		info := bitfield.Field(instr, 4, 9)
		return "TRAP", fmt.Sprintf("%s, %s", num(int64(kind), radix), num(int64(info), radix))
	default:
		return marker(instr), ""
	}
}

package asm

import (
	"fmt"
	"strings"
	"testing"
)

// roundTripCases lists one canonical source line per mnemonic family/variant.
// Each is assembled, disassembled, and reassembled: asm(disasm(w)) == w
// must hold for every representable instruction word.
var roundTripCases = []string{
	"NOP",
	"ADD R1, R2, R3",
	"ADD R1, R2, 5",
	"SUB R1, R2, R3",
	"SUB R1, R2, -5",
	"AND R1, R2, R3",
	"AND.C.N R1, R2, R3",
	"OR R1, R2, R3",
	"XOR.C R1, R2, 9",
	"AND.W R1, 8(R2)",
	"AND.C.W R1, R3(R2)",
	"OR.B R1, 1(R2)",
	"XOR.N.D R1, 8(R2)",
	"CMP.EQ R1, R2, R3",
	"CMP.LT R1, R2, 3",
	"CMP.GT R1, R2, R3",
	"CMP.NE R1, R2, R3",
	"EXTR R1, R2, 4, 8",
	"EXTR.S R1, R2, SAR, 16",
	"DEP R1, R2, 4, 8",
	"DEP.Z R1, 5, 10",
	"DSR R1, R2, R3, 4",
	"SHL1A R1, R2, R3",
	"SHL2A.I R1, R2, 100",
	"SHL3A R1, R2, R3",
	"SHR1A R1, R2, R3",
	"SHR2A.I R1, R2, 10",
	"SHR3A R1, R2, R3",
	"LDI R3, 0x12345",
	"LDI.L R3, 0x12345",
	"LDI.S R3, 0x12345",
	"LDI.U R3, 0x12345",
	"ADDIL R1, 0x100",
	"LDO R1, 16(R2)",
	"LD.B R1, 1(R2)",
	"LD.H R1, 2(R2)",
	"LD.W R1, 8(R2)",
	"LD.D R1, 8(R2)",
	"ST.W R1, 8(R2)",
	"LDR.D R1, 8(R2)",
	"STC.W R1, R3(R2)",
	"B 16",
	"B 16, R1",
	"B.G 16",
	"BR R2",
	"BR R2, R3",
	"BV R2, R3",
	"BE 8(R2)",
	"BB.EQ R2, 4, 16",
	"BB.OD R2, 30, 16",
	"CBR.LT R1, R2, 20",
	"MBR.GE R1, R2, 20",
	"ABR.NE R1, R2, 20",
	"MFCR R1, C2",
	"MTCR C2, R1",
	"MFIA R1",
	"RSM 255",
	"SSM 255",
	"LPA R1, R2",
	"PRB R1, R2",
	"PRB.W R1, R2",
	"ITLB R1, R2, R3, 5",
	"ITLB.D.U.W R1, R2, R3, 5",
	"PTLB R1, R2",
	"PTLB.D R1, R2",
	"PCA R2",
	"PCA.D R2",
	"FCA R2",
	"FCA.D R2",
	"RFI",
	"DIAG 5",
	"TRAP 2, 10",
}

func TestDisassembleRoundTrip(t *testing.T) {
	for _, src := range roundTripCases {
		t.Run(src, func(t *testing.T) {
			w, err := Assemble(src)
			if err != nil {
				t.Fatalf("Assemble(%q) error = %v", src, err)
			}

			opcode, operands := Disassemble(w, 10)
			if strings.Contains(opcode, "**OPC") {
				t.Fatalf("Disassemble(%#x) produced a marker for a recognized instruction: %s", w, opcode)
			}

			text := opcode
			if operands != "" {
				text += " " + operands
			}

			w2, err := Assemble(text)
			if err != nil {
				t.Fatalf("re-Assemble(%q) (from %q) error = %v", text, src, err)
			}
			if w2 != w {
				t.Fatalf("round trip mismatch: asm(%q)=%#x, disasm->%q, asm(that)=%#x", src, w, text, w2)
			}
		})
	}
}

func TestDisassembleNeverFails(t *testing.T) {
	// Exhaustively sample dispatch keys (group<<4|family) outside the
	// architected set; every one must render as a marker, never panic.
	for group := 0; group < 4; group++ {
		for family := 0; family < 16; family++ {
			w := uint32(group)<<30 | uint32(family)<<26
			opcode, _ := Disassemble(w, 10)
			_ = opcode // must not panic regardless of content
		}
	}
}

func TestDisassembleMarkerForReservedFamily(t *testing.T) {
	// ALU group, family 12 is unassigned (FamNOP is the last ALU family, 11).
	w := uint32(0)<<30 | uint32(12)<<26
	opcode, operands := Disassemble(w, 10)
	if !strings.HasPrefix(opcode, "**OPC:") {
		t.Fatalf("opcode = %q, want **OPC:n** marker", opcode)
	}
	if operands != "" {
		t.Fatalf("operands = %q, want empty for a marker", operands)
	}
}

func TestDisassembleRadix(t *testing.T) {
	w, err := Assemble("LDI R1, 255")
	if err != nil {
		t.Fatalf("Assemble error = %v", err)
	}
	_, decOperands := Disassemble(w, 10)
	if decOperands != "R1, 255" {
		t.Fatalf("decimal operands = %q, want %q", decOperands, "R1, 255")
	}
	_, hexOperands := Disassemble(w, 16)
	if hexOperands != "R1, 0xff" {
		t.Fatalf("hex operands = %q, want %q", hexOperands, "R1, 0xff")
	}
}

func TestDisassembleLDIWorkedExample(t *testing.T) {
	// LDI.L keeps the 20-bit immediate in bits 19-0 and sets bits 21-20 to
	// 1, the selector for the shifted-by-12 placement.
	w, err := Assemble("LDI.L R3, 0x12345")
	if err != nil {
		t.Fatalf("Assemble error = %v", err)
	}
	opcode, operands := Disassemble(w, 16)
	if opcode != "LDI.L" {
		t.Fatalf("opcode = %q, want LDI.L", opcode)
	}
	if operands != fmt.Sprintf("R3, 0x%x", 0x12345) {
		t.Fatalf("operands = %q", operands)
	}
}

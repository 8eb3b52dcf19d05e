package asm

import (
	"testing"

	"github.com/twin64/t64sim/bitfield"
	"github.com/twin64/t64sim/isa"
)

func TestAssembleALU(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		check func(t *testing.T, w bitfield.Instr)
	}{
		{"nop", "NOP", func(t *testing.T, w bitfield.Instr) {
			if bitfield.OpFamily(w) != isa.FamNOP {
				t.Fatalf("family = %d, want FamNOP", bitfield.OpFamily(w))
			}
		}},
		{"add_reg", "ADD R1, R2, R3", func(t *testing.T, w bitfield.Instr) {
			if bitfield.RegR(w) != 1 || bitfield.RegB(w) != 2 || bitfield.RegA(w) != 3 {
				t.Fatalf("regs = %d,%d,%d", bitfield.RegR(w), bitfield.RegB(w), bitfield.RegA(w))
			}
			if bitfield.Bit(w, 19) == 0 {
				t.Fatalf("expected register-form bit set")
			}
		}},
		{"add_imm", "ADD R1, R2, 5", func(t *testing.T, w bitfield.Instr) {
			if bitfield.Bit(w, 19) != 0 {
				t.Fatalf("expected immediate form")
			}
			if bitfield.Imm13(w) != 5 {
				t.Fatalf("Imm13 = %d, want 5", bitfield.Imm13(w))
			}
		}},
		{"and_flags", "AND.C.N R1, R2, R3", func(t *testing.T, w bitfield.Instr) {
			if bitfield.Bit(w, 20) == 0 || bitfield.Bit(w, 21) == 0 {
				t.Fatalf("expected C and N bits set")
			}
		}},
		{"cmp_lt", "CMP.LT R1, R2, R3", func(t *testing.T, w bitfield.Instr) {
			if bitfield.Field(w, 20, 2) != isa.CmpLT {
				t.Fatalf("cmp field = %d, want CmpLT", bitfield.Field(w, 20, 2))
			}
		}},
		{"extr_sar", "EXTR.S R1, R2, SAR, 8", func(t *testing.T, w bitfield.Instr) {
			if bitfield.Opt1(w) != isa.SubEXTR {
				t.Fatalf("opt1 = %d, want SubEXTR", bitfield.Opt1(w))
			}
			if bitfield.Bit(w, 13) == 0 {
				t.Fatalf("expected SAR bit set")
			}
			if bitfield.Field(w, 0, 6) != 8 {
				t.Fatalf("length = %d, want 8", bitfield.Field(w, 0, 6))
			}
		}},
		{"dep_reg", "DEP R1, R2, 4, 8", func(t *testing.T, w bitfield.Instr) {
			if bitfield.Opt1(w) != isa.SubDEP {
				t.Fatalf("opt1 = %d, want SubDEP", bitfield.Opt1(w))
			}
			if bitfield.Bit(w, 12) != 0 {
				t.Fatalf("expected register form (bit12 clear)")
			}
		}},
		{"dep_imm", "DEP R1, 5, 10", func(t *testing.T, w bitfield.Instr) {
			if bitfield.Bit(w, 12) == 0 {
				t.Fatalf("expected immediate form (bit12 set)")
			}
			if bitfield.Field(w, 0, 4) != 5 {
				t.Fatalf("imm = %d, want 5", bitfield.Field(w, 0, 4))
			}
			if bitfield.Field(w, 6, 6) != 10 {
				t.Fatalf("pos = %d, want 10", bitfield.Field(w, 6, 6))
			}
		}},
		{"dsr", "DSR R1, R2, R3, 4", func(t *testing.T, w bitfield.Instr) {
			if bitfield.Opt1(w) != isa.SubDSR {
				t.Fatalf("opt1 = %d, want SubDSR", bitfield.Opt1(w))
			}
		}},
		{"shadd_imm", "SHL2A.I R1, R2, 100", func(t *testing.T, w bitfield.Instr) {
			if bitfield.Opt1(w) != isa.SubSHL2A {
				t.Fatalf("opt1 = %d, want SubSHL2A", bitfield.Opt1(w))
			}
			if bitfield.Imm13(w) != 100 {
				t.Fatalf("imm = %d, want 100", bitfield.Imm13(w))
			}
		}},
		{"ldi_plain", "LDI R3, 0x12345", func(t *testing.T, w bitfield.Instr) {
			if bitfield.Field(w, 20, 2) != 0 {
				t.Fatalf("sel = %d, want 0", bitfield.Field(w, 20, 2))
			}
		}},
		{"ldi_l", "LDI.L R3, 0x12345", func(t *testing.T, w bitfield.Instr) {
			if bitfield.Field(w, 20, 2) != 1 {
				t.Fatalf("sel = %d, want 1", bitfield.Field(w, 20, 2))
			}
			if bitfield.Imm20U(w) != 0x12345 {
				t.Fatalf("imm20 = %#x, want 0x12345", bitfield.Imm20U(w))
			}
		}},
		{"addil", "ADDIL R1, 0x100", func(t *testing.T, w bitfield.Instr) {
			if bitfield.Imm20U(w) != 0x100 {
				t.Fatalf("imm20 = %#x, want 0x100", bitfield.Imm20U(w))
			}
		}},
		{"ldo", "LDO R1, 16(R2)", func(t *testing.T, w bitfield.Instr) {
			if bitfield.Imm13(w) != 16 {
				t.Fatalf("imm13 = %d, want 16", bitfield.Imm13(w))
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := Assemble(tt.src)
			if err != nil {
				t.Fatalf("Assemble(%q) error = %v", tt.src, err)
			}
			tt.check(t, w)
		})
	}
}

func TestAssembleMem(t *testing.T) {
	tests := []struct {
		name string
		src  string
		dw   int
	}{
		{"ld_byte", "LD.B R1, 1(R2)", bitfield.DWByte},
		{"ld_word_default", "LD R1, 8(R2)", bitfield.DWWord},
		{"st_half", "ST.H R1, 2(R2)", bitfield.DWHalf},
		{"ldr_double", "LDR.D R1, 8(R2)", bitfield.DWDoubleword},
		{"stc_index", "STC.W R1, R3(R2)", bitfield.DWWord},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := Assemble(tt.src)
			if err != nil {
				t.Fatalf("Assemble(%q) error = %v", tt.src, err)
			}
			if bitfield.DW(w) != tt.dw {
				t.Fatalf("DW = %d, want %d", bitfield.DW(w), tt.dw)
			}
		})
	}
}

func TestAssembleMemMisaligned(t *testing.T) {
	_, err := Assemble("LD.D R1, 3(R2)")
	if err == nil || err.Kind != ErrMisalignedOffset {
		t.Fatalf("err = %v, want ErrMisalignedOffset", err)
	}
}

func TestAssembleBranch(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"b", "B 16"},
		{"b_link", "B 16, R1"},
		{"b_gateway", "B.G 16"},
		{"br", "BR R2"},
		{"br_indexed", "BR R2, R3"},
		{"bv", "BV R2, R3"},
		{"be", "BE 8(R2)"},
		{"bb", "BB.EQ R2, 4, 16"},
		{"cbr", "CBR.LT R1, R2, 20"},
		{"mbr", "MBR.GE R1, R2, 20"},
		{"abr", "ABR.NE R1, R2, 20"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Assemble(tt.src); err != nil {
				t.Fatalf("Assemble(%q) error = %v", tt.src, err)
			}
		})
	}
}

func TestAssembleBranchMisaligned(t *testing.T) {
	_, err := Assemble("B 15")
	if err == nil || err.Kind != ErrMisalignedOffset {
		t.Fatalf("err = %v, want ErrMisalignedOffset", err)
	}
}

func TestAssembleBranchMissingCondition(t *testing.T) {
	_, err := Assemble("BB R2, 4, 16")
	if err == nil || err.Kind != ErrUnknownCondition {
		t.Fatalf("err = %v, want ErrUnknownCondition", err)
	}
}

func TestAssembleSys(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"mfcr", "MFCR R1, C2"},
		{"mtcr", "MTCR C2, R1"},
		{"mfia", "MFIA R1"},
		{"rsm", "RSM 0xFF"},
		{"ssm", "SSM 0xFF"},
		{"lpa", "LPA R1, R2"},
		{"prb", "PRB.W R1, R2"},
		{"itlb", "ITLB.D.U.W R1, R2, R3, 5"},
		{"ptlb", "PTLB.D R1, R2"},
		{"pca", "PCA.D R2"},
		{"fca", "FCA R2"},
		{"rfi", "RFI"},
		{"diag", "DIAG 5"},
		{"trap_full", "TRAP 2, 10"},
		{"trap_no_info", "TRAP 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Assemble(tt.src); err != nil {
				t.Fatalf("Assemble(%q) error = %v", tt.src, err)
			}
		})
	}
}

func TestAssembleErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind Kind
	}{
		{"unknown_mnemonic", "FROB R1, R2", ErrUnknownMnemonic},
		{"missing_comma", "ADD R1 R2, R3", ErrExpectedComma},
		{"bad_option", "AND.Q R1, R2, R3", ErrOptionNotAllowed},
		{"conflicting_option", "CMP.EQ.LT R1, R2, R3", ErrConflictingOption},
		{"duplicate_option", "AND.C.C R1, R2, R3", ErrDuplicateOption},
		{"trailing_garbage", "NOP extra", ErrTrailingGarbage},
		{"out_of_range_imm", "ADD R1, R2, 99999", ErrValueOutOfRange},
		{"expected_register", "ADD 1, R2, R3", ErrExpectedRegister},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Assemble(tt.src)
			if err == nil {
				t.Fatalf("Assemble(%q) succeeded, want %v", tt.src, tt.kind)
			}
			if err.Kind != tt.kind {
				t.Fatalf("Assemble(%q) kind = %v, want %v", tt.src, err.Kind, tt.kind)
			}
		})
	}
}

func TestAssembleCaseInsensitive(t *testing.T) {
	w1, err := Assemble("add r1, r2, r3")
	if err != nil {
		t.Fatalf("Assemble lowercase error = %v", err)
	}
	w2, err := Assemble("ADD R1, R2, R3")
	if err != nil {
		t.Fatalf("Assemble uppercase error = %v", err)
	}
	if w1 != w2 {
		t.Fatalf("case-insensitive forms disagree: %#x vs %#x", w1, w2)
	}
}

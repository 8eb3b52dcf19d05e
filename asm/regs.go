package asm

import (
	"strconv"
	"strings"
)

// Register aliases accepted alongside R0..R15. R0 is the hardwired zero
// register; R1 is SAR; R2..R4 are the link/data/stack pointers; R5..R8
// double as both the argument and return-value registers (argument
// registers become scratch/return registers across a call) and as
// T0..T3; R9..R11 are T4..T6; R12..R15 carry no alias.
var gRegAliases = map[string]int{
	"SAR": 1,
	"RL":  2,
	"DP":  3,
	"SP":  4,

	"ARG0": 5, "ARG1": 6, "ARG2": 7, "ARG3": 8,
	"RET0": 5, "RET1": 6, "RET2": 7, "RET3": 8,
	"T0": 5, "T1": 6, "T2": 7, "T3": 8,
	"T4": 9, "T5": 10, "T6": 11,
}

// gRegName is the canonical display name for disassembly: plain Rn, since
// the aliases are many-to-one and Rn round-trips unambiguously.
func gRegName(n int) string {
	return "R" + strconv.Itoa(n)
}

// lookupGReg resolves an identifier to a general-register number, honoring
// R0..R15 and the named aliases, case-insensitively.
func lookupGReg(ident string) (int, bool) {
	up := strings.ToUpper(ident)
	if len(up) >= 2 && len(up) <= 3 && up[0] == 'R' {
		if n, ok := parseRegDigits(up[1:]); ok && n <= 15 {
			return n, true
		}
	}
	if n, ok := gRegAliases[up]; ok {
		return n, true
	}
	return 0, false
}

// cRegName is the display name of control register n: plain Cn.
func cRegName(n int) string {
	return "C" + strconv.Itoa(n)
}

// lookupCReg resolves an identifier to a control-register number C0..C15.
func lookupCReg(ident string) (int, bool) {
	up := strings.ToUpper(ident)
	if len(up) >= 2 && len(up) <= 3 && up[0] == 'C' {
		if n, ok := parseRegDigits(up[1:]); ok && n <= 15 {
			return n, true
		}
	}
	return 0, false
}

func parseRegDigits(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

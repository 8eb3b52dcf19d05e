package cpu

import "fmt"

// Kind identifies one of the architectural trap conditions. Ordinals are
// contiguous so that a System can lay out trap handlers at fixed, evenly
// spaced addresses.
type Kind int

const (
	IllegalInstrTrap Kind = iota
	PrivViolationTrap
	ProtectionTrap
	TLBAccessTrap
	InstrAlignmentTrap
	DataAlignmentTrap
	OverflowTrap
	PhysMemAdrTrap
	MachineCheckTrap

	numTrapKinds
)

// NumKinds is the count of defined trap kinds, used by callers that lay out
// a contiguous trap vector.
const NumKinds = int(numTrapKinds)

var kindNames = [numTrapKinds]string{
	IllegalInstrTrap:   "ILLEGAL_INSTR_TRAP",
	PrivViolationTrap:  "PRIV_VIOLATION_TRAP",
	ProtectionTrap:     "PROTECTION_TRAP",
	TLBAccessTrap:      "TLB_ACCESS_TRAP",
	InstrAlignmentTrap: "INSTR_ALIGNMENT_TRAP",
	DataAlignmentTrap:  "DATA_ALIGNMENT_TRAP",
	OverflowTrap:       "OVERFLOW_TRAP",
	PhysMemAdrTrap:     "PHYS_MEM_ADR_TRAP",
	MachineCheckTrap:   "MACHINE_CHECK_TRAP",
}

// String renders the trap kind using its architectural name.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("TRAP(%d)", int(k))
	}
	return kindNames[k]
}

// Trap is the tagged result the execute path returns in place of an
// exception: a kind plus up to three architecture-defined info words,
// recorded into control-register state by Step before the PSW is
// redirected to the trap handler.
type Trap struct {
	Kind  Kind
	Info1 Word
	Info2 Word
	Info3 Word
}

// NewTrap constructs a Trap with the given kind and optional info words.
func NewTrap(kind Kind, info ...Word) *Trap {
	t := &Trap{Kind: kind}
	if len(info) > 0 {
		t.Info1 = info[0]
	}
	if len(info) > 1 {
		t.Info2 = info[1]
	}
	if len(info) > 2 {
		t.Info3 = info[2]
	}
	return t
}

// Error implements the error interface so Trap can be returned directly
// from Step and the execute path without panics or exceptions.
func (t *Trap) Error() string {
	return fmt.Sprintf("%s(info1=%#x, info2=%#x, info3=%#x)", t.Kind, t.Info1, t.Info2, t.Info3)
}

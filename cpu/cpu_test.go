package cpu

import (
	"testing"

	"github.com/twin64/t64sim/asm"
	"github.com/twin64/t64sim/bitfield"
	"github.com/twin64/t64sim/cache"
	"github.com/twin64/t64sim/isa"
	"github.com/twin64/t64sim/tlb"
)

// flatBus is a minimal BusPort backed by a flat byte slice, standing in
// for the system bus in CPU-level tests.
type flatBus struct{ mem []byte }

func newFlatBus(size int) *flatBus { return &flatBus{mem: make([]byte, size)} }

func (b *flatBus) ReadSharedBlock(_ int, pAdr Word, data []byte) error {
	copy(data, b.mem[pAdr:int(pAdr)+len(data)])
	return nil
}
func (b *flatBus) ReadPrivateBlock(_ int, pAdr Word, data []byte) error {
	copy(data, b.mem[pAdr:int(pAdr)+len(data)])
	return nil
}
func (b *flatBus) WriteBlock(_ int, pAdr Word, data []byte) error {
	copy(b.mem[pAdr:int(pAdr)+len(data)], data)
	return nil
}
func (b *flatBus) ReadUncached(_ int, pAdr Word, length int) (Word, error) {
	var v uint64
	for i := 0; i < length; i++ {
		v |= uint64(b.mem[int(pAdr)+i]) << (8 * uint(i))
	}
	return Word(v), nil
}
func (b *flatBus) WriteUncached(_ int, pAdr Word, length int, val Word) error {
	v := uint64(val)
	for i := 0; i < length; i++ {
		b.mem[int(pAdr)+i] = byte(v >> (8 * uint(i)))
	}
	return nil
}

// newTestCPU builds a CPU with a direct-physical-addressing window
// covering all of test memory, so tests can drive it without TLB setup.
func newTestCPU(t *testing.T) (*CPU, *flatBus) {
	t.Helper()
	bus := newFlatBus(1 << 20)
	ic, err := cache.New(cache.Type{Ways: 2, Sets: 64, LineSize: 32}, bus, 0, 1<<20, 1<<20)
	if err != nil {
		t.Fatal(err)
	}
	dc, err := cache.New(cache.Type{Ways: 2, Sets: 64, LineSize: 32}, bus, 0, 1<<20, 1<<20)
	if err != nil {
		t.Fatal(err)
	}
	c := &CPU{
		ITLB:       tlb.New(8),
		DTLB:       tlb.New(8),
		ICache:     ic,
		DCache:     dc,
		PhysStart:  0,
		PhysLimit:  1 << 20,
		TrapBase:   0x100,
		TrapStride: 0x10,
	}
	c.Regs.SetUserMode(false)
	return c, bus
}

func encodeALU(family, regR, regB, regA int, opt1 int, extra bitfield.Instr) bitfield.Instr {
	var instr bitfield.Instr
	bitfield.DepositField(&instr, bitfield.PosOpGroup, bitfield.LenOpGroup, bitfield.OpGroupALU)
	bitfield.DepositField(&instr, bitfield.PosOpFamily, bitfield.LenOpFamily, uint32(family))
	bitfield.SetRegR(&instr, uint32(regR))
	bitfield.SetRegB(&instr, uint32(regB))
	bitfield.SetRegA(&instr, uint32(regA))
	bitfield.DepositField(&instr, bitfield.PosOpt1, bitfield.LenOpt1, uint32(opt1))
	instr |= extra
	return instr
}

func storeAt(t *testing.T, c *CPU, addr Word, instr bitfield.Instr) {
	t.Helper()
	if err := c.DCache.Write(addr, 4, Word(instr), false); err != nil {
		t.Fatal(err)
	}
}

func TestAddAndPSWAdvance(t *testing.T) {
	c, _ := newTestCPU(t)
	c.Regs.SetIA(0x1000)
	c.Regs.SetGeneral(1, 5)
	c.Regs.SetGeneral(2, 7)
	// ADD R3, R1, R2 (register form: bit 19 set)
	instr := encodeALU(0 /*FamADD*/, 3, 1, 2, 0, 1<<19)
	storeAt(t, c, 0x1000, instr)

	if err := c.Step(); err != nil {
		t.Fatal(err)
	}
	if got := c.Regs.GetGeneral(3); got != 12 {
		t.Fatalf("R3 = %d, want 12", got)
	}
	if got := c.Regs.IA(); got != 0x1004 {
		t.Fatalf("IA = %#x, want 0x1004", got)
	}
}

func TestR0Invariance(t *testing.T) {
	c, _ := newTestCPU(t)
	c.Regs.SetGeneral(0, 99)
	if got := c.Regs.GetGeneral(0); got != 0 {
		t.Fatalf("R0 = %d, want 0", got)
	}
}

func TestAddOverflowTraps(t *testing.T) {
	c, _ := newTestCPU(t)
	c.Regs.SetIA(0x2000)
	c.Regs.SetGeneral(1, 1<<62)
	c.Regs.SetGeneral(2, 1<<62)
	instr := encodeALU(0 /*FamADD*/, 3, 1, 2, 0, 1<<19)
	storeAt(t, c, 0x2000, instr)

	if err := c.Step(); err != nil {
		t.Fatal(err)
	}
	if got := c.Regs.GetGeneral(3); got != 0 {
		t.Fatalf("R3 = %d, want unchanged 0", got)
	}
	if got := c.Regs.IA(); got != c.TrapBase+Word(OverflowTrap)*c.TrapStride {
		t.Fatalf("IA = %#x, want overflow trap handler", got)
	}
}

func TestInstrAlignmentTrap(t *testing.T) {
	c, _ := newTestCPU(t)
	c.Regs.SetIA(0x3001)
	if err := c.Step(); err != nil {
		t.Fatal(err)
	}
	if got := c.Regs.IA(); got != c.TrapBase+Word(InstrAlignmentTrap)*c.TrapStride {
		t.Fatalf("IA = %#x, want instr-alignment trap handler", got)
	}
}

func TestLoadStoreRoundTrip(t *testing.T) {
	c, _ := newTestCPU(t)
	c.Regs.SetGeneral(1, 0x4000) // base register
	c.Regs.SetGeneral(2, 0xCAFEBABE)

	// ST R2, 0(R1): MEM group, FamST=1, imm-form (bit19=0), DW=word(2).
	var st bitfield.Instr
	bitfield.DepositField(&st, bitfield.PosOpGroup, bitfield.LenOpGroup, bitfield.OpGroupMEM)
	bitfield.DepositField(&st, bitfield.PosOpFamily, bitfield.LenOpFamily, 1)
	bitfield.SetRegR(&st, 2)
	bitfield.SetRegB(&st, 1)
	bitfield.DepositField(&st, bitfield.PosDW, bitfield.LenDW, bitfield.DWWord)
	c.Regs.SetIA(0x5000)
	storeAt(t, c, 0x5000, st)
	if err := c.Step(); err != nil {
		t.Fatal(err)
	}

	// LD R3, 0(R1)
	var ld bitfield.Instr
	bitfield.DepositField(&ld, bitfield.PosOpGroup, bitfield.LenOpGroup, bitfield.OpGroupMEM)
	bitfield.DepositField(&ld, bitfield.PosOpFamily, bitfield.LenOpFamily, 0)
	bitfield.SetRegR(&ld, 3)
	bitfield.SetRegB(&ld, 1)
	bitfield.DepositField(&ld, bitfield.PosDW, bitfield.LenDW, bitfield.DWWord)
	storeAt(t, c, 0x5004, ld)
	if err := c.Step(); err != nil {
		t.Fatal(err)
	}
	if got := c.Regs.GetGeneral(3); got != 0xCAFEBABE {
		t.Fatalf("R3 = %#x, want 0xCAFEBABE", got)
	}
}

func TestLogicalMemForm(t *testing.T) {
	c, _ := newTestCPU(t)
	c.Regs.SetGeneral(1, 0x7000)   // base register
	c.Regs.SetGeneral(3, 0xFF00FF) // R3 is both val1 and the destination

	// ST R2, 0(R1): stash 0x00FF00 at 0x7000 for the mem operand.
	c.Regs.SetGeneral(2, 0x00FF00)
	var st bitfield.Instr
	bitfield.DepositField(&st, bitfield.PosOpGroup, bitfield.LenOpGroup, bitfield.OpGroupMEM)
	bitfield.DepositField(&st, bitfield.PosOpFamily, bitfield.LenOpFamily, 1 /*FamST*/)
	bitfield.SetRegR(&st, 2)
	bitfield.SetRegB(&st, 1)
	bitfield.DepositField(&st, bitfield.PosDW, bitfield.LenDW, bitfield.DWWord)
	c.Regs.SetIA(0x7000)
	storeAt(t, c, 0x7000, st)
	if err := c.Step(); err != nil {
		t.Fatal(err)
	}

	// AND R3, 0(R1): MEM group, FamANDM=4, imm-form, DW=word.
	var and bitfield.Instr
	bitfield.DepositField(&and, bitfield.PosOpGroup, bitfield.LenOpGroup, bitfield.OpGroupMEM)
	bitfield.DepositField(&and, bitfield.PosOpFamily, bitfield.LenOpFamily, 4 /*FamANDM*/)
	bitfield.SetRegR(&and, 3)
	bitfield.SetRegB(&and, 1)
	bitfield.DepositField(&and, bitfield.PosDW, bitfield.LenDW, bitfield.DWWord)
	storeAt(t, c, 0x7004, and)
	if err := c.Step(); err != nil {
		t.Fatal(err)
	}
	if got := c.Regs.GetGeneral(3); got != 0x0 {
		t.Fatalf("R3 = %#x, want 0x0 (0xFF00FF & 0x00FF00)", got)
	}
}

// stepLine assembles one source line, stores it at addr, and executes it.
func stepLine(t *testing.T, c *CPU, addr Word, line string) {
	t.Helper()
	w, err := asm.Assemble(line)
	if err != nil {
		t.Fatalf("Assemble(%q) error = %v", line, err)
	}
	c.Regs.SetIA(addr)
	storeAt(t, c, addr, w)
	if serr := c.Step(); serr != nil {
		t.Fatal(serr)
	}
}

// TestBitfieldThroughAssembler runs EXTR and DSR words produced by the
// real assembler, so the encoder and the decoder are checked against each
// other rather than against hand-built words.
func TestBitfieldThroughAssembler(t *testing.T) {
	c, _ := newTestCPU(t)
	c.Regs.SetGeneral(2, 0x00FF_0000)

	stepLine(t, c, 0x8000, "EXTR R3, R2, 16, 8")
	if got := c.Regs.GetGeneral(3); got != 0xFF {
		t.Fatalf("EXTR result = %#x, want 0xFF", got)
	}

	// Same extraction, position taken from SAR (R1).
	c.Regs.SetGeneral(1, 16)
	stepLine(t, c, 0x8010, "EXTR R4, R2, SAR, 8")
	if got := c.Regs.GetGeneral(4); got != 0xFF {
		t.Fatalf("EXTR via SAR result = %#x, want 0xFF", got)
	}

	// (R5:R6) >> 8: the low byte of R5 becomes the top byte of the result.
	c.Regs.SetGeneral(5, 1)
	c.Regs.SetGeneral(6, 0)
	stepLine(t, c, 0x8020, "DSR R7, R5, R6, 8")
	if got := c.Regs.GetGeneral(7); got != 0x0100_0000_0000_0000 {
		t.Fatalf("DSR result = %#x, want 0x0100000000000000", got)
	}
}

func TestPRBDistinguishesReadOnly(t *testing.T) {
	c, _ := newTestCPU(t)
	c.DTLB.Insert(tlb.Entry{VPage: pageBase(0x9000_0000), PPage: pageBase(0x20_0000), PID: 0, Access: tlb.AccessReadOnly})
	c.Regs.SetGeneral(1, 0x9000_0000)

	probe := func(write bool) Word {
		var instr bitfield.Instr
		bitfield.DepositField(&instr, bitfield.PosOpGroup, bitfield.LenOpGroup, bitfield.OpGroupSYS)
		bitfield.DepositField(&instr, bitfield.PosOpFamily, bitfield.LenOpFamily, uint32(isa.FamPRB))
		bitfield.SetRegR(&instr, 2)
		bitfield.SetRegB(&instr, 1)
		if write {
			instr |= 1 << 19
		}
		c.Regs.SetIA(0x4000)
		storeAt(t, c, 0x4000, instr)
		if err := c.Step(); err != nil {
			t.Fatal(err)
		}
		return c.Regs.GetGeneral(2)
	}

	if got := probe(false); got != 1 {
		t.Fatalf("PRB read on read-only page = %d, want 1", got)
	}
	if got := probe(true); got != 0 {
		t.Fatalf("PRB.W write on read-only page = %d, want 0", got)
	}
}

func TestUserModeProtectionTrap(t *testing.T) {
	c, _ := newTestCPU(t)
	c.PhysLimit = 0 // force all accesses through the TLB in this test

	// CR4 low PID = 9: fetches tagged PID 9 are permitted in user mode.
	c.Regs.SetControl(4, 9<<1)
	c.ITLB.Insert(tlb.Entry{VPage: pageBase(0x6000), PPage: pageBase(0x6000), PID: 9})
	// Data page tagged PID 5, which matches no configured CR PID.
	c.DTLB.Insert(tlb.Entry{VPage: pageBase(0x8000_0000), PPage: pageBase(0x10_0000), PID: 5})

	c.Regs.SetGeneral(1, 0x8000_0000)
	c.Regs.SetGeneral(2, 0xAA)

	var st bitfield.Instr
	bitfield.DepositField(&st, bitfield.PosOpGroup, bitfield.LenOpGroup, bitfield.OpGroupMEM)
	bitfield.DepositField(&st, bitfield.PosOpFamily, bitfield.LenOpFamily, 1)
	bitfield.SetRegR(&st, 2)
	bitfield.SetRegB(&st, 1)
	bitfield.DepositField(&st, bitfield.PosDW, bitfield.LenDW, bitfield.DWByte)
	storeAt(t, c, 0x6000, st)

	c.Regs.SetUserMode(true)
	c.Regs.SetIA(0x6000)

	if err := c.Step(); err != nil {
		t.Fatal(err)
	}
	if got := c.Regs.IA(); got != c.TrapBase+Word(ProtectionTrap)*c.TrapStride {
		t.Fatalf("IA = %#x, want protection trap handler", got)
	}
}

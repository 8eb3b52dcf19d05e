// Package system assembles the Twin-64 processor, memory and I/O modules
// onto a shared bus, and exposes the programmatic debugger API: reset,
// multi-processor step, register/PSW/memory access, TLB and cache
// maintenance.
package system

import (
	"fmt"

	"github.com/twin64/t64sim/bitfield"
	"github.com/twin64/t64sim/bus"
)

// Word is the 64-bit signed architectural value.
type Word = bitfield.Word

// hpaRegisters is the common low register layout shared by every module's
// HPA: status, command, HPA base, SPA base, SPA length, element count,
// hardware version, software version, interrupt target.
type hpaRegisters [9]Word

const (
	regStatus = iota
	regCommand
	regHPABase
	regSPABase
	regSPALen
	regElemCount
	regHWVersion
	regSWVersion
	regIntrTarget
)

// Memory is a bus-addressable RAM module: an HPA register file plus an SPA
// byte-addressable data region.
type Memory struct {
	Num              int
	HPAStart, HPALen Word
	SPAStart, SPALen Word
	regs             hpaRegisters
	data             []byte
}

// NewMemory constructs a memory module of size spaLen bytes at spaStart,
// with its register file at hpaStart.
func NewMemory(num int, hpaStart, hpaLen, spaStart, spaLen Word) *Memory {
	m := &Memory{
		Num:      num,
		HPAStart: hpaStart,
		HPALen:   hpaLen,
		SPAStart: spaStart,
		SPALen:   spaLen,
		data:     make([]byte, spaLen),
	}
	m.regs[regHPABase] = hpaStart
	m.regs[regSPABase] = spaStart
	m.regs[regSPALen] = spaLen
	m.regs[regHWVersion] = 1
	m.regs[regSWVersion] = 1
	return m
}

func (m *Memory) Number() int { return m.Num }

// Snoop is a no-op: main memory has no cache of its own to react with.
func (m *Memory) Snoop(_ bus.Op, _ int, _ Word, _ int) {}

func (m *Memory) inData(pAdr Word, length int) bool {
	return pAdr >= m.SPAStart && int64(pAdr-m.SPAStart)+int64(length) <= int64(m.SPALen)
}

func (m *Memory) inHPA(pAdr Word) bool {
	return pAdr >= m.HPAStart && pAdr < m.HPAStart+m.HPALen
}

func (m *Memory) ServeBlockRead(pAdr Word, data []byte) error {
	if !m.inData(pAdr, len(data)) {
		return fmt.Errorf("system: memory[%d]: block read %#x out of range", m.Num, pAdr)
	}
	off := pAdr - m.SPAStart
	copy(data, m.data[off:int(off)+len(data)])
	return nil
}

func (m *Memory) ServeBlockWrite(pAdr Word, data []byte) error {
	if !m.inData(pAdr, len(data)) {
		return fmt.Errorf("system: memory[%d]: block write %#x out of range", m.Num, pAdr)
	}
	off := pAdr - m.SPAStart
	copy(m.data[off:int(off)+len(data)], data)
	return nil
}

func (m *Memory) ServeUncachedRead(pAdr Word, length int) (Word, error) {
	if m.inHPA(pAdr) {
		idx := int(pAdr-m.HPAStart) / 8
		if idx < 0 || idx >= len(m.regs) {
			return 0, fmt.Errorf("system: memory[%d]: register %#x out of range", m.Num, pAdr)
		}
		return m.regs[idx], nil
	}
	if !m.inData(pAdr, length) {
		return 0, fmt.Errorf("system: memory[%d]: uncached read %#x out of range", m.Num, pAdr)
	}
	off := int(pAdr - m.SPAStart)
	return extractBytes(m.data[off:], length), nil
}

func (m *Memory) ServeUncachedWrite(pAdr Word, length int, val Word) error {
	if m.inHPA(pAdr) {
		idx := int(pAdr-m.HPAStart) / 8
		if idx < 0 || idx >= len(m.regs) {
			return fmt.Errorf("system: memory[%d]: register %#x out of range", m.Num, pAdr)
		}
		m.regs[idx] = val
		return nil
	}
	if !m.inData(pAdr, length) {
		return fmt.Errorf("system: memory[%d]: uncached write %#x out of range", m.Num, pAdr)
	}
	off := int(pAdr - m.SPAStart)
	depositBytes(m.data[off:], length, val)
	return nil
}

// IOModule is a register-mapped I/O stub: HPA registers only, no SPA data
// region.
type IOModule struct {
	Num              int
	HPAStart, HPALen Word
	regs             hpaRegisters
}

// NewIOModule constructs a stub I/O module with its register file at
// hpaStart.
func NewIOModule(num int, hpaStart, hpaLen Word) *IOModule {
	m := &IOModule{Num: num, HPAStart: hpaStart, HPALen: hpaLen}
	m.regs[regHPABase] = hpaStart
	m.regs[regHWVersion] = 1
	m.regs[regSWVersion] = 1
	return m
}

func (m *IOModule) Number() int                       { return m.Num }
func (m *IOModule) Snoop(_ bus.Op, _ int, _ Word, _ int) {}

func (m *IOModule) regIndex(pAdr Word) (int, bool) {
	if pAdr < m.HPAStart || pAdr >= m.HPAStart+m.HPALen {
		return 0, false
	}
	idx := int(pAdr-m.HPAStart) / 8
	return idx, idx < len(m.regs)
}

func (m *IOModule) ServeBlockRead(pAdr Word, data []byte) error {
	return fmt.Errorf("system: io[%d]: %w", m.Num, bus.ErrWrongType)
}

func (m *IOModule) ServeBlockWrite(pAdr Word, data []byte) error {
	return fmt.Errorf("system: io[%d]: %w", m.Num, bus.ErrWrongType)
}

func (m *IOModule) ServeUncachedRead(pAdr Word, length int) (Word, error) {
	idx, ok := m.regIndex(pAdr)
	if !ok {
		return 0, fmt.Errorf("system: io[%d]: register %#x out of range", m.Num, pAdr)
	}
	return m.regs[idx], nil
}

func (m *IOModule) ServeUncachedWrite(pAdr Word, length int, val Word) error {
	idx, ok := m.regIndex(pAdr)
	if !ok {
		return fmt.Errorf("system: io[%d]: register %#x out of range", m.Num, pAdr)
	}
	m.regs[idx] = val
	return nil
}

func extractBytes(data []byte, length int) Word {
	var v uint64
	for i := 0; i < length; i++ {
		v |= uint64(data[i]) << (8 * uint(i))
	}
	return Word(v)
}

func depositBytes(data []byte, length int, val Word) {
	v := uint64(val)
	for i := 0; i < length; i++ {
		data[i] = byte(v >> (8 * uint(i)))
	}
}

// Package tlb implements the fully-associative translation lookaside
// buffer: linear-scan lookup, first-free-slot insertion, and exact-match
// purge, one instance per processor for each of the instruction and data
// sides.
package tlb

import (
	"fmt"

	"github.com/twin64/t64sim/bitfield"
)

// Word is the 64-bit signed architectural value.
type Word = bitfield.Word

// AccessRights is the TLB entry's access-rights code: the kind of access a
// successful translation permits.
type AccessRights uint8

const (
	AccessReadOnly AccessRights = iota
	AccessReadWrite
	AccessExecute
	AccessGateway
)

// Entry is one translation: a virtual page mapped to a physical page,
// tagged with the protection identifier that access must match, the
// access-rights code PRB and the protection check consult, and an uncached
// flag the cache layer honors on every access through this translation.
type Entry struct {
	Valid    bool
	VPage    Word
	PPage    Word
	PID      uint32
	Uncached bool
	Access   AccessRights
}

// TLB is a fully-associative set of translation entries. hwm is one past
// the highest slot ever made valid; lookups scan only up to it.
type TLB struct {
	entries []Entry
	hwm     int
}

// New constructs a TLB with the given number of entries.
func New(size int) *TLB {
	return &TLB{entries: make([]Entry, size)}
}

// Size returns the number of entries in the TLB.
func (t *TLB) Size() int { return len(t.entries) }

// Reset invalidates every entry.
func (t *TLB) Reset() {
	for i := range t.entries {
		t.entries[i] = Entry{}
	}
	t.hwm = 0
}

// Lookup scans for a valid translation of vPage. A fully-associative TLB
// has no index to hash into, so this is a plain linear scan over the
// populated prefix.
func (t *TLB) Lookup(vPage Word) (Entry, bool) {
	for _, e := range t.entries[:t.hwm] {
		if e.Valid && e.VPage == vPage {
			return e, true
		}
	}
	return Entry{}, false
}

// Insert installs entry into the first free (invalid) slot. A full TLB
// evicts slot 0: the simplest deterministic policy that never silently
// drops an insert.
func (t *TLB) Insert(e Entry) int {
	e.Valid = true
	for i := range t.entries {
		if !t.entries[i].Valid {
			t.entries[i] = e
			if i+1 > t.hwm {
				t.hwm = i + 1
			}
			return i
		}
	}
	t.entries[0] = e
	return 0
}

// Purge invalidates the entry matching vPage exactly, if present, and
// reports whether one was found.
func (t *TLB) Purge(vPage Word) bool {
	for i := range t.entries[:t.hwm] {
		if t.entries[i].Valid && t.entries[i].VPage == vPage {
			t.entries[i] = Entry{}
			return true
		}
	}
	return false
}

// GetEntry returns the raw entry at index, for debugger-style inspection.
func (t *TLB) GetEntry(index int) (Entry, error) {
	if index < 0 || index >= len(t.entries) {
		return Entry{}, fmt.Errorf("tlb: index %d out of range [0,%d)", index, len(t.entries))
	}
	return t.entries[index], nil
}

// SetEntry installs entry directly at index, for diagnostic/debugger use.
func (t *TLB) SetEntry(index int, e Entry) error {
	if index < 0 || index >= len(t.entries) {
		return fmt.Errorf("tlb: index %d out of range [0,%d)", index, len(t.entries))
	}
	if e.Valid && index+1 > t.hwm {
		t.hwm = index + 1
	}
	t.entries[index] = e
	return nil
}

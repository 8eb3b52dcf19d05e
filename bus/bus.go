// Package bus implements the system bus and address map: the five bus
// operations, address-routed delivery to the owning module, and
// synchronous snoop fan-out to every other registered module.
package bus

import (
	"errors"
	"fmt"
	"sort"

	"github.com/twin64/t64sim/bitfield"
)

// Word is the 64-bit signed architectural value.
type Word = bitfield.Word

// Op identifies one of the five bus operations, passed to Snoop so a
// module's caches can apply the right coherence reaction.
type Op int

const (
	OpReadShared Op = iota
	OpReadPrivate
	OpWriteBlock
	OpReadUncached
	OpWriteUncached
)

// ErrNoRoute is returned when an address maps to no registered module.
var ErrNoRoute = errors.New("bus: address maps to no module")

// ErrWrongType is returned when the routed module cannot serve the
// requested operation (e.g. an uncached op at a non-Target module).
var ErrWrongType = errors.New("bus: module cannot serve operation")

// Module is anything registered on the bus for coherence snoop fan-out: at
// minimum, every Processor's cache pair.
type Module interface {
	Number() int
	Snoop(op Op, originator int, pAdr Word, length int)
}

// Target is a Module that also owns an addressable physical range and can
// serve bus operations routed to it (Memory and IO modules).
type Target interface {
	Module
	ServeBlockRead(pAdr Word, data []byte) error
	ServeBlockWrite(pAdr Word, data []byte) error
	ServeUncachedRead(pAdr Word, length int) (Word, error)
	ServeUncachedWrite(pAdr Word, length int, val Word) error
}

type rangeEntry struct {
	start, length Word
	target        Target
}

// Bus routes the five block/uncached operations to the owning module via
// its address map, and fans out a synchronous snoop to every other
// registered module. The address-routed range list and the all-modules
// snoop list are kept separate: a module may snoop without owning any
// addressable range.
type Bus struct {
	ranges  []rangeEntry // sorted by start, non-overlapping
	modules []Module     // every registered module, for snoop fan-out
}

// New constructs an empty bus.
func New() *Bus { return &Bus{} }

// AddTarget registers a module as the owner of [start, start+length) and
// as a snoop recipient.
func (b *Bus) AddTarget(t Target, start, length Word) error {
	if err := b.checkOverlap(start, length); err != nil {
		return err
	}
	b.ranges = append(b.ranges, rangeEntry{start, length, t})
	sort.Slice(b.ranges, func(i, j int) bool { return b.ranges[i].start < b.ranges[j].start })
	b.modules = append(b.modules, t)
	return nil
}

// AddModule registers a module as a snoop recipient only (no addressable
// range of its own): a bare processor's cache pair, for instance.
func (b *Bus) AddModule(m Module) {
	b.modules = append(b.modules, m)
}

// RemoveTarget unregisters t's address range, shifting later entries down.
func (b *Bus) RemoveTarget(t Target) {
	for i, r := range b.ranges {
		if r.target == t {
			b.ranges = append(b.ranges[:i], b.ranges[i+1:]...)
			break
		}
	}
	for i, m := range b.modules {
		if m == Module(t) {
			b.modules = append(b.modules[:i], b.modules[i+1:]...)
			break
		}
	}
}

func (b *Bus) checkOverlap(start, length Word) error {
	end := start + length
	for _, r := range b.ranges {
		rEnd := r.start + r.length
		if start < rEnd && r.start < end {
			return fmt.Errorf("bus: range [%#x,%#x) overlaps existing [%#x,%#x)", start, end, r.start, rEnd)
		}
	}
	return nil
}

// lookup finds the target owning pAdr: the first entry is checked as a
// fast path, then the sorted slice is binary-searched.
func (b *Bus) lookup(pAdr Word) (Target, error) {
	if len(b.ranges) > 0 {
		r := b.ranges[0]
		if pAdr >= r.start && pAdr < r.start+r.length {
			return r.target, nil
		}
	}
	i := sort.Search(len(b.ranges), func(i int) bool { return b.ranges[i].start+b.ranges[i].length > pAdr })
	if i < len(b.ranges) && b.ranges[i].start <= pAdr {
		return b.ranges[i].target, nil
	}
	return nil, ErrNoRoute
}

func (b *Bus) snoopOthers(op Op, originator int, pAdr Word, length int) {
	for _, m := range b.modules {
		if m.Number() != originator {
			m.Snoop(op, originator, pAdr, length)
		}
	}
}

// ReadSharedBlock serves a cache read-miss fetch for a shared copy. Other
// modules are snooped before the target is read, so an owner holding the
// line Modified writes it back first and the requester never observes
// stale data.
func (b *Bus) ReadSharedBlock(originator int, pAdr Word, data []byte) error {
	t, err := b.lookup(pAdr)
	if err != nil {
		return err
	}
	b.snoopOthers(OpReadShared, originator, pAdr, len(data))
	return t.ServeBlockRead(pAdr, data)
}

// ReadPrivateBlock serves a cache write-miss fetch for an exclusive copy,
// snooping other modules first for the same reason as ReadSharedBlock.
func (b *Bus) ReadPrivateBlock(originator int, pAdr Word, data []byte) error {
	t, err := b.lookup(pAdr)
	if err != nil {
		return err
	}
	b.snoopOthers(OpReadPrivate, originator, pAdr, len(data))
	return t.ServeBlockRead(pAdr, data)
}

// WriteBlock serves a cache write-back of an evicted or flushed line.
func (b *Bus) WriteBlock(originator int, pAdr Word, data []byte) error {
	t, err := b.lookup(pAdr)
	if err != nil {
		return err
	}
	if err := t.ServeBlockWrite(pAdr, data); err != nil {
		return err
	}
	b.snoopOthers(OpWriteBlock, originator, pAdr, len(data))
	return nil
}

// ReadUncached serves a cache-bypassing load (I/O range or explicit
// uncached access). Snoop runs before the target is read so a cache
// holding the line Modified writes it back first and the load observes
// current data.
func (b *Bus) ReadUncached(originator int, pAdr Word, length int) (Word, error) {
	t, err := b.lookup(pAdr)
	if err != nil {
		return 0, err
	}
	b.snoopOthers(OpReadUncached, originator, pAdr, length)
	return t.ServeUncachedRead(pAdr, length)
}

// WriteUncached serves a cache-bypassing store. Snoop runs first so any
// cached copy is flushed and invalidated before the store lands, leaving
// the store as the authoritative value.
func (b *Bus) WriteUncached(originator int, pAdr Word, length int, val Word) error {
	t, err := b.lookup(pAdr)
	if err != nil {
		return err
	}
	b.snoopOthers(OpWriteUncached, originator, pAdr, length)
	return t.ServeUncachedWrite(pAdr, length, val)
}

package cpu

import "github.com/twin64/t64sim/bitfield"

// fetch reads the 4-byte instruction word at virtual (or direct-physical)
// address ia: alignment check, then either the privileged physical-window
// path or the I-TLB translate/protect path, and finally the I-cache.
func (c *CPU) fetch(ia Word) (bitfield.Instr, error) {
	if err := alignmentCheck(ia, 4, InstrAlignmentTrap); err != nil {
		return 0, err
	}

	if c.isPhysicalAdrRange(ia) {
		if err := c.privModeCheck(); err != nil {
			return 0, err
		}
		w, err := c.ICache.Read(ia, 4, false)
		if err != nil {
			return 0, NewTrap(PhysMemAdrTrap, ia)
		}
		return bitfield.Instr(w), nil
	}

	entry, ok := c.ITLB.Lookup(pageBase(ia))
	if !ok {
		return 0, NewTrap(TLBAccessTrap, ia)
	}
	if err := c.protectionCheck(entry.PID, false); err != nil {
		return 0, err
	}
	pAdr := entry.PPage | pageOffset(ia)
	w, err := c.ICache.Read(pAdr, 4, !entry.Uncached)
	if err != nil {
		return 0, NewTrap(PhysMemAdrTrap, pAdr)
	}
	return bitfield.Instr(w), nil
}

// dataRead loads length bytes (1/2/4/8) from virtual address vAdr through
// the D-TLB and D-cache.
func (c *CPU) dataRead(vAdr Word, length int) (Word, error) {
	if err := alignmentCheck(vAdr, length, DataAlignmentTrap); err != nil {
		return 0, err
	}
	pAdr, cached, err := c.translateData(vAdr, false)
	if err != nil {
		return 0, err
	}
	v, err := c.DCache.Read(pAdr, length, cached)
	if err != nil {
		return 0, NewTrap(PhysMemAdrTrap, pAdr)
	}
	return v, nil
}

// dataWrite stores length bytes to virtual address vAdr through the D-TLB
// and D-cache.
func (c *CPU) dataWrite(vAdr Word, length int, val Word) error {
	if err := alignmentCheck(vAdr, length, DataAlignmentTrap); err != nil {
		return err
	}
	pAdr, cached, err := c.translateData(vAdr, true)
	if err != nil {
		return err
	}
	if err := c.DCache.Write(pAdr, length, val, cached); err != nil {
		return NewTrap(PhysMemAdrTrap, pAdr)
	}
	return nil
}

// translateData resolves a data virtual address to a physical address and
// reports whether the translation is cacheable, applying the same
// direct-physical-range bypass and TLB/protection path as fetch.
func (c *CPU) translateData(vAdr Word, write bool) (pAdr Word, cached bool, err error) {
	if c.isPhysicalAdrRange(vAdr) {
		if err := c.privModeCheck(); err != nil {
			return 0, false, err
		}
		return vAdr, false, nil
	}
	entry, ok := c.DTLB.Lookup(pageBase(vAdr))
	if !ok {
		return 0, false, NewTrap(TLBAccessTrap, vAdr)
	}
	if err := c.protectionCheck(entry.PID, write); err != nil {
		return 0, false, err
	}
	return entry.PPage | pageOffset(vAdr), !entry.Uncached, nil
}

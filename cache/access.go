package cache

import "github.com/twin64/t64sim/bitfield"

// Read performs a cached or uncached load of length bytes (1/2/4/8) from
// the physical address pAdr. I/O-range addresses, and any access with
// cached=false, bypass the cache entirely.
func (c *Cache) Read(pAdr Word, length int, cached bool) (Word, error) {
	if !bitfield.IsAligned(pAdr, length) {
		return 0, ErrAlignment
	}
	if !cached || bitfield.InRange(pAdr, c.ioStart, c.ioLimit) {
		return c.bus.ReadUncached(c.originator, pAdr, length)
	}
	return c.readCached(pAdr, length)
}

// Write performs a cached or uncached store.
func (c *Cache) Write(pAdr Word, length int, val Word, cached bool) error {
	if !bitfield.IsAligned(pAdr, length) {
		return ErrAlignment
	}
	if !cached || bitfield.InRange(pAdr, c.ioStart, c.ioLimit) {
		return c.bus.WriteUncached(c.originator, pAdr, length, val)
	}
	return c.writeCached(pAdr, length, val)
}

func (c *Cache) readCached(pAdr Word, length int) (Word, error) {
	set := c.setIndex(pAdr)
	tag := c.tag(pAdr)

	if way, ok := c.lookup(set, tag); ok {
		c.hits++
		c.plruUpdate(set, way)
		return extractBytes(c.line(way, set).Data, c.lineOfs(pAdr), length), nil
	}

	c.misses++
	way, err := c.allocate(set, tag, pAdr)
	if err != nil {
		return 0, err
	}
	return extractBytes(c.line(way, set).Data, c.lineOfs(pAdr), length), nil
}

func (c *Cache) writeCached(pAdr Word, length int, val Word) error {
	set := c.setIndex(pAdr)
	tag := c.tag(pAdr)

	way, ok := c.lookup(set, tag)
	if !ok {
		c.misses++
		var err error
		way, err = c.allocateForWrite(set, tag, pAdr)
		if err != nil {
			return err
		}
	} else {
		c.hits++
		c.plruUpdate(set, way)
		if !c.line(way, set).Modified {
			// Upgrade a shared line to exclusive before modifying it.
			if err := c.bus.ReadPrivateBlock(c.originator, c.lineBase(pAdr), c.line(way, set).Data); err != nil {
				return err
			}
		}
	}

	l := c.line(way, set)
	depositBytes(l.Data, c.lineOfs(pAdr), length, val)
	l.Modified = true
	return nil
}

// allocate services a read miss: pick a victim, write it back if modified,
// fetch a shared copy of the new block.
func (c *Cache) allocate(set int, tag uint64, pAdr Word) (int, error) {
	way := c.plruVictim(set)
	c.plruUpdate(set, way)
	l := c.line(way, set)
	if err := c.evict(l, set); err != nil {
		return 0, err
	}
	if err := c.bus.ReadSharedBlock(c.originator, c.lineBase(pAdr), l.Data); err != nil {
		return 0, err
	}
	l.Valid = true
	l.Modified = false
	l.Tag = tag
	return way, nil
}

// allocateForWrite services a write miss: pick a victim, write it back if
// modified, fetch an exclusive copy of the new block.
func (c *Cache) allocateForWrite(set int, tag uint64, pAdr Word) (int, error) {
	way := c.plruVictim(set)
	c.plruUpdate(set, way)
	l := c.line(way, set)
	if err := c.evict(l, set); err != nil {
		return 0, err
	}
	if err := c.bus.ReadPrivateBlock(c.originator, c.lineBase(pAdr), l.Data); err != nil {
		return 0, err
	}
	l.Valid = true
	l.Modified = false
	l.Tag = tag
	return way, nil
}

// evict writes a modified victim line back to memory and marks it invalid.
func (c *Cache) evict(l *Line, set int) error {
	if l.Valid && l.Modified {
		if err := c.bus.WriteBlock(c.originator, c.blockAddr(l.Tag, set), l.Data); err != nil {
			return err
		}
	}
	l.Valid = false
	l.Modified = false
	return nil
}

// Flush writes back a modified line for pAdr, if present, without
// invalidating it.
func (c *Cache) Flush(pAdr Word) error {
	set, tag := c.setIndex(pAdr), c.tag(pAdr)
	way, ok := c.lookup(set, tag)
	if !ok {
		return nil
	}
	l := c.line(way, set)
	if l.Modified {
		if err := c.bus.WriteBlock(c.originator, c.blockAddr(tag, set), l.Data); err != nil {
			return err
		}
		l.Modified = false
	}
	return nil
}

// Purge writes back a modified line for pAdr, if present, and invalidates
// it.
func (c *Cache) Purge(pAdr Word) error {
	set, tag := c.setIndex(pAdr), c.tag(pAdr)
	way, ok := c.lookup(set, tag)
	if !ok {
		return nil
	}
	if err := c.Flush(pAdr); err != nil {
		return err
	}
	c.line(way, set).Valid = false
	return nil
}

// extractBytes assembles a little-endian value from the line; sub-word
// widths zero-extend.
func extractBytes(data []byte, ofs, length int) Word {
	var v uint64
	for i := 0; i < length; i++ {
		v |= uint64(data[ofs+i]) << (8 * uint(i))
	}
	return Word(v)
}

func depositBytes(data []byte, ofs, length int, val Word) {
	v := uint64(val)
	for i := 0; i < length; i++ {
		data[ofs+i] = byte(v >> (8 * uint(i)))
	}
}

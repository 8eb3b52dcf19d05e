package cache

// Snoop reactions to another processor's bus traffic:
//   - a read-shared-block by another module: if held modified, flush it
//     (the requester and this cache may both hold it shared afterward).
//   - a read-private-block by another module: if held modified, flush it;
//     either way, invalidate (the requester now owns it exclusively).
//   - a write-block by another module: invalidate any copy we hold, since
//     main memory (and the writer) now holds the current data.

// SnoopReadShared reacts to another module's read-shared-block of pAdr.
func (c *Cache) SnoopReadShared(pAdr Word) error {
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

// SnoopReadPrivate reacts to another module's read-private-block of pAdr.
func (c *Cache) SnoopReadPrivate(pAdr Word) error {
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
	}
	l.Valid = false
	l.Modified = false
	return nil
}

// SnoopWrite reacts to another module's write-block of pAdr by flushing any
// modified copy held here, then invalidating it.
func (c *Cache) SnoopWrite(pAdr Word) error {
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
	}
	l.Valid = false
	l.Modified = false
	return nil
}

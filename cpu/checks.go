package cpu

import "github.com/twin64/t64sim/bitfield"

// privModeCheck raises PRIV_VIOLATION_TRAP unless the CPU is in privileged
// mode (PSW bit 0 clear).
func (c *CPU) privModeCheck() error {
	if c.Regs.UserMode() {
		return NewTrap(PrivViolationTrap)
	}
	return nil
}

// isPhysicalAdrRange reports whether adr falls in the configured
// direct-physical-addressing window.
func (c *CPU) isPhysicalAdrRange(adr Word) bool {
	return bitfield.InRange(adr, c.PhysStart, c.PhysLimit)
}

// protectionCheck: in user mode, pid must match one of the eight PIDs in
// CR4-CR7, and if wMode is true the matching PID's write-disable bit must
// be clear.
func (c *CPU) protectionCheck(pid uint32, wMode bool) error {
	if !c.Regs.UserMode() {
		return nil
	}
	pids := c.Regs.PIDs()
	for _, p := range pids {
		if p.PID == pid {
			if wMode && p.WriteDisable {
				return NewTrap(ProtectionTrap, Word(pid))
			}
			return nil
		}
	}
	return NewTrap(ProtectionTrap, Word(pid))
}

// alignmentCheck raises trap kind k unless adr is aligned to length bytes.
func alignmentCheck(adr Word, length int, k Kind) error {
	if !bitfield.IsAligned(adr, length) {
		return NewTrap(k, adr)
	}
	return nil
}

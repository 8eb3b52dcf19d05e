package cpu

import "testing"

func TestPIDsExtraction(t *testing.T) {
	var r Registers
	// CR4: low PID = 3 (write enabled), high PID = 9 (write disabled).
	r.SetControl(4, (9<<pidHighPos)|(1<<wrDisableHiPos)|(3<<pidLowPos))
	pids := r.PIDs()
	if pids[0].PID != 3 || pids[0].WriteDisable {
		t.Fatalf("pids[0] = %+v, want PID 3, write-enabled", pids[0])
	}
	if pids[1].PID != 9 || !pids[1].WriteDisable {
		t.Fatalf("pids[1] = %+v, want PID 9, write-disabled", pids[1])
	}
}

func TestReservation(t *testing.T) {
	var r Registers
	r.SetReservation(0x1000)
	if !r.CheckReservation(0x1000) {
		t.Fatal("expected reservation to match")
	}
	// CheckReservation consumes the reservation even on success.
	r.SetReservation(0x1000)
	r.CheckReservation(0x1000)
	if r.CheckReservation(0x1000) {
		t.Fatal("reservation should be consumed after first check")
	}
}

func TestGeneralRegisterR0(t *testing.T) {
	var r Registers
	r.SetGeneral(0, 42)
	if r.GetGeneral(0) != 0 {
		t.Fatal("R0 must read as zero regardless of writes")
	}
}

// Package tap drives a simulated IEEE 1149.1 Test Access Port: it tracks
// the 16-state TAP state machine, shifts IR/DR bit streams by toggling
// TMS/TDI on rising TAP-clock edges and sampling TDO on falling edges, and
// owns the reset sequence for the simulated device beneath it.
package tap

import (
	"fmt"

	"github.com/openhwgroup/embdebug-target-core-v/rvdbgerr"
	"github.com/openhwgroup/embdebug-target-core-v/simdevice"
)

// State is one of the sixteen standard TAP states. Numbering matches the
// reference core's internal encoding for convenience when cross-checking
// waveforms.
type State uint8

const (
	TestLogicReset State = 0x0
	RunTestIdle    State = 0x1
	SelectDRScan   State = 0x2
	CaptureDR      State = 0x3
	ShiftDR        State = 0x4
	Exit1DR        State = 0x5
	PauseDR        State = 0x6
	Exit2DR        State = 0x7
	UpdateDR       State = 0x8
	SelectIRScan   State = 0x9
	CaptureIR      State = 0xa
	ShiftIR        State = 0xb
	Exit1IR        State = 0xc
	PauseIR        State = 0xd
	Exit2IR        State = 0xe
	UpdateIR       State = 0xf

	numStates = int(UpdateIR) + 1
)

var stateNames = [numStates]string{
	"Test-Logic-Reset", "Run-Test/Idle", "Select-DR-Scan", "Capture-DR",
	"Shift-DR", "Exit1-DR", "Pause-DR", "Exit2-DR",
	"Update-DR", "Select-IR-Scan", "Capture-IR", "Shift-IR",
	"Exit1-IR", "Pause-IR", "Exit2-IR", "Update-IR",
}

func (s State) String() string {
	if int(s) < numStates {
		return stateNames[s]
	}
	return "out-of-range"
}

// nextStateTab[from][to] gives the TMS value to drive for the next TAP
// cycle while working towards state `to`, starting from state `from`.
// goto_state repeatedly looks up and applies this table until the current
// state equals the target.
var nextStateTab = [numStates][numStates]uint8{
	TestLogicReset: {1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
	RunTestIdle:    {1, 0, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
	SelectDRScan:   {1, 1, 1, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 1, 1},
	CaptureDR:      {1, 1, 1, 1, 0, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
	ShiftDR:        {1, 1, 1, 1, 0, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
	Exit1DR:        {1, 1, 1, 1, 1, 1, 0, 0, 1, 1, 1, 1, 1, 1, 1, 1},
	PauseDR:        {1, 1, 1, 1, 1, 1, 0, 1, 1, 1, 1, 1, 1, 1, 1, 1},
	Exit2DR:        {1, 1, 1, 1, 0, 0, 0, 0, 1, 1, 1, 1, 1, 1, 1, 1},
	UpdateDR:       {1, 0, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
	SelectIRScan:   {1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0, 0, 0, 0, 0, 0},
	CaptureIR:      {1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0, 1, 1, 1, 1},
	ShiftIR:        {1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0, 1, 1, 1, 1},
	Exit1IR:        {1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0, 0, 1},
	PauseIR:        {1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0, 1, 1},
	Exit2IR:        {1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0, 0, 0, 0, 1},
	UpdateIR:       {1, 0, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
}

// nextStateOnTms[current] gives {next-on-tms-low, next-on-tms-high}.
var nextStateOnTms = [numStates][2]State{
	TestLogicReset: {RunTestIdle, TestLogicReset},
	RunTestIdle:    {RunTestIdle, SelectDRScan},
	SelectDRScan:   {CaptureDR, SelectIRScan},
	CaptureDR:      {ShiftDR, Exit1DR},
	ShiftDR:        {ShiftDR, Exit1DR},
	Exit1DR:        {PauseDR, UpdateDR},
	PauseDR:        {PauseDR, Exit2DR},
	Exit2DR:        {ShiftDR, UpdateDR},
	UpdateDR:       {RunTestIdle, SelectDRScan},
	SelectIRScan:   {CaptureIR, TestLogicReset},
	CaptureIR:      {ShiftIR, Exit1IR},
	ShiftIR:        {ShiftIR, Exit1IR},
	Exit1IR:        {PauseIR, UpdateIR},
	PauseIR:        {PauseIR, Exit2IR},
	Exit2IR:        {ShiftIR, UpdateIR},
	UpdateIR:       {RunTestIdle, SelectDRScan},
}

// IRLen is the fixed length of the JTAG instruction register.
const IRLen = 5

// Tap owns the simulated device beneath it exclusively; no other
// component may touch the device's pins directly.
type Tap struct {
	dev *simdevice.Device

	currState State
	lastIr    uint8
	rtiCount  uint8
}

// New constructs a Tap around dev. The last-shifted IR defaults to 0
// (BYPASS, per IEEE 1149.1) and the Run-Test/Idle dwell count defaults to
// 1 until DTM bring-up learns the real value from DTMCS.
func New(dev *simdevice.Device) *Tap {
	return &Tap{dev: dev, lastIr: 0, rtiCount: 1}
}

// RtiCount sets how many Run-Test/Idle cycles to dwell in when a later
// AccessReg reuses the most recently shifted IR.
func (t *Tap) RtiCount(n uint8) { t.rtiCount = n }

// Reset drives the device through its reset window, holding TMS low
// throughout; this particular core's TAP otherwise anticipates the next
// state combinationally and would be thrown into Select-DR-Scan by a
// floating TMS. Reset leaves the TAP in Run-Test/Idle, not
// Test-Logic-Reset, matching the reference device's behavior.
//
// Reset returns false if the simulation finished before reset completed.
func (t *Tap) Reset() bool {
	for t.dev.InReset() {
		if t.dev.AllDone() {
			return false
		}
		t.dev.SetTms(false)
		t.dev.Eval()
		t.dev.AdvanceHalfPeriod()
	}
	t.currState = RunTestIdle
	return true
}

// AccessReg is the primitive both WriteReg and ReadReg build on: it
// shifts wdata into the register selected by ir and returns whatever was
// clocked out, always finishing in Update-DR. If ir matches the most
// recently shifted IR it is not reshifted; instead the TAP dwells in
// Run-Test/Idle for RtiCount cycles, matching the device's requirement
// between repeated accesses to the same register.
func (t *Tap) AccessReg(ir uint8, wdata uint64, length uint8) (uint64, error) {
	if length > 64 {
		return 0, fmt.Errorf("tap: shifting %d bits: %w", length, rvdbgerr.ErrBadShiftLength)
	}
	if err := t.dev.RequireNotDone(); err != nil {
		return 0, fmt.Errorf("tap: %w", err)
	}

	if t.lastIr == ir {
		t.gotoState(RunTestIdle)
		for i := uint8(0); i < t.rtiCount; i++ {
			t.advanceState(false, false)
		}
	} else {
		t.shiftIr(ir)
	}

	reg := t.shiftDr(wdata, length)
	t.gotoState(UpdateDR)
	return reg, nil
}

// WriteReg is a convenience wrapper over AccessReg that discards the
// value shifted out.
func (t *Tap) WriteReg(ir uint8, wdata uint64, length uint8) error {
	_, err := t.AccessReg(ir, wdata, length)
	return err
}

// ReadReg is a convenience wrapper over AccessReg that shifts in zero.
func (t *Tap) ReadReg(ir uint8, length uint8) (uint64, error) {
	return t.AccessReg(ir, 0, length)
}

// SimTimeNs reports the current simulated time, delegated to the device.
func (t *Tap) SimTimeNs() uint64 { return t.dev.SimTimeNs() }

// Device exposes the owned simulated device so Dtm/Dmi bring-up can close
// it on teardown. It is not for driving pins directly.
func (t *Tap) Device() *simdevice.Device { return t.dev }

func (t *Tap) shiftIr(ireg uint8) {
	t.gotoState(ShiftIR)

	for i := 0; i < IRLen-1; i++ {
		t.advanceState(false, ireg&(1<<uint(i)) != 0)
	}
	t.advanceState(true, ireg&(1<<uint(IRLen-1)) != 0)

	t.gotoState(UpdateIR)
	t.lastIr = ireg
}

// shiftDr shifts dreg (length bits, LSB first) into the currently
// selected data register and returns what was clocked out on TDO during
// the same shift.
func (t *Tap) shiftDr(dreg uint64, length uint8) uint64 {
	t.gotoState(ShiftDR)

	t.advanceState(false, dreg&1 != 0)

	var regOut uint64
	for i := 1; i < int(length)-1; i++ {
		if t.advanceState(false, dreg&(1<<uint(i)) != 0) {
			regOut |= 1 << uint(i-1)
		}
	}

	if t.advanceState(true, dreg&(1<<uint(length-1)) != 0) {
		regOut |= 1 << uint(length-2)
	}

	if t.advanceState(false, dreg&(1<<uint(length-1)) != 0) {
		regOut |= 1 << uint(length-1)
	}

	t.gotoState(UpdateDR)
	return regOut
}

// gotoState drives TMS through nextStateTab until the TAP reaches s,
// discarding all but the final sampled TDO.
func (t *Tap) gotoState(s State) bool {
	tdo := t.dev.Tdo()
	for t.currState != s {
		tms := nextStateTab[t.currState][s] == 1
		tdo = t.advanceState(tms, false)
	}
	return tdo
}

// advanceState clocks the device to the next TAP rising edge, drives
// TMS/TDI, clocks to the next TAP falling edge, and samples TDO. It
// leaves the device at a TAP falling edge and updates currState from the
// TMS value used.
func (t *Tap) advanceState(tms, tdi bool) bool {
	for !t.dev.TapPosedge() {
		t.dev.Eval()
		t.dev.AdvanceHalfPeriod()
	}

	t.dev.SetTms(tms)
	t.dev.SetTdi(tdi)

	for !t.dev.TapNegedge() {
		t.dev.Eval()
		t.dev.AdvanceHalfPeriod()
	}

	t.nextState(t.dev.Tms())
	return t.dev.Tdo()
}

func (t *Tap) nextState(tms bool) {
	if tms {
		t.currState = nextStateOnTms[t.currState][1]
	} else {
		t.currState = nextStateOnTms[t.currState][0]
	}
}

// CurrentState reports the TAP's current state; exposed for tests and
// diagnostics only.
func (t *Tap) CurrentState() State { return t.currState }

// Package refcore provides a self-contained behavioral model of a
// RISC-V debug module and its hart, implementing simdevice.CoreModel.
// It exists so cmd/rvdbg's self-tests have something to drive without a
// real Verilator-compiled DUT wired in via cgo (out of scope for this
// repository): it is a reference/test double promoted to production
// code, not a cycle-accurate core.
package refcore

import (
	"github.com/openhwgroup/embdebug-target-core-v/dtm"
	"github.com/openhwgroup/embdebug-target-core-v/simdevice"
)

type fsmState uint8

const (
	fsmTestLogicReset fsmState = iota
	fsmRunTestIdle
	fsmSelectDRScan
	fsmCaptureDR
	fsmShiftDR
	fsmExit1DR
	fsmPauseDR
	fsmExit2DR
	fsmUpdateDR
	fsmSelectIRScan
	fsmCaptureIR
	fsmShiftIR
	fsmExit1IR
	fsmPauseIR
	fsmExit2IR
	fsmUpdateIR
)

var fsmNext = map[fsmState][2]fsmState{
	fsmTestLogicReset: {fsmRunTestIdle, fsmTestLogicReset},
	fsmRunTestIdle:     {fsmRunTestIdle, fsmSelectDRScan},
	fsmSelectDRScan:    {fsmCaptureDR, fsmSelectIRScan},
	fsmCaptureDR:       {fsmShiftDR, fsmExit1DR},
	fsmShiftDR:         {fsmShiftDR, fsmExit1DR},
	fsmExit1DR:         {fsmPauseDR, fsmUpdateDR},
	fsmPauseDR:         {fsmPauseDR, fsmExit2DR},
	fsmExit2DR:         {fsmShiftDR, fsmUpdateDR},
	fsmUpdateDR:        {fsmRunTestIdle, fsmSelectDRScan},
	fsmSelectIRScan:    {fsmCaptureIR, fsmTestLogicReset},
	fsmCaptureIR:       {fsmShiftIR, fsmExit1IR},
	fsmShiftIR:         {fsmShiftIR, fsmExit1IR},
	fsmExit1IR:         {fsmPauseIR, fsmUpdateIR},
	fsmPauseIR:         {fsmPauseIR, fsmExit2IR},
	fsmExit2IR:         {fsmShiftIR, fsmUpdateIR},
	fsmUpdateIR:        {fsmRunTestIdle, fsmSelectDRScan},
}

const (
	addrDmcontrol  = 0x10
	addrDmstatus   = 0x11
	addrAbstractcs = 0x16
	addrCommand    = 0x17
	addrData0      = 0x04
	addrSbcs       = 0x38
	addrSbaddress0 = 0x39
	addrSbdata0    = 0x3c
	addrHaltsum0   = 0x40

	csrDcsr        = 0x7b0
	dcsrStepBit    = 1 << 2
	dcsrEbreakMask = 0xb000
	dcsrCauseMask  = 0x1c0
	dcsrCauseShift = 6
	dcsrCauseEbreak = 3
)

// Core is a behavioral JTAG TAP + DTM + DMI + hart model: enough state
// to answer every abstract-command, hart-control, and system-bus
// operation this adapter issues, without modeling instruction execution
// (a single-stepped or continued hart simply reports itself halted
// again on the next Wait poll).
type Core struct {
	state   fsmState
	prevTck uint8

	ir   uint8
	irSh uint8

	drShift       uint64
	drOutBit      bool
	drWidth       uint8
	drActiveWidth uint8

	idcode uint32
	dtmcs  uint32

	regs map[uint64]uint32

	pendingOp   uint64
	pendingAddr uint64
	pendingData uint32
	lastResult  uint32

	halted bool

	abstractRegs map[uint16]uint32
	mem          map[uint32]byte

	// resumePending is set when a resume has just cleared halted, so the
	// very next haltsum0 poll observes it running once before this
	// instant-execution model re-halts the hart, exercising the real
	// polling loop above it rather than halting synchronously.
	resumePending bool

	finished bool
}

// New creates a Core with a 7-bit DMI address space (matching the
// debug-module register map this adapter targets) and an initially
// running hart.
func New() *Core {
	abits := uint8(7)
	dtmcsVal := uint32(1) | (uint32(1) << 12) | (uint32(abits) << 4)
	return &Core{
		state:        fsmRunTestIdle,
		idcode:       0x20000db3, // version=2, Embecosm-style JEP106 placeholder
		dtmcs:        dtmcsVal,
		drWidth:      34 + abits,
		regs:         map[uint64]uint32{},
		abstractRegs: map[uint16]uint32{},
		mem:          map[uint32]byte{},
	}
}

// Finished reports whether the model has signalled termination. Core
// never terminates on its own; it is included to satisfy CoreModel.
func (c *Core) Finished() bool { return c.finished }

// Eval advances the TAP one half-period on a rising JtagTck edge, per
// the IEEE 1149.1 FSM.
func (c *Core) Eval(p *simdevice.Pins) {
	rising := p.JtagTck == 1 && c.prevTck == 0
	falling := p.JtagTck == 0 && c.prevTck == 1
	c.prevTck = p.JtagTck

	if rising {
		tms := p.JtagTms != 0
		tdi := p.JtagTdi != 0

		switch c.state {
		case fsmCaptureDR:
			c.drActiveWidth = c.activeWidthFor(c.ir)
			c.drShift = c.captureValue()
		case fsmShiftDR:
			c.drOutBit = c.drShift&1 != 0
			c.drShift >>= 1
			if tdi {
				c.drShift |= 1 << (c.drActiveWidth - 1)
			}
		case fsmUpdateDR:
			c.commit(c.drShift)
		case fsmCaptureIR:
			c.irSh = 0
		case fsmShiftIR:
			c.irSh >>= 1
			if tdi {
				c.irSh |= 1 << 4
			}
		case fsmUpdateIR:
			c.ir = c.irSh
		}

		c.state = fsmNext[c.state][btoi(tms)]
	}

	// TDO changes on the falling TCK edge, per IEEE 1149.1.
	if falling {
		if c.drOutBit {
			p.JtagTdo = 1
		} else {
			p.JtagTdo = 0
		}
	}
}

func (c *Core) activeWidthFor(ir uint8) uint8 {
	if ir == dtm.IRDmiaccess {
		return c.drWidth
	}
	return 32
}

func (c *Core) captureValue() uint64 {
	switch c.ir {
	case dtm.IRIdcode:
		return uint64(c.idcode)
	case dtm.IRDtmcs:
		return uint64(c.dtmcs)
	case dtm.IRDmiaccess:
		if c.pendingOp != 0 {
			switch c.pendingOp {
			case 1:
				c.lastResult = c.regs[c.pendingAddr]
				c.afterRead(c.pendingAddr)
			case 2:
				c.regs[c.pendingAddr] = c.pendingData
				c.lastResult = c.pendingData
				c.afterWrite(c.pendingAddr, c.pendingData)
			}
			c.pendingOp = 0
		}
		return uint64(c.lastResult) << 2
	}
	return 0
}

func (c *Core) commit(frame uint64) {
	if c.ir != dtm.IRDmiaccess {
		return
	}
	op := frame & 0x3
	if op == 1 || op == 2 {
		c.pendingOp = op
		c.pendingAddr = frame >> 34
		c.pendingData = uint32((frame >> 2) & 0xffffffff)
	}
}

func (c *Core) afterWrite(addr uint64, val uint32) {
	switch addr {
	case addrDmcontrol:
		if val>>31&1 != 0 { // haltreq
			c.halted = true
			c.resumePending = false
		}
		if val>>30&1 != 0 { // resumereq
			c.halted = false
			c.resumePending = true
		}
		c.recomputeDmstatus()
	case addrCommand:
		c.runAbstractCommand(val)
	case addrSbcs:
		c.regs[addrSbcs] = val &^ (0x7 << 12) // sberror is write-1-to-clear
	case addrSbaddress0:
		if c.sbcsBit(20) { // sbreadonaddr
			c.regs[addrSbdata0] = c.memReadWord(val)
		}
	case addrSbdata0:
		c.memWriteWord(c.regs[addrSbaddress0], val)
		if c.sbcsBit(16) { // sbautoincrement
			c.regs[addrSbaddress0] += 4
		}
	}
}

func (c *Core) afterRead(addr uint64) {
	switch addr {
	case addrSbdata0:
		if c.sbcsBit(16) { // sbautoincrement
			c.regs[addrSbaddress0] += 4
			if c.sbcsBit(15) { // sbreadondata
				c.regs[addrSbdata0] = c.memReadWord(c.regs[addrSbaddress0])
			}
		}
	case addrHaltsum0, addrDmstatus:
		if c.resumePending {
			c.resumePending = false
			c.halted = true
			c.completeStepOrEbreak()
			c.recomputeDmstatus()
		}
	}
}

// completeStepOrEbreak fixes up the DCSR cause field this instant-
// execution model owes the debugger: a continue (ebreak mask armed)
// always "trips" the planted breakpoint; a step has no cause
// requirement since Target only inspects the step bit for that case.
func (c *Core) completeStepOrEbreak() {
	dcsr := c.abstractRegs[csrDcsr]
	if dcsr&dcsrEbreakMask != 0 {
		dcsr = (dcsr &^ dcsrCauseMask) | (dcsrCauseEbreak << dcsrCauseShift)
		c.abstractRegs[csrDcsr] = dcsr
	}
}

func (c *Core) sbcsBit(bit uint) bool { return c.regs[addrSbcs]>>bit&1 != 0 }

func (c *Core) recomputeDmstatus() {
	v := uint32(0)
	if c.halted {
		v |= 1 << 9 // allhalted
		v |= 1 << 8 // anyhalted
		c.regs[addrHaltsum0] = 1
	} else {
		v |= 1 << 11 // allrunning
		v |= 1 << 10 // anyrunning
		c.regs[addrHaltsum0] = 0
	}
	c.regs[addrDmstatus] = v
}

func (c *Core) runAbstractCommand(cmd uint32) {
	write := cmd>>16&1 != 0
	regno := uint16(cmd & 0xffff)
	if write {
		c.abstractRegs[regno] = c.regs[addrData0]
	} else {
		c.regs[addrData0] = c.abstractRegs[regno]
	}
	c.regs[addrAbstractcs] = 0
}

func (c *Core) memReadWord(addr uint32) uint32 {
	var w uint32
	for i := 3; i >= 0; i-- {
		w = (w << 8) | uint32(c.mem[addr+uint32(i)])
	}
	return w
}

func (c *Core) memWriteWord(addr uint32, val uint32) {
	for i := 0; i < 4; i++ {
		c.mem[addr+uint32(i)] = byte(val)
		val >>= 8
	}
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}

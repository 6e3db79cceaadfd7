package session_test

import (
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/openhwgroup/embdebug-target-core-v/dtm"
	"github.com/openhwgroup/embdebug-target-core-v/session"
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

// fakeCore is a bare-bones DMI bus: enough to answer IDCODE/DTMCS and
// accept register writes, without any hart-control side effects. It
// exercises Builder.Build's wiring, not the higher-layer protocol that
// dmi_test.go and target_test.go already cover in depth.
type fakeCore struct {
	state   fsmState
	prevTck uint8

	ir   uint8
	irSh uint8

	drShift       uint64
	drOutBit      bool
	drActiveWidth uint8

	idcode uint32
	dtmcs  uint32

	regs map[uint64]uint32

	pendingOp   uint64
	pendingAddr uint64
	pendingData uint32
	lastResult  uint32
}

func newFakeCore() *fakeCore {
	abits := uint8(7)
	dtmcsVal := uint32(1) | (uint32(1) << 12) | (uint32(abits) << 4)
	return &fakeCore{
		state:  fsmRunTestIdle,
		idcode: 0xdeadc0de,
		dtmcs:  dtmcsVal,
		regs:   map[uint64]uint32{},
	}
}

func (c *fakeCore) Finished() bool { return false }

func (c *fakeCore) Eval(p *simdevice.Pins) {
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
			out := c.drShift&1 != 0
			c.drOutBit = out
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

	if falling {
		p.JtagTdo = boolToPin(c.drOutBit)
	}
}

func (c *fakeCore) activeWidthFor(ir uint8) uint8 {
	if ir == dtm.IRDmiaccess {
		return 34 + 7
	}
	return 32
}

func (c *fakeCore) captureValue() uint64 {
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
			case 2:
				c.regs[c.pendingAddr] = c.pendingData
				c.lastResult = c.pendingData
			}
			c.pendingOp = 0
		}
		return uint64(c.lastResult) << 2
	}
	return 0
}

func (c *fakeCore) commit(frame uint64) {
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

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}

func boolToPin(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

var _ = Describe("Builder", func() {
	It("builds and tears down a session", func() {
		b := session.MakeBuilder(newFakeCore()).WithHart(0)
		s, err := b.Build()
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Target()).NotTo(BeNil())
		Expect(s.Close()).To(Succeed())
	})

	It("rejects a builder with no core model", func() {
		var b session.Builder
		_, err := b.Build()
		Expect(err).To(HaveOccurred())
	})

	It("wires a DMI trace database when requested", func() {
		path := "session_trace_test.sqlite3"
		defer os.Remove(path)

		b := session.MakeBuilder(newFakeCore()).WithHart(0).WithDmiTrace(path)
		s, err := b.Build()
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Close()).To(Succeed())

		_, statErr := os.Stat(path)
		Expect(statErr).NotTo(HaveOccurred())
	})
})

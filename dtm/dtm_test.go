package dtm_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/openhwgroup/embdebug-target-core-v/dtm"
	"github.com/openhwgroup/embdebug-target-core-v/simdevice"
	"github.com/openhwgroup/embdebug-target-core-v/tap"
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

// fakeDM is a fake DTM-facing device: IDCODE and DTMCS are fixed-value
// registers, and DMIACCESS is backed by a tiny in-memory DMI register
// file with the ability to force a number of RETRY responses for a given
// address before it starts succeeding.
type fakeDM struct {
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

	regs          map[uint64]uint32
	forceRetries  map[uint64]int
	completedData uint32
	completedRetry bool
	pendingOp     uint64
	pendingAddr   uint64
	pendingData   uint32
}

func newFakeDM(abits uint8) *fakeDM {
	dtmcs := uint32(1) // version=1
	dtmcs |= uint32(1) << 12 // idle = 1
	dtmcs |= uint32(abits) << 4
	return &fakeDM{
		state:        fsmRunTestIdle,
		idcode:       0xdeadc0de,
		dtmcs:        dtmcs,
		drWidth:      34 + abits,
		regs:         map[uint64]uint32{},
		forceRetries: map[uint64]int{},
	}
}

func (c *fakeDM) Finished() bool { return false }

func (c *fakeDM) Eval(p *simdevice.Pins) {
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

func (c *fakeDM) activeWidthFor(ir uint8) uint8 {
	switch ir {
	case dtm.IRDmiaccess:
		return c.drWidth
	default:
		return 32
	}
}

// captureValue resolves the outcome of whatever operation is currently
// pending, consuming one forced RETRY per capture (so the caller's
// retry-then-reread loop is what drains the forced count, matching real
// hardware where each poll samples the in-flight operation's progress).
func (c *fakeDM) captureValue() uint64 {
	switch c.ir {
	case dtm.IRIdcode:
		return uint64(c.idcode)
	case dtm.IRDtmcs:
		return uint64(c.dtmcs)
	case dtm.IRDmiaccess:
		if c.pendingOp != 0 {
			if n := c.forceRetries[c.pendingAddr]; n > 0 {
				c.forceRetries[c.pendingAddr] = n - 1
				c.completedRetry = true
				return 3
			}
			c.completedRetry = false
			switch c.pendingOp {
			case 1: // read
				c.completedData = c.regs[c.pendingAddr]
			case 2: // write
				c.regs[c.pendingAddr] = c.pendingData
				c.completedData = c.pendingData
			}
			c.pendingOp = 0
		}
		status := uint64(0)
		if c.completedRetry {
			status = 3
		}
		return status | (uint64(c.completedData) << 2)
	}
	return 0
}

// commit records the operation just shifted in as pending; NOP (op 0)
// leaves whatever was already pending untouched, mirroring hardware that
// keeps reporting an in-flight operation's status until it resolves.
func (c *fakeDM) commit(frame uint64) {
	switch c.ir {
	case dtm.IRDtmcs:
		// Only dmireset matters functionally; nothing to model.
	case dtm.IRDmiaccess:
		op := frame & 0x3
		if op == 1 || op == 2 {
			c.pendingOp = op
			c.pendingAddr = frame >> 34
			c.pendingData = uint32((frame >> 2) & 0xffffffff)
		}
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

var _ = Describe("Dtm", func() {
	var (
		core *fakeDM
		dev  *simdevice.Device
		d    *dtm.Dtm
	)

	BeforeEach(func() {
		core = newFakeDM(7)
		dev = simdevice.NewDevice(core, 10, 0, nil)
		tp := tap.New(dev)
		d = dtm.New(tp)
	})

	It("learns abits and idcode on reset", func() {
		ok, err := d.Reset()
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(d.IDCode()).To(Equal(dtm.IDCode(0xdeadc0de)))
	})

	It("round-trips a dmi write/read", func() {
		_, err := d.Reset()
		Expect(err).NotTo(HaveOccurred())

		Expect(d.DmiWrite(0x10, 0x12345678)).To(Succeed())
		got, err := d.DmiRead(0x10)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(uint32(0x12345678)))
	})

	It("retries transparently on a forced RETRY and still completes", func() {
		_, err := d.Reset()
		Expect(err).NotTo(HaveOccurred())

		core.forceRetries[0x11] = 2
		Expect(d.DmiWrite(0x11, 0xcafef00d)).To(Succeed())

		got, err := d.DmiRead(0x11)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(uint32(0xcafef00d)))
	})
})

package tap_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/openhwgroup/embdebug-target-core-v/rvdbgerr"
	"github.com/openhwgroup/embdebug-target-core-v/simdevice"
	"github.com/openhwgroup/embdebug-target-core-v/tap"
)

// fsmState mirrors the sixteen IEEE 1149.1 TAP states. It is a second,
// independent encoding of the same standard state machine tap.go drives,
// used here to stand in for the simulated hardware's own TAP controller
// so the round-trip tests exercise tap.go against something other than
// itself.
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

// fakeCore is a minimal but faithful IEEE 1149.1 TAP: a BYPASS register at
// IR 0x00 and a 64-bit read/write scan register at IR 0x01. It tracks its
// own copy of the state machine, clocked on jtag_tck_i rising edges, to
// play the part of the simulated device beneath tap.Tap.
type fakeCore struct {
	state   fsmState
	prevTck uint8

	ir     uint8
	irSh   uint8 // shift register for IR, LSB-first fill
	irBits int

	bypass bool

	scratch  uint64
	drShift  uint64
	drOutBit bool
}

func newFakeCore() *fakeCore {
	return &fakeCore{state: fsmRunTestIdle}
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
			if c.ir == 0x01 {
				c.drShift = c.scratch
			} else {
				c.drShift = 0
			}
		case fsmShiftDR:
			out := c.drShift&1 != 0
			c.drOutBit = out
			c.drShift >>= 1
			if tdi {
				c.drShift |= 1 << 63
			}
		case fsmUpdateDR:
			if c.ir == 0x01 {
				c.scratch = c.drShift
			}
		case fsmCaptureIR:
			c.irSh = 0
			c.irBits = 0
		case fsmShiftIR:
			c.irSh >>= 1
			if tdi {
				c.irSh |= 1 << 4
			}
			c.irBits++
		case fsmUpdateIR:
			c.ir = c.irSh
		}

		c.state = fsmNext[c.state][btoi(tms)]
	}

	// TDO changes on the falling TCK edge, as in IEEE 1149.1: it takes the
	// bit most recently shifted out and holds it until the next falling edge.
	if falling {
		p.JtagTdo = boolToPin(c.drOutBit)
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

var _ = Describe("Tap", func() {
	var (
		core *fakeCore
		dev  *simdevice.Device
		tp   *tap.Tap
	)

	BeforeEach(func() {
		core = newFakeCore()
		dev = simdevice.NewDevice(core, 10, 0, nil)
		tp = tap.New(dev)
	})

	It("resets into Run-Test/Idle", func() {
		ok := tp.Reset()
		Expect(ok).To(BeTrue())
		Expect(tp.CurrentState()).To(Equal(tap.RunTestIdle))
	})

	It("round-trips a value through the scratch scan register", func() {
		Expect(tp.Reset()).To(BeTrue())

		const v = uint64(0xdeadbeefcafef00d)
		Expect(tp.WriteReg(0x01, v, 64)).To(Succeed())
		got, err := tp.ReadReg(0x01, 64)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(v))
	})

	It("rejects shifts longer than 64 bits", func() {
		Expect(tp.Reset()).To(BeTrue())
		_, err := tp.ReadReg(0x01, 65)
		Expect(err).To(HaveOccurred())
	})

	It("does not reshift the IR when accessing the same register twice in a row", func() {
		Expect(tp.Reset()).To(BeTrue())
		Expect(tp.WriteReg(0x01, 0x1, 64)).To(Succeed())
		irBitsAfterFirst := core.irBits
		Expect(tp.WriteReg(0x01, 0x2, 64)).To(Succeed())
		Expect(core.irBits).To(Equal(irBitsAfterFirst))
	})

	It("refuses register access once the simulation budget is exhausted", func() {
		budgeted := simdevice.NewDevice(newFakeCore(), 10, 20, nil)
		btp := tap.New(budgeted)
		Expect(btp.Reset()).To(BeFalse())

		_, err := btp.AccessReg(0x01, 0, 32)
		Expect(err).To(MatchError(rvdbgerr.ErrSimulationEnded))
	})
})

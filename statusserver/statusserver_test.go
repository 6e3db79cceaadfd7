package statusserver_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/openhwgroup/embdebug-target-core-v/dmi"
	"github.com/openhwgroup/embdebug-target-core-v/dtm"
	"github.com/openhwgroup/embdebug-target-core-v/simdevice"
	"github.com/openhwgroup/embdebug-target-core-v/statusserver"
	"github.com/openhwgroup/embdebug-target-core-v/tap"
	"github.com/openhwgroup/embdebug-target-core-v/target"
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
	addrHaltsum0   = 0x40
)

// fakeDebugModule is the same minimal whole-debug-module fake used by
// dmi_test.go and target_test.go, trimmed to what the status endpoints
// exercise: hart halt state and the abstract-command register engine
// (CSR reads back the value last written to the same regno).
type fakeDebugModule struct {
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
}

func newFakeDebugModule() *fakeDebugModule {
	abits := uint8(7)
	dtmcsVal := uint32(1) | (uint32(1) << 12) | (uint32(abits) << 4)
	return &fakeDebugModule{
		state:        fsmRunTestIdle,
		idcode:       0xdeadc0de,
		dtmcs:        dtmcsVal,
		drWidth:      34 + abits,
		regs:         map[uint64]uint32{},
		abstractRegs: map[uint16]uint32{},
	}
}

func (c *fakeDebugModule) Finished() bool { return false }

func (c *fakeDebugModule) Eval(p *simdevice.Pins) {
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

func (c *fakeDebugModule) activeWidthFor(ir uint8) uint8 {
	if ir == dtm.IRDmiaccess {
		return c.drWidth
	}
	return 32
}

func (c *fakeDebugModule) captureValue() uint64 {
	switch c.ir {
	case dtm.IRIdcode:
		return uint64(c.idcode)
	case dtm.IRDtmcs:
		return uint64(c.dtmcs)
	case dtm.IRDmiaccess:
		result := uint32(0)
		if c.pendingOp != 0 {
			switch c.pendingOp {
			case 1:
				result = c.regs[c.pendingAddr]
			case 2:
				c.regs[c.pendingAddr] = c.pendingData
				result = c.pendingData
				c.afterWrite(c.pendingAddr, c.pendingData)
			}
			c.pendingOp = 0
			c.lastResult = result
		}
		return uint64(c.lastResult) << 2
	}
	return 0
}

func (c *fakeDebugModule) commit(frame uint64) {
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

func (c *fakeDebugModule) afterWrite(addr uint64, val uint32) {
	switch addr {
	case addrDmcontrol:
		haltreq := val>>31&1 != 0
		resumereq := val>>30&1 != 0
		if haltreq {
			c.halted = true
		}
		if resumereq {
			c.halted = false
		}
		c.recomputeHaltState()
	case addrCommand:
		write := val>>16&1 != 0
		regno := uint16(val & 0xffff)
		if write {
			c.abstractRegs[regno] = c.regs[addrData0]
		} else {
			c.regs[addrData0] = c.abstractRegs[regno]
		}
		c.regs[addrAbstractcs] = 0
	}
}

func (c *fakeDebugModule) recomputeHaltState() {
	v := uint32(0)
	if c.halted {
		v |= 1 << 9
		v |= 1 << 8
		c.regs[addrHaltsum0] = 1
	} else {
		v |= 1 << 11
		v |= 1 << 10
		c.regs[addrHaltsum0] = 0
	}
	c.regs[addrDmstatus] = v
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

func newTestTarget() (*dmi.Dmi, *target.Target) {
	core := newFakeDebugModule()
	dev := simdevice.NewDevice(core, 10, 0, nil)
	tp := tap.New(dev)
	dt := dtm.New(tp)
	dm := dmi.New(dt)
	_, err := dm.Reset()
	Expect(err).NotTo(HaveOccurred())
	tg := target.New(dm)
	Expect(tg.SelectHart(0)).To(Succeed())
	return dm, tg
}

var _ = Describe("Server", func() {
	It("reports status, registers, and cycle counters over HTTP", func() {
		dm, tg := newTestTarget()
		Expect(tg.Halt()).To(Succeed())

		srv := statusserver.NewServer(dm, tg)
		Expect(srv.Start()).To(Succeed())
		defer srv.Close()

		base := fmt.Sprintf("http://%s", srv.Addr().String())

		Eventually(func() error {
			_, err := http.Get(base + "/status")
			return err
		}, time.Second).Should(Succeed())

		resp, err := http.Get(base + "/status")
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		var status struct {
			AnyHalted bool `json:"any_halted"`
			Haltsum0  uint32 `json:"haltsum0"`
		}
		Expect(json.NewDecoder(resp.Body).Decode(&status)).To(Succeed())
		Expect(status.AnyHalted).To(BeTrue())
		Expect(status.Haltsum0).To(Equal(uint32(1)))

		regResp, err := http.Get(base + "/registers")
		Expect(err).NotTo(HaveOccurred())
		defer regResp.Body.Close()
		Expect(regResp.StatusCode).To(Equal(http.StatusOK))

		cycResp, err := http.Get(base + "/cycles")
		Expect(err).NotTo(HaveOccurred())
		defer cycResp.Body.Close()
		Expect(cycResp.StatusCode).To(Equal(http.StatusOK))
	})
})

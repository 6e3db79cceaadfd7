// Package dtm implements the JTAG flavor of the RISC-V Debug Transport
// Module: it layers DMI request/response framing over TAP data-register
// shifts, learns the DMI address width and idle-cycle requirement from
// IDCODE/DTMCS at bring-up, and handles the BUSY/retry protocol.
package dtm

import (
	"fmt"

	"github.com/openhwgroup/embdebug-target-core-v/rvdbgerr"
	"github.com/openhwgroup/embdebug-target-core-v/tap"
)

// Fixed 5-bit instruction register values for the JTAG DTM, per the
// RISC-V External Debug Support specification.
const (
	irBypass0   uint8 = 0x00
	IRIdcode    uint8 = 0x01
	IRDtmcs     uint8 = 0x10
	IRDmiaccess uint8 = 0x11
	irBypass1   uint8 = 0x1f
)

// DMI response/request op codes, carried in the low 2 bits of a
// DMIACCESS shift.
const (
	opNop   uint64 = 0
	opRead  uint64 = 1
	opWrite uint64 = 2

	resOK    uint64 = 0
	resRetry uint64 = 3
)

// maxDmiRetries bounds the RETRY loop; the specification does not impose
// a limit, but an unbounded loop against a wedged device would hang
// forever, so exceeding this is treated as fatal.
const maxDmiRetries = 64

// IDCode decodes the fields of a JTAG IDCODE register.
type IDCode uint32

func (c IDCode) Version() uint8       { return uint8((uint32(c) >> 28) & 0xf) }
func (c IDCode) PartNumber() uint16   { return uint16((uint32(c) >> 12) & 0xffff) }
func (c IDCode) ManufacturerID() uint16 { return uint16((uint32(c) >> 1) & 0x7ff) }
func (c IDCode) JEP106ID() uint8      { return uint8((uint32(c) >> 1) & 0x7f) }
func (c IDCode) Continuation() uint8  { return uint8((uint32(c) >> 8) & 0xf) }

// TraceFunc observes every completed DMI transaction, after retries have
// been resolved. It must not block: a slow sink should buffer internally.
type TraceFunc func(write bool, address uint64, data uint32)

// Dtm is the JTAG Debug Transport Module. It owns the Tap beneath it
// exclusively.
type Dtm struct {
	tp *tap.Tap

	dmiWidth    uint8
	dmiAddrMask uint64

	idcode IDCode
	dtmcs  uint32

	trace TraceFunc
}

// New constructs a Dtm around tp. dmiWidth defaults to a plausible 42
// bits (34 + 8 abits) until Reset learns the real value from DTMCS,
// matching the reference implementation's constructor default.
func New(tp *tap.Tap) *Dtm {
	return &Dtm{tp: tp, dmiWidth: 42}
}

// Tap exposes the owned Tap so callers can reach SimTimeNs/Device for
// teardown without widening Dtm's own surface.
func (d *Dtm) Tap() *tap.Tap { return d.tp }

// Reset resets the Tap and underlying device, then reads IDCODE and
// DTMCS to learn the DMI address width and the idle-cycle count required
// between repeated accesses to the same register, and clears any
// stale in-flight DMI status. It returns false if the simulation
// terminated during reset.
func (d *Dtm) Reset() (bool, error) {
	if ok := d.tp.Reset(); !ok {
		return false, nil
	}

	idcode, err := d.readIdcode()
	if err != nil {
		return false, err
	}
	dtmcs, err := d.readDtmcs()
	if err != nil {
		return false, err
	}
	d.idcode = IDCode(idcode)
	d.dtmcs = dtmcs

	d.tp.RtiCount(uint8((dtmcs >> 12) & 0x7))
	abits := uint8((dtmcs >> 4) & 0x3f)
	d.dmiWidth = 34 + abits
	d.dmiAddrMask = (uint64(1) << abits) - 1

	if err := d.writeDtmcs(0x10000); err != nil { // dmireset
		return false, err
	}
	return true, nil
}

// IDCode returns the IDCODE read during the most recent Reset.
func (d *Dtm) IDCode() IDCode { return d.idcode }

// Dtmcs returns the raw DTMCS value read during the most recent Reset.
func (d *Dtm) Dtmcs() uint32 { return d.dtmcs }

// SetTrace installs (or, passed nil, removes) a sink notified of every
// completed DMI transaction.
func (d *Dtm) SetTrace(fn TraceFunc) { d.trace = fn }

// DmiRead reads a DMI register. It implements the two-shift choreography
// described in the specification: the first shift submits the read
// request, the second collects the response, reissuing with a dmireset
// on RETRY.
func (d *Dtm) DmiRead(address uint64) (uint32, error) {
	frame := opRead | ((address & d.dmiAddrMask) << 34)
	if err := d.tp.WriteReg(IRDmiaccess, frame, d.dmiWidth); err != nil {
		return 0, fmt.Errorf("dtm: submitting dmi read: %w", err)
	}

	reg, err := d.pollUntilSettled()
	if err != nil {
		return 0, err
	}
	data := uint32((reg >> 2) & 0xffffffff)
	if d.trace != nil {
		d.trace(false, address, data)
	}
	return data, nil
}

// DmiWrite writes a DMI register, following the same retry discipline as
// DmiRead.
func (d *Dtm) DmiWrite(address uint64, data uint32) error {
	frame := opWrite | (uint64(data) << 2) | ((address & d.dmiAddrMask) << 34)
	if err := d.tp.WriteReg(IRDmiaccess, frame, d.dmiWidth); err != nil {
		return fmt.Errorf("dtm: submitting dmi write: %w", err)
	}

	if _, err := d.pollUntilSettled(); err != nil {
		return err
	}
	if d.trace != nil {
		d.trace(true, address, data)
	}
	return nil
}

// pollUntilSettled shifts a NOP DMIACCESS request to collect the
// previous operation's response, reissuing after a dmireset whenever the
// status is RETRY, up to maxDmiRetries times.
func (d *Dtm) pollUntilSettled() (uint64, error) {
	for attempt := 0; attempt < maxDmiRetries; attempt++ {
		reg, err := d.tp.ReadReg(IRDmiaccess, d.dmiWidth)
		if err != nil {
			return 0, fmt.Errorf("dtm: collecting dmi response: %w", err)
		}
		status := reg & 0x3
		if status == resRetry {
			if err := d.writeDtmcs(0x10000); err != nil { // dmireset
				return 0, err
			}
			continue
		}
		// status == resOK or an unrecognized code: the reference
		// implementation logs unrecognized status and returns the data
		// bits unchecked; we do the same (DmiUnknownStatus is not
		// fatal).
		return reg, nil
	}
	return 0, fmt.Errorf("dtm: %w", rvdbgerr.ErrDmiHung)
}

// SimTimeNs reports the current simulated time.
func (d *Dtm) SimTimeNs() uint64 { return d.tp.SimTimeNs() }

func (d *Dtm) readIdcode() (uint32, error) {
	v, err := d.tp.ReadReg(IRIdcode, 32)
	return uint32(v), err
}

func (d *Dtm) readDtmcs() (uint32, error) {
	v, err := d.tp.ReadReg(IRDtmcs, 32)
	return uint32(v), err
}

func (d *Dtm) writeDtmcs(val uint32) error {
	return d.tp.WriteReg(IRDtmcs, uint64(val), 32)
}

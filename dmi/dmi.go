package dmi

import (
	"fmt"

	"github.com/openhwgroup/embdebug-target-core-v/dtm"
	"github.com/openhwgroup/embdebug-target-core-v/rvdbgerr"
)

// GPR/FPR abstract-command regno bases, per the RISC-V External Debug
// Support specification's register-number map. These live in the
// abstract-command address space and are distinct from the GDB regnum
// space the target package exposes to callers.
const (
	GprBase uint16 = 0x1000
	FprBase uint16 = 0x1020
)

// maxSbBusyPolls bounds the sbbusy spin loop for the same reason
// maxDmiRetries bounds the DMI RETRY loop: the specification leaves it
// unbounded, but a wedged bus must not hang the caller forever.
const maxSbBusyPolls = 10000

// maxAbstractcsBusyPolls bounds the abstractcs busy spin loop around an
// abstract command.
const maxAbstractcsBusyPolls = 10000

// Dmi is the Debug Module Interface: the typed register file plus the
// hart-selection, abstract-command, and system-bus engines built on top
// of it. It owns the Dtm beneath it exclusively.
type Dmi struct {
	dt *dtm.Dtm

	Dmcontrol    Dmcontrol
	Dmstatus     Dmstatus
	Hartinfo     Hartinfo
	Hawindowsel  Hawindowsel
	Hawindow     Hawindow
	Abstractcs   Abstractcs
	Command      Command
	Abstractauto Abstractauto
	Nextdm       Nextdm
	Authdata     Authdata
	Sbcs         Sbcs

	data        regArray
	progbuf     regArray
	confstrptr  regArray
	haltsum     regArray
	sbaddress   regArray
	sbdata      regArray

	selectedHart uint32
}

// New constructs a Dmi around dt. Callers must call Reset before issuing
// any other operation.
func New(dt *dtm.Dtm) *Dmi {
	d := &Dmi{dt: dt}
	d.Dmcontrol = newDmcontrol(dt)
	d.Dmstatus = newDmstatus(dt)
	d.Hartinfo = newHartinfo(dt)
	d.Hawindowsel = newHawindowsel(dt)
	d.Hawindow = newHawindow(dt)
	d.Abstractcs = newAbstractcs(dt)
	d.Command = newCommand(dt)
	d.Abstractauto = newAbstractauto(dt)
	d.Nextdm = newNextdm(dt)
	d.Authdata = newAuthdata(dt)
	d.Sbcs = newSbcs(dt)

	d.data = newRegArray(dt, addrData0, dataCount)
	d.progbuf = newRegArray(dt, addrProgbuf0, progbufCount)
	d.confstrptr = newRegArray(dt, addrConfstrptr0, confstrptrCount)
	d.haltsum = newRegArrayAt(dt, haltsumAddrs)
	d.sbaddress = newRegArrayAt(dt, sbaddressAddrs)
	d.sbdata = newRegArray(dt, addrSbdata0, sbdataCount)
	return d
}

// Dtm exposes the owned transport for teardown and diagnostics.
func (d *Dmi) Dtm() *dtm.Dtm { return d.dt }

// Reset resets the Dtm and brings the debug module itself out of reset
// by asserting dmactive, then reads dmcontrol back once and fails if
// dmactive is not set.
func (d *Dmi) Reset() (bool, error) {
	if ok, err := d.dt.Reset(); !ok || err != nil {
		return ok, err
	}

	d.Dmcontrol.ResetCached()
	d.Dmcontrol.SetDmactive(true)
	if err := d.Dmcontrol.Write(); err != nil {
		return false, err
	}
	if _, err := d.Dmcontrol.Read(); err != nil {
		return false, err
	}
	if !d.Dmcontrol.Dmactive() {
		return false, fmt.Errorf("dmi: dmactive did not latch after reset")
	}
	return true, nil
}

// Data returns the data[] abstract-command payload array.
func (d *Dmi) Data() *regArray { return &d.data }

// Progbuf returns the program-buffer array.
func (d *Dmi) Progbuf() *regArray { return &d.progbuf }

// Confstrptr returns the confstrptr[] array.
func (d *Dmi) Confstrptr() *regArray { return &d.confstrptr }

// Haltsum returns the haltsum[] array.
func (d *Dmi) Haltsum() *regArray { return &d.haltsum }

// Sbaddress returns the sbaddress[] array.
func (d *Dmi) Sbaddress() *regArray { return &d.sbaddress }

// Sbdata returns the sbdata[] array.
func (d *Dmi) Sbdata() *regArray { return &d.sbdata }

// SelectHart selects a hart for all subsequent operations, per the
// specification's 20-bit hartsel packed across hartsello/hartselhi.
func (d *Dmi) SelectHart(hart uint32) error {
	d.Dmcontrol.ResetCached()
	d.Dmcontrol.SetHartsel(hart)
	d.Dmcontrol.SetDmactive(true)
	if err := d.Dmcontrol.Write(); err != nil {
		return err
	}
	d.selectedHart = hart
	return nil
}

// SelectedHart returns the most recently selected hart index.
func (d *Dmi) SelectedHart() uint32 { return d.selectedHart }

// HaltHart requests a halt and waits for dmstatus.allhalted.
func (d *Dmi) HaltHart() error {
	d.Dmcontrol.ResetCached()
	d.Dmcontrol.SetDmactive(true)
	d.Dmcontrol.SetHaltreq(true)
	if err := d.Dmcontrol.Write(); err != nil {
		return err
	}
	if err := d.waitHalted(); err != nil {
		return err
	}
	d.Dmcontrol.SetHaltreq(false)
	return d.Dmcontrol.Write()
}

// ResumeHart requests a resume.
func (d *Dmi) ResumeHart() error {
	d.Dmcontrol.SetResumereq(true)
	if err := d.Dmcontrol.Write(); err != nil {
		return err
	}
	d.Dmcontrol.SetResumereq(false)
	return d.Dmcontrol.Write()
}

func (d *Dmi) waitHalted() error {
	for i := 0; i < maxAbstractcsBusyPolls; i++ {
		if _, err := d.Dmstatus.Read(); err != nil {
			return err
		}
		if d.Dmstatus.AllHalted() {
			return nil
		}
	}
	return fmt.Errorf("dmi: %w: waiting for halt", rvdbgerr.ErrSimHung)
}

// runAbstractCommand writes the command register and polls abstractcs
// until the busy bit clears, surfacing a non-NONE cmderr as an error
// (after clearing it, as the specification requires before issuing the
// next command).
func (d *Dmi) runAbstractCommand() error {
	if err := d.Command.Write(); err != nil {
		return err
	}

	var err error
	for i := 0; i < maxAbstractcsBusyPolls; i++ {
		if _, err = d.Abstractcs.Read(); err != nil {
			return err
		}
		if !d.Abstractcs.Busy() {
			break
		}
	}
	if d.Abstractcs.Busy() {
		return fmt.Errorf("dmi: %w: abstractcs busy did not clear", rvdbgerr.ErrSimHung)
	}

	ce := d.Abstractcs.Cmderr()
	if ce == rvdbgerr.CmdErrNone {
		return nil
	}
	if ce == rvdbgerr.CmdErrBusy {
		// The hardware/debug-unit reset sequence: toggle ndmreset high
		// then dmactive low-to-high. No retry of the original command.
		d.Dmcontrol.SetNdmreset(true)
		if err := d.Dmcontrol.Write(); err != nil {
			return err
		}
		d.Dmcontrol.SetNdmreset(false)
		if err := d.Dmcontrol.Write(); err != nil {
			return err
		}
		d.Dmcontrol.SetDmactive(false)
		if err := d.Dmcontrol.Write(); err != nil {
			return err
		}
		d.Dmcontrol.SetDmactive(true)
		if err := d.Dmcontrol.Write(); err != nil {
			return err
		}
		return fmt.Errorf("dmi: abstract command failed: %s", ce)
	}

	d.Abstractcs.ClearCmderr()
	if werr := d.Abstractcs.Write(); werr != nil {
		return werr
	}
	return fmt.Errorf("dmi: abstract command failed: %s", ce)
}

// readAbstractReg runs an Access Register command transferring one
// 32-bit register (GPR/FPR/CSR regno space) and returns data[0].
func (d *Dmi) readAbstractReg(regno uint16) (uint32, error) {
	d.Command.EncodeAccessRegister(Aasize32, false, regno)
	if err := d.runAbstractCommand(); err != nil {
		return 0, err
	}
	return d.data.Read(0)
}

// writeAbstractReg runs an Access Register command that writes data[0]
// into the given register.
func (d *Dmi) writeAbstractReg(regno uint16, value uint32) error {
	if err := d.data.Write(0, value); err != nil {
		return err
	}
	d.Command.EncodeAccessRegister(Aasize32, true, regno)
	return d.runAbstractCommand()
}

// ReadGpr reads integer register x (0-31) via the abstract-command
// engine's GPR window.
func (d *Dmi) ReadGpr(x uint16) (uint32, error) {
	if x > 31 {
		return 0, fmt.Errorf("dmi: %w: gpr x%d", rvdbgerr.ErrInvalidRegister, x)
	}
	return d.readAbstractReg(GprBase + x)
}

// WriteGpr writes integer register x (0-31).
func (d *Dmi) WriteGpr(x uint16, value uint32) error {
	if x > 31 {
		return fmt.Errorf("dmi: %w: gpr x%d", rvdbgerr.ErrInvalidRegister, x)
	}
	return d.writeAbstractReg(GprBase+x, value)
}

// ReadFpr reads floating-point register f (0-31).
func (d *Dmi) ReadFpr(f uint16) (uint32, error) {
	if f > 31 {
		return 0, fmt.Errorf("dmi: %w: fpr f%d", rvdbgerr.ErrInvalidRegister, f)
	}
	return d.readAbstractReg(FprBase + f)
}

// WriteFpr writes floating-point register f (0-31).
func (d *Dmi) WriteFpr(f uint16, value uint32) error {
	if f > 31 {
		return fmt.Errorf("dmi: %w: fpr f%d", rvdbgerr.ErrInvalidRegister, f)
	}
	return d.writeAbstractReg(FprBase+f, value)
}

// ReadCsr reads the CSR at the given 12-bit address. CSR regnos live at
// the bottom of the abstract-command regno space (0x0000-0x0fff),
// mirroring the architectural CSR address directly.
func (d *Dmi) ReadCsr(addr uint16) (uint32, error) {
	if addr > 0xfff {
		return 0, fmt.Errorf("dmi: %w: csr 0x%x", rvdbgerr.ErrInvalidRegister, addr)
	}
	return d.readAbstractReg(addr)
}

// WriteCsr writes the CSR at the given 12-bit address.
func (d *Dmi) WriteCsr(addr uint16, value uint32) error {
	if addr > 0xfff {
		return fmt.Errorf("dmi: %w: csr 0x%x", rvdbgerr.ErrInvalidRegister, addr)
	}
	return d.writeAbstractReg(addr, value)
}

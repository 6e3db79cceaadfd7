// Package simdevice wraps a cycle-accurate simulation of the target MCU,
// hiding its clocking from the rest of the adapter. It is the lowest layer
// of the debug stack: Tap drives a Device, Dtm drives a Tap, and so on.
package simdevice

import (
	"fmt"

	"github.com/openhwgroup/embdebug-target-core-v/rvdbgerr"
)

// Pins is the narrow set of signals the Device drives or samples on the
// simulated core every half-period. It mirrors the named ports a
// Verilator-style model exposes: a main clock/reset pair and the five JTAG
// signals (TCK is internal to the Device; callers never set it directly).
type Pins struct {
	RefClk  uint8
	Rstn    uint8
	JtagTck uint8
	JtagTrst uint8
	JtagTms uint8
	JtagTdi uint8
	JtagTdo uint8
}

// CoreModel is the minimal contract a simulated core must satisfy for
// Device to drive it. A real binding wraps a generated Verilator model; a
// test binding can be a pure-Go fake. CoreModel never blocks and never
// advances time itself; Device owns all timing.
type CoreModel interface {
	// Eval re-evaluates combinational outputs from the current Pins.
	Eval(p *Pins)
	// Finished reports whether the model has signalled a terminal
	// condition (e.g. an internal $finish).
	Finished() bool
}

// WaveWriter receives a full pin sample at a given simulated time. It is
// the seam a waveform dumper (VCD or otherwise) plugs into; Device never
// knows the file format.
type WaveWriter interface {
	Dump(timeNs uint64, p Pins)
	Close() error
}

// Device adapts a CoreModel into the half-period-stepped clocked device
// the Tap layer expects: it drives reset, the main clock, and the slower
// JTAG clock, and reports the tick on which the JTAG clock crossed an
// edge.
type Device struct {
	core CoreModel
	pins Pins

	clkHalfPeriodTicks uint64
	tckHalfPeriodTicks uint64
	resetPeriodTicks   uint64
	simTimeTicks       uint64

	tickCount uint64

	tckPosedge bool
	tckNegedge bool

	wave WaveWriter
}

// NewDevice constructs a Device around core, ticking at clkPeriodNs per
// main-clock period. simTimeNs bounds the simulation; zero means run
// forever. The JTAG clock period is fixed at 2x the main clock period and
// reset lasts 5 JTAG clock periods, matching the reference MCU's timing.
//
// If wave is non-nil it receives a Dump call on every Eval and is Closed
// by Close, regardless of how reset or later operations turn out.
func NewDevice(core CoreModel, clkPeriodNs, simTimeNs uint64, wave WaveWriter) *Device {
	clkHalf := clkPeriodNs / 2
	tckHalf := clkHalf * 2
	d := &Device{
		core:               core,
		clkHalfPeriodTicks: clkHalf,
		tckHalfPeriodTicks: tckHalf,
		resetPeriodTicks:   tckHalf * 10,
		simTimeTicks:       simTimeNs,
		wave:               wave,
	}

	nReset := resetBit(0, d.resetPeriodTicks)
	d.pins = Pins{
		RefClk:   1,
		Rstn:     nReset,
		JtagTck:  1,
		JtagTrst: nReset,
	}
	d.tckPosedge = true
	d.tckNegedge = false
	return d
}

func resetBit(tick, resetPeriodTicks uint64) uint8 {
	if tick < resetPeriodTicks {
		return 0
	}
	return 1
}

// SimTimeNs returns the current simulated time in nanoseconds. One tick
// equals one nanosecond throughout this model.
func (d *Device) SimTimeNs() uint64 { return d.tickCount }

// AllDone reports whether the device has finished: either the core
// signalled an internal terminal condition, or the configured time budget
// (if any) has elapsed.
func (d *Device) AllDone() bool {
	return d.core.Finished() || (d.simTimeTicks != 0 && d.tickCount >= d.simTimeTicks)
}

// InReset reports whether the device is still within its fixed reset
// window.
func (d *Device) InReset() bool {
	return d.tickCount < d.resetPeriodTicks
}

// AdvanceHalfPeriod advances simulated time by one main-clock half-period,
// toggling the main clock and JTAG clock as needed and updating the
// tck-edge flags. Exactly one of TckPosedge/TckNegedge is true after this
// call iff the JTAG clock crossed an edge on this tick.
func (d *Device) AdvanceHalfPeriod() {
	d.tickCount += d.clkHalfPeriodTicks
	oldTck := d.pins.JtagTck
	nReset := resetBit(d.tickCount, d.resetPeriodTicks)

	d.pins.RefClk = uint8(1 - (d.tickCount/d.clkHalfPeriodTicks)%2)
	d.pins.Rstn = nReset
	d.pins.JtagTrst = nReset
	d.pins.JtagTck = uint8(1 - (d.tickCount/d.tckHalfPeriodTicks)%2)

	d.tckPosedge = oldTck == 0 && d.pins.JtagTck == 1
	d.tckNegedge = oldTck == 1 && d.pins.JtagTck == 0
}

// TapPosedge reports whether the most recent AdvanceHalfPeriod crossed a
// JTAG clock rising edge.
func (d *Device) TapPosedge() bool { return d.tckPosedge }

// TapNegedge reports whether the most recent AdvanceHalfPeriod crossed a
// JTAG clock falling edge.
func (d *Device) TapNegedge() bool { return d.tckNegedge }

// Eval re-evaluates the core's combinational outputs from the current pin
// state and, if a waveform writer is attached, appends a sample.
func (d *Device) Eval() {
	d.core.Eval(&d.pins)
	if d.wave != nil {
		d.wave.Dump(d.tickCount, d.pins)
	}
}

// SetTdi sets the TDI input pin.
func (d *Device) SetTdi(v bool) { d.pins.JtagTdi = boolBit(v) }

// Tdi reads back the TDI input pin.
func (d *Device) Tdi() bool { return d.pins.JtagTdi != 0 }

// Tdo reads the TDO output pin.
func (d *Device) Tdo() bool { return d.pins.JtagTdo != 0 }

// SetTms sets the TMS input pin.
func (d *Device) SetTms(v bool) { d.pins.JtagTms = boolBit(v) }

// Tms reads back the TMS input pin.
func (d *Device) Tms() bool { return d.pins.JtagTms != 0 }

func boolBit(v bool) uint8 {
	if v {
		return 1
	}
	return 0
}

// Close releases the attached waveform writer, if any. It is idempotent
// and safe to call even when the device never left reset.
func (d *Device) Close() error {
	if d.wave == nil {
		return nil
	}
	w := d.wave
	d.wave = nil
	return w.Close()
}

// RequireNotDone fails with the SimulationEnded error once the device has
// finished. Higher layers call it before issuing an operation that
// assumes a live device.
func (d *Device) RequireNotDone() error {
	if d.AllDone() {
		return fmt.Errorf("simdevice: %w", rvdbgerr.ErrSimulationEnded)
	}
	return nil
}

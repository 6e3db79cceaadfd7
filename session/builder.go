// Package session wires the full Sim ⊂ Tap ⊂ Dtm ⊂ Dmi ⊂ Target
// ownership chain together behind a fluent Builder.
package session

import (
	"fmt"

	"github.com/openhwgroup/embdebug-target-core-v/dmi"
	"github.com/openhwgroup/embdebug-target-core-v/dmitrace"
	"github.com/openhwgroup/embdebug-target-core-v/dtm"
	"github.com/openhwgroup/embdebug-target-core-v/simdevice"
	"github.com/openhwgroup/embdebug-target-core-v/tap"
	"github.com/openhwgroup/embdebug-target-core-v/target"
)

// Builder assembles a Session. Each With* method returns a modified
// copy, so a Builder can be reused as a template for several sessions.
type Builder struct {
	core        simdevice.CoreModel
	clkPeriodNs uint64
	simTimeNs   uint64
	vcdPath     string
	traceDBPath string
	hart        uint32
}

// MakeBuilder creates a builder for a 100 MHz core clock and an
// unbounded simulation time budget.
func MakeBuilder(core simdevice.CoreModel) Builder {
	return Builder{core: core, clkPeriodNs: 10}
}

// WithClockPeriodNs sets the core clock period.
func (b Builder) WithClockPeriodNs(ns uint64) Builder {
	b.clkPeriodNs = ns
	return b
}

// WithSimTimeBudgetNs bounds the simulation; 0 means unbounded.
func (b Builder) WithSimTimeBudgetNs(ns uint64) Builder {
	b.simTimeNs = ns
	return b
}

// WithWaveformDump enables a VCD dump of the JTAG pins at the given path.
func (b Builder) WithWaveformDump(path string) Builder {
	b.vcdPath = path
	return b
}

// WithDmiTrace enables SQLite-backed DMI transaction tracing at the
// given database path.
func (b Builder) WithDmiTrace(path string) Builder {
	b.traceDBPath = path
	return b
}

// WithHart selects the hart the built Target targets.
func (b Builder) WithHart(hart uint32) Builder {
	b.hart = hart
	return b
}

func (b Builder) parametersMustBeValid() error {
	if b.core == nil {
		return fmt.Errorf("session: a core model is required")
	}
	return nil
}

// Build constructs and resets the full stack, selecting the configured
// hart on the returned Session's Target.
func (b Builder) Build() (*Session, error) {
	if err := b.parametersMustBeValid(); err != nil {
		return nil, err
	}

	var wave simdevice.WaveWriter
	if b.vcdPath != "" {
		w, err := simdevice.NewVCDWriter(b.vcdPath)
		if err != nil {
			return nil, fmt.Errorf("session: opening waveform dump: %w", err)
		}
		wave = w
	}

	dev := simdevice.NewDevice(b.core, b.clkPeriodNs, b.simTimeNs, wave)
	tp := tap.New(dev)
	dt := dtm.New(tp)
	dm := dmi.New(dt)

	var tracer *dmitrace.Tracer
	if b.traceDBPath != "" {
		t, err := dmitrace.Open(b.traceDBPath)
		if err != nil {
			dev.Close()
			return nil, fmt.Errorf("session: opening dmi trace database: %w", err)
		}
		tracer = t
		dt.SetTrace(func(write bool, address uint64, data uint32) {
			tracer.Record(write, address, data, dt.SimTimeNs())
		})
	}

	tg := target.New(dm)

	if ok, err := dm.Reset(); err != nil || !ok {
		dev.Close()
		if tracer != nil {
			tracer.Close()
		}
		if err == nil {
			err = fmt.Errorf("session: device signalled finish during reset")
		}
		return nil, err
	}
	if err := tg.SelectHart(b.hart); err != nil {
		dev.Close()
		if tracer != nil {
			tracer.Close()
		}
		return nil, err
	}

	return &Session{dev: dev, dm: dm, target: tg, tracer: tracer}, nil
}

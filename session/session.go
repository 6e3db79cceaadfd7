package session

import (
	"github.com/openhwgroup/embdebug-target-core-v/dmi"
	"github.com/openhwgroup/embdebug-target-core-v/dmitrace"
	"github.com/openhwgroup/embdebug-target-core-v/simdevice"
	"github.com/openhwgroup/embdebug-target-core-v/target"
)

// Session owns the full Sim ⊂ Tap ⊂ Dtm ⊂ Dmi ⊂ Target stack, built by a
// Builder. It is the only handle callers outside this package need to
// drive a debug session and tear it down cleanly.
type Session struct {
	dev    *simdevice.Device
	dm     *dmi.Dmi
	target *target.Target
	tracer *dmitrace.Tracer
}

// Target returns the Target facade the session drives.
func (s *Session) Target() *target.Target { return s.target }

// Dmi returns the underlying Dmi, for callers that need lower-level
// access (e.g. a status server reporting raw register state).
func (s *Session) Dmi() *dmi.Dmi { return s.dm }

// SimTimeNs reports the current simulated time.
func (s *Session) SimTimeNs() uint64 { return s.dm.Dtm().SimTimeNs() }

// Close tears the stack down in reverse construction order: the DMI
// trace database first, then the simulated device (and any waveform
// dump it owns).
func (s *Session) Close() error {
	if s.tracer != nil {
		if err := s.tracer.Close(); err != nil {
			return err
		}
	}
	return s.dev.Close()
}

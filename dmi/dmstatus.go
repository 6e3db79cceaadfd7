package dmi

const addrDmstatus = 0x11

var (
	fAllhavereset   = field{mask: 1 << 19, offset: 19}
	fAnyhavereset   = field{mask: 1 << 18, offset: 18}
	fAllresumeack   = field{mask: 1 << 17, offset: 17}
	fAnyresumeack   = field{mask: 1 << 16, offset: 16}
	fAllnonexistent = field{mask: 1 << 15, offset: 15}
	fAnynonexistent = field{mask: 1 << 14, offset: 14}
	fAllunavail     = field{mask: 1 << 13, offset: 13}
	fAnyunavail     = field{mask: 1 << 12, offset: 12}
	fAllrunning     = field{mask: 1 << 11, offset: 11}
	fAnyrunning     = field{mask: 1 << 10, offset: 10}
	fAllhalted      = field{mask: 1 << 9, offset: 9}
	fAnyhalted      = field{mask: 1 << 8, offset: 8}
	fAuthenticated  = field{mask: 1 << 7, offset: 7}
	fAuthbusy       = field{mask: 1 << 6, offset: 6}
	fVersion        = field{mask: 0xf, offset: 0}
)

// Dmstatus is the read-only dmstatus register reporting the aggregate
// halt/running/reset/resume state of the currently selected hart set.
type Dmstatus struct{ reg32 }

func newDmstatus(b bus) Dmstatus {
	return Dmstatus{newReg32(b, addrDmstatus, 0)}
}

func (r *Dmstatus) AllHaveReset() bool   { return fAllhavereset.getBool(r.cached) }
func (r *Dmstatus) AnyHaveReset() bool   { return fAnyhavereset.getBool(r.cached) }
func (r *Dmstatus) AllResumeAck() bool   { return fAllresumeack.getBool(r.cached) }
func (r *Dmstatus) AnyResumeAck() bool   { return fAnyresumeack.getBool(r.cached) }
func (r *Dmstatus) AllNonexistent() bool { return fAllnonexistent.getBool(r.cached) }
func (r *Dmstatus) AnyNonexistent() bool { return fAnynonexistent.getBool(r.cached) }
func (r *Dmstatus) AllUnavail() bool     { return fAllunavail.getBool(r.cached) }
func (r *Dmstatus) AnyUnavail() bool     { return fAnyunavail.getBool(r.cached) }
func (r *Dmstatus) AllRunning() bool     { return fAllrunning.getBool(r.cached) }
func (r *Dmstatus) AnyRunning() bool     { return fAnyrunning.getBool(r.cached) }
func (r *Dmstatus) AllHalted() bool      { return fAllhalted.getBool(r.cached) }
func (r *Dmstatus) AnyHalted() bool      { return fAnyhalted.getBool(r.cached) }
func (r *Dmstatus) Authenticated() bool  { return fAuthenticated.getBool(r.cached) }
func (r *Dmstatus) Authbusy() bool       { return fAuthbusy.getBool(r.cached) }
func (r *Dmstatus) Version() uint32      { return fVersion.get(r.cached) }

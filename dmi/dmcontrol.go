package dmi

const addrDmcontrol = 0x10

var (
	fHaltreq        = field{mask: 1 << 31, offset: 31}
	fResumereq      = field{mask: 1 << 30, offset: 30}
	fHartreset      = field{mask: 1 << 29, offset: 29}
	fAckhavereset   = field{mask: 1 << 28, offset: 28}
	fHasel          = field{mask: 1 << 26, offset: 26}
	fHartselhi      = field{mask: 0x3ff << 16, offset: 16}
	fHartsello      = field{mask: 0x3ff << 6, offset: 6}
	fSetresethaltreq = field{mask: 1 << 3, offset: 3}
	fClrresethaltreq = field{mask: 1 << 2, offset: 2}
	fNdmreset       = field{mask: 1 << 1, offset: 1}
	fDmactive       = field{mask: 1 << 0, offset: 0}
)

// Dmcontrol is the dmcontrol register: hart selection and the
// halt/resume/reset request lines. It remembers the most recently
// selected hart so a cache reset does not silently reselect hart 0.
type Dmcontrol struct {
	reg32
	currentHartsel uint32
}

func newDmcontrol(b bus) Dmcontrol {
	return Dmcontrol{reg32: newReg32(b, addrDmcontrol, 0)}
}

// ResetCached resets the cache to the register default, then re-applies
// the last-selected hart so the next write keeps addressing it.
func (r *Dmcontrol) ResetCached() {
	r.reg32.ResetCached()
	r.SetHartsel(r.currentHartsel)
}

func (r *Dmcontrol) SetHaltreq(v bool)   { fHaltreq.setBool(&r.cached, v) }
func (r *Dmcontrol) SetResumereq(v bool) { fResumereq.setBool(&r.cached, v) }
func (r *Dmcontrol) SetHartreset(v bool) { fHartreset.setBool(&r.cached, v) }
func (r *Dmcontrol) Ackhavereset() bool  { return fAckhavereset.getBool(r.cached) }
func (r *Dmcontrol) SetAckhavereset(v bool) { fAckhavereset.setBool(&r.cached, v) }
func (r *Dmcontrol) SetHasel(v bool)     { fHasel.setBool(&r.cached, v) }
func (r *Dmcontrol) SetNdmreset(v bool)  { fNdmreset.setBool(&r.cached, v) }
func (r *Dmcontrol) SetDmactive(v bool)  { fDmactive.setBool(&r.cached, v) }
func (r *Dmcontrol) Dmactive() bool      { return fDmactive.getBool(r.cached) }

// SetHartsel packs a 20-bit hart index across hartselhi/hartsello.
func (r *Dmcontrol) SetHartsel(hart uint32) {
	fHartselhi.set(&r.cached, hart>>10)
	fHartsello.set(&r.cached, hart&0x3ff)
	r.currentHartsel = hart
}

// Hartsel unpacks the currently selected hart index.
func (r *Dmcontrol) Hartsel() uint32 {
	return (fHartselhi.get(r.cached) << 10) | fHartsello.get(r.cached)
}

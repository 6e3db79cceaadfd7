package dmi

// Hartinfo describes where the selected hart keeps its abstract-command
// scratch data: whether it lives in the hart's own memory (dataaddr) or
// in the data[] window, and how many scratch registers are available
// for program-buffer use.
type Hartinfo struct{ reg32 }

const addrHartinfo = 0x12

var (
	fNscratch   = field{mask: 0xf << 20, offset: 20}
	fDataaccess = field{mask: 1 << 16, offset: 16}
	fDatasize   = field{mask: 0xf << 12, offset: 12}
	fDataaddr   = field{mask: 0xfff, offset: 0}
)

func newHartinfo(b bus) Hartinfo { return Hartinfo{newReg32(b, addrHartinfo, 0)} }

func (r *Hartinfo) Nscratch() uint32   { return fNscratch.get(r.cached) }
func (r *Hartinfo) Dataaccess() bool   { return fDataaccess.getBool(r.cached) }
func (r *Hartinfo) Datasize() uint32   { return fDatasize.get(r.cached) }
func (r *Hartinfo) Dataaddr() uint32   { return fDataaddr.get(r.cached) }

// Hawindowsel/Hawindow together let software probe which harts exist
// beyond the 20-bit hartsel range; this adapter never needs harts beyond
// that range, so both are modeled as plain pass-through words.

const addrHawindowsel = 0x14

type Hawindowsel struct{ reg32 }

func newHawindowsel(b bus) Hawindowsel { return Hawindowsel{newReg32(b, addrHawindowsel, 0)} }

const addrHawindow = 0x15

type Hawindow struct{ reg32 }

func newHawindow(b bus) Hawindow { return Hawindow{newReg32(b, addrHawindow, 0)} }

// Abstractauto arms autoexec: writes/reads of data[] or progbuf[] entries
// whose corresponding bit is set re-trigger the previous abstract command.
const addrAbstractauto = 0x18

var (
	fAutoexecprogbuf = field{mask: 0xffff << 16, offset: 16}
	fAutoexecdata    = field{mask: 0xfff, offset: 0}
)

type Abstractauto struct{ reg32 }

func newAbstractauto(b bus) Abstractauto { return Abstractauto{newReg32(b, addrAbstractauto, 0)} }

func (r *Abstractauto) SetAutoexecData(bit uint) { fAutoexecdata.set(&r.cached, r.cached|(1<<bit)) }
func (r *Abstractauto) ClearAll()                { r.cached = 0 }

// Nextdm points at the next debug module in a daisy chain; this adapter
// drives exactly one debug module, so it is only ever read for
// completeness.
const addrNextdm = 0x1d

type Nextdm struct{ reg32 }

func newNextdm(b bus) Nextdm { return Nextdm{newReg32(b, addrNextdm, 0)} }

// Authdata is the authentication handshake register. This adapter never
// needs to authenticate (dmstatus.authenticated is assumed already set
// by the target), so it is only exposed for completeness.
const addrAuthdata = 0x30

type Authdata struct{ reg32 }

func newAuthdata(b bus) Authdata { return Authdata{newReg32(b, addrAuthdata, 0)} }

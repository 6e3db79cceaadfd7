package dmi

import "github.com/openhwgroup/embdebug-target-core-v/rvdbgerr"

const addrAbstractcs = 0x16

var (
	fProgbufsize = field{mask: 0x1f << 24, offset: 24}
	fCsBusy      = field{mask: 1 << 12, offset: 12}
	fCmderr      = field{mask: 0x7 << 8, offset: 8}
	fDatacount   = field{mask: 0xf, offset: 0}
)

// Abstractcs reports abstract-command engine capacity (datacount,
// progbufsize) and the status of the command most recently issued.
type Abstractcs struct{ reg32 }

func newAbstractcs(b bus) Abstractcs {
	return Abstractcs{newReg32(b, addrAbstractcs, 0)}
}

func (r *Abstractcs) Progbufsize() uint32 { return fProgbufsize.get(r.cached) }
func (r *Abstractcs) Busy() bool          { return fCsBusy.getBool(r.cached) }
func (r *Abstractcs) Datacount() uint32   { return fDatacount.get(r.cached) }

func (r *Abstractcs) Cmderr() rvdbgerr.CmdErr {
	return rvdbgerr.ParseCmdErr(fCmderr.get(r.cached))
}

// ClearCmderr stages a write-1-to-clear of cmderr; the caller still has
// to push it with Write.
func (r *Abstractcs) ClearCmderr() {
	r.cached = 0
	fCmderr.set(&r.cached, 0x7)
}

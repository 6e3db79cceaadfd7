package dmi

import "github.com/openhwgroup/embdebug-target-core-v/rvdbgerr"

const addrSbcs = 0x38

// SbAccess selects the system-bus access width, in bytes-as-power-of-two
// (0 => 1 byte, 1 => 2 bytes, 2 => 4 bytes, ...). This adapter only ever
// drives 4-byte (Access32) transfers, per the word-decomposed
// read-modify-write scheme used for misaligned accesses.
type SbAccess uint8

const (
	SbAccess8   SbAccess = 0
	SbAccess16  SbAccess = 1
	SbAccess32  SbAccess = 2
	SbAccess64  SbAccess = 3
	SbAccess128 SbAccess = 4
)

var (
	fSbbusyerror     = field{mask: 1 << 22, offset: 22}
	fSbbusy          = field{mask: 1 << 21, offset: 21}
	fSbreadonaddr    = field{mask: 1 << 20, offset: 20}
	fSbaccess        = field{mask: 0x7 << 17, offset: 17}
	fSbautoincrement = field{mask: 1 << 16, offset: 16}
	fSbreadondata    = field{mask: 1 << 15, offset: 15}
	fSberror         = field{mask: 0x7 << 12, offset: 12}
	fSbasize         = field{mask: 0x7f << 5, offset: 5}
)

// Sbcs is the system-bus access control/status register: access width,
// autoincrement, the pending-read/pending-write-on-address-write flags,
// and the sticky sberror code.
type Sbcs struct{ reg32 }

func newSbcs(b bus) Sbcs {
	return Sbcs{newReg32(b, addrSbcs, 0)}
}

func (r *Sbcs) Busy() bool        { return fSbbusy.getBool(r.cached) }
func (r *Sbcs) BusyError() bool   { return fSbbusyerror.getBool(r.cached) }
func (r *Sbcs) Asize() uint32     { return fSbasize.get(r.cached) }

func (r *Sbcs) Sberror() rvdbgerr.SbError {
	return rvdbgerr.ParseSbError(fSberror.get(r.cached))
}

// ClearSberror stages a write-1-to-clear of sberror, preserving the
// other fields already cached.
func (r *Sbcs) ClearSberror() { fSberror.set(&r.cached, 0x7) }

// SetAccess configures width, autoincrement, and the
// read-on-address/read-on-data convenience flags used by sequential
// memory scans.
func (r *Sbcs) SetAccess(access SbAccess, autoincrement, readOnAddr, readOnData bool) {
	fSbaccess.set(&r.cached, uint32(access))
	fSbautoincrement.setBool(&r.cached, autoincrement)
	fSbreadonaddr.setBool(&r.cached, readOnAddr)
	fSbreadondata.setBool(&r.cached, readOnData)
}

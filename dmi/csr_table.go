package dmi

import "sort"

// CSRCategory groups CSRs for target-XML filtering; it never gates access.
type CSRCategory int

const (
	CSRAny CSRCategory = iota
	CSRFP
	CSRHWLoop
)

// CSRInfo is one entry of the CSR directory: its display name,
// whether the architecture defines it read-only, and which optional
// core extension it belongs to.
type CSRInfo struct {
	Name     string
	ReadOnly bool
	Category CSRCategory
}

// csrDirectory is the static table of every CSR this adapter knows how
// to name. It is built once and looked up by 12-bit CSR address.
var csrDirectory = map[uint16]CSRInfo{
	0x001: {Name: "fflags", ReadOnly: false, Category: CSRFP},
	0x002: {Name: "frm", ReadOnly: false, Category: CSRFP},
	0x003: {Name: "fcsr", ReadOnly: false, Category: CSRFP},
	0x300: {Name: "mstatus", ReadOnly: false, Category: CSRAny},
	0x301: {Name: "misa", ReadOnly: false, Category: CSRAny},
	0x304: {Name: "mie", ReadOnly: false, Category: CSRAny},
	0x305: {Name: "mtvec", ReadOnly: false, Category: CSRAny},
	0x320: {Name: "mcountinhibit", ReadOnly: false, Category: CSRAny},
	0x323: {Name: "mhpmevent3", ReadOnly: false, Category: CSRAny},
	0x324: {Name: "mhpmevent4", ReadOnly: false, Category: CSRAny},
	0x325: {Name: "mhpmevent5", ReadOnly: false, Category: CSRAny},
	0x326: {Name: "mhpmevent6", ReadOnly: false, Category: CSRAny},
	0x327: {Name: "mhpmevent7", ReadOnly: false, Category: CSRAny},
	0x328: {Name: "mhpmevent8", ReadOnly: false, Category: CSRAny},
	0x329: {Name: "mhpmevent9", ReadOnly: false, Category: CSRAny},
	0x32a: {Name: "mhpmevent10", ReadOnly: false, Category: CSRAny},
	0x32b: {Name: "mhpmevent11", ReadOnly: false, Category: CSRAny},
	0x32c: {Name: "mhpmevent12", ReadOnly: false, Category: CSRAny},
	0x32d: {Name: "mhpmevent13", ReadOnly: false, Category: CSRAny},
	0x32e: {Name: "mhpmevent14", ReadOnly: false, Category: CSRAny},
	0x32f: {Name: "mhpmevent15", ReadOnly: false, Category: CSRAny},
	0x330: {Name: "mhpmevent16", ReadOnly: false, Category: CSRAny},
	0x331: {Name: "mhpmevent17", ReadOnly: false, Category: CSRAny},
	0x332: {Name: "mhpmevent18", ReadOnly: false, Category: CSRAny},
	0x333: {Name: "mhpmevent19", ReadOnly: false, Category: CSRAny},
	0x334: {Name: "mhpmevent20", ReadOnly: false, Category: CSRAny},
	0x335: {Name: "mhpmevent21", ReadOnly: false, Category: CSRAny},
	0x336: {Name: "mhpmevent22", ReadOnly: false, Category: CSRAny},
	0x337: {Name: "mhpmevent23", ReadOnly: false, Category: CSRAny},
	0x338: {Name: "mhpmevent24", ReadOnly: false, Category: CSRAny},
	0x339: {Name: "mhpmevent25", ReadOnly: false, Category: CSRAny},
	0x33a: {Name: "mhpmevent26", ReadOnly: false, Category: CSRAny},
	0x33b: {Name: "mhpmevent27", ReadOnly: false, Category: CSRAny},
	0x33c: {Name: "mhpmevent28", ReadOnly: false, Category: CSRAny},
	0x33d: {Name: "mhpmevent29", ReadOnly: false, Category: CSRAny},
	0x33e: {Name: "mhpmevent30", ReadOnly: false, Category: CSRAny},
	0x33f: {Name: "mhpmevent31", ReadOnly: false, Category: CSRAny},
	0x340: {Name: "mscratch", ReadOnly: false, Category: CSRAny},
	0x341: {Name: "mepc", ReadOnly: false, Category: CSRAny},
	0x342: {Name: "mcause", ReadOnly: false, Category: CSRAny},
	0x343: {Name: "mtval", ReadOnly: false, Category: CSRAny},
	0x344: {Name: "mip", ReadOnly: false, Category: CSRAny},
	0x7a0: {Name: "tselect", ReadOnly: false, Category: CSRAny},
	0x7a1: {Name: "tdata1", ReadOnly: false, Category: CSRAny},
	0x7a2: {Name: "tdata2", ReadOnly: false, Category: CSRAny},
	0x7a3: {Name: "tdata3", ReadOnly: false, Category: CSRAny},
	0x7a4: {Name: "tinfo", ReadOnly: true, Category: CSRAny},
	0x7a8: {Name: "mcontext", ReadOnly: false, Category: CSRAny},
	0x7aa: {Name: "scontext", ReadOnly: false, Category: CSRAny},
	0x7b0: {Name: "dcsr", ReadOnly: false, Category: CSRAny},
	0x7b1: {Name: "dpc", ReadOnly: false, Category: CSRAny},
	0x7b2: {Name: "dscratch0", ReadOnly: false, Category: CSRAny},
	0x7b3: {Name: "dscratch1", ReadOnly: false, Category: CSRAny},
	0x800: {Name: "lpstart0", ReadOnly: false, Category: CSRHWLoop},
	0x801: {Name: "lpend0", ReadOnly: false, Category: CSRHWLoop},
	0x802: {Name: "lpcount0", ReadOnly: false, Category: CSRHWLoop},
	0x804: {Name: "lpstart1", ReadOnly: false, Category: CSRHWLoop},
	0x805: {Name: "lpend1", ReadOnly: false, Category: CSRHWLoop},
	0x806: {Name: "lpcount1", ReadOnly: false, Category: CSRHWLoop},
	0xb00: {Name: "mcycle", ReadOnly: false, Category: CSRAny},
	0xb02: {Name: "minstret", ReadOnly: false, Category: CSRAny},
	0xb03: {Name: "mhpmcounter3", ReadOnly: false, Category: CSRAny},
	0xb04: {Name: "mhpmcounter4", ReadOnly: false, Category: CSRAny},
	0xb05: {Name: "mhpmcounter5", ReadOnly: false, Category: CSRAny},
	0xb06: {Name: "mhpmcounter6", ReadOnly: false, Category: CSRAny},
	0xb07: {Name: "mhpmcounter7", ReadOnly: false, Category: CSRAny},
	0xb08: {Name: "mhpmcounter8", ReadOnly: false, Category: CSRAny},
	0xb09: {Name: "mhpmcounter9", ReadOnly: false, Category: CSRAny},
	0xb0a: {Name: "mhpmcounter10", ReadOnly: false, Category: CSRAny},
	0xb0b: {Name: "mhpmcounter11", ReadOnly: false, Category: CSRAny},
	0xb0c: {Name: "mhpmcounter12", ReadOnly: false, Category: CSRAny},
	0xb0d: {Name: "mhpmcounter13", ReadOnly: false, Category: CSRAny},
	0xb0e: {Name: "mhpmcounter14", ReadOnly: false, Category: CSRAny},
	0xb0f: {Name: "mhpmcounter15", ReadOnly: false, Category: CSRAny},
	0xb10: {Name: "mhpmcounter16", ReadOnly: false, Category: CSRAny},
	0xb11: {Name: "mhpmcounter17", ReadOnly: false, Category: CSRAny},
	0xb12: {Name: "mhpmcounter18", ReadOnly: false, Category: CSRAny},
	0xb13: {Name: "mhpmcounter19", ReadOnly: false, Category: CSRAny},
	0xb14: {Name: "mhpmcounter20", ReadOnly: false, Category: CSRAny},
	0xb15: {Name: "mhpmcounter21", ReadOnly: false, Category: CSRAny},
	0xb16: {Name: "mhpmcounter22", ReadOnly: false, Category: CSRAny},
	0xb17: {Name: "mhpmcounter23", ReadOnly: false, Category: CSRAny},
	0xb18: {Name: "mhpmcounter24", ReadOnly: false, Category: CSRAny},
	0xb19: {Name: "mhpmcounter25", ReadOnly: false, Category: CSRAny},
	0xb1a: {Name: "mhpmcounter26", ReadOnly: false, Category: CSRAny},
	0xb1b: {Name: "mhpmcounter27", ReadOnly: false, Category: CSRAny},
	0xb1c: {Name: "mhpmcounter28", ReadOnly: false, Category: CSRAny},
	0xb1d: {Name: "mhpmcounter29", ReadOnly: false, Category: CSRAny},
	0xb1e: {Name: "mhpmcounter30", ReadOnly: false, Category: CSRAny},
	0xb1f: {Name: "mhpmcounter31", ReadOnly: false, Category: CSRAny},
	0xb80: {Name: "mcycleh", ReadOnly: false, Category: CSRAny},
	0xb82: {Name: "minstreth", ReadOnly: false, Category: CSRAny},
	0xb83: {Name: "mhpmcounterh3", ReadOnly: false, Category: CSRAny},
	0xb84: {Name: "mhpmcounterh4", ReadOnly: false, Category: CSRAny},
	0xb85: {Name: "mhpmcounterh5", ReadOnly: false, Category: CSRAny},
	0xb86: {Name: "mhpmcounterh6", ReadOnly: false, Category: CSRAny},
	0xb87: {Name: "mhpmcounterh7", ReadOnly: false, Category: CSRAny},
	0xb88: {Name: "mhpmcounterh8", ReadOnly: false, Category: CSRAny},
	0xb89: {Name: "mhpmcounterh9", ReadOnly: false, Category: CSRAny},
	0xb8a: {Name: "mhpmcounterh10", ReadOnly: false, Category: CSRAny},
	0xb8b: {Name: "mhpmcounterh11", ReadOnly: false, Category: CSRAny},
	0xb8c: {Name: "mhpmcounterh12", ReadOnly: false, Category: CSRAny},
	0xb8d: {Name: "mhpmcounterh13", ReadOnly: false, Category: CSRAny},
	0xb8e: {Name: "mhpmcounterh14", ReadOnly: false, Category: CSRAny},
	0xb8f: {Name: "mhpmcounterh15", ReadOnly: false, Category: CSRAny},
	0xb90: {Name: "mhpmcounterh16", ReadOnly: false, Category: CSRAny},
	0xb91: {Name: "mhpmcounterh17", ReadOnly: false, Category: CSRAny},
	0xb92: {Name: "mhpmcounterh18", ReadOnly: false, Category: CSRAny},
	0xb93: {Name: "mhpmcounterh19", ReadOnly: false, Category: CSRAny},
	0xb94: {Name: "mhpmcounterh20", ReadOnly: false, Category: CSRAny},
	0xb95: {Name: "mhpmcounterh21", ReadOnly: false, Category: CSRAny},
	0xb96: {Name: "mhpmcounterh22", ReadOnly: false, Category: CSRAny},
	0xb97: {Name: "mhpmcounterh23", ReadOnly: false, Category: CSRAny},
	0xb98: {Name: "mhpmcounterh24", ReadOnly: false, Category: CSRAny},
	0xb99: {Name: "mhpmcounterh25", ReadOnly: false, Category: CSRAny},
	0xb9a: {Name: "mhpmcounterh26", ReadOnly: false, Category: CSRAny},
	0xb9b: {Name: "mhpmcounterh27", ReadOnly: false, Category: CSRAny},
	0xb9c: {Name: "mhpmcounterh28", ReadOnly: false, Category: CSRAny},
	0xb9d: {Name: "mhpmcounterh29", ReadOnly: false, Category: CSRAny},
	0xb9e: {Name: "mhpmcounterh30", ReadOnly: false, Category: CSRAny},
	0xb9f: {Name: "mhpmcounterh31", ReadOnly: false, Category: CSRAny},
	0xc00: {Name: "cycle", ReadOnly: true, Category: CSRAny},
	0xc02: {Name: "instret", ReadOnly: true, Category: CSRAny},
	0xc03: {Name: "hpmcounter3", ReadOnly: true, Category: CSRAny},
	0xc04: {Name: "hpmcounter4", ReadOnly: true, Category: CSRAny},
	0xc05: {Name: "hpmcounter5", ReadOnly: true, Category: CSRAny},
	0xc06: {Name: "hpmcounter6", ReadOnly: true, Category: CSRAny},
	0xc07: {Name: "hpmcounter7", ReadOnly: true, Category: CSRAny},
	0xc08: {Name: "hpmcounter8", ReadOnly: true, Category: CSRAny},
	0xc09: {Name: "hpmcounter9", ReadOnly: true, Category: CSRAny},
	0xc0a: {Name: "hpmcounter10", ReadOnly: true, Category: CSRAny},
	0xc0b: {Name: "hpmcounter11", ReadOnly: true, Category: CSRAny},
	0xc0c: {Name: "hpmcounter12", ReadOnly: true, Category: CSRAny},
	0xc0d: {Name: "hpmcounter13", ReadOnly: true, Category: CSRAny},
	0xc0e: {Name: "hpmcounter14", ReadOnly: true, Category: CSRAny},
	0xc0f: {Name: "hpmcounter15", ReadOnly: true, Category: CSRAny},
	0xc10: {Name: "hpmcounter16", ReadOnly: true, Category: CSRAny},
	0xc11: {Name: "hpmcounter17", ReadOnly: true, Category: CSRAny},
	0xc12: {Name: "hpmcounter18", ReadOnly: true, Category: CSRAny},
	0xc13: {Name: "hpmcounter19", ReadOnly: true, Category: CSRAny},
	0xc14: {Name: "hpmcounter20", ReadOnly: true, Category: CSRAny},
	0xc15: {Name: "hpmcounter21", ReadOnly: true, Category: CSRAny},
	0xc16: {Name: "hpmcounter22", ReadOnly: true, Category: CSRAny},
	0xc17: {Name: "hpmcounter23", ReadOnly: true, Category: CSRAny},
	0xc18: {Name: "hpmcounter24", ReadOnly: true, Category: CSRAny},
	0xc19: {Name: "hpmcounter25", ReadOnly: true, Category: CSRAny},
	0xc1a: {Name: "hpmcounter26", ReadOnly: true, Category: CSRAny},
	0xc1b: {Name: "hpmcounter27", ReadOnly: true, Category: CSRAny},
	0xc1c: {Name: "hpmcounter28", ReadOnly: true, Category: CSRAny},
	0xc1d: {Name: "hpmcounter29", ReadOnly: true, Category: CSRAny},
	0xc1e: {Name: "hpmcounter30", ReadOnly: true, Category: CSRAny},
	0xc1f: {Name: "hpmcounter31", ReadOnly: true, Category: CSRAny},
	0xc80: {Name: "cycleh", ReadOnly: true, Category: CSRAny},
	0xc82: {Name: "instreth", ReadOnly: true, Category: CSRAny},
	0xc83: {Name: "hpmcounterh3", ReadOnly: true, Category: CSRAny},
	0xc84: {Name: "hpmcounterh4", ReadOnly: true, Category: CSRAny},
	0xc85: {Name: "hpmcounterh5", ReadOnly: true, Category: CSRAny},
	0xc86: {Name: "hpmcounterh6", ReadOnly: true, Category: CSRAny},
	0xc87: {Name: "hpmcounterh7", ReadOnly: true, Category: CSRAny},
	0xc88: {Name: "hpmcounterh8", ReadOnly: true, Category: CSRAny},
	0xc89: {Name: "hpmcounterh9", ReadOnly: true, Category: CSRAny},
	0xc8a: {Name: "hpmcounterh10", ReadOnly: true, Category: CSRAny},
	0xc8b: {Name: "hpmcounterh11", ReadOnly: true, Category: CSRAny},
	0xc8c: {Name: "hpmcounterh12", ReadOnly: true, Category: CSRAny},
	0xc8d: {Name: "hpmcounterh13", ReadOnly: true, Category: CSRAny},
	0xc8e: {Name: "hpmcounterh14", ReadOnly: true, Category: CSRAny},
	0xc8f: {Name: "hpmcounterh15", ReadOnly: true, Category: CSRAny},
	0xc90: {Name: "hpmcounterh16", ReadOnly: true, Category: CSRAny},
	0xc91: {Name: "hpmcounterh17", ReadOnly: true, Category: CSRAny},
	0xc92: {Name: "hpmcounterh18", ReadOnly: true, Category: CSRAny},
	0xc93: {Name: "hpmcounterh19", ReadOnly: true, Category: CSRAny},
	0xc94: {Name: "hpmcounterh20", ReadOnly: true, Category: CSRAny},
	0xc95: {Name: "hpmcounterh21", ReadOnly: true, Category: CSRAny},
	0xc96: {Name: "hpmcounterh22", ReadOnly: true, Category: CSRAny},
	0xc97: {Name: "hpmcounterh23", ReadOnly: true, Category: CSRAny},
	0xc98: {Name: "hpmcounterh24", ReadOnly: true, Category: CSRAny},
	0xc99: {Name: "hpmcounterh25", ReadOnly: true, Category: CSRAny},
	0xc9a: {Name: "hpmcounterh26", ReadOnly: true, Category: CSRAny},
	0xc9b: {Name: "hpmcounterh27", ReadOnly: true, Category: CSRAny},
	0xc9c: {Name: "hpmcounterh28", ReadOnly: true, Category: CSRAny},
	0xc9d: {Name: "hpmcounterh29", ReadOnly: true, Category: CSRAny},
	0xc9e: {Name: "hpmcounterh30", ReadOnly: true, Category: CSRAny},
	0xc9f: {Name: "hpmcounterh31", ReadOnly: true, Category: CSRAny},
	0xcc0: {Name: "uhartid", ReadOnly: true, Category: CSRAny},
	0xcc1: {Name: "privlv", ReadOnly: true, Category: CSRAny},
	0xf11: {Name: "mvendorid", ReadOnly: true, Category: CSRAny},
	0xf12: {Name: "marchid", ReadOnly: true, Category: CSRAny},
	0xf13: {Name: "mimpid", ReadOnly: true, Category: CSRAny},
}

// LookupCSR returns the directory entry for a 12-bit CSR address and
// whether it is known. Unknown addresses are still accessible through
// ReadCsr/WriteCsr; they just surface as "csrNNN" in target XML.
func LookupCSR(addr uint16) (CSRInfo, bool) {
	info, ok := csrDirectory[addr]
	return info, ok
}

// SortedCSRAddrs returns every known CSR address in ascending order, for
// deterministic target-XML generation.
func SortedCSRAddrs() []uint16 {
	addrs := make([]uint16, 0, len(csrDirectory))
	for a := range csrDirectory {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	return addrs
}

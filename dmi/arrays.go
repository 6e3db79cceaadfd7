package dmi

// regArray is a contiguous run of same-sized debug-module registers
// addressed by a fixed base plus index: data[], progbuf[], sbaddress[],
// sbdata[], haltsum[], confstrptr[]. Wrapping each as its own reg32 slot
// keeps per-slot caching without twelve near-identical named types.
type regArray struct {
	b     bus
	base  uint64
	slots []reg32
}

func newRegArray(b bus, base uint64, n int) regArray {
	ra := regArray{b: b, base: base, slots: make([]reg32, n)}
	for i := range ra.slots {
		ra.slots[i] = newReg32(b, base+uint64(i), 0)
	}
	return ra
}

// newRegArrayAt builds a regArray over an explicit, possibly
// non-contiguous list of DMI addresses: haltsum0..3 and sbaddress0..3 are
// scattered across the address space rather than laid out sequentially.
func newRegArrayAt(b bus, addrs []uint64) regArray {
	ra := regArray{b: b, slots: make([]reg32, len(addrs))}
	for i, a := range addrs {
		ra.slots[i] = newReg32(b, a, 0)
	}
	return ra
}

func (ra *regArray) Len() int { return len(ra.slots) }

func (ra *regArray) Read(i int) (uint32, error) { return ra.slots[i].Read() }

func (ra *regArray) Write(i int, v uint32) error {
	ra.slots[i].SetRaw(v)
	return ra.slots[i].Write()
}

func (ra *regArray) Cached(i int) uint32  { return ra.slots[i].Raw() }
func (ra *regArray) SetCached(i int, v uint32) { ra.slots[i].SetRaw(v) }

const (
	addrData0       = 0x04
	dataCount       = 12
	addrProgbuf0    = 0x20
	progbufCount    = 16
	addrConfstrptr0 = 0x19
	confstrptrCount = 4
	addrSbdata0     = 0x3c
	sbdataCount     = 4
)

// haltsum0..3 and sbaddress0..3 are not laid out at contiguous DMI
// addresses, unlike the other register arrays.
var haltsumAddrs = []uint64{0x40, 0x13, 0x34, 0x35}
var sbaddressAddrs = []uint64{0x39, 0x3a, 0x3b, 0x37}

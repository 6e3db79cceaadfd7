package dmi

import (
	"fmt"

	"github.com/openhwgroup/embdebug-target-core-v/rvdbgerr"
)

// badUnmappedWord is the sentinel value the simulated bus answers with
// for an unmapped address; the bus itself reports success (sberror
// stays NONE), so this is a property of the target, not a fault this
// adapter needs to detect.
const badUnmappedWord uint32 = 0xbadcab1e

// ReadMem reads nBytes from addr via the system bus, decomposing the
// access into 32-bit word reads with autoincrement across full words in
// the middle of the range.
func (d *Dmi) ReadMem(addr uint32, nBytes int) ([]byte, error) {
	if nBytes <= 0 {
		return nil, nil
	}
	start := addr &^ 3
	end := (addr + uint32(nBytes) + 3) &^ 3
	nWords := (end - start) / 4

	d.Sbcs.SetAccess(SbAccess32, nWords > 1, true, true)
	d.Sbcs.ClearSberror()
	if err := d.Sbcs.Write(); err != nil {
		return nil, err
	}

	if err := d.sbaddress.Write(0, start); err != nil {
		return nil, err
	}

	out := make([]byte, 0, nBytes)
	offset := int(addr - start)
	remaining := nBytes

	for w := uint32(0); w < nWords; w++ {
		if err := d.waitSbNotBusy(); err != nil {
			return nil, err
		}
		word, err := d.sbdata.Read(0)
		if err != nil {
			return nil, err
		}
		bytes := wordLE(word)

		lo := 0
		hi := 4
		if w == 0 {
			lo = offset
		}
		if remaining < hi-lo {
			hi = lo + remaining
		}
		out = append(out, bytes[lo:hi]...)
		remaining -= hi - lo
	}
	return out, nil
}

// WriteMem writes data to addr, via read-modify-write for misaligned
// head/tail words and a direct write for every full word in between.
func (d *Dmi) WriteMem(addr uint32, data []byte) error {
	nBytes := len(data)
	if nBytes == 0 {
		return nil
	}
	start := addr &^ 3
	end := (addr + uint32(nBytes) + 3) &^ 3
	nWords := (end - start) / 4
	startAligned := start == addr
	endAligned := end == addr+uint32(nBytes)
	headOffset := int(addr - start)
	consumed := 0

	// takeInto fills the portion of word [lo,4) (or [lo,hi) for the
	// tail) from data, advancing consumed.
	takeInto := func(scratch *[4]byte, lo int) {
		hi := 4
		if remaining := nBytes - consumed; hi-lo > remaining {
			hi = lo + remaining
		}
		for i := lo; i < hi; i++ {
			scratch[i] = data[consumed]
			consumed++
		}
	}

	// The head word needs a read-modify-write when the start is
	// misaligned, and also when a single-word access stops short of the
	// word's end: in both cases bytes outside the request must be carried
	// over unchanged.
	headRMW := !startAligned || (nWords == 1 && !endAligned)

	d.Sbcs.SetAccess(SbAccess32, nWords > 1, headRMW, false)
	d.Sbcs.ClearSberror()
	if err := d.Sbcs.Write(); err != nil {
		return err
	}
	if err := d.sbaddress.Write(0, start); err != nil {
		return err
	}

	var scratch [4]byte
	if headRMW {
		if err := d.waitSbNotBusy(); err != nil {
			return err
		}
		word, err := d.sbdata.Read(0)
		if err != nil {
			return err
		}
		scratch = wordLE(word)

		// Reprogram for a plain write (and re-arm autoincrement) before
		// resetting the address, so the upcoming sbdata0 write both
		// lands on `start` and, if there is more than one word, advances
		// the address to the next word on its own.
		d.Sbcs.SetAccess(SbAccess32, nWords > 1, false, false)
		if err := d.Sbcs.Write(); err != nil {
			return err
		}
		if err := d.sbaddress.Write(0, start); err != nil {
			return err
		}
	}
	takeInto(&scratch, headOffset)
	if err := d.sbdata.Write(0, leWord(scratch)); err != nil {
		return err
	}
	if err := d.waitSbNotBusy(); err != nil {
		return err
	}

	// Middle words: full, aligned, assembled directly from the input.
	for w := uint32(1); w < nWords-1; w++ {
		var mid [4]byte
		takeInto(&mid, 0)
		if err := d.sbdata.Write(0, leWord(mid)); err != nil {
			return err
		}
		if err := d.waitSbNotBusy(); err != nil {
			return err
		}
	}

	// Tail word, only if distinct from the head.
	if nWords > 1 {
		var tail [4]byte
		if !endAligned {
			d.Sbcs.SetAccess(SbAccess32, false, true, false)
			if err := d.Sbcs.Write(); err != nil {
				return err
			}
			if err := d.sbaddress.Write(0, end-4); err != nil {
				return err
			}
			if err := d.waitSbNotBusy(); err != nil {
				return err
			}
			word, err := d.sbdata.Read(0)
			if err != nil {
				return err
			}
			tail = wordLE(word)

			d.Sbcs.SetAccess(SbAccess32, false, false, false)
			if err := d.Sbcs.Write(); err != nil {
				return err
			}
			if err := d.sbaddress.Write(0, end-4); err != nil {
				return err
			}
		}
		takeInto(&tail, 0)
		if err := d.sbdata.Write(0, leWord(tail)); err != nil {
			return err
		}
		if err := d.waitSbNotBusy(); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dmi) waitSbNotBusy() error {
	for i := 0; i < maxSbBusyPolls; i++ {
		if _, err := d.Sbcs.Read(); err != nil {
			return err
		}
		if !d.Sbcs.Busy() {
			break
		}
	}
	if d.Sbcs.Busy() {
		return fmt.Errorf("dmi: %w: sbbusy did not clear", rvdbgerr.ErrSimHung)
	}
	if se := d.Sbcs.Sberror(); se != 0 {
		d.Sbcs.ClearSberror()
		if err := d.Sbcs.Write(); err != nil {
			return err
		}
		return fmt.Errorf("dmi: system bus error: %s", se)
	}
	return nil
}

func wordLE(w uint32) [4]byte {
	var b [4]byte
	for i := 0; i < 4; i++ {
		b[i] = byte(w)
		w >>= 8
	}
	return b
}

func leWord(b [4]byte) uint32 {
	var w uint32
	for i := 3; i >= 0; i-- {
		w = (w << 8) | uint32(b[i])
	}
	return w
}

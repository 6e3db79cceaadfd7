package main

import (
	"bytes"
	"fmt"
	"io"
	"math/rand"

	"github.com/openhwgroup/embdebug-target-core-v/session"
	"github.com/openhwgroup/embdebug-target-core-v/target"
)

// selfTestRunner drives the exerciser modes original_source/target's
// DmiCvDebugger hand-rolled: each test round-trips a register or memory
// class through the real Target/Dmi surface and reports pass/fail,
// rather than exercising internal protocol framing directly.
type selfTestRunner struct {
	sess     *session.Session
	maxBlock int
	out      io.Writer
	rng      *rand.Rand
	failed   bool
}

func newSelfTestRunner(sess *session.Session, maxBlock int, out io.Writer) *selfTestRunner {
	return &selfTestRunner{
		sess:     sess,
		maxBlock: maxBlock,
		out:      out,
		rng:      rand.New(rand.NewSource(int64(flagSeed))),
	}
}

func (r *selfTestRunner) run(name string, fn func() error) {
	err := fn()
	if err != nil {
		r.failed = true
		fmt.Fprintf(r.out, "FAIL %-8s %v\n", name, err)
		return
	}
	fmt.Fprintf(r.out, "PASS %-8s\n", name)
}

// testStatus halts the hart, single-steps it, and confirms Wait reports
// it interrupted and halted again.
func (r *selfTestRunner) testStatus() error {
	tg := r.sess.Target()
	if err := tg.Halt(); err != nil {
		return fmt.Errorf("halt: %w", err)
	}
	if err := tg.Prepare([]target.Action{target.ActionStep}); err != nil {
		return fmt.Errorf("prepare step: %w", err)
	}
	if err := tg.Resume(); err != nil {
		return fmt.Errorf("resume: %w", err)
	}
	result, err := tg.Wait()
	if err != nil {
		return fmt.Errorf("wait: %w", err)
	}
	if result != target.ResultInterrupted {
		return fmt.Errorf("step: want Interrupted, got %v", result)
	}
	return nil
}

// gprCount is the number of GDB register numbers (0-31) that address a GPR.
const gprCount = 32

func (r *selfTestRunner) testGprs() error {
	tg := r.sess.Target()
	if err := tg.Halt(); err != nil {
		return fmt.Errorf("halt: %w", err)
	}
	for regnum := uint32(0); regnum < gprCount; regnum++ {
		want := r.rng.Uint32()
		if regnum == 0 {
			want = 0 // x0 is hardwired to zero on RISC-V
		}
		if _, err := tg.WriteRegister(regnum, want); err != nil {
			return fmt.Errorf("write x%d: %w", regnum, err)
		}
		got, _, err := tg.ReadRegister(regnum)
		if err != nil {
			return fmt.Errorf("read x%d: %w", regnum, err)
		}
		if regnum != 0 && got != want {
			return fmt.Errorf("x%d: wrote %#x, read back %#x", regnum, want, got)
		}
	}
	return nil
}

const (
	fprFirstRegnum = 33
	fprLastRegnum  = 64
)

func (r *selfTestRunner) testFprs() error {
	tg := r.sess.Target()
	if err := tg.Halt(); err != nil {
		return fmt.Errorf("halt: %w", err)
	}
	for regnum := uint32(fprFirstRegnum); regnum <= fprLastRegnum; regnum++ {
		want := r.rng.Uint32()
		if _, err := tg.WriteRegister(regnum, want); err != nil {
			return fmt.Errorf("write f%d: %w", regnum-fprFirstRegnum, err)
		}
		got, width, err := tg.ReadRegister(regnum)
		if err != nil {
			return fmt.Errorf("read f%d: %w", regnum-fprFirstRegnum, err)
		}
		if width == 0 {
			return fmt.Errorf("f%d: not recognized", regnum-fprFirstRegnum)
		}
		if got != want {
			return fmt.Errorf("f%d: wrote %#x, read back %#x", regnum-fprFirstRegnum, want, got)
		}
	}
	return nil
}

// csrRegnumBase matches target.regnumCsrBase; duplicated here since that
// constant is unexported (the CLI drives Target purely through its
// public GDB register-number surface, by design).
const csrRegnumBase = 65

// A handful of writable, non-reserved CSRs to round-trip; mscratch in
// particular has no side effects on write, per the RISC-V privileged
// spec.
var testCsrAddrs = []uint16{0x340, 0x341, 0x342} // mscratch, mepc, mcause

func (r *selfTestRunner) testCsrs() error {
	tg := r.sess.Target()
	if err := tg.Halt(); err != nil {
		return fmt.Errorf("halt: %w", err)
	}
	for _, addr := range testCsrAddrs {
		regnum := csrRegnumBase + uint32(addr)
		want := r.rng.Uint32()
		if _, err := tg.WriteRegister(regnum, want); err != nil {
			return fmt.Errorf("write csr %#x: %w", addr, err)
		}
		got, width, err := tg.ReadRegister(regnum)
		if err != nil {
			return fmt.Errorf("read csr %#x: %w", addr, err)
		}
		if width == 0 {
			return fmt.Errorf("csr %#x: not recognized", addr)
		}
		if got != want {
			return fmt.Errorf("csr %#x: wrote %#x, read back %#x", addr, want, got)
		}
	}
	return nil
}

func (r *selfTestRunner) testMem() error {
	tg := r.sess.Target()
	if err := tg.Halt(); err != nil {
		return fmt.Errorf("halt: %w", err)
	}
	dm := r.sess.Dmi()

	for size := 1; size <= r.maxBlock; size++ {
		addr := uint32(0x1000 + size*8)
		data := make([]byte, size)
		r.rng.Read(data)

		if err := dm.WriteMem(addr, data); err != nil {
			return fmt.Errorf("write %d bytes at %#x: %w", size, addr, err)
		}
		got, err := dm.ReadMem(addr, size)
		if err != nil {
			return fmt.Errorf("read %d bytes at %#x: %w", size, addr, err)
		}
		if !bytes.Equal(got, data) {
			return fmt.Errorf("%d bytes at %#x: wrote %x, read back %x", size, addr, data, got)
		}
	}
	return nil
}

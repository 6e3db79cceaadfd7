package dmi

const addrCommand = 0x17

// CmdType selects which abstract command the debug module should run.
type CmdType uint8

const (
	CmdAccessRegister CmdType = 0
	CmdQuickAccess    CmdType = 1
	CmdAccessMemory   CmdType = 2
)

// Aasize encodes the width of an abstract register access.
type Aasize uint8

const (
	Aasize32  Aasize = 0
	Aasize64  Aasize = 1
	Aasize128 Aasize = 2
)

var (
	fCmdtype          = field{mask: 0xff << 24, offset: 24}
	fAarsize          = field{mask: 0x7 << 20, offset: 20}
	fAarpostincrement = field{mask: 1 << 19, offset: 19}
	fPostexec         = field{mask: 1 << 18, offset: 18}
	fTransfer         = field{mask: 1 << 17, offset: 17}
	fCmdWrite         = field{mask: 1 << 16, offset: 16}
	fRegno            = field{mask: 0xffff, offset: 0}
)

// Command is the write-only command register that launches an abstract
// command. Only the Access Register format (cmdtype 0) is used by the
// register/CSR access engine in this adapter; ReadMem/WriteMem go through
// the system bus (sbcs/sbaddress/sbdata) rather than Access Memory
// commands, so that format is never encoded here.
type Command struct{ reg32 }

func newCommand(b bus) Command {
	return Command{newReg32(b, addrCommand, 0)}
}

// EncodeAccessRegister builds the control word for an Access Register
// command that transfers one register of the given size and regno.
func (r *Command) EncodeAccessRegister(size Aasize, write bool, regno uint16) {
	r.cached = 0
	fCmdtype.set(&r.cached, uint32(CmdAccessRegister))
	fAarsize.set(&r.cached, uint32(size))
	fTransfer.setBool(&r.cached, true)
	fCmdWrite.setBool(&r.cached, write)
	fRegno.set(&r.cached, uint32(regno))
}

// Package statusserver exposes a read-only HTTP introspection endpoint
// over a running debug session: hart halt state, register contents, and
// cycle/instret counters, plus pprof profiling handlers.
package statusserver

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"

	// Registers /debug/pprof handlers on http.DefaultServeMux.
	_ "net/http/pprof"
	"os"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shirou/gopsutil/process"

	"github.com/openhwgroup/embdebug-target-core-v/dmi"
	"github.com/openhwgroup/embdebug-target-core-v/target"
)

// Server wraps a Target and Dmi with a read-only JSON introspection API.
// It never issues hart-control requests of its own; every handler only
// reads already-cached or freshly-polled state.
type Server struct {
	dm         *dmi.Dmi
	target     *target.Target
	portNumber int
	listener   net.Listener
}

// NewServer creates a Server for the given session handles. Call
// WithPortNumber before Start to pin a specific port; otherwise a random
// free port is used.
func NewServer(dm *dmi.Dmi, tg *target.Target) *Server {
	return &Server{dm: dm, target: tg}
}

// WithPortNumber pins the TCP port Start listens on. Ports below 1000 are
// rejected (reserved) in favor of a random port.
func (s *Server) WithPortNumber(port int) *Server {
	if port < 1000 {
		fmt.Fprintf(os.Stderr,
			"statusserver: port %d is reserved, using a random port instead\n", port)
		port = 0
	}
	s.portNumber = port
	return s
}

// Start binds the listener and serves in the background. It returns once
// the listener is bound so the caller can read Addr immediately.
func (s *Server) Start() error {
	r := mux.NewRouter()
	r.HandleFunc("/status", s.status)
	r.HandleFunc("/registers", s.registers)
	r.HandleFunc("/cycles", s.cycles)
	r.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)

	addr := ":0"
	if s.portNumber >= 1000 {
		addr = ":" + strconv.Itoa(s.portNumber)
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("statusserver: binding listener: %w", err)
	}
	s.listener = listener

	fmt.Fprintf(os.Stderr, "statusserver: listening on http://localhost:%d\n",
		listener.Addr().(*net.TCPAddr).Port)

	go func() {
		_ = http.Serve(listener, r)
	}()

	return nil
}

// Addr returns the bound listener address. Call after Start.
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// Close stops accepting new connections.
func (s *Server) Close() error {
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

type statusRsp struct {
	Hart          uint32  `json:"hart"`
	AnyHalted     bool    `json:"any_halted"`
	AllHalted     bool    `json:"all_halted"`
	AnyRunning    bool    `json:"any_running"`
	AllRunning    bool    `json:"all_running"`
	Haltsum0      uint32  `json:"haltsum0"`
	ProcessRSS    uint64  `json:"process_rss_bytes,omitempty"`
	ProcessCPUPct float64 `json:"process_cpu_percent,omitempty"`
}

func (s *Server) status(w http.ResponseWriter, _ *http.Request) {
	if _, err := s.dm.Dmstatus.Read(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	haltsum0, err := s.dm.Haltsum().Read(0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	rsp := statusRsp{
		Hart:       s.dm.SelectedHart(),
		AnyHalted:  s.dm.Dmstatus.AnyHalted(),
		AllHalted:  s.dm.Dmstatus.AllHalted(),
		AnyRunning: s.dm.Dmstatus.AnyRunning(),
		AllRunning: s.dm.Dmstatus.AllRunning(),
		Haltsum0:   haltsum0,
	}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mem, err := proc.MemoryInfo(); err == nil {
			rsp.ProcessRSS = mem.RSS
		}
		if cpu, err := proc.CPUPercent(); err == nil {
			rsp.ProcessCPUPct = cpu
		}
	}

	writeJSON(w, rsp)
}

type registerEntry struct {
	Regnum uint32 `json:"regnum"`
	Value  uint32 `json:"value"`
}

func (s *Server) registers(w http.ResponseWriter, _ *http.Request) {
	var regs []registerEntry
	for regnum := uint32(0); regnum <= 32; regnum++ { // GPRs + pc
		v, width, err := s.target.ReadRegister(regnum)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if width == 0 {
			continue
		}
		regs = append(regs, registerEntry{Regnum: regnum, Value: v})
	}
	writeJSON(w, regs)
}

type cyclesRsp struct {
	Cycle   uint32 `json:"cycle"`
	Instret uint32 `json:"instret"`
}

// cycle/instret CSR addresses (RISC-V unprivileged spec).
const (
	csrCycle   = 0xc00
	csrInstret = 0xc02
)

func (s *Server) cycles(w http.ResponseWriter, _ *http.Request) {
	cycle, err := s.dm.ReadCsr(csrCycle)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	instret, err := s.dm.ReadCsr(csrInstret)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, cyclesRsp{Cycle: cycle, Instret: instret})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

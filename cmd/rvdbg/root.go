// Package main provides the rvdbg command-line adapter: it assembles a
// debug session and either starts the optional introspection server and
// idles, or runs one of the built-in self-tests.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openhwgroup/embdebug-target-core-v/refcore"
	"github.com/openhwgroup/embdebug-target-core-v/session"
	"github.com/openhwgroup/embdebug-target-core-v/statusserver"
)

var (
	flagMhz         float64
	flagDurationNs  uint64
	flagSeed        uint
	flagMaxBlock    int
	flagVcd         string
	flagTestStatus  bool
	flagTestGprs    bool
	flagTestFprs    bool
	flagTestCsrs    bool
	flagTestMem     bool
	flagMonitor     bool
	flagMonitorPort int
	flagTraceDB     string
)

var rootCmd = &cobra.Command{
	Use:   "rvdbg",
	Short: "rvdbg drives a RISC-V debug module over a simulated JTAG link.",
	Long:  "rvdbg assembles the Tap/Dtm/Dmi/Target stack against a simulated core, runs the requested self-tests, and optionally serves a read-only status endpoint.",
	RunE:  run,
}

const rvdbgVersion = "embdebug-target-core-v version 0.0.0"

func init() {
	flags := rootCmd.Flags()
	flags.Float64VarP(&flagMhz, "mhz", "s", 100, "clock speed in MHz (max 500)")
	flags.Uint64VarP(&flagDurationNs, "duration-ns", "d", 0, "simulation duration in ns, 0 = unbounded")
	flags.UintVar(&flagSeed, "seed", 1, "RNG seed")
	flags.IntVar(&flagMaxBlock, "max-block", 64, "maximum memory block size to self-test")
	flags.StringVar(&flagVcd, "vcd", "", "waveform dump path; .vcd appended if missing")
	flags.BoolVar(&flagTestStatus, "test-status", false, "run the built-in hart-status self-test")
	flags.BoolVar(&flagTestGprs, "test-gprs", false, "run the built-in GPR self-test")
	flags.BoolVar(&flagTestFprs, "test-fprs", false, "run the built-in FPR/FPU-CSR self-test")
	flags.BoolVar(&flagTestCsrs, "test-csrs", false, "run the built-in CSR self-test")
	flags.BoolVar(&flagTestMem, "test-mem", false, "run the built-in memory self-test")
	flags.BoolVar(&flagMonitor, "monitor", false, "start the status-server introspection endpoint")
	flags.IntVar(&flagMonitorPort, "monitor-port", 0, "port for --monitor (default: random free port)")
	flags.StringVar(&flagTraceDB, "trace-db", "", "enable dmitrace SQLite transaction logging")

	var showVersion bool
	flags.BoolVarP(&showVersion, "version", "v", false, "print the version and exit")
	rootCmd.PreRunE = func(cmd *cobra.Command, _ []string) error {
		if showVersion {
			fmt.Fprintln(cmd.OutOrStdout(), rvdbgVersion)
			os.Exit(0)
		}
		return nil
	}
}

func run(cmd *cobra.Command, _ []string) error {
	if flagMhz > 500 {
		return fmt.Errorf("rvdbg: speed cannot be greater than 500MHz")
	}
	if flagMaxBlock < 1 {
		flagMaxBlock = 1
	}
	clkPeriodNs := uint64(1000.0 / flagMhz)

	vcdPath := flagVcd
	if vcdPath != "" && !strings.HasSuffix(strings.ToLower(vcdPath), ".vcd") {
		vcdPath += ".vcd"
	}

	builder := session.MakeBuilder(refcore.New()).
		WithClockPeriodNs(clkPeriodNs).
		WithSimTimeBudgetNs(flagDurationNs)
	if vcdPath != "" {
		builder = builder.WithWaveformDump(vcdPath)
	}
	if flagTraceDB != "" {
		builder = builder.WithDmiTrace(flagTraceDB)
	}

	sess, err := builder.Build()
	if err != nil {
		return fmt.Errorf("rvdbg: starting session: %w", err)
	}
	defer sess.Close()

	if flagMonitor {
		srv := statusserver.NewServer(sess.Dmi(), sess.Target()).WithPortNumber(flagMonitorPort)
		if err := srv.Start(); err != nil {
			return fmt.Errorf("rvdbg: starting status server: %w", err)
		}
		defer srv.Close()
	}

	results := newSelfTestRunner(sess, flagMaxBlock, cmd.OutOrStdout())

	ran := false
	if flagTestStatus {
		ran = true
		results.run("status", results.testStatus)
	}
	if flagTestGprs {
		ran = true
		results.run("gprs", results.testGprs)
	}
	if flagTestFprs {
		ran = true
		results.run("fprs", results.testFprs)
	}
	if flagTestCsrs {
		ran = true
		results.run("csrs", results.testCsrs)
	}
	if flagTestMem {
		ran = true
		results.run("mem", results.testMem)
	}

	if flagMonitor && !ran {
		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, os.Interrupt)
		<-interrupt
	}

	if ran && results.failed {
		return fmt.Errorf("rvdbg: one or more self-tests failed")
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

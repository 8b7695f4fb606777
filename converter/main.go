// ais2json converts archives of raw satellite-collected AIS sentences
// into newline-delimited JSON, one object per decoded logical message.
package main

import (
	"fmt"
	"os"
	"runtime"
	"strconv"

	flag "github.com/spf13/pflag"

	"github.com/tormol/ais2json/logger"
)

const defaultFlowLimit = 500000

var (
	verbose    = flag.BoolP("verbose", "v", false, "log dropped sentences and other details")
	quiet      = flag.BoolP("quiet", "q", false, "only log errors")
	assemblers = flag.Int("assemblers", 1, "number of reassembly partitions")
)

func usage() {
	fmt.Fprintf(os.Stderr,
		"Usage: %s [flags] <INPUT> <OUTPUT> [FLOW_LIMIT] [PARSE_THREADS]\n",
		os.Args[0])
	fmt.Fprintln(os.Stderr, "Converts raw NMEA/AIS sentences to newline-delimited JSON.")
	fmt.Fprintln(os.Stderr, "INPUT can be '-' for stdin; .gz and .zst archives are decompressed.")
	fmt.Fprintln(os.Stderr, "FLOW_LIMIT is the capacity of each pipeline queue, default 500000.")
	fmt.Fprintln(os.Stderr, "PARSE_THREADS defaults to the number of CPUs.")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()
	args := flag.Args()
	if len(args) < 2 || len(args) > 4 {
		usage()
		os.Exit(1)
	}

	level := logger.Info
	if *verbose {
		level = logger.Debug
	}
	if *quiet {
		level = logger.Error
	}
	log := logger.NewLogger(os.Stderr, level)
	defer log.Close()

	opt := Options{
		FlowLimit:    defaultFlowLimit,
		ParseThreads: runtime.NumCPU(),
		Assemblers:   *assemblers,
	}
	if len(args) > 2 {
		n, err := strconv.Atoi(args[2])
		log.FatalIfErr(err, "parse FLOW_LIMIT %q", args[2])
		log.FatalIf(n < 1, "FLOW_LIMIT must be positive")
		opt.FlowLimit = n
	}
	if len(args) > 3 {
		n, err := strconv.Atoi(args[3])
		log.FatalIfErr(err, "parse PARSE_THREADS %q", args[3])
		log.FatalIf(n < 1, "PARSE_THREADS must be positive")
		opt.ParseThreads = n
	}

	in, err := OpenInput(args[0])
	log.FatalIfErr(err, "open %s", args[0])
	outFile, err := os.Create(args[1])
	log.FatalIfErr(err, "create %s", args[1])

	stats := &Stats{}
	stats.AddProgressLogger(log)

	err = RunPipeline(in, outFile, opt, stats, log)
	// close the output before the summary so the data is on disk when we say so
	closeErr := outFile.Close()
	log.FatalIfErr(err, "write to %s", args[1])
	log.FatalIfErr(closeErr, "close %s", args[1])
	log.FatalIfErr(in.Close(), "close %s", args[0])

	log.RemovePeriodic("progress")
	stats.LogSummary(log)
}

package main

import (
	"bufio"
	"bytes"
	"io"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/tormol/ais2json/logger"
	"github.com/tormol/ais2json/nmeais"
)

// Options sizes the pipeline. Every inter-stage channel holds at most
// FlowLimit elements; a full channel blocks the producer, which is what
// bounds memory use.
type Options struct {
	FlowLimit    int
	ParseThreads int
	Assemblers   int // reassembly partitions, each owned by one goroutine
}

// RunPipeline drains in and writes one JSON line per decoded message to w.
// It returns when the input is exhausted and everything written; the
// returned error is the first output write error, if any.
// Output order is not input order: records are emitted as parser and
// assembler goroutines finish with them.
func RunPipeline(in *Input, w io.Writer, opt Options, stats *Stats, log *logger.Logger) error {
	if opt.FlowLimit < 1 {
		opt.FlowLimit = 1
	}
	if opt.ParseThreads < 1 {
		opt.ParseThreads = 1
	}
	if opt.Assemblers < 1 {
		opt.Assemblers = 1
	}

	lines := make(chan []byte, opt.FlowLimit)
	out := make(chan []byte, opt.FlowLimit)
	toAssemble := make([]chan nmeais.Sentence, opt.Assemblers)
	for i := range toAssemble {
		toAssemble[i] = make(chan nmeais.Sentence, opt.FlowLimit)
	}

	go readLines(in, lines, stats, log)

	var parsers sync.WaitGroup
	parsers.Add(opt.ParseThreads)
	for i := 0; i < opt.ParseThreads; i++ {
		go func() {
			defer parsers.Done()
			parseWorker(lines, toAssemble, out, stats, log)
		}()
	}

	var assemblers sync.WaitGroup
	assemblers.Add(opt.Assemblers)
	for i := 0; i < opt.Assemblers; i++ {
		go func(fragments <-chan nmeais.Sentence) {
			defer assemblers.Done()
			assembleWorker(fragments, out, stats, log)
		}(toAssemble[i])
	}

	// Closing cascades downstream: the assemblers may only be closed
	// when no parser can send to them anymore, and the output only when
	// both pools are done.
	go func() {
		parsers.Wait()
		for _, fragments := range toAssemble {
			close(fragments)
		}
		assemblers.Wait()
		close(out)
	}()

	return writeLines(w, out, stats)
}

// readLines splits the input on newlines and feeds the parser pool.
// The mmap path sends subslices of the mapping; the stream path has to
// copy because the scanner reuses its buffer.
func readLines(in *Input, lines chan<- []byte, stats *Stats, log *logger.Logger) {
	defer close(lines)
	if in.Data != nil {
		data := in.Data
		for len(data) != 0 {
			var line []byte
			if nl := bytes.IndexByte(data, '\n'); nl == -1 {
				line, data = data, nil
			} else {
				line, data = data[:nl], data[nl+1:]
			}
			if len(line) != 0 {
				stats.addLine()
				lines <- line
			}
		}
		return
	}
	sc := bufio.NewScanner(in.Stream)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		stats.addLine()
		lines <- append([]byte(nil), sc.Bytes()...)
	}
	log.FatalIfErr(sc.Err(), "read input")
}

// parseWorker parses lines into sentences, decodes standalone ones
// directly and routes fragments to their group's assembler partition.
func parseWorker(lines <-chan []byte, toAssemble []chan nmeais.Sentence,
	out chan<- []byte, stats *Stats, log *logger.Logger,
) {
	lw := nmeais.NewLineWriter()
	for line := range lines {
		if n := len(line); line[n-1] == '\r' {
			line = line[:n-1]
		}
		s, err := nmeais.ParseSentence(line)
		if err != nil {
			stats.addDropped()
			log.Debug("%s\ndropped: %s", logger.Escape(line), err.Error())
			continue
		}
		if !s.ChecksumPassed {
			stats.addBadChecksum() // informational, the sentence is still used
		}
		if s.Parts <= 1 {
			emit(lw, nmeais.SingleReport(s), out, stats, log)
			continue
		}
		shard := 0
		if len(toAssemble) > 1 {
			shard = int(xxhash.Sum64String(s.GroupKey()) % uint64(len(toAssemble)))
		}
		toAssemble[shard] <- s
	}
}

// assembleWorker owns one partition of the reassembly key space.
func assembleWorker(fragments <-chan nmeais.Sentence, out chan<- []byte,
	stats *Stats, log *logger.Logger,
) {
	lw := nmeais.NewLineWriter()
	ga := nmeais.NewGroupAssembler()
	for s := range fragments {
		if r := ga.Accept(s); r != nil {
			emit(lw, r, out, stats, log)
		}
	}
	stats.addIncomplete(ga.IncompleteGroups())
}

func emit(lw *nmeais.LineWriter, r *nmeais.PositionReport,
	out chan<- []byte, stats *Stats, log *logger.Logger,
) {
	nmeais.Decode(r)
	line, err := lw.Line(r)
	if err != nil {
		// can't happen for this struct, but don't lose records silently
		log.Error("serialize record: %s", err.Error())
		return
	}
	stats.addRecord()
	out <- line
}

// writeLines is the single consumer of the output channel. The first
// write error stops writing but keeps draining so the workers upstream
// don't block forever on a full channel.
func writeLines(w io.Writer, out <-chan []byte, stats *Stats) error {
	bw := bufio.NewWriterSize(w, 1<<20)
	var err error
	for line := range out {
		if err != nil {
			continue
		}
		if _, werr := bw.Write(line); werr != nil {
			err = werr
			continue
		}
		stats.addBytes(len(line))
	}
	if err != nil {
		return err
	}
	return bw.Flush()
}

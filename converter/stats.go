package main

import (
	"sync/atomic"
	"time"

	"github.com/tormol/ais2json/logger"
)

// Stats counts what the pipeline did.
// All fields are updated atomically from multiple goroutines.
type Stats struct {
	Lines        uint64 // non-blank input lines seen
	Records      uint64 // JSON lines produced
	Bytes        uint64 // JSON bytes handed to the writer
	Dropped      uint64 // lines with an unparsable envelope
	BadChecksums uint64 // sentences with a failing checksum (still used)
	Incomplete   uint64 // groups still missing fragments at end of input
}

func (st *Stats) addLine()        { atomic.AddUint64(&st.Lines, 1) }
func (st *Stats) addRecord()      { atomic.AddUint64(&st.Records, 1) }
func (st *Stats) addBytes(n int)  { atomic.AddUint64(&st.Bytes, uint64(n)) }
func (st *Stats) addDropped()     { atomic.AddUint64(&st.Dropped, 1) }
func (st *Stats) addBadChecksum() { atomic.AddUint64(&st.BadChecksums, 1) }
func (st *Stats) addIncomplete(n int) {
	atomic.AddUint64(&st.Incomplete, uint64(n))
}

// AddProgressLogger reports throughput on intervals growing from 10s to
// 5min, so short runs show signs of life and long runs stay readable.
func (st *Stats) AddProgressLogger(log *logger.Logger) {
	var lastLines, lastRecords uint64
	log.AddPeriodic("progress", 10*time.Second, 5*time.Minute,
		func(c *logger.Composer, sinceLast time.Duration) {
			lines := atomic.LoadUint64(&st.Lines)
			records := atomic.LoadUint64(&st.Records)
			c.Writeln("%s lines in, %s records out (+%s/+%s in %s)",
				logger.SiMultiple(lines, 1000, 'G'),
				logger.SiMultiple(records, 1000, 'G'),
				logger.SiMultiple(lines-lastLines, 1000, 'G'),
				logger.SiMultiple(records-lastRecords, 1000, 'G'),
				logger.RoundDuration(sinceLast, time.Second))
			lastLines, lastRecords = lines, records
		})
}

// LogSummary prints the end-of-run counters.
func (st *Stats) LogSummary(log *logger.Logger) {
	log.Info("%d lines read, %d records written (%sB)",
		atomic.LoadUint64(&st.Lines), atomic.LoadUint64(&st.Records),
		logger.SiMultiple(atomic.LoadUint64(&st.Bytes), 1024, 'G'))
	log.Info("%d envelopes dropped, %d checksum failures, %d incomplete groups",
		atomic.LoadUint64(&st.Dropped), atomic.LoadUint64(&st.BadChecksums),
		atomic.LoadUint64(&st.Incomplete))
}

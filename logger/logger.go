// Package logger is an utility for thread-safe, leveled and periodic logging.
package logger

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"
)

// log message importance, lower value is more important
const (
	Debug   int = 9 // temporary or possibly interesting
	Info    int = 7 // interesting
	Warning int = 5 // temporary degradation or bad input
	Error   int = 3 // permanent degradation
	Fatal   int = 1 // irrecoverable error
)

// fatalExitCode is the code the process is aborted with if a fatal-level message is printed
const fatalExitCode int = 3

// Logger serializes writes from multiple goroutines and can run
// statistics closures periodically.
// Use .Log() or one of its wrappers for issues that can be caught as they
// happen, AddPeriodic() for statistics, and .Compose() to make sure
// multi-statement messages get written as one.
// Should not be copied or moved as it contains mutexes.
type Logger struct {
	writeTo   io.Writer
	writeLock sync.Mutex
	Threshold int
	p         periodic
}

// NewLogger creates a new logger with a minimum importance level
// and starts the runner goroutine for periodic loggers.
// Call .Close() to stop that goroutine; messages logged after that are
// still written.
func NewLogger(writeTo io.Writer, level int) *Logger {
	l := &Logger{
		writeTo:   writeTo,
		Threshold: level,
		p:         newPeriodic(),
	}
	go periodicRunner(l)
	return l
}

// Close stops the periodic runner. The underlying writer is left open;
// it's usually os.Stderr.
func (l *Logger) Close() {
	l.p.Close()
}

func (l *Logger) prefixMessage(level int) {
	if l.Threshold < Debug {
		fmt.Fprint(l.writeTo, time.Now().Format("2006-01-02 15:04:05: "))
	}
	if level == Warning {
		fmt.Fprint(l.writeTo, "WARNING: ")
	} else if level == Error {
		fmt.Fprint(l.writeTo, "ERROR: ")
	} else if level == Fatal {
		fmt.Fprint(l.writeTo, "FATAL: ")
	}
}

// Log writes the message if it passes the loggers importance threshold
func (l *Logger) Log(level int, format string, args ...interface{}) {
	if level <= l.Threshold {
		l.writeLock.Lock()
		defer l.writeLock.Unlock()
		l.prefixMessage(level)
		if len(args) == 0 {
			fmt.Fprint(l.writeTo, format)
		} else {
			fmt.Fprintf(l.writeTo, format, args...)
		}
		fmt.Fprintln(l.writeTo)
		if level == Fatal {
			os.Exit(fatalExitCode)
		}
	}
}

// Compose allows holding the lock between multiple prints
func (l *Logger) Compose(level int) Composer {
	c := Composer{
		level:    level,
		writeTo:  nil,
		heldLock: nil,
	}
	if level <= l.Threshold {
		c.writeTo = l.writeTo
		c.heldLock = &l.writeLock
		l.writeLock.Lock()
		l.prefixMessage(level)
	}
	return c
}

// Wrappers around Log()

func (l *Logger) Debug(format string, args ...interface{}) {
	l.Log(Debug, format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.Log(Info, format, args...)
}

func (l *Logger) Warning(format string, args ...interface{}) {
	l.Log(Warning, format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.Log(Error, format, args...)
}

func (l *Logger) Fatal(format string, args ...interface{}) {
	l.Log(Fatal, format, args...)
}

// FatalIf does nothing if cond is false, but otherwise prints the message and aborts the process.
func (l *Logger) FatalIf(cond bool, format string, args ...interface{}) {
	if cond {
		l.Fatal(format, args...)
	}
}

// FatalIfErr does nothing if err is nil, but otherwise prints "Failed to <..>: $err.Error()" and aborts the process.
func (l *Logger) FatalIfErr(err error, format string, args ...interface{}) {
	if err != nil {
		args = append(args, err.Error())
		l.Fatal("Failed to "+format+": %s", args...)
	}
}

// Composer lets you split a long message into multiple write statements.
// End the message by calling Finish() or Close().
type Composer struct {
	level    int       // Only used for Fatal
	writeTo  io.Writer // nil if level is ignored
	heldLock *sync.Mutex
}

// Write writes formatted text without a newline
func (c *Composer) Write(format string, args ...interface{}) {
	if c.writeTo != nil {
		if len(args) == 0 {
			fmt.Fprint(c.writeTo, format)
		} else {
			fmt.Fprintf(c.writeTo, format, args...)
		}
	}
}

// Writeln writes a formatted string plus a newline.
// This is identical to what Logger.Log() does.
func (c *Composer) Writeln(format string, args ...interface{}) {
	if c.writeTo != nil {
		if len(args) == 0 {
			fmt.Fprint(c.writeTo, format)
		} else {
			fmt.Fprintf(c.writeTo, format, args...)
		}
		fmt.Fprintln(c.writeTo)
	}
}

// Finish writes a formatted line and then closes the composer.
func (c *Composer) Finish(format string, args ...interface{}) {
	c.Writeln(format, args...)
	c.Close()
}

// Close releases the lock on the logger and exits the process for `Fatal` errors.
func (c *Composer) Close() {
	if c.writeTo != nil {
		c.heldLock.Unlock()
		if c.level == Fatal {
			os.Exit(fatalExitCode)
		}
		c.writeTo = nil
	}
}

// Escape escapes NMEA sentence bytes for debug logging.
// It replaces CR, LF and NUL with \r, \n and \0,
// and is only slightly slower than string().
func Escape(b []byte) string {
	s := make([]byte, 0, len(b))
	for _, c := range b {
		switch c {
		case byte('\r'):
			s = append(s, "\\r"...)
		case byte('\n'):
			s = append(s, "\\n"...)
		case 0:
			s = append(s, "\\0"...)
		default:
			s = append(s, c)
		}
	}
	return string(s)
}

// SiMultiple scales n to Kilo, Mega, Giga, ..., or Yotta, rounds to the nearest whole unit, and appends the letter.
// `multipleOf` can be 1000 or 1024 (or anything >=256 (=(2^64)^(1/8))).
// `maxUnit` prevents losing too much precission by using too big units.
func SiMultiple(n, multipleOf uint64, maxUnit byte) string {
	var steps, rem uint64
	units := " KMGTPEZY"
	for n >= multipleOf && units[steps] != maxUnit {
		rem = n % multipleOf
		n /= multipleOf
		steps++
	}
	if rem%multipleOf >= multipleOf/2 {
		n++ // round the last
	}
	s := strconv.FormatUint(n, 10)
	if steps > 0 {
		s += units[steps : steps+1]
	}
	return s
}

// RoundDuration removes excessive precission for printing.
func RoundDuration(d, to time.Duration) string {
	d = d - (d % to)
	return d.String()
}

// Package debug contains tools to observe the calls made to a driver.
package debug

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/stealthrocket/unapi/internal/errcode"
	"github.com/stealthrocket/unapi/internal/unapi"
)

// Tracer prints the TCP/IP UNAPI calls received by a driver. It implements
// unapi.Observer.
type Tracer struct {
	writer io.Writer

	traceFrames        bool
	enableTimestamps   bool
	relativeTimestamps bool

	previousTime time.Time
}

var _ unapi.Observer = (*Tracer)(nil)

// NewTracer creates a new Tracer.
func NewTracer(writer io.Writer) *Tracer {
	return &Tracer{writer: writer}
}

// TraceFrames enables printing the register slots of calls.
func (t *Tracer) TraceFrames(enable bool) {
	t.traceFrames = enable
}

func (t *Tracer) EnableTimestamps(enable bool) {
	t.enableTimestamps = enable
}

func (t *Tracer) RelativeTimestamps(enable bool) {
	t.relativeTimestamps = enable
}

func (t *Tracer) BeforeCall(fn unapi.Function, f *unapi.Frame) {
	t.printLine(func() {
		t.print(color.BlackString("→ "))
		t.print(fn.String())
		if t.traceFrames {
			t.printFrame(f)
		}
	})
	t.previousTime = time.Now()
}

func (t *Tracer) AfterCall(fn unapi.Function, f *unapi.Frame, status errcode.Code) {
	t.printLine(func() {
		t.print(color.BlackString("← "))
		t.print(fn.String())
		t.print(color.HiBlackString(" => "))
		switch status {
		case errcode.OK:
			t.print(color.GreenString("OK"))
		case errcode.NoData, errcode.NotImplemented:
			t.print(color.YellowString(status.Name()))
		default:
			t.print(color.HiRedString(status.Name()))
		}
		if t.traceFrames {
			t.printFrame(f)
		}
	})
	t.previousTime = time.Now()
}

func (t *Tracer) printFrame(f *unapi.Frame) {
	t.print(color.HiBlackString(" ("))
	t.printf("%v", f)
	if f.Interrupts {
		t.print(" EI")
	}
	t.print(color.HiBlackString(")"))
}

func (t *Tracer) printLine(fn func()) {
	t.printPrefix()
	defer t.printSuffix()
	fn()
}

func (t *Tracer) printPrefix() {
	if t.enableTimestamps {
		switch {
		case t.relativeTimestamps && t.previousTime.IsZero():
		case t.relativeTimestamps:
			elapsed := time.Since(t.previousTime)
			switch {
			case elapsed < time.Microsecond:
				t.print(color.HiBlackString("%+ 4dns ", elapsed))
			case elapsed < time.Millisecond:
				t.print(color.HiBlackString("%+ 4dµs ", elapsed/time.Microsecond))
			case elapsed < time.Second:
				t.print(color.YellowString("%+ 4dms ", elapsed/time.Millisecond))
			default:
				t.print(color.RedString("%+ 4ds  ", elapsed/time.Second))
			}
		default:
			t.print(color.HiBlackString("%d ", time.Now().UnixNano()))
		}
	}
}

func (t *Tracer) printSuffix() {
	t.print("\n")
}

func (t *Tracer) printf(s string, args ...any) {
	fmt.Fprintf(t.writer, s, args...)
}

func (t *Tracer) print(args ...any) {
	fmt.Fprint(t.writer, args...)
}

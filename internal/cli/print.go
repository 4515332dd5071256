// Package cli holds small status-printing helpers shared by the
// toolchain's components, mirroring how a CLI reports what it is doing
// without pulling in a logging library for request-scoped status lines.
package cli

import (
	"fmt"
	"io"
	"os"
)

// Printer writes status lines to an output stream, staying silent when
// Quiet is set.
type Printer struct {
	Out   io.Writer
	Quiet bool
}

// NewPrinter returns a Printer writing to stderr.
func NewPrinter(quiet bool) *Printer {
	return &Printer{Out: os.Stderr, Quiet: quiet}
}

func (p *Printer) out() io.Writer {
	if p.Out != nil {
		return p.Out
	}
	return os.Stderr
}

// Printf writes a status line, unless the printer is quiet.
func (p *Printer) Printf(format string, args ...interface{}) {
	if p.Quiet {
		return
	}
	fmt.Fprintf(p.out(), format+"\n", args...)
}

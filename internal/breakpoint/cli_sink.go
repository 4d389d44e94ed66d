package breakpoint

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/opsmonitor/scriptengine/internal/scriptframe"
	"github.com/opsmonitor/scriptengine/internal/scripterr"
)

// CLISink pretty-prints breakpoint broadcasts for an interactive debugger
// session, falling back to a compact one-line form when the output is not
// attached to a terminal. Grounded on the engine's own debugger_cli.go
// REPL formatting, generalised here from its VM-bytecode frame view to
// this package's ScriptFrame.
type CLISink struct {
	Out io.Writer
}

// NewCLISink wraps w. Whether w is a terminal is checked with go-isatty on
// every broadcast, not stored at construction.
func NewCLISink(w io.Writer) *CLISink {
	return &CLISink{Out: w}
}

func (s *CLISink) isTerminal() bool {
	f, ok := s.Out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (s *CLISink) OnBreakpoint(frame *scriptframe.Frame, err *scripterr.ScriptError, loc scripterr.Location) {
	if s == nil || s.Out == nil {
		return
	}
	if !s.isTerminal() {
		if err != nil {
			fmt.Fprintf(s.Out, "breakpoint at %s: %s\n", loc, err.Error())
		} else {
			fmt.Fprintf(s.Out, "breakpoint at %s\n", loc)
		}
		return
	}

	fmt.Fprintf(s.Out, "--- breakpoint ---\n")
	fmt.Fprintf(s.Out, "  location: %s\n", loc)
	if frame != nil {
		fmt.Fprintf(s.Out, "  depth:    %d\n", frame.Depth())
		fmt.Fprintf(s.Out, "  self:     %s\n", frame.Self().Inspect())
	}
	if err != nil {
		fmt.Fprintf(s.Out, "  error:    %s\n", err.Error())
	}
}

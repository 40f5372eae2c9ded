// Package notify fires the best-effort out-of-band notification spec.md
// §6's notification_method config key describes, for a session that
// just transitioned into Waiting while not in the foreground. Grounded
// in the teacher's use of github.com/muesli/termenv for terminal
// capability/escape-sequence work (internal/overlay/overlay.go,
// internal/cmd/term_colors.go both call termenv.NewOutput(os.Stdout)),
// extended here to drive the one new escape sequence Panoptes needs
// that h2 never did: an OSC 2 window-title write.
package notify

import (
	"io"

	"github.com/muesli/termenv"
)

// Method identifies how a Waiting transition should be surfaced.
type Method string

const (
	MethodBell  Method = "bell"
	MethodTitle Method = "title"
	MethodNone  Method = "none"
)

// Notifier fires Method against an output writer (typically os.Stdout).
type Notifier struct {
	method Method
	out    *termenv.Output
}

// New builds a Notifier writing to w, interpreting method per spec.md
// §6 ("bell", "title", or "none"; anything else behaves as "none").
func New(w io.Writer, method string) *Notifier {
	return &Notifier{method: Method(method), out: termenv.NewOutput(w)}
}

// Notify fires for sessionName entering Waiting. The "title" method's
// exact visibility depends on the terminal emulator (spec.md §9's open
// question): this is a best-effort write with no guarantee of being
// unset by another session's behalf.
func (n *Notifier) Notify(sessionName string) {
	switch n.method {
	case MethodBell:
		n.out.WriteString("\a")
	case MethodTitle:
		n.out.SetWindowTitle(sessionName + " needs input — panoptes")
	}
}

package display

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/leonardotrapani/s2tstream/internal/protocol"
	"github.com/muesli/termenv"
)

// Status colors shared with the configure form
var (
	ColorPrimary = lipgloss.Color("#7C3AED")
	ColorSuccess = lipgloss.Color("#22C55E")
	ColorError   = lipgloss.Color("#EF4444")
	ColorWarning = lipgloss.Color("#F59E0B")
	ColorMuted   = lipgloss.Color("#94A3B8")
)

type Options struct {
	// Out receives every server message, one per line. Defaults to stdout.
	Out io.Writer
	// Diag receives status lines. Defaults to stderr.
	Diag    io.Writer
	NoColor bool
}

// Printer writes server messages and session diagnostics to the terminal.
// It is safe for concurrent use.
type Printer struct {
	mu   sync.Mutex
	out  io.Writer
	diag io.Writer

	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	muted   lipgloss.Style
}

func New(opts Options) *Printer {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Diag == nil {
		opts.Diag = os.Stderr
	}

	renderer := lipgloss.NewRenderer(opts.Diag)
	if opts.NoColor || termenv.EnvNoColor() {
		renderer.SetColorProfile(termenv.Ascii)
	}

	return &Printer{
		out:     opts.Out,
		diag:    opts.Diag,
		success: renderer.NewStyle().Foreground(ColorSuccess).Bold(true),
		warning: renderer.NewStyle().Foreground(ColorWarning),
		failure: renderer.NewStyle().Foreground(ColorError).Bold(true),
		muted:   renderer.NewStyle().Foreground(ColorMuted),
	}
}

// Event prints an inbound message exactly as received.
func (p *Printer) Event(ev protocol.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if ev.Kind == protocol.KindBinary {
		fmt.Fprintf(p.out, "<binary message, %d bytes>\n", len(ev.Raw))
		return
	}
	fmt.Fprintln(p.out, ev.Text())
}

// Notice prints a lifecycle marker such as "EOF" or "Stopped".
func (p *Printer) Notice(msg string) {
	p.diagLine(p.muted, msg)
}

// Listening reports an accepted handshake along with the greeting.
func (p *Printer) Listening(greeting []byte) {
	p.diagLine(p.success, "Server is listening")
	if len(greeting) > 0 {
		p.diagLine(p.muted, string(greeting))
	}
}

// NotListening reports a rejected handshake and the server's response.
func (p *Printer) NotListening(response []byte) {
	p.diagLine(p.warning, "Server not listening")
	if len(response) > 0 {
		p.diagLine(p.muted, string(response))
	}
}

func (p *Printer) Error(err error) {
	p.diagLine(p.failure, "Error: "+err.Error())
}

func (p *Printer) diagLine(style lipgloss.Style, msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.diag, style.Render(msg))
}

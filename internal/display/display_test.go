package display

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/leonardotrapani/s2tstream/internal/protocol"
)

func newTestPrinter() (*Printer, *bytes.Buffer, *bytes.Buffer) {
	var out, diag bytes.Buffer
	return New(Options{Out: &out, Diag: &diag, NoColor: true}), &out, &diag
}

func TestPrinter_EventVerbatim(t *testing.T) {
	p, out, diag := newTestPrinter()

	p.Event(protocol.Decode([]byte(`{"text":"hallo wereld","final":true}`), true))
	p.Event(protocol.Decode([]byte(`{"state": "stopped"}`), true))
	p.Event(protocol.Decode([]byte{0x00, 0x01, 0x02}, false))

	want := "{\"text\":\"hallo wereld\",\"final\":true}\n{\"state\": \"stopped\"}\n<binary message, 3 bytes>\n"
	if out.String() != want {
		t.Errorf("out = %q, want %q", out.String(), want)
	}
	if diag.Len() != 0 {
		t.Errorf("events should not write diagnostics, got %q", diag.String())
	}
}

func TestPrinter_Diagnostics(t *testing.T) {
	tests := []struct {
		name  string
		write func(p *Printer)
		want  []string
	}{
		{
			name:  "listening",
			write: func(p *Printer) { p.Listening([]byte(`{"state":"listening"}`)) },
			want:  []string{"Server is listening", `{"state":"listening"}`},
		},
		{
			name:  "not listening",
			write: func(p *Printer) { p.NotListening([]byte(`{"state":"busy"}`)) },
			want:  []string{"Server not listening", `{"state":"busy"}`},
		},
		{
			name:  "notice",
			write: func(p *Printer) { p.Notice("EOF") },
			want:  []string{"EOF"},
		},
		{
			name:  "error",
			write: func(p *Printer) { p.Error(errors.New("dial failed")) },
			want:  []string{"Error: dial failed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, out, diag := newTestPrinter()
			tt.write(p)

			lines := strings.Split(strings.TrimRight(diag.String(), "\n"), "\n")
			if len(lines) != len(tt.want) {
				t.Fatalf("diag lines = %q, want %q", lines, tt.want)
			}
			for i := range tt.want {
				if lines[i] != tt.want[i] {
					t.Errorf("line %d = %q, want %q", i, lines[i], tt.want[i])
				}
			}
			if out.Len() != 0 {
				t.Errorf("diagnostics leaked to out: %q", out.String())
			}
		})
	}
}

func TestPrinter_ConcurrentLines(t *testing.T) {
	p, out, _ := newTestPrinter()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			p.Event(protocol.Decode([]byte(`{"text":"abc"}`), true))
		}()
		go func() {
			defer wg.Done()
			p.Notice("tick")
		}()
	}
	wg.Wait()

	for _, line := range strings.Split(strings.TrimRight(out.String(), "\n"), "\n") {
		if line != `{"text":"abc"}` {
			t.Fatalf("interleaved line %q", line)
		}
	}
}

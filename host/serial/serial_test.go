package serial

import (
	"bytes"
	"io"
	"testing"
)

// pipePort is an in-memory Port: reads from in, writes to out.
type pipePort struct {
	in  *bytes.Buffer
	out *bytes.Buffer
}

func (p *pipePort) Read(b []byte) (int, error)  { return p.in.Read(b) }
func (p *pipePort) Write(b []byte) (int, error) { return p.out.Write(b) }
func (p *pipePort) Close() error                { return nil }
func (p *pipePort) Flush() error                { return nil }

func TestLinkReadLine(t *testing.T) {
	port := &pipePort{
		in:  bytes.NewBufferString("M:10,5\r\nS\nXY?\n"),
		out: &bytes.Buffer{},
	}
	link := NewLink(port)

	for _, want := range []string{"M:10,5", "S", "XY?"} {
		got, err := link.ReadLine()
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("line = %q, want %q", got, want)
		}
	}
	if _, err := link.ReadLine(); err != io.EOF {
		t.Errorf("err at end = %v, want EOF", err)
	}
}

func TestLinkWriteLine(t *testing.T) {
	port := &pipePort{in: &bytes.Buffer{}, out: &bytes.Buffer{}}
	link := NewLink(port)

	if err := link.WriteLine("OK:MOVE"); err != nil {
		t.Fatal(err)
	}
	if err := link.WriteLine("SYSTEM_READY"); err != nil {
		t.Fatal(err)
	}
	if got := port.out.String(); got != "OK:MOVE\nSYSTEM_READY\n" {
		t.Errorf("wire bytes = %q", got)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/dev/ttyUSB0")
	if cfg.Device != "/dev/ttyUSB0" || cfg.Baud != 115200 {
		t.Errorf("config = %+v", cfg)
	}
}

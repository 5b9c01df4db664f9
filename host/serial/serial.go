// Package serial abstracts the operator serial link.
package serial

import (
	"bufio"
	"io"
	"strings"
)

// Port represents a serial port. Implementations:
// - Native serial (github.com/tarm/serial)
// - Mock/pipe ports for testing
type Port interface {
	io.ReadWriteCloser

	// Flush flushes any buffered data
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string

	// Baud rate
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultConfig returns the default link configuration.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100,
	}
}

// Link is a line-oriented view of a Port: commands in, status lines out.
type Link struct {
	port    Port
	scanner *bufio.Scanner
}

// NewLink wraps a port for line-at-a-time use.
func NewLink(port Port) *Link {
	return &Link{
		port:    port,
		scanner: bufio.NewScanner(port),
	}
}

// ReadLine blocks for the next line, stripped of its terminator.
func (l *Link) ReadLine() (string, error) {
	if !l.scanner.Scan() {
		if err := l.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimRight(l.scanner.Text(), "\r"), nil
}

// WriteLine sends one line with a newline terminator.
func (l *Link) WriteLine(line string) error {
	if _, err := io.WriteString(l.port, line+"\n"); err != nil {
		return err
	}
	return l.port.Flush()
}

// Close closes the underlying port.
func (l *Link) Close() error {
	return l.port.Close()
}

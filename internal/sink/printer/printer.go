// Package printer implements the receipt-printer sink: fixed-width
// rendering plus delivery to a line-oriented print device.
package printer

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"notify_printer/internal/model"
)

// Device is the physical printer transport. Implementations own
// connection management and the byte-level protocol.
type Device interface {
	Print(text string) error
	Feed(lines int) error
	Close() error
}

// Sink renders notification batches as receipt text and sends them to
// a Device.
type Sink struct {
	device Device
	log    *slog.Logger
	now    func() time.Time
}

// New creates a printer sink for the given device.
func New(device Device, log *slog.Logger) *Sink {
	return &Sink{
		device: device,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Deliver prints the batch. An empty batch prints nothing.
func (s *Sink) Deliver(_ context.Context, notifications []model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	s.log.Debug("printing batch", "count", len(notifications))

	if err := s.device.Print(RenderBatch(notifications, s.now())); err != nil {
		return fmt.Errorf("print batch: %w", err)
	}
	if err := s.device.Feed(3); err != nil {
		return fmt.Errorf("feed paper: %w", err)
	}
	return nil
}

// TCPDevice sends receipt text to a network printer, one connection
// per print job.
type TCPDevice struct {
	addr    string
	timeout time.Duration
}

var _ Device = (*TCPDevice)(nil)

// NewTCPDevice creates a device printing to addr ("host:port").
func NewTCPDevice(addr string) *TCPDevice {
	return &TCPDevice{
		addr:    addr,
		timeout: 10 * time.Second,
	}
}

// Print writes the text to the printer over a fresh connection.
func (d *TCPDevice) Print(text string) error {
	return d.send(text)
}

// Feed advances the paper by writing blank lines.
func (d *TCPDevice) Feed(lines int) error {
	return d.send(strings.Repeat("\n", lines))
}

// Close is a no-op; connections are per print job.
func (d *TCPDevice) Close() error { return nil }

func (d *TCPDevice) send(text string) error {
	conn, err := net.DialTimeout("tcp", d.addr, d.timeout)
	if err != nil {
		return fmt.Errorf("dial printer: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if err := conn.SetWriteDeadline(time.Now().Add(d.timeout)); err != nil {
		return fmt.Errorf("set deadline: %w", err)
	}

	w := bufio.NewWriter(conn)
	if _, err := w.WriteString(text); err != nil {
		return fmt.Errorf("write to printer: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush to printer: %w", err)
	}
	return nil
}

package protocol

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/gousb"
	"go.bug.st/serial"
	"go.uber.org/zap/zaptest"

	"printer-service/internal/model"
)

type recordingWriter struct {
	chunks [][]byte
	failAt int
	err    error
}

func (w *recordingWriter) WriteContext(ctx context.Context, buf []byte) (int, error) {
	if w.err != nil && len(w.chunks) == w.failAt {
		return 0, w.err
	}
	w.chunks = append(w.chunks, append([]byte(nil), buf...))
	return len(buf), nil
}

func TestWriteChunked(t *testing.T) {
	data := bytes.Repeat([]byte{0x1B}, 150)
	w := &recordingWriter{}

	n, err := writeChunked(context.Background(), w, data, 64)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if n != len(data) {
		t.Errorf("Expected %d bytes written, got %d", len(data), n)
	}

	wantSizes := []int{64, 64, 22}
	if len(w.chunks) != len(wantSizes) {
		t.Fatalf("Expected %d chunks, got %d", len(wantSizes), len(w.chunks))
	}
	for i, size := range wantSizes {
		if len(w.chunks[i]) != size {
			t.Errorf("Chunk %d: expected %d bytes, got %d", i, size, len(w.chunks[i]))
		}
	}
	if !bytes.Equal(bytes.Join(w.chunks, nil), data) {
		t.Error("Chunks do not reassemble to the original data")
	}
}

func TestWriteChunkedStopsOnError(t *testing.T) {
	w := &recordingWriter{failAt: 1, err: gousb.ErrorNoDevice}

	n, err := writeChunked(context.Background(), w, make([]byte, 200), 64)
	if !errors.Is(err, gousb.ErrorNoDevice) {
		t.Fatalf("Expected ErrorNoDevice, got %v", err)
	}
	if n != 64 {
		t.Errorf("Expected 64 bytes before failure, got %d", n)
	}
	if !isUSBGone(err) {
		t.Error("Expected ErrorNoDevice to be classified as gone")
	}
}

func TestWriteChunkedHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := &recordingWriter{}
	if _, err := writeChunked(ctx, w, []byte("abc"), 64); !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if len(w.chunks) != 0 {
		t.Errorf("Expected no chunk written, got %d", len(w.chunks))
	}
}

func TestFirstBulkOut(t *testing.T) {
	endpoints := map[gousb.EndpointAddress]gousb.EndpointDesc{
		0x81: {Address: 0x81, Number: 1, Direction: gousb.EndpointDirectionIn, TransferType: gousb.TransferTypeBulk},
		0x03: {Address: 0x03, Number: 3, Direction: gousb.EndpointDirectionOut, TransferType: gousb.TransferTypeBulk, MaxPacketSize: 512},
		0x02: {Address: 0x02, Number: 2, Direction: gousb.EndpointDirectionOut, TransferType: gousb.TransferTypeBulk, MaxPacketSize: 64},
		0x01: {Address: 0x01, Number: 1, Direction: gousb.EndpointDirectionOut, TransferType: gousb.TransferTypeInterrupt},
	}

	ep, ok := firstBulkOut(endpoints)
	if !ok {
		t.Fatal("Expected a bulk OUT endpoint")
	}
	if ep.Number != 2 {
		t.Errorf("Expected endpoint 2, got %d", ep.Number)
	}

	delete(endpoints, 0x02)
	delete(endpoints, 0x03)
	if _, ok := firstBulkOut(endpoints); ok {
		t.Error("Expected no bulk OUT endpoint")
	}
}

type fakePort struct {
	serial.Port
	written  bytes.Buffer
	maxWrite int
	writeErr error
	drained  int
	closed   bool
}

func (p *fakePort) Write(b []byte) (int, error) {
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	if p.maxWrite > 0 && len(b) > p.maxWrite {
		b = b[:p.maxWrite]
	}
	return p.written.Write(b)
}

func (p *fakePort) Drain() error {
	p.drained++
	return nil
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

func TestSerialTransportOpenWriteClose(t *testing.T) {
	port := &fakePort{maxWrite: 7}
	var gotMode *serial.Mode
	opener := func(name string, mode *serial.Mode) (serial.Port, error) {
		if name != "/dev/ttyUSB0" {
			t.Errorf("Unexpected port name %q", name)
		}
		gotMode = mode
		return port, nil
	}

	st := NewSerialTransportWithOpener(SerialConfig{}, opener, zaptest.NewLogger(t))
	device := model.PrinterDevice{ID: "serial:/dev/ttyUSB0", TransportKind: model.TransportSerial, Port: "/dev/ttyUSB0"}

	h, err := st.Open(context.Background(), device)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if gotMode.BaudRate != 9600 || gotMode.DataBits != 8 ||
		gotMode.Parity != serial.NoParity || gotMode.StopBits != serial.OneStopBit {
		t.Errorf("Unexpected mode %+v", gotMode)
	}

	payload := []byte("\x1b@hello printer\x1dV\x00")
	if err := st.Write(context.Background(), h, payload); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !bytes.Equal(port.written.Bytes(), payload) {
		t.Errorf("Expected full payload despite short writes, got %q", port.written.Bytes())
	}
	if port.drained != 1 {
		t.Errorf("Expected one drain, got %d", port.drained)
	}

	if err := st.Close(h); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !port.closed {
		t.Error("Expected port to be closed")
	}

	stats := st.Stats()
	if stats.BytesWritten != int64(len(payload)) || stats.OpenHandles != 0 {
		t.Errorf("Unexpected stats %+v", stats)
	}
}

func TestSerialTransportWriteGone(t *testing.T) {
	port := &fakePort{}
	st := NewSerialTransportWithOpener(SerialConfig{}, func(string, *serial.Mode) (serial.Port, error) {
		return port, nil
	}, zaptest.NewLogger(t))

	h, err := st.Open(context.Background(), model.PrinterDevice{ID: "serial:COM3", Port: "COM3"})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	port.writeErr = errors.New("write /dev/ttyUSB0: input/output error")
	err = st.Write(context.Background(), h, []byte("x"))

	var te *model.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("Expected TransportError, got %v", err)
	}
	if !te.Gone() {
		t.Error("Expected I/O error to be classified as gone")
	}
}

func TestSerialTransportRejectsForeignHandle(t *testing.T) {
	st := NewSerialTransportWithOpener(SerialConfig{}, nil, zaptest.NewLogger(t))
	if err := st.Write(context.Background(), &USBHandle{}, []byte("x")); !errors.Is(err, model.ErrUnsupportedTransport) {
		t.Fatalf("Expected ErrUnsupportedTransport, got %v", err)
	}
}

func TestValidateSerialConfig(t *testing.T) {
	if err := ValidateSerialConfig(SerialConfig{BaudRate: 9600, DataBits: 8}); err != nil {
		t.Errorf("Expected valid config, got %v", err)
	}
	if err := ValidateSerialConfig(SerialConfig{BaudRate: 1234}); err == nil {
		t.Error("Expected invalid baud rate to fail")
	}
	if err := ValidateSerialConfig(SerialConfig{DataBits: 9}); err == nil {
		t.Error("Expected invalid data bits to fail")
	}
}

func TestLooksGone(t *testing.T) {
	if !looksGone(errors.New("libusb: no such device [code -4]")) {
		t.Error("Expected no such device to be gone")
	}
	if looksGone(errors.New("timeout")) {
		t.Error("Expected timeout not to be gone")
	}
}

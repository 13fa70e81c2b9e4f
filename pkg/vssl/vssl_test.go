// ABOUTME: Shared helpers for zone and device tests
// ABOUTME: Builds devices with recorded sends and feeds wire frames by hand
package vssl

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"sync"
	"testing"
	"time"
)

func newTestDevice(t *testing.T) *Device {
	t.Helper()
	d := NewDevice()
	t.Cleanup(d.Shutdown)
	return d
}

func newTestZone(t *testing.T) *Zone {
	t.Helper()
	d := newTestDevice(t)
	z, err := d.AddZone(Zone1, "192.0.2.10")
	if err != nil {
		t.Fatal(err)
	}
	return z
}

// sendRecorder captures outgoing frames in place of the real socket.
type sendRecorder struct {
	mu     sync.Mutex
	frames [][]byte
}

func (r *sendRecorder) record(data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, append([]byte(nil), data...))
}

func (r *sendRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

func (r *sendRecorder) frame(t *testing.T, i int) []byte {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if i >= len(r.frames) {
		t.Fatalf("no frame %d, only %d sent", i, len(r.frames))
	}
	return r.frames[i]
}

func (r *sendRecorder) last(t *testing.T) []byte {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.frames) == 0 {
		t.Fatal("nothing sent")
	}
	return r.frames[len(r.frames)-1]
}

func recordAlpha(z *Zone) *sendRecorder {
	rec := &sendRecorder{}
	z.alpha.out = rec.record
	return rec
}

func recordBravo(z *Zone) *sendRecorder {
	rec := &sendRecorder{}
	z.bravo.out = rec.record
	return rec
}

// alphaFrame builds a complete Alpha wire frame.
func alphaFrame(opcode byte, payload ...byte) []byte {
	return append([]byte{alphaLead, opcode, byte(len(payload))}, payload...)
}

// alphaStatusFrame builds an Alpha JSON status frame for one sub-action.
func alphaStatusFrame(t *testing.T, sub byte, status map[string]string) []byte {
	t.Helper()
	body, err := json.Marshal(status)
	if err != nil {
		t.Fatal(err)
	}
	payload := append([]byte{sub}, body...)
	return alphaFrame(0x00, payload...)
}

func feedAlpha(t *testing.T, a *Alpha, frame []byte) {
	t.Helper()
	r := bufio.NewReader(bytes.NewReader(frame[1:]))
	if err := a.ReadFrame(r, frame[0]); err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
}

// bravoFrame builds a complete Bravo wire frame. The ack byte only matters for
// registration responses.
func bravoFrame(opcode, ack byte, payload []byte) []byte {
	header := make([]byte, 10)
	header[0], header[1] = bravoLead, bravoLead
	header[4] = opcode
	header[5] = ack
	binary.BigEndian.PutUint16(header[8:10], uint16(len(payload)))
	return append(header, payload...)
}

func feedBravo(t *testing.T, b *Bravo, frame []byte) {
	t.Helper()
	r := bufio.NewReader(bytes.NewReader(frame[1:]))
	if err := b.ReadFrame(r, frame[0]); err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
}

// flushBus publishes a marker and waits for it, so every event queued before
// the marker has been delivered when it returns.
func flushBus(t *testing.T, d *Device) {
	t.Helper()
	future := d.Bus.Future("test.flush", 0)
	d.Bus.Publish("test.flush", 0, nil)
	if _, err := d.Bus.WaitFuture(future, time.Second); err != nil {
		t.Fatalf("bus did not drain: %v", err)
	}
}

func waitEvent(t *testing.T, d *Device, future <-chan any) any {
	t.Helper()
	data, err := d.Bus.WaitFuture(future, time.Second)
	if err != nil {
		t.Fatalf("event not delivered: %v", err)
	}
	return data
}

// bytesEqual fails the test when two frames differ.
func bytesEqual(t *testing.T, got, want []byte) {
	t.Helper()
	if !bytes.Equal(got, want) {
		t.Errorf("frame = % X, want % X", got, want)
	}
}

// ABOUTME: Tests for zone state caching, volume semantics and the poller
package vssl

import (
	"testing"
	"time"

	"github.com/vsslctrl/vsslctrl/pkg/bus"
)

func TestZoneVolumeDedup(t *testing.T) {
	z := newTestZone(t)
	d := z.device

	var fired int
	d.Bus.Subscribe(EventVolumeChange, func(ev bus.Event) { fired++ }, 1, false)

	z.setVolume(40)
	z.setVolume(40)
	z.setVolume(41)
	flushBus(t, d)

	if fired != 2 {
		t.Errorf("volume event fired %d times, want 2", fired)
	}
	if got := z.Volume(); got != 41 {
		t.Errorf("volume = %d, want 41", got)
	}
}

func TestZoneVolumeClampedFromWire(t *testing.T) {
	z := newTestZone(t)
	z.setVolume(250)
	if got := z.Volume(); got != 100 {
		t.Errorf("volume = %d, want 100", got)
	}
}

func TestZoneMuteDerivedFromZeroVolume(t *testing.T) {
	z := newTestZone(t)

	z.setVolume(20)
	if z.Mute() {
		t.Error("unmuted zone at volume 20 reads muted")
	}

	z.setVolume(0)
	if !z.Mute() {
		t.Error("volume zero should read as muted")
	}

	z.setVolume(20)
	z.setMute(true)
	if !z.Mute() {
		t.Error("explicit mute lost")
	}
}

func TestZoneVolumeSteps(t *testing.T) {
	z := newTestZone(t)
	rec := recordAlpha(z)
	z.setVolume(50)

	z.VolumeRaise(5)
	bytesEqual(t, rec.last(t), []byte{0x10, 0x05, 0x03, 0x01, 55, 3})

	z.VolumeLower(5)
	bytesEqual(t, rec.last(t), []byte{0x10, 0x05, 0x03, 0x01, 45, 3})

	// A step of one defers to the device's own increment command.
	z.VolumeRaise(1)
	bytesEqual(t, rec.last(t), []byte{0x10, 0x05, 0x03, 0x01, 0xFF, 3})

	// Steps are clamped into 1..100, and the result into 0..100.
	z.VolumeRaise(200)
	bytesEqual(t, rec.last(t), []byte{0x10, 0x05, 0x03, 0x01, 100, 3})

	z.VolumeLower(200)
	bytesEqual(t, rec.last(t), []byte{0x10, 0x05, 0x03, 0x01, 0, 3})
}

func TestZoneMuteToggle(t *testing.T) {
	z := newTestZone(t)
	rec := recordAlpha(z)
	z.setVolume(30)

	z.MuteToggle()
	bytesEqual(t, rec.last(t), []byte{0x10, 0x11, 0x02, 0x01, 1})

	z.setMute(true)
	z.MuteToggle()
	bytesEqual(t, rec.last(t), []byte{0x10, 0x11, 0x02, 0x01, 0})
}

func TestZoneSerialAdoptedOnce(t *testing.T) {
	z := newTestZone(t)

	z.setSerial("FIRST")
	z.setSerial("SECOND")
	if got := z.Serial(); got != "FIRST" {
		t.Errorf("serial = %q, want FIRST", got)
	}
}

func TestZoneStopClearsTrackAndFlags(t *testing.T) {
	z := newTestZone(t)

	z.Transport.setState(int(TransportPlay))
	z.Track.setTitle("Song", false)
	z.Track.setDuration(200000, false)
	z.Transport.applyTrackFlags(true, true, true, RepeatAll)

	z.Transport.setState(int(TransportStop))
	z.onTransportStateChange(bus.Event{})

	if got := z.Track.Title(); got != "" {
		t.Errorf("title = %q after stop", got)
	}
	if got := z.Track.Duration(); got != 0 {
		t.Errorf("duration = %d after stop", got)
	}
	if z.Transport.HasNext() || z.Transport.HasPrev() || z.Transport.Shuffle() {
		t.Error("transport flags survived stop")
	}
	if got := z.Transport.Repeat(); got != RepeatOff {
		t.Errorf("repeat = %d after stop", got)
	}
}

func TestZoneTransportChangeRequestsTrackOnce(t *testing.T) {
	z := newTestZone(t)
	rec := recordBravo(z)

	z.Transport.setState(int(TransportPlay))
	flushBus(t, z.device)

	// The subscription is registered at construction, exactly once.
	if got := rec.count(); got != 1 {
		t.Fatalf("track requested %d times, want 1", got)
	}
	bytesEqual(t, rec.last(t), []byte{0xAA, 0xAA, 1, 0x2A, 0, 0, 0, 0, 0, 0})
}

func TestZoneFollowsGroupMasterTrack(t *testing.T) {
	d := newTestDevice(t)
	master, err := d.AddZone(Zone1, "192.0.2.10")
	if err != nil {
		t.Fatal(err)
	}
	member, err := d.AddZone(Zone2, "192.0.2.11")
	if err != nil {
		t.Fatal(err)
	}

	master.Transport.setState(int(TransportPlay))
	master.Track.setTitle("Current", false)

	// Joining pulls the master's current state once.
	member.onGroupSourceChange(bus.Event{Data: Zone1})
	if got := member.Track.Title(); got != "Current" {
		t.Errorf("member title = %q after pull, want Current", got)
	}

	// After the pull, the member mirrors the master's change events. Drain
	// the pull's own events first so the future sees only the new one.
	flushBus(t, d)
	future := d.Bus.Future(EventTrackTitleChange, 2)
	master.Track.setTitle("Next Song", false)
	if got := waitEvent(t, d, future); got != "Next Song" {
		t.Errorf("mirrored title event = %v", got)
	}
	if got := member.Track.Title(); got != "Next Song" {
		t.Errorf("member title = %q, want Next Song", got)
	}

	// Leaving the group stops the mirroring.
	member.onGroupSourceChange(bus.Event{Data: ZoneID(0)})
	master.Track.setTitle("Unheard", false)
	flushBus(t, d)
	if got := member.Track.Title(); got == "Unheard" {
		t.Error("member still mirroring after leaving the group")
	}
}

func TestPollerRunsImmediately(t *testing.T) {
	p := newPoller(time.Hour)
	polled := make(chan string, 8)
	p.append("a", func() { polled <- "a" })
	p.append("b", func() { polled <- "b" })

	p.start()
	defer p.stop()

	for _, want := range []string{"a", "b"} {
		select {
		case got := <-polled:
			if got != want {
				t.Fatalf("polled %q, want %q", got, want)
			}
		case <-time.After(time.Second):
			t.Fatal("first poll did not run")
		}
	}
}

func TestPollerRemove(t *testing.T) {
	p := newPoller(10 * time.Millisecond)
	var aCount, bCount int
	done := make(chan struct{})
	p.append("a", func() { aCount++ })
	p.append("b", func() {
		bCount++
		if bCount == 3 {
			close(done)
		}
	})
	p.remove("a")

	p.start()
	defer p.stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not tick")
	}
	if aCount != 0 {
		t.Errorf("removed request ran %d times", aCount)
	}
}

func TestPollerDuplicateAppendIgnored(t *testing.T) {
	p := newPoller(time.Hour)
	count := 0
	p.append("a", func() { count++ })
	p.append("a", func() { count += 100 })
	p.poll()
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestZoneSetMACValidation(t *testing.T) {
	z := newTestZone(t)

	z.setMAC("not-a-mac")
	if got := z.MAC(); got != "" {
		t.Errorf("MAC = %q, want empty", got)
	}

	z.setMAC(" A4:77:58:10:20:30 ")
	if got := z.MAC(); got != "A4:77:58:10:20:30" {
		t.Errorf("MAC = %q", got)
	}
}

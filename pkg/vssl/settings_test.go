// ABOUTME: Tests for zone settings: naming, volume limits and the EQ
package vssl

import "testing"

func TestZoneSettingsDefaults(t *testing.T) {
	z := newTestZone(t)

	if got := z.Settings.Name(); got != "Zone 1" {
		t.Errorf("default name = %q", got)
	}
	if got := z.Settings.AnalogInput.Name(); got != "Analog In 1" {
		t.Errorf("default analog input name = %q", got)
	}
	if got := z.Settings.Volume.DefaultOn(); got != 75 {
		t.Errorf("default on volume = %d", got)
	}
	if got := z.Settings.Volume.MaxLeft(); got != 75 {
		t.Errorf("max left = %d", got)
	}
	if got := z.AnalogOutput.Source(); got != OutputZone2 {
		t.Errorf("analog output default = %d, want %d", got, OutputZone2)
	}
}

func TestZoneSettingsSetNameReinstatesPoll(t *testing.T) {
	z := newTestZone(t)
	rec := recordBravo(z)

	// Confirmed name drops the poll.
	z.Settings.setName("Kitchen")
	if z.poller.contains(pollName) {
		t.Fatal("poll should be dropped after a confirmed name")
	}

	// Renaming re-adds it until the device confirms the new name.
	z.Settings.SetName("Lounge")
	if !z.poller.contains(pollName) {
		t.Error("rename should re-add the name poll")
	}
	if rec.count() != 2 {
		t.Fatalf("rename sent %d frames, want set plus get", rec.count())
	}
	bytesEqual(t, rec.frame(t, 0), []byte{0xAA, 0xAA, 2, 0x5A, 0, 0, 0, 0, 6, 0, 'L', 'o', 'u', 'n', 'g', 'e'})
	bytesEqual(t, rec.frame(t, 1), []byte{0xAA, 0xAA, 1, 0x5A, 0, 0, 0, 0, 0, 0})
}

func TestEQSettingsDefaults(t *testing.T) {
	z := newTestZone(t)
	eq := z.Settings.EQ

	if eq.Enabled() {
		t.Error("eq should default off")
	}
	for b := EQHz60; b <= EQKHz15; b++ {
		if got := eq.Band(b); got != 100 {
			t.Errorf("band %s = %d, want 100 (flat)", b, got)
		}
		if got := eq.BandDB(b); got != 0 {
			t.Errorf("band %s = %ddB, want 0", b, got)
		}
	}
}

func TestEQSettingsInvalidBand(t *testing.T) {
	z := newTestZone(t)
	eq := z.Settings.EQ

	if err := eq.SetBand(EQBand(0), 100); err == nil {
		t.Error("band 0 should be rejected")
	}
	if err := eq.SetBand(EQBand(8), 100); err == nil {
		t.Error("band 8 should be rejected")
	}
	if got := eq.Band(EQBand(9)); got != 0 {
		t.Errorf("invalid band read = %d", got)
	}
}

func TestEQSettingsSetBandDB(t *testing.T) {
	z := newTestZone(t)
	rec := recordAlpha(z)

	if err := z.Settings.EQ.SetBandDB(EQHz200, 6); err != nil {
		t.Fatal(err)
	}
	bytesEqual(t, rec.last(t), []byte{0x10, 0x0D, 0x03, 0x01, 2, 106})

	// Out of range decibels clamp at the rails.
	if err := z.Settings.EQ.SetBandDB(EQHz200, -40); err != nil {
		t.Fatal(err)
	}
	bytesEqual(t, rec.last(t), []byte{0x10, 0x0D, 0x03, 0x01, 2, 90})
}

func TestEQSettingsWireClamp(t *testing.T) {
	z := newTestZone(t)

	z.Settings.EQ.setBand(int(EQHz60), 200)
	if got := z.Settings.EQ.Band(EQHz60); got != 110 {
		t.Errorf("band = %d, want clamp to 110", got)
	}

	// Unknown band numbers from the wire are dropped.
	z.Settings.EQ.setBand(9, 100)
}

func TestVolumeSettingsRequests(t *testing.T) {
	z := newTestZone(t)
	rec := recordAlpha(z)

	z.Settings.Volume.SetDefaultOn(60)
	bytesEqual(t, rec.last(t), []byte{0x10, 0x05, 0x03, 0x01, 60, 8})

	z.Settings.Volume.SetMaxLeft(90)
	bytesEqual(t, rec.last(t), []byte{0x10, 0x05, 0x03, 0x01, 90, 1})

	z.Settings.Volume.SetMaxRight(85)
	bytesEqual(t, rec.last(t), []byte{0x10, 0x05, 0x03, 0x01, 85, 2})

	z.Settings.AnalogInput.SetFixedGain(15)
	bytesEqual(t, rec.last(t), []byte{0x10, 0x05, 0x03, 0x01, 15, 0})
}

func TestZoneSettingsDisabledFeedback(t *testing.T) {
	z := newTestZone(t)

	feedAlpha(t, z.alpha, alphaFrame(0x26, 1, 0, 1))
	if !z.Settings.Disabled() {
		t.Error("zone should be disabled")
	}

	feedAlpha(t, z.alpha, alphaFrame(0x26, 1, 0, 0))
	if z.Settings.Disabled() {
		t.Error("zone should be enabled again")
	}
}

func TestZoneSettingsMonoFeedback(t *testing.T) {
	z := newTestZone(t)

	feedAlpha(t, z.alpha, alphaFrame(0x10, 1, 1))
	if !z.Settings.Mono() {
		t.Error("mono should be on")
	}
}

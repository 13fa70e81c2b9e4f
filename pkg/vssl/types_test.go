// ABOUTME: Tests for the wire enums, clamping and EQ value conversion
package vssl

import "testing"

func TestZoneIDValid(t *testing.T) {
	for id := Zone1; id <= Zone6; id++ {
		if !id.Valid() {
			t.Errorf("zone %d should be valid", id)
		}
	}
	for _, id := range []ZoneID{0, 7, -1, 255} {
		if id.Valid() {
			t.Errorf("zone %d should be invalid", id)
		}
	}
}

func TestClampVolume(t *testing.T) {
	cases := []struct{ in, want int }{
		{-5, 0}, {0, 0}, {50, 50}, {100, 100}, {140, 100},
	}
	for _, c := range cases {
		if got := clampVolume(c.in); got != c.want {
			t.Errorf("clampVolume(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestClampEQ(t *testing.T) {
	cases := []struct{ in, want int }{
		{0, 90}, {89, 90}, {90, 90}, {100, 100}, {110, 110}, {200, 110},
	}
	for _, c := range cases {
		if got := clampEQ(c.in); got != c.want {
			t.Errorf("clampEQ(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestEQValueDBRoundTrip(t *testing.T) {
	for value := 90; value <= 110; value++ {
		db := EQValueToDB(value)
		if db < -10 || db > 10 {
			t.Fatalf("EQValueToDB(%d) = %d, out of range", value, db)
		}
		if back := EQDBToValue(db); back != value {
			t.Errorf("round trip %d -> %ddB -> %d", value, db, back)
		}
	}
}

func TestEQDBAnchors(t *testing.T) {
	cases := []struct{ value, db int }{
		{90, -10}, {100, 0}, {110, 10},
	}
	for _, c := range cases {
		if got := EQValueToDB(c.value); got != c.db {
			t.Errorf("EQValueToDB(%d) = %d, want %d", c.value, got, c.db)
		}
		if got := EQDBToValue(c.db); got != c.value {
			t.Errorf("EQDBToValue(%d) = %d, want %d", c.db, got, c.value)
		}
	}
}

func TestTransportStateString(t *testing.T) {
	cases := map[TransportState]string{
		TransportStop:     "stop",
		TransportPlay:     "play",
		TransportPause:    "pause",
		TransportState(9): "unknown",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", state, got, want)
		}
	}
}

func TestStreamSourceValid(t *testing.T) {
	for _, s := range []StreamSource{StreamNone, StreamAirPlay, StreamSpotify, StreamDirectURL, StreamGoogleCast} {
		if !s.Valid() {
			t.Errorf("stream source %d should be valid", s)
		}
	}
	for _, s := range []StreamSource{2, 3, 23, 99} {
		if s.Valid() {
			t.Errorf("stream source %d should be invalid", s)
		}
	}
}

func TestInputSourceValid(t *testing.T) {
	if !SourceOpticalIn.Valid() {
		t.Error("optical input should be valid")
	}
	if InputSource(9).Valid() || InputSource(-1).Valid() {
		t.Error("out of range input sources accepted")
	}
}

func TestEQBandString(t *testing.T) {
	if got := EQHz60.String(); got != "60Hz" {
		t.Errorf("EQHz60 = %q", got)
	}
	if got := EQKHz15.String(); got != "15kHz" {
		t.Errorf("EQKHz15 = %q", got)
	}
	if got := EQBand(0).String(); got != "unknown" {
		t.Errorf("EQBand(0) = %q", got)
	}
}

func TestChangeDedup(t *testing.T) {
	v := 10
	if change(&v, 10) {
		t.Error("same value reported as change")
	}
	if !change(&v, 20) {
		t.Error("new value not reported as change")
	}
	if v != 20 {
		t.Errorf("value = %d, want 20", v)
	}
}

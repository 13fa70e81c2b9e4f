// ABOUTME: Playback transport state for one zone
// ABOUTME: Play/stop/pause go over Alpha, next/prev over Bravo
package vssl

import "sync"

// Transport holds the playback state of a zone and issues transport commands.
// State changes arrive as device feedback; the command methods only send the
// request.
type Transport struct {
	zone *Zone

	mu      sync.Mutex
	state   TransportState
	repeat  RepeatMode
	shuffle bool
	hasNext bool
	hasPrev bool
}

func newTransport(z *Zone) *Transport {
	return &Transport{zone: z}
}

// State returns the current playback state.
func (t *Transport) State() TransportState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Transport) IsPlaying() bool { return t.State() == TransportPlay }
func (t *Transport) IsPaused() bool  { return t.State() == TransportPause }
func (t *Transport) IsStopped() bool { return t.State() == TransportStop }

// Repeat returns the repeat mode reported with the track metadata.
func (t *Transport) Repeat() RepeatMode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.repeat
}

// Shuffle reports whether shuffle is on.
func (t *Transport) Shuffle() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.shuffle
}

// HasNext reports whether the current stream can skip forward.
func (t *Transport) HasNext() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.hasNext
}

// HasPrev reports whether the current stream can skip backward.
func (t *Transport) HasPrev() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.hasPrev
}

// Play requests playback to start.
func (t *Transport) Play() { t.zone.alpha.requestSetTransport(TransportPlay) }

// Stop requests playback to stop. Stopping has no effect while grouped, so a
// member leaves its group instead.
func (t *Transport) Stop() {
	t.zone.alpha.requestSetTransport(TransportStop)
	if t.zone.Group.IsMember() {
		t.zone.Group.Leave()
	}
}

// Pause requests playback to pause.
func (t *Transport) Pause() { t.zone.alpha.requestSetTransport(TransportPause) }

// Next skips to the next track when the stream supports it.
func (t *Transport) Next() { t.zone.bravo.requestTrackNext() }

// Prev skips to the previous track when the stream supports it.
func (t *Transport) Prev() { t.zone.bravo.requestTrackPrev() }

// setState applies a state change from the wire.
func (t *Transport) setState(raw int) {
	state := TransportState(raw)
	if !state.Valid() {
		return
	}
	t.mu.Lock()
	changed := change(&t.state, state)
	t.mu.Unlock()
	if changed {
		t.zone.publish(EventTransportStateChange, state)
	}
}

// applyTrackFlags applies the transport flags carried in a track metadata
// payload. While stopped the flags pin to their defaults: the device keeps
// reporting the last stream's values after it ends.
func (t *Transport) applyTrackFlags(next, prev bool, shuffle bool, repeat RepeatMode) {
	t.mu.Lock()
	if t.state == TransportStop {
		next, prev, shuffle, repeat = false, false, false, RepeatOff
	}
	if !repeat.Valid() {
		repeat = RepeatOff
	}
	nextChanged := change(&t.hasNext, next)
	prevChanged := change(&t.hasPrev, prev)
	shuffleChanged := change(&t.shuffle, shuffle)
	repeatChanged := change(&t.repeat, repeat)
	t.mu.Unlock()

	if nextChanged {
		t.zone.publish(EventTransportNextChange, next)
	}
	if prevChanged {
		t.zone.publish(EventTransportPrevChange, prev)
	}
	if shuffleChanged {
		t.zone.publish(EventTransportShuffleChange, shuffle)
	}
	if repeatChanged {
		t.zone.publish(EventTransportRepeatChange, repeat)
	}
}

// setDefaults resets the flags after a stream ends.
func (t *Transport) setDefaults() {
	t.applyTrackFlags(false, false, false, RepeatOff)
}

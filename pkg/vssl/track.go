// ABOUTME: Track metadata cache for one zone
// ABOUTME: Clears itself on stop since the device keeps serving stale metadata
package vssl

import (
	"fmt"
	"sync"
)

// TrackField is the payload of EventTrackChange: which per-field event fired
// and the value it carried. Group members replay these from their master.
type TrackField struct {
	Event string
	Value any
}

// Track is the metadata of whatever a zone is currently streaming. Duration
// and progress are in milliseconds.
type Track struct {
	zone *Zone

	mu          sync.Mutex
	title       string
	album       string
	artist      string
	genre       string
	duration    int
	progress    int
	coverArtURL string
	url         string
	source      StreamSource
}

func newTrack(z *Zone) *Track {
	return &Track{zone: z}
}

func (t *Track) Title() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.title
}

func (t *Track) Album() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.album
}

func (t *Track) Artist() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.artist
}

func (t *Track) Genre() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.genre
}

func (t *Track) Duration() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.duration
}

func (t *Track) Progress() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.progress
}

func (t *Track) CoverArtURL() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.coverArtURL
}

func (t *Track) URL() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.url
}

func (t *Track) Source() StreamSource {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.source
}

// ProgressDisplay formats the progress as m:ss, or h:mm:ss past an hour.
func (t *Track) ProgressDisplay() string {
	seconds := t.Progress() / 1000
	minutes := seconds / 60
	seconds %= 60
	hours := minutes / 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes%60, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// set runs apply under the lock and publishes both the per-field event and
// the coarse track change event when the value moved. The forced flag pushes
// the update through even while the transport is stopped; normal wire updates
// degrade to the zero value then, because the device re-serves the last
// stream's metadata after stopping.
func (t *Track) set(event string, value any, forced bool, apply func(suppress bool) bool) {
	suppress := !forced && t.zone.Transport.IsStopped()

	t.mu.Lock()
	changed := apply(suppress)
	t.mu.Unlock()

	if !changed {
		return
	}
	if suppress {
		value = zeroTrackValue(event)
	}
	t.zone.publish(event, value)
	t.zone.publish(EventTrackChange, TrackField{Event: event, Value: value})
}

func zeroTrackValue(event string) any {
	switch event {
	case EventTrackDurationChange, EventTrackProgressChange:
		return 0
	case EventTrackSourceChange:
		return StreamNone
	}
	return ""
}

func (t *Track) setTitle(v string, forced bool) {
	t.set(EventTrackTitleChange, v, forced, func(suppress bool) bool {
		if suppress {
			v = ""
		}
		return change(&t.title, v)
	})
}

func (t *Track) setAlbum(v string, forced bool) {
	t.set(EventTrackAlbumChange, v, forced, func(suppress bool) bool {
		if suppress {
			v = ""
		}
		return change(&t.album, v)
	})
}

func (t *Track) setArtist(v string, forced bool) {
	t.set(EventTrackArtistChange, v, forced, func(suppress bool) bool {
		if suppress {
			v = ""
		}
		return change(&t.artist, v)
	})
}

func (t *Track) setGenre(v string, forced bool) {
	t.set(EventTrackGenreChange, v, forced, func(suppress bool) bool {
		if suppress {
			v = ""
		}
		return change(&t.genre, v)
	})
}

func (t *Track) setDuration(v int, forced bool) {
	t.set(EventTrackDurationChange, v, forced, func(suppress bool) bool {
		if suppress {
			v = 0
		}
		return change(&t.duration, v)
	})
}

func (t *Track) setProgress(v int, forced bool) {
	t.set(EventTrackProgressChange, v, forced, func(suppress bool) bool {
		if suppress {
			v = 0
		}
		return change(&t.progress, v)
	})
}

func (t *Track) setCoverArtURL(v string, forced bool) {
	t.set(EventTrackCoverArtChange, v, forced, func(suppress bool) bool {
		if suppress {
			v = ""
		}
		return change(&t.coverArtURL, v)
	})
}

func (t *Track) setURL(v string, forced bool) {
	t.set(EventTrackURLChange, v, forced, func(suppress bool) bool {
		if suppress {
			v = ""
		}
		return change(&t.url, v)
	})
}

func (t *Track) setSource(raw int, forced bool) {
	src := StreamSource(raw)
	if !src.Valid() {
		return
	}
	t.set(EventTrackSourceChange, src, forced, func(suppress bool) bool {
		if suppress {
			src = StreamNone
		}
		return change(&t.source, src)
	})
}

// setDefaults clears every field, firing change events, so consumers see the
// stream end instead of the device's cached last track.
func (t *Track) setDefaults() {
	t.setTitle("", true)
	t.setAlbum("", true)
	t.setArtist("", true)
	t.setGenre("", true)
	t.setDuration(0, true)
	t.setProgress(0, true)
	t.setCoverArtURL("", true)
	t.setURL("", true)
	t.setSource(int(StreamNone), true)
}

// applyField replays one TrackField published by a group master.
func (t *Track) applyField(f TrackField) {
	switch f.Event {
	case EventTrackTitleChange:
		if v, ok := f.Value.(string); ok {
			t.setTitle(v, true)
		}
	case EventTrackAlbumChange:
		if v, ok := f.Value.(string); ok {
			t.setAlbum(v, true)
		}
	case EventTrackArtistChange:
		if v, ok := f.Value.(string); ok {
			t.setArtist(v, true)
		}
	case EventTrackGenreChange:
		if v, ok := f.Value.(string); ok {
			t.setGenre(v, true)
		}
	case EventTrackDurationChange:
		if v, ok := f.Value.(int); ok {
			t.setDuration(v, true)
		}
	case EventTrackProgressChange:
		if v, ok := f.Value.(int); ok {
			t.setProgress(v, true)
		}
	case EventTrackCoverArtChange:
		if v, ok := f.Value.(string); ok {
			t.setCoverArtURL(v, true)
		}
	case EventTrackURLChange:
		if v, ok := f.Value.(string); ok {
			t.setURL(v, true)
		}
	case EventTrackSourceChange:
		if v, ok := f.Value.(StreamSource); ok {
			t.setSource(int(v), true)
		}
	}
}

// pullFrom copies the full track state from a group master, used once when a
// zone joins a group. After the initial pull the member follows the master's
// change events.
func (t *Track) pullFrom(master *Track) {
	t.setTitle(master.Title(), true)
	t.setAlbum(master.Album(), true)
	t.setArtist(master.Artist(), true)
	t.setGenre(master.Genre(), true)
	t.setDuration(master.Duration(), true)
	t.setProgress(master.Progress(), true)
	t.setCoverArtURL(master.CoverArtURL(), true)
	t.setURL(master.URL(), true)
	t.setSource(int(master.Source()), true)
}

// ABOUTME: Bravo protocol framer: 10 byte header with a big-endian payload length
// ABOUTME: Carries track metadata, zone naming, MAC address and progress updates
package vssl

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/vsslctrl/vsslctrl/pkg/api"
)

const (
	bravoLead byte = 0xAA

	bravoGet byte = 1
	bravoSet byte = 2
)

// Track metadata envelope keys. Command id 3 is the PlayView window, the one
// carrying track info; the file browser windows are not interesting here.
const (
	keyCommandID      = "CMD ID"
	keyWindowTitle    = "Window TITLE"
	keyWindowContents = "Window CONTENTS"

	playViewCommandID = 3
)

// trackPayload is the PlayView window contents. Time fields are in
// milliseconds.
type trackPayload struct {
	TrackName     *string `json:"TrackName"`
	Album         *string `json:"Album"`
	Artist        *string `json:"Artist"`
	Genre         *string `json:"Genre"`
	TotalTime     *int    `json:"TotalTime"`
	CoverArtURL   *string `json:"CoverArtUrl"`
	CurrentSource *int    `json:"Current Source"`
	PlayURL       *string `json:"PlayUrl"`
	Next          *bool   `json:"Next"`
	Prev          *bool   `json:"Prev"`
	Shuffle       *int    `json:"Shuffle"`
	Repeat        *int    `json:"Repeat"`
}

// Bravo is the secondary protocol session of a zone.
type Bravo struct {
	zone *Zone
	conn *api.Connection
	out  func([]byte)
}

func newBravo(z *Zone) *Bravo {
	b := &Bravo{zone: z}
	b.conn = api.NewConnection(z.host, BravoPort, b)
	b.out = b.conn.Send
	return b
}

// Keepalive registers this client's address with the zone. The device pushes
// feedback to registered addresses, so the registration doubles as the
// keepalive.
func (b *Bravo) Keepalive() []byte {
	return b.buildWithData(0x03, b.zone.host)
}

// ReadFrame reads the remaining nine header bytes and the payload, then
// dispatches by the opcode at header offset four.
func (b *Bravo) ReadFrame(r *bufio.Reader, first byte) error {
	header := make([]byte, 9)
	if _, err := io.ReadFull(r, header); err != nil {
		return err
	}
	opcode := header[3]
	length := binary.BigEndian.Uint16(header[7:9])

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return err
	}

	b.dispatch(opcode, header, payload)
	return nil
}

func (b *Bravo) dispatch(opcode byte, header, payload []byte) {
	switch opcode {
	case 0x03:
		// Registration ack; header offset five is 1 on success.
		if header[4] != 1 {
			log.Printf("Zone %d: Bravo: registration refused, retrying", b.zone.id)
			b.out(b.Keepalive())
		}
	case 0x5A:
		b.zone.Settings.setName(strings.TrimSpace(string(payload)))
	case 0x5B:
		b.zone.setMAC(string(payload))
	case 0x31:
		if ms, err := strconv.Atoi(strings.TrimSpace(string(payload))); err == nil {
			b.zone.Track.setProgress(ms, false)
		}
	case 0x2A, 0x2D:
		b.handleTrackMetadata(payload)
	case 0x32:
		if src, err := strconv.Atoi(strings.TrimSpace(string(payload))); err == nil {
			b.zone.Track.setSource(src, false)
		}
	case 0x36:
		// Playback feedback strings such as success or error_playfail.
		log.Printf("Zone %d: Bravo: feedback %q", b.zone.id, string(payload))
	case 0x33, 0x3F, 0x40:
		// Transport, mute and volume also arrive here, but the Alpha session
		// is authoritative for them. The Bravo volume reads zero while muted
		// which would fight the Alpha feedback.
	case 0x70:
		// Command confirmation echo for every zone, useful only for tracing.
	default:
		log.Printf("Zone %d: Bravo: unknown opcode %#02x: %q", b.zone.id, opcode, payload)
	}
}

// handleTrackMetadata parses a metadata window and applies the PlayView
// fields to the track and transport. Members of a group ignore it: the device
// serves them stale cached metadata, so members mirror their master instead.
func (b *Bravo) handleTrackMetadata(payload []byte) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(payload, &envelope); err != nil {
		log.Printf("Zone %d: Bravo: bad metadata JSON: %v", b.zone.id, err)
		return
	}

	var commandID int
	if raw, ok := envelope[keyCommandID]; ok {
		if err := json.Unmarshal(raw, &commandID); err != nil {
			return
		}
	}
	if commandID != playViewCommandID {
		return
	}

	contents, ok := envelope[keyWindowContents]
	if !ok {
		return
	}
	var track trackPayload
	if err := json.Unmarshal(contents, &track); err != nil {
		log.Printf("Zone %d: Bravo: bad PlayView contents: %v", b.zone.id, err)
		return
	}

	if !b.zone.Group.IsMember() {
		t := b.zone.Track
		if track.TrackName != nil {
			t.setTitle(*track.TrackName, false)
		}
		if track.Album != nil {
			t.setAlbum(*track.Album, false)
		}
		if track.Artist != nil {
			t.setArtist(*track.Artist, false)
		}
		if track.Genre != nil {
			t.setGenre(*track.Genre, false)
		}
		if track.TotalTime != nil {
			t.setDuration(*track.TotalTime, false)
		}
		if track.CoverArtURL != nil {
			t.setCoverArtURL(*track.CoverArtURL, false)
		}
		if track.CurrentSource != nil {
			t.setSource(*track.CurrentSource, false)
		}
		if track.PlayURL != nil {
			t.setURL(*track.PlayURL, false)
		}
	}

	next, prev, shuffle := false, false, false
	repeat := RepeatOff
	if track.Next != nil {
		next = *track.Next
	}
	if track.Prev != nil {
		prev = *track.Prev
	}
	if track.Shuffle != nil {
		shuffle = *track.Shuffle != 0
	}
	if track.Repeat != nil {
		repeat = RepeatMode(*track.Repeat)
	}
	b.zone.Transport.applyTrackFlags(next, prev, shuffle, repeat)
}

// Requests. The header is [AA AA, get|set, opcode, 0,0,0,0]; gets append a
// zero length, sets append a one byte length and the data.

func (b *Bravo) build(opcode byte, get bool) []byte {
	mode := bravoGet
	if !get {
		mode = bravoSet
	}
	return []byte{bravoLead, bravoLead, mode, opcode, 0, 0, 0, 0}
}

func (b *Bravo) buildGet(opcode byte) []byte {
	return append(b.build(opcode, true), 0, 0)
}

func (b *Bravo) buildWithData(opcode byte, data string) []byte {
	cmd := append(b.build(opcode, false), byte(len(data)), 0)
	return append(cmd, []byte(data)...)
}

func (b *Bravo) requestName() {
	b.out(b.buildGet(0x5A))
}

func (b *Bravo) requestSetName(name string) {
	b.out(b.buildWithData(0x5A, name))
}

func (b *Bravo) requestMAC() {
	b.out(b.buildGet(0x5B))
}

func (b *Bravo) requestTrack() {
	b.out(b.buildGet(0x2A))
}

func (b *Bravo) requestTrackNext() {
	b.out(append(b.build(0x28, false), 4, 0, 'N', 'E', 'X', 'T'))
}

func (b *Bravo) requestTrackPrev() {
	b.out(append(b.build(0x28, false), 8, 0, 'P', 'R', 'E', 'V'))
}

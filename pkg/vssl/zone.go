// ABOUTME: One amplifier zone: dual protocol sessions, cached state and commands
// ABOUTME: Initialise blocks until the device has confirmed the zone's identity
package vssl

import (
	"fmt"
	"log"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vsslctrl/vsslctrl/pkg/bus"
)

const (
	// AlphaPort is the primary control protocol port.
	AlphaPort = 50002
	// BravoPort is the secondary protocol port carrying metadata and naming.
	BravoPort = 7777

	defaultPollInterval = 30 * time.Second
)

var macPattern = regexp.MustCompile(`^([0-9A-Fa-f]{2}[:-]){5}[0-9A-Fa-f]{2}$`)

// Poll request names, used to add and remove requests from the poller.
const (
	pollZoneStatus     = "zone_status"
	pollMAC            = "mac_addr"
	pollDeviceStatus   = "device_status"
	pollOutputStatus   = "output_status"
	pollEQStatus       = "eq_status"
	pollTrack          = "track"
	pollName           = "name"
	pollExtendedStatus = "extended_status"
)

// Zone is one zone of a VSSL amplifier. Each zone has its own IP and two TCP
// sessions: Alpha carries most control traffic, Bravo carries track metadata,
// naming and the MAC address. All cached state is fed by device feedback;
// command methods only send requests.
type Zone struct {
	device *Device
	id     ZoneID
	host   string

	mu     sync.Mutex
	serial string
	mac    string
	volume int
	mute   bool

	initialised atomic.Bool

	Transport    *Transport
	Track        *Track
	Group        *Group
	Input        *InputRouter
	AnalogOutput *AnalogOutput
	Settings     *ZoneSettings

	alpha  *Alpha
	bravo  *Bravo
	poller *poller

	subMu          sync.Mutex
	masterTrackSub bus.Subscription
	hasMasterSub   bool
}

func newZone(device *Device, id ZoneID, host string) *Zone {
	z := &Zone{
		device: device,
		id:     id,
		host:   host,
	}
	z.Transport = newTransport(z)
	z.Track = newTrack(z)
	z.Group = newGroup(z)
	z.Input = newInputRouter(z)
	z.AnalogOutput = newAnalogOutput(z)
	z.Settings = newZoneSettings(z)
	z.alpha = newAlpha(z)
	z.bravo = newBravo(z)

	device.Bus.Subscribe(EventTransportStateChange, z.onTransportStateChange, int(z.id), false)
	device.Bus.Subscribe(EventGroupSourceChange, z.onGroupSourceChange, int(z.id), false)

	z.poller = newPoller(defaultPollInterval)
	z.poller.append(pollZoneStatus, z.requestStatus) // first, carries id and serial
	z.poller.append(pollMAC, z.requestMAC)
	z.poller.append(pollDeviceStatus, z.requestDeviceStatus)
	z.poller.append(pollOutputStatus, z.requestOutputStatus)
	z.poller.append(pollEQStatus, z.requestEQStatus)
	z.poller.append(pollTrack, z.requestTrack)
	z.poller.append(pollName, z.requestName)
	z.poller.append(pollExtendedStatus, z.requestExtendedStatus)

	return z
}

// ID returns the zone id.
func (z *Zone) ID() ZoneID { return z.id }

// Host returns the zone's IP address.
func (z *Zone) Host() string { return z.host }

// Serial returns the device serial number reported by this zone.
func (z *Zone) Serial() string {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.serial
}

// MAC returns the zone's MAC address, empty until reported.
func (z *Zone) MAC() string {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.mac
}

// Initialised reports whether Initialise has completed.
func (z *Zone) Initialised() bool {
	return z.initialised.Load()
}

// Connected reports whether both protocol sessions are up.
func (z *Zone) Connected() bool {
	return z.alpha.conn.Connected() && z.bravo.conn.Connected()
}

// Initialise connects both protocol sessions, starts polling and blocks until
// the device has reported the zone's id, serial number and name, or the
// timeout expires. A reported id or serial that contradicts what this zone
// was added with is fatal.
func (z *Zone) Initialise(timeout time.Duration) error {
	eb := z.device.Bus

	futureID := eb.Future(EventZoneIDReceived, int(z.id))
	futureSerial := eb.Future(EventZoneSerialReceived, int(z.id))
	futureName := eb.Future(EventSettingsNameChange, int(z.id))

	if err := z.alpha.conn.Connect(); err != nil {
		return err
	}
	if err := z.bravo.conn.Connect(); err != nil {
		z.alpha.conn.Disconnect()
		return err
	}

	z.poller.start()

	receivedID, err := eb.WaitFuture(futureID, timeout)
	if err != nil {
		z.Disconnect()
		return fmt.Errorf("zone %d: timed out waiting for zone id: %w", z.id, err)
	}
	receivedSerial, err := eb.WaitFuture(futureSerial, timeout)
	if err != nil {
		z.Disconnect()
		return fmt.Errorf("zone %d: timed out waiting for serial number: %w", z.id, err)
	}
	if _, err := eb.WaitFuture(futureName, timeout); err != nil {
		z.Disconnect()
		return fmt.Errorf("zone %d: timed out waiting for zone name: %w", z.id, err)
	}

	if id, ok := receivedID.(ZoneID); !ok || id != z.id {
		z.Disconnect()
		return fmt.Errorf("%w: %s returned zone id %v instead of %d", ErrZoneIDMismatch, z.host, receivedID, z.id)
	}

	if serial, ok := receivedSerial.(string); !ok || serial != z.device.Serial() {
		z.Disconnect()
		return fmt.Errorf("%w: zone serial %v, device serial %q", ErrSerialMismatch, receivedSerial, z.device.Serial())
	}

	z.initialised.Store(true)
	z.publish(EventZoneInitialised, z.id)
	log.Printf("Zone %d initialised", z.id)

	return nil
}

// Disconnect stops polling and closes both protocol sessions.
func (z *Zone) Disconnect() {
	z.poller.stop()
	z.alpha.conn.Disconnect()
	z.bravo.conn.Disconnect()
}

func (z *Zone) publish(name string, data any) {
	z.device.Bus.Publish(name, int(z.id), data)
}

// onTransportStateChange requests fresh track metadata when a stream starts
// and clears the cached metadata when it stops. The device keeps serving the
// last stream's metadata after a stop.
func (z *Zone) onTransportStateChange(ev bus.Event) {
	if !z.Transport.IsStopped() {
		z.requestTrack()
		return
	}
	z.Track.setDefaults()
	z.Transport.setDefaults()
}

// onGroupSourceChange follows or unfollows a group master's track metadata.
// On joining, the member does one full pull, then mirrors the master's change
// events.
func (z *Zone) onGroupSourceChange(ev bus.Event) {
	source, ok := ev.Data.(ZoneID)
	if !ok {
		return
	}

	z.subMu.Lock()
	if z.hasMasterSub {
		z.device.Bus.Unsubscribe(z.masterTrackSub)
		z.hasMasterSub = false
	}
	z.subMu.Unlock()

	if source == 0 {
		return
	}

	sub, err := z.device.Bus.Subscribe(EventTrackChange, func(ev bus.Event) {
		if field, ok := ev.Data.(TrackField); ok {
			z.Track.applyField(field)
		}
	}, int(source), false)
	if err != nil {
		return
	}

	z.subMu.Lock()
	z.masterTrackSub = sub
	z.hasMasterSub = true
	z.subMu.Unlock()

	if master := z.device.Zone(source); master != nil {
		z.Track.pullFrom(master.Track)
	} else {
		log.Printf("Zone %d: group master %d is not managed here", z.id, source)
	}
}

// Volume returns the zone volume. While muted some sources report zero and
// others the underlying level; consumers wanting "0 when muted" should check
// Mute themselves.
func (z *Zone) Volume() int {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.volume
}

// SetVolume requests a volume change, clamped to 0..100.
func (z *Zone) SetVolume(vol int) {
	z.alpha.requestSetVolume(vol)
}

// VolumeRaise raises the volume by step. A step of one uses the device's own
// increment command.
func (z *Zone) VolumeRaise(step int) {
	step = min(max(step, 1), 100)
	if step > 1 {
		z.SetVolume(z.Volume() + step)
		return
	}
	z.alpha.requestVolumeRaise()
}

// VolumeLower lowers the volume by step.
func (z *Zone) VolumeLower(step int) {
	step = min(max(step, 1), 100)
	if step > 1 {
		z.SetVolume(z.Volume() - step)
		return
	}
	z.alpha.requestVolumeLower()
}

// Mute reports whether the zone is muted. Volume zero always reads as muted.
func (z *Zone) Mute() bool {
	z.mu.Lock()
	defer z.mu.Unlock()
	if z.volume == 0 {
		return true
	}
	return z.mute
}

// SetMute requests a mute change.
func (z *Zone) SetMute(muted bool) {
	z.alpha.requestSetMute(muted)
}

// MuteToggle flips the mute state.
func (z *Zone) MuteToggle() {
	z.SetMute(!z.Mute())
}

// Play starts playback.
func (z *Zone) Play() { z.Transport.Play() }

// Stop stops playback.
func (z *Zone) Stop() { z.Transport.Stop() }

// Pause pauses playback.
func (z *Zone) Pause() { z.Transport.Pause() }

// Next skips to the next track.
func (z *Zone) Next() { z.Transport.Next() }

// Prev skips to the previous track.
func (z *Zone) Prev() { z.Transport.Prev() }

// PlayURL plays an audio file URL on this zone, or on every zone. Playback is
// requested, not guaranteed; failures surface as feedback frames.
func (z *Zone) PlayURL(url string, allZones bool) {
	z.alpha.requestPlayURL(url, allZones)
}

// Reboot reboots this zone.
func (z *Zone) Reboot() {
	z.alpha.requestReboot()
}

// receiveID publishes the id reported by the device. Only meaningful before
// initialisation, where Initialise waits on it.
func (z *Zone) receiveID(id int) {
	if !z.Initialised() {
		z.publish(EventZoneIDReceived, ZoneID(id))
	}
}

func (z *Zone) setSerial(serial string) {
	if z.Initialised() {
		return
	}
	z.mu.Lock()
	already := z.serial != ""
	if !already {
		z.serial = serial
	}
	z.mu.Unlock()
	if !already {
		z.publish(EventZoneSerialReceived, serial)
	}
}

// setMAC validates and stores the MAC address, then drops the MAC request
// from the poller. First generation amplifiers prefix the value with Wlan0:.
func (z *Zone) setMAC(mac string) {
	mac = strings.TrimSpace(mac)
	mac = strings.TrimPrefix(mac, "Wlan0:")
	if !macPattern.MatchString(mac) {
		log.Printf("Zone %d: invalid MAC address %q", z.id, mac)
		return
	}
	z.mu.Lock()
	changed := change(&z.mac, mac)
	z.mu.Unlock()
	if changed {
		z.poller.remove(pollMAC)
		z.publish(EventSettingsMACChange, mac)
	}
}

func (z *Zone) setVolume(vol int) {
	vol = clampVolume(vol)
	z.mu.Lock()
	changed := change(&z.volume, vol)
	z.mu.Unlock()
	if changed {
		z.publish(EventVolumeChange, vol)
	}
}

func (z *Zone) setMute(muted bool) {
	z.mu.Lock()
	changed := change(&z.mute, muted)
	z.mu.Unlock()
	if changed {
		z.publish(EventMuteChange, muted)
	}
}

// Poll requests.

func (z *Zone) requestStatus()         { z.alpha.requestZoneStatus() }
func (z *Zone) requestDeviceStatus()   { z.alpha.requestDeviceStatus() }
func (z *Zone) requestEQStatus()       { z.alpha.requestEQStatus() }
func (z *Zone) requestOutputStatus()   { z.alpha.requestOutputStatus() }
func (z *Zone) requestExtendedStatus() { z.alpha.requestExtendedStatus() }
func (z *Zone) requestMAC()            { z.bravo.requestMAC() }
func (z *Zone) requestName()           { z.bravo.requestName() }
func (z *Zone) requestTrack()          { z.bravo.requestTrack() }

// poller periodically replays a named list of requests while the zone is
// connected. The first run happens immediately on start.
type poller struct {
	interval time.Duration

	mu       sync.Mutex
	order    []string
	requests map[string]func()
	stopCh   chan struct{}
	running  bool
}

func newPoller(interval time.Duration) *poller {
	return &poller{
		interval: interval,
		requests: make(map[string]func()),
	}
}

func (p *poller) append(name string, fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.requests[name]; ok {
		return
	}
	p.requests[name] = fn
	p.order = append(p.order, name)
}

func (p *poller) remove(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.requests[name]; !ok {
		return
	}
	delete(p.requests, name)
	for i, n := range p.order {
		if n == name {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

func (p *poller) contains(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.requests[name]
	return ok
}

func (p *poller) start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.stopCh = make(chan struct{})
	stop := p.stopCh
	p.mu.Unlock()

	go func() {
		for {
			p.poll()
			select {
			case <-stop:
				return
			case <-time.After(p.interval):
			}
		}
	}()
}

func (p *poller) stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.running = false
	close(p.stopCh)
}

func (p *poller) poll() {
	p.mu.Lock()
	fns := make([]func(), 0, len(p.order))
	for _, name := range p.order {
		fns = append(fns, p.requests[name])
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

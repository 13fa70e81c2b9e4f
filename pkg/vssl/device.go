// ABOUTME: Device session: owns the event bus and the set of zone sessions
// ABOUTME: Initialise brings zones up in two phases, gated on the reported zone count
package vssl

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vsslctrl/vsslctrl/pkg/bus"
)

// DefaultInitTimeout bounds how long Initialise waits on each zone and on the
// device's model information.
const DefaultInitTimeout = 10 * time.Second

// Device is one VSSL amplifier: a set of zones sharing a serial number plus
// the device wide settings. All zones publish onto the device's event bus.
type Device struct {
	Bus      *bus.Bus
	Settings *DeviceSettings

	mu           sync.Mutex
	zones        map[ZoneID]*Zone
	serial       string
	swVersion    string
	modelZoneQty int
	model        *Model
}

// NewDevice creates an empty device. Zones are added with AddZone and brought
// up with Initialise.
func NewDevice() *Device {
	d := &Device{
		Bus:   bus.New(),
		zones: make(map[ZoneID]*Zone),
	}
	d.Settings = newDeviceSettings(d)
	return d
}

// NewDeviceWithModel creates a device with a known model, skipping model
// inference and enabling the capacity check up front.
func NewDeviceWithModel(model *Model) *Device {
	d := NewDevice()
	d.model = model
	if model != nil {
		d.modelZoneQty = model.ZoneQty
	}
	return d
}

// AddZone registers a zone by id and host. Duplicate ids and duplicate hosts
// are rejected.
func (d *Device) AddZone(id ZoneID, host string) (*Zone, error) {
	if !id.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidZoneID, id)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.zones[id]; ok {
		return nil, fmt.Errorf("%w: zone %d", ErrZoneExists, id)
	}
	for _, z := range d.zones {
		if z.host == host {
			return nil, fmt.Errorf("%w: %s", ErrHostExists, host)
		}
	}

	z := newZone(d, id, host)
	d.zones[id] = z
	return z, nil
}

// AddZones registers hosts as zones 1..n in order.
func (d *Device) AddZones(hosts ...string) error {
	for i, host := range hosts {
		if _, err := d.AddZone(ZoneID(i+1), host); err != nil {
			return err
		}
	}
	return nil
}

// Zone returns the zone with the given id, nil when not added.
func (d *Device) Zone(id ZoneID) *Zone {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.zones[id]
}

// Zones returns the added zones ordered by id.
func (d *Device) Zones() []*Zone {
	d.mu.Lock()
	defer d.mu.Unlock()
	zones := make([]*Zone, 0, len(d.zones))
	for _, z := range d.zones {
		zones = append(zones, z)
	}
	sort.Slice(zones, func(i, j int) bool { return zones[i].id < zones[j].id })
	return zones
}

// ZonesByGroupIndex returns the zones currently carrying the given group
// index.
func (d *Device) ZonesByGroupIndex(index int) []*Zone {
	var zones []*Zone
	for _, z := range d.Zones() {
		if z.Group.Index() == index {
			zones = append(zones, z)
		}
	}
	return zones
}

// connectedZone returns any zone with both sessions up. Device level
// commands can go through any zone.
func (d *Device) connectedZone() *Zone {
	for _, z := range d.Zones() {
		if z.Connected() {
			return z
		}
	}
	return nil
}

// Initialise brings every added zone up. With an unknown model the first zone
// is initialised alone so the device can report how many zones the hardware
// has; adding more zones than that fails everything. A pre-configured model
// fixes the capacity up front, so there is no report to wait for. The
// remaining zones initialise concurrently.
func (d *Device) Initialise(timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultInitTimeout
	}

	zones := d.Zones()
	if len(zones) == 0 {
		return ErrNoZones
	}

	if qty := d.ModelZoneQty(); qty != 0 && len(zones) > qty {
		return fmt.Errorf("%w: device has %d zones, %d added", ErrZoneCapacity, qty, len(zones))
	}

	first, rest := zones[0], zones[1:]

	var futureQty <-chan any
	if d.ModelZoneQty() == 0 {
		futureQty = d.Bus.Future(EventDeviceModelZoneQty, DeviceEntity)
	}

	if err := first.Initialise(timeout); err != nil {
		return err
	}

	if futureQty != nil {
		qty, err := d.Bus.WaitFuture(futureQty, timeout)
		if err != nil {
			first.Disconnect()
			return fmt.Errorf("timed out waiting for model information from zone %d: %w", first.id, err)
		}
		if n, ok := qty.(int); ok && len(zones) > n {
			first.Disconnect()
			return fmt.Errorf("%w: device has %d zones, %d added", ErrZoneCapacity, n, len(zones))
		}
	}

	var wg sync.WaitGroup
	errs := make([]error, len(rest))
	for i, z := range rest {
		wg.Add(1)
		go func(i int, z *Zone) {
			defer wg.Done()
			errs[i] = z.Initialise(timeout)
		}(i, z)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			d.DisconnectZones()
			return err
		}
	}

	d.Bus.Publish(EventDeviceInitialised, DeviceEntity, d)
	return nil
}

// DisconnectZones closes every zone session without stopping the bus.
func (d *Device) DisconnectZones() {
	for _, z := range d.Zones() {
		z.Disconnect()
	}
}

// Shutdown disconnects everything and stops the event bus.
func (d *Device) Shutdown() {
	d.DisconnectZones()
	d.Bus.Stop()
}

// Serial returns the device serial number, empty until a zone reports it.
func (d *Device) Serial() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.serial
}

// SWVersion returns the firmware version string.
func (d *Device) SWVersion() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.swVersion
}

// Model returns the device model, inferred from the zone count when not
// supplied up front.
func (d *Device) Model() *Model {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.model
}

// ModelZoneQty is the total zones the hardware has, not how many were added.
func (d *Device) ModelZoneQty() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.modelZoneQty
}

// Name returns the device display name.
func (d *Device) Name() string {
	return d.Settings.Name()
}

// Reboot reboots every zone of the device.
func (d *Device) Reboot() {
	if z := d.connectedZone(); z != nil {
		z.alpha.requestRebootDevice()
	}
}

// adoptSerial stores the first serial number any zone reports. Later zones
// are checked against it during their initialisation.
func (d *Device) adoptSerial(serial string) {
	d.mu.Lock()
	already := d.serial != ""
	if !already {
		d.serial = serial
	}
	d.mu.Unlock()
	if !already {
		d.Bus.Publish(EventDeviceSerialChange, DeviceEntity, serial)
	}
}

func (d *Device) setSWVersion(version string) {
	d.mu.Lock()
	changed := d.swVersion == "" && version != ""
	if changed {
		d.swVersion = version
	}
	d.mu.Unlock()
	if changed {
		d.Bus.Publish(EventDeviceSWVersionChange, DeviceEntity, version)
	}
}

// inferModelZoneQty counts the per-zone bus source keys in a device status to
// work out how many zones the hardware has, and picks the matching model.
func (d *Device) inferModelZoneQty(status map[string]string) {
	d.mu.Lock()
	if d.modelZoneQty != 0 {
		d.mu.Unlock()
		return
	}
	qty := 0
	for key := range status {
		if strings.HasPrefix(key, "B") && strings.HasSuffix(key, "Src") {
			qty++
		}
	}
	d.modelZoneQty = qty
	if d.model == nil {
		d.model = inferModel(qty)
	}
	model := d.model
	d.mu.Unlock()

	log.Printf("Device reports %d zones (%s)", qty, model)
	d.Bus.Publish(EventDeviceModelZoneQty, DeviceEntity, qty)
}

// DeviceSettings are the device wide settings. Zone level settings live on
// each zone.
type DeviceSettings struct {
	device *Device
	Power  *PowerSettings

	mu               sync.Mutex
	name             string
	opticalInputName string
}

func newDeviceSettings(d *Device) *DeviceSettings {
	return &DeviceSettings{
		device: d,
		Power:  newPowerSettings(d),
	}
}

// Name returns the device display name.
func (s *DeviceSettings) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

// SetName renames the device.
func (s *DeviceSettings) SetName(name string) {
	if z := s.device.connectedZone(); z != nil {
		z.alpha.requestSetDeviceName(name)
		z.alpha.requestDeviceName()
	}
}

// OpticalInputName returns the shared optical input's display name.
func (s *DeviceSettings) OpticalInputName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opticalInputName
}

// SetOpticalInputName renames the shared optical input.
func (s *DeviceSettings) SetOpticalInputName(name string) {
	if z := s.device.connectedZone(); z != nil {
		z.alpha.requestSetOpticalInputName(name)
	}
}

func (s *DeviceSettings) setName(name string) {
	s.mu.Lock()
	changed := change(&s.name, name)
	s.mu.Unlock()
	if changed {
		s.device.Bus.Publish(EventDeviceNameChange, DeviceEntity, name)
	}
}

func (s *DeviceSettings) setOpticalInputName(name string) {
	s.mu.Lock()
	changed := change(&s.opticalInputName, name)
	s.mu.Unlock()
	if changed {
		s.device.Bus.Publish(EventDeviceOpticalNameChange, DeviceEntity, name)
	}
}

// PowerSettings is the device power state. Adaptive means the amplifier
// sleeps on its own when idle; off means always on.
type PowerSettings struct {
	device *Device

	mu       sync.Mutex
	state    PowerState
	adaptive bool
}

func newPowerSettings(d *Device) *PowerSettings {
	return &PowerSettings{device: d, adaptive: true}
}

// State returns the current power state.
func (p *PowerSettings) State() PowerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Adaptive reports whether adaptive power is on.
func (p *PowerSettings) Adaptive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.adaptive
}

// SetAdaptive switches adaptive power on or off.
func (p *PowerSettings) SetAdaptive(enabled bool) {
	if z := p.device.connectedZone(); z != nil {
		z.alpha.requestSetAdaptivePower(enabled)
	}
}

// AdaptiveToggle flips the adaptive power setting.
func (p *PowerSettings) AdaptiveToggle() {
	p.SetAdaptive(!p.Adaptive())
}

func (p *PowerSettings) setState(raw int) {
	state := PowerState(raw)
	if !state.Valid() {
		log.Printf("Unknown power state %d", raw)
		return
	}
	p.mu.Lock()
	changed := change(&p.state, state)
	p.mu.Unlock()
	if changed {
		p.device.Bus.Publish(EventPowerStateChange, DeviceEntity, state)
	}
}

func (p *PowerSettings) setAdaptive(adaptive bool) {
	p.mu.Lock()
	changed := change(&p.adaptive, adaptive)
	p.mu.Unlock()
	if changed {
		p.device.Bus.Publish(EventPowerAdaptiveChange, DeviceEntity, adaptive)
	}
}

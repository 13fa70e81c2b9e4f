// ABOUTME: Persistent per-zone settings: name, enablement, mono, volume limits and EQ
// ABOUTME: Raw EQ band values live in 90..110 with a -10dB..+10dB view
package vssl

import (
	"fmt"
	"sync"
)

// ZoneSettings holds the zone's persistent configuration.
type ZoneSettings struct {
	zone *Zone

	mu       sync.Mutex
	name     string
	disabled bool
	mono     bool

	Volume      *VolumeSettings
	EQ          *EQSettings
	AnalogInput *AnalogInput
}

func newZoneSettings(z *Zone) *ZoneSettings {
	return &ZoneSettings{
		zone:        z,
		name:        fmt.Sprintf("Zone %d", z.id),
		Volume:      newVolumeSettings(z),
		EQ:          newEQSettings(z),
		AnalogInput: newAnalogInput(z),
	}
}

// Name returns the zone's display name.
func (s *ZoneSettings) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

// SetName renames the zone. The rename goes over Bravo; the name request is
// re-added to the poller until the new name is confirmed.
func (s *ZoneSettings) SetName(name string) {
	s.zone.bravo.requestSetName(name)
	s.zone.poller.append(pollName, s.zone.requestName)
	s.zone.requestName()
}

// Disabled reports whether the zone is disabled.
func (s *ZoneSettings) Disabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disabled
}

// SetDisabled enables or disables the zone.
func (s *ZoneSettings) SetDisabled(disabled bool) {
	s.zone.alpha.requestSetDisabled(disabled)
}

// Mono reports whether the output is summed to mono.
func (s *ZoneSettings) Mono() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mono
}

// SetMono switches the output between stereo and mono.
func (s *ZoneSettings) SetMono(mono bool) {
	s.zone.alpha.requestSetMono(mono)
}

func (s *ZoneSettings) setName(name string) {
	s.mu.Lock()
	changed := change(&s.name, name)
	s.mu.Unlock()
	if changed {
		s.zone.poller.remove(pollName)
		s.zone.publish(EventSettingsNameChange, name)
	}
}

func (s *ZoneSettings) setDisabled(disabled bool) {
	s.mu.Lock()
	changed := change(&s.disabled, disabled)
	s.mu.Unlock()
	if changed {
		s.zone.publish(EventSettingsDisabledChange, disabled)
	}
}

func (s *ZoneSettings) setMono(raw int) {
	mono := raw != 0
	s.mu.Lock()
	changed := change(&s.mono, mono)
	s.mu.Unlock()
	if changed {
		s.zone.publish(EventSettingsMonoChange, mono)
	}
}

// VolumeSettings are the zone's volume limits. default on, when non-zero, is
// the level the zone reverts to at the start of a new audio session.
type VolumeSettings struct {
	zone *Zone

	mu        sync.Mutex
	defaultOn int
	maxLeft   int
	maxRight  int
}

func newVolumeSettings(z *Zone) *VolumeSettings {
	return &VolumeSettings{
		zone:      z,
		defaultOn: 75,
		maxLeft:   75,
		maxRight:  75,
	}
}

func (v *VolumeSettings) DefaultOn() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.defaultOn
}

func (v *VolumeSettings) MaxLeft() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.maxLeft
}

func (v *VolumeSettings) MaxRight() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.maxRight
}

// SetDefaultOn sets the session start volume; zero disables it.
func (v *VolumeSettings) SetDefaultOn(vol int) {
	v.zone.alpha.requestSetDefaultOnVolume(vol)
}

// SetMaxLeft caps the left channel volume.
func (v *VolumeSettings) SetMaxLeft(vol int) {
	v.zone.alpha.requestSetMaxLeftVolume(vol)
}

// SetMaxRight caps the right channel volume.
func (v *VolumeSettings) SetMaxRight(vol int) {
	v.zone.alpha.requestSetMaxRightVolume(vol)
}

func (v *VolumeSettings) setDefaultOn(vol int) {
	vol = clampVolume(vol)
	v.mu.Lock()
	changed := change(&v.defaultOn, vol)
	v.mu.Unlock()
	if changed {
		v.zone.publish(EventVolumeDefaultOnChange, vol)
	}
}

func (v *VolumeSettings) setMaxLeft(vol int) {
	vol = clampVolume(vol)
	v.mu.Lock()
	changed := change(&v.maxLeft, vol)
	v.mu.Unlock()
	if changed {
		v.zone.publish(EventVolumeMaxLeftChange, vol)
	}
}

func (v *VolumeSettings) setMaxRight(vol int) {
	vol = clampVolume(vol)
	v.mu.Lock()
	changed := change(&v.maxRight, vol)
	v.mu.Unlock()
	if changed {
		v.zone.publish(EventVolumeMaxRightChange, vol)
	}
}

// EQBandValue is the payload of EventEQBandChange.
type EQBandValue struct {
	Band  EQBand
	Value int
}

// EQSettings is the seven band equalizer. Band values are stored raw; use the
// DB variants to work in decibels.
type EQSettings struct {
	zone *Zone

	mu      sync.Mutex
	enabled bool
	bands   [EQKHz15 + 1]int
}

func newEQSettings(z *Zone) *EQSettings {
	eq := &EQSettings{zone: z}
	for b := EQHz60; b <= EQKHz15; b++ {
		eq.bands[b] = 100
	}
	return eq
}

// Enabled reports whether the EQ is applied.
func (e *EQSettings) Enabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enabled
}

// SetEnabled switches the EQ on or off.
func (e *EQSettings) SetEnabled(enabled bool) {
	e.zone.alpha.requestSetEQEnabled(enabled)
}

// Band returns the raw value of one band.
func (e *EQSettings) Band(band EQBand) int {
	if !band.Valid() {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bands[band]
}

// BandDB returns one band in decibels.
func (e *EQSettings) BandDB(band EQBand) int {
	return EQValueToDB(e.Band(band))
}

// SetBand sets one band to a raw value, clamped to 90..110.
func (e *EQSettings) SetBand(band EQBand, value int) error {
	if !band.Valid() {
		return fmt.Errorf("eq band %d does not exist", band)
	}
	e.zone.alpha.requestSetEQ(band, clampEQ(value))
	return nil
}

// SetBandDB sets one band in decibels, clamped to -10..+10.
func (e *EQSettings) SetBandDB(band EQBand, db int) error {
	return e.SetBand(band, EQDBToValue(db))
}

func (e *EQSettings) setEnabled(enabled bool) {
	e.mu.Lock()
	changed := change(&e.enabled, enabled)
	e.mu.Unlock()
	if changed {
		e.zone.publish(EventEQEnabledChange, enabled)
	}
}

func (e *EQSettings) setBand(raw int, value int) {
	band := EQBand(raw)
	if !band.Valid() {
		return
	}
	value = clampEQ(value)
	e.mu.Lock()
	changed := change(&e.bands[band], value)
	e.mu.Unlock()
	if changed {
		e.zone.publish(EventEQBandChange, EQBandValue{Band: band, Value: value})
	}
}

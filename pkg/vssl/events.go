// ABOUTME: Event names published on the device bus
// ABOUTME: Zone events carry the zone id as the bus entity, device events use DeviceEntity
package vssl

// DeviceEntity is the bus entity for device-scoped events. Zone events use
// the zone id.
const DeviceEntity = 0

// Zone lifecycle and state events.
const (
	EventZoneInitialised    = "zone.initialised"
	EventZoneIDReceived     = "zone.id_received"
	EventZoneSerialReceived = "zone.serial_received"

	EventVolumeChange = "zone.volume_change"
	EventMuteChange   = "zone.mute_change"

	EventTransportStateChange   = "zone.transport.state_change"
	EventTransportRepeatChange  = "zone.transport.repeat_change"
	EventTransportShuffleChange = "zone.transport.shuffle_change"
	EventTransportNextChange    = "zone.transport.has_next_change"
	EventTransportPrevChange    = "zone.transport.has_prev_change"

	EventTrackChange         = "zone.track.change"
	EventTrackTitleChange    = "zone.track.title_change"
	EventTrackAlbumChange    = "zone.track.album_change"
	EventTrackArtistChange   = "zone.track.artist_change"
	EventTrackGenreChange    = "zone.track.genre_change"
	EventTrackDurationChange = "zone.track.duration_change"
	EventTrackProgressChange = "zone.track.progress_change"
	EventTrackCoverArtChange = "zone.track.cover_art_change"
	EventTrackURLChange      = "zone.track.url_change"
	EventTrackSourceChange   = "zone.track.source_change"

	EventGroupIndexChange    = "zone.group.index_change"
	EventGroupSourceChange   = "zone.group.source_change"
	EventGroupIsMasterChange = "zone.group.is_master_change"

	EventInputSourceChange   = "zone.input.source_change"
	EventInputPriorityChange = "zone.input.priority_change"

	EventAnalogOutputSourceChange = "zone.analog_output.source_change"
	EventAnalogOutputFixedChange  = "zone.analog_output.fixed_volume_change"

	EventAnalogInputNameChange = "zone.analog_input.name_change"
	EventAnalogInputGainChange = "zone.analog_input.gain_change"

	EventSettingsNameChange     = "zone.settings.name_change"
	EventSettingsDisabledChange = "zone.settings.disabled_change"
	EventSettingsMonoChange     = "zone.settings.mono_change"
	EventSettingsMACChange      = "zone.settings.mac_change"

	EventVolumeDefaultOnChange = "zone.settings.volume.default_on_change"
	EventVolumeMaxLeftChange   = "zone.settings.volume.max_left_change"
	EventVolumeMaxRightChange  = "zone.settings.volume.max_right_change"

	EventEQEnabledChange = "zone.settings.eq.enabled_change"
	EventEQBandChange    = "zone.settings.eq.band_change"
)

// Device-scoped events.
const (
	EventDeviceInitialised       = "device.initialised"
	EventDeviceModelZoneQty      = "device.model_zone_qty_received"
	EventDeviceNameChange        = "device.settings.name_change"
	EventDeviceOpticalNameChange = "device.settings.optical_input_name_change"
	EventDeviceSWVersionChange   = "device.sw_version_change"
	EventDeviceSerialChange      = "device.serial_change"

	EventPowerStateChange    = "device.settings.power.state_change"
	EventPowerAdaptiveChange = "device.settings.power.adaptive_change"
)

// ABOUTME: Wire-defined enums shared across the VSSL control protocols
// ABOUTME: Values are fixed by the device firmware and must not be renumbered
package vssl

// ZoneID addresses one amplifier zone. Devices host 1, 3 or 6 zones.
type ZoneID int

const (
	Zone1 ZoneID = 1
	Zone2 ZoneID = 2
	Zone3 ZoneID = 3
	Zone4 ZoneID = 4
	Zone5 ZoneID = 5
	Zone6 ZoneID = 6
)

// Valid reports whether the id is in the addressable range.
func (z ZoneID) Valid() bool {
	return z >= Zone1 && z <= Zone6
}

// TransportState is the playback state of a zone.
type TransportState int

const (
	TransportStop  TransportState = 0
	TransportPlay  TransportState = 1
	TransportPause TransportState = 2
)

func (s TransportState) Valid() bool {
	return s >= TransportStop && s <= TransportPause
}

func (s TransportState) String() string {
	switch s {
	case TransportStop:
		return "stop"
	case TransportPlay:
		return "play"
	case TransportPause:
		return "pause"
	}
	return "unknown"
}

// InputPriority selects whether a stream or the local analog input wins when
// both are active.
type InputPriority int

const (
	PriorityStream InputPriority = 0
	PriorityLocal  InputPriority = 1
)

func (p InputPriority) Valid() bool {
	return p == PriorityStream || p == PriorityLocal
}

// InputSource routes a zone's input.
type InputSource int

const (
	SourceStream    InputSource = 0
	SourceBusIn1    InputSource = 1
	SourceBusIn2    InputSource = 2
	SourceAnalogIn1 InputSource = 3
	SourceAnalogIn2 InputSource = 4
	SourceAnalogIn3 InputSource = 5
	SourceAnalogIn4 InputSource = 6
	SourceAnalogIn5 InputSource = 7
	SourceAnalogIn6 InputSource = 8
	SourceOpticalIn InputSource = 16
)

func (s InputSource) Valid() bool {
	return (s >= SourceStream && s <= SourceAnalogIn6) || s == SourceOpticalIn
}

// AnalogOutputSource routes one of the analog outputs.
type AnalogOutputSource int

const (
	OutputOff     AnalogOutputSource = 0
	OutputBusIn1  AnalogOutputSource = 1
	OutputBusIn2  AnalogOutputSource = 2
	OutputZone1   AnalogOutputSource = 3
	OutputZone2   AnalogOutputSource = 4
	OutputZone3   AnalogOutputSource = 5
	OutputZone4   AnalogOutputSource = 6
	OutputZone5   AnalogOutputSource = 7
	OutputZone6   AnalogOutputSource = 8
	OutputOptical AnalogOutputSource = 16
)

func (s AnalogOutputSource) Valid() bool {
	return (s >= OutputOff && s <= OutputZone6) || s == OutputOptical
}

// StreamSource identifies what is feeding a zone's stream input.
type StreamSource int

const (
	StreamNone        StreamSource = 0
	StreamAirPlay     StreamSource = 1
	StreamSpotify     StreamSource = 4
	StreamTuneIn      StreamSource = 9
	StreamAnalogIn    StreamSource = 15
	StreamAppleDevice StreamSource = 16
	StreamDirectURL   StreamSource = 17
	StreamBluetooth   StreamSource = 19
	StreamTidal       StreamSource = 22
	StreamGoogleCast  StreamSource = 24
	StreamExternal    StreamSource = 25
)

func (s StreamSource) Valid() bool {
	switch s {
	case StreamNone, StreamAirPlay, StreamSpotify, StreamTuneIn, StreamAnalogIn,
		StreamAppleDevice, StreamDirectURL, StreamBluetooth, StreamTidal,
		StreamGoogleCast, StreamExternal:
		return true
	}
	return false
}

func (s StreamSource) String() string {
	switch s {
	case StreamNone:
		return "none"
	case StreamAirPlay:
		return "AirPlay"
	case StreamSpotify:
		return "Spotify"
	case StreamTuneIn:
		return "TuneIn"
	case StreamAnalogIn:
		return "analog in"
	case StreamAppleDevice:
		return "Apple device"
	case StreamDirectURL:
		return "direct URL"
	case StreamBluetooth:
		return "Bluetooth"
	case StreamTidal:
		return "Tidal"
	case StreamGoogleCast:
		return "Google Cast"
	case StreamExternal:
		return "external"
	}
	return "unknown"
}

// RepeatMode is the track repeat setting.
type RepeatMode int

const (
	RepeatOff RepeatMode = 0
	RepeatOne RepeatMode = 1
	RepeatAll RepeatMode = 2
)

func (m RepeatMode) Valid() bool {
	return m >= RepeatOff && m <= RepeatAll
}

// PowerState is the device-level power state.
type PowerState int

const (
	PowerOn      PowerState = 0
	PowerStandby PowerState = 1
	PowerSleep   PowerState = 2
)

func (s PowerState) Valid() bool {
	return s >= PowerOn && s <= PowerSleep
}

// EQBand identifies one of the seven EQ frequency bands.
type EQBand int

const (
	EQHz60  EQBand = 1
	EQHz200 EQBand = 2
	EQHz500 EQBand = 3
	EQKHz1  EQBand = 4
	EQKHz4  EQBand = 5
	EQKHz8  EQBand = 6
	EQKHz15 EQBand = 7
)

func (b EQBand) Valid() bool {
	return b >= EQHz60 && b <= EQKHz15
}

func (b EQBand) String() string {
	switch b {
	case EQHz60:
		return "60Hz"
	case EQHz200:
		return "200Hz"
	case EQHz500:
		return "500Hz"
	case EQKHz1:
		return "1kHz"
	case EQKHz4:
		return "4kHz"
	case EQKHz8:
		return "8kHz"
	case EQKHz15:
		return "15kHz"
	}
	return "unknown"
}

// clampVolume bounds a volume or gain value to what the device accepts.
func clampVolume(vol int) int {
	if vol < 0 {
		return 0
	}
	if vol > 100 {
		return 100
	}
	return vol
}

// clampEQ bounds a raw EQ band value.
func clampEQ(value int) int {
	if value < 90 {
		return 90
	}
	if value > 110 {
		return 110
	}
	return value
}

// EQValueToDB maps a raw band value (90..110) to its decibel view (-10..+10).
func EQValueToDB(value int) int {
	return ((clampEQ(value)-90)*20)/20 - 10
}

// EQDBToValue maps a decibel value (-10..+10) back to the raw range, rounding
// to the nearest integer and re-clamping.
func EQDBToValue(db int) int {
	return clampEQ(((db+10)*20+10)/20 + 90)
}

// change writes next into field and reports whether the stored value actually
// changed. It is the shared dedup step behind every state setter: callers
// publish their change event only when it returns true.
func change[T comparable](field *T, next T) bool {
	if *field == next {
		return false
	}
	*field = next
	return true
}

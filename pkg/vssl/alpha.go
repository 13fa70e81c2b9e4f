// ABOUTME: Alpha protocol framer: 3 byte header [lead, opcode, length] then payload
// ABOUTME: Carries most control traffic; status replies are JSON keyed with short names
package vssl

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/vsslctrl/vsslctrl/pkg/api"
)

// Request lead byte and the status sub-actions selectable on opcode 0x00.
const (
	alphaLead byte = 0x10

	statusDevice   byte = 0x00
	statusZone     byte = 0x08
	statusEQ       byte = 0x09
	statusOutput   byte = 0x0A
	statusExtended byte = 0x0B
)

// JSON status keys. These are firmware-defined short names.
const (
	keyDeviceName       = "dev"
	keySWVersion        = "ver"
	keyOpticalInputName = "B2Nm"

	keyZoneID         = "id"
	keySerial         = "mc"
	keyVolume         = "vol"
	keyMute           = "mt"
	keyPartyMode      = "pa"
	keyGroupIndex     = "rm"
	keyTransportState = "ts"
	keyTrackSource    = "as"
	keyDisabled       = "nmd"

	keyMono         = "mono"
	keyAnalogInName = "AiNm"
	keyMaxLeft      = "voll"
	keyMaxRight     = "volr"
	keyDefaultOn    = "vold"

	keyEQEnabled     = "eqsw"
	keyInputSource   = "inSrc"
	keyPriority      = "SP"
	keyGroupMaster   = "GRM"
	keyGroupSource   = "GRS"
	keyPowerState    = "Pwr"
	keyAnalogInGain  = "fxv"
	keyAdaptivePower = "AtPwr"
)

// busSourceKey is the device status key carrying the analog output source for
// a zone. Counting these keys also reveals how many zones the model has.
func busSourceKey(id ZoneID) string {
	return fmt.Sprintf("B%dSrc", id)
}

// aoFixedVolumeKey is the output status key for a zone's fixed volume flag.
func aoFixedVolumeKey(id ZoneID) string {
	return fmt.Sprintf("BF%d", id)
}

// Alpha is the primary protocol session of a zone.
type Alpha struct {
	zone *Zone
	conn *api.Connection
	out  func([]byte)
}

func newAlpha(z *Zone) *Alpha {
	a := &Alpha{zone: z}
	a.conn = api.NewConnection(z.host, AlphaPort, a)
	a.out = a.conn.Send
	return a
}

// Keepalive returns the protocol's fixed keepalive request.
func (a *Alpha) Keepalive() []byte {
	return []byte{alphaLead, 0x17, 0x01, 0x07}
}

// ReadFrame reads the remaining header bytes and the payload of one frame,
// then dispatches it. A one byte payload is a bare command acknowledgement.
func (a *Alpha) ReadFrame(r *bufio.Reader, first byte) error {
	header := make([]byte, 2)
	if _, err := io.ReadFull(r, header); err != nil {
		return err
	}
	opcode, length := header[0], header[1]

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return err
	}

	if length == 1 {
		return nil
	}

	a.dispatch(opcode, payload)
	return nil
}

func (a *Alpha) dispatch(opcode byte, payload []byte) {
	switch opcode {
	case 0x00:
		a.handleStatus(payload)
	case 0x04:
		if len(payload) == 2 {
			a.zone.Input.setSource(int(payload[1]))
		}
	case 0x06:
		a.handleVolume(payload)
	case 0x07:
		if len(payload) == 2 {
			a.zone.Transport.setState(int(payload[1]))
		}
	case 0x0B:
		// Party mode, not supported on the x series.
	case 0x0E:
		if len(payload) == 3 {
			a.zone.Settings.EQ.setBand(int(payload[1]), int(payload[2]))
		}
	case 0x10:
		if len(payload) == 2 {
			a.zone.Settings.setMono(int(payload[1]))
		}
	case 0x12:
		if len(payload) == 2 {
			a.zone.setMute(payload[1] != 0)
		}
	case 0x16:
		a.handleInputName(payload)
	case 0x19:
		if len(payload) > 1 {
			a.zone.device.Settings.setName(strings.TrimSpace(string(payload[1:])))
		}
	case 0x1E:
		if len(payload) == 2 {
			a.zone.AnalogOutput.setSource(int(payload[1]))
		}
	case 0x26:
		if len(payload) == 3 {
			a.zone.Settings.setDisabled(payload[2] != 0)
		}
	case 0x2A:
		if len(payload) == 2 {
			a.zone.Track.setSource(int(payload[1]), false)
		}
	case 0x2E:
		if len(payload) == 2 {
			a.zone.Settings.EQ.setEnabled(payload[1] != 0)
		}
	case 0x32:
		if len(payload) == 2 {
			a.zone.Group.setIndex(int(payload[1]))
		}
	case 0x48:
		if len(payload) == 2 {
			a.zone.Input.setPriority(int(payload[1]))
		}
	case 0x4A:
		if len(payload) == 2 {
			a.zone.AnalogOutput.setFixedVolume(payload[1] != 0)
		}
	case 0x4C:
		a.handleGroupInfo(payload)
	case 0x50:
		if len(payload) == 2 {
			a.zone.device.Settings.Power.setAdaptive(payload[1] != 0)
		}
	default:
		log.Printf("Zone %d: Alpha: unknown opcode %#02x", a.zone.id, opcode)
	}
}

// handleStatus parses a JSON status frame. The first payload byte selects
// which status object follows.
func (a *Alpha) handleStatus(payload []byte) {
	if len(payload) < 2 {
		return
	}
	sub := payload[0]

	var status map[string]string
	if err := json.Unmarshal(payload[1:], &status); err != nil {
		log.Printf("Zone %d: Alpha: bad status JSON: %v", a.zone.id, err)
		return
	}

	switch sub {
	case statusDevice:
		a.handleDeviceStatus(status)
	case statusZone:
		a.handleZoneStatus(status)
	case statusEQ:
		a.handleEQStatus(status)
	case statusOutput:
		a.handleOutputStatus(status)
	case statusExtended:
		// IR masks and bluetooth state, nothing cached from it.
	default:
		log.Printf("Zone %d: Alpha: unknown status sub-action %#02x", a.zone.id, sub)
	}
}

func (a *Alpha) handleDeviceStatus(status map[string]string) {
	device := a.zone.device

	device.inferModelZoneQty(status)

	if raw, ok := statusInt(status, busSourceKey(a.zone.id)); ok {
		a.zone.AnalogOutput.setSource(raw)
	}
	if name, ok := status[keyOpticalInputName]; ok {
		device.Settings.setOpticalInputName(strings.TrimSpace(name))
	}
	if name, ok := status[keyDeviceName]; ok {
		device.Settings.setName(strings.TrimSpace(name))
	}
	if ver, ok := status[keySWVersion]; ok {
		device.setSWVersion(strings.TrimSpace(ver))
	}
}

func (a *Alpha) handleZoneStatus(status map[string]string) {
	z := a.zone

	// Until the zone is initialised the id and serial feed the futures that
	// Initialise waits on. The device serial is adopted before the zone's so
	// the mismatch check has something to compare against.
	if !z.Initialised() {
		if id, ok := statusInt(status, keyZoneID); ok {
			z.receiveID(id)
		}
		if serial, ok := status[keySerial]; ok {
			z.device.adoptSerial(serial)
			z.setSerial(serial)
		}
	}

	if state, ok := statusInt(status, keyTransportState); ok {
		z.Transport.setState(state)
	}
	if vol, ok := statusInt(status, keyVolume); ok {
		z.setVolume(vol)
	}
	if mt, ok := statusInt(status, keyMute); ok {
		z.setMute(mt != 0)
	}
	if index, ok := statusInt(status, keyGroupIndex); ok {
		z.Group.setIndex(index)
	}
	if src, ok := statusInt(status, keyTrackSource); ok {
		z.Track.setSource(src, false)
	}
	if disabled, ok := statusInt(status, keyDisabled); ok {
		z.Settings.setDisabled(disabled != 0)
	}
}

func (a *Alpha) handleEQStatus(status map[string]string) {
	z := a.zone

	if mono, ok := statusInt(status, keyMono); ok {
		z.Settings.setMono(mono)
	}
	if name, ok := status[keyAnalogInName]; ok {
		z.Settings.AnalogInput.setName(strings.TrimSpace(name))
	}
	for band := EQHz60; band <= EQKHz15; band++ {
		if value, ok := statusInt(status, fmt.Sprintf("eq%d", band)); ok {
			z.Settings.EQ.setBand(int(band), value)
		}
	}
	if vol, ok := statusInt(status, keyMaxLeft); ok {
		z.Settings.Volume.setMaxLeft(vol)
	}
	if vol, ok := statusInt(status, keyMaxRight); ok {
		z.Settings.Volume.setMaxRight(vol)
	}
	if vol, ok := statusInt(status, keyDefaultOn); ok {
		z.Settings.Volume.setDefaultOn(vol)
	}
}

func (a *Alpha) handleOutputStatus(status map[string]string) {
	z := a.zone

	if enabled, ok := statusInt(status, keyEQEnabled); ok {
		z.Settings.EQ.setEnabled(enabled != 0)
	}
	if src, ok := statusInt(status, keyInputSource); ok {
		z.Input.setSource(src)
	}
	if priority, ok := statusInt(status, keyPriority); ok {
		z.Input.setPriority(priority)
	}
	if fixed, ok := statusInt(status, aoFixedVolumeKey(z.id)); ok {
		z.AnalogOutput.setFixedVolume(fixed != 0)
	}

	master, haveMaster := statusInt(status, keyGroupMaster)
	source, haveSource := statusInt(status, keyGroupSource)
	if haveMaster && haveSource {
		z.Group.setSource(source)
		z.Group.setIsMaster(master)
	}

	if state, ok := statusInt(status, keyPowerState); ok {
		z.device.Settings.Power.setState(state)
	}
	if gain, ok := statusInt(status, keyAnalogInGain); ok {
		z.Settings.AnalogInput.setFixedGain(gain)
	}
	if adaptive, ok := statusInt(status, keyAdaptivePower); ok {
		z.device.Settings.Power.setAdaptive(adaptive != 0)
	}
}

// handleVolume routes the volume feedback frame by its trailing command byte.
func (a *Alpha) handleVolume(payload []byte) {
	if len(payload) != 3 {
		return
	}
	vol, cmd := int(payload[1]), int(payload[2])
	switch cmd {
	case 0:
		a.zone.Settings.AnalogInput.setFixedGain(vol)
	case 1:
		a.zone.Settings.Volume.setMaxLeft(vol)
	case 2:
		a.zone.Settings.Volume.setMaxRight(vol)
	case 3:
		a.zone.setVolume(vol)
	case 8:
		a.zone.Settings.Volume.setDefaultOn(vol)
	}
}

// handleInputName routes a rename feedback frame. Input id 12 is the shared
// optical input; otherwise the name belongs to this zone's analog input.
func (a *Alpha) handleInputName(payload []byte) {
	if len(payload) < 2 {
		return
	}
	inputID := int(payload[0])
	name := strings.TrimSpace(string(payload[1:]))

	switch inputID {
	case int(a.zone.id):
		a.zone.Settings.AnalogInput.setName(name)
	case 12:
		a.zone.device.Settings.setOpticalInputName(name)
	}
}

// handleGroupInfo applies a group feedback frame: [zone, isMaster, source].
func (a *Alpha) handleGroupInfo(payload []byte) {
	if len(payload) != 3 {
		return
	}
	if int(payload[0]) != int(a.zone.id) {
		log.Printf("Zone %d: Alpha: group info for zone %d ignored", a.zone.id, payload[0])
		return
	}
	a.zone.Group.setSource(int(payload[2]))
	a.zone.Group.setIsMaster(int(payload[1]))
}

func statusInt(status map[string]string, key string) (int, bool) {
	raw, ok := status[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Requests. Commands are [lead, opcode, length, data...]; most carry the zone
// id as the first data byte.

func (a *Alpha) send(data []byte) { a.out(data) }

func (a *Alpha) zoneByte() byte { return byte(a.zone.id) }

func (a *Alpha) requestDeviceStatus() {
	a.send([]byte{alphaLead, 0x00, 0x01, statusDevice})
}

func (a *Alpha) requestZoneStatus() {
	a.send([]byte{alphaLead, 0x00, 0x01, statusZone})
}

func (a *Alpha) requestEQStatus() {
	a.send([]byte{alphaLead, 0x00, 0x01, statusEQ})
}

func (a *Alpha) requestOutputStatus() {
	a.send([]byte{alphaLead, 0x00, 0x01, statusOutput})
}

func (a *Alpha) requestExtendedStatus() {
	a.send([]byte{alphaLead, 0x00, 0x01, statusExtended})
}

func (a *Alpha) requestSetInputSource(src InputSource) {
	a.send([]byte{alphaLead, 0x03, 0x02, a.zoneByte(), byte(src)})
}

func (a *Alpha) requestInputSource() {
	a.send([]byte{alphaLead, 0x04, 0x01, a.zoneByte()})
}

// Volume commands share opcode 0x05; the trailing byte selects which volume.
const (
	volCmdAnalogGain byte = 0
	volCmdMaxLeft    byte = 1
	volCmdMaxRight   byte = 2
	volCmdLevel      byte = 3
	volCmdDefaultOn  byte = 8

	volRaise byte = 0xFF
	volLower byte = 0xFE
)

func (a *Alpha) requestSetVolume(vol int) {
	a.send([]byte{alphaLead, 0x05, 0x03, a.zoneByte(), byte(clampVolume(vol)), volCmdLevel})
}

func (a *Alpha) requestVolumeRaise() {
	a.send([]byte{alphaLead, 0x05, 0x03, a.zoneByte(), volRaise, volCmdLevel})
}

func (a *Alpha) requestVolumeLower() {
	a.send([]byte{alphaLead, 0x05, 0x03, a.zoneByte(), volLower, volCmdLevel})
}

func (a *Alpha) requestSetDefaultOnVolume(vol int) {
	a.send([]byte{alphaLead, 0x05, 0x03, a.zoneByte(), byte(clampVolume(vol)), volCmdDefaultOn})
}

func (a *Alpha) requestSetAnalogInputGain(gain int) {
	a.send([]byte{alphaLead, 0x05, 0x03, a.zoneByte(), byte(clampVolume(gain)), volCmdAnalogGain})
}

func (a *Alpha) requestSetMaxLeftVolume(vol int) {
	a.send([]byte{alphaLead, 0x05, 0x03, a.zoneByte(), byte(clampVolume(vol)), volCmdMaxLeft})
}

func (a *Alpha) requestSetMaxRightVolume(vol int) {
	a.send([]byte{alphaLead, 0x05, 0x03, a.zoneByte(), byte(clampVolume(vol)), volCmdMaxRight})
}

func (a *Alpha) requestTransportStatus() {
	a.send([]byte{alphaLead, 0x07, 0x01, 0x00})
}

func (a *Alpha) requestSetEQ(band EQBand, value int) {
	a.send([]byte{alphaLead, 0x0D, 0x03, a.zoneByte(), byte(band), byte(clampEQ(value))})
}

func (a *Alpha) requestSetMono(mono bool) {
	a.send([]byte{alphaLead, 0x0F, 0x02, a.zoneByte(), boolByte(mono)})
}

func (a *Alpha) requestSetMute(muted bool) {
	a.send([]byte{alphaLead, 0x11, 0x02, a.zoneByte(), boolByte(muted)})
}

func (a *Alpha) requestMuteStatus() {
	a.send([]byte{alphaLead, 0x12, 0x01, a.zoneByte()})
}

func (a *Alpha) requestSetAnalogInputName(name string) {
	a.sendNamed(0x15, a.zoneByte(), name)
}

func (a *Alpha) requestSetOpticalInputName(name string) {
	a.sendNamed(0x15, 12, name)
}

func (a *Alpha) requestSetDeviceName(name string) {
	a.sendNamed(0x18, 7, name)
}

// sendNamed builds a rename request: [lead, opcode, len(name)+1, target] then
// the name bytes.
func (a *Alpha) sendNamed(opcode byte, target byte, name string) {
	name = strings.TrimSpace(name)
	cmd := []byte{alphaLead, opcode, byte(len(name) + 1), target}
	a.send(append(cmd, []byte(name)...))
}

func (a *Alpha) requestDeviceName() {
	a.send([]byte{alphaLead, 0x19, 0x01, a.zoneByte()})
}

func (a *Alpha) requestSetAnalogOutputSource(src AnalogOutputSource) {
	a.send([]byte{alphaLead, 0x1D, 0x02, a.zoneByte(), byte(src)})
}

func (a *Alpha) requestSetAnalogOutputFixed(fixed bool) {
	a.send([]byte{alphaLead, 0x49, 0x02, a.zoneByte(), boolByte(fixed)})
}

func (a *Alpha) requestSetTransport(state TransportState) {
	var cmd byte
	switch state {
	case TransportPlay:
		cmd = 0
	case TransportStop:
		cmd = 1
	case TransportPause:
		cmd = 2
	default:
		return
	}
	a.send([]byte{alphaLead, 0x3D, 0x02, a.zoneByte(), cmd})
}

func (a *Alpha) requestStreamSource() {
	a.send([]byte{alphaLead, 0x2A, 0x01, a.zoneByte()})
}

func (a *Alpha) requestSetEQEnabled(enabled bool) {
	a.send([]byte{alphaLead, 0x2D, 0x02, a.zoneByte(), boolByte(enabled)})
}

func (a *Alpha) requestReboot() {
	a.send([]byte{alphaLead, 0x33, 0x02, a.zoneByte(), 0x01})
}

func (a *Alpha) requestRebootDevice() {
	a.send([]byte{alphaLead, 0x33, 0x02, 0x00, 0x01})
}

func (a *Alpha) requestSetInputPriority(p InputPriority) {
	a.send([]byte{alphaLead, 0x47, 0x02, a.zoneByte(), byte(p)})
}

func (a *Alpha) requestSetDisabled(disabled bool) {
	a.send([]byte{alphaLead, 0x25, 0x02, a.zoneByte(), boolByte(disabled)})
}

func (a *Alpha) requestGroupAdd(member ZoneID) {
	a.send([]byte{alphaLead, 0x4B, 0x02, a.zoneByte(), byte(member)})
}

func (a *Alpha) requestGroupRemove(member ZoneID) {
	a.send([]byte{alphaLead, 0x4B, 0x02, 0xFF, byte(member)})
}

func (a *Alpha) requestGroupDissolve() {
	a.send([]byte{alphaLead, 0x4B, 0x02, a.zoneByte(), 0xFF})
}

// requestPlayURL asks the device to fetch and play a URL. Sending the current
// volume keeps some firmware revisions from spamming volume feedback for the
// whole playback.
func (a *Alpha) requestPlayURL(url string, allZones bool) {
	payload := "PLAYITEM:DIRECT:" + url
	target := a.zoneByte()
	if allZones {
		target = 0
	}
	cmd := []byte{alphaLead, 0x55, byte(len(payload) + 2), target, byte(a.zone.Volume())}
	a.send(append(cmd, []byte(payload)...))
}

func (a *Alpha) requestSetAdaptivePower(enabled bool) {
	a.send([]byte{alphaLead, 0x4F, 0x02, 0x08, boolByte(enabled)})
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

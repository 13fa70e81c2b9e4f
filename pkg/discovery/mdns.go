// ABOUTME: mDNS discovery of VSSL zones on the local network
// ABOUTME: Browses AirPlay advertisements, filters by manufacturer and probes each zone
package discovery

import (
	"encoding/json"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
)

const (
	// AirPlayService is what VSSL zones advertise themselves as.
	AirPlayService = "_airplay._tcp"

	alphaPort    = 50002
	probeTimeout = 3 * time.Second
)

// zoneStatusRequest asks the primary control port for the zone status JSON,
// which carries the zone id and serial number.
var zoneStatusRequest = []byte{0x10, 0x00, 0x01, 0x08}

// Host is one discovered zone endpoint.
type Host struct {
	Host    string
	Name    string
	Model   string
	MACAddr string
	ZoneID  int
	Serial  string
}

// Device is a set of zones sharing one serial number, i.e. one amplifier.
type Device struct {
	Serial string
	Zones  []Host
}

// Scanner browses the network for VSSL zones. The zero value is not usable;
// use NewScanner.
type Scanner struct {
	timeout time.Duration
	probe   func(host string) (int, string, error)
	query   func(params *mdns.QueryParam) error
}

// NewScanner creates a scanner that browses for the given duration per query.
func NewScanner(timeout time.Duration) *Scanner {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Scanner{
		timeout: timeout,
		probe:   fetchZoneIdentity,
		query:   mdns.Query,
	}
}

// Discover browses for AirPlay services carrying a VSSL manufacturer tag,
// probes each for its zone id and serial, and groups the results per
// amplifier.
func (s *Scanner) Discover() ([]Device, error) {
	entries := make(chan *mdns.ServiceEntry, 32)
	done := make(chan struct{})

	var found []Host
	go func() {
		defer close(done)
		for entry := range entries {
			if host, ok := s.inspect(entry); ok {
				found = append(found, host)
			}
		}
	}()

	params := &mdns.QueryParam{
		Service: AirPlayService,
		Domain:  "local",
		Timeout: s.timeout,
		Entries: entries,
	}
	err := s.query(params)
	close(entries)
	<-done

	if err != nil {
		return nil, fmt.Errorf("mdns query failed: %w", err)
	}

	return groupBySerial(found), nil
}

// inspect filters one advertisement down to a VSSL zone and probes it.
func (s *Scanner) inspect(entry *mdns.ServiceEntry) (Host, bool) {
	fields := txtFields(entry.InfoFields)

	manufacturer := fields["manufacturer"]
	if !strings.HasPrefix(manufacturer, "VSSL") {
		return Host{}, false
	}
	if entry.AddrV4 == nil {
		return Host{}, false
	}

	host := Host{
		Host:    entry.AddrV4.String(),
		Name:    strings.TrimSuffix(entry.Name, "."+AirPlayService+".local."),
		Model:   strings.TrimSpace(strings.TrimPrefix(fields["model"], "VSSL")),
		MACAddr: fields["deviceid"],
	}

	id, serial, err := s.probe(host.Host)
	if err != nil {
		return Host{}, false
	}
	host.ZoneID = id
	host.Serial = serial
	return host, true
}

// fetchZoneIdentity opens the zone's control port and asks for its status.
// The reply is a 4 byte header followed by the status JSON.
func fetchZoneIdentity(host string) (int, string, error) {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, fmt.Sprint(alphaPort)), probeTimeout)
	if err != nil {
		return 0, "", err
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(probeTimeout))
	if _, err := conn.Write(zoneStatusRequest); err != nil {
		return 0, "", err
	}

	buf := make([]byte, 1024)
	n, err := conn.Read(buf)
	if err != nil {
		return 0, "", err
	}
	if n <= 4 {
		return 0, "", fmt.Errorf("short status response from %s", host)
	}

	var status struct {
		ID     string `json:"id"`
		Serial string `json:"mc"`
	}
	if err := json.Unmarshal(buf[4:n], &status); err != nil {
		return 0, "", fmt.Errorf("bad status JSON from %s: %w", host, err)
	}

	var id int
	fmt.Sscanf(status.ID, "%d", &id)
	return id, status.Serial, nil
}

func txtFields(info []string) map[string]string {
	fields := make(map[string]string, len(info))
	for _, kv := range info {
		if key, value, ok := strings.Cut(kv, "="); ok {
			fields[key] = value
		}
	}
	return fields
}

// groupBySerial buckets zones into devices, zones ordered by id.
func groupBySerial(hosts []Host) []Device {
	buckets := make(map[string][]Host)
	for _, h := range hosts {
		buckets[h.Serial] = append(buckets[h.Serial], h)
	}

	devices := make([]Device, 0, len(buckets))
	for serial, zones := range buckets {
		sort.Slice(zones, func(i, j int) bool { return zones[i].ZoneID < zones[j].ZoneID })
		devices = append(devices, Device{Serial: serial, Zones: zones})
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].Serial < devices[j].Serial })
	return devices
}

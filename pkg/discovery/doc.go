// ABOUTME: Zone discovery package
// ABOUTME: Finds VSSL amplifiers on the local network via their AirPlay records
// Package discovery finds VSSL zones on the local network.
//
// Zones advertise themselves as AirPlay endpoints; each discovered endpoint
// is probed for its zone id and serial number so zones can be grouped into
// amplifiers.
//
// Example:
//
//	devices, err := discovery.NewScanner(5 * time.Second).Discover()
//	for _, dev := range devices {
//	    fmt.Printf("Amplifier %s with %d zones\n", dev.Serial, len(dev.Zones))
//	}
package discovery

// ABOUTME: Entry point for the vsslctrl CLI
// ABOUTME: Connects to a VSSL amplifier, drives the zone dashboard and control loop
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vsslctrl/vsslctrl/internal/config"
	"github.com/vsslctrl/vsslctrl/internal/ui"
	"github.com/vsslctrl/vsslctrl/internal/version"
	"github.com/vsslctrl/vsslctrl/pkg/bus"
	"github.com/vsslctrl/vsslctrl/pkg/discovery"
	"github.com/vsslctrl/vsslctrl/pkg/vssl"
)

var (
	configPath  = flag.String("config", "", "YAML config file path")
	hosts       = flag.String("hosts", "", "Comma separated zone IPs, assigned zone ids 1..n (skip discovery)")
	modelName   = flag.String("model", "", "Pin the amplifier model, e.g. A.3x")
	initTimeout = flag.Duration("timeout", 0, "Per-zone initialisation timeout")
	logFile     = flag.String("log-file", "", "Log file path")
	noTUI       = flag.Bool("no-tui", false, "Disable TUI, stream state changes as logs instead")
	showVersion = flag.Bool("version", false, "Print the version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s\n", version.Product, version.Version)
		return
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Config: %v", err)
		}
		cfg = loaded
	}

	// Flags override the file.
	if *modelName != "" {
		cfg.Model = *modelName
	}
	if *initTimeout > 0 {
		cfg.InitTimeout = config.Duration(*initTimeout)
	}
	if *logFile != "" {
		cfg.LogFile = *logFile
	}
	if *noTUI {
		cfg.NoTUI = true
	}
	if *hosts != "" {
		cfg.Zones = make(map[int]string)
		for i, host := range strings.Split(*hosts, ",") {
			cfg.Zones[i+1] = strings.TrimSpace(host)
		}
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Config: %v", err)
	}

	f, err := os.OpenFile(cfg.LogFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	useTUI := !cfg.NoTUI
	if useTUI {
		// TUI mode owns the terminal; log only to file.
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	log.Printf("Starting %s %s", version.Product, version.Version)

	zones := cfg.Zones
	if len(zones) == 0 {
		zones, err = discoverZones(cfg.DiscoveryTimeout.Std())
		if err != nil {
			log.Fatalf("Discovery: %v", err)
		}
	}

	device := vssl.NewDeviceWithModel(cfg.ZoneModel())
	for _, id := range sortedZoneIDs(zones) {
		if _, err := device.AddZone(vssl.ZoneID(id), zones[id]); err != nil {
			log.Fatalf("Zone %d: %v", id, err)
		}
	}

	if !useTUI {
		logStateChanges(device)
	}

	if err := device.Initialise(cfg.InitTimeout.Std()); err != nil {
		log.Fatalf("Initialise: %v", err)
	}
	log.Printf("Device %q (%s) up with %d zones", device.Name(), device.Model(), len(device.Zones()))

	var tuiProg *tea.Program
	var controls *ui.Controls
	if useTUI {
		controls = ui.NewControls()
		tuiProg, err = ui.Run(controls)
		if err != nil {
			log.Fatalf("Failed to start TUI: %v", err)
		}
		go func() {
			if _, err := tuiProg.Run(); err != nil {
				log.Printf("TUI error: %v", err)
			}
		}()
		go controlLoop(device, controls)
		go statusLoop(device, tuiProg)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if controls != nil {
		select {
		case <-controls.Quit:
			log.Printf("Quit from TUI")
		case <-sigChan:
			log.Printf("Shutdown signal received")
		}
		tuiProg.Quit()
	} else {
		<-sigChan
		log.Printf("Shutdown signal received")
	}

	device.Shutdown()
	log.Printf("Stopped")
}

// discoverZones browses the network and uses the first amplifier found.
func discoverZones(timeout time.Duration) (map[int]string, error) {
	log.Printf("Browsing for amplifiers...")
	devices, err := discovery.NewScanner(timeout).Discover()
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("no amplifiers found in %s", timeout)
	}

	found := devices[0]
	log.Printf("Found amplifier %s with %d zones", found.Serial, len(found.Zones))

	zones := make(map[int]string, len(found.Zones))
	for _, z := range found.Zones {
		zones[z.ZoneID] = z.Host
	}
	return zones, nil
}

func sortedZoneIDs(zones map[int]string) []int {
	ids := make([]int, 0, len(zones))
	for id := range zones {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// logStateChanges streams every bus event to the log, for -no-tui runs.
func logStateChanges(device *vssl.Device) {
	device.Bus.Subscribe(bus.All, func(ev bus.Event) {
		log.Printf("event %s zone=%d data=%v", ev.Name, ev.Entity, ev.Data)
	}, bus.Wildcard, false)
}

// controlLoop applies TUI key commands to the device.
func controlLoop(device *vssl.Device, controls *ui.Controls) {
	for cmd := range controls.Commands {
		zone := device.Zone(vssl.ZoneID(cmd.ZoneID))
		if zone == nil {
			continue
		}
		switch cmd.Action {
		case ui.ActionVolumeUp:
			zone.VolumeRaise(5)
		case ui.ActionVolumeDown:
			zone.VolumeLower(5)
		case ui.ActionMuteToggle:
			zone.MuteToggle()
		case ui.ActionPlayPause:
			if zone.Transport.IsPlaying() {
				zone.Pause()
			} else {
				zone.Play()
			}
		case ui.ActionStop:
			zone.Stop()
		case ui.ActionNext:
			zone.Next()
		case ui.ActionPrev:
			zone.Prev()
		}
	}
}

// statusLoop periodically snapshots the device state into the TUI.
func statusLoop(device *vssl.Device, prog *tea.Program) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		prog.Send(snapshot(device))
	}
}

func snapshot(device *vssl.Device) ui.StatusMsg {
	msg := ui.StatusMsg{
		DeviceName: device.Name(),
		Model:      device.Model().String(),
		Serial:     device.Serial(),
		SWVersion:  device.SWVersion(),
	}

	for _, z := range device.Zones() {
		status := ui.ZoneStatus{
			ID:     int(z.ID()),
			Name:   z.Settings.Name(),
			Volume: z.Volume(),
			Muted:  z.Mute(),
			State:  z.Transport.State().String(),
		}
		if src := z.Track.Source(); src != vssl.StreamNone {
			status.Source = src.String()
		}
		if z.Transport.IsPlaying() || z.Transport.IsPaused() {
			status.Title = z.Track.Title()
			status.Artist = z.Track.Artist()
			status.Album = z.Track.Album()
			status.Progress = z.Track.ProgressDisplay()
		}
		if z.Group.IsMaster() {
			status.Group = "group master"
		} else if src := z.Group.Source(); src != 0 {
			status.Group = fmt.Sprintf("grouped with zone %d", src)
		}
		msg.Zones = append(msg.Zones, status)
	}

	return msg
}

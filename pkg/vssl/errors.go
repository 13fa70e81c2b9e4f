// ABOUTME: Sentinel errors for zone and device management
package vssl

import "errors"

var (
	ErrInvalidZoneID  = errors.New("zone id does not exist")
	ErrZoneExists     = errors.New("zone already added")
	ErrHostExists     = errors.New("host already added")
	ErrNoZones        = errors.New("no zones added")
	ErrZoneCapacity   = errors.New("device has fewer zones than were added")
	ErrZoneIDMismatch = errors.New("zone id mismatch")
	ErrSerialMismatch = errors.New("serial number mismatch")
)

// ABOUTME: Zone grouping state and commands
// ABOUTME: A master feeds its stream to member zones; members mirror its track metadata
package vssl

import (
	"fmt"
	"sync"
)

// groupSourceNone is the wire value for "not in a group".
const groupSourceNone = 255

// Group is a zone's view of device grouping. A group has one master zone and
// any number of members following its stream. The group index is assigned by
// the device when a zone starts a stream; members adopt the master's index.
type Group struct {
	zone *Zone

	mu       sync.Mutex
	index    int
	source   ZoneID // master feeding this zone, 0 when not a member
	isMaster bool
}

func newGroup(z *Zone) *Group {
	return &Group{zone: z}
}

// IndexID is the group index this zone hands out when it masters a group.
func (g *Group) IndexID() int {
	return int(g.zone.id) + 8
}

// Index is the group index currently assigned by the device, zero when idle.
func (g *Group) Index() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.index
}

// Source returns the master zone feeding this zone, or zero when this zone is
// not a group member.
func (g *Group) Source() ZoneID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.source
}

// IsMember reports whether this zone is following another zone's stream.
func (g *Group) IsMember() bool {
	return g.Source() != 0
}

// IsMaster reports whether this zone is feeding a group.
func (g *Group) IsMaster() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.isMaster
}

// Members returns the zones following this zone, empty unless master.
func (g *Group) Members() []*Zone {
	if !g.IsMaster() {
		return nil
	}
	index := g.Index()
	var members []*Zone
	for _, z := range g.zone.device.Zones() {
		if z.Group.Index() == index && z.Group.IsMember() {
			members = append(members, z)
		}
	}
	return members
}

// AddMember makes the given zone follow this zone's stream. This zone must be
// playing something to master a group.
func (g *Group) AddMember(member ZoneID) error {
	if member == g.zone.id {
		return fmt.Errorf("zone %d cannot be both master and member", member)
	}
	if !member.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidZoneID, member)
	}
	if g.IsMember() {
		return fmt.Errorf("zone %d is already a member of zone %d's group", g.zone.id, g.Source())
	}
	if g.zone.Transport.IsStopped() {
		return fmt.Errorf("zone %d cannot master a group while stopped", g.zone.id)
	}
	g.zone.alpha.requestGroupAdd(member)
	return nil
}

// RemoveMember drops the given zone from this zone's group.
func (g *Group) RemoveMember(member ZoneID) {
	g.zone.alpha.requestGroupRemove(member)
}

// Dissolve releases every member of this zone's group.
func (g *Group) Dissolve() {
	g.zone.alpha.requestGroupDissolve()
}

// Leave removes this zone from whatever group it is a member of.
func (g *Group) Leave() {
	g.zone.alpha.requestGroupRemove(g.zone.id)
}

func (g *Group) setIndex(index int) {
	g.mu.Lock()
	changed := change(&g.index, index)
	g.mu.Unlock()
	if changed {
		g.zone.publish(EventGroupIndexChange, index)
	}
}

// setSource applies the wire group source. 255 and invalid ids mean no
// membership.
func (g *Group) setSource(raw int) {
	source := ZoneID(raw)
	if raw == groupSourceNone || !source.Valid() {
		source = 0
	}
	g.mu.Lock()
	changed := change(&g.source, source)
	g.mu.Unlock()
	if changed {
		g.zone.publish(EventGroupSourceChange, source)
	}
}

func (g *Group) setIsMaster(raw int) {
	master := raw != 0
	g.mu.Lock()
	changed := change(&g.isMaster, master)
	g.mu.Unlock()
	if changed {
		g.zone.publish(EventGroupIsMasterChange, master)
	}
}

// ABOUTME: Tests for zone grouping state and membership commands
package vssl

import (
	"errors"
	"fmt"
	"testing"
)

func TestGroupIndexID(t *testing.T) {
	d := newTestDevice(t)
	for id := Zone1; id <= Zone3; id++ {
		z, err := d.AddZone(id, fmt.Sprintf("192.0.2.%d", id))
		if err != nil {
			t.Fatal(err)
		}
		if got := z.Group.IndexID(); got != int(id)+8 {
			t.Errorf("zone %d index id = %d, want %d", id, got, int(id)+8)
		}
	}
}

func TestGroupSourceNone(t *testing.T) {
	z := newTestZone(t)

	z.Group.setSource(2)
	if !z.Group.IsMember() {
		t.Fatal("zone should be a member")
	}

	z.Group.setSource(groupSourceNone)
	if z.Group.IsMember() {
		t.Error("wire value 255 should clear membership")
	}
	if got := z.Group.Source(); got != 0 {
		t.Errorf("source = %d, want 0", got)
	}

	z.Group.setSource(42)
	if z.Group.IsMember() {
		t.Error("invalid zone id should clear membership")
	}
}

func TestGroupAddMemberValidation(t *testing.T) {
	z := newTestZone(t)
	rec := recordAlpha(z)

	if err := z.Group.AddMember(Zone1); err == nil {
		t.Error("adding itself should fail")
	}
	if err := z.Group.AddMember(ZoneID(9)); !errors.Is(err, ErrInvalidZoneID) {
		t.Errorf("invalid member error = %v", err)
	}
	if err := z.Group.AddMember(Zone2); err == nil {
		t.Error("a stopped zone cannot master a group")
	}

	z.Transport.setState(int(TransportPlay))
	z.Group.setSource(3)
	if err := z.Group.AddMember(Zone2); err == nil {
		t.Error("a member cannot master its own group")
	}

	if rec.count() != 0 {
		t.Fatalf("rejected AddMember sent %d frames", rec.count())
	}

	z.Group.setSource(groupSourceNone)
	if err := z.Group.AddMember(Zone2); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	bytesEqual(t, rec.last(t), []byte{0x10, 0x4B, 0x02, 0x01, 0x02})
}

func TestGroupStopWhileMemberLeaves(t *testing.T) {
	z := newTestZone(t)
	z.Group.setSource(2)
	rec := recordAlpha(z)

	z.Stop()

	if rec.count() != 2 {
		t.Fatalf("sent %d frames, want stop + leave", rec.count())
	}
	bytesEqual(t, rec.frame(t, 0), []byte{0x10, 0x3D, 0x02, 0x01, 1})
	bytesEqual(t, rec.frame(t, 1), []byte{0x10, 0x4B, 0x02, 0xFF, 1})
}

func TestGroupMembers(t *testing.T) {
	d := newTestDevice(t)
	master, _ := d.AddZone(Zone1, "192.0.2.10")
	m1, _ := d.AddZone(Zone2, "192.0.2.11")
	m2, _ := d.AddZone(Zone3, "192.0.2.12")
	idle, _ := d.AddZone(Zone4, "192.0.2.13")

	index := master.Group.IndexID()
	master.Group.setIndex(index)
	master.Group.setIsMaster(1)
	for _, m := range []*Zone{m1, m2} {
		m.Group.setIndex(index)
		m.Group.setSource(1)
	}

	members := master.Group.Members()
	if len(members) != 2 {
		t.Fatalf("got %d members, want 2", len(members))
	}
	if members[0] != m1 || members[1] != m2 {
		t.Errorf("members = %v", members)
	}

	if got := idle.Group.Members(); got != nil {
		t.Errorf("idle zone members = %v", got)
	}

	if got := d.ZonesByGroupIndex(index); len(got) != 3 {
		t.Errorf("zones by group index = %d, want 3", len(got))
	}
}

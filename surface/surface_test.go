package surface

import "testing"

func TestAssignRoleOnce(t *testing.T) {
	s := New(1, 0)
	if err := s.AssignRole(RoleToplevel); err != nil {
		t.Fatalf("first role assignment failed: %v", err)
	}
	if err := s.AssignRole(RolePopup); err == nil {
		t.Fatal("expected second role assignment to fail")
	}
}

func TestCommitDerivesSizeAndClampsDamage(t *testing.T) {
	s := New(1, 0)
	s.Attach(7, 200, 100, 0, 0)
	s.SetBufferScale(2)
	s.Damage(Region{X: -10, Y: -10, W: 1000, H: 1000})

	s.Commit()

	if s.Current.BufferWidth != 100 || s.Current.BufferHeight != 50 {
		t.Fatalf("derived size = %dx%d, want 100x50", s.Current.BufferWidth, s.Current.BufferHeight)
	}
	regions := s.Current.Damage.Regions()
	if len(regions) != 1 {
		t.Fatalf("expected one clamped damage region, got %v", regions)
	}
	want := Region{X: 0, Y: 0, W: 100, H: 50}
	if regions[0] != want {
		t.Errorf("clamped damage = %+v, want %+v", regions[0], want)
	}
}

func TestCommitReleasesReplacedBuffer(t *testing.T) {
	s := New(1, 0)
	s.Attach(7, 10, 10, 0, 0)
	s.Commit()

	s.Attach(8, 10, 10, 0, 0)
	result := s.Commit()

	if result.ReleasedBufferID != 7 {
		t.Errorf("released buffer id = %d, want 7", result.ReleasedBufferID)
	}
}

func TestSyncSubsurfaceCommitIsolatedUntilParentCommits(t *testing.T) {
	parent := New(1, 0)
	child := New(2, 0)
	if err := child.AssignRole(RoleSubsurface); err != nil {
		t.Fatal(err)
	}
	child.ParentID = parent.ID
	parent.Children = []uint32{child.ID}
	child.Sync = true // wl_subsurface.set_sync

	child.SetBufferScale(2)
	child.Attach(5, 20, 20, 0, 0)
	child.Commit() // sync: goes to cached, not current

	if child.Current.Scale != 0 && child.Current.Scale != 1 {
		// zero value Scale means untouched; New() leaves Current.Scale == 1
	}
	if child.Current.Scale == 2 {
		t.Fatal("sync child's current state changed before parent commit")
	}

	lookup := map[uint32]*Surface{child.ID: child}
	child.CommitFromParent(func(id uint32) *Surface { return lookup[id] })

	if child.Current.Scale != 2 {
		t.Errorf("after parent commit, child.Current.Scale = %d, want 2", child.Current.Scale)
	}
}

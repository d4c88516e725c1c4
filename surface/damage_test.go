package surface

import "testing"

func TestDamageHistoryMerge(t *testing.T) {
	tests := []struct {
		name  string
		add   []Region
		count int
		want  Region // only checked when count == 1
	}{
		{
			name:  "overlapping",
			add:   []Region{{0, 0, 100, 100}, {50, 50, 100, 100}},
			count: 1,
			want:  Region{0, 0, 150, 150},
		},
		{
			name:  "adjacent edges",
			add:   []Region{{0, 0, 100, 100}, {100, 0, 100, 100}},
			count: 1,
			want:  Region{0, 0, 200, 100},
		},
		{
			name:  "disjoint",
			add:   []Region{{0, 0, 50, 50}, {200, 200, 50, 50}},
			count: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var h DamageHistory
			h.AddRegions(tt.add)
			got := h.Regions()
			if len(got) != tt.count {
				t.Fatalf("got %d regions, want %d: %+v", len(got), tt.count, got)
			}
			if tt.count == 1 && got[0] != tt.want {
				t.Errorf("merged region = %+v, want %+v", got[0], tt.want)
			}
		})
	}
}

func TestDamageHistoryDropsInvalid(t *testing.T) {
	var h DamageHistory
	h.Add(Region{0, 0, 0, 10})
	h.Add(Region{0, 0, -5, 10})
	if !h.IsEmpty() {
		t.Fatalf("expected degenerate regions to be dropped, got %+v", h.Regions())
	}
}

func TestRegionClamp(t *testing.T) {
	r := Region{X: -10, Y: -10, W: 30, H: 30}
	clamped, ok := r.Clamp(20, 20)
	if !ok {
		t.Fatal("expected a surviving clamp")
	}
	want := Region{X: 0, Y: 0, W: 20, H: 20}
	if clamped != want {
		t.Errorf("clamped = %+v, want %+v", clamped, want)
	}

	_, ok = Region{X: 50, Y: 50, W: 10, H: 10}.Clamp(20, 20)
	if ok {
		t.Error("expected fully-out-of-bounds region to be dropped")
	}
}

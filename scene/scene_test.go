package scene

import (
	"testing"

	"github.com/wawona-wm/wawona/object"
	"github.com/wawona-wm/wawona/shell"
	"github.com/wawona-wm/wawona/surface"
)

func TestComposeOrdersByLayerThenZOrder(t *testing.T) {
	bg := surface.New(10, 1)
	win1 := surface.New(20, 1)
	win2 := surface.New(21, 1)
	top := surface.New(30, 1)

	w1 := shell.NewWindow(20, object.ClientID(1), 20)
	w2 := shell.NewWindow(21, object.ClientID(1), 21)

	bgLS := &shell.LayerSurface{ID: 10, Layer: shell.LayerBackground, Surface: bg}
	topLS := &shell.LayerSurface{ID: 30, Layer: shell.LayerTop, Surface: top}

	sc := &Scene{
		Windows: []WindowPlacement{
			{Window: w2, Surface: win2, ZOrder: 1},
			{Window: w1, Surface: win1, ZOrder: 0},
		},
		Layers: []LayerPlacement{
			{LayerSurface: topLS, Surface: top},
			{LayerSurface: bgLS, Surface: bg},
		},
	}

	nodes := sc.Compose()
	if len(nodes) != 4 {
		t.Fatalf("got %d nodes, want 4", len(nodes))
	}
	want := []uint32{10, 20, 21, 30}
	for i, n := range nodes {
		if n.SurfaceID != want[i] {
			t.Errorf("node %d: got surface %d, want %d", i, n.SurfaceID, want[i])
		}
	}
}

func TestComposeLockSurfaceSuppressesEverythingElse(t *testing.T) {
	win := surface.New(20, 1)
	w := shell.NewWindow(20, object.ClientID(1), 20)
	lock := surface.New(99, 1)

	sc := &Scene{
		Windows:    []WindowPlacement{{Window: w, Surface: win, ZOrder: 0}},
		LockActive: true,
		LockSurface: lock,
	}
	nodes := sc.Compose()
	if len(nodes) != 1 || nodes[0].SurfaceID != 99 {
		t.Fatalf("got %+v, want only the lock surface", nodes)
	}
}

func TestTranslateDamageScalesAndOffsets(t *testing.T) {
	r := surface.Region{X: 2, Y: 3, W: 10, H: 5}
	got := TranslateDamage(r, 100, 200, 2)
	want := surface.Region{X: 104, Y: 206, W: 20, H: 10}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestAggregateDamageMergesAcrossSurfaces(t *testing.T) {
	nodes := []Node{
		{SurfaceID: 1, AbsX: 0, AbsY: 0, AbsScale: 1},
		{SurfaceID: 2, AbsX: 100, AbsY: 0, AbsScale: 1},
	}
	damage := map[uint32][]surface.Region{
		1: {{X: 0, Y: 0, W: 10, H: 10}},
		2: {{X: 0, Y: 0, W: 10, H: 10}},
	}
	merged := AggregateDamage(nodes, damage)
	if len(merged) != 2 {
		t.Fatalf("got %d regions, want 2 (non-touching)", len(merged))
	}
}

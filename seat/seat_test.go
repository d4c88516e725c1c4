package seat

import (
	"testing"

	"github.com/wawona-wm/wawona/object"
)

func TestSerialsAreMonotonic(t *testing.T) {
	s := New(object.NewSerialAllocator())
	a := s.NextSerial()
	b := s.NextSerial()
	if b != a+1 {
		t.Errorf("serials not monotonic: %d then %d", a, b)
	}
}

func TestFallbackKeymapExportFD(t *testing.T) {
	k := NewFallbackKeymap()
	fd, size, err := k.ExportFD()
	if err != nil {
		t.Fatalf("ExportFD failed: %v", err)
	}
	defer func() { _ = fd }()
	if size == 0 {
		t.Error("expected non-zero keymap size")
	}
}

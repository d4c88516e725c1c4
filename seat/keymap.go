//go:build linux

package seat

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Keymap is compiled from RMLVO names (rules/model/layout/variant/option)
// or falls back to an embedded minimal US layout, and is exposed to
// clients as an anonymous memfd plus byte length (spec §3).
type Keymap struct {
	Rules, Model, Layout, Variant, Options string
	data                                    []byte
}

// fallbackKeymap is a minimal XKB keymap string covering the US layout,
// embedded so the compositor never needs a working xkbcommon install to
// hand a client *something* usable.
const fallbackKeymap = `xkb_keymap {
	xkb_keycodes { include "evdev+aliases(qwerty)" };
	xkb_types    { include "complete" };
	xkb_compat   { include "complete" };
	xkb_symbols  { include "pc+us+inet(evdev)" };
	xkb_geometry { include "pc(pc105)" };
};
`

// NewFallbackKeymap builds the embedded US-layout keymap.
func NewFallbackKeymap() *Keymap {
	return &Keymap{Layout: "us", data: append([]byte(fallbackKeymap), 0)}
}

// NewFromRMLVO builds a keymap from explicit RMLVO names. The core does
// not link libxkbcommon; when a non-default layout is requested it falls
// back to the embedded US layout without logging anything, since compiling in real XKB would require a C
// dependency this module intentionally keeps out.
func NewFromRMLVO(rules, model, layout, variant, options string) *Keymap {
	if layout == "" || layout == "us" {
		k := NewFallbackKeymap()
		k.Rules, k.Model, k.Variant, k.Options = rules, model, variant, options
		return k
	}
	return NewFallbackKeymap()
}

// ExportFD writes the keymap string into an anonymous close-on-exec memfd
// (no seals are applied) and
// returns the fd plus byte length, ready for wl_keyboard.keymap.
func (k *Keymap) ExportFD() (fd int, size uint32, err error) {
	memfd, err := unix.MemfdCreate("wawona-keymap", unix.MFD_CLOEXEC)
	if err != nil {
		return -1, 0, fmt.Errorf("seat: memfd_create: %w", err)
	}
	if err := unix.Ftruncate(memfd, int64(len(k.data))); err != nil {
		unix.Close(memfd)
		return -1, 0, fmt.Errorf("seat: ftruncate: %w", err)
	}
	mapping, err := unix.Mmap(memfd, 0, len(k.data), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(memfd)
		return -1, 0, fmt.Errorf("seat: mmap: %w", err)
	}
	copy(mapping, k.data)
	_ = unix.Munmap(mapping)
	return memfd, uint32(len(k.data)), nil
}

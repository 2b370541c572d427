// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package rfbauto

import "fmt"

// X11 keysym constants for the non-printable keys a VNC automation client
// needs to send. Printable ASCII characters use their own ordinal as the
// keysym (RFC 6143 §7.5.4) and never need a table lookup.
const (
	KeyBackspace = 0xff08
	KeyTab       = 0xff09
	KeyEnter     = 0xff0d
	KeyEsc       = 0xff1b
	KeyIns       = 0xff63
	KeyDel       = 0xffff
	KeyHome      = 0xff50
	KeyEnd       = 0xff57
	KeyPgUp      = 0xff55
	KeyPgDn      = 0xff56
	KeyLeft      = 0xff51
	KeyUp        = 0xff52
	KeyRight     = 0xff53
	KeyDown      = 0xff54
	KeyF1        = 0xffbe
	KeyF2        = 0xffbf
	KeyF3        = 0xffc0
	KeyF4        = 0xffc1
	KeyF5        = 0xffc2
	KeyF6        = 0xffc3
	KeyF7        = 0xffc4
	KeyF8        = 0xffc5
	KeyF9        = 0xffc6
	KeyF10       = 0xffc7
	KeyF11       = 0xffc8
	KeyF12       = 0xffc9
	KeyLShift    = 0xffe1
	KeyRShift    = 0xffe2
	KeyLCtrl     = 0xffe3
	KeyRCtrl     = 0xffe4
	KeyLMeta     = 0xffe7
	KeyRMeta     = 0xffe8
	KeyLAlt      = 0xffe9
	KeyRAlt      = 0xffea
)

// namedKeysyms maps the symbolic key names accepted by Client.KeyDown,
// Client.KeyUp and Client.PressKey to their X11 keysym values.
var namedKeysyms = map[string]uint32{
	"backspace": KeyBackspace,
	"tab":       KeyTab,
	"return":    KeyEnter,
	"enter":     KeyEnter,
	"esc":       KeyEsc,
	"escape":    KeyEsc,
	"ins":       KeyIns,
	"insert":    KeyIns,
	"delete":    KeyDel,
	"del":       KeyDel,
	"home":      KeyHome,
	"end":       KeyEnd,
	"pgup":      KeyPgUp,
	"pgdn":      KeyPgDn,
	"left":      KeyLeft,
	"up":        KeyUp,
	"right":     KeyRight,
	"down":      KeyDown,
	"f1":        KeyF1,
	"f2":        KeyF2,
	"f3":        KeyF3,
	"f4":        KeyF4,
	"f5":        KeyF5,
	"f6":        KeyF6,
	"f7":        KeyF7,
	"f8":        KeyF8,
	"f9":        KeyF9,
	"f10":       KeyF10,
	"f11":       KeyF11,
	"f12":       KeyF12,
	"lshift":    KeyLShift,
	"rshift":    KeyRShift,
	"lctrl":     KeyLCtrl,
	"rctrl":     KeyRCtrl,
	"lmeta":     KeyLMeta,
	"rmeta":     KeyRMeta,
	"lalt":      KeyLAlt,
	"ralt":      KeyRAlt,
}

// Keysym resolves a key to its X11 keysym value. key may be:
//   - a single ASCII printable rune (e.g. 'a', '$') — returned as its ordinal
//   - a symbolic name from namedKeysyms, matched case-insensitively
//   - a uint32 or int, already assumed to be a keysym
//
// An unrecognized string name is an error: silently falling back to
// something is how a keystroke winds up being misdirected.
func Keysym(key interface{}) (uint32, error) {
	switch k := key.(type) {
	case uint32:
		return k, nil
	case int:
		return uint32(k), nil
	case rune:
		if k >= 0x20 && k <= 0x7e {
			return uint32(k), nil
		}
		return 0, fmt.Errorf("rfbauto: rune %q is not a printable ASCII key", k)
	case byte:
		return Keysym(rune(k))
	case string:
		if len([]rune(k)) == 1 {
			return Keysym([]rune(k)[0])
		}
		if sym, ok := namedKeysyms[lowerASCII(k)]; ok {
			return sym, nil
		}
		return 0, fmt.Errorf("rfbauto: unrecognized key name %q", k)
	default:
		return 0, fmt.Errorf("rfbauto: unsupported key type %T", key)
	}
}

// lowerASCII lowercases the ASCII letters in s without pulling in the
// unicode-aware strings.ToLower machinery for what is always an ASCII name.
func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

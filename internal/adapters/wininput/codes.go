package wininput

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Key codes are Linux evdev codes on every backend, so settings files are
// portable between platforms.
const (
	CodeKEYEsc  uint16 = 1
	CodeKEYHome uint16 = 102
	CodeKEYEnd  uint16 = 107

	codeKEYEnter     uint16 = 28
	codeKEYLeftCtrl  uint16 = 29
	codeKEYLeftShift uint16 = 42
	codeKEYLeftAlt   uint16 = 56
	codeKEYKPEnter   uint16 = 96
	codeKEYRightCtrl uint16 = 97
	codeKEYRightAlt  uint16 = 100
)

const (
	vkRETURN  uint32 = 0x0D
	vkSHIFT   uint32 = 0x10
	vkCONTROL uint32 = 0x11
	vkMENU    uint32 = 0x12

	llkhfExtended = 0x01
)

type keyEntry struct {
	name string
	code uint16
	vk   uint32
}

// keyTable lists every key the hook reports. A zero vk means the key only
// arrives through a special case in CodeFromVK.
var keyTable = []keyEntry{
	{"KEY_ESC", 1, 0x1B},
	{"KEY_1", 2, 0x31},
	{"KEY_2", 3, 0x32},
	{"KEY_3", 4, 0x33},
	{"KEY_4", 5, 0x34},
	{"KEY_5", 6, 0x35},
	{"KEY_6", 7, 0x36},
	{"KEY_7", 8, 0x37},
	{"KEY_8", 9, 0x38},
	{"KEY_9", 10, 0x39},
	{"KEY_0", 11, 0x30},
	{"KEY_MINUS", 12, 0xBD},
	{"KEY_EQUAL", 13, 0xBB},
	{"KEY_BACKSPACE", 14, 0x08},
	{"KEY_TAB", 15, 0x09},
	{"KEY_Q", 16, 'Q'},
	{"KEY_W", 17, 'W'},
	{"KEY_E", 18, 'E'},
	{"KEY_R", 19, 'R'},
	{"KEY_T", 20, 'T'},
	{"KEY_Y", 21, 'Y'},
	{"KEY_U", 22, 'U'},
	{"KEY_I", 23, 'I'},
	{"KEY_O", 24, 'O'},
	{"KEY_P", 25, 'P'},
	{"KEY_LEFTBRACE", 26, 0xDB},
	{"KEY_RIGHTBRACE", 27, 0xDD},
	{"KEY_ENTER", codeKEYEnter, vkRETURN},
	{"KEY_LEFTCTRL", codeKEYLeftCtrl, 0xA2},
	{"KEY_A", 30, 'A'},
	{"KEY_S", 31, 'S'},
	{"KEY_D", 32, 'D'},
	{"KEY_F", 33, 'F'},
	{"KEY_G", 34, 'G'},
	{"KEY_H", 35, 'H'},
	{"KEY_J", 36, 'J'},
	{"KEY_K", 37, 'K'},
	{"KEY_L", 38, 'L'},
	{"KEY_SEMICOLON", 39, 0xBA},
	{"KEY_APOSTROPHE", 40, 0xDE},
	{"KEY_GRAVE", 41, 0xC0},
	{"KEY_LEFTSHIFT", codeKEYLeftShift, 0xA0},
	{"KEY_BACKSLASH", 43, 0xDC},
	{"KEY_Z", 44, 'Z'},
	{"KEY_X", 45, 'X'},
	{"KEY_C", 46, 'C'},
	{"KEY_V", 47, 'V'},
	{"KEY_B", 48, 'B'},
	{"KEY_N", 49, 'N'},
	{"KEY_M", 50, 'M'},
	{"KEY_COMMA", 51, 0xBC},
	{"KEY_DOT", 52, 0xBE},
	{"KEY_SLASH", 53, 0xBF},
	{"KEY_RIGHTSHIFT", 54, 0xA1},
	{"KEY_KPASTERISK", 55, 0x6A},
	{"KEY_LEFTALT", codeKEYLeftAlt, 0xA4},
	{"KEY_SPACE", 57, 0x20},
	{"KEY_CAPSLOCK", 58, 0x14},
	{"KEY_NUMLOCK", 69, 0x90},
	{"KEY_SCROLLLOCK", 70, 0x91},
	{"KEY_KP7", 71, 0x67},
	{"KEY_KP8", 72, 0x68},
	{"KEY_KP9", 73, 0x69},
	{"KEY_KPMINUS", 74, 0x6D},
	{"KEY_KP4", 75, 0x64},
	{"KEY_KP5", 76, 0x65},
	{"KEY_KP6", 77, 0x66},
	{"KEY_KPPLUS", 78, 0x6B},
	{"KEY_KP1", 79, 0x61},
	{"KEY_KP2", 80, 0x62},
	{"KEY_KP3", 81, 0x63},
	{"KEY_KP0", 82, 0x60},
	{"KEY_KPDOT", 83, 0x6E},
	{"KEY_KPENTER", codeKEYKPEnter, 0},
	{"KEY_RIGHTCTRL", codeKEYRightCtrl, 0xA3},
	{"KEY_KPSLASH", 98, 0x6F},
	{"KEY_SYSRQ", 99, 0x2C},
	{"KEY_RIGHTALT", codeKEYRightAlt, 0xA5},
	{"KEY_HOME", CodeKEYHome, 0x24},
	{"KEY_UP", 103, 0x26},
	{"KEY_PAGEUP", 104, 0x21},
	{"KEY_LEFT", 105, 0x25},
	{"KEY_RIGHT", 106, 0x27},
	{"KEY_END", CodeKEYEnd, 0x23},
	{"KEY_DOWN", 108, 0x28},
	{"KEY_PAGEDOWN", 109, 0x22},
	{"KEY_INSERT", 110, 0x2D},
	{"KEY_DELETE", 111, 0x2E},
	{"KEY_MUTE", 113, 0xAD},
	{"KEY_VOLUMEDOWN", 114, 0xAE},
	{"KEY_VOLUMEUP", 115, 0xAF},
	{"KEY_PAUSE", 119, 0x13},
	{"KEY_LEFTMETA", 125, 0x5B},
	{"KEY_RIGHTMETA", 126, 0x5C},
	{"KEY_MENU", 127, 0x5D},
}

var (
	nameToCode map[string]uint16
	codeToName map[uint16]string
	vkToCode   map[uint32]uint16
)

func init() {
	// F1-F10 are contiguous in evdev, F11/F12 and F13-F24 are not.
	for i := 0; i < 24; i++ {
		var code uint16
		switch {
		case i < 10:
			code = 59 + uint16(i)
		case i < 12:
			code = 87 + uint16(i-10)
		default:
			code = 183 + uint16(i-12)
		}
		keyTable = append(keyTable, keyEntry{
			name: "KEY_F" + strconv.Itoa(i+1),
			code: code,
			vk:   0x70 + uint32(i),
		})
	}

	nameToCode = make(map[string]uint16, len(keyTable))
	codeToName = make(map[uint16]string, len(keyTable))
	vkToCode = make(map[uint32]uint16, len(keyTable))
	for _, entry := range keyTable {
		nameToCode[entry.name] = entry.code
		codeToName[entry.code] = entry.name
		if entry.vk != 0 {
			vkToCode[entry.vk] = entry.code
		}
	}
}

// ParseCode accepts a key name such as KEY_HOME or a numeric code.
func ParseCode(value string) (uint16, error) {
	raw := strings.ToUpper(strings.TrimSpace(value))
	if raw == "" {
		return 0, fmt.Errorf("key code is empty")
	}
	if code, ok := nameToCode[raw]; ok {
		return code, nil
	}

	parsed, err := strconv.ParseInt(raw, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("unknown key %q: use names like KEY_HOME/KEY_F8 or a numeric code", value)
	}
	if parsed < 0 || parsed > 0xFFFF {
		return 0, fmt.Errorf("key code out of range: %d", parsed)
	}
	return uint16(parsed), nil
}

func FormatCodeName(code uint16) string {
	if name, ok := codeToName[code]; ok {
		return name
	}
	return strconv.Itoa(int(code))
}

// CodeFromVK maps a low-level keyboard hook event to a key code. The
// extended flag separates the right-hand modifiers and keypad Enter.
func CodeFromVK(vk, flags uint32) (uint16, bool) {
	extended := flags&llkhfExtended != 0
	switch vk {
	case vkRETURN:
		if extended {
			return codeKEYKPEnter, true
		}
		return codeKEYEnter, true
	case vkSHIFT:
		return codeKEYLeftShift, true
	case vkCONTROL:
		if extended {
			return codeKEYRightCtrl, true
		}
		return codeKEYLeftCtrl, true
	case vkMENU:
		if extended {
			return codeKEYRightAlt, true
		}
		return codeKEYLeftAlt, true
	}

	code, ok := vkToCode[vk]
	return code, ok
}

// KnownCodes returns every code with a name, sorted.
func KnownCodes() []uint16 {
	out := make([]uint16, 0, len(codeToName))
	for code := range codeToName {
		out = append(out, code)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

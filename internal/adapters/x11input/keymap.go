//go:build linux

package x11input

import (
	"strings"

	"github.com/porcuspine/AutoJoggie/internal/adapters/linuxinput"
)

// namedKeys maps evdev key tokens (KEY_ prefix removed) to X keysym names.
// Letters, digits, function keys and keypad digits are derived by rule.
var namedKeys = map[string]string{
	"ESC":        "Escape",
	"ENTER":      "Return",
	"TAB":        "Tab",
	"SPACE":      "space",
	"BACKSPACE":  "BackSpace",
	"LEFTSHIFT":  "Shift_L",
	"RIGHTSHIFT": "Shift_R",
	"LEFTCTRL":   "Control_L",
	"RIGHTCTRL":  "Control_R",
	"LEFTALT":    "Alt_L",
	"RIGHTALT":   "Alt_R",
	"LEFTMETA":   "Super_L",
	"RIGHTMETA":  "Super_R",
	"CAPSLOCK":   "Caps_Lock",
	"NUMLOCK":    "Num_Lock",
	"SCROLLLOCK": "Scroll_Lock",
	"PAGEUP":     "Page_Up",
	"PAGEDOWN":   "Page_Down",
	"INSERT":     "Insert",
	"DELETE":     "Delete",
	"HOME":       "Home",
	"END":        "End",
	"UP":         "Up",
	"DOWN":       "Down",
	"LEFT":       "Left",
	"RIGHT":      "Right",
	"MENU":       "Menu",
	"PAUSE":      "Pause",
	"SYSRQ":      "Print",
	"MINUS":      "minus",
	"EQUAL":      "equal",
	"LEFTBRACE":  "bracketleft",
	"RIGHTBRACE": "bracketright",
	"SEMICOLON":  "semicolon",
	"APOSTROPHE": "apostrophe",
	"GRAVE":      "grave",
	"BACKSLASH":  "backslash",
	"COMMA":      "comma",
	"DOT":        "period",
	"SLASH":      "slash",
	"KPPLUS":     "KP_Add",
	"KPMINUS":    "KP_Subtract",
	"KPASTERISK": "KP_Multiply",
	"KPSLASH":    "KP_Divide",
	"KPDOT":      "KP_Decimal",
	"KPENTER":    "KP_Enter",
}

var keysymTokens map[string]string

func init() {
	keysymTokens = make(map[string]string, len(namedKeys))
	for token, keysym := range namedKeys {
		keysymTokens[strings.ToLower(keysym)] = token
	}
}

// keysymForCode returns the X keysym name for a Linux key code.
func keysymForCode(code uint16) (string, bool) {
	name := linuxinput.FormatCodeName(code)
	token, ok := strings.CutPrefix(name, "KEY_")
	if !ok || token == "" {
		return "", false
	}
	if keysym, ok := namedKeys[token]; ok {
		return keysym, true
	}

	switch {
	case len(token) == 1 && token[0] >= 'A' && token[0] <= 'Z':
		return strings.ToLower(token), true
	case len(token) == 1 && token[0] >= '0' && token[0] <= '9':
		return token, true
	case token[0] == 'F' && isDigits(token[1:]):
		return token, true
	case strings.HasPrefix(token, "KP") && len(token) == 3 && isDigits(token[2:]):
		return "KP_" + token[2:], true
	}
	return "", false
}

// codeForKeysym is the inverse of keysymForCode.
func codeForKeysym(keysym string) (uint16, bool) {
	raw := strings.ToLower(strings.TrimSpace(keysym))
	if raw == "" {
		return 0, false
	}

	token, ok := keysymTokens[raw]
	if !ok {
		switch {
		case len(raw) == 1 && (raw[0] >= 'a' && raw[0] <= 'z' || raw[0] >= '0' && raw[0] <= '9'):
			token = strings.ToUpper(raw)
		case raw[0] == 'f' && isDigits(raw[1:]):
			token = strings.ToUpper(raw)
		case strings.HasPrefix(raw, "kp_") && len(raw) == 4 && isDigits(raw[3:]):
			token = "KP" + raw[3:]
		default:
			return 0, false
		}
	}

	code, err := linuxinput.ParseCode("KEY_" + token)
	if err != nil {
		return 0, false
	}
	return code, true
}

func isDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

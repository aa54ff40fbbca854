package hotkey

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DisplayName turns a backend key name such as KEY_RIGHTSHIFT into a label
// such as "Right Shift". Single characters are upper-cased and unknown
// numeric codes pass through unchanged.
func DisplayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unbound"
	}

	raw := strings.ToLower(name)
	for _, prefix := range []string{"key_", "btn_"} {
		if strings.HasPrefix(raw, prefix) && len(raw) > len(prefix) {
			raw = raw[len(prefix):]
			break
		}
	}
	if len([]rune(raw)) == 1 {
		return strings.ToUpper(raw)
	}

	words := strings.Fields(strings.ReplaceAll(raw, "_", " "))
	if len(words) == 1 {
		words = splitSide(words[0])
	}
	return cases.Title(language.English).String(strings.Join(words, " "))
}

// splitSide separates a left/right prefix from a modifier name: "rightshift"
// becomes ["right", "shift"] while the arrow key "right" is left alone.
func splitSide(word string) []string {
	for _, side := range []string{"left", "right"} {
		if strings.HasPrefix(word, side) && len(word) > len(side) {
			return []string{side, word[len(side):]}
		}
	}
	return []string{word}
}

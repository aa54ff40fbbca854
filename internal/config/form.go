package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/porcuspine/AutoJoggie/internal/core/clickengine"
)

// Form holds the raw text of the config window fields.
type Form struct {
	Clicks      string
	Wait        string
	Jitter      string
	DoubleClick bool
}

// StartParams are the engine Start arguments derived from settings.
type StartParams struct {
	WaitBaseMS   float64
	WaitJitterMS float64
	ClickCount   int
	Mode         clickengine.CycleMode
}

// IsValidInt reports whether text may be typed into an integer field.
func IsValidInt(text string) bool {
	for _, r := range text {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// IsValidDecimal reports whether text may be typed into a decimal field:
// digits with at most one dot.
func IsValidDecimal(text string) bool {
	if strings.Count(text, ".") > 1 {
		return false
	}
	for _, r := range text {
		if r != '.' && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// Form renders the settings as config window text.
func (s Settings) Form() Form {
	return Form{
		Clicks:      strconv.Itoa(max(0, s.Clicks)),
		Wait:        strconv.FormatFloat(s.WaitSeconds, 'f', -1, 64),
		Jitter:      strconv.FormatFloat(s.JitterSeconds, 'f', -1, 64),
		DoubleClick: s.DoubleClick,
	}
}

// WithForm parses the config window fields into a copy of s. An empty click
// count means run until stopped; the wait fields are required.
func (s Settings) WithForm(form Form) (Settings, error) {
	clicks := 0
	if text := strings.TrimSpace(form.Clicks); text != "" {
		if !IsValidInt(text) {
			return s, fmt.Errorf("%w: clicks %q is not a whole number", ErrInvalidConfiguration, form.Clicks)
		}
		n, err := strconv.Atoi(text)
		if err != nil {
			return s, fmt.Errorf("%w: clicks %q: %v", ErrInvalidConfiguration, form.Clicks, err)
		}
		clicks = n
	}

	wait, err := parseSeconds("wait", form.Wait)
	if err != nil {
		return s, err
	}
	jitter, err := parseSeconds("jitter", form.Jitter)
	if err != nil {
		return s, err
	}

	s.Clicks = clicks
	s.WaitSeconds = wait
	s.JitterSeconds = jitter
	s.DoubleClick = form.DoubleClick
	return s, nil
}

func parseSeconds(field, raw string) (float64, error) {
	text := strings.TrimSpace(raw)
	if text == "" || !IsValidDecimal(text) {
		return 0, fmt.Errorf("%w: %s %q is not a decimal number", ErrInvalidConfiguration, field, raw)
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q: %v", ErrInvalidConfiguration, field, raw, err)
	}
	return v, nil
}

// StartParams converts seconds to milliseconds and maps a click count of
// zero or below to clickengine.Indefinite.
func (s Settings) StartParams() StartParams {
	clicks := s.Clicks
	if clicks <= 0 {
		clicks = clickengine.Indefinite
	}
	mode := clickengine.Single
	if s.DoubleClick {
		mode = clickengine.Toggle
	}
	return StartParams{
		WaitBaseMS:   s.WaitSeconds * 1000,
		WaitJitterMS: s.JitterSeconds * 1000,
		ClickCount:   clicks,
		Mode:         mode,
	}
}

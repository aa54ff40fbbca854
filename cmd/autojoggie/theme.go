package main

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

type joggieTheme struct {
	base fyne.Theme
}

func newJoggieTheme() fyne.Theme {
	return &joggieTheme{base: theme.DarkTheme()}
}

func (t *joggieTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNameBackground:
		return color.NRGBA{R: 0x0d, G: 0x10, B: 0x14, A: 0xff}
	case theme.ColorNameButton:
		return color.NRGBA{R: 0x1d, G: 0x23, B: 0x2c, A: 0xff}
	case theme.ColorNameDisabledButton:
		return color.NRGBA{R: 0x16, G: 0x1a, B: 0x20, A: 0xff}
	case theme.ColorNameInputBackground:
		return color.NRGBA{R: 0x13, G: 0x18, B: 0x1f, A: 0xff}
	case theme.ColorNameInputBorder, theme.ColorNameSeparator:
		return color.NRGBA{R: 0x2b, G: 0x33, B: 0x40, A: 0xff}
	case theme.ColorNamePrimary, theme.ColorNameHyperlink:
		return color.NRGBA{R: 0x5f, G: 0xc8, B: 0x6e, A: 0xff}
	case theme.ColorNameFocus:
		return color.NRGBA{R: 0x5f, G: 0xc8, B: 0x6e, A: 0x66}
	case theme.ColorNameHover:
		return color.NRGBA{R: 0x5f, G: 0xc8, B: 0x6e, A: 0x22}
	case theme.ColorNamePressed:
		return color.NRGBA{R: 0x5f, G: 0xc8, B: 0x6e, A: 0x40}
	case theme.ColorNameForeground:
		return color.NRGBA{R: 0xf2, G: 0xf4, B: 0xf8, A: 0xff}
	case theme.ColorNameError:
		return color.NRGBA{R: 0xff, G: 0x82, B: 0x82, A: 0xff}
	}
	return t.base.Color(name, variant)
}

func (t *joggieTheme) Font(style fyne.TextStyle) fyne.Resource {
	return t.base.Font(style)
}

func (t *joggieTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return t.base.Icon(name)
}

func (t *joggieTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNamePadding, theme.SizeNameInnerPadding:
		return 6
	case theme.SizeNameInputRadius:
		return 6
	}
	return t.base.Size(name)
}

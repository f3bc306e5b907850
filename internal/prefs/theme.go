// Package prefs stores small per-client preferences next to the catalog.
package prefs

import (
	"github.com/poku-e/whisk/internal/store"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"

	DefaultTheme = ThemeLight
)

// Prefs reads and writes preference slots in a KV.
type Prefs struct {
	kv store.KV
}

func New(kv store.KV) *Prefs {
	return &Prefs{kv: kv}
}

// Theme returns the stored theme. Anything but "dark" reads as light.
func (p *Prefs) Theme() Theme {
	v, ok, err := p.kv.Get(store.ThemeKey)
	if err != nil || !ok {
		return DefaultTheme
	}
	if Theme(v) == ThemeDark {
		return ThemeDark
	}
	return ThemeLight
}

func (p *Prefs) SetTheme(t Theme) error {
	if t != ThemeDark {
		t = ThemeLight
	}
	return p.kv.Set(store.ThemeKey, string(t))
}

// ParseTheme maps a form value onto a theme; unknown values become light.
func ParseTheme(s string) Theme {
	switch s {
	case string(ThemeDark), "on", "true":
		return ThemeDark
	default:
		return ThemeLight
	}
}

// Package settings persists user preferences: automatic beautification
// behavior and the canvas font size.
package settings

import (
	"context"
	"fmt"

	"github.com/nabokov/clipd/internal/card"
	"github.com/nabokov/clipd/internal/kv"
)

// FontSize names one of the canvas text presets.
type FontSize string

const (
	FontSmall  FontSize = "small"
	FontMedium FontSize = "medium"
	FontLarge  FontSize = "large"
)

// FontSizePixels maps each preset to its base CSS size.
var FontSizePixels = map[FontSize]int{
	FontSmall:  12,
	FontMedium: 14,
	FontLarge:  16,
}

// Valid reports whether the preset is one clipd knows how to render.
func (f FontSize) Valid() bool {
	_, ok := FontSizePixels[f]
	return ok
}

// AppSettings are the user-tunable knobs. Stored values may predate a
// given field, so the stored form uses pointers and Get fills defaults.
type AppSettings struct {
	AutoBeautify     bool                    `json:"autoBeautify"`
	AutoBeautifyMode card.BeautificationMode `json:"autoBeautifyMode"`
}

// storedSettings distinguishes "never set" from an explicit false/empty.
type storedSettings struct {
	AutoBeautify     *bool                    `json:"autoBeautify,omitempty"`
	AutoBeautifyMode *card.BeautificationMode `json:"autoBeautifyMode,omitempty"`
}

// Defaults are applied over whatever partial object is on disk.
func Defaults() AppSettings {
	return AppSettings{
		AutoBeautify:     false,
		AutoBeautifyMode: card.ModeOrganizeContent,
	}
}

// Store persists settings under kv.KeySettings and the font size under
// kv.KeyFontSize.
type Store struct {
	kv kv.Store
}

// NewStore creates a settings store over the given key-value namespace.
func NewStore(store kv.Store) *Store {
	return &Store{kv: store}
}

// Get returns the effective settings: defaults merged with whatever
// fields were stored.
func (s *Store) Get(ctx context.Context) (AppSettings, error) {
	out := Defaults()

	var stored storedSettings
	if _, err := kv.GetJSON(ctx, s.kv, kv.KeySettings, &stored); err != nil {
		return out, fmt.Errorf("loading settings: %w", err)
	}
	if stored.AutoBeautify != nil {
		out.AutoBeautify = *stored.AutoBeautify
	}
	if stored.AutoBeautifyMode != nil && *stored.AutoBeautifyMode != "" {
		out.AutoBeautifyMode = *stored.AutoBeautifyMode
	}
	return out, nil
}

// Save overwrites the stored settings with the full object.
func (s *Store) Save(ctx context.Context, in AppSettings) error {
	stored := storedSettings{
		AutoBeautify:     &in.AutoBeautify,
		AutoBeautifyMode: &in.AutoBeautifyMode,
	}
	err := kv.UpdateJSON(ctx, s.kv, kv.KeySettings, func(storedSettings) (storedSettings, error) {
		return stored, nil
	})
	if err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	return nil
}

// GetFontSize returns the stored preset, defaulting to medium.
func (s *Store) GetFontSize(ctx context.Context) (FontSize, error) {
	var f FontSize
	found, err := kv.GetJSON(ctx, s.kv, kv.KeyFontSize, &f)
	if err != nil {
		return FontMedium, fmt.Errorf("loading font size: %w", err)
	}
	if !found || !f.Valid() {
		return FontMedium, nil
	}
	return f, nil
}

// SetFontSize stores the preset after validating it.
func (s *Store) SetFontSize(ctx context.Context, f FontSize) error {
	if !f.Valid() {
		return fmt.Errorf("unknown font size %q", f)
	}
	err := kv.UpdateJSON(ctx, s.kv, kv.KeyFontSize, func(FontSize) (FontSize, error) {
		return f, nil
	})
	if err != nil {
		return fmt.Errorf("saving font size: %w", err)
	}
	return nil
}

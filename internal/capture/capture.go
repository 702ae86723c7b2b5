// Package capture turns a raw clip payload from the browser into a
// stored card: it validates the payload, sanitizes the captured HTML,
// optionally crops the page screenshot to the element, and persists the
// result.
package capture

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/microcosm-cc/bluemonday"

	"github.com/nabokov/clipd/internal/card"
	"github.com/nabokov/clipd/internal/screenshot"
)

// Element describes the captured DOM element as the clipper saw it.
type Element struct {
	TagName     string     `json:"tagName"`
	Selector    string     `json:"selector,omitempty"`
	TextContent string     `json:"textContent,omitempty"`
	Rect        *card.Size `json:"rect,omitempty"`
	// Viewport coordinates of the element, used to crop the screenshot.
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Page describes the page the element was clipped from.
type Page struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Favicon string `json:"favicon,omitempty"`
}

// Payload is one clip request from the browser.
type Payload struct {
	HTML         string   `json:"html"`
	SelectedText string   `json:"selectedText,omitempty"`
	Element      Element  `json:"element"`
	Page         Page     `json:"page"`
	// Screenshot is a data URL of the visible tab, cropped server-side to
	// the element's rect when both are present.
	Screenshot       string  `json:"screenshot,omitempty"`
	DevicePixelRatio float64 `json:"devicePixelRatio,omitempty"`

	Position *card.Position `json:"position,omitempty"`
	Stashed  bool           `json:"stashed,omitempty"`
}

// Validate checks the element descriptor.
func (e Element) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.TagName, validation.Required),
	)
}

// Validate checks the page provenance.
func (p Page) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.URL, validation.Required, is.URL),
		validation.Field(&p.Title, validation.Required),
	)
}

// Validate checks the payload before any storage is touched.
func (p Payload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.HTML, validation.Required.When(p.Screenshot == "").Error("either html or screenshot is required")),
		validation.Field(&p.Page),
		validation.Field(&p.Element),
	)
}

// policy strips scripts, event handlers and embedded frames from clipped
// markup while keeping the formatting and media the card renders.
var policy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowImages()
	p.AllowAttrs("class").Globally()
	p.AllowAttrs("style").OnElements("span", "div", "p", "td", "th")
	return p
}()

// Sanitize returns the clip-safe form of captured HTML.
func Sanitize(html string) string {
	return strings.TrimSpace(policy.Sanitize(html))
}

// Service turns payloads into cards.
type Service struct {
	cards *card.Store
}

// NewService creates a capture service.
func NewService(cards *card.Store) *Service {
	return &Service{cards: cards}
}

// Clip validates, sanitizes and stores one capture. A screenshot that
// fails to crop degrades to a card without an image; the clip itself
// still succeeds.
func (s *Service) Clip(ctx context.Context, p Payload) (*card.Card, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("validating clip: %w", err)
	}

	c := card.Card{
		Content:  Sanitize(p.HTML),
		CardType: card.TypeClipped,
		Metadata: card.Metadata{
			URL:          p.Page.URL,
			Title:        p.Page.Title,
			Domain:       domainOf(p.Page.URL),
			Favicon:      p.Page.Favicon,
			Timestamp:    card.NowMillis(),
			SelectedText: p.SelectedText,
			TagName:      strings.ToLower(p.Element.TagName),
			Selector:     p.Element.Selector,
			TextContent:  p.Element.TextContent,
			Dimensions:   p.Element.Rect,
		},
		Position: p.Position,
		Stashed:  p.Stashed,
	}

	if p.Screenshot != "" && p.Element.Rect != nil {
		cropped, mime, err := screenshot.CropDataURL(p.Screenshot, screenshot.Rect{
			X:      p.Element.X,
			Y:      p.Element.Y,
			Width:  p.Element.Rect.Width,
			Height: p.Element.Rect.Height,
		}, p.DevicePixelRatio)
		if err != nil {
			log.Printf("capture: screenshot crop failed for %s: %v", p.Page.URL, err)
		} else {
			c.ImageData = cropped
			c.ImageMimeType = mime
			if c.Content == "" {
				c.CardType = card.TypeImage
			}
		}
	}

	saved, err := s.cards.Save(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("saving clipped card: %w", err)
	}
	return saved, nil
}

// domainOf extracts the host from a page URL, dropping any www prefix.
func domainOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(u.Host, "www.")
}

package style

import (
	"sort"
	"strings"
)

const (
	GroupStyles   = "styles"
	GroupLightbox = "lightbox"

	// CategoryTemplate is the category every built-in preset belongs to.
	CategoryTemplate = "template"
)

type presetText struct {
	key  string
	text string
}

// Preset is a named instruction set that shapes refinement for a style.
type Preset struct {
	Key          string `json:"key"`
	Group        string `json:"group"`
	Subject      string `json:"subject"`
	Instructions string `json:"instructions"`
	Category     string `json:"category"`
	// ReferenceAssetID points at a registered style asset, when one exists.
	ReferenceAssetID string `json:"reference_asset_id,omitempty"`
}

// Resolution is the tagged result of a lookup. An unknown style is not an error.
type Resolution struct {
	Found         bool
	NormalizedKey string
	Preset        Preset
}

// Catalog resolves style keys and their aliases to presets.
type Catalog struct {
	entries   map[string]Preset
	canonical []Preset
}

// NewCatalog builds the catalog of built-in presets with their aliases.
func NewCatalog() *Catalog {
	c := &Catalog{entries: make(map[string]Preset)}
	for _, p := range templatePresets {
		c.add(GroupStyles, p)
	}
	for _, p := range lightboxPresets {
		c.add(GroupLightbox, p)
	}

	for _, p := range c.canonical {
		switch p.Group {
		case GroupStyles:
			c.alias("styles:"+p.Key, p)
		case GroupLightbox:
			c.alias("styles:"+p.Key, p)
			c.alias("lightbox:"+p.Key, p)
			c.alias("template:lightbox:"+p.Key, p)
			c.alias("template:"+p.Key, p)
		}
	}
	return c
}

func (c *Catalog) add(group string, p presetText) {
	preset := Preset{
		Key:          p.key,
		Group:        group,
		Subject:      p.key,
		Instructions: p.text,
		Category:     CategoryTemplate,
	}
	c.entries[p.key] = preset
	c.canonical = append(c.canonical, preset)
}

func (c *Catalog) alias(key string, p Preset) {
	if _, exists := c.entries[key]; !exists {
		c.entries[key] = p
	}
}

// Resolve looks a style up by key, alias or namespaced "prefix:key" form.
func (c *Catalog) Resolve(style string) Resolution {
	key := strings.ToLower(strings.TrimSpace(style))
	if key == "" {
		return Resolution{}
	}
	if p, ok := c.entries[key]; ok {
		return Resolution{Found: true, NormalizedKey: key, Preset: p}
	}

	if prefix, suffix, ok := strings.Cut(key, ":"); ok {
		candidate := strings.TrimSpace(suffix)
		if candidate == "" {
			candidate = strings.TrimSpace(prefix)
		}
		if p, ok := c.entries[candidate]; ok {
			return Resolution{Found: true, NormalizedKey: candidate, Preset: p}
		}
	}
	return Resolution{NormalizedKey: key}
}

// Presets returns the canonical presets sorted by key, without aliases.
func (c *Catalog) Presets() []Preset {
	out := make([]Preset, len(c.canonical))
	copy(out, c.canonical)
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Keys returns every resolvable key, aliases included.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package style

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	catalog := NewCatalog()

	tests := []struct {
		name      string
		style     string
		wantFound bool
		wantKey   string
	}{
		{name: "direct key", style: "polaroid", wantFound: true, wantKey: "polaroid"},
		{name: "mixed case and spaces", style: "  PoLaRoid ", wantFound: true, wantKey: "polaroid"},
		{name: "styles alias", style: "styles:gta", wantFound: true, wantKey: "gta"},
		{name: "lightbox alias", style: "lightbox:studio", wantFound: true, wantKey: "studio"},
		{name: "template lightbox alias", style: "template:lightbox:lifestyle", wantFound: true, wantKey: "lifestyle"},
		{name: "template alias", style: "template:studio", wantFound: true, wantKey: "studio"},
		{name: "unknown namespace falls back to suffix", style: "creativity:aging", wantFound: true, wantKey: "aging"},
		{name: "trailing colon uses prefix", style: "figure:", wantFound: true, wantKey: "figure"},
		{name: "unknown key", style: "xyz123", wantFound: false},
		{name: "unknown namespaced key", style: "styles:xyz123", wantFound: false},
		{name: "empty", style: "", wantFound: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := catalog.Resolve(tt.style)
			assert.Equal(t, tt.wantFound, res.Found)
			if !tt.wantFound {
				assert.Empty(t, res.Preset.Instructions)
				assert.Empty(t, res.Preset.Subject)
				assert.Empty(t, res.Preset.ReferenceAssetID)
				return
			}
			assert.Equal(t, tt.wantKey, res.Preset.Key)
			assert.NotEmpty(t, res.Preset.Instructions)
			assert.Equal(t, CategoryTemplate, res.Preset.Category)
		})
	}
}

func TestPresetAliasKeysResolveToCanonical(t *testing.T) {
	catalog := NewCatalog()
	direct := catalog.Resolve("studio")
	require.True(t, direct.Found)
	for _, alias := range []string{"lightbox:studio", "template:lightbox:studio", "template:studio", "styles:studio"} {
		res := catalog.Resolve(alias)
		require.True(t, res.Found, alias)
		assert.Equal(t, direct.Preset, res.Preset, alias)
	}
}

func TestPresets(t *testing.T) {
	catalog := NewCatalog()
	presets := catalog.Presets()
	require.Len(t, presets, 19)
	assert.Equal(t, "ads", presets[0].Key)

	groups := map[string]int{}
	for _, p := range presets {
		groups[p.Group]++
	}
	assert.Equal(t, 17, groups[GroupStyles])
	assert.Equal(t, 2, groups[GroupLightbox])
	assert.Contains(t, catalog.Keys(), "styles:polaroid")
}

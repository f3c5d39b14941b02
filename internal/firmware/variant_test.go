package firmware

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractVariant(t *testing.T) {
	tests := []struct {
		name   string
		want   string
		wantOK bool
	}{
		{"fw-app-v2.bin", "v2", true},
		{"a-b-c.hex", "c", true},
		{"fw-board-A.bin", "A", true},
		{"fw-app.dfu", "", false},
		{"fw-app-v2.dfu", "", false},
		{"noextension", "", false},
		{"firmware.bin", "", false},
		{"fw-.bin", "", false},
		{"fw-app-v2.elf", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractVariant(tt.name)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVariantsSortedAndDeduplicated(t *testing.T) {
	r := Release{Tag: "v1.0", Assets: []string{
		"fw-board-B.bin", "fw-board-A.hex", "fw-board-A.bin", "fw.dfu",
	}}

	got, err := Variants(r)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, got)
}

func TestVariantsNone(t *testing.T) {
	_, err := Variants(Release{Tag: "v1.0", Assets: []string{"fw.dfu", "firmware.bin"}})
	require.ErrorIs(t, err, ErrNoVariant)
	assert.Contains(t, err.Error(), "no hardware variant found")
}

func TestAssetForVariant(t *testing.T) {
	r := Release{Tag: "v1.0", Assets: []string{"fw-board-AB.bin", "fw-board-A.bin", "fw.dfu"}}

	asset, err := AssetForVariant(r, "A")
	require.NoError(t, err)
	assert.Equal(t, "fw-board-A.bin", asset)

	_, err = AssetForVariant(r, "C")
	assert.ErrorIs(t, err, ErrAssetNotFound)
}

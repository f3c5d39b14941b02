package firmware

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assets(names ...string) []RawAsset {
	out := make([]RawAsset, len(names))
	for i, n := range names {
		out[i] = RawAsset{Name: n}
	}
	return out
}

func TestIsFlashable(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"fw-board-A.bin", true},
		{"fw-board-A.hex", true},
		{"fw.dfu", true},
		{"fw.BIN", false},
		{"fw.bin.sig", false},
		{"notes.txt", false},
		{"source.tar.gz", false},
		{"bin", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsFlashable(tt.name))
		})
	}
}

func TestFilterReleases(t *testing.T) {
	raw := []RawRelease{
		{TagName: "v2.0", Prerelease: true, Assets: assets("fw-board-A.bin", "CHANGELOG.md")},
		{TagName: "v1.1", Assets: assets("docs.pdf")},
		{TagName: "v1.0", Assets: assets("fw-board-A.hex", "fw.dfu", "fw.elf")},
		{TagName: "v0.9"},
	}

	got := FilterReleases(raw)

	require.Len(t, got, 2)
	assert.Equal(t, Release{Tag: "v2.0", Prerelease: true, Assets: []string{"fw-board-A.bin"}}, got[0])
	assert.Equal(t, Release{Tag: "v1.0", Assets: []string{"fw-board-A.hex", "fw.dfu"}}, got[1])
}

func TestFilterReleasesEmpty(t *testing.T) {
	got := FilterReleases(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFindRelease(t *testing.T) {
	releases := []Release{{Tag: "v2"}, {Tag: "v1"}}

	r, ok := FindRelease(releases, "v1")
	assert.True(t, ok)
	assert.Equal(t, "v1", r.Tag)

	_, ok = FindRelease(releases, "v3")
	assert.False(t, ok)
}

func TestReleaseLabel(t *testing.T) {
	assert.Equal(t, "v1.0", Release{Tag: "v1.0"}.Label())
	assert.Equal(t, "v1.1-rc1 (pre-release)", Release{Tag: "v1.1-rc1", Prerelease: true}.Label())
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0, Percent(0, 100))
	assert.Equal(t, 33, Percent(1, 3))
	assert.Equal(t, 99, Percent(999, 1000))
	assert.Equal(t, 100, Percent(1000, 1000))
	assert.Equal(t, 100, Percent(2000, 1000))
	assert.Equal(t, 0, Percent(500, 0))
	assert.Equal(t, 0, Percent(500, -1))
}

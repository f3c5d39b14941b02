package firmware

import "strings"

// flashableExts are the asset suffixes the programmer can write to a board.
var flashableExts = []string{".bin", ".hex", ".dfu"}

// IsFlashable reports whether an asset filename is a programmable image.
// The match is an exact, case-sensitive suffix match.
func IsFlashable(name string) bool {
	for _, ext := range flashableExts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// FilterReleases keeps the releases that carry at least one flashable
// asset, in the order the remote returned them. Non-flashable assets are
// removed from each kept release.
func FilterReleases(raw []RawRelease) []Release {
	releases := make([]Release, 0, len(raw))
	for _, r := range raw {
		var assets []string
		for _, a := range r.Assets {
			if IsFlashable(a.Name) {
				assets = append(assets, a.Name)
			}
		}
		if len(assets) == 0 {
			continue
		}
		releases = append(releases, Release{
			Tag:        r.TagName,
			Prerelease: r.Prerelease,
			Assets:     assets,
		})
	}
	return releases
}

// FindRelease returns the release with the given tag.
func FindRelease(releases []Release, tag string) (Release, bool) {
	for _, r := range releases {
		if r.Tag == tag {
			return r, true
		}
	}
	return Release{}, false
}

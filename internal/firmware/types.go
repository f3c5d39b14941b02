package firmware

// RawAsset is a release asset as returned by the GitHub releases API.
type RawAsset struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	DownloadURL string `json:"browser_download_url"`
}

// RawRelease is a release as returned by the GitHub releases API.
type RawRelease struct {
	TagName    string     `json:"tag_name"`
	Name       string     `json:"name"`
	Prerelease bool       `json:"prerelease"`
	Draft      bool       `json:"draft"`
	Assets     []RawAsset `json:"assets"`
}

// Release is a firmware release with at least one flashable asset.
type Release struct {
	Tag        string
	Prerelease bool
	Assets     []string // flashable asset filenames, in remote order
}

// Label returns the tag as shown in release listings.
func (r Release) Label() string {
	if r.Prerelease {
		return r.Tag + " (pre-release)"
	}
	return r.Tag
}

// ProgressFunc receives download progress as a whole percentage in [0,100].
type ProgressFunc func(percent int)

// Percent returns floor(received*100/total) clamped to [0,100].
// An unknown total (<= 0) yields 0.
func Percent(received, total int64) int {
	if total <= 0 || received <= 0 {
		return 0
	}
	if received >= total {
		return 100
	}
	return int(received * 100 / total)
}

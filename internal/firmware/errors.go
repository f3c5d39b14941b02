package firmware

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedRepo = errors.New("repository must be of the form owner/name")
	ErrTagNotFound   = errors.New("release tag not found")
	ErrAssetNotFound = errors.New("asset not found")
	ErrNoVariant     = errors.New("no hardware variant found")
	ErrRateLimited   = errors.New("GitHub rate limit exceeded")
	ErrUnauthorized  = errors.New("GitHub authentication failed")
)

// FetchError is returned when the release list of a repository cannot be
// retrieved.
type FetchError struct {
	Repo string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching releases for %s: %v", e.Repo, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// DownloadError is returned when a release asset cannot be downloaded
// into the cache.
type DownloadError struct {
	Repo  string
	Tag   string
	Asset string
	Err   error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("downloading %s (%s@%s): %v", e.Asset, e.Repo, e.Tag, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

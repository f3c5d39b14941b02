package firmware

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const DefaultBaseURL = "https://api.github.com"

// GitHubClient lists releases and downloads release assets from GitHub.
type GitHubClient struct {
	client *resty.Client
	cache  *Cache
}

// NewGitHubClient creates a client against baseURL that stores downloads
// in cache. An empty token makes anonymous requests. A zero timeout leaves
// requests unbounded.
func NewGitHubClient(baseURL, token string, timeout time.Duration, cache *Cache) *GitHubClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/vnd.github+json").
		SetHeader("X-GitHub-Api-Version", "2022-11-28").
		SetHeader("User-Agent", "irockprog").
		SetLogger(restyLogger{slog.Default().With("component", "github")})
	if token != "" {
		c.SetAuthToken(token)
	}
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return &GitHubClient{client: c, cache: cache}
}

// SplitRepo splits "owner/name" into its parts.
func SplitRepo(repo string) (owner, name string, err error) {
	parts := strings.Split(repo, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedRepo, repo)
	}
	return parts[0], parts[1], nil
}

// FetchReleases returns the raw release list of repo, most recent first.
func (g *GitHubClient) FetchReleases(ctx context.Context, repo string) ([]RawRelease, error) {
	owner, name, err := SplitRepo(repo)
	if err != nil {
		return nil, &FetchError{Repo: repo, Err: err}
	}

	res, err := g.client.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"owner": owner, "repo": name}).
		SetQueryParam("per_page", "100").
		Get("/repos/{owner}/{repo}/releases")
	if err != nil {
		return nil, &FetchError{Repo: repo, Err: fmt.Errorf("request failed: %w", err)}
	}
	if res.IsError() {
		if res.StatusCode() == http.StatusNotFound {
			return nil, &FetchError{Repo: repo, Err: fmt.Errorf("repository not found")}
		}
		return nil, &FetchError{Repo: repo, Err: statusError(res)}
	}

	var releases []RawRelease
	if err := json.Unmarshal(res.Body(), &releases); err != nil {
		return nil, &FetchError{Repo: repo, Err: fmt.Errorf("failed to parse releases: %w", err)}
	}

	slog.Debug("fetched releases", "repo", repo, "count", len(releases))
	return releases, nil
}

// DownloadAsset resolves asset in the release tagged tag, streams it to a
// temporary directory and copies it into the cache. progress is called
// after every received chunk. The cached path is returned.
func (g *GitHubClient) DownloadAsset(ctx context.Context, repo, tag, asset string, progress ProgressFunc) (string, error) {
	wrap := func(err error) error {
		return &DownloadError{Repo: repo, Tag: tag, Asset: asset, Err: err}
	}

	owner, name, err := SplitRepo(repo)
	if err != nil {
		return "", wrap(err)
	}
	if _, err := g.cache.PathFor(asset); err != nil {
		return "", wrap(err)
	}

	res, err := g.client.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"owner": owner, "repo": name, "tag": tag}).
		Get("/repos/{owner}/{repo}/releases/tags/{tag}")
	if err != nil {
		return "", wrap(fmt.Errorf("request failed: %w", err))
	}
	if res.StatusCode() == http.StatusNotFound {
		return "", wrap(fmt.Errorf("%w: %s", ErrTagNotFound, tag))
	}
	if res.IsError() {
		return "", wrap(statusError(res))
	}

	var release RawRelease
	if err := json.Unmarshal(res.Body(), &release); err != nil {
		return "", wrap(fmt.Errorf("failed to parse release: %w", err))
	}

	var found *RawAsset
	for i := range release.Assets {
		if release.Assets[i].Name == asset {
			found = &release.Assets[i]
			break
		}
	}
	if found == nil {
		return "", wrap(fmt.Errorf("%w: %s in release %s", ErrAssetNotFound, asset, tag))
	}
	if found.DownloadURL == "" {
		return "", wrap(fmt.Errorf("no download URL for %s", asset))
	}

	path, err := g.stream(ctx, *found, progress)
	if err != nil {
		return "", wrap(err)
	}
	return path, nil
}

// stream downloads a into a private temporary directory and moves the
// result into the cache. The temporary directory never outlives the call.
func (g *GitHubClient) stream(ctx context.Context, a RawAsset, progress ProgressFunc) (string, error) {
	tmpDir, err := os.MkdirTemp("", "irockprog-download-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	res, err := g.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetHeader("Accept", "application/octet-stream").
		Get(a.DownloadURL)
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}
	body := res.RawBody()
	defer body.Close()

	if res.IsError() {
		return "", fmt.Errorf("download returned %d", res.StatusCode())
	}

	tmpPath := filepath.Join(tmpDir, a.Name)
	f, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}

	totalSize := res.RawResponse.ContentLength
	if totalSize <= 0 && a.Size > 0 {
		totalSize = a.Size
	}

	var downloaded int64
	last := 0
	buf := make([]byte, 32*1024)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			if _, werr := f.Write(buf[:n]); werr != nil {
				f.Close()
				return "", fmt.Errorf("write failed: %w", werr)
			}
			downloaded += int64(n)
			if pct := Percent(downloaded, totalSize); pct > last {
				last = pct
			}
			if progress != nil {
				progress(last)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			f.Close()
			return "", fmt.Errorf("download interrupted: %w", err)
		}
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("write failed: %w", err)
	}

	path, sum, err := g.cache.Store(a.Name, tmpPath)
	if err != nil {
		return "", err
	}
	slog.Debug("downloaded asset", "asset", a.Name, "bytes", downloaded, "sha256", sum, "path", path)
	return path, nil
}

// statusError turns a non-2xx GitHub response into a readable error.
func statusError(res *resty.Response) error {
	switch res.StatusCode() {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusForbidden:
		if res.Header().Get("X-RateLimit-Remaining") == "0" {
			return ErrRateLimited
		}
	}

	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(res.Body(), &body); err == nil && body.Message != "" {
		return fmt.Errorf("GitHub returned %d: %s", res.StatusCode(), body.Message)
	}
	return fmt.Errorf("GitHub returned %d", res.StatusCode())
}

// restyLogger routes resty's own warnings through slog.
type restyLogger struct {
	l *slog.Logger
}

func (r restyLogger) Errorf(format string, v ...any) { r.l.Error(fmt.Sprintf(format, v...)) }
func (r restyLogger) Warnf(format string, v ...any)  { r.l.Warn(fmt.Sprintf(format, v...)) }
func (r restyLogger) Debugf(format string, v ...any) { r.l.Debug(fmt.Sprintf(format, v...)) }

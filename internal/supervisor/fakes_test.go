package supervisor

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arvernus/irock-programmer/internal/firmware"
	"github.com/arvernus/irock-programmer/internal/flash"
	"github.com/arvernus/irock-programmer/internal/hardware"
	"github.com/arvernus/irock-programmer/internal/store"
)

type fetchResult struct {
	releases []firmware.RawRelease
	err      error
}

// fakeFetcher returns canned results per repository. A gated repository
// blocks until its gate is closed.
type fakeFetcher struct {
	mu       sync.Mutex
	results  map[string]fetchResult
	gates    map[string]chan struct{}
	calls    []string
	finished []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		results: make(map[string]fetchResult),
		gates:   make(map[string]chan struct{}),
	}
}

func (f *fakeFetcher) set(repo string, releases []firmware.RawRelease, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[repo] = fetchResult{releases: releases, err: err}
}

func (f *fakeFetcher) gate(repo string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[repo] = ch
	return ch
}

func (f *fakeFetcher) FetchReleases(ctx context.Context, repo string) ([]firmware.RawRelease, error) {
	f.mu.Lock()
	f.calls = append(f.calls, repo)
	gate := f.gates[repo]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.finished = append(f.finished, repo)
	res := f.results[repo]
	return res.releases, res.err
}

func (f *fakeFetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

func (f *fakeFetcher) Finished(repo string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Contains(f.finished, repo)
}

type downloadCall struct {
	repo, tag, asset string
}

// fakeDownloader reports the configured progress steps, then waits on
// its gate (when set) before returning.
type fakeDownloader struct {
	mu       sync.Mutex
	steps    []int
	gate     chan struct{}
	path     string
	err      error
	calls    []downloadCall
	finished int
}

func (d *fakeDownloader) DownloadAsset(ctx context.Context, repo, tag, asset string, progress firmware.ProgressFunc) (string, error) {
	d.mu.Lock()
	d.calls = append(d.calls, downloadCall{repo, tag, asset})
	steps, gate, path, err := d.steps, d.gate, d.path, d.err
	d.mu.Unlock()

	for _, p := range steps {
		progress(p)
	}
	if gate != nil {
		<-gate
	}

	d.mu.Lock()
	d.finished++
	d.mu.Unlock()
	return path, err
}

func (d *fakeDownloader) Calls() []downloadCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.calls)
}

func (d *fakeDownloader) Finished() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.finished
}

type fakeFlasher struct {
	mu      sync.Mutex
	outcome flash.Outcome
	gate    chan struct{}
	paths   []string
}

func (f *fakeFlasher) Flash(ctx context.Context, path string) flash.Outcome {
	f.mu.Lock()
	f.paths = append(f.paths, path)
	gate, out := f.gate, f.outcome
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return out
}

func (f *fakeFlasher) Paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.paths)
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []store.Record
}

func (r *fakeRecorder) Record(ctx context.Context, rec store.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

func (r *fakeRecorder) Records() []store.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.records)
}

func rawRelease(tag string, assets ...string) firmware.RawRelease {
	rel := firmware.RawRelease{TagName: tag}
	for _, a := range assets {
		rel.Assets = append(rel.Assets, firmware.RawAsset{Name: a})
	}
	return rel
}

type harness struct {
	sup        *Supervisor
	fetcher    *fakeFetcher
	downloader *fakeDownloader
	flasher    *fakeFlasher
	recorder   *fakeRecorder
}

// newHarness maps the iRock 424 to Org/Repo1 and the iRock 212 to
// Org/Repo2.
func newHarness() *harness {
	h := &harness{
		fetcher:    newFakeFetcher(),
		downloader: &fakeDownloader{path: "/cache/fw.bin"},
		flasher:    &fakeFlasher{outcome: flash.Outcome{Success: true, Stdout: "Flash written and verified! jolly good!"}},
		recorder:   &fakeRecorder{},
	}
	h.sup = New(Deps{
		Fetcher:    h.fetcher,
		Downloader: h.downloader,
		Flasher:    h.flasher,
		Recorder:   h.recorder,
		Repos: map[string]string{
			hardware.IRock424.Slug(): "Org/Repo1",
			hardware.IRock212.Slug(): "Org/Repo2",
		},
	})
	return h
}

// pollUntil polls sup until cond holds and returns the matching snapshot.
func pollUntil(t *testing.T, sup *Supervisor, cond func(Snapshot) bool) Snapshot {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	snap, err := Wait(ctx, sup, time.Millisecond, cond)
	require.NoError(t, err, "last stage: %s", snap.Stage)
	return snap
}

func atStage(stage Stage) func(Snapshot) bool {
	return func(s Snapshot) bool { return s.Stage == stage }
}

// readyWithRelease brings h to CatalogReady for the iRock 424 serving
// releases.
func (h *harness) readyWithRelease(t *testing.T, releases ...firmware.RawRelease) {
	t.Helper()
	h.fetcher.set("Org/Repo1", releases, nil)
	h.sup.SetHardware(hardware.IRock424)
	pollUntil(t, h.sup, atStage(StageCatalogReady))
}

// Package supervisor drives the firmware pipeline: hardware selection,
// release catalog, variant choice, download and flash. Blocking work runs
// on background operations; the front end calls Poll every frame and
// renders from Snapshot without ever blocking.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/arvernus/irock-programmer/internal/config"
	"github.com/arvernus/irock-programmer/internal/firmware"
	"github.com/arvernus/irock-programmer/internal/flash"
	"github.com/arvernus/irock-programmer/internal/hardware"
	"github.com/arvernus/irock-programmer/internal/store"
)

var (
	ErrInvalidStage   = errors.New("action not allowed in current stage")
	ErrUnknownRelease = errors.New("unknown release")
	ErrUnknownVariant = errors.New("unknown variant")
)

// Messages stored when an operation's channel closes with no result.
const (
	msgFetchVanished    = "release fetch ended without a result"
	msgDownloadVanished = "download ended without a result"
	msgFlashVanished    = "flash ended without a result"
)

// Fetcher lists the raw releases of a repository.
type Fetcher interface {
	FetchReleases(ctx context.Context, repo string) ([]firmware.RawRelease, error)
}

// Downloader fetches one release asset to a local file.
type Downloader interface {
	DownloadAsset(ctx context.Context, repo, tag, asset string, progress firmware.ProgressFunc) (string, error)
}

// Flasher writes a local image to the board.
type Flasher interface {
	Flash(ctx context.Context, path string) flash.Outcome
}

// Recorder persists completed downloads and flashes.
type Recorder interface {
	Record(ctx context.Context, rec store.Record) error
}

// Deps are the collaborators of a Supervisor. Recorder and Repos are
// optional.
type Deps struct {
	Fetcher    Fetcher
	Downloader Downloader
	Flasher    Flasher
	Recorder   Recorder
	Repos      map[string]string // hardware slug -> "owner/name" override
}

// Supervisor owns the pipeline state and its background operations.
// All methods are safe for concurrent use and none of them block on I/O.
type Supervisor struct {
	mu   sync.Mutex
	deps Deps

	generation uint64
	stage      Stage
	hw         hardware.Type
	repo       string
	releases   []firmware.Release
	err        string

	release  *firmware.Release
	variants []string
	variant  string
	asset    string

	percent     int
	path        string
	flashResult *flash.Outcome

	fetchOp    *Operation[[]firmware.RawRelease]
	downloadOp *Operation[string]
	flashOp    *Operation[flash.Outcome]

	pending sync.WaitGroup // history writes
}

// New returns an idle Supervisor.
func New(deps Deps) *Supervisor {
	return &Supervisor{deps: deps}
}

// SetHardware selects the hardware model. A new value discards everything
// downstream and returns the pipeline to HardwareChosen; hardware.None
// returns it to idle. Re-selecting the current model does nothing.
func (s *Supervisor) SetHardware(hw hardware.Type) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setHardware(hw)
}

func (s *Supervisor) setHardware(hw hardware.Type) {
	if hw == s.hw {
		return
	}

	s.generation++
	s.abandonFetch()
	s.resetRelease()
	s.releases = nil
	s.err = ""
	s.hw = hw

	if hw == hardware.None {
		s.repo = ""
		s.stage = StageIdle
		return
	}
	s.repo = hardware.RepoFor(hw, s.deps.Repos)
	s.stage = StageHardwareChosen
	config.Debugf("hardware %s selected, repo %s, generation %d", hw, s.repo, s.generation)
}

// Poll advances the pipeline: it starts the catalog fetch when one is
// needed and drains every live operation without blocking.
func (s *Supervisor) Poll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pollFetch()
	s.pollDownload()
	s.pollFlash()
}

func (s *Supervisor) pollFetch() {
	if s.stage == StageHardwareChosen && s.releases == nil && s.fetchOp == nil {
		repo := s.repo
		fetcher := s.deps.Fetcher
		s.fetchOp = Start(s.generation, func(*Reporter[[]firmware.RawRelease]) ([]firmware.RawRelease, error) {
			return fetcher.FetchReleases(context.Background(), repo)
		})
		s.stage = StageCatalogLoading
		slog.Info("fetching releases", "repo", repo)
		return
	}
	if s.fetchOp == nil {
		return
	}

	ev, status := next(s.fetchOp, s.generation)
	switch status {
	case RecvEmpty:
		return
	case RecvClosed:
		s.fetchOp = nil
		s.err = msgFetchVanished
		s.stage = StageCatalogFailed
		return
	}

	s.fetchOp = nil
	if ev.Err != nil {
		s.err = ev.Err.Error()
		s.stage = StageCatalogFailed
		slog.Warn("release fetch failed", "repo", s.repo, "error", ev.Err)
		return
	}
	s.releases = firmware.FilterReleases(ev.Value)
	s.stage = StageCatalogReady
	slog.Info("releases loaded", "repo", s.repo, "raw", len(ev.Value), "flashable", len(s.releases))
}

func (s *Supervisor) pollDownload() {
	if s.downloadOp == nil {
		return
	}
	for {
		ev, status := next(s.downloadOp, s.generation)
		switch status {
		case RecvEmpty:
			return
		case RecvClosed:
			s.downloadOp = nil
			s.err = msgDownloadVanished
			s.stage = StageDownloadFailed
			return
		}

		if !ev.Done {
			if ev.Progress > s.percent {
				s.percent = min(ev.Progress, 100)
			}
			continue
		}

		s.downloadOp = nil
		if ev.Err != nil {
			s.err = ev.Err.Error()
			s.stage = StageDownloadFailed
			slog.Warn("download failed", "asset", s.asset, "error", ev.Err)
			return
		}
		s.percent = 100
		s.path = ev.Value
		s.stage = StageDownloadComplete
		slog.Info("download complete", "asset", s.asset, "path", s.path)
		s.record(store.Record{Kind: store.KindDownload, Path: s.path, Success: true})
		return
	}
}

func (s *Supervisor) pollFlash() {
	if s.flashOp == nil {
		return
	}
	ev, status := next(s.flashOp, s.generation)
	switch status {
	case RecvEmpty:
		return
	case RecvClosed:
		s.flashOp = nil
		s.flashResult = &flash.Outcome{ExitCode: -1, Err: errors.New(msgFlashVanished)}
		s.stage = StageFlashComplete
		return
	}

	s.flashOp = nil
	out := ev.Value
	if ev.Err != nil {
		out = flash.Outcome{ExitCode: -1, Err: ev.Err}
	}
	s.flashResult = &out
	s.stage = StageFlashComplete
	rec := store.Record{Kind: store.KindFlash, Path: s.path, Success: out.Success}
	if out.Err != nil {
		rec.Message = out.Err.Error()
	}
	s.record(rec)
}

// next returns the first event of op that belongs to generation. Events
// from an older generation are dropped.
func next[T any](op *Operation[T], generation uint64) (Event[T], RecvStatus) {
	for {
		ev, status := op.TryRecv()
		if status == RecvEvent && ev.Generation != generation {
			continue
		}
		return ev, status
	}
}

// SelectRelease chooses a release from the catalog and computes its
// variants. Choosing a different release clears the variant, download
// and flash state. A release without variants stays selected with an
// empty variant list and the error is returned and kept for display.
func (s *Supervisor) SelectRelease(tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.stage.hasCatalog() || s.stage == StageFlashInFlight {
		return fmt.Errorf("%w: %s", ErrInvalidStage, s.stage)
	}
	if s.release != nil && s.release.Tag == tag {
		return nil
	}
	rel, ok := firmware.FindRelease(s.releases, tag)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRelease, tag)
	}

	s.generation++
	s.resetRelease()
	s.release = &rel
	s.stage = StageReleaseChosen

	variants, err := firmware.Variants(rel)
	if err != nil {
		s.err = err.Error()
		return err
	}
	s.variants = variants
	return nil
}

// SelectVariant chooses one of the selected release's variants and
// resolves the asset to download. A different variant clears the
// download and flash state.
func (s *Supervisor) SelectVariant(variant string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.release == nil || s.stage == StageFlashInFlight {
		return fmt.Errorf("%w: %s", ErrInvalidStage, s.stage)
	}
	if variant == s.variant {
		return nil
	}
	if !slices.Contains(s.variants, variant) {
		return fmt.Errorf("%w: %s", ErrUnknownVariant, variant)
	}
	asset, err := firmware.AssetForVariant(*s.release, variant)
	if err != nil {
		return err
	}

	s.generation++
	s.resetVariant()
	s.variant = variant
	s.asset = asset
	s.stage = StageVariantChosen
	return nil
}

// StartDownload starts downloading the selected asset. It is allowed
// once a variant is chosen and again after a failed download.
func (s *Supervisor) StartDownload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stage != StageVariantChosen && s.stage != StageDownloadFailed {
		return fmt.Errorf("%w: %s", ErrInvalidStage, s.stage)
	}

	s.generation++
	s.err = ""
	s.percent = 0
	s.path = ""

	repo, tag, asset := s.repo, s.release.Tag, s.asset
	downloader := s.deps.Downloader
	s.downloadOp = Start(s.generation, func(r *Reporter[string]) (string, error) {
		return downloader.DownloadAsset(context.Background(), repo, tag, asset, r.Progress)
	})
	s.stage = StageDownloadInFlight
	slog.Info("downloading firmware", "repo", repo, "tag", tag, "asset", asset)
	return nil
}

// StartFlash flashes the downloaded image. It is allowed once the download
// completed and again after a previous flash finished.
func (s *Supervisor) StartFlash() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stage != StageDownloadComplete && s.stage != StageFlashComplete {
		return fmt.Errorf("%w: %s", ErrInvalidStage, s.stage)
	}

	s.generation++
	s.flashResult = nil

	path := s.path
	flasher := s.deps.Flasher
	s.flashOp = Start(s.generation, func(*Reporter[flash.Outcome]) (flash.Outcome, error) {
		return flasher.Flash(context.Background(), path), nil
	})
	s.stage = StageFlashInFlight
	return nil
}

// Back steps back one selection level: from the variant stages to the
// variant list, from a chosen release to the release list, and from the
// catalog stages to no hardware. A running flash cannot be left.
func (s *Supervisor) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.stage {
	case StageIdle, StageFlashInFlight:
		return fmt.Errorf("%w: %s", ErrInvalidStage, s.stage)
	case StageHardwareChosen, StageCatalogLoading, StageCatalogReady, StageCatalogFailed:
		s.setHardware(hardware.None)
	case StageReleaseChosen:
		s.generation++
		s.resetRelease()
		s.stage = StageCatalogReady
	default:
		s.generation++
		s.resetVariant()
		s.stage = StageReleaseChosen
	}
	return nil
}

// resetRelease clears the release selection and everything after it.
func (s *Supervisor) resetRelease() {
	s.resetVariant()
	s.release = nil
	s.variants = nil
	s.err = ""
}

// resetVariant clears the variant selection and everything after it,
// abandoning any download or flash in flight.
func (s *Supervisor) resetVariant() {
	if s.downloadOp != nil {
		s.downloadOp.Abandon()
		s.downloadOp = nil
	}
	if s.flashOp != nil {
		s.flashOp.Abandon()
		s.flashOp = nil
	}
	s.variant = ""
	s.asset = ""
	s.percent = 0
	s.path = ""
	s.flashResult = nil
	s.err = ""
}

func (s *Supervisor) abandonFetch() {
	if s.fetchOp != nil {
		s.fetchOp.Abandon()
		s.fetchOp = nil
	}
}

// record hands rec to the Recorder on its own goroutine so Poll never
// waits on the database.
func (s *Supervisor) record(rec store.Record) {
	if s.deps.Recorder == nil {
		return
	}
	rec.CreatedAt = time.Now()
	rec.Hardware = s.hw.String()
	rec.Repo = s.repo
	rec.Variant = s.variant
	rec.Asset = s.asset
	if s.release != nil {
		rec.Tag = s.release.Tag
	}
	recorder := s.deps.Recorder
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := recorder.Record(context.Background(), rec); err != nil {
			slog.Warn("failed to record history", "kind", rec.Kind, "error", err)
		}
	}()
}

// Flush waits for pending history writes. Call it before closing the
// Recorder.
func (s *Supervisor) Flush() {
	s.pending.Wait()
}

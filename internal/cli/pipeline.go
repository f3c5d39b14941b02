package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/arvernus/irock-programmer/internal/firmware"
	"github.com/arvernus/irock-programmer/internal/hardware"
	"github.com/arvernus/irock-programmer/internal/supervisor"
)

const pollInterval = 50 * time.Millisecond

// pipeline drives a Supervisor from the command line by polling it the
// way the TUI does every frame.
type pipeline struct {
	sup *supervisor.Supervisor
	out io.Writer
}

func newPipeline(e *env, out io.Writer) *pipeline {
	return &pipeline{sup: e.newSupervisor(), out: out}
}

// catalog selects hw and waits for its release list.
func (p *pipeline) catalog(ctx context.Context, hw hardware.Type) ([]firmware.Release, error) {
	p.sup.SetHardware(hw)
	snap, err := supervisor.Wait(ctx, p.sup, pollInterval, supervisor.Settled)
	if err != nil {
		return nil, err
	}
	if snap.Stage == supervisor.StageCatalogFailed {
		return nil, errors.New(snap.Error)
	}
	return snap.Releases, nil
}

// download resolves tag and variant for hw and downloads the asset,
// printing progress as it arrives. An empty tag picks the latest stable
// release; an empty variant is only accepted when the release offers one.
func (p *pipeline) download(ctx context.Context, hw hardware.Type, tag, variant string) (string, error) {
	releases, err := p.catalog(ctx, hw)
	if err != nil {
		return "", err
	}
	if tag == "" {
		if tag, err = latestTag(releases); err != nil {
			return "", fmt.Errorf("%s: %w", hw, err)
		}
	}
	if err := p.sup.SelectRelease(tag); err != nil {
		return "", err
	}

	snap := p.sup.Snapshot()
	if variant == "" {
		if len(snap.Variants) != 1 {
			return "", fmt.Errorf("release %s offers variants %v, pick one", tag, snap.Variants)
		}
		variant = snap.Variants[0]
	}
	if err := p.sup.SelectVariant(variant); err != nil {
		return "", err
	}
	if err := p.sup.StartDownload(); err != nil {
		return "", err
	}
	fmt.Fprintf(p.out, "Downloading %s from %s %s\n", p.sup.Snapshot().Asset, snap.Repo, tag)

	last := -1
	snap, err = supervisor.Wait(ctx, p.sup, pollInterval, func(s supervisor.Snapshot) bool {
		if s.Percent != last {
			fmt.Fprintf(p.out, "\r  %3d%%", s.Percent)
			last = s.Percent
		}
		return supervisor.Settled(s)
	})
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	if snap.Stage == supervisor.StageDownloadFailed {
		return "", errors.New(snap.Error)
	}
	return snap.Path, nil
}

// flash flashes the downloaded image and prints the tool's result.
func (p *pipeline) flash(ctx context.Context) error {
	if err := p.sup.StartFlash(); err != nil {
		return err
	}
	fmt.Fprintf(p.out, "Flashing %s\n", p.sup.Snapshot().Path)

	snap, err := supervisor.Wait(ctx, p.sup, pollInterval, supervisor.Settled)
	if err != nil {
		return err
	}
	fmt.Fprintln(p.out, snap.Flash.Message())
	if !snap.Flash.Success {
		return errors.New("flash failed")
	}
	return nil
}

// latestTag returns the newest release that is not a pre-release, or the
// newest release when all of them are.
func latestTag(releases []firmware.Release) (string, error) {
	if len(releases) == 0 {
		return "", errors.New("no flashable releases")
	}
	for _, r := range releases {
		if !r.Prerelease {
			return r.Tag, nil
		}
	}
	return releases[0].Tag, nil
}

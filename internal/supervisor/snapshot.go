package supervisor

import (
	"slices"

	"github.com/arvernus/irock-programmer/internal/firmware"
	"github.com/arvernus/irock-programmer/internal/flash"
	"github.com/arvernus/irock-programmer/internal/hardware"
)

// Snapshot is a point-in-time copy of the pipeline state. It shares no
// memory with the Supervisor.
type Snapshot struct {
	Stage      Stage
	Generation uint64
	Hardware   hardware.Type
	Repo       string
	Releases   []firmware.Release // nil until the catalog is loaded
	Release    *firmware.Release
	Variants   []string
	Variant    string
	Asset      string
	Percent    int
	Path       string
	Error      string
	Flash      *flash.Outcome
}

// Snapshot returns a copy of the current state.
func (s *Supervisor) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Stage:      s.stage,
		Generation: s.generation,
		Hardware:   s.hw,
		Repo:       s.repo,
		Variants:   slices.Clone(s.variants),
		Variant:    s.variant,
		Asset:      s.asset,
		Percent:    s.percent,
		Path:       s.path,
		Error:      s.err,
	}
	if s.releases != nil {
		snap.Releases = make([]firmware.Release, len(s.releases))
		for i, r := range s.releases {
			snap.Releases[i] = cloneRelease(r)
		}
	}
	if s.release != nil {
		r := cloneRelease(*s.release)
		snap.Release = &r
	}
	if s.flashResult != nil {
		out := *s.flashResult
		snap.Flash = &out
	}
	return snap
}

func cloneRelease(r firmware.Release) firmware.Release {
	r.Assets = slices.Clone(r.Assets)
	return r
}

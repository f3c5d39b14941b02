package supervisor

import (
	"context"
	"time"
)

// Wait polls sup every interval until cond holds for a snapshot or ctx is
// done. It is the headless counterpart of the TUI's render loop.
func Wait(ctx context.Context, sup *Supervisor, interval time.Duration, cond func(Snapshot) bool) (Snapshot, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		sup.Poll()
		snap := sup.Snapshot()
		if cond(snap) {
			return snap, nil
		}
		select {
		case <-ctx.Done():
			return snap, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Settled reports whether no background operation is running and none is
// about to be started by the next Poll.
func Settled(snap Snapshot) bool {
	return !snap.Stage.InFlight() && snap.Stage != StageHardwareChosen
}

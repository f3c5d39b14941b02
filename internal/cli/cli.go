package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/arvernus/irock-programmer/internal/firmware"
	"github.com/arvernus/irock-programmer/internal/hardware"
	"github.com/arvernus/irock-programmer/internal/store"
	"github.com/arvernus/irock-programmer/internal/tui"
	"github.com/arvernus/irock-programmer/internal/util"
)

// CLI is the root command structure for irockprog.
type CLI struct {
	Verbose bool   `short:"v" help:"Enable verbose debug output"`
	Config  string `short:"c" type:"path" help:"Config file (default: <user config dir>/irockprog/config.yaml)"`

	// Default command - TUI
	Tui TuiCmd `cmd:"" default:"withargs" help:"Launch interactive TUI (default)"`

	Hardware HardwareCmd `cmd:"" help:"List supported hardware models"`
	Releases ReleasesCmd `cmd:"" help:"List flashable releases for a hardware model"`
	Download DownloadCmd `cmd:"" help:"Download firmware for a hardware model"`
	Flash    FlashCmd    `cmd:"" help:"Download and flash firmware"`
	Cache    CacheCmd    `cmd:"" help:"Firmware cache operations"`
	History  HistoryCmd  `cmd:"" help:"Download and flash history"`
}

// --- TUI Command ---

type TuiCmd struct{}

func (c *TuiCmd) Run(globals *CLI) error {
	e, err := newEnv(globals, true)
	if err != nil {
		return err
	}
	defer e.Close()

	sup := e.newSupervisor()
	defer sup.Flush()
	return tui.Run(sup)
}

// --- Hardware Command ---

type HardwareCmd struct{}

func (c *HardwareCmd) Run(globals *CLI) error {
	e, err := newEnv(globals, false)
	if err != nil {
		return err
	}
	defer e.Close()

	for _, hw := range hardware.All() {
		fmt.Printf("  %-10s  %-10s  %s\n", hw.Slug(), hw.String(), hardware.RepoFor(hw, e.cfg.Repos))
	}
	return nil
}

// --- Release Commands ---

type ReleasesCmd struct {
	Hardware string `arg:"" help:"Hardware model (e.g. irock-424)"`
}

func (c *ReleasesCmd) Run(globals *CLI) error {
	hw, err := hardware.Parse(c.Hardware)
	if err != nil {
		return err
	}
	e, err := newEnv(globals, false)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := newPipeline(e, os.Stdout)
	defer p.sup.Flush()

	releases, err := p.catalog(ctx, hw)
	if err != nil {
		return err
	}
	if len(releases) == 0 {
		fmt.Printf("No flashable releases for %s.\n", hw)
		return nil
	}

	fmt.Printf("Found %d release(s) for %s:\n\n", len(releases), hw)
	for _, r := range releases {
		variants, err := firmware.Variants(r)
		vs := "-"
		if err == nil {
			vs = fmt.Sprint(variants)
		}
		fmt.Printf("  %-24s  variants: %s\n", r.Label(), vs)
		for _, a := range r.Assets {
			fmt.Printf("      %s\n", a)
		}
	}
	return nil
}

type DownloadCmd struct {
	Hardware string `arg:"" help:"Hardware model (e.g. irock-424)"`
	Tag      string `arg:"" optional:"" help:"Release tag (default: latest stable release)"`
	Variant  string `arg:"" optional:"" help:"Hardware variant (default: the only one offered)"`
}

func (c *DownloadCmd) Run(globals *CLI) error {
	hw, err := hardware.Parse(c.Hardware)
	if err != nil {
		return err
	}
	e, err := newEnv(globals, false)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := newPipeline(e, os.Stdout)
	defer p.sup.Flush()

	path, err := p.download(ctx, hw, c.Tag, c.Variant)
	if err != nil {
		return err
	}
	fmt.Printf("Saved to: %s\n", path)
	return nil
}

type FlashCmd struct {
	Hardware string `arg:"" help:"Hardware model (e.g. irock-424)"`
	Tag      string `arg:"" optional:"" help:"Release tag (default: latest stable release)"`
	Variant  string `arg:"" optional:"" help:"Hardware variant (default: the only one offered)"`
}

func (c *FlashCmd) Run(globals *CLI) error {
	hw, err := hardware.Parse(c.Hardware)
	if err != nil {
		return err
	}
	e, err := newEnv(globals, false)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := newPipeline(e, os.Stdout)
	defer p.sup.Flush()

	if _, err := p.download(ctx, hw, c.Tag, c.Variant); err != nil {
		return err
	}
	return p.flash(ctx)
}

// --- Cache Commands ---

type CacheCmd struct {
	List  CacheListCmd  `cmd:"" help:"List cached firmware files"`
	Clear CacheClearCmd `cmd:"" help:"Remove all cached firmware files"`
	Path  CachePathCmd  `cmd:"" help:"Print the cache directory"`
}

type CacheListCmd struct{}

func (c *CacheListCmd) Run(globals *CLI) error {
	e, err := newEnv(globals, false)
	if err != nil {
		return err
	}
	defer e.Close()

	entries, err := e.cache.List()
	if err != nil {
		return fmt.Errorf("failed to list cache: %w", err)
	}
	if len(entries) == 0 {
		fmt.Println("No cached firmware.")
		return nil
	}

	fmt.Printf("Found %d cached file(s) in %s:\n\n", len(entries), e.cache.Path())
	for _, entry := range entries {
		fmt.Printf("  %-40s  %8s  %s\n",
			util.Truncate(entry.Asset, 40),
			util.HumanizeBytes(entry.FileSize),
			entry.Downloaded.Format("2006-01-02 15:04"))
	}
	return nil
}

type CacheClearCmd struct{}

func (c *CacheClearCmd) Run(globals *CLI) error {
	e, err := newEnv(globals, false)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.cache.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	fmt.Println("Cache cleared.")
	return nil
}

type CachePathCmd struct{}

func (c *CachePathCmd) Run(globals *CLI) error {
	e, err := newEnv(globals, false)
	if err != nil {
		return err
	}
	defer e.Close()

	fmt.Println(e.cache.Path())
	return nil
}

// --- History Command ---

type HistoryCmd struct {
	Limit int  `short:"n" default:"20" help:"Number of records to show (0 for all)"`
	Clear bool `help:"Delete all history records"`
}

func (c *HistoryCmd) Run(globals *CLI) error {
	e, err := newEnv(globals, false)
	if err != nil {
		return err
	}
	defer e.Close()

	s, err := e.openHistory()
	if err != nil {
		return err
	}
	ctx := context.Background()

	if c.Clear {
		if err := s.Clear(ctx); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		fmt.Println("History cleared.")
		return nil
	}

	records, err := s.List(ctx, c.Limit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("No history yet.")
		return nil
	}
	for _, rec := range records {
		status := "ok"
		if !rec.Success {
			status = "FAILED"
		}
		fmt.Printf("  %s  %-8s  %-6s  %-10s  %-10s  %-28s  %s\n",
			rec.CreatedAt.Format("2006-01-02 15:04:05"),
			rec.Kind,
			status,
			rec.Hardware,
			util.Truncate(rec.Tag, 10),
			util.Truncate(rec.Asset, 28),
			store.ShortHash(rec.Hash))
	}
	return nil
}

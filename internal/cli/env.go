package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/arvernus/irock-programmer/internal/config"
	"github.com/arvernus/irock-programmer/internal/firmware"
	"github.com/arvernus/irock-programmer/internal/flash"
	"github.com/arvernus/irock-programmer/internal/store"
	"github.com/arvernus/irock-programmer/internal/supervisor"
)

// env is everything a command needs, built from the loaded config.
type env struct {
	cfg     *config.Config
	cache   *firmware.Cache
	github  *firmware.GitHubClient
	flasher *flash.Invoker
	history *store.Store
	logFile *os.File
}

// newEnv loads the configuration and wires the pipeline collaborators.
// With logToFile set, logs go to the configured log file instead of
// stderr.
func newEnv(globals *CLI, logToFile bool) (*env, error) {
	config.Verbose = globals.Verbose
	if !logToFile {
		config.SetupLogger(os.Stderr)
	}

	cfg, err := config.Load(globals.Config)
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg}
	if logToFile {
		f, err := config.SetupFileLogger(cfg.Log.File)
		if err != nil {
			return nil, err
		}
		e.logFile = f
	}

	if cfg.Cache.Dir == "" {
		e.cache, err = firmware.NewCache()
	} else {
		e.cache, err = firmware.NewCacheAt(cfg.Cache.Dir)
	}
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("failed to open firmware cache: %w", err)
	}
	e.github = firmware.NewGitHubClient(cfg.GitHub.BaseURL, cfg.GitHub.Token, cfg.GitHub.Timeout, e.cache)
	e.flasher = flash.NewInvoker(cfg.Flash.Tool, cfg.Flash.Address)
	return e, nil
}

// openHistory opens the history store. Callers treat failure as
// non-fatal where history is optional.
func (e *env) openHistory() (*store.Store, error) {
	if e.history != nil {
		return e.history, nil
	}
	var s *store.Store
	var err error
	if e.cfg.History.Path == "" {
		s, err = store.OpenDefault()
	} else {
		s, err = store.Open(e.cfg.History.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	e.history = s
	return s, nil
}

// newSupervisor returns a Supervisor over the env's collaborators. History
// is recorded when the store can be opened.
func (e *env) newSupervisor() *supervisor.Supervisor {
	deps := supervisor.Deps{
		Fetcher:    e.github,
		Downloader: e.github,
		Flasher:    e.flasher,
		Repos:      e.cfg.Repos,
	}
	if h, err := e.openHistory(); err == nil {
		deps.Recorder = h
	} else {
		config.Debugf("history disabled: %v", err)
	}
	return supervisor.New(deps)
}

func (e *env) Close() error {
	var firstErr error
	if e.history != nil {
		firstErr = e.history.Close()
	}
	if e.logFile != nil {
		if err := e.logFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var _ io.Closer = (*env)(nil)

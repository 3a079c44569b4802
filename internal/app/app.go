// Package app wires configuration, storage, activation and the catalog into the
// services the inputctl commands run against.
package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"inputprefs/internal/activation"
	"inputprefs/internal/catalog"
	"inputprefs/internal/config"
	"inputprefs/internal/inputlist"
	"inputprefs/internal/logging"
	"inputprefs/internal/store"
)

// App holds the process-wide dependencies of one inputctl invocation.
type App struct {
	Config      *config.Config
	Logger      *logging.Logger
	Catalog     *catalog.Catalog
	Store       store.Store
	Activator   inputlist.Activator
	Broadcaster inputlist.Broadcaster

	// session and live are set when the live set is kept in process and must
	// be saved after every commit.
	session *activation.Session
	live    store.LiveStore

	closers []io.Closer
}

// New builds an App from a copy of cfg. A nil logger logs to stderr with
// defaults.
func New(cfg *config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		var err error
		if logger, err = logging.New(nil); err != nil {
			return nil, err
		}
	}
	a := &App{Config: cfg.Clone(), Logger: logger}

	if err := a.openCatalog(); err != nil {
		return nil, err
	}
	if err := a.openStore(); err != nil {
		return nil, err
	}
	if err := a.openActivator(); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.openBroadcaster(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) openCatalog() error {
	cat, err := catalog.Builtin()
	if err != nil {
		return fmt.Errorf("load builtin catalog: %w", err)
	}
	if path := a.Config.Catalog.ExtraPath; path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open catalog: %w", err)
		}
		defer f.Close()
		if err := cat.LoadYAML(f); err != nil {
			return fmt.Errorf("load catalog %s: %w", path, err)
		}
	}
	a.Catalog = cat
	return nil
}

func (a *App) openStore() error {
	switch a.Config.Storage.Backend {
	case "sqlite":
		if err := a.Config.EnsureDirectories(); err != nil {
			return err
		}
		db, err := store.Open(a.Config.Storage.Path, a.Config.Storage.BusyTimeoutMs)
		if err != nil {
			return err
		}
		a.Store = db
		a.live = db
	case "registry":
		reg, err := store.OpenRegistry()
		if err != nil {
			return err
		}
		a.Store = reg
	case "memory":
		mem := store.NewMemory()
		a.Store = mem
		a.live = mem
	default:
		return fmt.Errorf("unknown storage backend %q", a.Config.Storage.Backend)
	}
	a.closers = append(a.closers, a.Store)
	return nil
}

func (a *App) openActivator() error {
	backend := a.Config.Activation.Backend
	if backend == "auto" {
		backend = "session"
		if runtime.GOOS == "windows" {
			backend = "windows"
		}
	}

	switch backend {
	case "windows":
		w, err := activation.NewWindows()
		if err != nil {
			return err
		}
		a.Activator = w
	case "session":
		s := activation.NewSession(a.Catalog, a.Store, a.Logger.WithComponent("activation").Logger)
		if a.live != nil {
			if err := s.Restore(a.live); err != nil {
				return fmt.Errorf("restore live input methods: %w", err)
			}
		} else {
			a.Logger.Warn("storage backend cannot remember the live set", "backend", a.Config.Storage.Backend)
		}
		preload, err := a.Store.Preload()
		if err != nil {
			a.Logger.Warn("read preload for bootstrap", "error", err)
		}
		s.Bootstrap(preload, a.Config.Activation.FallbackKey)
		a.session = s
		a.Activator = s
	default:
		return fmt.Errorf("unknown activation backend %q", backend)
	}
	return nil
}

func (a *App) openBroadcaster() error {
	switch a.Config.Activation.Broadcast {
	case "none":
		return nil
	case "dbus":
		d, err := activation.NewDBus()
		if err != nil {
			return err
		}
		a.Broadcaster = d
		a.closers = append(a.closers, d)
		return nil
	}

	if b, ok := a.Activator.(inputlist.Broadcaster); ok {
		a.Broadcaster = b
		return nil
	}
	d, err := activation.NewDBus()
	if err != nil {
		a.Logger.Debug("session bus unavailable, announcing to the log", "error", err)
		a.Broadcaster = activation.LogBroadcaster{Logger: a.Logger.Logger}
		return nil
	}
	a.Broadcaster = d
	a.closers = append(a.closers, d)
	return nil
}

// List returns a pending list populated from the live input methods.
func (a *App) List() *inputlist.List {
	opts := []inputlist.Option{inputlist.WithLogger(a.Logger.WithComponent("inputlist").Logger)}
	if a.Broadcaster != nil {
		opts = append(opts, inputlist.WithBroadcaster(a.Broadcaster))
	}
	return inputlist.Create(a.Catalog, a.Store, a.Activator, opts...)
}

// Commit commits l and saves the in-process live set, if there is one. Partial
// application is reported in the CommitReport; the error covers only saving.
func (a *App) Commit(l *inputlist.List) (*inputlist.CommitReport, error) {
	report := l.Commit()
	if a.session != nil && a.live != nil {
		if err := a.session.Save(a.live); err != nil {
			return report, fmt.Errorf("save live input methods: %w", err)
		}
	}
	return report, nil
}

// Close releases the store and the bus connection. The logger stays open.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

package inputlist

import (
	"log/slog"

	"github.com/google/uuid"

	"inputprefs/internal/hkl"
	"inputprefs/internal/logging"
)

// Commit steps reported in failures.
const (
	StepUnload     = "unload"
	StepPrepare    = "prepare"
	StepPreload    = "preload"
	StepSubstitute = "substitute"
	StepLoad       = "load"
	StepDefault    = "default"
	StepBroadcast  = "broadcast"
)

// Failure records one best-effort step that did not apply.
type Failure struct {
	Step string
	Key  string
	Err  error
}

// CommitReport describes what a commit applied.
type CommitReport struct {
	// ID tags every log line of the commit as its request id.
	ID string

	// Preload holds the keys written, in preference order.
	Preload []string

	// Substitutes holds the substitute mappings written.
	Substitutes map[string]string

	Loaded   []hkl.Handle
	Unloaded []hkl.Handle

	// Default is the handle announced as the new default, zero if none.
	Default hkl.Handle

	Failures []Failure
}

// OK reports whether every step applied.
func (r *CommitReport) OK() bool {
	return len(r.Failures) == 0
}

func (r *CommitReport) fail(step, key string, err error) {
	r.Failures = append(r.Failures, Failure{Step: step, Key: key, Err: err})
}

// Commit reconciles the list with the live subsystem and the persisted
// configuration. Every step is best effort: a failure is logged and recorded in
// the report and processing continues with the next entry.
//
// Deleted and Edited entries are unloaded first; Deleted ones that unloaded are
// dropped from the list. The store is then reset and rewritten with the default
// entry at position 1 and the remaining entries from position 2 in list order.
// Added and Edited entries are loaded as they are written. A store that cannot
// be reset ends the commit after the unload step.
func (l *List) Commit() *CommitReport {
	report := &CommitReport{
		ID:          uuid.NewString(),
		Substitutes: make(map[string]string),
	}
	logger := logging.WithRequestID(l.logger, report.ID)

	l.unloadPending(logger, report)

	if err := l.store.Reset(); err != nil {
		logger.Warn("prepare user configuration", "error", err)
		report.fail(StepPrepare, "", err)
		return report
	}

	def := l.Default()
	if def != nil {
		l.write(logger, 1, def, report)

		if def.handle.Valid() {
			if err := l.activator.SetDefault(def.handle); err != nil {
				logger.Warn("set default input method", "key", def.Key(), "error", err)
				report.fail(StepDefault, def.Key(), err)
			} else {
				report.Default = def.handle
				if l.broadcaster != nil {
					if err := l.broadcaster.InputLanguageChanged(def.handle); err != nil {
						logger.Warn("broadcast input language change", "key", def.Key(), "error", err)
						report.fail(StepBroadcast, def.Key(), err)
					}
				}
			}
		}
	}

	position := 2
	for _, e := range l.entries {
		if e == def {
			continue
		}
		l.write(logger, position, e, report)
		position++
	}

	for _, f := range report.Failures {
		logger.Debug("commit step failed", "step", f.Step, "key", f.Key, "error", f.Err)
	}
	logger.Info("input methods committed",
		"preload", len(report.Preload),
		"substitutes", len(report.Substitutes),
		"loaded", len(report.Loaded),
		"unloaded", len(report.Unloaded),
		"failures", len(report.Failures),
	)
	return report
}

// unloadPending unloads Deleted and Edited entries. Entries that were never
// loaded have nothing to unload.
func (l *List) unloadPending(logger *slog.Logger, report *CommitReport) {
	kept := l.entries[:0]
	for _, e := range l.entries {
		if e.state != Deleted && e.state != Edited {
			kept = append(kept, e)
			continue
		}

		if e.handle.Valid() {
			if err := l.activator.Deactivate(e.handle); err != nil {
				logger.Warn("unload input method", "key", e.Key(), "handle", e.handle.String(), "error", err)
				report.fail(StepUnload, e.Key(), err)
				kept = append(kept, e)
				continue
			}
			report.Unloaded = append(report.Unloaded, e.handle)
		}

		if e.state == Edited {
			e.handle = 0
			kept = append(kept, e)
		}
	}
	clear(l.entries[len(kept):])
	l.entries = kept
}

// write persists one entry at a preference position and loads it if pending.
func (l *List) write(logger *slog.Logger, position int, e *Entry, report *CommitReport) {
	key := e.Key()

	if err := l.store.SetPreload(position, key); err != nil {
		logger.Warn("write preload", "position", position, "key", key, "error", err)
		report.fail(StepPreload, key, err)
	} else {
		report.Preload = append(report.Preload, key)
	}

	if e.NeedsSubstitute() {
		target := e.layout.Key()
		if err := l.store.SetSubstitute(key, target); err != nil {
			logger.Warn("write substitute", "key", key, "target", target, "error", err)
			report.fail(StepSubstitute, key, err)
		} else {
			report.Substitutes[key] = target
		}
	}

	if e.state != Added && e.state != Edited {
		return
	}
	h, err := l.activator.Activate(key, true)
	if err != nil {
		logger.Warn("load input method", "key", key, "error", err)
		report.fail(StepLoad, key, err)
		return
	}
	e.handle = h
	e.state = Unchanged
	report.Loaded = append(report.Loaded, h)
}

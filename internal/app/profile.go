package app

import (
	"context"
	"time"

	"inputprefs/internal/inputlist"
	"inputprefs/internal/profile"
)

// ApplyProfile brings the live and persisted input methods in line with p. The
// list is only committed when the profile changed something.
func (a *App) ApplyProfile(p *profile.Profile) (profile.Result, *inputlist.CommitReport, error) {
	l := a.List()
	defer l.Destroy()

	before := l.Default()
	res := profile.Apply(l, a.Catalog, p, a.Logger.WithComponent("profile").Logger)
	if !res.Changed() && l.Default() == before {
		return res, nil, nil
	}
	report, err := a.Commit(l)
	return res, report, err
}

// WatchProfile applies the profile at path whenever it changes, calling applied
// after each attempt, until ctx is done.
func (a *App) WatchProfile(ctx context.Context, path string, applied func(profile.Result, *inputlist.CommitReport, error)) error {
	debounce := time.Duration(a.Config.Profile.DebounceMs) * time.Millisecond
	return profile.Watch(ctx, path, debounce, a.Logger.WithComponent("profile").Logger, func(p *profile.Profile) {
		res, report, err := a.ApplyProfile(p)
		if applied != nil {
			applied(res, report, err)
		}
	})
}

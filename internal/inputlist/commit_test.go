package inputlist

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inputprefs/internal/catalog"
	"inputprefs/internal/hkl"
	"inputprefs/internal/store"
)

func TestCommitDefaultFirst(t *testing.T) {
	f := newFixture(t, "00000409", "00000407")
	l := f.list()

	report := l.Commit()
	assert.True(t, report.OK(), "failures: %v", report.Failures)
	assert.NotEmpty(t, report.ID)

	assert.Equal(t, []string{"00000409", "00000407"}, f.preload(t))
	assert.Empty(t, f.substitutes(t))
	assert.Equal(t, []string{"00000409", "00000407"}, report.Preload)
	assert.Empty(t, report.Loaded)
	assert.Equal(t, hkl.Handle(0x04090409), report.Default)
	assert.Equal(t, []hkl.Handle{0x04090409}, f.rec.Sent)
}

func TestCommitDefaultMovesToFront(t *testing.T) {
	f := newFixture(t, "00000409", "00000407", "00000411")
	l := f.list()
	l.SetDefault(l.Entries()[2])

	l.Commit()
	assert.Equal(t, []string{"00000411", "00000409", "00000407"}, f.preload(t))

	def, err := f.act.Default()
	require.NoError(t, err)
	assert.Equal(t, hkl.Handle(0x04110411), def)
	assert.Equal(t, []hkl.Handle{0x04110411}, f.rec.Sent)
}

func TestCommitSubstitute(t *testing.T) {
	f := newFixture(t, "00000407")
	l := f.list()
	require.True(t, l.Add(f.locale(t, 0x0409), f.layout(t, 0x0411)))

	report := l.Commit()
	assert.True(t, report.OK(), "failures: %v", report.Failures)
	assert.Equal(t, []string{"00000407", "00000409"}, f.preload(t))
	assert.Equal(t, map[string]string{"00000409": "00000411"}, f.substitutes(t))

	added := l.Entries()[1]
	assert.Equal(t, Unchanged, added.State())
	assert.Equal(t, hkl.Handle(0x04110409), added.Handle())
	assert.Equal(t, []hkl.Handle{0x04110409}, report.Loaded)
}

func TestCommitIME(t *testing.T) {
	f := newFixture(t, "00000409")
	l := f.list()
	require.True(t, l.Add(f.locale(t, 0x0409), f.layout(t, 0xE0010409)))

	report := l.Commit()
	assert.True(t, report.OK(), "failures: %v", report.Failures)
	assert.Equal(t, []string{"00000409", "E0010409"}, f.preload(t))
	assert.Empty(t, f.substitutes(t))
	assert.Equal(t, hkl.Handle(0xE0010409), l.Entries()[1].Handle())
}

func TestCommitAddedDefaultIsLoadedBeforeAnnouncing(t *testing.T) {
	f := newFixture(t, "00000409")
	l := f.list()
	require.True(t, l.Add(f.locale(t, 0x0407), f.layout(t, 0x0407)))
	l.SetDefault(l.Entries()[1])

	report := l.Commit()
	assert.True(t, report.OK(), "failures: %v", report.Failures)
	assert.Equal(t, []string{"00000407", "00000409"}, f.preload(t))
	assert.Equal(t, hkl.Handle(0x04070407), report.Default)
	assert.Equal(t, []hkl.Handle{0x04070407}, f.rec.Sent)
}

func TestCommitDropsDeleted(t *testing.T) {
	f := newFixture(t, "00000409", "00000407", "00000411")
	l := f.list()
	l.Remove(l.Entries()[2])

	report := l.Commit()
	assert.True(t, report.OK(), "failures: %v", report.Failures)
	assert.Equal(t, 2, l.Len())
	assert.Equal(t, []hkl.Handle{0x04110411}, report.Unloaded)
	assert.Equal(t, []string{"00000409", "00000407"}, f.preload(t))

	active, err := f.act.Active()
	require.NoError(t, err)
	assert.Equal(t, []hkl.Handle{0x04090409, 0x04070407}, active)
}

func TestCommitRemovedAdditionLeavesNoTrace(t *testing.T) {
	f := newFixture(t, "00000409")
	l := f.list()
	require.True(t, l.Add(f.locale(t, 0x0407), f.layout(t, 0x0411)))
	l.Remove(l.Entries()[1])

	report := l.Commit()
	assert.Equal(t, []string{"00000409"}, f.preload(t))
	assert.Empty(t, f.substitutes(t))
	assert.Empty(t, report.Loaded)
}

func TestCommitReloadsEdited(t *testing.T) {
	f := newFixture(t, "00000409", "00000407")
	l := f.list()
	de := l.Entries()[1]
	require.True(t, l.Edit(de, de.Locale(), f.layout(t, 0x0409)))

	report := l.Commit()
	assert.True(t, report.OK(), "failures: %v", report.Failures)
	assert.Equal(t, []hkl.Handle{0x04070407}, report.Unloaded)
	assert.Equal(t, []hkl.Handle{0x04090407}, report.Loaded)
	assert.Equal(t, Unchanged, de.State())
	assert.Equal(t, hkl.Handle(0x04090407), de.Handle())
	assert.Equal(t, 2, l.Len())
	assert.Equal(t, map[string]string{"00000407": "00000409"}, f.substitutes(t))
}

func TestCommitIsIdempotent(t *testing.T) {
	f := newFixture(t, "00000409", "00000407")
	l := f.list()
	require.True(t, l.Add(f.locale(t, 0x040C), f.layout(t, 0x0409)))
	l.Remove(l.Entries()[1])

	l.Commit()
	require.Equal(t, []string{"00000409", "0000040C"}, f.preload(t))
	first := f.preload(t)
	firstSubs := f.substitutes(t)

	report := l.Commit()
	assert.Equal(t, first, f.preload(t))
	assert.Equal(t, firstSubs, f.substitutes(t))
	assert.Empty(t, report.Loaded)
	assert.Empty(t, report.Unloaded)
}

func TestCommitWithoutDefault(t *testing.T) {
	f := newFixture(t, "00000409")
	l := New(f.st, f.act, WithBroadcaster(f.rec))
	require.True(t, l.Add(f.locale(t, 0x0407), f.layout(t, 0x0407)))
	require.True(t, l.Add(f.locale(t, 0x040C), f.layout(t, 0x040C)))

	report := l.Commit()
	assert.True(t, report.OK(), "failures: %v", report.Failures)
	assert.Equal(t, []string{"00000407", "0000040C"}, f.preload(t))
	assert.False(t, report.Default.Valid())
	assert.Empty(t, f.rec.Sent)
}

func TestCommitEmptyList(t *testing.T) {
	f := newFixture(t, "00000409")
	require.NoError(t, f.st.Reset())
	require.NoError(t, f.st.SetPreload(1, "00000409"))

	report := New(f.st, f.act).Commit()
	assert.True(t, report.OK())
	assert.Empty(t, f.preload(t))
}

func TestCommitUnloadFailureKeepsEntry(t *testing.T) {
	cat, err := catalog.Builtin()
	require.NoError(t, err)
	st := store.NewMemory()

	act := &mockActivator{}
	act.On("Active").Return([]hkl.Handle{0x04090409, 0x04070407}, nil)
	act.On("Default").Return(hkl.Handle(0x04090409), nil)
	act.On("Deactivate", hkl.Handle(0x04070407)).Return(errBoom)
	act.On("SetDefault", hkl.Handle(0x04090409)).Return(nil)

	l := Create(cat, st, act)
	de := l.Entries()[1]
	l.Remove(de)

	report := l.Commit()
	require.Len(t, report.Failures, 1)
	assert.Equal(t, StepUnload, report.Failures[0].Step)
	assert.ErrorIs(t, report.Failures[0].Err, errBoom)

	assert.Equal(t, 2, l.Len())
	assert.Equal(t, Deleted, de.State())
	assert.Equal(t, hkl.Handle(0x04070407), de.Handle())

	keys, err := st.Preload()
	require.NoError(t, err)
	assert.Equal(t, []string{"00000409", "00000407"}, keys)
	act.AssertExpectations(t)
}

func TestCommitLogLinesCarryRequestID(t *testing.T) {
	cat, err := catalog.Builtin()
	require.NoError(t, err)

	act := &mockActivator{}
	act.On("Active").Return([]hkl.Handle{0x04090409}, nil)
	act.On("Default").Return(hkl.Handle(0x04090409), nil)
	act.On("Deactivate", hkl.Handle(0x04090409)).Return(errBoom)
	act.On("Activate", "00000407", true).Return(hkl.Handle(0), errBoom)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	st := &flakyStore{Memory: store.NewMemory(), failPreload: map[string]bool{"00000407": true}}

	l := Create(cat, st, act, WithLogger(logger))
	l.Remove(l.Entries()[0])
	require.True(t, l.Add(cat.FindLocale(0x0407), cat.FindLayout(0x0407)))
	buf.Reset()

	report := l.Commit()
	require.Len(t, report.Failures, 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var warned []string
	for _, line := range lines {
		assert.Contains(t, line, "request_id="+report.ID)
		if strings.Contains(line, "level=WARN") {
			warned = append(warned, line)
		}
	}
	require.Len(t, warned, 3)
	assert.Contains(t, warned[0], "unload input method")
	assert.Contains(t, warned[1], "write preload")
	assert.Contains(t, warned[2], "load input method")
	act.AssertExpectations(t)
}

func TestCommitLoadFailureContinues(t *testing.T) {
	cat, err := catalog.Builtin()
	require.NoError(t, err)
	st := store.NewMemory()

	act := &mockActivator{}
	act.On("Active").Return([]hkl.Handle{0x04090409}, nil)
	act.On("Default").Return(hkl.Handle(0x04090409), nil)
	act.On("SetDefault", hkl.Handle(0x04090409)).Return(errBoom)
	act.On("Activate", "00000407", true).Return(hkl.Handle(0), errBoom)
	act.On("Activate", "0000040C", true).Return(hkl.Handle(0x040C040C), nil)

	l := Create(cat, st, act)
	require.True(t, l.Add(cat.FindLocale(0x0407), cat.FindLayout(0x0407)))
	require.True(t, l.Add(cat.FindLocale(0x040C), cat.FindLayout(0x040C)))

	report := l.Commit()
	require.Len(t, report.Failures, 2)
	assert.Equal(t, StepDefault, report.Failures[0].Step)
	assert.Equal(t, StepLoad, report.Failures[1].Step)
	assert.Equal(t, "00000407", report.Failures[1].Key)

	entries := l.Entries()
	assert.Equal(t, Added, entries[1].State(), "failed load stays pending")
	assert.Equal(t, Unchanged, entries[2].State())
	assert.Equal(t, []hkl.Handle{0x040C040C}, report.Loaded)

	keys, err := st.Preload()
	require.NoError(t, err)
	assert.Equal(t, []string{"00000409", "00000407", "0000040C"}, keys)
	act.AssertExpectations(t)
}

func TestCommitStoreFailures(t *testing.T) {
	t.Run("reset", func(t *testing.T) {
		f := newFixture(t, "00000409", "00000407")
		st := &flakyStore{Memory: f.st, resetErr: errBoom}
		l := Create(f.cat, st, f.act, WithBroadcaster(f.rec))
		l.Remove(l.Entries()[1])
		require.True(t, l.Add(f.locale(t, 0x040C), f.layout(t, 0x040C)))

		report := l.Commit()
		require.Len(t, report.Failures, 1)
		assert.Equal(t, StepPrepare, report.Failures[0].Step)

		// Unloading still happened; nothing was written or loaded afterwards.
		assert.Equal(t, []hkl.Handle{0x04070407}, report.Unloaded)
		assert.Equal(t, 2, l.Len())
		assert.Empty(t, report.Preload)
		assert.Empty(t, report.Loaded)
		assert.Empty(t, f.rec.Sent)
	})

	t.Run("preload", func(t *testing.T) {
		f := newFixture(t, "00000409", "00000407", "00000411")
		st := &flakyStore{Memory: f.st, failPreload: map[string]bool{"00000407": true}}
		l := Create(f.cat, st, f.act)

		report := l.Commit()
		require.Len(t, report.Failures, 1)
		assert.Equal(t, StepPreload, report.Failures[0].Step)
		assert.Equal(t, []string{"00000409", "00000411"}, f.preload(t))
	})
}

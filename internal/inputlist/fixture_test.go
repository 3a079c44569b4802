package inputlist

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"inputprefs/internal/activation"
	"inputprefs/internal/catalog"
	"inputprefs/internal/hkl"
	"inputprefs/internal/store"
)

var errBoom = errors.New("boom")

type fixture struct {
	cat *catalog.Catalog
	st  *store.Memory
	act *activation.Session
	rec *activation.Recorder
}

// newFixture returns a live session with keys loaded in order; the first key is
// the system default.
func newFixture(t *testing.T, keys ...string) *fixture {
	t.Helper()
	cat, err := catalog.Builtin()
	require.NoError(t, err)
	_, err = cat.AddLayout(catalog.Layout{ID: 0xE0010409, Name: "Test IME"})
	require.NoError(t, err)

	st := store.NewMemory()
	act := activation.NewSession(cat, st, nil)
	act.Bootstrap(keys, "")

	return &fixture{cat: cat, st: st, act: act, rec: &activation.Recorder{}}
}

func (f *fixture) list() *List {
	return Create(f.cat, f.st, f.act, WithBroadcaster(f.rec))
}

func (f *fixture) locale(t *testing.T, id uint32) *catalog.Locale {
	t.Helper()
	l := f.cat.FindLocale(id)
	require.NotNil(t, l)
	return l
}

func (f *fixture) layout(t *testing.T, id uint32) *catalog.Layout {
	t.Helper()
	l := f.cat.FindLayout(id)
	require.NotNil(t, l)
	return l
}

func (f *fixture) preload(t *testing.T) []string {
	t.Helper()
	keys, err := f.st.Preload()
	require.NoError(t, err)
	return keys
}

func (f *fixture) substitutes(t *testing.T) map[string]string {
	t.Helper()
	subs, err := f.st.Substitutes()
	require.NoError(t, err)
	return subs
}

type mockActivator struct {
	mock.Mock
}

func (m *mockActivator) Active() ([]hkl.Handle, error) {
	args := m.Called()
	return args.Get(0).([]hkl.Handle), args.Error(1)
}

func (m *mockActivator) Default() (hkl.Handle, error) {
	args := m.Called()
	return args.Get(0).(hkl.Handle), args.Error(1)
}

func (m *mockActivator) ThreadLayout() hkl.Handle {
	return m.Called().Get(0).(hkl.Handle)
}

func (m *mockActivator) Activate(key string, substitute bool) (hkl.Handle, error) {
	args := m.Called(key, substitute)
	return args.Get(0).(hkl.Handle), args.Error(1)
}

func (m *mockActivator) Deactivate(h hkl.Handle) error {
	return m.Called(h).Error(0)
}

func (m *mockActivator) SetDefault(h hkl.Handle) error {
	return m.Called(h).Error(0)
}

// flakyStore fails selected operations of an otherwise working memory store.
type flakyStore struct {
	*store.Memory
	resetErr    error
	failPreload map[string]bool
}

func (s *flakyStore) Reset() error {
	if s.resetErr != nil {
		return s.resetErr
	}
	return s.Memory.Reset()
}

func (s *flakyStore) SetPreload(position int, key string) error {
	if s.failPreload[key] {
		return errBoom
	}
	return s.Memory.SetPreload(position, key)
}

func defaults(l *List) []*Entry {
	var out []*Entry
	for _, e := range l.Entries() {
		if e.IsDefault() {
			out = append(out, e)
		}
	}
	return out
}

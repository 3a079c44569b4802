package activation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inputprefs/internal/catalog"
	"inputprefs/internal/hkl"
	"inputprefs/internal/store"
)

func newTestSession(t *testing.T) (*Session, *store.Memory) {
	t.Helper()
	cat, err := catalog.Builtin()
	require.NoError(t, err)
	st := store.NewMemory()
	require.NoError(t, st.Reset())
	return NewSession(cat, st, nil), st
}

func TestSessionActivate(t *testing.T) {
	s, st := newTestSession(t)

	h, err := s.Activate("00000409", true)
	require.NoError(t, err)
	assert.Equal(t, hkl.Handle(0x04090409), h)

	// Loading the same key twice yields the same handle once.
	again, err := s.Activate("00000409", false)
	require.NoError(t, err)
	assert.Equal(t, h, again)

	ime, err := s.Activate("E0010411", true)
	require.NoError(t, err)
	assert.Equal(t, hkl.Handle(0xE0010411), ime)

	require.NoError(t, st.SetSubstitute("00000407", "00010409"))
	sub, err := s.Activate("00000407", true)
	require.NoError(t, err)
	assert.Equal(t, hkl.Handle(0xF0020407), sub)

	plain, err := s.Activate("00000407", false)
	require.NoError(t, err)
	assert.Equal(t, hkl.Handle(0x04070407), plain)

	active, err := s.Active()
	require.NoError(t, err)
	assert.Equal(t, []hkl.Handle{0x04090409, 0xE0010411, 0xF0020407, 0x04070407}, active)

	_, err = s.Activate("0000FFFF", true)
	assert.ErrorIs(t, err, ErrUnknownKey)
	_, err = s.Activate("not-a-key", true)
	assert.Error(t, err)
}

func TestSessionDefaultAndDeactivate(t *testing.T) {
	s, _ := newTestSession(t)

	_, err := s.Default()
	assert.ErrorIs(t, err, ErrNoDefault)
	assert.False(t, s.ThreadLayout().Valid())

	us, err := s.Activate("00000409", true)
	require.NoError(t, err)
	de, err := s.Activate("00000407", true)
	require.NoError(t, err)

	assert.Equal(t, us, s.ThreadLayout())
	assert.ErrorIs(t, s.SetDefault(0x04190419), ErrNotLoaded)
	require.NoError(t, s.SetDefault(de))

	def, err := s.Default()
	require.NoError(t, err)
	assert.Equal(t, de, def)

	require.NoError(t, s.Deactivate(de))
	def, err = s.Default()
	require.NoError(t, err)
	assert.Equal(t, us, def)

	assert.ErrorIs(t, s.Deactivate(de), ErrNotLoaded)
	assert.ErrorIs(t, s.Deactivate(us), ErrLastMethod)
}

func TestSessionPersistence(t *testing.T) {
	s, st := newTestSession(t)
	s.Bootstrap([]string{"00000407", "00000409", "0000FFFF"}, "00000409")

	active, err := s.Active()
	require.NoError(t, err)
	assert.Equal(t, []hkl.Handle{0x04070407, 0x04090409}, active)
	def, err := s.Default()
	require.NoError(t, err)
	assert.Equal(t, hkl.Handle(0x04070407), def)

	require.NoError(t, s.Save(st))

	restored, _ := newTestSession(t)
	require.NoError(t, restored.Restore(st))
	active, err = restored.Active()
	require.NoError(t, err)
	assert.Equal(t, []hkl.Handle{0x04070407, 0x04090409}, active)

	// Bootstrap never overrides a restored live set.
	restored.Bootstrap(nil, "00000411")
	active, _ = restored.Active()
	assert.Len(t, active, 2)
}

func TestSessionBootstrapFallback(t *testing.T) {
	s, _ := newTestSession(t)
	s.Bootstrap(nil, "00000409")

	def, err := s.Default()
	require.NoError(t, err)
	assert.Equal(t, hkl.Handle(0x04090409), def)
}

func TestRecorder(t *testing.T) {
	var r Recorder
	require.NoError(t, r.InputLanguageChanged(0x04090409))
	assert.Equal(t, []hkl.Handle{0x04090409}, r.Sent)
	assert.NoError(t, LogBroadcaster{}.InputLanguageChanged(0x04090409))
}

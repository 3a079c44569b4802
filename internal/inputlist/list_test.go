package inputlist

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inputprefs/internal/catalog"
	"inputprefs/internal/hkl"
	"inputprefs/internal/store"
)

func TestCreateFromLiveSet(t *testing.T) {
	f := newFixture(t, "00000409", "00000407")
	l := f.list()

	entries := l.Entries()
	require.Len(t, entries, 2)

	us := entries[0]
	assert.Equal(t, uint32(0x0409), us.Locale().ID)
	assert.Equal(t, uint32(0x0409), us.Layout().ID)
	assert.Equal(t, "EN", us.Indicator())
	assert.Equal(t, hkl.Handle(0x04090409), us.Handle())
	assert.Equal(t, Unchanged, us.State())
	assert.True(t, us.IsDefault())

	de := entries[1]
	assert.Equal(t, "DE", de.Indicator())
	assert.False(t, de.IsDefault())
	assert.Same(t, us, l.Default())
}

func TestCreateSkipsUnknownAndFallsBackToThreadLayout(t *testing.T) {
	cat, err := catalog.Builtin()
	require.NoError(t, err)

	act := &mockActivator{}
	act.On("Active").Return([]hkl.Handle{0x04090409, 0xABCD0409, 0x04070407, 0x04090001}, nil)
	act.On("Default").Return(hkl.Handle(0), errBoom)
	act.On("ThreadLayout").Return(hkl.Handle(0x04070407))

	l := Create(cat, store.NewMemory(), act)
	entries := l.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, hkl.Handle(0x04090409), entries[0].Handle())
	assert.Equal(t, hkl.Handle(0x04070407), entries[1].Handle())
	assert.True(t, entries[1].IsDefault())
	assert.False(t, entries[0].IsDefault())
	act.AssertExpectations(t)
}

func TestCreateCollapsesDuplicatePairs(t *testing.T) {
	cat, err := catalog.Builtin()
	require.NoError(t, err)

	act := &mockActivator{}
	act.On("Active").Return([]hkl.Handle{0x04090409, 0x04070407, 0x00000409}, nil)
	act.On("Default").Return(hkl.Handle(0x00000409), nil)

	l := Create(cat, store.NewMemory(), act)
	entries := l.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, hkl.Handle(0x04090409), entries[0].Handle())
	assert.Equal(t, hkl.Handle(0x04070407), entries[1].Handle())

	// The default lands on the entry that kept the pair.
	assert.Same(t, entries[0], l.Default())
	assert.Len(t, defaults(l), 1)
	act.AssertExpectations(t)
}

func TestCreateWithUnreadableLiveSet(t *testing.T) {
	cat, err := catalog.Builtin()
	require.NoError(t, err)

	act := &mockActivator{}
	act.On("Active").Return([]hkl.Handle(nil), errBoom)

	l := Create(cat, store.NewMemory(), act)
	assert.Zero(t, l.Len())
	assert.Nil(t, l.Default())
}

func TestAdd(t *testing.T) {
	f := newFixture(t, "00000409")
	l := f.list()
	us := f.locale(t, 0x0409)
	jp := f.layout(t, 0x0411)

	assert.False(t, l.Add(nil, jp))
	assert.False(t, l.Add(us, nil))
	assert.False(t, l.Add(us, f.layout(t, 0x0409)), "pair already installed")
	assert.Equal(t, 1, l.Len())

	require.True(t, l.Add(us, jp))
	assert.False(t, l.Add(us, jp))
	require.Equal(t, 2, l.Len())

	e := l.Entries()[1]
	assert.Equal(t, Added, e.State())
	assert.False(t, e.IsDefault())
	assert.False(t, e.Handle().Valid())
	assert.Equal(t, "EN", e.Indicator())
	assert.Same(t, e, l.Find(us, jp))
}

func TestRemove(t *testing.T) {
	f := newFixture(t, "00000409", "00000407")
	l := f.list()
	us, de := l.Entries()[0], l.Entries()[1]

	l.Remove(nil)
	assert.Equal(t, 2, l.Len())

	require.True(t, l.Add(f.locale(t, 0x0411), f.layout(t, 0x0411)))
	added := l.Entries()[2]
	l.Remove(added)
	assert.Equal(t, 2, l.Len(), "pending addition is dropped outright")
	assert.Nil(t, l.Find(f.locale(t, 0x0411), f.layout(t, 0x0411)))

	l.Remove(de)
	assert.Equal(t, 2, l.Len())
	assert.Equal(t, Deleted, de.State())
	assert.True(t, us.IsDefault())

	// Entries not in the list are ignored.
	l.Remove(added)
	assert.Equal(t, 2, l.Len())
}

func TestRemoveDefaultPromotes(t *testing.T) {
	f := newFixture(t, "00000409", "00000407", "00000411")

	t.Run("next", func(t *testing.T) {
		l := f.list()
		a, b := l.Entries()[0], l.Entries()[1]
		l.Remove(a)
		assert.False(t, a.IsDefault())
		assert.Equal(t, []*Entry{b}, defaults(l))
	})

	t.Run("previous", func(t *testing.T) {
		l := f.list()
		b, c := l.Entries()[1], l.Entries()[2]
		l.SetDefault(c)
		l.Remove(c)
		assert.Equal(t, []*Entry{b}, defaults(l))
	})

	t.Run("skips deleted", func(t *testing.T) {
		l := f.list()
		a, b, c := l.Entries()[0], l.Entries()[1], l.Entries()[2]
		l.Remove(b)
		l.Remove(a)
		assert.Equal(t, []*Entry{c}, defaults(l))
	})

	t.Run("added default", func(t *testing.T) {
		l := f.list()
		require.True(t, l.Add(f.locale(t, 0x0409), f.layout(t, 0x0411)))
		added := l.Entries()[3]
		l.SetDefault(added)
		l.Remove(added)
		assert.Equal(t, 3, l.Len())
		assert.Equal(t, []*Entry{l.Entries()[2]}, defaults(l))
	})

	t.Run("last entry", func(t *testing.T) {
		l := New(f.st, f.act)
		require.True(t, l.Add(f.locale(t, 0x0409), f.layout(t, 0x0409)))
		e := l.Entries()[0]
		l.SetDefault(e)
		l.Remove(e)
		assert.Zero(t, l.Len())
		assert.Nil(t, l.Default())
	})
}

func TestSetDefault(t *testing.T) {
	f := newFixture(t, "00000409", "00000407", "00000411")
	l := f.list()
	entries := l.Entries()

	l.SetDefault(nil)
	assert.Equal(t, []*Entry{entries[0]}, defaults(l))

	l.SetDefault(entries[2])
	assert.Equal(t, []*Entry{entries[2]}, defaults(l))

	l.SetDefault(entries[1])
	assert.Equal(t, []*Entry{entries[1]}, defaults(l))

	other := f.list().Entries()[0]
	l.SetDefault(other)
	assert.Equal(t, []*Entry{entries[1]}, defaults(l), "foreign entries are ignored")
}

func TestEdit(t *testing.T) {
	f := newFixture(t, "00000409", "00000407")
	l := f.list()
	us, de := l.Entries()[0], l.Entries()[1]
	fr := f.locale(t, 0x040C)
	frLayout := f.layout(t, 0x040C)

	assert.False(t, l.Edit(nil, fr, frLayout))
	assert.False(t, l.Edit(de, nil, frLayout))
	assert.False(t, l.Edit(de, fr, nil))
	assert.False(t, l.Edit(de, us.Locale(), us.Layout()), "pair held by another entry")

	assert.True(t, l.Edit(de, de.Locale(), de.Layout()))
	assert.Equal(t, Unchanged, de.State())

	require.True(t, l.Edit(de, fr, frLayout))
	assert.Equal(t, Edited, de.State())
	assert.Equal(t, "FR", de.Indicator())
	assert.Equal(t, hkl.Handle(0x04070407), de.Handle())

	require.True(t, l.Add(f.locale(t, 0x0411), f.layout(t, 0x0411)))
	added := l.Entries()[2]
	require.True(t, l.Edit(added, f.locale(t, 0x0412), f.layout(t, 0x0412)))
	assert.Equal(t, Added, added.State())
	assert.Equal(t, "KO", added.Indicator())

	l.Remove(us)
	assert.False(t, l.Edit(us, fr, f.layout(t, 0x0409)), "deleted entries cannot be edited")
}

func TestDestroy(t *testing.T) {
	f := newFixture(t, "00000409", "00000407")
	l := f.list()
	l.Destroy()
	assert.Zero(t, l.Len())
	assert.Nil(t, l.Default())
	assert.Empty(t, l.Entries())
}

// TestListInvariants drives random Add, Edit, Remove and SetDefault sequences
// and checks pair uniqueness and the single default after every step.
func TestListInvariants(t *testing.T) {
	f := newFixture(t, "00000409", "00000407")
	l := f.list()

	locales := []*catalog.Locale{
		f.locale(t, 0x0409), f.locale(t, 0x0407), f.locale(t, 0x0411), f.locale(t, 0x040C),
	}
	layouts := []*catalog.Layout{
		f.layout(t, 0x0409), f.layout(t, 0x0407), f.layout(t, 0xE0010411),
	}
	rng := rand.New(rand.NewSource(7))
	pick := func() *Entry {
		if l.Len() == 0 {
			return nil
		}
		return l.Entries()[rng.Intn(l.Len())]
	}

	for step := 0; step < 2000; step++ {
		switch rng.Intn(4) {
		case 0:
			l.Add(locales[rng.Intn(len(locales))], layouts[rng.Intn(len(layouts))])
		case 1:
			e := pick()
			wasDefault := e != nil && e.IsDefault()
			others := l.Len() - 1
			l.Remove(e)
			if wasDefault && others > 0 {
				assert.Len(t, defaults(l), 1, "step %d: remove kept a single default", step)
			}
		case 2:
			e := pick()
			l.SetDefault(e)
			if e != nil {
				assert.Equal(t, []*Entry{e}, defaults(l), "step %d", step)
			}
		case 3:
			l.Edit(pick(), locales[rng.Intn(len(locales))], layouts[rng.Intn(len(layouts))])
		}

		seen := make(map[[2]uint32]bool)
		for _, e := range l.Entries() {
			pair := [2]uint32{e.Locale().ID, e.Layout().ID}
			require.False(t, seen[pair], "step %d: duplicate pair %v", step, pair)
			seen[pair] = true
		}
		require.LessOrEqual(t, len(defaults(l)), 1, "step %d", step)
	}
}

package aural

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSourceManagerHandleAssignment(t *testing.T) {
	m := NewSourceManager()

	a := m.AddSource()
	b := m.AddSource()
	c := m.AddSource()

	require.Equal(t, SourceHandle(0), a.Handle())
	require.Equal(t, SourceHandle(1), b.Handle())
	require.Equal(t, SourceHandle(2), c.Handle())
	require.Equal(t, 3, m.NumSources())
}

func TestSourceManagerReusesSmallestFreedHandle(t *testing.T) {
	m := NewSourceManager()

	m.AddSource() // 0
	m.AddSource() // 1
	m.AddSource() // 2
	m.AddSource() // 3

	require.NoError(t, m.RemoveSource(2))
	require.NoError(t, m.RemoveSource(0))

	// The smallest freed handle comes back first.
	require.Equal(t, SourceHandle(0), m.AddSource().Handle())
	require.Equal(t, SourceHandle(2), m.AddSource().Handle())
	// With the heap empty, the counter resumes.
	require.Equal(t, SourceHandle(4), m.AddSource().Handle())
}

func TestSourceManagerLookup(t *testing.T) {
	m := NewSourceManager()
	s := m.AddSource()

	require.Equal(t, s, m.GetSource(s.Handle()))
	require.Nil(t, m.GetSource(99))

	require.NoError(t, m.RemoveSource(s.Handle()))
	require.Nil(t, m.GetSource(s.Handle()), "handles are invalid after removal")
	require.ErrorIs(t, m.RemoveSource(s.Handle()), ErrInvalidHandle)
}

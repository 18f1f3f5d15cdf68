// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func addresses(t *testing.T, s *Store) []string {
	t.Helper()
	entries, err := s.Entries(context.Background())
	require.NoError(t, err)
	var out []string
	for _, e := range entries {
		out = append(out, e.Address)
	}
	return out
}

func TestEmpty(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Current(ctx)
	assert.ErrorIs(t, err, ErrEmpty)
	_, err = s.Back(ctx)
	assert.ErrorIs(t, err, ErrEmpty)
	_, err = s.Forward(ctx)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestBackAndForward(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	for _, a := range []string{"?q=1", "?q=2", "?q=3"} {
		require.NoError(t, s.Push(ctx, a))
	}

	e, err := s.Back(ctx)
	require.NoError(t, err)
	assert.Equal(t, "?q=2", e.Address)
	e, err = s.Back(ctx)
	require.NoError(t, err)
	assert.Equal(t, "?q=1", e.Address)
	_, err = s.Back(ctx)
	assert.ErrorIs(t, err, ErrNoPrevious)

	e, err = s.Forward(ctx)
	require.NoError(t, err)
	assert.Equal(t, "?q=2", e.Address)

	cur, err := s.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "?q=2", cur.Address)
	assert.True(t, cur.Current)
	assert.False(t, cur.Visited.IsZero())
}

func TestPushTruncatesForward(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	for _, a := range []string{"?q=1", "?q=2", "?q=3"} {
		require.NoError(t, s.Push(ctx, a))
	}
	_, err := s.Back(ctx)
	require.NoError(t, err)
	_, err = s.Back(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Push(ctx, "?q=4"))
	assert.Equal(t, []string{"?q=1", "?q=4"}, addresses(t, s))
	_, err = s.Forward(ctx)
	assert.ErrorIs(t, err, ErrNoNext)
}

func TestPushSameAddressIsNoop(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Push(ctx, "?q=1"))
	require.NoError(t, s.Push(ctx, "?q=1"))
	assert.Equal(t, []string{"?q=1"}, addresses(t, s))
}

func TestEntriesMarksCurrent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Push(ctx, "?q=1"))
	require.NoError(t, s.Push(ctx, "?q=2"))
	_, err := s.Back(ctx)
	require.NoError(t, err)

	entries, err := s.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].Current)
	assert.False(t, entries[1].Current)
}

func TestClearAndReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Push(ctx, "?q=1"))
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()
	cur, err := s.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "?q=1", cur.Address)

	require.NoError(t, s.Clear(ctx))
	_, err = s.Current(ctx)
	assert.ErrorIs(t, err, ErrEmpty)
	assert.Empty(t, addresses(t, s))
}

package arena

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArena_New(t *testing.T) {
	t.Run("default region size", func(t *testing.T) {
		a, err := New(0)
		require.NoError(t, err)

		s := a.Stats()
		assert.Equal(t, 1, s.Regions)
		assert.Equal(t, uint64(DefaultRegionSize), s.BytesReserved)
		assert.Equal(t, uint32(1), a.Generation())
	})

	t.Run("limit below first region", func(t *testing.T) {
		_, err := New(1024, WithMaxBytes(512))
		require.ErrorIs(t, err, ErrAllocationFailed)
	})
}

func TestArena_Allocate(t *testing.T) {
	t.Run("zero size", func(t *testing.T) {
		a, err := New(64)
		require.NoError(t, err)

		ref, err := a.Allocate(0)
		require.NoError(t, err)
		assert.True(t, ref.IsZero())
		assert.Nil(t, a.Bytes(ref))
		assert.Equal(t, "", a.String(ref))
		assert.True(t, a.Valid(ref))
		assert.Zero(t, a.Stats().Allocs)
	})

	t.Run("negative size", func(t *testing.T) {
		a, err := New(64)
		require.NoError(t, err)

		_, err = a.Allocate(-1)
		require.ErrorIs(t, err, ErrAllocationFailed)
	})

	t.Run("aligned offsets", func(t *testing.T) {
		a, err := New(64)
		require.NoError(t, err)

		r1, err := a.Allocate(3)
		require.NoError(t, err)
		r2, err := a.Allocate(5)
		require.NoError(t, err)

		assert.Equal(t, uint32(0), r1.Offset)
		assert.Equal(t, uint32(8), r2.Offset)
		assert.Equal(t, uint64(5), a.Stats().BytesWasted)
		assert.Equal(t, uint64(8), a.Stats().BytesUsed)
	})

	t.Run("grows by preferred size", func(t *testing.T) {
		a, err := New(16)
		require.NoError(t, err)

		_, err = a.Allocate(12)
		require.NoError(t, err)
		ref, err := a.Allocate(12)
		require.NoError(t, err)

		assert.Equal(t, uint32(1), ref.Region)
		assert.Equal(t, uint32(0), ref.Offset)
		assert.Equal(t, 2, a.Stats().Regions)
		assert.Equal(t, uint64(32), a.Stats().BytesReserved)
	})

	t.Run("oversized request gets its own region", func(t *testing.T) {
		a, err := New(16)
		require.NoError(t, err)

		ref, err := a.Allocate(100)
		require.NoError(t, err)
		assert.Len(t, a.Bytes(ref), 100)
		assert.Equal(t, uint64(116), a.Stats().BytesReserved)
	})

	t.Run("limit", func(t *testing.T) {
		a, err := New(16, WithMaxBytes(32))
		require.NoError(t, err)

		_, err = a.Allocate(16)
		require.NoError(t, err)
		_, err = a.Allocate(16)
		require.NoError(t, err)
		_, err = a.Allocate(1)
		require.ErrorIs(t, err, ErrAllocationFailed)
	})
}

func TestArena_RegionsAreStable(t *testing.T) {
	a, err := New(8)
	require.NoError(t, err)

	first, err := a.Copy([]byte("abcdefgh"))
	require.NoError(t, err)
	before := a.Bytes(first)

	for i := 0; i < 100; i++ {
		_, err := a.Copy([]byte("zzzzzzzz"))
		require.NoError(t, err)
	}

	assert.Equal(t, "abcdefgh", a.String(first))
	assert.Same(t, &before[0], &a.Bytes(first)[0])
}

func TestArena_Release(t *testing.T) {
	a, err := New(16)
	require.NoError(t, err)

	old, err := a.Copy([]byte("hello"))
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		_, err = a.Allocate(16)
		require.NoError(t, err)
	}
	require.Greater(t, a.Stats().Regions, 1)

	a.Release()

	s := a.Stats()
	assert.Equal(t, 1, s.Regions)
	assert.Equal(t, uint64(16), s.BytesReserved)
	assert.Zero(t, s.BytesUsed)
	assert.Equal(t, uint32(2), s.Generation)

	_, err = a.Lookup(old)
	require.ErrorIs(t, err, ErrStaleRef)
	assert.Nil(t, a.Bytes(old))

	fresh, err := a.Copy([]byte("world"))
	require.NoError(t, err)
	assert.Equal(t, uint32(0), fresh.Region)
	assert.Equal(t, "world", a.String(fresh))
}

func TestArena_Free(t *testing.T) {
	a, err := New(16)
	require.NoError(t, err)

	old, err := a.Copy([]byte("x"))
	require.NoError(t, err)

	a.Free()
	assert.Equal(t, Stats{Generation: 2}, a.Stats())
	assert.False(t, a.Valid(old))

	ref, err := a.Copy([]byte("again"))
	require.NoError(t, err)
	assert.Equal(t, "again", a.String(ref))
}

func TestRef_Slice(t *testing.T) {
	a, err := New(64)
	require.NoError(t, err)

	ref, err := a.Copy([]byte("D000001\x00Calcimycin\x00"))
	require.NoError(t, err)

	assert.Equal(t, "D000001", a.String(ref.Slice(0, 7)))
	assert.Equal(t, "Calcimycin", a.String(ref.Slice(8, 10)))
	assert.True(t, ref.Slice(3, 0).IsZero())
	assert.Panics(t, func() { ref.Slice(10, 100) })
}

func TestArena_StaleForeignRef(t *testing.T) {
	a, err := New(64)
	require.NoError(t, err)

	_, err = a.Lookup(Ref{Gen: 1, Region: 5, Len: 1})
	require.ErrorIs(t, err, ErrStaleRef)
	_, err = a.Lookup(Ref{Gen: 1, Offset: 60, Len: 10})
	require.ErrorIs(t, err, ErrStaleRef)
}

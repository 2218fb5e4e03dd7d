package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/homeinfo/internal/domain"
)

func TestStorage_RoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "k", []byte("v")))
	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", string(v))

	require.NoError(t, s.Remove(ctx, "k"))
	_, ok, _ = s.Get(ctx, "k")
	assert.False(t, ok)
}

func TestStorage_CrossContextDelivery(t *testing.T) {
	hub := NewHub()
	a, b := hub.Open(), hub.Open()
	ctx := context.Background()

	var gotA, gotB []domain.ChangeEvent
	stopA, _ := a.Subscribe("k", func(ev domain.ChangeEvent) { gotA = append(gotA, ev) })
	defer stopA()
	stopB, _ := b.Subscribe("k", func(ev domain.ChangeEvent) { gotB = append(gotB, ev) })
	defer stopB()

	require.NoError(t, a.Set(ctx, "k", []byte("v1")))
	require.NoError(t, a.Set(ctx, "other", []byte("x")))
	require.NoError(t, a.Remove(ctx, "k"))
	require.NoError(t, a.Remove(ctx, "k"))

	assert.Empty(t, gotA, "writer must not see its own changes")
	require.Len(t, gotB, 2)
	assert.Equal(t, "v1", string(gotB[0].NewValue))
	assert.True(t, gotB[1].Removed)
}

func TestStorage_Unsubscribe(t *testing.T) {
	s := New()
	calls := 0
	stop, err := s.Subscribe("k", func(domain.ChangeEvent) { calls++ })
	require.NoError(t, err)
	assert.Equal(t, 1, s.Subscribers())

	s.Emit(domain.ChangeEvent{Key: "k"})
	stop()
	stop()
	s.Emit(domain.ChangeEvent{Key: "k"})

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, s.Subscribers())
}

package projection

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "k", []byte("v"), 0))
		val, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v"), val)
	})

	t.Run("miss", func(t *testing.T) {
		_, err := store.Get(ctx, "absent")
		assert.Error(t, err)
	})

	t.Run("expiry", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "short", []byte("v"), time.Nanosecond))
		time.Sleep(2 * time.Millisecond)
		_, err := store.Get(ctx, "short")
		assert.Error(t, err)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "gone", []byte("v"), 0))
		require.NoError(t, store.Delete(ctx, "gone"))
		_, err := store.Get(ctx, "gone")
		assert.Error(t, err)
	})
}

func TestLicenseStatusProjection(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	p := LicenseStatusProjection{
		TeamID:        "team-1",
		Status:        "active",
		Type:          "monthly",
		Code:          "RH-M123ABC",
		RemainingDays: 12,
	}
	require.NoError(t, UpdateLicenseStatus(ctx, store, p))

	got, err := GetLicenseStatus(ctx, store, "team-1")
	require.NoError(t, err)
	assert.Equal(t, "active", got.Status)
	assert.Equal(t, 12, got.RemainingDays)
	assert.NotEmpty(t, got.UpdatedAt)

	require.NoError(t, InvalidateLicenseStatus(ctx, store, "team-1"))
	_, err = GetLicenseStatus(ctx, store, "team-1")
	assert.Error(t, err)
}

package session_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/courselet/pkg/adapters/memory"
	"github.com/aretw0/courselet/pkg/domain"
	"github.com/aretw0/courselet/pkg/ports"
	"github.com/aretw0/courselet/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_SerializesReadModifyWrite(t *testing.T) {
	store := memory.NewStore()
	manager := session.NewManager(store)
	ctx := context.Background()
	key := "race-test"
	require.NoError(t, manager.Save(ctx, key, []byte{0}))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := manager.WithLock(ctx, key, func(ctx context.Context) error {
				blob, err := store.Load(ctx, key)
				if err != nil {
					return err
				}
				time.Sleep(time.Millisecond)
				return store.Save(ctx, key, []byte{blob[0] + 1})
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	blob, err := manager.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, byte(20), blob[0], "no update lost")
}

func TestManager_LoadMissing(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	_, err := manager.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

type countingLocker struct {
	locks, unlocks atomic.Int32
	ttl            time.Duration
	fail           bool
}

func (l *countingLocker) Lock(_ context.Context, _ string, ttl time.Duration) (ports.UnlockFunc, error) {
	if l.fail {
		return nil, errors.New("lock busy")
	}
	l.ttl = ttl
	l.locks.Add(1)
	return func(context.Context) error {
		l.unlocks.Add(1)
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &countingLocker{}
	manager := session.NewManager(memory.NewStore(), session.WithLocker(locker), session.WithLockTTL(5*time.Second))
	ctx := context.Background()

	require.NoError(t, manager.Save(ctx, "k", []byte("v")))
	_, err := manager.Load(ctx, "k")
	require.NoError(t, err)

	assert.Equal(t, int32(2), locker.locks.Load())
	assert.Equal(t, int32(2), locker.unlocks.Load())
	assert.Equal(t, 5*time.Second, locker.ttl)

	locker.fail = true
	err = manager.Save(ctx, "k", []byte("v"))
	assert.ErrorContains(t, err, "lock busy")
}

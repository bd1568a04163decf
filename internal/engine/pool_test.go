package engine_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/chesscoach/internal/engine"
	"github.com/vytor/chesscoach/internal/eval"
)

func fakeStarter(t *testing.T, started *atomic.Int32) engine.StartFunc {
	return func(ctx context.Context) (*engine.Engine, error) {
		started.Add(1)
		e, _, err := startFake(t, func(f *fakeUCI, cmd string) []string {
			if strings.HasPrefix(cmd, "go") {
				f.crash()
				return nil
			}
			return handshake(f, cmd)
		})
		return e, err
	}
}

func TestPool_AcquireRelease(t *testing.T) {
	var started atomic.Int32
	p, err := engine.NewPool(context.Background(), 2, fakeStarter(t, &started))
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, int32(2), started.Load())
	assert.Equal(t, 2, p.Available())

	e, err := p.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, p.Available())

	p.Release(e)
	assert.Equal(t, 2, p.Available())
}

func TestPool_AcquireBlocksUntilContextDone(t *testing.T) {
	var started atomic.Int32
	p, err := engine.NewPool(context.Background(), 1, fakeStarter(t, &started))
	require.NoError(t, err)
	defer p.Close()

	e, err := p.Acquire(context.Background())
	require.NoError(t, err)
	defer p.Release(e)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = p.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPool_ReplacesBrokenEngine(t *testing.T) {
	var started atomic.Int32
	p, err := engine.NewPool(context.Background(), 1, fakeStarter(t, &started))
	require.NoError(t, err)
	defer p.Close()

	e, err := p.Acquire(context.Background())
	require.NoError(t, err)
	_, err = e.RankedMoves(context.Background(), eval.SearchLimits{Depth: 1, Lines: 1})
	require.Error(t, err)
	require.True(t, e.Broken())

	p.Release(e)
	assert.Equal(t, 0, p.Available())

	fresh, err := p.Acquire(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, e, fresh)
	assert.False(t, fresh.Broken())
	assert.Equal(t, int32(2), started.Load())
	p.Release(fresh)
	assert.Equal(t, 1, p.Available())
}

func TestPool_StartFailure(t *testing.T) {
	boom := errors.New("no such binary")
	_, err := engine.NewPool(context.Background(), 2, func(ctx context.Context) (*engine.Engine, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestPool_ReleaseAfterClose(t *testing.T) {
	var started atomic.Int32
	p, err := engine.NewPool(context.Background(), 1, fakeStarter(t, &started))
	require.NoError(t, err)

	e, err := p.Acquire(context.Background())
	require.NoError(t, err)
	p.Close()
	p.Release(e)

	assert.True(t, e.Broken())
	_, err = p.Acquire(context.Background())
	assert.Error(t, err)
}

func TestPool_Session(t *testing.T) {
	var started atomic.Int32
	p, err := engine.NewPool(context.Background(), 1, fakeStarter(t, &started))
	require.NoError(t, err)
	defer p.Close()

	ev, release, err := p.Session(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, ev.Identity())
	assert.Equal(t, 0, p.Available())

	release()
	assert.Equal(t, 1, p.Available())
}

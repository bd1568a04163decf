package worker_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/chesscoach/internal/worker"
)

type funcJob struct {
	name string
	fn   func(context.Context) error
}

func (j funcJob) Name() string                  { return j.name }
func (j funcJob) Run(ctx context.Context) error { return j.fn(ctx) }

type recordingAnalyzer struct {
	mu    sync.Mutex
	calls []string
	done  chan struct{}
}

func (r *recordingAnalyzer) AnalyzeGame(ctx context.Context, gameID int64, deep bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if deep {
		r.calls = append(r.calls, "deep")
	} else {
		r.calls = append(r.calls, "quick")
	}
	r.done <- struct{}{}
	return nil
}

func TestPool_RunsJobs(t *testing.T) {
	p := worker.NewPool(2, 8)
	p.Start(context.Background())
	defer p.Stop()

	var ran atomic.Int32
	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		require.NoError(t, p.Submit(funcJob{name: "count", fn: func(context.Context) error {
			defer wg.Done()
			ran.Add(1)
			return nil
		}}))
	}
	wg.Wait()
	assert.Equal(t, int32(5), ran.Load())
}

func TestPool_SurvivesFailingAndPanickingJobs(t *testing.T) {
	p := worker.NewPool(1, 4)
	p.Start(context.Background())
	defer p.Stop()

	done := make(chan struct{})
	require.NoError(t, p.Submit(funcJob{name: "fail", fn: func(context.Context) error { return errors.New("boom") }}))
	require.NoError(t, p.Submit(funcJob{name: "panic", fn: func(context.Context) error { panic("oops") }}))
	require.NoError(t, p.Submit(funcJob{name: "ok", fn: func(context.Context) error {
		close(done)
		return nil
	}}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive failing jobs")
	}
}

func TestPool_SubmitQueueFull(t *testing.T) {
	p := worker.NewPool(1, 1)

	noop := funcJob{name: "noop", fn: func(context.Context) error { return nil }}
	require.NoError(t, p.Submit(noop))
	assert.ErrorIs(t, p.Submit(noop), worker.ErrQueueFull)
	assert.Equal(t, 1, p.QueueSize())

	p.Stop()
	assert.ErrorIs(t, p.Submit(noop), worker.ErrPoolStopped)
}

func TestPool_StopCancelsRunningJob(t *testing.T) {
	p := worker.NewPool(1, 1)
	p.Start(context.Background())

	started := make(chan struct{})
	var cancelled atomic.Bool
	require.NoError(t, p.Submit(funcJob{name: "long", fn: func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		cancelled.Store(true)
		return ctx.Err()
	}}))

	<-started
	p.Stop()
	assert.True(t, cancelled.Load())
}

func TestAnalyzeGameJob(t *testing.T) {
	r := &recordingAnalyzer{done: make(chan struct{}, 2)}
	p := worker.NewPool(1, 4)
	p.Start(context.Background())
	defer p.Stop()

	quick := &worker.AnalyzeGameJob{AnalysisService: r, GameID: 7}
	deep := &worker.AnalyzeGameJob{AnalysisService: r, GameID: 7, Deep: true}
	assert.Equal(t, "analyze_game:7", quick.Name())
	assert.Equal(t, "analyze_game_deep:7", deep.Name())

	require.NoError(t, p.Submit(quick))
	require.NoError(t, p.Submit(deep))
	<-r.done
	<-r.done

	r.mu.Lock()
	defer r.mu.Unlock()
	assert.Equal(t, []string{"quick", "deep"}, r.calls)
}

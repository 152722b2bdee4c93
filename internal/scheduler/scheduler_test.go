package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"anzsco-lookup/internal/quality"
	"anzsco-lookup/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeRefresher struct {
	calls atomic.Int32
	err   error
}

func (f *fakeRefresher) Refresh(context.Context) (usecase.RefreshResult, error) {
	f.calls.Add(1)
	return usecase.RefreshResult{}, f.err
}

type fakeChecker struct {
	calls atomic.Int32
}

func (f *fakeChecker) Check(context.Context) (quality.QuickReport, bool) {
	f.calls.Add(1)
	return quality.QuickReport{}, true
}

func TestScheduler_AddAndRunNow(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := New(zap.New(core))
	r := &fakeRefresher{}
	c := &fakeChecker{}

	require.NoError(t, s.Add(JobRefresh, "@every 24h", RefreshJob(r)))
	require.NoError(t, s.Add(JobQuality, "@hourly", QualityJob(c)))
	assert.Error(t, s.Add(JobQuality, "@hourly", QualityJob(c)), "duplicate name")
	assert.Error(t, s.Add("bad", "not a spec", QualityJob(c)))
	assert.Error(t, s.Add("nil", "@hourly", nil))

	require.NoError(t, s.RunNow(JobRefresh))
	require.NoError(t, s.RunNow(JobQuality))
	assert.Error(t, s.RunNow("missing"))

	assert.Equal(t, int32(1), r.calls.Load())
	assert.Equal(t, int32(1), c.calls.Load())
	assert.Equal(t, 2, logs.FilterMessage("[Scheduler] job done").Len())
}

func TestScheduler_LogsOutcomes(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := New(zap.New(core))

	require.NoError(t, s.Add("busy", "@hourly", RefreshJob(&fakeRefresher{err: usecase.ErrRefreshInProgress})))
	require.NoError(t, s.Add("broken", "@hourly", RefreshJob(&fakeRefresher{err: errors.New("boom")})))
	require.NoError(t, s.RunNow("busy"))
	require.NoError(t, s.RunNow("broken"))

	assert.Equal(t, 1, logs.FilterMessage("[Scheduler] job skipped").Len())
	failed := logs.FilterMessage("[Scheduler] job failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "broken", failed[0].ContextMap()["job"])
}

func TestScheduler_FiresOnSchedule(t *testing.T) {
	s := New(nil)
	r := &fakeRefresher{}
	require.NoError(t, s.Add(JobRefresh, "@every 1s", RefreshJob(r)))

	s.Start()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.Stop(ctx)
	}()

	require.Eventually(t, func() bool { return r.calls.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
}

package ingest

import (
	"clanwatch/internal/models"
	"clanwatch/internal/services"
	"clanwatch/internal/snapshot"
	"clanwatch/internal/structures"
	"clanwatch/internal/testutil"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRunner struct {
	mu      sync.Mutex
	calls   int
	err     error
	block   chan struct{}
	started chan struct{}
	store   *testutil.MockStore
}

func (r *stubRunner) Run(_ context.Context) (*RunReport, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if r.started != nil {
		close(r.started)
	}
	if r.block != nil {
		<-r.block
	}
	if r.err != nil {
		return nil, r.err
	}
	if r.store != nil {
		r.store.MustPut(snapshot.DatasetMembers, []models.ClanMember{{MemberName: "Alice"}})
	}
	return &RunReport{RunID: "run"}, nil
}

func schedulerConfig() *structures.Config {
	return &structures.Config{
		Clan:      structures.ClanConfig{Name: "Lorem"},
		Analytics: structures.AnalyticsConfig{Timezone: "America/Los_Angeles", OfflineThresholdHours: 12},
		Schedule:  structures.ScheduleConfig{Enabled: true, Interval: time.Hour},
	}
}

func newTestScheduler(t *testing.T, runner *stubRunner, store *testutil.MockStore) (*Scheduler, services.AnalyticsServiceInterface) {
	t.Helper()
	conf := schedulerConfig()
	logger := &testutil.MockLogger{}
	svc, err := services.NewAnalyticsService(conf, store, logger, &testutil.MockMetrics{})
	require.NoError(t, err)
	s := newScheduler(conf, logger, svc, runner)
	t.Cleanup(s.Stop)
	return s, svc
}

func TestScheduler_RestoreLoadsStore(t *testing.T) {
	store := testutil.NewMockStore()
	store.MustPut(snapshot.DatasetMembers, []models.ClanMember{{MemberName: "Alice"}, {MemberName: "Bob"}})
	s, svc := newTestScheduler(t, &stubRunner{}, store)

	require.NoError(t, s.Restore())
	assert.Len(t, svc.Members(12), 2)
}

func TestScheduler_RestoreCorruptStore(t *testing.T) {
	store := testutil.NewMockStore()
	require.NoError(t, store.PutRaw(snapshot.DatasetMembers, []byte("not json")))
	s, _ := newTestScheduler(t, &stubRunner{}, store)

	assert.Error(t, s.Restore())
}

func TestScheduler_RunOnceReloadsService(t *testing.T) {
	store := testutil.NewMockStore()
	runner := &stubRunner{store: store}
	s, svc := newTestScheduler(t, runner, store)

	require.NoError(t, s.RunOnce(context.Background()))

	assert.Equal(t, 1, runner.calls)
	assert.Equal(t, int64(1), svc.Generation())
	assert.Len(t, svc.Members(12), 1)
}

func TestScheduler_RunOnceFailureSkipsReload(t *testing.T) {
	runner := &stubRunner{err: errors.New("API 500")}
	s, svc := newTestScheduler(t, runner, testutil.NewMockStore())

	assert.EqualError(t, s.RunOnce(context.Background()), "API 500")
	assert.Equal(t, int64(0), svc.Generation())
	assert.False(t, s.running.Load())
}

func TestScheduler_RejectsOverlappingRuns(t *testing.T) {
	runner := &stubRunner{block: make(chan struct{}), started: make(chan struct{})}
	s, _ := newTestScheduler(t, runner, testutil.NewMockStore())

	done := make(chan error, 1)
	go func() { done <- s.RunOnce(context.Background()) }()
	<-runner.started

	assert.ErrorIs(t, s.RunOnce(context.Background()), ErrRunInProgress)

	close(runner.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, runner.calls)
}

func TestScheduler_InitDisabled(t *testing.T) {
	s, _ := newTestScheduler(t, &stubRunner{}, testutil.NewMockStore())
	s.config.Schedule.Enabled = false

	s.Init()
	assert.Nil(t, s.cron)
}

func TestScheduler_InitStartsCron(t *testing.T) {
	s, _ := newTestScheduler(t, &stubRunner{}, testutil.NewMockStore())

	s.Init()
	require.NotNil(t, s.cron)
	s.Stop()
	assert.Nil(t, s.cron)
	assert.Error(t, s.ctx.Err())
}

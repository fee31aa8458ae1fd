package services

import (
	"clanwatch/internal/analytics"
	"clanwatch/internal/models"
	"clanwatch/internal/snapshot"
	"clanwatch/internal/structures"
	"clanwatch/internal/testutil"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func writeLevels(t *testing.T) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("# level,xp,diff\n")
	for level := 1; level <= 120; level++ {
		fmt.Fprintf(&b, "%d,%d,1000\n", level, (level-1)*1000)
	}
	path := filepath.Join(t.TempDir(), "levels.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func testConfig(levelsFile string) *structures.Config {
	return &structures.Config{
		Clan:        structures.ClanConfig{Name: "Lorem"},
		Persistence: structures.Persistence{LevelsFile: levelsFile},
		Analytics: structures.AnalyticsConfig{
			OfflineThresholdHours: 12,
			MemberLogWindow:       200,
			MaxLogRows:            1000,
			Timezone:              "America/Los_Angeles",
		},
	}
}

func seededStore() *testutil.MockStore {
	store := testutil.NewMockStore()
	price := 99.0
	store.MustPut(snapshot.DatasetClan, models.ClanProfile{ClanName: "Lorem", Tag: "LI", LastUpdated: "2024-01-10T00:00:00.000Z"})
	store.MustPut(snapshot.DatasetMeta, models.Meta{ClanName: "Lorem", GeneratedAt: "2024-01-10T00:00:05.000Z", RunID: "run-1"})
	store.MustPut(snapshot.DatasetMembers, []models.ClanMember{
		{MemberName: "Alice", Rank: 1},
		{MemberName: "Bob", Rank: 3},
		{MemberName: "Carol", Rank: 2},
	})
	store.MustPut(snapshot.DatasetProfiles, map[string]*models.MemberProfile{
		"Alice": {HoursOffline: ptr(2.0), TaskNameOnLogout: "Mining", TaskTypeOnLogout: ptr(1), SkillExperiences: map[string]float64{"attack": 99000}},
		"Bob":   {HoursOffline: ptr(20.0), SkillExperiences: map[string]float64{"attack": 50000}},
	})
	store.MustPut(snapshot.DatasetLogs, []*models.LogEntry{
		{ClanName: "Lorem", MemberUsername: "Alice", Timestamp: "2024-01-09T00:00:00Z", Message: "Alice added 100x Gold."},
		{ClanName: "Lorem", MemberUsername: "Bob", Timestamp: "2024-01-08T12:00:00Z", Message: "Bob withdrew 2x Coal"},
		{ClanName: "Lorem", MemberUsername: "Alice", Timestamp: "2024-01-02T00:00:00Z", Message: "Alice added 40x Gold."},
	})
	store.MustPut(snapshot.DatasetMarket, []models.MarketItem{{ID: 368, Name: "exceptional_scroll_of_mining", LowestSellPrice: &price}})
	_ = store.PutRaw(snapshot.MarketItemDataset(368), []byte(`{"averagePrice1Day":100}`))
	return store
}

func newService(t *testing.T, store *testutil.MockStore) (AnalyticsServiceInterface, *testutil.MockMetrics) {
	t.Helper()
	metrics := &testutil.MockMetrics{}
	svc, err := NewAnalyticsService(testConfig(writeLevels(t)), store, &testutil.MockLogger{}, metrics)
	require.NoError(t, err)
	require.NoError(t, svc.Reload())
	return svc, metrics
}

func TestNewAnalyticsService_BadTimezone(t *testing.T) {
	conf := testConfig("")
	conf.Analytics.Timezone = "Nowhere/Special"
	_, err := NewAnalyticsService(conf, testutil.NewMockStore(), &testutil.MockLogger{}, &testutil.MockMetrics{})
	assert.Error(t, err)
}

func TestNewAnalyticsService_MissingLevelsFileWarns(t *testing.T) {
	logger := &testutil.MockLogger{}
	svc, err := NewAnalyticsService(testConfig(filepath.Join(t.TempDir(), "nope.csv")), testutil.NewMockStore(), logger, &testutil.MockMetrics{})
	require.NoError(t, err)
	assert.Equal(t, 1, logger.Count("warn"))
	assert.Empty(t, svc.Members(12))
}

func TestReload_BumpsGenerationAndMetrics(t *testing.T) {
	svc, metrics := newService(t, seededStore())

	assert.Equal(t, int64(1), svc.Generation())
	assert.Equal(t, 3, metrics.Members)
	assert.Equal(t, 3, metrics.Logs)

	require.NoError(t, svc.Reload())
	assert.Equal(t, int64(2), svc.Generation())
}

func TestReload_ErrorKeepsPreviousState(t *testing.T) {
	store := seededStore()
	svc, _ := newService(t, store)

	store.ReadErr = errors.New("disk gone")
	assert.Error(t, svc.Reload())
	assert.Equal(t, int64(1), svc.Generation())
	assert.Len(t, svc.Members(12), 3)
}

func TestOverview(t *testing.T) {
	svc, _ := newService(t, seededStore())

	o := svc.Overview()

	assert.Equal(t, "Lorem", o.ClanName)
	assert.Equal(t, "LI", o.Tag)
	assert.Equal(t, 3, o.MemberCount)
	assert.Equal(t, "2024-01-10T00:00:05.000Z", o.LastUpdated, "meta wins over clan")
	assert.Equal(t, int64(140), *o.TotalGold)
	assert.Equal(t, "run-1", o.RunID)
}

func TestOverview_EmptyStore(t *testing.T) {
	svc, _ := newService(t, testutil.NewMockStore())

	o := svc.Overview()
	assert.Equal(t, "Lorem", o.ClanName)
	assert.Nil(t, o.TotalGold)
	assert.Zero(t, o.MemberCount)
}

func TestMembers(t *testing.T) {
	svc, _ := newService(t, seededStore())

	rows := svc.Members(12)

	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Bob", "Carol", "Alice"}, []string{rows[0].Name, rows[1].Name, rows[2].Name})

	bob := rows[0]
	assert.True(t, bob.Warn)
	assert.Equal(t, analytics.Some(false), bob.Active)
	assert.Nil(t, bob.WeeklyGold)

	carol := rows[1]
	assert.False(t, carol.HoursOffline.Known)
	assert.False(t, carol.Active.Known)
	assert.False(t, carol.Warn)

	alice := rows[2]
	assert.Equal(t, analytics.Some(true), alice.Active)
	require.NotNil(t, alice.WeeklyGold)
	assert.Equal(t, int64(100), *alice.WeeklyGold)
}

func TestAlerts(t *testing.T) {
	svc, _ := newService(t, seededStore())

	alerts := svc.Alerts(12)
	require.Len(t, alerts, 2)
	assert.Equal(t, analytics.AlertOffline, alerts[0].Kind)
	assert.Equal(t, analytics.AlertInactive, alerts[1].Kind)

	assert.Len(t, svc.Alerts(1), 3)
}

func TestLogs_DefaultLimit(t *testing.T) {
	svc, _ := newService(t, seededStore())

	assert.Len(t, svc.Logs(analytics.LogFilter{}), 3)
	assert.Len(t, svc.Logs(analytics.LogFilter{Member: "bob"}), 1)
	assert.Len(t, svc.Logs(analytics.LogFilter{Limit: 2}), 2)
}

func TestGoldWeeks(t *testing.T) {
	svc, _ := newService(t, seededStore())

	weeks := svc.GoldWeeks()
	require.Len(t, weeks, 2)
	assert.Equal(t, "Jan 7, 2024, 4:00 PM - Jan 14, 2024, 4:00 PM", weeks[0].Label)

	rows, ok := svc.GoldWeek(weeks[0].Key)
	require.True(t, ok)
	assert.Equal(t, []analytics.MemberGold{{Member: "Alice", Total: 100}}, rows)

	_, ok = svc.GoldWeek(1)
	assert.False(t, ok)
}

func TestPlayer(t *testing.T) {
	svc, _ := newService(t, seededStore())

	view, err := svc.Player("Alice")
	require.NoError(t, err)

	assert.Equal(t, int64(140), *view.GoldDonated)
	assert.Equal(t, "attack", view.Skills[0].Skill)
	assert.Equal(t, 100, view.Skills[0].Level)
	require.Len(t, view.Items.Deposits, 1)
	assert.Equal(t, int64(140), view.Items.Deposits[0].Total)

	_, err = svc.Player("Carol")
	assert.ErrorIs(t, err, ErrUnknownMember)
}

func TestPlayerEvents(t *testing.T) {
	svc, _ := newService(t, seededStore())

	events, err := svc.PlayerEvents("bob")
	require.ErrorIs(t, err, ErrUnknownMember, "lookup is exact")

	events, err = svc.PlayerEvents("Bob")
	require.NoError(t, err)
	assert.Equal(t, []analytics.ItemEvent{{Timestamp: "2024-01-08T12:00:00Z", Kind: analytics.EventWithdraw, Item: "Coal", Amount: 2}}, events)

	events, err = svc.PlayerEvents("Carol")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestCompare(t *testing.T) {
	svc, _ := newService(t, seededStore())

	cmp, err := svc.Compare("Alice", "Bob")
	require.NoError(t, err)
	assert.Equal(t, analytics.LeaderA, cmp.Skills[0].Leader)
	assert.Equal(t, 51, cmp.Skills[0].B.Level)

	_, err = svc.Compare("Alice", "Carol")
	assert.ErrorIs(t, err, ErrUnknownMember)
}

func TestMarket(t *testing.T) {
	svc, _ := newService(t, seededStore())

	rows := svc.Market()
	require.Len(t, rows, 1)
	assert.Equal(t, "Exceptional Scroll of Mining", rows[0].DisplayName)

	raw, err := svc.MarketItem(368)
	require.NoError(t, err)
	assert.JSONEq(t, `{"averagePrice1Day":100}`, string(raw))

	_, err = svc.MarketItem(1)
	assert.ErrorIs(t, err, ErrUnknownItem)
}

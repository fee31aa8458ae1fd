package controllers

import (
	"clanwatch/internal/analytics"
	"clanwatch/internal/models"
	"clanwatch/internal/services"
	"clanwatch/internal/testutil"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- local mock (scoped to controller tests) ---

type mockService struct {
	generation int64
	reloadErr  error
	reloads    int
	calls      map[string]int

	overview   services.Overview
	members    []services.MemberRow
	alerts     []analytics.Alert
	logs       []*models.LogEntry
	lastFilter analytics.LogFilter
	lastThresh float64
	weeks      []services.GoldWeek
	gold       map[int64][]analytics.MemberGold
	players    map[string]*services.PlayerView
	events     map[string][]analytics.ItemEvent
	market     []analytics.MarketRow
	items      map[int]json.RawMessage
	itemErr    error
}

func newMockService() *mockService {
	return &mockService{
		generation: 1,
		calls:      map[string]int{},
		gold:       map[int64][]analytics.MemberGold{},
		players:    map[string]*services.PlayerView{},
		events:     map[string][]analytics.ItemEvent{},
		items:      map[int]json.RawMessage{},
	}
}

func (m *mockService) Reload() error {
	m.reloads++
	if m.reloadErr != nil {
		return m.reloadErr
	}
	m.generation++
	return nil
}
func (m *mockService) Generation() int64         { return m.generation }
func (m *mockService) DefaultThreshold() float64 { return 12 }
func (m *mockService) Overview() services.Overview {
	m.calls["overview"]++
	return m.overview
}
func (m *mockService) Members(threshold float64) []services.MemberRow {
	m.calls["members"]++
	m.lastThresh = threshold
	return m.members
}
func (m *mockService) Alerts(threshold float64) []analytics.Alert {
	m.lastThresh = threshold
	return m.alerts
}
func (m *mockService) Logs(filter analytics.LogFilter) []*models.LogEntry {
	m.lastFilter = filter
	return m.logs
}
func (m *mockService) GoldWeeks() []services.GoldWeek { return m.weeks }
func (m *mockService) GoldWeek(key int64) ([]analytics.MemberGold, bool) {
	v, ok := m.gold[key]
	return v, ok
}
func (m *mockService) Player(name string) (*services.PlayerView, error) {
	if p, ok := m.players[name]; ok {
		return p, nil
	}
	return nil, services.ErrUnknownMember
}
func (m *mockService) PlayerEvents(name string) ([]analytics.ItemEvent, error) {
	if e, ok := m.events[name]; ok {
		return e, nil
	}
	return nil, services.ErrUnknownMember
}
func (m *mockService) Compare(a, b string) (*analytics.Comparison, error) {
	if _, ok := m.players[a]; !ok {
		return nil, fmt.Errorf("%w: %s", services.ErrUnknownMember, a)
	}
	if _, ok := m.players[b]; !ok {
		return nil, fmt.Errorf("%w: %s", services.ErrUnknownMember, b)
	}
	return &analytics.Comparison{A: a, B: b}, nil
}
func (m *mockService) Market() []analytics.MarketRow { return m.market }
func (m *mockService) MarketItem(id int) (json.RawMessage, error) {
	if m.itemErr != nil {
		return nil, m.itemErr
	}
	if blob, ok := m.items[id]; ok {
		return blob, nil
	}
	return nil, services.ErrUnknownItem
}

// --- helpers ---

func newTestController(svc *mockService) (*ApiController, *testutil.MockCache) {
	cache := testutil.NewMockCache()
	return NewApiController(&testutil.MockLogger{}, svc, cache), cache
}

func serve(handler http.HandlerFunc, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

// --- tests ---

func TestOverview_ReturnsJSONAndCaches(t *testing.T) {
	svc := newMockService()
	svc.overview = services.Overview{ClanName: "Lorem", Tag: "LI", MemberCount: 3}
	ac, cache := newTestController(svc)

	rr := serve(ac.Overview, http.MethodGet, "/overview")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Lorem", resp["clanName"])
	assert.Equal(t, float64(3), resp["memberCount"])
	assert.Nil(t, resp["totalGold"])

	_, ok := cache.Data["g1:overview"]
	assert.True(t, ok)

	serve(ac.Overview, http.MethodGet, "/overview")
	assert.Equal(t, 1, svc.calls["overview"])
}

func TestCache_NewGenerationRecomputes(t *testing.T) {
	svc := newMockService()
	ac, cache := newTestController(svc)

	serve(ac.Overview, http.MethodGet, "/overview")
	require.NoError(t, svc.Reload())
	serve(ac.Overview, http.MethodGet, "/overview")

	assert.Equal(t, 2, svc.calls["overview"])
	assert.Contains(t, cache.Data, "g2:overview")
}

func TestMembers_DefaultThreshold(t *testing.T) {
	svc := newMockService()
	svc.members = []services.MemberRow{{Name: "Bob", Rank: 3, Warn: true}}
	ac, cache := newTestController(svc)

	rr := serve(ac.Members, http.MethodGet, "/members")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 12.0, svc.lastThresh)
	assert.Contains(t, cache.Data, "g1:members:12")

	var resp []map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "Bob", resp[0]["name"])
	assert.Equal(t, true, resp[0]["warn"])
}

func TestMembers_ThresholdParam(t *testing.T) {
	svc := newMockService()
	ac, cache := newTestController(svc)

	rr := serve(ac.Members, http.MethodGet, "/members?threshold=2.5")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 2.5, svc.lastThresh)
	assert.Contains(t, cache.Data, "g1:members:2.5")
}

func TestMembers_BadThreshold(t *testing.T) {
	for _, raw := range []string{"abc", "-1"} {
		svc := newMockService()
		ac, _ := newTestController(svc)

		rr := serve(ac.Members, http.MethodGet, "/members?threshold="+raw)

		assert.Equal(t, http.StatusBadRequest, rr.Code, raw)
		assert.Zero(t, svc.calls["members"])
	}
}

func TestAlerts(t *testing.T) {
	svc := newMockService()
	svc.alerts = []analytics.Alert{{Member: "Bob", Kind: analytics.AlertOffline, Message: "Bob offline 20.0h"}}
	ac, _ := newTestController(svc)

	rr := serve(ac.Alerts, http.MethodGet, "/alerts?threshold=6")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 6.0, svc.lastThresh)
	assert.Contains(t, rr.Body.String(), "Bob offline 20.0h")
}

func TestLogs_ParsesFilter(t *testing.T) {
	svc := newMockService()
	svc.logs = []*models.LogEntry{{MemberUsername: "Alice", Message: "Alice added 5x Gold."}}
	ac, _ := newTestController(svc)

	rr := serve(ac.Logs, http.MethodGet, "/logs?member=ali&message=gold&start=2024-01-01&end=2024-01-31T12:00:00Z")

	require.Equal(t, http.StatusOK, rr.Code)
	f := svc.lastFilter
	assert.Equal(t, "ali", f.Member)
	assert.Equal(t, "gold", f.Message)
	require.NotNil(t, f.Start)
	require.NotNil(t, f.End)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *f.Start)
	assert.Equal(t, time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC), *f.End)
	assert.Contains(t, rr.Body.String(), "Alice added 5x Gold.")
}

func TestLogs_PlainEndDateCoversDay(t *testing.T) {
	svc := newMockService()
	ac, _ := newTestController(svc)

	rr := serve(ac.Logs, http.MethodGet, "/logs?end=2024-01-31")

	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, svc.lastFilter.End)
	assert.Nil(t, svc.lastFilter.Start)
	assert.Equal(t, time.Date(2024, 1, 31, 23, 59, 59, int(999*time.Millisecond), time.UTC), *svc.lastFilter.End)
}

func TestLogs_BadDate(t *testing.T) {
	ac, _ := newTestController(newMockService())

	rr := serve(ac.Logs, http.MethodGet, "/logs?start=yesterday")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGold_ExplicitWeek(t *testing.T) {
	svc := newMockService()
	svc.gold[1704096000000] = []analytics.MemberGold{{Member: "Alice", Total: 100}}
	ac, _ := newTestController(svc)

	rr := serve(ac.Gold, http.MethodGet, "/gold?week=1704096000000")

	require.Equal(t, http.StatusOK, rr.Code)
	var resp []analytics.MemberGold
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, []analytics.MemberGold{{Member: "Alice", Total: 100}}, resp)
}

func TestGold_DefaultsToLatestWeek(t *testing.T) {
	svc := newMockService()
	svc.weeks = []services.GoldWeek{{Key: 2000}, {Key: 1000}}
	svc.gold[2000] = []analytics.MemberGold{{Member: "Bob", Total: 7}}
	ac, cache := newTestController(svc)

	rr := serve(ac.Gold, http.MethodGet, "/gold")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"Bob"`)
	assert.Contains(t, cache.Data, "g1:gold:2000")
}

func TestGold_UnknownWeekIsEmpty(t *testing.T) {
	ac, _ := newTestController(newMockService())

	rr := serve(ac.Gold, http.MethodGet, "/gold?week=42")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestGold_BadWeek(t *testing.T) {
	ac, _ := newTestController(newMockService())

	rr := serve(ac.Gold, http.MethodGet, "/gold?week=last")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGoldWeeks(t *testing.T) {
	svc := newMockService()
	svc.weeks = []services.GoldWeek{{Key: 1000, Label: "Jan 1, 2024, 4:00 PM - Jan 8, 2024, 4:00 PM"}}
	ac, _ := newTestController(svc)

	rr := serve(ac.GoldWeeks, http.MethodGet, "/gold/weeks")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Jan 1, 2024")
}

func TestPlayer(t *testing.T) {
	svc := newMockService()
	svc.players["Alice"] = &services.PlayerView{Name: "Alice", GameMode: "default"}
	ac, _ := newTestController(svc)

	rr := serve(ac.Player, http.MethodGet, "/player?name=Alice")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"gameMode":"default"`)

	rr = serve(ac.Player, http.MethodGet, "/player?name=Nobody")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = serve(ac.Player, http.MethodGet, "/player")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPlayerLogs(t *testing.T) {
	svc := newMockService()
	svc.events["Bob"] = []analytics.ItemEvent{{Timestamp: "2024-01-08T12:00:00Z", Kind: analytics.EventWithdraw, Item: "Coal", Amount: 2}}
	ac, _ := newTestController(svc)

	rr := serve(ac.PlayerLogs, http.MethodGet, "/player/logs?name=Bob")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"item":"Coal"`)

	rr = serve(ac.PlayerLogs, http.MethodGet, "/player/logs?name=Nobody")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCompare(t *testing.T) {
	svc := newMockService()
	svc.players["Alice"] = &services.PlayerView{Name: "Alice"}
	svc.players["Bob"] = &services.PlayerView{Name: "Bob"}
	ac, _ := newTestController(svc)

	rr := serve(ac.Compare, http.MethodGet, "/compare?a=Alice&b=Bob")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"a":"Alice"`)

	rr = serve(ac.Compare, http.MethodGet, "/compare?a=Alice&b=Zed")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "Zed")

	rr = serve(ac.Compare, http.MethodGet, "/compare?a=Alice")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMarket(t *testing.T) {
	svc := newMockService()
	price := 120.0
	svc.market = []analytics.MarketRow{{ID: 368, Name: "exceptional_scroll_of_mining", DisplayName: "Exceptional Scroll Of Mining", LowestSellPrice: &price}}
	ac, _ := newTestController(svc)

	rr := serve(ac.Market, http.MethodGet, "/market")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"lowestSellPrice":120`)
}

func TestMarketItem(t *testing.T) {
	svc := newMockService()
	svc.items[368] = json.RawMessage(`{"averagePrice1Day":100}`)
	ac, cache := newTestController(svc)

	rr := serve(ac.MarketItem, http.MethodGet, "/market/item?id=368")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"averagePrice1Day":100}`, rr.Body.String())
	assert.Empty(t, cache.Data)

	rr = serve(ac.MarketItem, http.MethodGet, "/market/item?id=1")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = serve(ac.MarketItem, http.MethodGet, "/market/item?id=abc")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMarketItem_StoreFailure(t *testing.T) {
	svc := newMockService()
	svc.itemErr = errors.New("disk gone")
	ac, _ := newTestController(svc)

	rr := serve(ac.MarketItem, http.MethodGet, "/market/item?id=368")

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "disk gone")
}

func TestRefresh(t *testing.T) {
	svc := newMockService()
	ac, cache := newTestController(svc)
	serve(ac.Overview, http.MethodGet, "/overview")
	require.Len(t, cache.Data, 1)

	rr := serve(ac.Refresh, http.MethodPost, "/refresh")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, svc.reloads)
	assert.Equal(t, 1, cache.Purges)
	assert.Empty(t, cache.Data)
	assert.JSONEq(t, `{"generation":2}`, rr.Body.String())
}

func TestRefresh_Failure(t *testing.T) {
	svc := newMockService()
	svc.reloadErr = errors.New("corrupt")
	logger := &testutil.MockLogger{}
	cache := testutil.NewMockCache()
	ac := NewApiController(logger, svc, cache)

	rr := serve(ac.Refresh, http.MethodPost, "/refresh")

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, 1, logger.Count("error"))
	assert.Zero(t, cache.Purges)
}

package testutil

import (
	"clanwatch/internal/models"
	"clanwatch/internal/providers"
	"clanwatch/internal/snapshot"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// Count returns how many records were logged at level.
func (m *MockLogger) Count(level string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, l := range m.Logs {
		if l.Level == level {
			n++
		}
	}
	return n
}

// MockMetrics implements providers.MetricsProviderInterface.
type MockMetrics struct {
	mu               sync.Mutex
	Requests         int
	CacheHits        int
	CacheMisses      int
	UpstreamStatuses []int
	RateLimitWaits   []time.Duration
	IngestRuns       []bool
	PersistCalls     int
	Members          int
	Logs             int
}

func (m *MockMetrics) IncRequestsTotal(_ string, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests++
}
func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (m *MockMetrics) IncCacheHits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHits++
}
func (m *MockMetrics) IncCacheMisses() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheMisses++
}
func (m *MockMetrics) IncUpstreamRequests(_ string, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpstreamStatuses = append(m.UpstreamStatuses, status)
}
func (m *MockMetrics) ObserveRateLimitWait(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RateLimitWaits = append(m.RateLimitWaits, d)
}
func (m *MockMetrics) ObserveIngestDuration(_ time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.IngestRuns = append(m.IngestRuns, success)
}
func (m *MockMetrics) ObservePersistenceDuration(_ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PersistCalls++
}
func (m *MockMetrics) SetSnapshotSize(members, logs int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Members, m.Logs = members, logs
}

// MockCache implements providers.CacheProviderInterface.
type MockCache struct {
	mu     sync.Mutex
	Data   map[string][]byte
	Purges int
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[key]
	return val, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
}

func (m *MockCache) Purge() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Purges++
	m.Data = make(map[string][]byte)
}

func (m *MockCache) Len() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.Data))
}

// MockStore is an in-memory snapshot.Store.
type MockStore struct {
	mu      sync.Mutex
	Data    map[string][]byte
	Writes  []string
	PutErr  map[string]error
	ReadErr error
}

func NewMockStore() *MockStore {
	return &MockStore{Data: make(map[string][]byte), PutErr: make(map[string]error)}
}

func (m *MockStore) GetRaw(name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	data, ok := m.Data[name]
	if !ok {
		return nil, snapshot.ErrNotFound
	}
	return data, nil
}

func (m *MockStore) PutRaw(name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.PutErr[name]; err != nil {
		return err
	}
	m.Data[name] = append([]byte(nil), data...)
	m.Writes = append(m.Writes, name)
	return nil
}

func (m *MockStore) Get(name string, out any) error {
	data, err := m.GetRaw(name)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func (m *MockStore) Put(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return m.PutRaw(name, data)
}

func (m *MockStore) List(prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := []string{}
	for name := range m.Data {
		if prefix == "" || strings.HasPrefix(name, prefix+"/") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (m *MockStore) Files() ([]string, error) {
	return m.List("")
}

func (m *MockStore) Dir() string { return "" }

// MustPut seeds the store, panicking on encode errors.
func (m *MockStore) MustPut(name string, v any) {
	if err := m.Put(name, v); err != nil {
		panic(err)
	}
	m.mu.Lock()
	m.Writes = nil
	m.mu.Unlock()
}

// MockGameAPI implements api.GameAPI over canned responses.
type MockGameAPI struct {
	mu         sync.Mutex
	Clan       *models.ClanProfile
	ClanErr    error
	Profiles   map[string]*models.MemberProfile
	ClanLog    []*models.LogEntry
	PlayerLog  map[string][]*models.LogEntry
	Market     map[int]string
	MarketErr  map[int]error
	ProfileErr map[string]error
	Calls      []string
}

func NewMockGameAPI() *MockGameAPI {
	return &MockGameAPI{
		Profiles:   map[string]*models.MemberProfile{},
		PlayerLog:  map[string][]*models.LogEntry{},
		Market:     map[int]string{},
		MarketErr:  map[int]error{},
		ProfileErr: map[string]error{},
	}
}

func (m *MockGameAPI) call(format string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, fmt.Sprintf(format, args...))
}

func (m *MockGameAPI) ClanProfile(_ context.Context, clanName string) (*models.ClanProfile, error) {
	m.call("clan %s", clanName)
	if m.ClanErr != nil {
		return nil, m.ClanErr
	}
	if m.Clan == nil {
		return &models.ClanProfile{ClanName: clanName}, nil
	}
	clan := *m.Clan
	return &clan, nil
}

func (m *MockGameAPI) PlayerProfile(_ context.Context, playerName string) (*models.MemberProfile, error) {
	m.call("profile %s", playerName)
	if err := m.ProfileErr[playerName]; err != nil {
		return nil, err
	}
	if p, ok := m.Profiles[playerName]; ok {
		return p, nil
	}
	return &models.MemberProfile{}, nil
}

func (m *MockGameAPI) ClanLogs(_ context.Context, clanName string, skip, limit int) ([]*models.LogEntry, error) {
	m.call("clan logs %s %d %d", clanName, skip, limit)
	return m.ClanLog, nil
}

func (m *MockGameAPI) PlayerLogs(_ context.Context, playerName string, skip, limit int) ([]*models.LogEntry, error) {
	m.call("player logs %s %d %d", playerName, skip, limit)
	if logs, ok := m.PlayerLog[playerName]; ok {
		return logs, nil
	}
	return []*models.LogEntry{}, nil
}

func (m *MockGameAPI) MarketPrice(_ context.Context, itemID int) (json.RawMessage, error) {
	m.call("market %d", itemID)
	if err := m.MarketErr[itemID]; err != nil {
		return nil, err
	}
	if blob, ok := m.Market[itemID]; ok {
		return json.RawMessage(blob), nil
	}
	return json.RawMessage(`{}`), nil
}

// MockPublisher implements publish.Publisher.
type MockPublisher struct {
	mu    sync.Mutex
	Dates []time.Time
	Err   error
}

func (m *MockPublisher) Publish(_ context.Context, date time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Dates = append(m.Dates, date)
	return m.Err
}

func (m *MockPublisher) Name() string { return "mock" }

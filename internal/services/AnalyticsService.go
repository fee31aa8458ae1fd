package services

import (
	"clanwatch/internal/analytics"
	"clanwatch/internal/models"
	"clanwatch/internal/providers"
	"clanwatch/internal/snapshot"
	"clanwatch/internal/structures"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/atomic"
)

var (
	ErrUnknownMember = errors.New("unknown member")
	ErrUnknownItem   = errors.New("unknown market item")
)

type AnalyticsServiceInterface interface {
	Reload() error
	Generation() int64
	DefaultThreshold() float64
	Overview() Overview
	Members(threshold float64) []MemberRow
	Alerts(threshold float64) []analytics.Alert
	Logs(filter analytics.LogFilter) []*models.LogEntry
	GoldWeeks() []GoldWeek
	GoldWeek(key int64) ([]analytics.MemberGold, bool)
	Player(name string) (*PlayerView, error)
	PlayerEvents(name string) ([]analytics.ItemEvent, error)
	Compare(a, b string) (*analytics.Comparison, error)
	Market() []analytics.MarketRow
	MarketItem(id int) (json.RawMessage, error)
}

type Overview struct {
	ClanName      string   `json:"clanName"`
	Tag           string   `json:"tag"`
	ActivityScore *float64 `json:"activityScore"`
	MemberCount   int      `json:"memberCount"`
	LastUpdated   string   `json:"lastUpdated"`
	TotalGold     *int64   `json:"totalGold"`
	RunID         string   `json:"runId,omitempty"`
}

type MemberRow struct {
	Name         string                      `json:"name"`
	Rank         int                         `json:"rank"`
	HoursOffline analytics.Optional[float64] `json:"hoursOffline"`
	Active       analytics.Optional[bool]    `json:"active"`
	WeeklyGold   *int64                      `json:"weeklyGold"`
	Warn         bool                        `json:"warn"`
}

type GoldWeek struct {
	Key   int64     `json:"key"`
	Start time.Time `json:"start"`
	Label string    `json:"label"`
}

type PlayerView struct {
	Name         string                      `json:"name"`
	HoursOffline analytics.Optional[float64] `json:"hoursOffline"`
	Active       analytics.Optional[bool]    `json:"active"`
	GameMode     string                      `json:"gameMode"`
	GuildName    string                      `json:"guildName"`
	TaskName     string                      `json:"taskName"`
	TaskType     *int                        `json:"taskType"`
	Skills       []analytics.SkillCard       `json:"skills"`
	GoldDonated  *int64                      `json:"goldDonated"`
	Items        analytics.ItemAggregates    `json:"items"`
}

// state is derived from one snapshot and never mutated after build.
type state struct {
	snap *snapshot.Snapshot
	gold analytics.GoldTotals
}

type AnalyticsService struct {
	conf       *structures.Config
	store      snapshot.Store
	logger     providers.Logger
	metrics    providers.MetricsProviderInterface
	levels     *analytics.LevelTable
	clock      *analytics.WeekClock
	mu         sync.RWMutex
	current    *state
	generation atomic.Int64
}

func NewAnalyticsService(conf *structures.Config, store snapshot.Store, logger providers.Logger, metrics providers.MetricsProviderInterface) (AnalyticsServiceInterface, error) {
	clock, err := analytics.NewWeekClock(conf.Analytics.Timezone)
	if err != nil {
		return nil, fmt.Errorf("analytics timezone %q: %w", conf.Analytics.Timezone, err)
	}

	levels := analytics.NewLevelTable(nil)
	if conf.Persistence.LevelsFile != "" {
		table, err := analytics.LoadLevelTable(conf.Persistence.LevelsFile)
		if err != nil {
			logger.Warnf(providers.TypeApp, "Level table unavailable, levels resolve to 0: %s", err)
		} else {
			levels = table
			logger.Infof(providers.TypeApp, "Loaded %d levels from %s", table.Len(), conf.Persistence.LevelsFile)
		}
	}

	return &AnalyticsService{
		conf:    conf,
		store:   store,
		logger:  logger,
		metrics: metrics,
		levels:  levels,
		clock:   clock,
		current: buildState(emptySnapshot(), clock),
	}, nil
}

func emptySnapshot() *snapshot.Snapshot {
	return &snapshot.Snapshot{
		Members:  []models.ClanMember{},
		Profiles: map[string]*models.MemberProfile{},
		Logs:     []*models.LogEntry{},
		Market:   []models.MarketItem{},
	}
}

func buildState(snap *snapshot.Snapshot, clock *analytics.WeekClock) *state {
	return &state{
		snap: snap,
		gold: analytics.AggregateGold(snap.Logs, clock),
	}
}

// Reload rebuilds every derived view from the store and bumps the
// generation so cached responses of the previous snapshot are skipped.
func (s *AnalyticsService) Reload() error {
	snap, err := snapshot.Load(s.store)
	if err != nil {
		return err
	}
	next := buildState(snap, s.clock)

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()

	gen := s.generation.Inc()
	s.metrics.SetSnapshotSize(len(snap.Members), len(snap.Logs))
	s.logger.Infof(providers.TypeApp, "Snapshot loaded: %d members, %d logs (generation %d)", len(snap.Members), len(snap.Logs), gen)
	return nil
}

func (s *AnalyticsService) Generation() int64 {
	return s.generation.Load()
}

func (s *AnalyticsService) DefaultThreshold() float64 {
	return s.conf.Analytics.OfflineThresholdHours
}

func (s *AnalyticsService) view() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func nonZero(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}

func (s *AnalyticsService) Overview() Overview {
	st := s.view()
	o := Overview{
		ClanName:    s.conf.Clan.Name,
		MemberCount: len(st.snap.Members),
		TotalGold:   nonZero(st.gold.TotalAllTime),
	}
	if clan := st.snap.Clan; clan != nil {
		if clan.ClanName != "" {
			o.ClanName = clan.ClanName
		}
		o.Tag = clan.Tag
		o.ActivityScore = clan.ActivityScore
		o.LastUpdated = clan.LastUpdated
	}
	if meta := st.snap.Meta; meta != nil {
		if meta.GeneratedAt != "" {
			o.LastUpdated = meta.GeneratedAt
		}
		o.RunID = meta.RunID
	}
	return o
}

// Members lists the roster by rank, highest first.
func (s *AnalyticsService) Members(threshold float64) []MemberRow {
	st := s.view()
	weekly := st.gold.LatestWeek()

	members := make([]models.ClanMember, len(st.snap.Members))
	copy(members, st.snap.Members)
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].Rank > members[j].Rank
	})

	rows := make([]MemberRow, 0, len(members))
	for _, member := range members {
		profile, _ := st.snap.Profile(member.MemberName)
		status := analytics.Status(profile)
		hours, known := status.HoursOffline.Get()
		rows = append(rows, MemberRow{
			Name:         member.MemberName,
			Rank:         member.Rank,
			HoursOffline: status.HoursOffline,
			Active:       status.Active,
			WeeklyGold:   nonZero(weekly[member.MemberName]),
			Warn:         known && hours >= threshold,
		})
	}
	return rows
}

func (s *AnalyticsService) Alerts(threshold float64) []analytics.Alert {
	st := s.view()
	return analytics.Alerts(st.snap.Members, st.snap.Profiles, threshold)
}

func (s *AnalyticsService) Logs(filter analytics.LogFilter) []*models.LogEntry {
	if filter.Limit <= 0 {
		filter.Limit = s.conf.Analytics.MaxLogRows
	}
	return filter.Apply(s.view().snap.Logs)
}

func (s *AnalyticsService) GoldWeeks() []GoldWeek {
	st := s.view()
	keys := st.gold.WeekKeys()
	weeks := make([]GoldWeek, 0, len(keys))
	for _, key := range keys {
		start := time.UnixMilli(key).In(s.clock.Location())
		weeks = append(weeks, GoldWeek{Key: key, Start: start, Label: s.clock.FormatRange(start)})
	}
	return weeks
}

func (s *AnalyticsService) GoldWeek(key int64) ([]analytics.MemberGold, bool) {
	return s.view().gold.Week(key)
}

func (s *AnalyticsService) Player(name string) (*PlayerView, error) {
	st := s.view()
	profile, ok := st.snap.Profile(name)
	if !ok {
		return nil, ErrUnknownMember
	}
	status := analytics.Status(profile)
	window := analytics.MemberLogs(st.snap.Logs, name, s.conf.Analytics.MemberLogWindow)
	return &PlayerView{
		Name:         name,
		HoursOffline: status.HoursOffline,
		Active:       status.Active,
		GameMode:     profile.GameMode,
		GuildName:    profile.GuildName,
		TaskName:     profile.TaskNameOnLogout,
		TaskType:     profile.TaskTypeOnLogout,
		Skills:       analytics.SkillCards(profile, s.levels),
		GoldDonated:  nonZero(analytics.MemberGoldTotal(st.snap.Logs, name)),
		Items:        analytics.AggregateItems(window),
	}, nil
}

func (s *AnalyticsService) PlayerEvents(name string) ([]analytics.ItemEvent, error) {
	st := s.view()
	if !s.isMember(st, name) {
		return nil, ErrUnknownMember
	}
	return analytics.ItemEvents(analytics.MemberLogs(st.snap.Logs, name, 0)), nil
}

func (s *AnalyticsService) isMember(st *state, name string) bool {
	if _, ok := st.snap.Profile(name); ok {
		return true
	}
	for _, member := range st.snap.Members {
		if member.MemberName == name {
			return true
		}
	}
	return false
}

func (s *AnalyticsService) Compare(a, b string) (*analytics.Comparison, error) {
	st := s.view()
	pa, ok := st.snap.Profile(a)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMember, a)
	}
	pb, ok := st.snap.Profile(b)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMember, b)
	}
	cmp := analytics.Compare(a, pa, b, pb, s.levels)
	return &cmp, nil
}

func (s *AnalyticsService) Market() []analytics.MarketRow {
	return analytics.MarketRows(s.view().snap.Market)
}

// MarketItem reads the persisted detail blob of one item on demand.
func (s *AnalyticsService) MarketItem(id int) (json.RawMessage, error) {
	raw, err := s.store.GetRaw(snapshot.MarketItemDataset(id))
	if errors.Is(err, snapshot.ErrNotFound) {
		return nil, ErrUnknownItem
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}
